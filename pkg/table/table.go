package table

import (
	"context"
	"fmt"

	"github.com/vango-dev/tableview/pkg/rows"
	"github.com/vango-dev/tableview/pkg/viewstate"
)

// ColumnDef describes one column.
type ColumnDef struct {
	ID     string
	Header string

	DisableSorting bool

	// SortDescFirst makes the first toggle sort descending.
	SortDescFirst bool

	// DisableSortRemoval keeps the column sorted once it has been toggled:
	// it alternates between asc and desc instead of returning to unsorted.
	DisableSortRemoval bool
}

// label returns the header text, defaulting to the id.
func (d ColumnDef) label() string {
	if d.Header != "" {
		return d.Header
	}
	return d.ID
}

// DefaultColumns returns the three fixture columns.
func DefaultColumns() []ColumnDef {
	defs := make([]ColumnDef, len(rows.FixtureColumns))
	for i, id := range rows.FixtureColumns {
		defs[i] = ColumnDef{ID: id, Header: id}
	}
	return defs
}

// ColumnsFor returns sortable columns with the given ids.
func ColumnsFor(ids []string) []ColumnDef {
	defs := make([]ColumnDef, len(ids))
	for i, id := range ids {
		defs[i] = ColumnDef{ID: id, Header: id}
	}
	return defs
}

// SortingRule is the grid's view of one sort entry.
type SortingRule struct {
	ID   string
	Desc bool
}

// SortingFromState derives the sorting rules from the sort list. A column
// only counts the first time it appears.
func SortingFromState(vs viewstate.ViewState) []SortingRule {
	specs := rows.SpecsFromState(vs)
	if len(specs) == 0 {
		return nil
	}
	rules := make([]SortingRule, len(specs))
	for i, s := range specs {
		rules[i] = SortingRule{ID: s.ColumnID, Desc: s.Descending}
	}
	return rules
}

// ErrUnknownColumn is returned for column ids the table does not define.
type ErrUnknownColumn struct {
	ID string
}

func (e *ErrUnknownColumn) Error() string {
	return fmt.Sprintf("table: unknown column %q", e.ID)
}

// Option configures a Table.
type Option func(*Table)

// WithDefaultPageSize sets the page size reported when the view state has
// none. Default: 10.
func WithDefaultPageSize(n int) Option {
	return func(t *Table) {
		if n > 0 {
			t.defaultPageSize = n
		}
	}
}

// Table binds column definitions to a view-state store.
type Table struct {
	store           Store
	columns         []ColumnDef
	defaultPageSize int
}

// New creates a table over store.
func New(store Store, columns []ColumnDef, opts ...Option) *Table {
	t := &Table{
		store:           store,
		columns:         append([]ColumnDef(nil), columns...),
		defaultPageSize: 10,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Store returns the table's view-state store.
func (t *Table) Store() Store {
	return t.store
}

// Columns returns the column definitions.
func (t *Table) Columns() []ColumnDef {
	return append([]ColumnDef(nil), t.columns...)
}

// Sorting returns the sorting rules of the current view state.
func (t *Table) Sorting() []SortingRule {
	return SortingFromState(t.store.Read())
}

// Column returns the column with id bound to the current view state.
func (t *Table) Column(id string) (*BoundColumn, bool) {
	for _, def := range t.columns {
		if def.ID == id {
			return &BoundColumn{def: def, table: t}, true
		}
	}
	return nil, false
}

// ToggleSort toggles the column with id.
func (t *Table) ToggleSort(id string) error {
	col, ok := t.Column(id)
	if !ok {
		return &ErrUnknownColumn{ID: id}
	}
	ToggleSort(t.store, col)
	return nil
}

// BoundColumn is a column definition read against the live view state.
type BoundColumn struct {
	def   ColumnDef
	table *Table
}

var _ Column = (*BoundColumn)(nil)

// ID implements Column.
func (c *BoundColumn) ID() string { return c.def.ID }

// CanSort implements Column.
func (c *BoundColumn) CanSort() bool { return !c.def.DisableSorting }

// Def returns the column definition.
func (c *BoundColumn) Def() ColumnDef { return c.def }

// IsSorted returns the column's current order, SortNone when unsorted.
func (c *BoundColumn) IsSorted() SortOrder {
	return sortedAs(c.table.Sorting(), c.def.ID)
}

// FirstSortOrder is the order applied by the first toggle.
func (c *BoundColumn) FirstSortOrder() SortOrder {
	if c.def.SortDescFirst {
		return SortDesc
	}
	return SortAsc
}

// NextSortOrder implements Column. An unsorted column moves to its first
// order, then to the opposite one, and from there back to unsorted unless
// removal is disabled.
func (c *BoundColumn) NextSortOrder() SortOrder {
	current := c.IsSorted()
	first := c.FirstSortOrder()
	if current == SortNone {
		return first
	}
	if current != first && !c.def.DisableSortRemoval {
		return SortNone
	}
	if current == SortDesc {
		return SortAsc
	}
	return SortDesc
}

func sortedAs(rules []SortingRule, id string) SortOrder {
	for _, r := range rules {
		if r.ID == id {
			if r.Desc {
				return SortDesc
			}
			return SortAsc
		}
	}
	return SortNone
}

// HeaderCell is one rendered column header.
type HeaderCell struct {
	ID        string
	Label     string
	Sortable  bool
	Sorted    SortOrder
	Indicator string

	// Position is the 1-based rank among sorted columns, 0 when unsorted.
	Position int
}

// Model is everything a view needs to draw the table.
type Model struct {
	State     viewstate.ViewState
	Headers   []HeaderCell
	Rows      [][]string
	Filters   []viewstate.FilterEntry
	PageIndex int
	PageSize  int
}

// Model reads the view state, fetches rows from src in the requested order
// and builds the render model. Rows are shown exactly as src returns them.
func (t *Table) Model(ctx context.Context, src rows.Source) (Model, error) {
	vs := t.store.Read()
	specs := rows.SpecsFromState(vs)

	data, err := src.Rows(ctx, specs)
	if err != nil {
		return Model{}, fmt.Errorf("table: load rows: %w", err)
	}

	rules := SortingFromState(vs)
	m := Model{
		State:     vs,
		Headers:   make([]HeaderCell, len(t.columns)),
		Rows:      make([][]string, len(data)),
		PageIndex: vs.PageIndexOr(0),
		PageSize:  vs.PageSizeOr(t.defaultPageSize),
	}
	for i, def := range t.columns {
		h := HeaderCell{
			ID:       def.ID,
			Label:    def.label(),
			Sortable: !def.DisableSorting,
			Sorted:   sortedAs(rules, def.ID),
		}
		switch h.Sorted {
		case SortAsc:
			h.Indicator = "▲"
		case SortDesc:
			h.Indicator = "▼"
		}
		for pos, r := range rules {
			if r.ID == def.ID {
				h.Position = pos + 1
				break
			}
		}
		m.Headers[i] = h
	}
	for i, row := range data {
		cells := make([]string, len(t.columns))
		for j, def := range t.columns {
			cells[j] = row.Get(def.ID)
		}
		m.Rows[i] = cells
	}
	for _, raw := range vs.Filter {
		f, _ := viewstate.ParseFilter(raw)
		m.Filters = append(m.Filters, f)
	}
	return m, nil
}
