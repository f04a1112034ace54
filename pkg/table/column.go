package table

import "github.com/vango-dev/tableview/pkg/viewstate"

// SortOrder is the order a column will be sorted in next.
type SortOrder int

const (
	// SortNone removes the column from the sort list.
	SortNone SortOrder = iota
	SortAsc
	SortDesc
)

// String returns "asc", "desc" or "none".
func (o SortOrder) String() string {
	switch o {
	case SortAsc:
		return string(viewstate.Asc)
	case SortDesc:
		return string(viewstate.Desc)
	default:
		return "none"
	}
}

// Column is a table column as seen by ToggleSort.
type Column interface {
	// ID is the column identifier used in sort entries.
	ID() string

	// CanSort reports whether the column may be sorted at all.
	CanSort() bool

	// NextSortOrder is the order the column moves to on the next toggle.
	NextSortOrder() SortOrder
}

// Store is the view-state store the table writes to.
type Store interface {
	Read() viewstate.ViewState
	Write(next viewstate.ViewState)
	Update(fn func(prev viewstate.ViewState) viewstate.ViewState)
	Clear()
}

// ToggleSort moves col to its next sort order. Existing entries for the
// column are dropped and, unless the next order is SortNone, one entry is
// appended at the end so the column becomes the least significant sort.
// Unsortable columns are ignored.
func ToggleSort(store Store, col Column) {
	if !col.CanSort() {
		return
	}
	id := col.ID()
	order := col.NextSortOrder()
	store.Update(func(prev viewstate.ViewState) viewstate.ViewState {
		return prev.With(viewstate.KeySort, toggledSort(prev.Sort, id, order))
	})
}

func toggledSort(prev []string, id string, order SortOrder) []string {
	next := make([]string, 0, len(prev)+1)
	for _, s := range prev {
		if viewstate.SortColumnID(s) != id {
			next = append(next, s)
		}
	}
	switch order {
	case SortAsc:
		next = append(next, viewstate.SortEntry{ColumnID: id, Direction: viewstate.Asc}.String())
	case SortDesc:
		next = append(next, viewstate.SortEntry{ColumnID: id, Direction: viewstate.Desc}.String())
	}
	return next
}
