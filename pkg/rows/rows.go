// Package rows supplies table rows in the order requested by the view
// state's sort entries.
//
// Sorting is manual: the table never reorders what a Source returns, so a
// Source is responsible for honoring the SortSpecs it is given.
package rows

import (
	"context"

	"github.com/vango-dev/tableview/pkg/viewstate"
)

// Row is one table row keyed by column id.
type Row map[string]string

// Get returns the cell for column id, or "".
func (r Row) Get(id string) string {
	return r[id]
}

// SortSpec is one ordering term.
type SortSpec struct {
	ColumnID   string
	Descending bool
}

// Source returns rows ordered by specs, first spec most significant.
type Source interface {
	Rows(ctx context.Context, specs []SortSpec) ([]Row, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, specs []SortSpec) ([]Row, error)

// Rows implements Source.
func (f SourceFunc) Rows(ctx context.Context, specs []SortSpec) ([]Row, error) {
	return f(ctx, specs)
}

// SpecsFromState converts the sort entries of vs in order. Entries without
// a column id are skipped and a column only counts the first time it
// appears.
func SpecsFromState(vs viewstate.ViewState) []SortSpec {
	if len(vs.Sort) == 0 {
		return nil
	}
	specs := make([]SortSpec, 0, len(vs.Sort))
	seen := make(map[string]bool, len(vs.Sort))
	for _, raw := range vs.Sort {
		entry, _ := viewstate.ParseSort(raw)
		if entry.ColumnID == "" || seen[entry.ColumnID] {
			continue
		}
		seen[entry.ColumnID] = true
		specs = append(specs, SortSpec{ColumnID: entry.ColumnID, Descending: entry.Descending()})
	}
	return specs
}
