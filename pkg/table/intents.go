package table

import (
	"slices"
	"strconv"

	"github.com/vango-dev/tableview/pkg/viewstate"
)

// SortBy replaces the whole sort list with a single entry for columnID,
// keeping the other keys. SortNone clears the sort list.
func SortBy(store Store, columnID string, order SortOrder) {
	store.Update(func(prev viewstate.ViewState) viewstate.ViewState {
		return prev.With(viewstate.KeySort, toggledSort(nil, columnID, order))
	})
}

// SetPageIndex stores n as the page index. Negative values become 0.
func SetPageIndex(store Store, n int) {
	if n < 0 {
		n = 0
	}
	store.Update(func(prev viewstate.ViewState) viewstate.ViewState {
		return prev.With(viewstate.KeyPageIndex, []string{strconv.Itoa(n)})
	})
}

// SetPageSize stores n as the page size. Values below 1 become 1.
func SetPageSize(store Store, n int) {
	if n < 1 {
		n = 1
	}
	store.Update(func(prev viewstate.ViewState) viewstate.ViewState {
		return prev.With(viewstate.KeyPageSize, []string{strconv.Itoa(n)})
	})
}

// AddFilter appends f to the filter list unless an identical entry is
// already present.
func AddFilter(store Store, f viewstate.FilterEntry) {
	entry := f.String()
	store.Update(func(prev viewstate.ViewState) viewstate.ViewState {
		if slices.Contains(prev.Filter, entry) {
			return prev
		}
		return prev.With(viewstate.KeyFilter, append(slices.Clone(prev.Filter), entry))
	})
}

// RemoveFilter drops every filter on columnID.
func RemoveFilter(store Store, columnID string) {
	store.Update(func(prev viewstate.ViewState) viewstate.ViewState {
		next := make([]string, 0, len(prev.Filter))
		for _, raw := range prev.Filter {
			if f, _ := viewstate.ParseFilter(raw); f.ColumnID != columnID {
				next = append(next, raw)
			}
		}
		return prev.With(viewstate.KeyFilter, next)
	})
}

// Clear removes every view-state key.
func Clear(store Store) {
	store.Clear()
}

// Preset is a named, complete view state.
type Preset struct {
	Name  string
	State viewstate.ViewState
}

// TestPreset exercises every key at once.
var TestPreset = Preset{
	Name: "test",
	State: viewstate.ViewState{
		Sort:      []string{"colA:asc", "colB:desc"},
		Filter:    []string{"colB:=:5"},
		PageSize:  []string{"20"},
		PageIndex: []string{"1"},
	},
}

var presets = map[string]Preset{
	TestPreset.Name: TestPreset,
}

// LookupPreset returns the preset registered under name.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, false
	}
	p.State = p.State.Clone()
	return p, true
}

// ApplyPreset replaces the whole view state with the preset's.
func ApplyPreset(store Store, p Preset) {
	store.Write(p.State.Clone())
}
