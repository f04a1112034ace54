package protocol

// IntentType identifies a user intent emitted by the grid.
type IntentType string

const (
	IntentToggleSort   IntentType = "toggle_sort"    // Column
	IntentSortBy       IntentType = "sort_by"        // Column, Value = direction
	IntentSetPageIndex IntentType = "set_page_index" // Value
	IntentSetPageSize  IntentType = "set_page_size"  // Value
	IntentAddFilter    IntentType = "add_filter"     // Column, Operator, Value
	IntentRemoveFilter IntentType = "remove_filter"  // Column
	IntentClear        IntentType = "clear"          // no fields
	IntentPreset       IntentType = "preset"         // Value = preset name
)

// String returns the wire name of the intent type.
func (it IntentType) String() string {
	return string(it)
}

// Valid reports whether the intent type is known.
func (it IntentType) Valid() bool {
	switch it {
	case IntentToggleSort, IntentSortBy, IntentSetPageIndex, IntentSetPageSize,
		IntentAddFilter, IntentRemoveFilter, IntentClear, IntentPreset:
		return true
	default:
		return false
	}
}

// Intent is a client-to-server user action.
type Intent struct {
	Seq      uint64     `json:"seq,omitempty"`
	Type     IntentType `json:"type"`
	Column   string     `json:"column,omitempty"`
	Operator string     `json:"operator,omitempty"`
	Value    string     `json:"value,omitempty"`
}
