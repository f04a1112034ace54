package viewstate

import (
	"strconv"
	"strings"
)

// Direction is a sort direction as encoded in the URL.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortEntry is one decoded element of the sort list.
type SortEntry struct {
	ColumnID  string
	Direction Direction
}

// Descending reports whether the entry sorts descending.
func (e SortEntry) Descending() bool {
	return e.Direction == Desc
}

// String encodes the entry as "<columnId>:<direction>".
func (e SortEntry) String() string {
	return e.ColumnID + ":" + string(e.Direction)
}

// ParseSort decodes a sort entry. It never fails: a missing or unknown
// direction decodes as ascending, and ok reports whether the entry was
// well formed.
func ParseSort(s string) (entry SortEntry, ok bool) {
	id, dir, found := strings.Cut(s, ":")
	entry.ColumnID = id
	switch Direction(dir) {
	case Desc:
		entry.Direction = Desc
		return entry, found
	case Asc:
		entry.Direction = Asc
		return entry, found
	default:
		entry.Direction = Asc
		return entry, false
	}
}

// SortColumnID returns the column id of an encoded sort entry.
func SortColumnID(s string) string {
	id, _, _ := strings.Cut(s, ":")
	return id
}

// FilterEntry is one decoded element of the filter list.
type FilterEntry struct {
	ColumnID string
	Operator string
	Value    string
}

// String encodes the entry as "<columnId>:<operator>:<value>".
func (e FilterEntry) String() string {
	return e.ColumnID + ":" + e.Operator + ":" + e.Value
}

// ParseFilter decodes a filter entry. The value keeps any further colons.
// Missing parts decode as empty strings and ok is false.
func ParseFilter(s string) (entry FilterEntry, ok bool) {
	parts := strings.SplitN(s, ":", 3)
	entry.ColumnID = parts[0]
	if len(parts) > 1 {
		entry.Operator = parts[1]
	}
	if len(parts) > 2 {
		entry.Value = parts[2]
	}
	return entry, len(parts) == 3 && entry.ColumnID != "" && entry.Operator != ""
}

// PageIndexOr returns the first pageIndex value as an int, or def when unset
// or not a non-negative number.
func (v ViewState) PageIndexOr(def int) int {
	return firstInt(v.PageIndex, def, 0)
}

// PageSizeOr returns the first pageSize value as an int, or def when unset
// or not a positive number.
func (v ViewState) PageSizeOr(def int) int {
	return firstInt(v.PageSize, def, 1)
}

func firstInt(vals []string, def, min int) int {
	if len(vals) == 0 {
		return def
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil || n < min {
		return def
	}
	return n
}
