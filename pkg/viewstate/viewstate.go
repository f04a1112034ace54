// Package viewstate defines the table view configuration shared by the URL
// store, the persistence bridge, and the grid.
//
// A ViewState holds four ordered lists of strings:
//
//	sort      "<columnId>:<asc|desc>"          (primary key first)
//	filter    "<columnId>:<operator>:<value>"
//	pageSize  "<n>"
//	pageIndex "<n>"
//
// An empty list means the key is unset.
package viewstate

import "slices"

// Key names one of the recognized view-state fields.
type Key string

const (
	KeySort      Key = "sort"
	KeyFilter    Key = "filter"
	KeyPageSize  Key = "pageSize"
	KeyPageIndex Key = "pageIndex"
)

// Keys lists the recognized keys in canonical order.
// The URL encoder and the snapshot codec both emit fields in this order.
var Keys = []Key{KeySort, KeyFilter, KeyPageSize, KeyPageIndex}

// IsRecognized reports whether name is one of the recognized keys.
func IsRecognized(name string) bool {
	for _, k := range Keys {
		if string(k) == name {
			return true
		}
	}
	return false
}

// ViewState is the table configuration. The zero value is the empty state.
type ViewState struct {
	Sort      []string `json:"sort"`
	Filter    []string `json:"filter"`
	PageSize  []string `json:"pageSize"`
	PageIndex []string `json:"pageIndex"`
}

// Get returns the values stored under key. Unknown keys return nil.
func (v ViewState) Get(key Key) []string {
	switch key {
	case KeySort:
		return v.Sort
	case KeyFilter:
		return v.Filter
	case KeyPageSize:
		return v.PageSize
	case KeyPageIndex:
		return v.PageIndex
	default:
		return nil
	}
}

// With returns a copy of v with key replaced by values.
// Unknown keys leave v unchanged.
func (v ViewState) With(key Key, values []string) ViewState {
	out := v.Clone()
	vals := slices.Clone(values)
	switch key {
	case KeySort:
		out.Sort = vals
	case KeyFilter:
		out.Filter = vals
	case KeyPageSize:
		out.PageSize = vals
	case KeyPageIndex:
		out.PageIndex = vals
	}
	return out
}

// Clone returns a deep copy.
func (v ViewState) Clone() ViewState {
	return ViewState{
		Sort:      slices.Clone(v.Sort),
		Filter:    slices.Clone(v.Filter),
		PageSize:  slices.Clone(v.PageSize),
		PageIndex: slices.Clone(v.PageIndex),
	}
}

// IsEmpty reports whether every key is unset.
func (v ViewState) IsEmpty() bool {
	return len(v.Sort) == 0 && len(v.Filter) == 0 && len(v.PageSize) == 0 && len(v.PageIndex) == 0
}

// Equal compares two states key by key. Nil and empty lists are equal.
func (v ViewState) Equal(other ViewState) bool {
	for _, k := range Keys {
		if !slices.Equal(v.Get(k), other.Get(k)) {
			return false
		}
	}
	return true
}

// Normalize returns a copy where every empty list is nil.
func (v ViewState) Normalize() ViewState {
	out := v.Clone()
	for _, k := range Keys {
		if len(out.Get(k)) == 0 {
			out = out.With(k, nil)
		}
	}
	return out
}

// Merge layers strong over weak: for each key the strong value is kept when
// it is non-empty, otherwise the weak value fills the gap.
func Merge(strong, weak ViewState) ViewState {
	out := ViewState{}
	for _, k := range Keys {
		vals := strong.Get(k)
		if len(vals) == 0 {
			vals = weak.Get(k)
		}
		if len(vals) > 0 {
			out = out.With(k, vals)
		}
	}
	return out
}
