package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/tableview/pkg/viewstate"
)

func TestSortBy(t *testing.T) {
	store, _ := newStore(t, viewstate.ViewState{
		Sort:      []string{"colB:desc", "colC:asc"},
		PageIndex: []string{"2"},
	})

	SortBy(store, "colA", SortAsc)
	want := viewstate.ViewState{Sort: []string{"colA:asc"}, PageIndex: []string{"2"}}
	if diff := cmp.Diff(want, store.Read()); diff != "" {
		t.Errorf("SortBy mismatch (-want +got):\n%s", diff)
	}

	SortBy(store, "colA", SortNone)
	if len(store.Read().Sort) != 0 {
		t.Errorf("sort = %v", store.Read().Sort)
	}
}

func TestPaging(t *testing.T) {
	store, _ := newStore(t, viewstate.ViewState{})

	SetPageIndex(store, 3)
	SetPageSize(store, 50)
	got := store.Read()
	if got.PageIndexOr(-1) != 3 || got.PageSizeOr(-1) != 50 {
		t.Errorf("state = %+v", got)
	}

	SetPageIndex(store, -4)
	SetPageSize(store, 0)
	got = store.Read()
	if diff := cmp.Diff([]string{"0"}, got.PageIndex); diff != "" {
		t.Errorf("PageIndex: %s", diff)
	}
	if diff := cmp.Diff([]string{"1"}, got.PageSize); diff != "" {
		t.Errorf("PageSize: %s", diff)
	}
}

func TestFilters(t *testing.T) {
	store, loc := newStore(t, viewstate.ViewState{})

	AddFilter(store, viewstate.FilterEntry{ColumnID: "colB", Operator: "=", Value: "5"})
	AddFilter(store, viewstate.FilterEntry{ColumnID: "colA", Operator: "contains", Value: "a:b"})
	AddFilter(store, viewstate.FilterEntry{ColumnID: "colB", Operator: "=", Value: "5"})
	AddFilter(store, viewstate.FilterEntry{ColumnID: "colB", Operator: ">", Value: "1"})

	want := []string{"colB:=:5", "colA:contains:a:b", "colB:>:1"}
	if diff := cmp.Diff(want, store.Read().Filter); diff != "" {
		t.Errorf("Filter mismatch (-want +got):\n%s", diff)
	}
	// The duplicate add rewrote the same query in place.
	if pushes, replaces := loc.HistoryLen(); pushes != 3 || replaces != 1 {
		t.Errorf("history = %d pushes, %d replaces", pushes, replaces)
	}

	RemoveFilter(store, "colB")
	if diff := cmp.Diff([]string{"colA:contains:a:b"}, store.Read().Filter); diff != "" {
		t.Errorf("after RemoveFilter: %s", diff)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	store, loc := newStore(t, TestPreset.State)

	Clear(store)
	Clear(store)

	if loc.RawQuery() != "" {
		t.Errorf("query = %q", loc.RawQuery())
	}
	if !store.Read().IsEmpty() {
		t.Errorf("state = %+v", store.Read())
	}
	if pushes, replaces := loc.HistoryLen(); pushes != 1 || replaces != 1 {
		t.Errorf("history = %d pushes, %d replaces", pushes, replaces)
	}
}

func TestApplyPreset(t *testing.T) {
	store, loc := newStore(t, viewstate.ViewState{Sort: []string{"colC:desc"}})

	p, ok := LookupPreset("test")
	if !ok {
		t.Fatal("test preset missing")
	}
	ApplyPreset(store, p)

	if diff := cmp.Diff(TestPreset.State, store.Read()); diff != "" {
		t.Errorf("preset mismatch (-want +got):\n%s", diff)
	}
	want := "sort=colA%3Aasc&sort=colB%3Adesc&filter=colB%3A%3D%3A5&pageSize=20&pageIndex=1"
	if loc.RawQuery() != want {
		t.Errorf("query = %q\nwant    %q", loc.RawQuery(), want)
	}

	// Lookups hand out copies.
	p.State.Sort[0] = "mutated"
	again, _ := LookupPreset("test")
	if again.State.Sort[0] != "colA:asc" {
		t.Error("LookupPreset leaked shared state")
	}

	if _, ok := LookupPreset("nope"); ok {
		t.Error("unknown preset found")
	}
}
