package vtest

import (
	"context"
	"errors"
	"testing"

	"github.com/vango-dev/tableview/pkg/viewstate"
)

func TestPageBuilder(t *testing.T) {
	page := NewPage().
		WithQuery("sort=colA%3Aasc").
		WithClient("abc").
		WithSnapshot(viewstate.ViewState{PageSize: []string{"50"}}).
		Build()

	if page.Key() != "abc/tablename" {
		t.Errorf("Key = %q", page.Key())
	}
	ExpectState(t, page.Store.Read(), viewstate.ViewState{Sort: []string{"colA:asc"}})
	ExpectSnapshot(t, page, viewstate.ViewState{PageSize: []string{"50"}})

	if page.Snapshots.SaveCount() != 0 {
		t.Errorf("seeding recorded %d saves", page.Snapshots.SaveCount())
	}
}

func TestReloadSharesSnapshots(t *testing.T) {
	page := NewPage().WithQuery("pageIndex=3").Build()
	page.Snapshots.SeedState(page.Key(), viewstate.ViewState{Filter: []string{"colB:=:5"}})

	next := page.Reload("")
	if next.Snapshots != page.Snapshots {
		t.Fatal("reload must share the snapshot store")
	}
	ExpectQuery(t, next.Location, "")
	ExpectSnapshot(t, next, viewstate.ViewState{Filter: []string{"colB:=:5"}})
}

func TestRecordingStoreFailures(t *testing.T) {
	ctx := context.Background()
	rec := NewRecordingStore()
	boom := errors.New("boom")

	rec.FailSaves(boom)
	if err := rec.Save(ctx, "k", []byte("{}")); !errors.Is(err, boom) {
		t.Fatalf("Save = %v, want boom", err)
	}
	if data, _ := rec.Load(ctx, "k"); data != nil {
		t.Error("failed save must not store data")
	}
	saves := rec.Saves()
	if len(saves) != 1 || saves[0].Err != boom {
		t.Errorf("Saves = %+v", saves)
	}

	rec.FailSaves(nil)
	rec.FailLoads(boom)
	if _, err := rec.Load(ctx, "k"); !errors.Is(err, boom) {
		t.Errorf("Load = %v, want boom", err)
	}
	if rec.LoadCount() != 2 {
		t.Errorf("LoadCount = %d, want 2", rec.LoadCount())
	}
}

func TestRecordingStoreOnSave(t *testing.T) {
	rec := NewRecordingStore()
	var keys []string
	rec.OnSave(func(key string) { keys = append(keys, key) })

	rec.Save(context.Background(), "a", []byte("{}"))
	rec.Save(context.Background(), "b", []byte("{}"))
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("OnSave keys = %v", keys)
	}
}

func TestTruncate(t *testing.T) {
	if truncate("abc", 5) != "abc" {
		t.Error("short strings are unchanged")
	}
	if truncate("abcdef", 3) != "abc..." {
		t.Errorf("truncate = %q", truncate("abcdef", 3))
	}
}
