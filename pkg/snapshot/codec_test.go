package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/tableview/pkg/viewstate"
)

func TestEncodeWritesAllKeys(t *testing.T) {
	data, err := Encode(viewstate.ViewState{Sort: []string{"colA:asc"}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := `{"sort":["colA:asc"],"filter":[],"pageSize":[],"pageIndex":[]}`
	if string(data) != want {
		t.Errorf("Encode = %s, want %s", data, want)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    viewstate.ViewState
		corrupt bool
	}{
		{
			name: "full",
			data: `{"sort":["colB:desc","colA:asc"],"filter":["colB:=:5"],"pageSize":["20"],"pageIndex":["1"]}`,
			want: viewstate.ViewState{
				Sort:      []string{"colB:desc", "colA:asc"},
				Filter:    []string{"colB:=:5"},
				PageSize:  []string{"20"},
				PageIndex: []string{"1"},
			},
		},
		{name: "missing keys", data: `{"pageSize":["50"]}`, want: viewstate.ViewState{PageSize: []string{"50"}}},
		{name: "null fields", data: `{"sort":null,"filter":[]}`, want: viewstate.ViewState{}},
		{name: "null document", data: `null`, want: viewstate.ViewState{}},
		{name: "unknown fields ignored", data: `{"sort":["colA:desc"],"theme":"dark"}`, want: viewstate.ViewState{Sort: []string{"colA:desc"}}},
		{name: "not json", data: `{sort:`, corrupt: true},
		{name: "empty", data: ``, corrupt: true},
		{name: "wrong shape", data: `["colA:asc"]`, corrupt: true},
		{name: "wrong field type", data: `{"sort":"colA:asc"}`, corrupt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.data))
			if tt.corrupt {
				if !errors.Is(err, ErrCorrupt) {
					t.Fatalf("Decode error = %v, want ErrCorrupt", err)
				}
				if !got.IsEmpty() {
					t.Errorf("corrupt decode returned %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadSaveState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := LoadState(ctx, store, "k"); !errors.Is(err, ErrMissing) {
		t.Fatalf("LoadState on empty store = %v, want ErrMissing", err)
	}

	want := viewstate.ViewState{Sort: []string{"colA:asc"}, PageIndex: []string{"2"}}
	if err := SaveState(ctx, store, "k", want); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	got, err := LoadState(ctx, store, "k")
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadState mismatch (-want +got):\n%s", diff)
	}

	if err := store.Save(ctx, "bad", []byte("garbage")); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadState(ctx, store, "bad"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("LoadState(bad) = %v, want ErrCorrupt", err)
	}
}
