package snapshot

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/vango-dev/tableview/pkg/viewstate"
)

var (
	// ErrMissing is returned by LoadState when no snapshot exists.
	ErrMissing = errors.New("snapshot missing")

	// ErrCorrupt is returned when snapshot data is not a valid encoding.
	ErrCorrupt = errors.New("snapshot corrupt")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// document is the persisted shape. Every field is always written.
type document struct {
	Sort      []string `json:"sort"`
	Filter    []string `json:"filter"`
	PageSize  []string `json:"pageSize"`
	PageIndex []string `json:"pageIndex"`
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// Encode serializes vs.
func Encode(vs viewstate.ViewState) ([]byte, error) {
	return json.Marshal(document{
		Sort:      nonNil(vs.Sort),
		Filter:    nonNil(vs.Filter),
		PageSize:  nonNil(vs.PageSize),
		PageIndex: nonNil(vs.PageIndex),
	})
}

// Decode parses snapshot data. Missing keys and null decode as empty lists.
func Decode(data []byte) (viewstate.ViewState, error) {
	if !jsoniter.ConfigFastest.Valid(data) {
		return viewstate.ViewState{}, ErrCorrupt
	}
	var doc *document
	if err := json.Unmarshal(data, &doc); err != nil {
		return viewstate.ViewState{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc == nil {
		return viewstate.ViewState{}, nil
	}
	return viewstate.ViewState{
		Sort:      doc.Sort,
		Filter:    doc.Filter,
		PageSize:  doc.PageSize,
		PageIndex: doc.PageIndex,
	}.Normalize(), nil
}

// LoadState loads and decodes the snapshot stored under key.
// It returns ErrMissing when there is none and an ErrCorrupt-wrapped error
// when the data does not decode.
func LoadState(ctx context.Context, store Store, key string) (viewstate.ViewState, error) {
	data, err := store.Load(ctx, key)
	if err != nil {
		return viewstate.ViewState{}, err
	}
	if data == nil {
		return viewstate.ViewState{}, ErrMissing
	}
	return Decode(data)
}

// SaveState encodes vs and saves it under key.
func SaveState(ctx context.Context, store Store, key string, vs viewstate.ViewState) error {
	data, err := Encode(vs)
	if err != nil {
		return err
	}
	return store.Save(ctx, key, data)
}
