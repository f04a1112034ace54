package vtest

import (
	"context"
	"sync"

	"github.com/vango-dev/tableview/pkg/snapshot"
	"github.com/vango-dev/tableview/pkg/viewstate"
)

// SaveRecord is one observed Save call.
type SaveRecord struct {
	Key  string
	Data []byte
	Err  error
}

// RecordingStore is a snapshot.Store that records saves and can inject
// failures. It is safe for concurrent use.
type RecordingStore struct {
	inner *snapshot.MemoryStore

	mu      sync.Mutex
	saves   []SaveRecord
	loads   int
	saveErr error
	loadErr error
	onSave  func(key string)
}

var _ snapshot.Store = (*RecordingStore)(nil)

// NewRecordingStore creates an empty recording store.
func NewRecordingStore() *RecordingStore {
	return &RecordingStore{inner: snapshot.NewMemoryStore()}
}

// FailSaves makes every following Save return err. Pass nil to stop.
func (r *RecordingStore) FailSaves(err error) {
	r.mu.Lock()
	r.saveErr = err
	r.mu.Unlock()
}

// FailLoads makes every following Load return err. Pass nil to stop.
func (r *RecordingStore) FailLoads(err error) {
	r.mu.Lock()
	r.loadErr = err
	r.mu.Unlock()
}

// OnSave registers fn to be called synchronously before each save is
// applied.
func (r *RecordingStore) OnSave(fn func(key string)) {
	r.mu.Lock()
	r.onSave = fn
	r.mu.Unlock()
}

// Seed stores raw data under key without recording a save.
func (r *RecordingStore) Seed(key string, data []byte) {
	_ = r.inner.Save(context.Background(), key, data)
}

// SeedState stores the encoded vs under key without recording a save.
func (r *RecordingStore) SeedState(key string, vs viewstate.ViewState) {
	data, _ := snapshot.Encode(vs)
	r.Seed(key, data)
}

// Save records the call and stores data unless saves are failing.
func (r *RecordingStore) Save(ctx context.Context, key string, data []byte) error {
	r.mu.Lock()
	fn, err := r.onSave, r.saveErr
	r.mu.Unlock()

	if fn != nil {
		fn(key)
	}
	if err == nil {
		err = r.inner.Save(ctx, key, data)
	}

	r.mu.Lock()
	r.saves = append(r.saves, SaveRecord{Key: key, Data: append([]byte(nil), data...), Err: err})
	r.mu.Unlock()
	return err
}

// Load returns the stored data unless loads are failing.
func (r *RecordingStore) Load(ctx context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	r.loads++
	err := r.loadErr
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.inner.Load(ctx, key)
}

// Delete removes key.
func (r *RecordingStore) Delete(ctx context.Context, key string) error {
	return r.inner.Delete(ctx, key)
}

// Close closes the underlying memory store.
func (r *RecordingStore) Close() error {
	return r.inner.Close()
}

// Saves returns a copy of every recorded save, failed ones included.
func (r *RecordingStore) Saves() []SaveRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SaveRecord(nil), r.saves...)
}

// SaveCount returns the number of Save calls.
func (r *RecordingStore) SaveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

// LoadCount returns the number of Load calls.
func (r *RecordingStore) LoadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}

// State decodes the snapshot currently stored under key. A missing or
// corrupt snapshot is the empty state.
func (r *RecordingStore) State(key string) viewstate.ViewState {
	vs, _ := snapshot.LoadState(context.Background(), r.inner, key)
	return vs
}
