// Package bridge keeps a table's view state in step with its persisted
// snapshot.
//
// On Start the bridge reconciles the URL-derived state with the stored
// snapshot (URL wins per key when it has values, the snapshot fills the
// gaps), commits the result to the URL and from then on overwrites the
// snapshot after every change.
//
//	b := bridge.New(store, snapshots, snapshot.Key(clientID, "tablename"))
//	b.Start(ctx)
//	defer b.Close()
package bridge

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/vango-dev/tableview/internal/errors"
	"github.com/vango-dev/tableview/pkg/snapshot"
	"github.com/vango-dev/tableview/pkg/urlparam"
	"github.com/vango-dev/tableview/pkg/viewstate"
)

// State is the lifecycle state of a Bridge.
type State int

const (
	Uninitialized State = iota
	initializing
	Initialized
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case initializing:
		return "initializing"
	case Initialized:
		return "initialized"
	default:
		return "unknown"
	}
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger for snapshot diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithSaveObserver registers fn to be called after every snapshot save
// attempt with its result.
func WithSaveObserver(fn func(err error)) Option {
	return func(b *Bridge) {
		b.onSave = fn
	}
}

// WithSaveTimeout bounds each snapshot save. Zero means no bound beyond the
// context passed to Start.
func WithSaveTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		b.saveTimeout = d
	}
}

// Bridge synchronizes one Store with one snapshot key.
// Like the Store it is confined to its session's event loop.
type Bridge struct {
	store     *urlparam.Store
	snapshots snapshot.Store
	key       string
	logger    *slog.Logger
	onSave    func(error)

	saveTimeout time.Duration

	state       State
	ctx         context.Context
	unsubscribe func()
}

// New creates a bridge. It subscribes to store immediately but persists
// nothing until Start has finished reconciling.
func New(store *urlparam.Store, snapshots snapshot.Store, key string, opts ...Option) *Bridge {
	b := &Bridge{
		store:     store,
		snapshots: snapshots,
		key:       key,
		logger:    slog.Default(),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.unsubscribe = store.Subscribe(b.onChange)
	return b
}

// Key returns the snapshot key.
func (b *Bridge) Key() string {
	return b.key
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	return b.state
}

// Start reconciles URL and snapshot state. It runs once; later calls
// return immediately. ctx is also used for the saves that follow, except
// those made inside Within.
func (b *Bridge) Start(ctx context.Context) {
	if b.state != Uninitialized {
		return
	}
	b.state = initializing
	b.ctx = ctx

	fromURL := b.store.Read()
	stored := b.load(ctx)
	merged := viewstate.Merge(fromURL, stored)

	b.store.WriteMode(merged, urlparam.ModeReplace)

	b.state = Initialized
	b.persist(b.store.Read())
}

// Within runs fn with ctx as the context of the snapshot saves it
// triggers, then restores the previous one.
func (b *Bridge) Within(ctx context.Context, fn func()) {
	prev := b.ctx
	b.ctx = ctx
	defer func() { b.ctx = prev }()
	fn()
}

// Close stops observing the store.
func (b *Bridge) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

func (b *Bridge) onChange(vs viewstate.ViewState) {
	if b.state != Initialized {
		return
	}
	b.persist(vs)
}

// load reads the snapshot, degrading every failure to the empty state.
func (b *Bridge) load(ctx context.Context) viewstate.ViewState {
	vs, err := snapshot.LoadState(ctx, b.snapshots, b.key)
	switch {
	case err == nil:
		return vs
	case stderrors.Is(err, snapshot.ErrMissing):
		b.logger.Debug("no snapshot", "key", b.key)
	case stderrors.Is(err, snapshot.ErrCorrupt):
		b.logger.Warn("ignoring snapshot", "key", b.key,
			"error", errors.New(errors.CodeSnapshotCorrupt).Wrap(err))
	default:
		b.logger.Warn("ignoring snapshot", "key", b.key,
			"error", errors.New(errors.CodeSnapshotUnavailable).Wrap(err))
	}
	return viewstate.ViewState{}
}

func (b *Bridge) persist(vs viewstate.ViewState) {
	ctx := b.ctx
	if b.saveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.saveTimeout)
		defer cancel()
	}
	err := snapshot.SaveState(ctx, b.snapshots, b.key, vs)
	if err != nil {
		b.logger.Error("snapshot save failed", "key", b.key,
			"error", errors.New(errors.CodeSnapshotSaveFailed).Wrap(err))
	}
	if b.onSave != nil {
		b.onSave(err)
	}
}
