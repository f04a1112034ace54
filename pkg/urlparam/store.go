// Package urlparam keeps a table's view state in the URL query string.
//
// The URL is the single source of truth: a Store reads the recognized keys
// (sort, filter, pageSize, pageIndex) out of its Source on every Read, and
// every Write replaces all of them at once.
//
// Example:
//
//	loc := urlparam.NewLocation("/", "sort=colA%3Aasc&q=ignored", nil)
//	store := urlparam.NewStore(loc)
//
//	store.Read()  // {Sort: [colA:asc]}
//	store.Update(func(prev viewstate.ViewState) viewstate.ViewState {
//	    return prev.With(viewstate.KeyPageIndex, []string{"2"})
//	})
//	loc.RawQuery() // "sort=colA%3Aasc&pageIndex=2"
//
//	store.Clear()  // writes the empty state; all recognized keys removed
package urlparam

import (
	"log/slog"

	"github.com/vango-dev/tableview/pkg/viewstate"
)

// Option configures a Store.
type Option func(*Store)

// WithMode sets the history mode used by Write and Update.
// Default: ModePush.
func WithMode(mode URLMode) Option {
	return func(s *Store) {
		s.mode = mode
	}
}

// WithLogger sets the logger used for malformed query diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type subscriber struct {
	id int
	fn func(viewstate.ViewState)
}

// Store is the view-state store for one page view.
// It is not safe for concurrent use; all calls must come from the owner's
// event loop.
type Store struct {
	source Source
	mode   URLMode
	logger *slog.Logger

	subs   []subscriber
	nextID int
}

// NewStore creates a store backed by source.
func NewStore(source Source, opts ...Option) *Store {
	s := &Store{
		source: source,
		mode:   ModePush,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the default history mode.
func (s *Store) Mode() URLMode {
	return s.mode
}

// Read parses the current query string.
func (s *Store) Read() viewstate.ViewState {
	raw := s.source.RawQuery()
	vs, err := Decode(raw)
	if err != nil {
		s.logger.Debug("malformed query string", "query", raw, "error", err)
	}
	return vs
}

// Write replaces every recognized key in the URL with the values in next
// and notifies subscribers. Keys with no values are removed.
func (s *Store) Write(next viewstate.ViewState) {
	s.WriteMode(next, s.mode)
}

// WriteMode is Write with an explicit history mode. Writing the query that
// is already current always replaces, so repeated writes do not grow the
// history.
func (s *Store) WriteMode(next viewstate.ViewState, mode URLMode) {
	query := Encode(next)
	if query == s.source.RawQuery() {
		mode = ModeReplace
	}
	s.source.Navigate(query, mode)
	s.notify()
}

// Update computes the next state from the current one and writes it.
func (s *Store) Update(fn func(prev viewstate.ViewState) viewstate.ViewState) {
	s.Write(fn(s.Read()))
}

// Clear removes all recognized keys from the URL.
func (s *Store) Clear() {
	s.Write(viewstate.ViewState{})
}

// Subscribe registers fn to be called with the freshly read state after
// every write. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(viewstate.ViewState)) (unsubscribe func()) {
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify() {
	if len(s.subs) == 0 {
		return
	}
	current := s.Read()
	subs := append([]subscriber(nil), s.subs...)
	for _, sub := range subs {
		sub.fn(current.Clone())
	}
}
