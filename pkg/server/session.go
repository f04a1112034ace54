package server

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/tableview/pkg/bridge"
	"github.com/vango-dev/tableview/pkg/middleware"
	"github.com/vango-dev/tableview/pkg/protocol"
	"github.com/vango-dev/tableview/pkg/rows"
	"github.com/vango-dev/tableview/pkg/snapshot"
	"github.com/vango-dev/tableview/pkg/table"
	"github.com/vango-dev/tableview/pkg/urlparam"
	"github.com/vango-dev/tableview/pkg/viewstate"
)

// TableTarget is the id of the page region replaced by HTML patches.
const TableTarget = "table"

// Session is the server-side state of one page view.
//
// The location, store, bridge and table are owned by the EventLoop
// goroutine. Everything else is safe for concurrent use.
type Session struct {
	// ID is the session identifier used by /ws and /api/state.
	ID string

	// ClientID identifies the browser; it is the client half of the
	// snapshot key.
	ClientID string

	CreatedAt time.Time

	config    *ServerConfig
	logger    *slog.Logger
	chain     middleware.Middleware
	source    rows.Source
	renderer  *renderer
	snapshots snapshot.Store

	// Event loop state
	location *urlparam.Location
	store    *urlparam.Store
	bridge   *bridge.Bridge
	table    *table.Table
	pending  []protocol.Patch
	sendSeq  uint64

	intents  chan protocol.Intent
	calls    chan func()
	done     chan struct{}
	loopDone chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc

	closed     atomic.Bool
	attached   atomic.Bool
	lastActive atomic.Int64

	// Connection
	connMu sync.Mutex
	conn   *websocket.Conn

	// Stats
	intentCount atomic.Uint64
	patchCount  atomic.Uint64
}

// sessionDeps are the collaborators a Server hands to each session.
type sessionDeps struct {
	config    *ServerConfig
	logger    *slog.Logger
	chain     middleware.Middleware
	source    rows.Source
	renderer  *renderer
	snapshots snapshot.Store
}

func generateSessionID() string {
	return uuid.NewString()
}

// newSession builds a session for one page request and starts its
// EventLoop. Nothing is read from the snapshot until Init.
func newSession(clientID, path, rawQuery string, deps sessionDeps) *Session {
	id := generateSessionID()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        id,
		ClientID:  clientID,
		CreatedAt: time.Now(),
		config:    deps.config,
		logger:    deps.logger.With("session", id),
		chain:     deps.chain,
		source:    deps.source,
		renderer:  deps.renderer,
		snapshots: deps.snapshots,
		intents:   make(chan protocol.Intent, deps.config.MaxIntentQueue),
		calls:     make(chan func()),
		done:      make(chan struct{}),
		loopDone:  make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.UpdateLastActive()

	nav := urlparam.NewNavigator(s.queuePatch)
	s.location = urlparam.NewLocation(path, rawQuery, nav)
	s.store = urlparam.NewStore(s.location,
		urlparam.WithMode(deps.config.HistoryMode),
		urlparam.WithLogger(s.logger))
	s.bridge = bridge.New(s.store, deps.snapshots, snapshot.Key(clientID, deps.config.TableID),
		bridge.WithLogger(s.logger),
		bridge.WithSaveObserver(middleware.RecordSnapshotSave),
		bridge.WithSaveTimeout(deps.config.IntentTimeout))
	s.table = table.New(s.store, deps.config.Columns,
		table.WithDefaultPageSize(deps.config.DefaultPageSize))

	go s.EventLoop()
	return s
}

// SnapshotKey returns the key the session persists under.
func (s *Session) SnapshotKey() string {
	return s.bridge.Key()
}

// Init reconciles the URL with the stored snapshot and renders the first
// table model. It returns the model and the reconciled query string.
func (s *Session) Init(ctx context.Context) (model table.Model, rawQuery string, err error) {
	doErr := s.Do(func() {
		s.bridge.Start(s.ctx)
		// The page carries the reconciled query itself.
		s.pending = nil
		rawQuery = s.location.RawQuery()

		ctx, cancel := context.WithTimeout(ctx, s.config.IntentTimeout)
		defer cancel()
		model, err = s.table.Model(ctx, s.source)
	})
	if doErr != nil {
		return table.Model{}, "", &SessionError{SessionID: s.ID, Op: "init", Err: doErr}
	}
	if err != nil {
		return model, rawQuery, &SessionError{SessionID: s.ID, Op: "load rows", Err: err}
	}
	return model, rawQuery, nil
}

// State returns the current view state.
func (s *Session) State() (viewstate.ViewState, error) {
	var vs viewstate.ViewState
	err := s.Do(func() {
		vs = s.store.Read()
	})
	return vs, err
}

// Location returns the current path and query of the page.
func (s *Session) Location() (path, rawQuery string, err error) {
	err = s.Do(func() {
		path, rawQuery = s.location.Path(), s.location.RawQuery()
	})
	return path, rawQuery, err
}

// =============================================================================
// Event loop
// =============================================================================

// EventLoop runs queued intents and calls until the session is closed.
func (s *Session) EventLoop() {
	defer close(s.loopDone)
	defer s.bridge.Close()

	for {
		select {
		case in := <-s.intents:
			s.handleIntent(in)

		case fn := <-s.calls:
			s.safeExecute(fn)

		case <-s.done:
			return
		}
	}
}

// Do runs fn on the EventLoop and waits for it to return.
func (s *Session) Do(fn func()) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	ran := make(chan struct{})
	select {
	case s.calls <- func() { defer close(ran); fn() }:
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// QueueIntent queues an intent for the EventLoop.
func (s *Session) QueueIntent(in protocol.Intent) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.intents <- in:
		return nil
	default:
		s.logger.Warn("intent queue full, dropping intent", "type", in.Type)
		return ErrIntentQueueFull
	}
}

func (s *Session) safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("call panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// handleIntent applies one intent through the middleware chain and sends
// the resulting patches, or an error message when the intent fails.
func (s *Session) handleIntent(in protocol.Intent) {
	s.intentCount.Add(1)
	s.UpdateLastActive()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("intent panic", "type", in.Type, "panic", r, "stack", string(debug.Stack()))
			s.pending = nil
			s.sendError(&protocol.ErrorMessage{Code: protocol.ErrHandlerPanic, Message: "intent handler failed"})
		}
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.config.IntentTimeout)
	defer cancel()

	call := &middleware.Call{SessionID: s.ID, Intent: in}
	err := s.chain.Handle(ctx, call, func(ctx context.Context) error {
		var err error
		s.bridge.Within(ctx, func() { err = s.applyIntent(in) })
		if err != nil {
			return err
		}
		patches, err := s.collectPatches(ctx)
		if err != nil {
			return err
		}
		call.Patches = len(patches)
		s.sendPatches(patches)
		return nil
	})
	if err != nil {
		s.pending = nil
		s.logger.Warn("intent failed", "type", in.Type, "column", in.Column, "error", err)
		s.sendError(wireError(err))
	}
}

// applyIntent maps an intent onto the table operations.
func (s *Session) applyIntent(in protocol.Intent) error {
	switch in.Type {
	case protocol.IntentToggleSort:
		if err := s.table.ToggleSort(in.Column); err != nil {
			return rejectIntent(in, "unknown column %q", in.Column).Wrap(err)
		}

	case protocol.IntentSortBy:
		if _, ok := s.table.Column(in.Column); !ok {
			return rejectIntent(in, "unknown column %q", in.Column)
		}
		order, ok := parseSortOrder(in.Value)
		if !ok {
			return rejectIntent(in, "invalid direction %q", in.Value)
		}
		table.SortBy(s.store, in.Column, order)

	case protocol.IntentSetPageIndex:
		n, err := strconv.Atoi(in.Value)
		if err != nil {
			return rejectIntent(in, "invalid page index %q", in.Value)
		}
		table.SetPageIndex(s.store, n)

	case protocol.IntentSetPageSize:
		n, err := strconv.Atoi(in.Value)
		if err != nil {
			return rejectIntent(in, "invalid page size %q", in.Value)
		}
		table.SetPageSize(s.store, n)

	case protocol.IntentAddFilter:
		if in.Column == "" {
			return rejectIntent(in, "missing column")
		}
		table.AddFilter(s.store, viewstate.FilterEntry{
			ColumnID: in.Column,
			Operator: in.Operator,
			Value:    in.Value,
		})

	case protocol.IntentRemoveFilter:
		table.RemoveFilter(s.store, in.Column)

	case protocol.IntentClear:
		table.Clear(s.store)

	case protocol.IntentPreset:
		p, ok := table.LookupPreset(in.Value)
		if !ok {
			return rejectIntent(in, "unknown preset %q", in.Value)
		}
		table.ApplyPreset(s.store, p)

	default:
		return rejectIntent(in, "unsupported intent")
	}
	return nil
}

func parseSortOrder(v string) (table.SortOrder, bool) {
	switch v {
	case "", string(viewstate.Asc):
		return table.SortAsc, true
	case string(viewstate.Desc):
		return table.SortDesc, true
	case "none":
		return table.SortNone, true
	default:
		return table.SortNone, false
	}
}

// queuePatch buffers a URL patch from the navigator. It runs on the
// EventLoop, inside a store write.
func (s *Session) queuePatch(p protocol.Patch) {
	s.pending = append(s.pending, p)
}

// collectPatches drains the URL patches and appends the re-rendered table.
func (s *Session) collectPatches(ctx context.Context) ([]protocol.Patch, error) {
	patches := s.pending
	s.pending = nil

	model, err := s.table.Model(ctx, s.source)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.Table(model)
	if err != nil {
		return nil, fmt.Errorf("server: render table: %w", err)
	}
	return append(patches, protocol.NewHTMLPatch(TableTarget, html)), nil
}

// =============================================================================
// Connection
// =============================================================================

// Attach binds a WebSocket connection to the session. A previous
// connection is closed.
func (s *Session) Attach(conn *websocket.Conn) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.connMu.Lock()
	old := s.conn
	s.conn = conn
	s.connMu.Unlock()
	if old != nil {
		old.Close()
	}
	s.attached.Store(true)
	s.UpdateLastActive()
	return nil
}

// IsAttached reports whether a WebSocket has ever been attached.
func (s *Session) IsAttached() bool {
	return s.attached.Load()
}

func (s *Session) sendPatches(patches []protocol.Patch) {
	if len(patches) == 0 {
		return
	}
	s.sendSeq++
	data, err := protocol.EncodePatches(&protocol.PatchesFrame{Seq: s.sendSeq, Patches: patches})
	if err != nil {
		s.logger.Error("encode patches", "error", err)
		return
	}
	if err := s.write(data); err != nil {
		s.logger.Debug("patches not sent", "seq", s.sendSeq, "error", err)
		return
	}
	s.patchCount.Add(uint64(len(patches)))
	middleware.RecordPatches(len(patches))
}

func (s *Session) sendError(em *protocol.ErrorMessage) {
	data, err := protocol.EncodeError(em)
	if err != nil {
		s.logger.Error("encode error message", "error", err)
		return
	}
	if err := s.write(data); err != nil {
		s.logger.Debug("error message not sent", "code", em.Code, "error", err)
	}
}

func (s *Session) write(data []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return ErrNoConnection
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		middleware.RecordWebSocketError("write")
		return err
	}
	return nil
}

func (s *Session) sendPing() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return ErrNoConnection
	}
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout))
}

// =============================================================================
// Lifecycle
// =============================================================================

// Close stops the EventLoop and closes the connection. It waits for an
// intent in progress to finish.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.cancel()
	close(s.done)
	<-s.loopDone

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	s.logger.Info("session closed",
		"intents", s.intentCount.Load(),
		"patches", s.patchCount.Load())
}

// IsClosed returns whether the session is closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done returns a channel that's closed when the session is done.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// UpdateLastActive updates the last activity timestamp.
func (s *Session) UpdateLastActive() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive returns the last activity time.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// SessionStats is a point-in-time view of session counters.
type SessionStats struct {
	ID         string
	ClientID   string
	Attached   bool
	Intents    uint64
	Patches    uint64
	CreatedAt  time.Time
	LastActive time.Time
}

// Stats returns the session counters.
func (s *Session) Stats() SessionStats {
	return SessionStats{
		ID:         s.ID,
		ClientID:   s.ClientID,
		Attached:   s.attached.Load(),
		Intents:    s.intentCount.Load(),
		Patches:    s.patchCount.Load(),
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive(),
	}
}
