package server

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/tableview/internal/errors"
	"github.com/vango-dev/tableview/pkg/middleware"
	"github.com/vango-dev/tableview/pkg/rows"
	"github.com/vango-dev/tableview/pkg/snapshot"
)

// ClientCookieName is the cookie holding the browser's client id.
const ClientCookieName = "tv_client"

// clientCookieMaxAge keeps the client id for a year.
const clientCookieMaxAge = 365 * 24 * 60 * 60

// Server is the HTTP/WebSocket server for the table page.
type Server struct {
	config    *ServerConfig
	sessions  *SessionManager
	snapshots snapshot.Store
	source    rows.Source
	renderer  *renderer

	middleware     []middleware.Middleware
	metricsHandler http.Handler

	upgrader   websocket.Upgrader
	router     chi.Router
	httpServer *http.Server

	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMiddleware appends intent middleware. The first one is outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, mws...)
	}
}

// WithMetricsHandler replaces the handler served on MetricsPath.
// Default: promhttp.Handler().
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// New creates a Server. snapshots and source are used by every session;
// the server does not close them.
func New(config *ServerConfig, snapshots snapshot.Store, source rows.Source, opts ...Option) *Server {
	config = config.withDefaults()
	s := &Server{
		config:    config,
		snapshots: snapshots,
		source:    source,
		renderer:  newRenderer(),
		logger:    slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	s.sessions = NewSessionManager(config, s.logger)
	if s.metricsHandler == nil {
		s.metricsHandler = promhttp.Handler()
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.HandleWebSocket)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Delete("/snapshot", s.handleDeleteSnapshot)
	})
	if s.config.MetricsPath != "" {
		r.Handle(s.config.MetricsPath, s.metricsHandler)
	}
	r.Get(s.config.TablePath, s.handlePage)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) sessionDeps() sessionDeps {
	return sessionDeps{
		config:    s.config,
		logger:    s.logger,
		chain:     middleware.Chain(s.middleware...),
		source:    s.source,
		renderer:  s.renderer,
		snapshots: s.snapshots,
	}
}

// =============================================================================
// Handlers
// =============================================================================

// handlePage creates a session, reconciles its state and renders the page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	clientID := s.clientID(w, r)

	sess := newSession(clientID, r.URL.Path, r.URL.RawQuery, s.sessionDeps())
	if err := s.sessions.Add(sess); err != nil {
		sess.Close()
		s.logger.Warn("session rejected", "client", clientID, "error", err)
		http.Error(w, "Too many sessions", http.StatusServiceUnavailable)
		return
	}

	model, rawQuery, err := sess.Init(r.Context())
	if err != nil {
		s.logger.Error("page init failed", "client", clientID, "error", err)
		s.sessions.Close(sess.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Page(&buf, sess.ID, r.URL.Path, rawQuery, model); err != nil {
		s.logger.Error("page render failed", "session", sess.ID, "error", err)
		s.sessions.Close(sess.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HandleWebSocket attaches a WebSocket to an existing session and serves
// its intents until the connection ends, which also ends the session.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	sess := s.sessions.Get(id)
	if sess == nil {
		s.writeError(w, http.StatusNotFound, sessionNotFound(id))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "session", id, "error", err)
		middleware.RecordWebSocketError("upgrade")
		return
	}
	if err := sess.Attach(conn); err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session closed"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}
	s.logger.Info("websocket attached", "session", id)

	sess.ReadLoop(conn)

	if sess.detach(conn) {
		conn.Close()
		s.sessions.Close(id)
	}
}

// handleState returns the session's view state as a snapshot document.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	sess := s.sessions.Get(id)
	if sess == nil {
		s.writeError(w, http.StatusNotFound, sessionNotFound(id))
		return
	}
	vs, err := sess.State()
	if stderrors.Is(err, ErrSessionClosed) {
		s.writeError(w, http.StatusNotFound, sessionNotFound(id))
		return
	}
	data, err := snapshot.Encode(vs)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// handleDeleteSnapshot deletes the caller's stored snapshot. Live sessions
// keep their state and save it again on the next change.
func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(ClientCookieName)
	if err != nil || c.Value == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	key := snapshot.Key(c.Value, s.config.TableID)
	if err := s.snapshots.Delete(r.Context(), key); err != nil {
		te := errors.FromError(err, errors.CodeSnapshotUnavailable)
		s.logger.Error("snapshot delete failed", "key", key, "error", te.FormatCompact())
		s.writeError(w, http.StatusInternalServerError, te)
		return
	}
	s.logger.Info("snapshot deleted", "key", key)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func sessionNotFound(id string) *errors.TableError {
	return errors.New(errors.CodeSessionNotFound).
		WithDetailf("no live session %q", id).
		Wrap(ErrSessionNotFound)
}

func (s *Server) writeError(w http.ResponseWriter, status int, te *errors.TableError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(te.FormatJSON()))
}

// clientID returns the caller's client id, issuing a new cookie when the
// request has none.
func (s *Server) clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(ClientCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   clientCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.config.SecureCookies,
	})
	return id
}

// =============================================================================
// Lifecycle
// =============================================================================

// Run starts the HTTP server and blocks until it fails or the process
// receives SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext is Run with the shutdown trigger supplied by ctx.
func (s *Server) RunContext(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadTimeout,
		ReadTimeout:       s.config.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.sessions.Shutdown()
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes all sessions and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.sessions.Shutdown()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the effective configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}
