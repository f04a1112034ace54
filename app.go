// Package tableview wires configuration, snapshot storage, row sources and
// the HTTP server into a runnable application.
//
// Usage:
//
//	cfg, err := config.Load(".")
//	app, err := tableview.New(ctx, cfg)
//	defer app.Close()
//	app.Run()
package tableview

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vango-dev/tableview/internal/config"
	"github.com/vango-dev/tableview/pkg/middleware"
	"github.com/vango-dev/tableview/pkg/rows"
	"github.com/vango-dev/tableview/pkg/server"
	"github.com/vango-dev/tableview/pkg/snapshot"
	"github.com/vango-dev/tableview/pkg/table"
	"github.com/vango-dev/tableview/pkg/urlparam"
)

// App is a configured tableview application.
type App struct {
	config    *config.Config
	server    *server.Server
	snapshots snapshot.Store
	source    rows.Source
	logger    *slog.Logger

	closers []func() error
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	logger    *slog.Logger
	snapshots snapshot.Store
	source    rows.Source
	columns   []table.ColumnDef
}

// WithLogger sets the application logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// WithSnapshotStore uses store instead of the configured backend.
// The App does not close it.
func WithSnapshotStore(store snapshot.Store) Option {
	return func(o *appOptions) {
		o.snapshots = store
	}
}

// WithRowSource uses src and columns instead of the configured source.
func WithRowSource(src rows.Source, columns []table.ColumnDef) Option {
	return func(o *appOptions) {
		o.source = src
		o.columns = columns
	}
}

// New validates cfg, opens the snapshot backend and the row source, and
// builds the server.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := appOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{config: cfg, logger: o.logger}

	a.snapshots = o.snapshots
	if a.snapshots == nil {
		store, closeStore, err := OpenSnapshotStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.snapshots = store
		a.closers = append(a.closers, closeStore)
	}

	a.source = o.source
	columns := o.columns
	if a.source == nil {
		src, cols, closeSource, err := OpenRowSource(ctx, cfg.Rows)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.source = src
		columns = cols
		a.closers = append(a.closers, closeSource)
	}

	a.server = server.New(serverConfig(cfg, columns), a.snapshots, a.source,
		server.WithLogger(a.logger),
		server.WithMiddleware(intentMiddleware(cfg)...))
	return a, nil
}

// serverConfig maps the file configuration onto the server's.
func serverConfig(cfg *config.Config, columns []table.ColumnDef) *server.ServerConfig {
	sc := server.DefaultServerConfig()
	sc.Address = cfg.Server.Address
	sc.TablePath = cfg.Table.Path
	sc.TableID = cfg.Table.ID
	sc.DefaultPageSize = cfg.Table.DefaultPageSize
	sc.HistoryMode = urlparam.ParseMode(cfg.Table.HistoryMode)
	sc.SessionTTL = cfg.SessionTTL()
	sc.IntentTimeout = cfg.IntentTimeout()
	sc.ReadTimeout = cfg.ReadTimeout()
	sc.ShutdownTimeout = cfg.ShutdownTimeout()
	sc.MaxSessions = cfg.Server.MaxSessions
	if len(columns) > 0 {
		sc.Columns = columns
	}
	if cfg.Metrics.Enabled {
		sc.MetricsPath = cfg.Metrics.Path
	}
	return sc
}

// intentMiddleware returns the enabled intent middleware, tracing outermost.
func intentMiddleware(cfg *config.Config) []middleware.Middleware {
	var mws []middleware.Middleware
	if cfg.Tracing.Enabled {
		mws = append(mws, middleware.OpenTelemetry(middleware.WithTracerName(cfg.Tracing.Name)))
	}
	if cfg.Metrics.Enabled {
		mws = append(mws, middleware.Prometheus())
	}
	return mws
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Server returns the underlying server.
func (a *App) Server() *server.Server {
	return a.server
}

// Snapshots returns the snapshot store in use.
func (a *App) Snapshots() snapshot.Store {
	return a.snapshots
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Run serves until SIGINT/SIGTERM.
func (a *App) Run() error {
	return a.server.Run()
}

// RunContext serves until ctx is canceled.
func (a *App) RunContext(ctx context.Context) error {
	return a.server.RunContext(ctx)
}

// Close stops all sessions and releases the backends the App opened.
func (a *App) Close() error {
	var errs []error
	if a.server != nil {
		a.server.Sessions().Shutdown()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}

// NewLogger builds the slog logger described by cfg.Log.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
