package server

import (
	"net/http"
	"time"

	"github.com/vango-dev/tableview/pkg/table"
	"github.com/vango-dev/tableview/pkg/urlparam"
)

// ServerConfig holds configuration for the HTTP/WebSocket server.
type ServerConfig struct {
	// Address is the address to listen on (e.g., ":8080" or "localhost:3000").
	// Default: ":8080".
	Address string

	// Table

	// TablePath is the path the table page is served on.
	// Default: "/".
	TablePath string

	// TableID is the table half of every snapshot key.
	// Default: "tablename".
	TableID string

	// Columns are the table columns.
	// Default: table.DefaultColumns().
	Columns []table.ColumnDef

	// DefaultPageSize applies when the view state has no pageSize.
	// Default: 10.
	DefaultPageSize int

	// HistoryMode selects how intents update the address bar.
	// Default: urlparam.ModePush.
	HistoryMode urlparam.URLMode

	// Sessions

	// SessionTTL is how long a session that never attached a WebSocket is
	// kept. Default: 30 minutes.
	SessionTTL time.Duration

	// CleanupInterval is the time between expiry sweeps.
	// Default: 1 minute.
	CleanupInterval time.Duration

	// IntentTimeout bounds one intent, including snapshot and row I/O.
	// Default: 5 seconds.
	IntentTimeout time.Duration

	// MaxSessions is the maximum number of concurrent sessions.
	// 0 means no limit.
	MaxSessions int

	// MaxIntentQueue is the size of each session's intent buffer.
	// Default: 64.
	MaxIntentQueue int

	// WebSocket

	// CheckOrigin is called to validate the request origin.
	// Default: same-origin only.
	CheckOrigin func(r *http.Request) bool

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PongWait is how long the connection may stay silent before it is
	// considered dead. Default: 60 seconds.
	PongWait time.Duration

	// HeartbeatInterval is the time between heartbeat pings. It must be
	// shorter than PongWait. Default: 30 seconds.
	HeartbeatInterval time.Duration

	// HTTP

	// ReadTimeout is the HTTP server read timeout.
	// Default: 10 seconds.
	ReadTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string

	// SecureCookies marks the client cookie Secure.
	SecureCookies bool
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           ":8080",
		TablePath:         "/",
		TableID:           "tablename",
		Columns:           table.DefaultColumns(),
		DefaultPageSize:   10,
		HistoryMode:       urlparam.ModePush,
		SessionTTL:        30 * time.Minute,
		CleanupInterval:   time.Minute,
		IntentTimeout:     5 * time.Second,
		MaxIntentQueue:    64,
		WriteTimeout:      10 * time.Second,
		PongWait:          60 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		ReadTimeout:       10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultServerConfig.
func (c *ServerConfig) withDefaults() *ServerConfig {
	defaults := DefaultServerConfig()
	if c == nil {
		return defaults
	}
	cfg := *c
	if cfg.Address == "" {
		cfg.Address = defaults.Address
	}
	if cfg.TablePath == "" {
		cfg.TablePath = defaults.TablePath
	}
	if cfg.TableID == "" {
		cfg.TableID = defaults.TableID
	}
	if len(cfg.Columns) == 0 {
		cfg.Columns = defaults.Columns
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaults.DefaultPageSize
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaults.SessionTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}
	if cfg.IntentTimeout <= 0 {
		cfg.IntentTimeout = defaults.IntentTimeout
	}
	if cfg.MaxIntentQueue <= 0 {
		cfg.MaxIntentQueue = defaults.MaxIntentQueue
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = defaults.PongWait
	}
	if cfg.HeartbeatInterval <= 0 || cfg.HeartbeatInterval >= cfg.PongWait {
		cfg.HeartbeatInterval = cfg.PongWait / 2
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return &cfg
}
