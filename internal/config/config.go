package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/tableview/internal/errors"
)

const (
	// ConfigBaseName is the configuration file name without extension.
	ConfigBaseName = "tableview"

	// DefaultAddress is the default listen address.
	DefaultAddress = ":8080"

	// DefaultTableID is the table identifier used in snapshot keys.
	DefaultTableID = "tablename"

	// DefaultPageSize is the page size used when the view state has none.
	DefaultPageSize = 10

	// DefaultSnapshotTable is the SQL table holding snapshots.
	DefaultSnapshotTable = "tableview_snapshots"
)

// Snapshot backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQL    = "sql"
	BackendS3     = "s3"
)

// Row sources.
const (
	SourceFixture = "fixture"
	SourceSQL     = "sql"
)

// searchOrder lists the extensions Load tries, in order.
var searchOrder = []string{".json", ".toml", ".yaml", ".yml"}

// Config represents the complete tableview configuration.
type Config struct {
	// Server contains HTTP and session settings.
	Server ServerConfig `json:"server" toml:"server" yaml:"server"`

	// Table contains view-state defaults.
	Table TableConfig `json:"table" toml:"table" yaml:"table"`

	// Snapshot selects and configures the snapshot backend.
	Snapshot SnapshotConfig `json:"snapshot" toml:"snapshot" yaml:"snapshot"`

	// Rows selects the row source.
	Rows RowsConfig `json:"rows" toml:"rows" yaml:"rows"`

	Metrics MetricsConfig `json:"metrics" toml:"metrics" yaml:"metrics"`
	Tracing TracingConfig `json:"tracing" toml:"tracing" yaml:"tracing"`
	Log     LogConfig     `json:"log" toml:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Address is the listen address (e.g., ":8080").
	Address string `json:"address,omitempty" toml:"address,omitempty" yaml:"address,omitempty"`

	// SessionTTL is how long an idle session is kept (e.g., "30m").
	SessionTTL string `json:"sessionTTL,omitempty" toml:"session_ttl,omitempty" yaml:"sessionTTL,omitempty"`

	// IntentTimeout bounds the handling of a single intent (e.g., "5s").
	IntentTimeout string `json:"intentTimeout,omitempty" toml:"intent_timeout,omitempty" yaml:"intentTimeout,omitempty"`

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout string `json:"readTimeout,omitempty" toml:"read_timeout,omitempty" yaml:"readTimeout,omitempty"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" toml:"shutdown_timeout,omitempty" yaml:"shutdownTimeout,omitempty"`

	// MaxSessions limits concurrent sessions. Zero means unlimited.
	MaxSessions int `json:"maxSessions,omitempty" toml:"max_sessions,omitempty" yaml:"maxSessions,omitempty"`
}

// TableConfig contains view-state settings.
type TableConfig struct {
	// ID is the table identifier used in snapshot keys.
	ID string `json:"id,omitempty" toml:"id,omitempty" yaml:"id,omitempty"`

	// Path is the page path the table is served on.
	Path string `json:"path,omitempty" toml:"path,omitempty" yaml:"path,omitempty"`

	// DefaultPageSize applies when the view state has no pageSize.
	DefaultPageSize int `json:"defaultPageSize,omitempty" toml:"default_page_size,omitempty" yaml:"defaultPageSize,omitempty"`

	// HistoryMode is "push" or "replace".
	HistoryMode string `json:"historyMode,omitempty" toml:"history_mode,omitempty" yaml:"historyMode,omitempty"`
}

// SnapshotConfig selects the snapshot backend.
type SnapshotConfig struct {
	// Backend is one of memory, file, sql, s3.
	Backend string `json:"backend,omitempty" toml:"backend,omitempty" yaml:"backend,omitempty"`

	// Dir is the directory used by the file backend.
	Dir string `json:"dir,omitempty" toml:"dir,omitempty" yaml:"dir,omitempty"`

	SQL SQLConfig `json:"sql,omitempty" toml:"sql,omitempty" yaml:"sql,omitempty"`
	S3  S3Config  `json:"s3,omitempty" toml:"s3,omitempty" yaml:"s3,omitempty"`
}

// SQLConfig describes a database connection.
type SQLConfig struct {
	// Driver is "pgx" or "sqlite".
	Driver string `json:"driver,omitempty" toml:"driver,omitempty" yaml:"driver,omitempty"`
	DSN    string `json:"dsn,omitempty" toml:"dsn,omitempty" yaml:"dsn,omitempty"`
	Table  string `json:"table,omitempty" toml:"table,omitempty" yaml:"table,omitempty"`

	// Columns lists the selectable columns (rows source only).
	Columns []string `json:"columns,omitempty" toml:"columns,omitempty" yaml:"columns,omitempty"`
}

// S3Config describes the S3 snapshot bucket.
type S3Config struct {
	Bucket   string `json:"bucket,omitempty" toml:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty" toml:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region   string `json:"region,omitempty" toml:"region,omitempty" yaml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" toml:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// PathStyle forces path-style addressing (MinIO and similar).
	PathStyle bool `json:"pathStyle,omitempty" toml:"path_style,omitempty" yaml:"pathStyle,omitempty"`

	// Static credentials. When empty, AWS_ACCESS_KEY_ID and
	// AWS_SECRET_ACCESS_KEY are used.
	AccessKeyID     string `json:"accessKeyID,omitempty" toml:"access_key_id,omitempty" yaml:"accessKeyID,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty" toml:"secret_access_key,omitempty" yaml:"secretAccessKey,omitempty"`
}

// RowsConfig selects where table rows come from.
type RowsConfig struct {
	// Source is "fixture" or "sql".
	Source string    `json:"source,omitempty" toml:"source,omitempty" yaml:"source,omitempty"`
	SQL    SQLConfig `json:"sql,omitempty" toml:"sql,omitempty" yaml:"sql,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" toml:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitempty" toml:"path,omitempty" yaml:"path,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled bool `json:"enabled" toml:"enabled" yaml:"enabled"`

	// Name is the tracer name.
	Name string `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
}

// LogConfig contains slog handler settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" toml:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" toml:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{
		Metrics: MetricsConfig{Enabled: true},
	}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for tableview.json, tableview.toml, tableview.yaml and
// tableview.yml, in that order.
func Load(dir string) (*Config, error) {
	for _, ext := range searchOrder {
		path := filepath.Join(dir, ConfigBaseName+ext)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New(errors.CodeInvalidConfig).
		WithDetail("No tableview.json, tableview.toml or tableview.yaml found in " + dir).
		WithSuggestion("Run 'tableview serve' without --config to use defaults, or create a config file")
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeInvalidConfig).
				WithDetail("Config file " + path + " does not exist")
		}
		return nil, errors.New(errors.CodeInvalidConfig).Wrap(err)
	}

	cfg := New()
	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		if te, ok := err.(*errors.TableError); ok && te.Location == nil {
			te.Location = &errors.Location{File: path}
		}
		return nil, err
	}
	return cfg, nil
}

// decode parses data according to the extension of path.
func decode(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			te := errors.New(errors.CodeInvalidConfig).
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid JSON")
			var syn *json.SyntaxError
			if stderrors.As(err, &syn) {
				te.WithLocation(path, lineAt(data, syn.Offset), 0)
			}
			return te
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			te := errors.New(errors.CodeInvalidConfig).
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid TOML")
			var perr toml.ParseError
			if stderrors.As(err, &perr) {
				te.WithLocation(path, perr.Position.Line, 0)
			}
			return te
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.New(errors.CodeInvalidConfig).
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid YAML")
		}
	default:
		return errors.New(errors.CodeInvalidConfig).
			WithDetail("Unsupported config extension " + ext).
			WithSuggestion("Use .json, .toml or .yaml")
	}
	return nil
}

// lineAt returns the 1-based line containing byte offset off.
func lineAt(data []byte, off int64) int {
	if off > int64(len(data)) {
		off = int64(len(data))
	}
	return bytes.Count(data[:off], []byte("\n")) + 1
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path. The format follows
// the extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New(errors.CodeInvalidConfig).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeInvalidConfig).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	// Server
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.SessionTTL == "" {
		c.Server.SessionTTL = "30m"
	}
	if c.Server.IntentTimeout == "" {
		c.Server.IntentTimeout = "5s"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	// Table
	if c.Table.ID == "" {
		c.Table.ID = DefaultTableID
	}
	if c.Table.Path == "" {
		c.Table.Path = "/"
	}
	if c.Table.DefaultPageSize == 0 {
		c.Table.DefaultPageSize = DefaultPageSize
	}
	if c.Table.HistoryMode == "" {
		c.Table.HistoryMode = "push"
	}

	// Snapshot
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = BackendMemory
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = ".tableview/snapshots"
	}
	if c.Snapshot.SQL.Table == "" {
		c.Snapshot.SQL.Table = DefaultSnapshotTable
	}
	if c.Snapshot.S3.Prefix == "" {
		c.Snapshot.S3.Prefix = "snapshots/"
	}

	// Rows
	if c.Rows.Source == "" {
		c.Rows.Source = SourceFixture
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Tracing.Name == "" {
		c.Tracing.Name = "tableview"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	for name, value := range map[string]string{
		"server.sessionTTL":      c.Server.SessionTTL,
		"server.intentTimeout":   c.Server.IntentTimeout,
		"server.readTimeout":     c.Server.ReadTimeout,
		"server.shutdownTimeout": c.Server.ShutdownTimeout,
	} {
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return errors.New(errors.CodeInvalidConfig).
				WithDetailf("%s must be a positive duration, got %q", name, value).
				WithSuggestion(`Use Go duration syntax such as "30s" or "15m"`)
		}
	}
	if c.Server.MaxSessions < 0 {
		return errors.New(errors.CodeInvalidConfig).
			WithDetail("server.maxSessions must not be negative")
	}

	if c.Table.DefaultPageSize < 1 {
		return errors.New(errors.CodeInvalidConfig).
			WithDetailf("table.defaultPageSize must be at least 1, got %d", c.Table.DefaultPageSize)
	}
	if c.Table.HistoryMode != "push" && c.Table.HistoryMode != "replace" {
		return errors.New(errors.CodeInvalidConfig).
			WithDetailf("table.historyMode must be push or replace, got %q", c.Table.HistoryMode)
	}
	if strings.Contains(c.Table.ID, "/") {
		return errors.New(errors.CodeInvalidConfig).
			WithDetailf("table.id must not contain '/', got %q", c.Table.ID)
	}

	switch c.Snapshot.Backend {
	case BackendMemory, BackendFile:
	case BackendSQL:
		if c.Snapshot.SQL.Driver == "" || c.Snapshot.SQL.DSN == "" {
			return errors.New(errors.CodeInvalidConfig).
				WithDetail("snapshot.sql requires driver and dsn")
		}
	case BackendS3:
		if c.Snapshot.S3.Bucket == "" {
			return errors.New(errors.CodeInvalidConfig).
				WithDetail("snapshot.s3 requires a bucket")
		}
	default:
		return errors.New(errors.CodeUnsupportedBackend).
			WithDetailf("snapshot.backend %q is not one of memory, file, sql, s3", c.Snapshot.Backend)
	}

	switch c.Rows.Source {
	case SourceFixture:
	case SourceSQL:
		s := c.Rows.SQL
		if s.Driver == "" || s.DSN == "" || s.Table == "" || len(s.Columns) == 0 {
			return errors.New(errors.CodeInvalidConfig).
				WithDetail("rows.sql requires driver, dsn, table and columns")
		}
	default:
		return errors.New(errors.CodeUnsupportedBackend).
			WithDetailf("rows.source %q is not one of fixture, sql", c.Rows.Source)
	}

	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New(errors.CodeInvalidConfig).
			WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New(errors.CodeInvalidConfig).
			WithDetailf("log.format %q is not one of text, json", c.Log.Format)
	}
	return nil
}

// SessionTTL returns the parsed session TTL.
func (c *Config) SessionTTL() time.Duration {
	return mustDuration(c.Server.SessionTTL, 30*time.Minute)
}

// IntentTimeout returns the parsed per-intent timeout.
func (c *Config) IntentTimeout() time.Duration {
	return mustDuration(c.Server.IntentTimeout, 5*time.Second)
}

// ReadTimeout returns the parsed HTTP read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return mustDuration(c.Server.ReadTimeout, 10*time.Second)
}

// ShutdownTimeout returns the parsed graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	return mustDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	lvl, _ := parseLevel(c.Log.Level)
	return lvl
}

// SnapshotDir returns the snapshot directory, resolved against the config
// file directory when relative.
func (c *Config) SnapshotDir() string {
	if filepath.IsAbs(c.Snapshot.Dir) {
		return c.Snapshot.Dir
	}
	return filepath.Join(c.Dir(), c.Snapshot.Dir)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, ext := range searchOrder {
		if _, err := os.Stat(filepath.Join(dir, ConfigBaseName+ext)); err == nil {
			return true
		}
	}
	return false
}

func mustDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
