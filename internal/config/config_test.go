package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/tableview/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Address != DefaultAddress {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, DefaultAddress)
	}
	if cfg.Table.ID != DefaultTableID {
		t.Errorf("Table.ID = %q, want %q", cfg.Table.ID, DefaultTableID)
	}
	if cfg.Table.DefaultPageSize != DefaultPageSize {
		t.Errorf("Table.DefaultPageSize = %d, want %d", cfg.Table.DefaultPageSize, DefaultPageSize)
	}
	if cfg.Snapshot.Backend != BackendMemory {
		t.Errorf("Snapshot.Backend = %q, want %q", cfg.Snapshot.Backend, BackendMemory)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "tableview.json",
			content: `{
  "server": {"address": "127.0.0.1:9000", "sessionTTL": "1h"},
  "table": {"id": "orders", "defaultPageSize": 25, "historyMode": "replace"},
  "snapshot": {"backend": "sql", "sql": {"driver": "pgx", "dsn": "postgres://localhost/app"}},
  "log": {"level": "debug", "format": "json"}
}
`,
		},
		{
			name: "toml",
			file: "tableview.toml",
			content: `[server]
address = "127.0.0.1:9000"
session_ttl = "1h"

[table]
id = "orders"
default_page_size = 25
history_mode = "replace"

[snapshot]
backend = "sql"

[snapshot.sql]
driver = "pgx"
dsn = "postgres://localhost/app"

[log]
level = "debug"
format = "json"
`,
		},
		{
			name: "yaml",
			file: "tableview.yaml",
			content: `server:
  address: 127.0.0.1:9000
  sessionTTL: 1h
table:
  id: orders
  defaultPageSize: 25
  historyMode: replace
snapshot:
  backend: sql
  sql:
    driver: pgx
    dsn: postgres://localhost/app
log:
  level: debug
  format: json
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			cfg, err := Load(dir)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			if cfg.Server.Address != "127.0.0.1:9000" {
				t.Errorf("Server.Address = %q", cfg.Server.Address)
			}
			if cfg.SessionTTL() != time.Hour {
				t.Errorf("SessionTTL = %v, want 1h", cfg.SessionTTL())
			}
			if cfg.Table.ID != "orders" || cfg.Table.DefaultPageSize != 25 || cfg.Table.HistoryMode != "replace" {
				t.Errorf("Table = %+v", cfg.Table)
			}
			if cfg.Snapshot.Backend != BackendSQL || cfg.Snapshot.SQL.Driver != "pgx" {
				t.Errorf("Snapshot = %+v", cfg.Snapshot)
			}
			// Unset values keep their defaults.
			if cfg.Snapshot.SQL.Table != DefaultSnapshotTable {
				t.Errorf("Snapshot.SQL.Table = %q", cfg.Snapshot.SQL.Table)
			}
			if cfg.IntentTimeout() != 5*time.Second {
				t.Errorf("IntentTimeout = %v", cfg.IntentTimeout())
			}
			if cfg.LogLevel().String() != "DEBUG" {
				t.Errorf("LogLevel = %v", cfg.LogLevel())
			}
			if cfg.Path() != filepath.Join(dir, tt.file) {
				t.Errorf("Path = %q", cfg.Path())
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if errors.Code(err) != errors.CodeInvalidConfig {
		t.Errorf("code = %q, want %q", errors.Code(err), errors.CodeInvalidConfig)
	}
}

func TestLoad_PrefersJSON(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "tableview.json"), []byte(`{"table":{"id":"fromjson"}}`), 0644)
	os.WriteFile(filepath.Join(dir, "tableview.yaml"), []byte("table:\n  id: fromyaml\n"), 0644)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Table.ID != "fromjson" {
		t.Errorf("Table.ID = %q, want fromjson", cfg.Table.ID)
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tableview.json")
	if err := os.WriteFile(path, []byte("{\n  \"server\": {\n    \"address\": ,\n  }\n}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	te, ok := err.(*errors.TableError)
	if !ok {
		t.Fatalf("expected *TableError, got %T: %v", err, err)
	}
	if te.Location == nil || te.Location.Line != 3 {
		t.Errorf("Location = %v, want line 3", te.Location)
	}
}

func TestLoadFile_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tableview.toml")
	if err := os.WriteFile(path, []byte("[server]\naddress = = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	te, ok := err.(*errors.TableError)
	if !ok {
		t.Fatalf("expected *TableError, got %T: %v", err, err)
	}
	if te.Location == nil || te.Location.Line < 1 {
		t.Errorf("Location = %v, want a line", te.Location)
	}
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tableview.ini")
	os.WriteFile(path, []byte("x=1"), 0644)

	_, err := LoadFile(path)
	if errors.Code(err) != errors.CodeInvalidConfig {
		t.Errorf("code = %q", errors.Code(err))
	}
}

func TestLoadFile_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tableview.json")
	os.WriteFile(path, []byte(`{"snapshot":{"backend":"redis"}}`), 0644)

	_, err := LoadFile(path)
	if errors.Code(err) != errors.CodeUnsupportedBackend {
		t.Fatalf("code = %q, want %q", errors.Code(err), errors.CodeUnsupportedBackend)
	}
	te := err.(*errors.TableError)
	if te.Location == nil || te.Location.File != path {
		t.Errorf("Location = %v, want %s", te.Location, path)
	}
}

func TestSave(t *testing.T) {
	for _, ext := range []string{".json", ".toml", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tableview"+ext)

			cfg := New()
			cfg.Table.ID = "saved"
			cfg.Snapshot.Backend = BackendS3
			cfg.Snapshot.S3.Bucket = "bucket"
			cfg.Rows.SQL.Columns = []string{"colA", "colB"}
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo failed: %v", err)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if loaded.Table.ID != "saved" || loaded.Snapshot.S3.Bucket != "bucket" {
				t.Errorf("round trip lost values: %+v", loaded)
			}
			if len(loaded.Rows.SQL.Columns) != 2 {
				t.Errorf("Columns = %v", loaded.Rows.SQL.Columns)
			}

			loaded.Table.ID = "again"
			if err := loaded.Save(); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			reloaded, err := LoadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if reloaded.Table.ID != "again" {
				t.Errorf("Table.ID = %q after Save", reloaded.Table.ID)
			}
		})
	}

	if err := New().Save(); err == nil {
		t.Error("Save without a path should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
		detail string
	}{
		{"bad duration", func(c *Config) { c.Server.SessionTTL = "forever" }, errors.CodeInvalidConfig, "server.sessionTTL"},
		{"zero page size", func(c *Config) { c.Table.DefaultPageSize = -1 }, errors.CodeInvalidConfig, "defaultPageSize"},
		{"bad history mode", func(c *Config) { c.Table.HistoryMode = "pop" }, errors.CodeInvalidConfig, "historyMode"},
		{"slash in table id", func(c *Config) { c.Table.ID = "a/b" }, errors.CodeInvalidConfig, "table.id"},
		{"sql without dsn", func(c *Config) { c.Snapshot.Backend = BackendSQL; c.Snapshot.SQL.Driver = "pgx" }, errors.CodeInvalidConfig, "snapshot.sql"},
		{"s3 without bucket", func(c *Config) { c.Snapshot.Backend = BackendS3 }, errors.CodeInvalidConfig, "bucket"},
		{"unknown backend", func(c *Config) { c.Snapshot.Backend = "redis" }, errors.CodeUnsupportedBackend, "redis"},
		{"unknown rows source", func(c *Config) { c.Rows.Source = "csv" }, errors.CodeUnsupportedBackend, "csv"},
		{"incomplete rows sql", func(c *Config) { c.Rows.Source = SourceSQL; c.Rows.SQL.Driver = "sqlite" }, errors.CodeInvalidConfig, "rows.sql"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, errors.CodeInvalidConfig, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, errors.CodeInvalidConfig, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if errors.Code(err) != tt.code {
				t.Fatalf("Validate() code = %q, want %q (err %v)", errors.Code(err), tt.code, err)
			}
			if !strings.Contains(err.(*errors.TableError).Detail, tt.detail) {
				t.Errorf("Detail = %q, want it to mention %q", err.(*errors.TableError).Detail, tt.detail)
			}
		})
	}
}

func TestSnapshotDir(t *testing.T) {
	cfg := New()
	if cfg.SnapshotDir() != filepath.Join("", ".tableview/snapshots") {
		t.Errorf("SnapshotDir = %q", cfg.SnapshotDir())
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "tableview.json")
	os.WriteFile(path, []byte(`{"snapshot":{"backend":"file","dir":"snaps"}}`), 0644)
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.SnapshotDir() != filepath.Join(dir, "snaps") {
		t.Errorf("SnapshotDir = %q", loaded.SnapshotDir())
	}

	loaded.Snapshot.Dir = "/var/lib/tableview"
	if loaded.SnapshotDir() != "/var/lib/tableview" {
		t.Errorf("absolute SnapshotDir = %q", loaded.SnapshotDir())
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Error("Exists on empty dir")
	}
	os.WriteFile(filepath.Join(dir, "tableview.yml"), []byte("table:\n  id: x\n"), 0644)
	if !Exists(dir) {
		t.Error("Exists should find tableview.yml")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Server.ShutdownTimeout != "10s" || cfg.ShutdownTimeout() != 10*time.Second {
		t.Errorf("ShutdownTimeout = %q", cfg.Server.ShutdownTimeout)
	}
	if cfg.ReadTimeout() != 10*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.ReadTimeout())
	}
	if cfg.Table.Path != "/" || cfg.Metrics.Path != "/metrics" {
		t.Errorf("paths = %q %q", cfg.Table.Path, cfg.Metrics.Path)
	}
	if cfg.Rows.Source != SourceFixture {
		t.Errorf("Rows.Source = %q", cfg.Rows.Source)
	}
	if cfg.Metrics.Enabled {
		t.Error("applyDefaults must not flip booleans")
	}
}
