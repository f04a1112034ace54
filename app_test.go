package tableview

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/tableview/internal/config"
	"github.com/vango-dev/tableview/internal/errors"
	"github.com/vango-dev/tableview/pkg/rows"
	"github.com/vango-dev/tableview/pkg/snapshot"
	"github.com/vango-dev/tableview/pkg/urlparam"
	"github.com/vango-dev/tableview/pkg/viewstate"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDefaultApp(t *testing.T) {
	app, err := New(context.Background(), config.New(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer app.Close()

	if _, ok := app.Snapshots().(*snapshot.MemoryStore); !ok {
		t.Errorf("snapshot store = %T, want *snapshot.MemoryStore", app.Snapshots())
	}

	ts := httptest.NewServer(app.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/?sort=colA:desc")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "<td>A3</td><td>B1</td>") {
		t.Errorf("status = %d, body:\n%s", resp.StatusCode, body)
	}

	resp, err = ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/metrics status = %d", resp.StatusCode)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.Snapshot.Backend = "redis"
	_, err := New(context.Background(), cfg)
	if errors.Code(err) != errors.CodeUnsupportedBackend {
		t.Errorf("New error = %v, want %s", err, errors.CodeUnsupportedBackend)
	}
}

func TestNewWithInjectedBackends(t *testing.T) {
	store := snapshot.NewMemoryStore()
	cfg := config.New()
	cfg.Table.HistoryMode = "replace"
	app, err := New(context.Background(), cfg,
		WithLogger(quietLogger()),
		WithSnapshotStore(store),
		WithRowSource(rows.FixtureSource{}, nil))
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if app.Snapshots() != store {
		t.Error("injected snapshot store not used")
	}
	sc := app.Server().Config()
	if sc.HistoryMode != urlparam.ModeReplace || sc.TableID != "tablename" || sc.MetricsPath != "/metrics" {
		t.Errorf("server config = %+v", sc)
	}
	if len(sc.Columns) != 3 {
		t.Errorf("columns = %d, want fixture defaults", len(sc.Columns))
	}
}

func TestOpenSnapshotStoreFile(t *testing.T) {
	cfg := config.New()
	cfg.Snapshot.Backend = config.BackendFile
	cfg.Snapshot.Dir = filepath.Join(t.TempDir(), "snaps")

	store, closeStore, err := OpenSnapshotStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenSnapshotStore failed: %v", err)
	}
	defer closeStore()

	fs, ok := store.(*snapshot.FileStore)
	if !ok || fs.Dir() != cfg.Snapshot.Dir {
		t.Fatalf("store = %T %v", store, store)
	}
}

func TestOpenSnapshotStoreSQLite(t *testing.T) {
	cfg := config.New()
	cfg.Snapshot.Backend = config.BackendSQL
	cfg.Snapshot.SQL = config.SQLConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "snapshots.db"),
		Table:  "snapshots",
	}
	ctx := context.Background()

	store, closeStore, err := OpenSnapshotStore(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenSnapshotStore failed: %v", err)
	}
	defer closeStore()

	want := viewstate.ViewState{Sort: []string{"colB:desc"}}
	if err := snapshot.SaveState(ctx, store, "c/t", want); err != nil {
		t.Fatal(err)
	}
	got, err := snapshot.LoadState(ctx, store, "c/t")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenSnapshotStoreUnsupported(t *testing.T) {
	cfg := config.New()
	cfg.Snapshot.Backend = "redis"
	if _, _, err := OpenSnapshotStore(context.Background(), cfg); errors.Code(err) != errors.CodeUnsupportedBackend {
		t.Errorf("error = %v", err)
	}

	cfg.Snapshot.Backend = config.BackendSQL
	cfg.Snapshot.SQL = config.SQLConfig{Driver: "oracle", DSN: "x"}
	if _, _, err := OpenSnapshotStore(context.Background(), cfg); errors.Code(err) != errors.CodeUnsupportedBackend {
		t.Errorf("sql driver error = %v", err)
	}
}

func TestOpenRowSourceSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rows.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range []string{
		`CREATE TABLE items ("colA" TEXT, "colB" TEXT)`,
		`INSERT INTO items VALUES ('a1', 'b2'), ('a2', 'b1')`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	src, columns, closeSource, err := OpenRowSource(ctx, config.RowsConfig{
		Source: config.SourceSQL,
		SQL:    config.SQLConfig{Driver: "sqlite", DSN: path, Table: "items", Columns: []string{"colA", "colB"}},
	})
	if err != nil {
		t.Fatalf("OpenRowSource failed: %v", err)
	}
	defer closeSource()

	if len(columns) != 2 || columns[1].ID != "colB" {
		t.Errorf("columns = %+v", columns)
	}
	got, err := src.Rows(ctx, []rows.SortSpec{{ColumnID: "colB"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Get("colA") != "a2" {
		t.Errorf("rows = %+v", got)
	}
}

func TestNewS3Client(t *testing.T) {
	client := newS3Client(config.S3Config{
		Region:          "eu-west-1",
		Endpoint:        "http://localhost:9000",
		PathStyle:       true,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	opts := client.Options()
	if opts.Region != "eu-west-1" || !opts.UsePathStyle {
		t.Errorf("options = %+v", opts)
	}
	if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://localhost:9000" {
		t.Errorf("endpoint = %v", opts.BaseEndpoint)
	}
	creds, err := opts.Credentials.Retrieve(context.Background())
	if err != nil || creds.AccessKeyID != "key" || creds.SecretAccessKey != "secret" {
		t.Errorf("credentials = %+v, %v", creds, err)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := config.New()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger := NewLogger(cfg, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("unexpected output %q", out)
	}
}
