package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
)

// SQLStore is a SQL-backed snapshot store.
// It works with any database/sql driver for PostgreSQL or SQLite.
// Requires a table with schema (see EnsureSchema):
//
//	CREATE TABLE tableview_snapshots (
//	    snapshot_key VARCHAR(255) PRIMARY KEY,
//	    data TEXT NOT NULL,
//	    updated_at BIGINT NOT NULL
//	);
type SQLStore struct {
	db        *sql.DB
	tableName string
	dialect   SQLDialect
	closed    atomic.Bool
}

// SQLDialect represents the SQL dialect for query generation.
type SQLDialect int

const (
	// DialectPostgreSQL uses PostgreSQL syntax ($1, $2 placeholders).
	DialectPostgreSQL SQLDialect = iota
	// DialectSQLite uses SQLite syntax (? placeholders).
	DialectSQLite
)

// String returns the registered goqu dialect name.
func (d SQLDialect) String() string {
	if d == DialectSQLite {
		return "sqlite3"
	}
	return "postgres"
}

// ParseDialect maps a driver or dialect name to a SQLDialect.
func ParseDialect(name string) (SQLDialect, error) {
	switch name {
	case "postgres", "postgresql", "pgx":
		return DialectPostgreSQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return 0, fmt.Errorf("snapshot: unsupported sql dialect %q", name)
	}
}

// SQLStoreOption configures SQLStore behavior.
type SQLStoreOption func(*sqlStoreConfig)

type sqlStoreConfig struct {
	tableName string
	dialect   SQLDialect
}

// WithSQLTableName sets the table name for snapshot storage.
// Default: "tableview_snapshots".
func WithSQLTableName(name string) SQLStoreOption {
	return func(c *sqlStoreConfig) {
		c.tableName = name
	}
}

// WithSQLDialect sets the SQL dialect for query generation.
// Default: DialectPostgreSQL.
func WithSQLDialect(dialect SQLDialect) SQLStoreOption {
	return func(c *sqlStoreConfig) {
		c.dialect = dialect
	}
}

// NewSQLStore creates a new SQL-backed snapshot store.
func NewSQLStore(db *sql.DB, opts ...SQLStoreOption) *SQLStore {
	cfg := &sqlStoreConfig{
		tableName: "tableview_snapshots",
		dialect:   DialectPostgreSQL,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &SQLStore{
		db:        db,
		tableName: cfg.tableName,
		dialect:   cfg.dialect,
	}
}

func (s *SQLStore) builder() goqu.DialectWrapper {
	return goqu.Dialect(s.dialect.String())
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			snapshot_key VARCHAR(255) PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`, s.tableName)
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Save replaces the snapshot for key inside a transaction.
func (s *SQLStore) Save(ctx context.Context, key string, data []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	del, delArgs, err := s.builder().Delete(s.tableName).
		Prepared(true).
		Where(goqu.C("snapshot_key").Eq(key)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("snapshot: build delete: %w", err)
	}
	ins, insArgs, err := s.builder().Insert(s.tableName).
		Prepared(true).
		Rows(goqu.Record{
			"snapshot_key": key,
			"data":         string(data),
			"updated_at":   time.Now().UnixMilli(),
		}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("snapshot: build insert: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, del, delArgs...); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, ins, insArgs...); err != nil {
		return err
	}
	return tx.Commit()
}

// Load retrieves snapshot data for key.
func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	query, args, err := s.builder().From(s.tableName).
		Prepared(true).
		Select("data").
		Where(goqu.C("snapshot_key").Eq(key)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("snapshot: build select: %w", err)
	}

	var data string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// Delete removes a snapshot from the database.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	query, args, err := s.builder().Delete(s.tableName).
		Prepared(true).
		Where(goqu.C("snapshot_key").Eq(key)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("snapshot: build delete: %w", err)
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// Close marks the store as closed. The database handle is owned by the
// caller and is not closed.
func (s *SQLStore) Close() error {
	s.closed.Store(true)
	return nil
}
