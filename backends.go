package tableview

import (
	"context"
	"database/sql"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver

	"github.com/vango-dev/tableview/internal/config"
	"github.com/vango-dev/tableview/internal/errors"
	"github.com/vango-dev/tableview/pkg/rows"
	"github.com/vango-dev/tableview/pkg/snapshot"
	"github.com/vango-dev/tableview/pkg/table"
)

func noopClose() error { return nil }

// OpenSnapshotStore opens the snapshot backend selected by
// cfg.Snapshot.Backend. The returned func releases it.
func OpenSnapshotStore(ctx context.Context, cfg *config.Config) (snapshot.Store, func() error, error) {
	sc := cfg.Snapshot
	switch sc.Backend {
	case config.BackendMemory, "":
		store := snapshot.NewMemoryStore()
		return store, store.Close, nil

	case config.BackendFile:
		store, err := snapshot.NewFileStore(cfg.SnapshotDir())
		if err != nil {
			return nil, nil, errors.New(errors.CodeInvalidConfig).
				WithDetailf("snapshot.dir %q is not usable", cfg.SnapshotDir()).
				Wrap(err)
		}
		return store, store.Close, nil

	case config.BackendSQL:
		db, dialect, err := openDB(ctx, sc.SQL)
		if err != nil {
			return nil, nil, err
		}
		store := snapshot.NewSQLStore(db,
			snapshot.WithSQLDialect(dialect),
			snapshot.WithSQLTableName(sc.SQL.Table))
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, errors.New(errors.CodeSnapshotUnavailable).
				WithDetailf("creating table %q", sc.SQL.Table).
				Wrap(err)
		}
		return store, func() error {
			store.Close()
			return db.Close()
		}, nil

	case config.BackendS3:
		store := snapshot.NewS3Store(newS3Client(sc.S3), sc.S3.Bucket,
			snapshot.WithS3Prefix(sc.S3.Prefix))
		return store, store.Close, nil

	default:
		return nil, nil, errors.New(errors.CodeUnsupportedBackend).
			WithDetailf("snapshot.backend %q", sc.Backend)
	}
}

// OpenRowSource opens the row source selected by cfg.Source and returns
// the columns it serves.
func OpenRowSource(ctx context.Context, cfg config.RowsConfig) (rows.Source, []table.ColumnDef, func() error, error) {
	switch cfg.Source {
	case config.SourceFixture, "":
		return rows.FixtureSource{}, table.DefaultColumns(), noopClose, nil

	case config.SourceSQL:
		db, dialect, err := openDB(ctx, cfg.SQL)
		if err != nil {
			return nil, nil, nil, err
		}
		src := rows.NewSQLSource(db, goqu.Dialect(dialect.String()), cfg.SQL.Table, cfg.SQL.Columns)
		return src, table.ColumnsFor(cfg.SQL.Columns), db.Close, nil

	default:
		return nil, nil, nil, errors.New(errors.CodeUnsupportedBackend).
			WithDetailf("rows.source %q", cfg.Source)
	}
}

// openDB opens and pings a database/sql handle for sc.Driver ("pgx" or
// "sqlite").
func openDB(ctx context.Context, sc config.SQLConfig) (*sql.DB, snapshot.SQLDialect, error) {
	dialect, err := snapshot.ParseDialect(sc.Driver)
	if err != nil {
		return nil, 0, errors.New(errors.CodeUnsupportedBackend).Wrap(err)
	}
	driver := "pgx"
	if dialect == snapshot.DialectSQLite {
		driver = "sqlite"
	}

	db, err := sql.Open(driver, sc.DSN)
	if err != nil {
		return nil, 0, errors.New(errors.CodeInvalidConfig).
			WithDetailf("opening %s database", driver).
			Wrap(err)
	}
	if dialect == snapshot.DialectSQLite {
		// Writes to one SQLite file are serialized anyway.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, 0, errors.New(errors.CodeSnapshotUnavailable).
			WithDetailf("connecting to %s database", driver).
			Wrap(err)
	}
	return db, dialect, nil
}

// newS3Client builds an S3 client from static configuration, falling back
// to the standard AWS environment variables for credentials.
func newS3Client(sc config.S3Config) *s3.Client {
	accessKey := sc.AccessKeyID
	secretKey := sc.SecretAccessKey
	var sessionToken string
	if accessKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
		sessionToken = os.Getenv("AWS_SESSION_TOKEN")
	}
	region := sc.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: sc.PathStyle,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     accessKey,
				SecretAccessKey: secretKey,
				SessionToken:    sessionToken,
				Source:          "tableview",
			}, nil
		}),
	}
	if sc.Endpoint != "" {
		opts.BaseEndpoint = aws.String(sc.Endpoint)
	}
	return s3.New(opts)
}
