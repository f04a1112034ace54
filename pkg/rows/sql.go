package rows

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// SQLSource reads rows from a database table and lets the database order
// them.
//
//	src := rows.NewSQLSource(db, goqu.Dialect("postgres"), "items",
//	    []string{"colA", "colB", "colC"})
type SQLSource struct {
	db      *sql.DB
	dialect goqu.DialectWrapper
	table   string
	columns []string
	limit   uint
}

// SQLSourceOption configures an SQLSource.
type SQLSourceOption func(*SQLSource)

// WithLimit caps the number of rows returned. Zero means no limit.
func WithLimit(n uint) SQLSourceOption {
	return func(s *SQLSource) {
		s.limit = n
	}
}

// NewSQLSource creates a source selecting columns from table.
func NewSQLSource(db *sql.DB, dialect goqu.DialectWrapper, table string, columns []string, opts ...SQLSourceOption) *SQLSource {
	s := &SQLSource{
		db:      db,
		dialect: dialect,
		table:   table,
		columns: slices.Clone(columns),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Columns returns the selected column ids.
func (s *SQLSource) Columns() []string {
	return slices.Clone(s.columns)
}

// Query builds the SELECT statement for specs. Specs naming a column that
// is not selected are ignored.
func (s *SQLSource) Query(specs []SortSpec) (string, []any, error) {
	cols := make([]any, len(s.columns))
	for i, c := range s.columns {
		cols[i] = goqu.C(c)
	}

	order := make([]exp.OrderedExpression, 0, len(specs))
	for _, spec := range specs {
		if !slices.Contains(s.columns, spec.ColumnID) {
			continue
		}
		if spec.Descending {
			order = append(order, goqu.C(spec.ColumnID).Desc())
		} else {
			order = append(order, goqu.C(spec.ColumnID).Asc())
		}
	}

	ds := s.dialect.From(s.table).Prepared(true).Select(cols...)
	if len(order) > 0 {
		ds = ds.Order(order...)
	}
	if s.limit > 0 {
		ds = ds.Limit(s.limit)
	}
	return ds.ToSQL()
}

// Rows implements Source.
func (s *SQLSource) Rows(ctx context.Context, specs []SortSpec) ([]Row, error) {
	query, args, err := s.Query(specs)
	if err != nil {
		return nil, fmt.Errorf("rows: build select: %w", err)
	}

	rs, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rows: query: %w", err)
	}
	defer rs.Close()

	var out []Row
	vals := make([]sql.NullString, len(s.columns))
	ptrs := make([]any, len(s.columns))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rs.Next() {
		if err := rs.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("rows: scan: %w", err)
		}
		row := make(Row, len(s.columns))
		for i, c := range s.columns {
			row[c] = vals[i].String
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("rows: iterate: %w", err)
	}
	return out, nil
}
