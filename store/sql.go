package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// SQL is the database/sql backed Store
type SQL struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.SugaredLogger

	mu     sync.Mutex
	closed bool
}

// Open connects to the database described by the configuration and verifies the connection.
func Open(ctx context.Context, cfg Config, logger *zap.SugaredLogger) (*SQL, error) {
	dialect, err := DialectByName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := cfg.dataSourceName(dialect)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.Name(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name(), err)
	}
	if dialect.Name() == "sqlite" {
		// A single connection serializes the writers of the database file
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.maxOpenConns())
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(10 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("connect %s: %w", dialect.Name(), err), db.Close())
	}
	return New(db, dialect, logger), nil
}

// New wraps an open database handle
func New(db *sql.DB, dialect Dialect, logger *zap.SugaredLogger) *SQL {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SQL{db: db, dialect: dialect, logger: logger.Named("store")}
}

func (s *SQL) Dialect() Dialect {
	return s.dialect
}

// DB returns the underlying database handle
func (s *SQL) DB() *sql.DB {
	return s.db
}

func (s *SQL) Exec(ctx context.Context, query string, args ...interface{}) error {
	if err := s.check(); err != nil {
		return err
	}
	s.logger.Debugw("exec", "query", query)
	if _, err := s.db.ExecContext(ctx, query, bind(args)...); err != nil {
		return fmt.Errorf("exec %q: %w", query, err)
	}
	return nil
}

func (s *SQL) Prepare(ctx context.Context, query string) (Statement, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.logger.Debugw("prepare", "query", query)
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare %q: %w", query, err)
	}
	return &statement{stmt: stmt, query: query}, nil
}

func (s *SQL) Begin(ctx context.Context) (Tx, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &transaction{tx: tx, logger: s.logger}, nil
}

func (s *SQL) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.logger.Debugw("query", "query", query)
	rows, err := s.db.QueryContext(ctx, query, bind(args)...)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", query, err)
	}
	columns, err := rows.Columns()
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("columns: %w", err), rows.Close())
	}
	return &cursor{rows: rows, columns: columns}, nil
}

func (s *SQL) Columns(ctx context.Context) ([]ColumnInfo, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	columns, err := s.dialect.columns(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", s.dialect.Name(), err)
	}
	return columns, nil
}

func (s *SQL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQL) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// bind replaces typed nulls with the null types of database/sql
func bind(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, arg := range args {
		null, ok := arg.(Null)
		if !ok {
			out[i] = arg
			continue
		}
		switch null.Type {
		case Char, Varchar, LongNVarchar, Other:
			out[i] = sql.NullString{}
		case Decimal, Float:
			out[i] = sql.NullFloat64{}
		case Integer:
			out[i] = sql.NullInt64{}
		case Boolean:
			out[i] = sql.NullBool{}
		case Date, Timestamp, TimestampWithTimezone:
			out[i] = sql.NullTime{}
		default:
			out[i] = nil
		}
	}
	return out
}

type statement struct {
	stmt  *sql.Stmt
	query string
}

func (s *statement) Exec(ctx context.Context, args ...interface{}) error {
	if _, err := s.stmt.ExecContext(ctx, bind(args)...); err != nil {
		return fmt.Errorf("exec %q: %w", s.query, err)
	}
	return nil
}

func (s *statement) Close() error {
	return s.stmt.Close()
}

type transaction struct {
	tx     *sql.Tx
	logger *zap.SugaredLogger
}

func (t *transaction) Prepare(ctx context.Context, query string) (Statement, error) {
	t.logger.Debugw("prepare in transaction", "query", query)
	stmt, err := t.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare %q: %w", query, err)
	}
	return &statement{stmt: stmt, query: query}, nil
}

func (t *transaction) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *transaction) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

type cursor struct {
	rows    *sql.Rows
	columns []string
}

func (c *cursor) Columns() []string {
	return c.columns
}

func (c *cursor) Next() bool {
	return c.rows.Next()
}

// Values scans the current row, text returned as []byte by the driver is converted to string
func (c *cursor) Values() ([]interface{}, error) {
	values := make([]interface{}, len(c.columns))
	ptrs := make([]interface{}, len(c.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	types, err := c.rows.ColumnTypes()
	if err != nil {
		return values, nil
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok && i < len(types) && textType(types[i].DatabaseTypeName()) {
			values[i] = string(b)
		}
	}
	return values, nil
}

func (c *cursor) Err() error {
	return c.rows.Err()
}

func (c *cursor) Close() error {
	return c.rows.Close()
}

// textType reports whether a driver type name holds text or numbers rendered as text
func textType(name string) bool {
	switch genericType(name) {
	case "char", "varchar", "longvarchar", "decimal", "float", "double", "int", "bigint":
		return true
	}
	return strings.Contains(strings.ToLower(name), "char") || strings.Contains(strings.ToLower(name), "text")
}
