// Package store is the relational side of a transfer. It wraps database/sql
// behind a small blocking interface and hides the differences of the supported
// databases (SQLite, MySQL and PostgreSQL) in a Dialect.
package store

import (
	"context"
	"errors"
)

var (
	// ErrUnsupportedDriver is returned by Open for unknown driver names
	ErrUnsupportedDriver = errors.New("unsupported driver")
	// ErrClosed is returned when a closed store is used
	ErrClosed = errors.New("store is closed")
)

// SQLType is the generic type of a column, used to bind typed null values.
type SQLType int

const (
	Other SQLType = iota
	Blob
	Decimal
	Integer
	Timestamp
	TimestampWithTimezone
	NullType
	Float
	Char
	Boolean
	Date
	LongNVarchar
	Binary
	Varchar
)

var sqlTypeNames = map[SQLType]string{
	Other:                 "OTHER",
	Blob:                  "BLOB",
	Decimal:               "DECIMAL",
	Integer:               "INTEGER",
	Timestamp:             "TIMESTAMP",
	TimestampWithTimezone: "TIMESTAMP_WITH_TIMEZONE",
	NullType:              "NULL",
	Float:                 "FLOAT",
	Char:                  "CHAR",
	Boolean:               "BOOLEAN",
	Date:                  "DATE",
	LongNVarchar:          "LONGNVARCHAR",
	Binary:                "BINARY",
	Varchar:               "VARCHAR",
}

func (t SQLType) String() string {
	if name, ok := sqlTypeNames[t]; ok {
		return name
	}
	return sqlTypeNames[Other]
}

// Null is a null value of a known column type.
// Stores translate it to the typed null of their driver.
type Null struct {
	Type SQLType
}

// ColumnInfo describes an introspected column. Type is the generic type name
// (e.g. decimal, char, longvarchar, timestampwithtimezone), Length and Decimal
// are 0 when the store does not report them.
type ColumnInfo struct {
	Table    string
	Name     string
	Type     string
	Length   int
	Decimal  int
	Position int
}

// Store is a relational database reached through blocking calls.
type Store interface {
	// Exec runs a statement and commits it
	Exec(ctx context.Context, query string, args ...interface{}) error
	// Prepare prepares a statement outside of a transaction
	Prepare(ctx context.Context, query string) (Statement, error)
	// Begin starts a transaction
	Begin(ctx context.Context) (Tx, error)
	// Query runs a query and returns a row cursor
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	// Columns introspects the columns of all user tables, grouped by table in ordinal order
	Columns(ctx context.Context) ([]ColumnInfo, error)
	// Dialect returns the SQL dialect of the store
	Dialect() Dialect
	Close() error
}

// Statement is a prepared statement
type Statement interface {
	Exec(ctx context.Context, args ...interface{}) error
	Close() error
}

// Tx is an open transaction
type Tx interface {
	Prepare(ctx context.Context, query string) (Statement, error)
	Commit() error
	Rollback() error
}

// Rows is a cursor over the result of a query
type Rows interface {
	Columns() []string
	Next() bool
	Values() ([]interface{}, error)
	Err() error
	Close() error
}
