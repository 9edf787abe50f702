package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Dialect hides the differences of the supported databases: identifier
// quoting, placeholders, native column types and column introspection.
// The set of dialects is closed, use DialectByName to get one.
type Dialect interface {
	// Name returns the driver name, e.g. sqlite
	Name() string
	// Quote quotes an identifier
	Quote(identifier string) string
	// Placeholder returns the placeholder of the n-th (1 based) statement argument
	Placeholder(n int) string
	// Type translates a generic column type, e.g. decimal(10,2) or longvarchar, to the native type
	Type(generic string) string
	// SystemTable reports whether a table belongs to the database itself
	SystemTable(name string) bool

	columns(ctx context.Context, db *sql.DB) ([]ColumnInfo, error)
}

// DialectByName returns the dialect of a driver name
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return sqliteDialect{}, nil
	case "mysql", "mariadb":
		return mysqlDialect{}, nil
	case "postgres", "postgresql", "pq":
		return postgresDialect{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, name)
}

// ParseType splits a column type like DECIMAL(10,2) into its lower case name and parameters.
// Missing parameters are returned as 0.
func ParseType(t string) (string, int, int) {
	t = strings.ToLower(strings.TrimSpace(t))
	open := strings.IndexByte(t, '(')
	if open < 0 || !strings.HasSuffix(t, ")") {
		return strings.Join(strings.Fields(t), " "), 0, 0
	}
	name := strings.Join(strings.Fields(t[:open]), " ")
	params := strings.Split(t[open+1:len(t)-1], ",")
	length, _ := strconv.Atoi(strings.TrimSpace(params[0]))
	decimal := 0
	if len(params) > 1 {
		decimal, _ = strconv.Atoi(strings.TrimSpace(params[1]))
	}
	return name, length, decimal
}

// genericTypes maps native type names of all dialects to the generic names
var genericTypes = map[string]string{
	"decimal":                     "decimal",
	"numeric":                     "decimal",
	"bigint":                      "bigint",
	"int8":                        "bigint",
	"int":                         "int",
	"integer":                     "int",
	"int4":                        "int",
	"smallint":                    "int",
	"mediumint":                   "int",
	"tinyint":                     "int",
	"float":                       "float",
	"real":                        "float",
	"float4":                      "float",
	"double":                      "double",
	"double precision":            "double",
	"float8":                      "double",
	"char":                        "char",
	"character":                   "char",
	"nchar":                       "char",
	"bpchar":                      "char",
	"varchar":                     "varchar",
	"nvarchar":                    "varchar",
	"character varying":           "varchar",
	"varying character":           "varchar",
	"longvarchar":                 "longvarchar",
	"text":                        "longvarchar",
	"mediumtext":                  "longvarchar",
	"longtext":                    "longvarchar",
	"clob":                        "longvarchar",
	"boolean":                     "boolean",
	"bool":                        "boolean",
	"date":                        "date",
	"timestamp":                   "timestamp",
	"datetime":                    "timestamp",
	"timestamp without time zone": "timestamp",
	"timestamp with time zone":    "timestampwithtimezone",
	"timestamptz":                 "timestampwithtimezone",
	"bit":                         "bit",
	"bit varying":                 "bit",
	"varbit":                      "bit",
	"binary":                      "binary",
	"varbinary":                   "binary",
	"blob":                        "binary",
	"mediumblob":                  "binary",
	"longblob":                    "binary",
	"bytea":                       "binary",
}

// genericType normalizes a native type name, unknown names are returned lower case
func genericType(native string) string {
	name, _, _ := ParseType(native)
	if generic, ok := genericTypes[name]; ok {
		return generic
	}
	return name
}

// sizedColumn sets length and decimal of the column if the generic type carries them.
// Float and double columns never report a precision.
func sizedColumn(info ColumnInfo, length, decimal int) ColumnInfo {
	switch info.Type {
	case "char", "varchar":
		info.Length = length
	case "decimal":
		info.Length = length
		info.Decimal = decimal
	}
	return info
}

// nativeType renders a generic type with the native names of a dialect
func nativeType(generic string, names map[string]string) string {
	name, length, decimal := ParseType(generic)
	native, ok := names[name]
	if !ok {
		native = strings.ToUpper(name)
	}
	switch name {
	case "char", "varchar":
		if length > 0 {
			return fmt.Sprintf("%s(%d)", native, length)
		}
	case "decimal":
		if length > 0 {
			return fmt.Sprintf("%s(%d,%d)", native, length, decimal)
		}
	}
	return native
}

/**
 *	################################################################
 *	#					SQLite
 *	################################################################
 */

type sqliteDialect struct{}

var sqliteTypes = map[string]string{
	"decimal":               "DECIMAL",
	"bigint":                "BIGINT",
	"int":                   "INTEGER",
	"float":                 "FLOAT",
	"double":                "DOUBLE",
	"char":                  "CHAR",
	"varchar":               "VARCHAR",
	"longvarchar":           "LONGVARCHAR",
	"text":                  "TEXT",
	"boolean":               "BOOLEAN",
	"date":                  "DATE",
	"timestamp":             "TIMESTAMP",
	"timestampwithtimezone": "TIMESTAMP WITH TIME ZONE",
	"bit":                   "BIT",
	"binary":                "BLOB",
}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) Type(generic string) string { return nativeType(generic, sqliteTypes) }

func (sqliteDialect) SystemTable(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "sqlite_")
}

// columns reads the declared types with PRAGMA table_info, table by table
func (d sqliteDialect) columns(ctx context.Context, db *sql.DB) ([]ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	var columns []ColumnInfo
	for _, table := range tables {
		pragmaRows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.Quote(table)))
		if err != nil {
			return nil, fmt.Errorf("table info %s: %w", table, err)
		}
		for pragmaRows.Next() {
			var cid int
			var name, colType string
			var notNull, pk int
			var dfltValue sql.NullString
			if err := pragmaRows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
				pragmaRows.Close()
				return nil, fmt.Errorf("scan column of %s: %w", table, err)
			}
			_, length, decimal := ParseType(colType)
			info := ColumnInfo{Table: table, Name: name, Type: genericType(colType), Position: cid + 1}
			columns = append(columns, sizedColumn(info, length, decimal))
		}
		if err := pragmaRows.Close(); err != nil {
			return nil, err
		}
	}
	return columns, nil
}

/**
 *	################################################################
 *	#					MySQL
 *	################################################################
 */

type mysqlDialect struct{}

var mysqlTypes = map[string]string{
	"decimal":               "DECIMAL",
	"bigint":                "BIGINT",
	"int":                   "INT",
	"float":                 "FLOAT",
	"double":                "DOUBLE",
	"char":                  "CHAR",
	"varchar":               "VARCHAR",
	"longvarchar":           "LONGTEXT",
	"text":                  "LONGTEXT",
	"boolean":               "BOOLEAN",
	"date":                  "DATE",
	"timestamp":             "DATETIME(3)",
	"timestampwithtimezone": "TIMESTAMP(3) NULL",
	"bit":                   "VARBINARY(255)",
	"binary":                "LONGBLOB",
}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) Quote(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

func (mysqlDialect) Placeholder(int) string { return "?" }

func (mysqlDialect) Type(generic string) string { return nativeType(generic, mysqlTypes) }

// SystemTable is always false, the introspection only lists the tables of the current database
func (mysqlDialect) SystemTable(string) bool { return false }

func (mysqlDialect) columns(ctx context.Context, db *sql.DB) ([]ColumnInfo, error) {
	return informationSchemaColumns(ctx, db, `SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, COLUMN_TYPE,
		COALESCE(CHARACTER_MAXIMUM_LENGTH, 0), COALESCE(NUMERIC_PRECISION, 0), COALESCE(NUMERIC_SCALE, 0), ORDINAL_POSITION
		FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = DATABASE()
		ORDER BY TABLE_NAME, ORDINAL_POSITION`, func(dataType, columnType string) string {
		// BOOLEAN columns are created as TINYINT(1)
		if strings.EqualFold(columnType, "tinyint(1)") {
			return "boolean"
		}
		// TIMESTAMP columns are stored in UTC and converted to the session time zone
		if strings.EqualFold(dataType, "timestamp") {
			return "timestampwithtimezone"
		}
		return genericType(dataType)
	})
}

/**
 *	################################################################
 *	#					PostgreSQL
 *	################################################################
 */

type postgresDialect struct{}

var postgresTypes = map[string]string{
	"decimal":               "NUMERIC",
	"bigint":                "BIGINT",
	"int":                   "INTEGER",
	"float":                 "REAL",
	"double":                "DOUBLE PRECISION",
	"char":                  "CHAR",
	"varchar":               "VARCHAR",
	"longvarchar":           "TEXT",
	"text":                  "TEXT",
	"boolean":               "BOOLEAN",
	"date":                  "DATE",
	"timestamp":             "TIMESTAMP",
	"timestampwithtimezone": "TIMESTAMP WITH TIME ZONE",
	"bit":                   "BYTEA",
	"binary":                "BYTEA",
}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Quote(identifier string) string { return pq.QuoteIdentifier(identifier) }

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) Type(generic string) string { return nativeType(generic, postgresTypes) }

func (postgresDialect) SystemTable(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "pg_")
}

func (postgresDialect) columns(ctx context.Context, db *sql.DB) ([]ColumnInfo, error) {
	return informationSchemaColumns(ctx, db, `SELECT table_name, column_name, data_type, udt_name,
		COALESCE(character_maximum_length, 0), COALESCE(numeric_precision, 0), COALESCE(numeric_scale, 0), ordinal_position
		FROM information_schema.columns WHERE table_schema = current_schema()
		ORDER BY table_name, ordinal_position`, func(dataType, _ string) string {
		return genericType(dataType)
	})
}

// informationSchemaColumns runs an INFORMATION_SCHEMA query returning
// table, column, data type, column type, length, precision, scale and position
func informationSchemaColumns(ctx context.Context, db *sql.DB, query string, normalize func(dataType, columnType string) string) ([]ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			info                     ColumnInfo
			dataType, columnType     string
			length, precision, scale int64
		)
		if err := rows.Scan(&info.Table, &info.Name, &dataType, &columnType, &length, &precision, &scale, &info.Position); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		info.Type = normalize(dataType, columnType)
		if info.Type == "decimal" {
			length = precision
		}
		columns = append(columns, sizedColumn(info, clampInt(length), int(scale)))
	}
	return columns, rows.Err()
}

func clampInt(v int64) int {
	if v > 1<<31-1 {
		return 1<<31 - 1
	}
	return int(v)
}
