package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQL {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")}, nil)
	if err != nil {
		t.Fatalf("opening sqlite store failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		length  int
		decimal int
	}{
		{"DECIMAL(10,2)", "decimal", 10, 2},
		{"decimal( 3 , 0 )", "decimal", 3, 0},
		{"CHAR(20)", "char", 20, 0},
		{"TIMESTAMP WITH TIME ZONE", "timestamp with time zone", 0, 0},
		{"double  precision", "double precision", 0, 0},
		{"longvarchar", "longvarchar", 0, 0},
	}
	for _, tt := range tests {
		name, length, decimal := ParseType(tt.in)
		if name != tt.name || length != tt.length || decimal != tt.decimal {
			t.Errorf("%s: got (%s,%d,%d), want (%s,%d,%d)", tt.in, name, length, decimal, tt.name, tt.length, tt.decimal)
		}
	}
}

func TestDialectTypes(t *testing.T) {
	tests := []struct {
		dialect  string
		generic  string
		expected string
	}{
		{"sqlite", "decimal(3,0)", "DECIMAL(3,0)"},
		{"sqlite", "char(20)", "CHAR(20)"},
		{"sqlite", "longvarchar", "LONGVARCHAR"},
		{"sqlite", "timestampwithtimezone", "TIMESTAMP WITH TIME ZONE"},
		{"sqlite", "binary", "BLOB"},
		{"mysql", "longvarchar", "LONGTEXT"},
		{"mysql", "varchar(10)", "VARCHAR(10)"},
		{"mysql", "timestamp", "DATETIME(3)"},
		{"postgres", "double", "DOUBLE PRECISION"},
		{"postgres", "decimal(12,4)", "NUMERIC(12,4)"},
		{"postgres", "binary", "BYTEA"},
		{"postgres", "unknowntype", "UNKNOWNTYPE"},
	}
	for _, tt := range tests {
		dialect, err := DialectByName(tt.dialect)
		if err != nil {
			t.Fatal(err)
		}
		if got := dialect.Type(tt.generic); got != tt.expected {
			t.Errorf("%s %s: got %s, want %s", tt.dialect, tt.generic, got, tt.expected)
		}
	}
}

func TestGenericType(t *testing.T) {
	tests := map[string]string{
		"DECIMAL(3,0)":                "decimal",
		"numeric":                     "decimal",
		"character varying":           "varchar",
		"TIMESTAMP WITH TIME ZONE":    "timestampwithtimezone",
		"timestamp without time zone": "timestamp",
		"LONGVARCHAR":                 "longvarchar",
		"text":                        "longvarchar",
		"double precision":            "double",
		"INTEGER":                     "int",
		"BIGINT":                      "bigint",
		"BOOLEAN":                     "boolean",
		"bytea":                       "binary",
		"geometry":                    "geometry",
	}
	for native, expected := range tests {
		if got := genericType(native); got != expected {
			t.Errorf("%s: got %s, want %s", native, got, expected)
		}
	}
}

func TestDialectQuoting(t *testing.T) {
	sqlite, _ := DialectByName("sqlite")
	mysql, _ := DialectByName("mysql")
	postgres, _ := DialectByName("postgresql")
	if got := sqlite.Quote(`dir/a"b`); got != `"dir/a""b"` {
		t.Errorf("sqlite: got %s", got)
	}
	if got := mysql.Quote("a`b"); got != "`a``b`" {
		t.Errorf("mysql: got %s", got)
	}
	if got := postgres.Quote("people"); got != `"people"` {
		t.Errorf("postgres: got %s", got)
	}
	if sqlite.Placeholder(3) != "?" || postgres.Placeholder(3) != "$3" {
		t.Error("unexpected placeholders")
	}
	if _, err := DialectByName("oracle"); !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestSystemTables(t *testing.T) {
	sqlite, _ := DialectByName("sqlite")
	postgres, _ := DialectByName("postgres")
	mysql, _ := DialectByName("mysql")
	if !sqlite.SystemTable("sqlite_sequence") || sqlite.SystemTable("people") {
		t.Error("sqlite system table detection failed")
	}
	if !postgres.SystemTable("pg_class") || postgres.SystemTable("people") {
		t.Error("postgres system table detection failed")
	}
	// Names of database catalog views are ordinary user tables
	for _, name := range []string{"users", "sessions", "settings", "roles", "views", "tables", "columns"} {
		for _, dialect := range []Dialect{sqlite, postgres, mysql} {
			if dialect.SystemTable(name) {
				t.Errorf("%s: %s is not a system table", dialect.Name(), name)
			}
		}
	}
}

func TestDSN(t *testing.T) {
	dsn := MySQLDSN(Config{Host: "db", User: "root", Password: "secret", Database: "legacy"})
	if !strings.HasPrefix(dsn, "root:secret@tcp(db:3306)/legacy?") || !strings.Contains(dsn, "parseTime=true") || !strings.Contains(dsn, "charset=utf8mb4") {
		t.Errorf("unexpected mysql dsn %s", dsn)
	}
	dsn = PostgresDSN(Config{Host: "db", User: "app", Password: "a b", Database: "legacy"})
	if dsn != "host=db port=5432 user=app password='a b' dbname=legacy sslmode=disable" {
		t.Errorf("unexpected postgres dsn %s", dsn)
	}
	if !strings.HasPrefix(SQLiteDSN("/tmp/x.db"), "/tmp/x.db?") {
		t.Error("unexpected sqlite dsn")
	}
	if _, err := Open(context.Background(), Config{Driver: "sqlite"}, nil); err == nil {
		t.Error("expected error for missing sqlite path")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	d := s.Dialect()

	ddl := "CREATE TABLE " + d.Quote("dir/people") + " (" +
		d.Quote("NAME") + " " + d.Type("char(20)") + ", " +
		d.Quote("AGE") + " " + d.Type("decimal(3,0)") + ", " +
		d.Quote("BIRTH") + " " + d.Type("date") + ", " +
		d.Quote("ACTIVE") + " " + d.Type("boolean") + ", " +
		d.Quote("SCORE") + " " + d.Type("double") + ")"
	if err := s.Exec(ctx, ddl); err != nil {
		t.Fatal(err)
	}
	stmt, err := s.Prepare(ctx, "INSERT INTO "+d.Quote("dir/people")+" VALUES (?,?,?,?,?)")
	if err != nil {
		t.Fatal(err)
	}
	birth := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := stmt.Exec(ctx, "Ann", int64(30), birth, true, 1.5); err != nil {
		t.Fatal(err)
	}
	if err := stmt.Exec(ctx, "Bob", Null{Type: Decimal}, Null{Type: Date}, Null{Type: Boolean}, Null{Type: Float}); err != nil {
		t.Fatal(err)
	}
	if err := stmt.Close(); err != nil {
		t.Fatal(err)
	}

	columns, err := s.Columns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	expected := []ColumnInfo{
		{Table: "dir/people", Name: "NAME", Type: "char", Length: 20, Position: 1},
		{Table: "dir/people", Name: "AGE", Type: "decimal", Length: 3, Decimal: 0, Position: 2},
		{Table: "dir/people", Name: "BIRTH", Type: "date", Position: 3},
		{Table: "dir/people", Name: "ACTIVE", Type: "boolean", Position: 4},
		{Table: "dir/people", Name: "SCORE", Type: "double", Position: 5},
	}
	if !reflect.DeepEqual(columns, expected) {
		t.Errorf("got columns %+v", columns)
	}

	rows, err := s.Query(ctx, "SELECT * FROM "+d.Quote("dir/people"))
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	if got := rows.Columns(); len(got) != 5 || got[0] != "NAME" {
		t.Errorf("got result columns %v", got)
	}
	var values [][]interface{}
	for rows.Next() {
		v, err := rows.Values()
		if err != nil {
			t.Fatal(err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	if len(values) != 2 {
		t.Fatalf("got %d rows", len(values))
	}
	if values[0][0] != "Ann" || values[0][1] != int64(30) || values[0][4] != 1.5 {
		t.Errorf("got %v", values[0])
	}
	if active := values[0][3]; active != int64(1) && active != true {
		t.Errorf("got %v", values[0])
	}
	if tm, ok := values[0][2].(time.Time); !ok || !tm.Equal(birth) {
		t.Errorf("got date %v (%T)", values[0][2], values[0][2])
	}
	for i, v := range values[1][1:] {
		if v != nil {
			t.Errorf("column %d: expected null, got %v", i+1, v)
		}
	}
}

func TestTransaction(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.Exec(ctx, `CREATE TABLE t (v INTEGER)`); err != nil {
		t.Fatal(err)
	}

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	stmt, err := tx.Prepare(ctx, `INSERT INTO t VALUES (?)`)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := stmt.Exec(ctx, i); err != nil {
			t.Fatal(err)
		}
	}
	stmt.Close()
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}
	if n := count(t, s, "t"); n != 0 {
		t.Errorf("expected rollback to discard rows, got %d", n)
	}

	tx, err = s.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	stmt, err = tx.Prepare(ctx, `INSERT INTO t VALUES (?)`)
	if err != nil {
		t.Fatal(err)
	}
	if err := stmt.Exec(ctx, 1); err != nil {
		t.Fatal(err)
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("rollback after commit should be a no-op, got %v", err)
	}
	if n := count(t, s, "t"); n != 1 {
		t.Errorf("got %d rows, want 1", n)
	}
}

func TestClosedStore(t *testing.T) {
	s := openTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if err := s.Exec(context.Background(), "SELECT 1"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func count(t *testing.T, s *SQL, table string) int64 {
	t.Helper()
	rows, err := s.Query(context.Background(), "SELECT COUNT(*) FROM "+table)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	if !rows.Next() {
		t.Fatal("no count row")
	}
	values, err := rows.Values()
	if err != nil {
		t.Fatal(err)
	}
	return values[0].(int64)
}
