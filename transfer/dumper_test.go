package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Valentin-Kaiser/dbasesql/dbase"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func mustExec(t *testing.T, s interface {
	Exec(ctx context.Context, query string, args ...interface{}) error
}, queries ...string) {
	t.Helper()
	for _, query := range queries {
		if err := s.Exec(context.Background(), query); err != nil {
			t.Fatalf("exec %q failed: %v", query, err)
		}
	}
}

func TestDumpSchema(t *testing.T) {
	s := openTestStore(t)
	mustExec(t, s,
		`CREATE TABLE "orders"("id" INTEGER PRIMARY KEY AUTOINCREMENT, "customer_name" VARCHAR(300), "customer_number" BIGINT, "total" DECIMAL(30,2), "rate" FLOAT, "note" TEXT, "paid" BOOLEAN, "created" TIMESTAMP)`,
		`INSERT INTO "orders"("customer_name") VALUES ('Ann')`,
	)
	catalog := NewCatalog(s)
	if err := catalog.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := catalog.Record(context.Background(), "orders", Field{Name: "RATE", Type: dbase.Float, Length: 10, Decimal: 3}); err != nil {
		t.Fatal(err)
	}

	schema, err := NewDumper(s, nil, Options{}, nil).Schema(context.Background())
	if err != nil {
		t.Fatalf("schema failed: %v", err)
	}
	tables := schema.Tables()
	if len(tables) != 1 || tables[0].Name != "orders" {
		t.Fatalf("got tables %v, system tables and the catalog must be skipped", tables)
	}
	want := []Field{
		{Name: "ID", Type: dbase.Autoincrement},
		{Name: "CUSTOMER_N", Type: dbase.Character, Length: 254},
		{Name: "CUSTOMER_1", Type: dbase.Long},
		{Name: "TOTAL", Type: dbase.Numeric, Length: 20, Decimal: 2},
		{Name: "RATE", Type: dbase.Float, Length: 10, Decimal: 3},
		{Name: "NOTE", Type: dbase.Memo},
		{Name: "PAID", Type: dbase.Logical},
		{Name: "CREATED", Type: dbase.Timestamp},
	}
	fields := tables[0].Fields
	if len(fields) != len(want) {
		t.Fatalf("got fields %v", fields)
	}
	for i, w := range want {
		if fields[i] != w {
			t.Errorf("field %d: got %v, want %v", i, fields[i], w)
		}
	}
}

func TestCompleteField(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		entry *CatalogEntry
		want  Field
	}{
		{"numeric reported", Field{Type: dbase.Numeric, Length: 10, Decimal: 2}, nil, Field{Type: dbase.Numeric, Length: 10, Decimal: 2}},
		{"numeric unknown", Field{Type: dbase.Numeric}, nil, Field{Type: dbase.Numeric, Length: 20, Decimal: 8}},
		{"numeric too wide", Field{Type: dbase.Numeric, Length: 38, Decimal: 2}, nil, Field{Type: dbase.Numeric, Length: 20, Decimal: 2}},
		{"numeric too wide with many decimals", Field{Type: dbase.Numeric, Length: 38, Decimal: 30}, nil, Field{Type: dbase.Numeric, Length: 20, Decimal: 18}},
		{"double", FieldFromColumn("", "double", 0, 0), nil, Field{Type: dbase.Numeric, Length: 20, Decimal: 18}},
		{"numeric too many decimals", Field{Type: dbase.Numeric, Length: 5, Decimal: 4}, nil, Field{Type: dbase.Numeric, Length: 5, Decimal: 3}},
		{"numeric from catalog", Field{Type: dbase.Numeric}, &CatalogEntry{Type: dbase.Numeric, Length: 6, Decimal: 1}, Field{Type: dbase.Numeric, Length: 6, Decimal: 1}},
		{"catalog of other type", Field{Type: dbase.Numeric}, &CatalogEntry{Type: dbase.Double, Length: 8}, Field{Type: dbase.Numeric, Length: 20, Decimal: 8}},
		{"reported wins over catalog", Field{Type: dbase.Character, Length: 5}, &CatalogEntry{Type: dbase.Character, Length: 9}, Field{Type: dbase.Character, Length: 5}},
		{"character unknown", Field{Type: dbase.Character}, nil, Field{Type: dbase.Character, Length: 254}},
		{"character too long", Field{Type: dbase.Character, Length: 2000}, nil, Field{Type: dbase.Character, Length: 254}},
		{"null flags", Field{Type: dbase.NullFlags}, nil, Field{Type: dbase.NullFlags, Length: 1}},
		{"date", Field{Type: dbase.Date, Length: 3, Decimal: 1}, nil, Field{Type: dbase.Date, Length: 3}},
	}
	for _, tt := range tests {
		if got := completeField(tt.field, tt.entry); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestColumnName(t *testing.T) {
	used := make(map[string]bool)
	for _, tt := range []struct{ in, want string }{
		{"name", "NAME"},
		{"description", "DESCRIPTIO"},
		{"description_long", "DESCRIPTI1"},
		{"Name", "NAME1"},
		{"description2", "DESCRIPTI2"},
	} {
		if got := columnName(tt.in, used); got != tt.want {
			t.Errorf("columnName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDumpRecordError(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	mustExec(t, s,
		`CREATE TABLE "scores"("NAME" CHAR(10), "POINTS" DECIMAL(3,0))`,
		`INSERT INTO "scores" VALUES ('Ann', 7)`,
		`INSERT INTO "scores" VALUES ('Bob', 12345)`,
		`INSERT INTO "scores" VALUES ('Carl', 9)`,
	)
	out := t.TempDir()

	core, logs := observer.New(zap.InfoLevel)
	dumper := NewDumper(s, nil, Options{}, zap.New(core).Sugar())
	err := dumper.DumpFolder(ctx, out)
	var recordErr *RecordError
	if !errors.As(err, &recordErr) || !errors.Is(err, ErrDataConversion) {
		t.Fatalf("got %v, want a record error", err)
	}
	abs, _ := filepath.Abs(filepath.Join(out, "scores.dbf"))
	if recordErr.Path != abs || !strings.HasPrefix(recordErr.Error(), "Error saving "+abs+" record : ['Bob','12345', ]") {
		t.Errorf("got %q", recordErr.Error())
	}
	if logs.FilterLevelExact(zap.ErrorLevel).Len() != 1 {
		t.Errorf("got logs %v", logs.All())
	}
	// The records written before the failure are kept
	if _, values := readTable(t, filepath.Join(out, "scores.dbf")); len(values) != 1 {
		t.Errorf("got %d records, want 1", len(values))
	}

	skipped := t.TempDir()
	dumper.OnRecordError = SkipRecordErrors
	if err := dumper.DumpFolder(ctx, skipped); err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	_, values := readTable(t, filepath.Join(skipped, "scores.dbf"))
	if len(values) != 2 || values[0][0] != "Ann" || values[1][0] != "Carl" {
		t.Errorf("got %v", values)
	}
	if logs.FilterMessage("Stored scores 2 records, skipped 1.").Len() != 1 {
		t.Errorf("got logs %v", logs.All())
	}
}

func TestDumpNulls(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	mustExec(t, s,
		`CREATE TABLE "counters"("ID" BIGINT, "LABEL" CHAR(5), "NOTE" TEXT, "SEEN" TIMESTAMP WITH TIME ZONE)`,
		`INSERT INTO "counters" VALUES (0, 'zero', 'a long note', '2021-03-04 05:06:07+00:00')`,
		`INSERT INTO "counters" VALUES (NULL, NULL, NULL, NULL)`,
	)
	out := t.TempDir()
	if err := NewDumper(s, nil, Options{Charset: "utf-8"}, nil).DumpFolder(ctx, out); err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	file, values := readTable(t, filepath.Join(out, "counters.dbf"))
	if !file.Column(0).Nullable() {
		t.Error("LONG columns must be nullable")
	}
	if file.Column(2).DataType != dbase.Memo || file.Column(3).DataType != dbase.TimestampDBase7 {
		t.Errorf("got columns %v", file.Columns())
	}
	if len(values) != 2 {
		t.Fatalf("got %d records", len(values))
	}
	if values[0][0] != int32(0) || values[0][1] != "zero" || values[0][2] != "a long note" || values[0][3] == nil {
		t.Errorf("got %v", values[0])
	}
	if values[1][0] != nil || values[1][1] != "" || values[1][2] != nil || values[1][3] != nil {
		t.Errorf("got %v, zero and null must stay apart", values[1])
	}
	if _, err := os.Stat(filepath.Join(out, "counters.fpt")); err != nil {
		t.Errorf("memo file missing: %v", err)
	}
}

func TestDumpErrors(t *testing.T) {
	s := openTestStore(t)
	mustExec(t, s, `CREATE TABLE "a"("X" CHAR(1))`)
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := NewDumper(s, nil, Options{}, nil).DumpFolder(context.Background(), file); !errors.Is(err, ErrIO) {
		t.Errorf("got %v, want ErrIO", err)
	}
	if err := NewDumper(s, nil, Options{Charset: "no-such-charset"}, nil).DumpFolder(context.Background(), t.TempDir()); !errors.Is(err, ErrDataConversion) {
		t.Errorf("got %v, want ErrDataConversion", err)
	}
}
