package transfer

import (
	"testing"

	"github.com/Valentin-Kaiser/dbasesql/dbase"
	"github.com/Valentin-Kaiser/dbasesql/store"
)

func TestRelationalType(t *testing.T) {
	tests := []struct {
		field Field
		want  string
	}{
		{Field{Type: dbase.Numeric, Length: 10, Decimal: 2}, "decimal(10,2)"},
		{Field{Type: dbase.Varbinary, Length: 8}, "decimal(8,0)"},
		{Field{Type: dbase.Long}, "bigint"},
		{Field{Type: dbase.Currency}, "bigint"},
		{Field{Type: dbase.Autoincrement}, "bigint"},
		{Field{Type: dbase.Float, Length: 10, Decimal: 3}, "float"},
		{Field{Type: dbase.Double}, "double"},
		{Field{Type: dbase.Character, Length: 20}, "char(20)"},
		{Field{Type: dbase.Varchar, Length: 30}, "varchar(30)"},
		{Field{Type: dbase.Memo}, "longvarchar"},
		{Field{Type: dbase.Logical}, "boolean"},
		{Field{Type: dbase.Date}, "date"},
		{Field{Type: dbase.Timestamp}, "timestamp"},
		{Field{Type: dbase.TimestampDBase7}, "timestampwithtimezone"},
		{Field{Type: dbase.NullFlags}, "bit"},
		{Field{Type: dbase.Picture}, "binary"},
		{Field{Type: dbase.Unknown}, "binary"},
		{Field{Type: dbase.Blob}, "binary"},
		{Field{Type: dbase.General}, "binary"},
		{Field{Type: dbase.Binary}, "binary"},
		{Field{Type: dbase.DataType(200)}, "text"},
	}
	for _, tt := range tests {
		if got := RelationalType(tt.field); got != tt.want {
			t.Errorf("RelationalType(%v) = %q, want %q", tt.field.Type, got, tt.want)
		}
	}
}

func TestFieldFromColumn(t *testing.T) {
	tests := []struct {
		columnType string
		want       dbase.DataType
	}{
		{"double", dbase.Numeric},
		{"decimal", dbase.Numeric},
		{"float", dbase.Float},
		{"int", dbase.Autoincrement},
		{"bigint", dbase.Long},
		{"boolean", dbase.Logical},
		{"date", dbase.Date},
		{"bit", dbase.NullFlags},
		{"longvarchar", dbase.Memo},
		{"timestamp", dbase.Timestamp},
		{"timestampwithtimezone", dbase.TimestampDBase7},
		{"char", dbase.Character},
		{"varchar", dbase.Character},
		{"binary", dbase.Character},
		{"geometry", dbase.Character},
		{" DECIMAL ", dbase.Numeric},
	}
	for _, tt := range tests {
		field := FieldFromColumn("X", tt.columnType, 12, 4)
		if field.Type != tt.want {
			t.Errorf("FieldFromColumn(%q) = %v, want %v", tt.columnType, field.Type, tt.want)
		}
		if field.Name != "X" || field.Length != 12 || field.Decimal != 4 {
			t.Errorf("FieldFromColumn(%q) changed the definition: %v", tt.columnType, field)
		}
	}

	if field := FieldFromColumn("X", "double", 0, 0); field.Length != 20 || field.Decimal != 18 {
		t.Errorf("got %v, an unsized double needs the widest numeric", field)
	}
	if field := FieldFromColumn("X", "decimal", 0, 0); field.Length != 0 || field.Decimal != 0 {
		t.Errorf("got %v, an unsized decimal is completed on dump", field)
	}
}

// A loaded field must come back as a field of the same family
func TestTypeFamilies(t *testing.T) {
	families := map[dbase.DataType]dbase.DataType{
		dbase.Numeric:         dbase.Numeric,
		dbase.Double:          dbase.Numeric,
		dbase.Float:           dbase.Float,
		dbase.Character:       dbase.Character,
		dbase.Varchar:         dbase.Character,
		dbase.Memo:            dbase.Memo,
		dbase.Logical:         dbase.Logical,
		dbase.Date:            dbase.Date,
		dbase.Timestamp:       dbase.Timestamp,
		dbase.TimestampDBase7: dbase.TimestampDBase7,
		dbase.NullFlags:       dbase.NullFlags,
		dbase.Long:            dbase.Long,
		dbase.Currency:        dbase.Long,
		dbase.Autoincrement:   dbase.Long,
		dbase.Varbinary:       dbase.Numeric,
		dbase.Binary:          dbase.Character,
	}
	for loaded, want := range families {
		columnType, _, _ := store.ParseType(RelationalType(Field{Type: loaded, Length: 10, Decimal: 2}))
		if got := FieldFromColumn("X", columnType, 10, 2).Type; got != want {
			t.Errorf("%v loaded as %s dumps as %v, want %v", loaded, columnType, got, want)
		}
	}
}

func TestNullType(t *testing.T) {
	tests := map[dbase.DataType]store.SQLType{
		dbase.Unknown:         store.Other,
		dbase.Varbinary:       store.Blob,
		dbase.Blob:            store.Blob,
		dbase.General:         store.Blob,
		dbase.Numeric:         store.Decimal,
		dbase.Long:            store.Decimal,
		dbase.Double:          store.Decimal,
		dbase.Autoincrement:   store.Integer,
		dbase.Currency:        store.Other,
		dbase.Timestamp:       store.Timestamp,
		dbase.TimestampDBase7: store.TimestampWithTimezone,
		dbase.NullFlags:       store.NullType,
		dbase.Float:           store.Float,
		dbase.Character:       store.Char,
		dbase.Logical:         store.Boolean,
		dbase.Date:            store.Date,
		dbase.Memo:            store.LongNVarchar,
		dbase.Picture:         store.Binary,
		dbase.Binary:          store.Binary,
		dbase.Varchar:         store.Varchar,
		dbase.DataType(200):   store.Varchar,
	}
	for dataType, want := range tests {
		if got := NullType(dataType); got != want {
			t.Errorf("NullType(%v) = %v, want %v", dataType, got, want)
		}
	}
}
