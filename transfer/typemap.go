package transfer

import (
	"fmt"
	"strings"

	"github.com/Valentin-Kaiser/dbasesql/dbase"
	"github.com/Valentin-Kaiser/dbasesql/store"
)

// Field is the description of a DBF field independent of an open file
type Field struct {
	Name    string
	Type    dbase.DataType
	Length  int
	Decimal int
}

// FieldOf describes a column of an open table
func FieldOf(column *dbase.Column) Field {
	return Field{
		Name:    column.Name(),
		Type:    column.DataType,
		Length:  int(column.Length),
		Decimal: int(column.Decimals),
	}
}

func (f Field) String() string {
	return fmt.Sprintf("%s %v(%d,%d)", f.Name, f.Type, f.Length, f.Decimal)
}

// RelationalType returns the generic column type a DBF field is loaded into.
// Store dialects translate the generic names to their native types.
//
// | DBF type | Column type |
// | -------- | ----------- |
// | NUMERIC, VARBINARY | decimal(length,decimal) |
// | LONG, CURRENCY, AUTOINCREMENT | bigint |
// | FLOATING_POINT | float |
// | DOUBLE | double |
// | CHARACTER | char(length) |
// | VARCHAR | varchar(length) |
// | MEMO | longvarchar |
// | LOGICAL | boolean |
// | DATE | date |
// | TIMESTAMP | timestamp |
// | TIMESTAMP_DBASE7 | timestampwithtimezone |
// | NULL_FLAGS | bit |
// | PICTURE, UNKNOWN, BLOB, GENERAL_OLE, BINARY | binary |
// | others | text |
func RelationalType(field Field) string {
	switch field.Type {
	case dbase.Numeric, dbase.Varbinary:
		return fmt.Sprintf("decimal(%d,%d)", field.Length, field.Decimal)
	case dbase.Long, dbase.Currency, dbase.Autoincrement:
		return "bigint"
	case dbase.Float:
		return "float"
	case dbase.Double:
		return "double"
	case dbase.Character:
		return fmt.Sprintf("char(%d)", field.Length)
	case dbase.Varchar:
		return fmt.Sprintf("varchar(%d)", field.Length)
	case dbase.Memo:
		return "longvarchar"
	case dbase.Logical:
		return "boolean"
	case dbase.Date:
		return "date"
	case dbase.Timestamp:
		return "timestamp"
	case dbase.TimestampDBase7:
		return "timestampwithtimezone"
	case dbase.NullFlags:
		return "bit"
	case dbase.Picture, dbase.Unknown, dbase.Blob, dbase.General, dbase.Binary:
		return "binary"
	default:
		return "text"
	}
}

const (
	doubleLength  = 20
	doubleDecimal = doubleLength - 2
)

// FieldFromColumn returns the DBF field a column of the given generic type is dumped to.
// The mapping is coarser than RelationalType, e.g. char and varchar both become CHARACTER.
func FieldFromColumn(name, columnType string, length, decimal int) Field {
	field := Field{Name: name, Length: length, Decimal: decimal}
	switch strings.ToLower(strings.TrimSpace(columnType)) {
	case "double":
		field.Type = dbase.Numeric
		// Doubles report no precision, the widest numeric keeps all significant digits
		if field.Length <= 0 {
			field.Length = doubleLength
			field.Decimal = doubleDecimal
		}
	case "decimal":
		field.Type = dbase.Numeric
	case "float":
		field.Type = dbase.Float
	case "int":
		field.Type = dbase.Autoincrement
	case "bigint":
		field.Type = dbase.Long
	case "boolean":
		field.Type = dbase.Logical
	case "date":
		field.Type = dbase.Date
	case "bit":
		field.Type = dbase.NullFlags
	case "longvarchar":
		field.Type = dbase.Memo
	case "timestamp":
		field.Type = dbase.Timestamp
	case "timestampwithtimezone":
		field.Type = dbase.TimestampDBase7
	default:
		field.Type = dbase.Character
	}
	return field
}

// NullType returns the SQL type a missing value of a DBF type is bound as
func NullType(t dbase.DataType) store.SQLType {
	switch t {
	case dbase.Unknown:
		return store.Other
	case dbase.Varbinary, dbase.Blob, dbase.General:
		return store.Blob
	case dbase.Numeric, dbase.Long, dbase.Double:
		return store.Decimal
	case dbase.Autoincrement:
		return store.Integer
	case dbase.Currency:
		return store.Other
	case dbase.Timestamp:
		return store.Timestamp
	case dbase.TimestampDBase7:
		return store.TimestampWithTimezone
	case dbase.NullFlags:
		return store.NullType
	case dbase.Float:
		return store.Float
	case dbase.Character:
		return store.Char
	case dbase.Logical:
		return store.Boolean
	case dbase.Date:
		return store.Date
	case dbase.Memo:
		return store.LongNVarchar
	case dbase.Picture, dbase.Binary:
		return store.Binary
	case dbase.Varchar:
		return store.Varchar
	default:
		return store.Varchar
	}
}
