package dbase

import (
	"bytes"
	"fmt"
	"strings"
)

// Column is the definition of a single column (field descriptor) of a table
type Column struct {
	name     string
	DataType DataType   // Column type
	Position uint32     // Displacement of column in row
	Length   uint8      // Length of column (in bytes)
	Decimals uint8      // Number of decimal places
	Flag     ColumnFlag // Column flag
	Next     uint32     // Value of autoincrement Next value
	Step     uint16     // Value of autoincrement Step value
	tag      byte       // Type tag as read from the file
}

// rawColumn is the 32 byte on-disk layout of a column definition
type rawColumn struct {
	FieldName [11]byte
	DataType  byte
	Position  uint32
	Length    uint8
	Decimals  uint8
	Flag      byte
	Next      uint32
	Step      uint16
	Reserved  [7]byte
}

// NewColumn validates and returns a column definition.
// The length is ignored for data types with a fixed length.
func NewColumn(name string, dataType DataType, length uint8, decimals uint8, nullable bool) (*Column, error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return nil, newErrorf("dbase-table-newcolumn-1", "no column name defined")
	}
	if len(name) > 10 {
		return nil, newErrorf("dbase-table-newcolumn-2", "column name %q can only be 10 characters long", name)
	}
	column := &Column{
		name:     strings.ToUpper(name),
		DataType: dataType,
		Decimals: decimals,
	}
	if nullable {
		column.Flag |= NullableFlag
	}
	if fixed := dataType.fixedLength(); fixed > 0 {
		column.Length = fixed
		column.Decimals = 0
		if dataType == Autoincrement {
			column.Flag |= AutoincrementFlag
			column.Next = 1
			column.Step = 1
		}
		return column, nil
	}
	if length == 0 {
		return nil, newErrorf("dbase-table-newcolumn-3", "%v length of column %v can not be 0", dataType, column.name)
	}
	if length > dataType.maxLength() {
		return nil, newErrorf("dbase-table-newcolumn-4", "%v length of column %v can only be %d bytes long", dataType, column.name, dataType.maxLength())
	}
	column.Length = length
	switch dataType {
	case Numeric, Float:
		if decimals > 0 && int(decimals) >= int(length)-1 {
			return nil, newErrorf("dbase-table-newcolumn-5", "%v column %v with length %d can not hold %d decimals", dataType, column.name, length, decimals)
		}
	case Varbinary:
		column.Flag |= BinaryFlag
		column.Decimals = 0
	default:
		column.Decimals = 0
	}
	return column, nil
}

// Returns the name of the column as a trimmed string (max length 10)
func (c *Column) Name() string {
	return c.name
}

// Returns the type tag of the column as string (length 1)
func (c *Column) Type() string {
	if c.tag != 0 {
		return string(c.tag)
	}
	return string(c.DataType.Tag(FoxPro))
}

// Nullable reports whether the column can hold null values
func (c *Column) Nullable() bool {
	return c.Flag&NullableFlag != 0
}

// variable reports whether the column carries a length marker in the null flags
func (c *Column) variable() bool {
	return c.DataType == Varchar || c.DataType == Varbinary
}

func (c *Column) String() string {
	return fmt.Sprintf("%v %v(%d,%d)", c.name, c.DataType, c.Length, c.Decimals)
}

func (c *Column) raw(version FileVersion) rawColumn {
	r := rawColumn{
		DataType: c.DataType.Tag(version),
		Position: c.Position,
		Length:   c.Length,
		Decimals: c.Decimals,
		Flag:     byte(c.Flag),
		Next:     c.Next,
		Step:     c.Step,
	}
	copy(r.FieldName[:10], c.name)
	return r
}

func columnFromRaw(r rawColumn, version FileVersion) *Column {
	name := r.FieldName[:]
	if i := bytes.IndexByte(name, 0x00); i >= 0 {
		name = name[:i]
	}
	return &Column{
		name:     strings.TrimSpace(string(name)),
		DataType: ParseDataType(r.DataType, version),
		Position: r.Position,
		Length:   r.Length,
		Decimals: r.Decimals,
		Flag:     ColumnFlag(r.Flag),
		Next:     r.Next,
		Step:     r.Step,
		tag:      r.DataType,
	}
}

// Row is a struct containing the row Position, deleted flag and data fields
type Row struct {
	Position uint32   // Position of the row in the file, starting with 1
	Deleted  bool     // Deleted flag
	fields   []*Field // Fields in this row
}

// Field is a row data field
type Field struct {
	column *Column
	value  interface{}
}

// Returns all values of a row as a slice of interface{}
func (row *Row) Values() []interface{} {
	values := make([]interface{}, 0, len(row.fields))
	for _, field := range row.fields {
		values = append(values, field.value)
	}
	return values
}

// Returns the value of a row at the given position
func (row *Row) Value(pos int) interface{} {
	if field := row.Field(pos); field != nil {
		return field.value
	}
	return nil
}

// Returns all fields of the current row
func (row *Row) Fields() []*Field {
	return row.fields
}

// Returns the field of a row by position or nil if not found
func (row *Row) Field(pos int) *Field {
	if pos < 0 || pos >= len(row.fields) {
		return nil
	}
	return row.fields[pos]
}

// Returns the field of a row by name or nil if not found
func (row *Row) FieldByName(name string) *Field {
	for _, field := range row.fields {
		if strings.EqualFold(field.Name(), name) {
			return field
		}
	}
	return nil
}

// Value returns the field value
func (field *Field) GetValue() interface{} {
	return field.value
}

// Name returns the field name
func (field *Field) Name() string {
	return field.column.Name()
}

// Type returns the field type
func (field *Field) Type() DataType {
	return field.column.DataType
}

// Column returns the field column definition
func (field *Field) Column() *Column {
	return field.column
}
