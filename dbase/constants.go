package dbase

import "strings"

// FileVersion is the first byte of a dBase table file.
type FileVersion byte

// Supported and tested file types - other file types may work but are not tested
// The file type check has to be bypassed when opening, if the file type is not supported
const (
	FoxBase             FileVersion = 0x02
	FoxBasePlus         FileVersion = 0x03
	DBaseLevel7         FileVersion = 0x04
	FoxPro              FileVersion = 0x30
	FoxProAutoincrement FileVersion = 0x31
	FoxProVar           FileVersion = 0x32
	FoxBasePlusMemo     FileVersion = 0x83
	DBaseMemo           FileVersion = 0x8B
	FoxPro2Memo         FileVersion = 0xF5
)

// foxPro reports whether the version uses Visual FoxPro type tags, where 'B' is a double.
func (v FileVersion) foxPro() bool {
	switch v {
	case FoxPro, FoxProAutoincrement, FoxProVar, FoxPro2Memo:
		return true
	}
	return false
}

// tested reports whether the version was tested with this package
func (v FileVersion) tested() bool {
	switch v {
	case FoxBasePlus, FoxPro, FoxProAutoincrement, FoxProVar, FoxBasePlusMemo, FoxPro2Memo:
		return true
	}
	return false
}

// FileExtension is a file extension used by dBase files
type FileExtension string

const (
	DBF FileExtension = ".DBF"
	FPT FileExtension = ".FPT"
)

// Marker is a relevant byte marker inside of a table file
type Marker byte

const (
	Null      Marker = 0x00
	Blank     Marker = 0x20
	ColumnEnd Marker = 0x0D
	Active           = Blank
	Deleted   Marker = 0x2A
	EOFMarker Marker = 0x1A
)

// TableFlag is the table flag byte of the header
type TableFlag byte

const (
	StructuralFlag TableFlag = 0x01
	MemoFlag       TableFlag = 0x02
	DatabaseFlag   TableFlag = 0x04
)

// ColumnFlag is the flag byte of a column definition
type ColumnFlag byte

const (
	HiddenFlag        ColumnFlag = 0x01
	NullableFlag      ColumnFlag = 0x02
	BinaryFlag        ColumnFlag = 0x04
	AutoincrementFlag ColumnFlag = 0x0C
)

// MemoType is the block signature of a memo
type MemoType uint32

const (
	PictureMemo MemoType = 0x00
	TextMemo    MemoType = 0x01
	ObjectMemo  MemoType = 0x02
)

// DataType is the closed set of column types this package knows about.
// Every tag read from a file resolves to exactly one of these, Unknown being the fallback.
type DataType uint8

const (
	Unknown DataType = iota
	Character
	Varchar
	Varbinary
	Date
	Float
	Double
	Numeric
	Logical
	Memo
	Binary
	Blob
	General
	Picture
	Long
	Autoincrement
	Currency
	Timestamp
	TimestampDBase7
	NullFlags
)

// DataTypes lists every known data type except Unknown
var DataTypes = []DataType{
	Character, Varchar, Varbinary, Date, Float, Double, Numeric, Logical, Memo, Binary,
	Blob, General, Picture, Long, Autoincrement, Currency, Timestamp, TimestampDBase7, NullFlags,
}

var dataTypeNames = map[DataType]string{
	Unknown:         "UNKNOWN",
	Character:       "CHARACTER",
	Varchar:         "VARCHAR",
	Varbinary:       "VARBINARY",
	Date:            "DATE",
	Float:           "FLOATING_POINT",
	Double:          "DOUBLE",
	Numeric:         "NUMERIC",
	Logical:         "LOGICAL",
	Memo:            "MEMO",
	Binary:          "BINARY",
	Blob:            "BLOB",
	General:         "GENERAL_OLE",
	Picture:         "PICTURE",
	Long:            "LONG",
	Autoincrement:   "AUTOINCREMENT",
	Currency:        "CURRENCY",
	Timestamp:       "TIMESTAMP",
	TimestampDBase7: "TIMESTAMP_DBASE7",
	NullFlags:       "NULL_FLAGS",
}

// String returns the upper case name of the data type, e.g. FLOATING_POINT
func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return dataTypeNames[Unknown]
}

// DataTypeByName resolves a name as returned by DataType.String. Unknown names resolve to Unknown.
func DataTypeByName(name string) DataType {
	name = strings.ToUpper(strings.TrimSpace(name))
	for t, n := range dataTypeNames {
		if n == name {
			return t
		}
	}
	return Unknown
}

// Tag returns the one byte type tag written into the column definition.
// Double is written as 'B' in FoxPro tables and as 'O' otherwise, Binary as 'W' in FoxPro tables.
func (t DataType) Tag(version FileVersion) byte {
	switch t {
	case Character:
		return 'C'
	case Varchar:
		return 'V'
	case Varbinary:
		return 'Q'
	case Date:
		return 'D'
	case Float:
		return 'F'
	case Double:
		if version.foxPro() {
			return 'B'
		}
		return 'O'
	case Numeric:
		return 'N'
	case Logical:
		return 'L'
	case Memo:
		return 'M'
	case Binary:
		// 'B' is taken by Double in FoxPro tables, the memo block layout of W is the same
		if version.foxPro() {
			return 'W'
		}
		return 'B'
	case Blob:
		return 'W'
	case General:
		return 'G'
	case Picture:
		return 'P'
	case Long:
		return 'I'
	case Autoincrement:
		return '+'
	case Currency:
		return 'Y'
	case Timestamp:
		return 'T'
	case TimestampDBase7:
		return '@'
	case NullFlags:
		return '0'
	default:
		return 0x00
	}
}

// ParseDataType resolves a type tag of a table with the given version
func ParseDataType(tag byte, version FileVersion) DataType {
	switch tag {
	case 'C':
		return Character
	case 'V':
		return Varchar
	case 'Q':
		return Varbinary
	case 'D':
		return Date
	case 'F':
		return Float
	case 'O':
		return Double
	case 'B':
		if version.foxPro() {
			return Double
		}
		return Binary
	case 'N':
		return Numeric
	case 'L':
		return Logical
	case 'M':
		return Memo
	case 'W':
		return Blob
	case 'G':
		return General
	case 'P':
		return Picture
	case 'I':
		return Long
	case '+':
		return Autoincrement
	case 'Y':
		return Currency
	case 'T':
		return Timestamp
	case '@':
		return TimestampDBase7
	case '0':
		return NullFlags
	default:
		return Unknown
	}
}

// memo reports whether the values of the type are stored in the memo file
func (t DataType) memo() bool {
	switch t {
	case Memo, Binary, Blob, General, Picture:
		return true
	}
	return false
}

// fixedLength returns the byte length of types whose length can not be chosen, 0 otherwise
func (t DataType) fixedLength() uint8 {
	switch t {
	case Logical:
		return 1
	case Long, Autoincrement, Memo, Binary, Blob, General, Picture:
		return 4
	case Date, Double, Currency, Timestamp, TimestampDBase7:
		return 8
	}
	return 0
}

// maxLength returns the maximum byte length for types with a variable length
func (t DataType) maxLength() uint8 {
	switch t {
	case Numeric, Float:
		return 20
	default:
		return 254
	}
}
