package dbase

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

// Interpret converts raw column data to the Go value of the column type.
// Blank values of types without a blank representation (numbers, dates, logicals, memos) return nil.
//
// | Column Type | Column Type Name | Golang type |
// | ----------- | ---------------- | ----------- |
// | C | Character | string |
// | V | Varchar | string |
// | Q | Varbinary | []byte |
// | N | Numeric (0 decimals) | int64 |
// | N | Numeric (with decimals) | float64 |
// | F | Float | float64 |
// | B, O | Double | float64 |
// | I | Long | int32 |
// | + | Autoincrement | int32 |
// | Y | Currency | float64 |
// | D | Date | time.Time |
// | T, @ | Timestamp | time.Time |
// | L | Logical | bool |
// | M | Memo | string |
// | B, W, G, P | Binary, Blob, General, Picture | []byte |
// | 0, ? | NullFlags, Unknown | []byte |
func (file *File) Interpret(raw []byte, column *Column) (interface{}, error) {
	if fixed := column.DataType.fixedLength(); fixed > 0 && len(raw) < int(fixed) {
		return nil, newErrorf("dbase-interpreter-interpret-0", "%w: column field %v needs %d bytes, got %d", ErrIncomplete, column.Name(), fixed, len(raw))
	}
	switch column.DataType {
	case Character, Varchar:
		str, err := file.toUTF8String(raw)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-interpret-1", "parsing to utf8 string failed at column field: %v failed with error: %w", column.Name(), err)
		}
		if file.config.TrimSpaces {
			str = strings.TrimRight(str, " \x00")
		}
		return str, nil
	case Numeric:
		if blank(raw) {
			return nil, nil
		}
		if column.Decimals == 0 {
			i, err := parseNumericInt(raw)
			if err == nil {
				return i, nil
			}
		}
		f, err := parseFloat(raw)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-interpret-2", "%w: parsing numeric at column field: %v failed with error: %v", ErrInvalidValue, column.Name(), err)
		}
		return f, nil
	case Float:
		if blank(raw) {
			return nil, nil
		}
		f, err := parseFloat(raw)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-interpret-3", "%w: parsing float at column field: %v failed with error: %v", ErrInvalidValue, column.Name(), err)
		}
		return f, nil
	case Double:
		return math.Float64frombits(binary.LittleEndian.Uint64(raw)), nil
	case Long, Autoincrement:
		return int32(binary.LittleEndian.Uint32(raw)), nil
	case Currency:
		return float64(int64(binary.LittleEndian.Uint64(raw))) / 10000, nil
	case Date:
		date, err := parseDate(raw)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-interpret-4", "%w: parsing to date at column field: %v failed with error: %v", ErrInvalidValue, column.Name(), err)
		}
		if date.IsZero() {
			return nil, nil
		}
		return date, nil
	case Timestamp, TimestampDBase7:
		t, err := parseDateTime(raw)
		if err != nil {
			return nil, newError("dbase-interpreter-interpret-5", err)
		}
		if t.IsZero() {
			return nil, nil
		}
		return t, nil
	case Logical:
		if len(raw) == 0 {
			return nil, nil
		}
		switch raw[0] {
		case 'T', 't', 'Y', 'y':
			return true, nil
		case 'F', 'f', 'N', 'n':
			return false, nil
		}
		return nil, nil
	case Memo, Binary, Blob, General, Picture:
		memo, isText, err := file.readMemoAt(raw)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-interpret-6", "parsing memo failed at column field: %v failed with error: %w", column.Name(), err)
		}
		if memo == nil {
			return nil, nil
		}
		if isText && column.DataType == Memo {
			str, err := file.toUTF8String(memo)
			if err != nil {
				return nil, newError("dbase-interpreter-interpret-7", err)
			}
			return str, nil
		}
		return memo, nil
	case Varbinary, NullFlags:
		return append([]byte(nil), raw...), nil
	default:
		return append([]byte(nil), raw...), nil
	}
}

// Represent converts a value to the byte representation of the column data type.
// The result has the length of the column, except for Varchar and Varbinary
// where the unpadded value is returned. Memo values are written to the memo file
// and the block address is returned.
func (file *File) Represent(value interface{}, column *Column) ([]byte, error) {
	if value == nil {
		return file.blankRepresentation(column), nil
	}
	length := int(column.Length)
	switch column.DataType {
	case Character:
		bin, err := file.fromUTF8String(toText(value))
		if err != nil {
			return nil, newErrorf("dbase-interpreter-represent-1", "parsing from utf8 string at column field: %v failed with error %w", column.Name(), err)
		}
		if len(bin) > length {
			bin = bin[:length]
		}
		return appendSpaces(bin, length), nil
	case Varchar:
		bin, err := file.fromUTF8String(toText(value))
		if err != nil {
			return nil, newErrorf("dbase-interpreter-represent-2", "parsing from utf8 string at column field: %v failed with error %w", column.Name(), err)
		}
		if len(bin) > length {
			bin = bin[:length]
		}
		return bin, nil
	case Varbinary:
		bin, err := toBytes(value)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-represent-3", "%w at column field: %v", err, column.Name())
		}
		if len(bin) > length {
			return nil, newErrorf("dbase-interpreter-represent-4", "%w: %d bytes exceed %d bytes at column field: %v", ErrInvalidValue, len(bin), length, column.Name())
		}
		return bin, nil
	case Numeric, Float:
		bin, err := numericRepresentation(value, column)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-represent-5", "%w at column field: %v", err, column.Name())
		}
		if len(bin) > length {
			return nil, newErrorf("dbase-interpreter-represent-6", "%w: %s does not fit into %d bytes at column field: %v", ErrInvalidValue, bin, length, column.Name())
		}
		return prependSpaces(bin, length), nil
	case Double:
		f, err := toFloat64(value)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-represent-7", "%w at column field: %v", err, column.Name())
		}
		raw := make([]byte, 8)
		binary.LittleEndian.PutUint64(raw, math.Float64bits(f))
		return raw, nil
	case Long, Autoincrement:
		i, err := toInt64(value)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-represent-8", "%w at column field: %v", err, column.Name())
		}
		if i > math.MaxInt32 || i < math.MinInt32 {
			return nil, newErrorf("dbase-interpreter-represent-9", "%w: %d overflows int32 at column field: %v", ErrInvalidValue, i, column.Name())
		}
		raw := make([]byte, 4)
		binary.LittleEndian.PutUint32(raw, uint32(int32(i)))
		return raw, nil
	case Currency:
		f, err := toFloat64(value)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-represent-10", "%w at column field: %v", err, column.Name())
		}
		raw := make([]byte, 8)
		binary.LittleEndian.PutUint64(raw, uint64(int64(math.Round(f*10000))))
		return raw, nil
	case Date:
		t, err := toTime(value)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-represent-11", "%w at column field: %v", err, column.Name())
		}
		return []byte(t.Format("20060102")), nil
	case Timestamp, TimestampDBase7:
		t, err := toTime(value)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-represent-12", "%w at column field: %v", err, column.Name())
		}
		return dateTimeBytes(t), nil
	case Logical:
		l, err := toBool(value)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-represent-13", "%w at column field: %v", err, column.Name())
		}
		if l {
			return []byte("T"), nil
		}
		return []byte("F"), nil
	case Memo, Binary, Blob, General, Picture:
		return file.memoRepresentation(value, column)
	default:
		bin, err := toBytes(value)
		if err != nil {
			return nil, newErrorf("dbase-interpreter-represent-14", "%w at column field: %v", err, column.Name())
		}
		raw := make([]byte, length)
		copy(raw, bin)
		return raw, nil
	}
}

// blankRepresentation returns the representation of a missing value
func (file *File) blankRepresentation(column *Column) []byte {
	switch column.DataType {
	case Character, Numeric, Float, Date:
		return bytes.Repeat([]byte(" "), int(column.Length))
	case Logical:
		return []byte("?")
	case Varchar, Varbinary:
		return []byte{}
	default:
		return make([]byte, column.Length)
	}
}

// numericRepresentation formats N and F values, integral values are written without decimals
func numericRepresentation(value interface{}, column *Column) ([]byte, error) {
	if i, err := toInt64(value); err == nil {
		if column.Decimals == 0 {
			return []byte(strconv.FormatInt(i, 10)), nil
		}
		return fitDecimals(float64(i), column), nil
	}
	f, err := toFloat64(value)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, ErrInvalidValue
	}
	return fitDecimals(f, column), nil
}

// fitDecimals formats the number with the decimals of the column,
// dropping decimals while the number is wider than the column
func fitDecimals(f float64, column *Column) []byte {
	decimals := int(column.Decimals)
	bin := []byte(strconv.FormatFloat(f, 'f', decimals, 64))
	for len(bin) > int(column.Length) && decimals > 0 {
		decimals--
		bin = []byte(strconv.FormatFloat(f, 'f', decimals, 64))
	}
	return bin
}

// memoRepresentation writes the value to the memo file and returns the block address
func (file *File) memoRepresentation(value interface{}, column *Column) ([]byte, error) {
	var (
		data []byte
		text bool
	)
	switch v := value.(type) {
	case []byte:
		data = v
	default:
		bin, err := file.fromUTF8String(toText(v))
		if err != nil {
			return nil, newErrorf("dbase-interpreter-memorepresentation-1", "parsing from utf8 string at column field: %v failed with error %w", column.Name(), err)
		}
		data = bin
		text = true
	}
	if column.DataType == Memo {
		text = true
	}
	address, err := file.writeMemo(data, text)
	if err != nil {
		return nil, newErrorf("dbase-interpreter-memorepresentation-2", "writing to memo file at column field: %v failed with error: %w", column.Name(), err)
	}
	return address, nil
}

// toUTF8String converts a byte slice to a UTF8 string using the converter
func (file *File) toUTF8String(raw []byte) (string, error) {
	utf8, err := file.config.Converter.Decode(raw)
	if err != nil {
		return string(raw), newError("dbase-interpreter-toutf8string-1", err)
	}
	return string(utf8), nil
}

// fromUTF8String converts a UTF8 string to the encoding of the converter
func (file *File) fromUTF8String(s string) ([]byte, error) {
	raw, err := file.config.Converter.Encode([]byte(s))
	if err != nil {
		return nil, newError("dbase-interpreter-fromutf8string-1", err)
	}
	return raw, nil
}
