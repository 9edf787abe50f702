package dbase

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// julianDate converts year, month and day to a julian day number
// julian day number -> days since 01-01-4712 BC
func julianDate(y, m, d int) int {
	return d - 32075 +
		1461*(y+4800+(m-14)/12)/4 +
		367*(m-2-(m-14)/12*12)/12 -
		3*((y+4900+(m-14)/12)/100)/4
}

// julianToDate converts a julian day number to year, month and day
func julianToDate(date int) (int, int, int) {
	l := date + 68569
	n := 4 * l / 146097
	l = l - (146097*n+3)/4
	y := 4000 * (l + 1) / 1461001
	l = l - 1461*y/4 + 31
	m := 80 * l / 2447
	d := l - 2447*m/80
	l = m / 11
	m = m + 2 - 12*l
	y = 100*(n-49) + y + l
	return y, m, d
}

// parseDate parses a D value stored as YYYYMMDD, blank dates return the zero time
func parseDate(raw []byte) (time.Time, error) {
	s := strings.TrimSpace(string(bytes.Trim(raw, "\x00")))
	if len(s) == 0 || s == "00000000" {
		return time.Time{}, nil
	}
	return time.Parse("20060102", s)
}

// parseDateTime parses a T value consisting of 4 bytes julian day and 4 bytes milliseconds since midnight
func parseDateTime(raw []byte) (time.Time, error) {
	if len(raw) != 8 {
		return time.Time{}, newErrorf("dbase-conversion-parsedatetime-1", "%w: datetime needs 8 bytes, got %d", ErrIncomplete, len(raw))
	}
	julian := int(binary.LittleEndian.Uint32(raw[:4]))
	millis := int(binary.LittleEndian.Uint32(raw[4:]))
	if julian == 0 && millis == 0 {
		return time.Time{}, nil
	}
	y, m, d := julianToDate(julian)
	if y < 0 || y > 9999 {
		return time.Time{}, nil
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).Add(time.Duration(millis) * time.Millisecond), nil
}

// dateTimeBytes is the inverse of parseDateTime
func dateTimeBytes(t time.Time) []byte {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint32(raw[:4], uint32(julianDate(t.Year(), int(t.Month()), t.Day())))
	millis := t.Hour()*3600000 + t.Minute()*60000 + t.Second()*1000 + t.Nanosecond()/int(time.Millisecond)
	binary.LittleEndian.PutUint32(raw[4:], uint32(millis))
	return raw
}

// parseNumericInt parses a string as byte array to int64
func parseNumericInt(raw []byte) (int64, error) {
	trimmed := strings.TrimSpace(string(bytes.Trim(raw, "\x00")))
	if len(trimmed) == 0 {
		return 0, nil
	}
	return strconv.ParseInt(trimmed, 10, 64)
}

// parseFloat parses a string as byte array to float64
func parseFloat(raw []byte) (float64, error) {
	trimmed := strings.TrimSpace(string(bytes.Trim(raw, "\x00")))
	if len(trimmed) == 0 {
		return 0, nil
	}
	return strconv.ParseFloat(trimmed, 64)
}

// blank reports whether raw consists of spaces and null bytes only
func blank(raw []byte) bool {
	return len(bytes.Trim(raw, " \x00")) == 0
}

// prependSpaces right aligns raw in a slice of the given length
func prependSpaces(raw []byte, length int) []byte {
	if len(raw) >= length {
		return raw
	}
	return append(bytes.Repeat([]byte(" "), length-len(raw)), raw...)
}

// appendSpaces left aligns raw in a slice of the given length
func appendSpaces(raw []byte, length int) []byte {
	if len(raw) >= length {
		return raw
	}
	return append(raw, bytes.Repeat([]byte(" "), length-len(raw))...)
}

/**
 *	################################################################
 *	#		casting helper functions for field values
 *	################################################################
 */

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
}

// toTime converts time.Time and textual timestamps to time.Time
func toTime(in interface{}) (time.Time, error) {
	switch v := in.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case []byte:
		return toTime(string(v))
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: can not parse %q as time", ErrInvalidValue, v)
	}
	return time.Time{}, fmt.Errorf("%w: invalid data type %T, expected time.Time", ErrInvalidValue, in)
}

// toInt64 converts integer, integral float, bool and textual values to int64
func toInt64(in interface{}) (int64, error) {
	switch v := in.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrInvalidValue, v)
		}
		return int64(v), nil
	case float32:
		return toInt64(float64(v))
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidValue, v)
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return toInt64(string(v))
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: can not parse %q as integer", ErrInvalidValue, v)
		}
		return toInt64(f)
	}
	return 0, fmt.Errorf("%w: invalid data type %T, expected integer", ErrInvalidValue, in)
}

// toFloat64 converts numeric and textual values to float64
func toFloat64(in interface{}) (float64, error) {
	switch v := in.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case []byte:
		return toFloat64(string(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: can not parse %q as number", ErrInvalidValue, v)
		}
		return f, nil
	}
	i, err := toInt64(in)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid data type %T, expected number", ErrInvalidValue, in)
	}
	return float64(i), nil
}

// toBool converts bool, numeric and textual values to bool
func toBool(in interface{}) (bool, error) {
	switch v := in.(type) {
	case bool:
		return v, nil
	case []byte:
		return toBool(string(v))
	case string:
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "T", "TRUE", "Y", "YES", "1":
			return true, nil
		case "F", "FALSE", "N", "NO", "0":
			return false, nil
		}
		return false, fmt.Errorf("%w: can not parse %q as logical", ErrInvalidValue, v)
	}
	i, err := toInt64(in)
	if err != nil {
		return false, fmt.Errorf("%w: invalid data type %T, expected bool", ErrInvalidValue, in)
	}
	return i != 0, nil
}

// toBytes converts []byte and string values to []byte
func toBytes(in interface{}) ([]byte, error) {
	switch v := in.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("%w: invalid data type %T, expected []byte", ErrInvalidValue, in)
}

// toText converts any value to its textual form, used for character columns
func toText(in interface{}) string {
	switch v := in.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return fmt.Sprint(in)
}
