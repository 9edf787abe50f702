package transfer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMetadataPersistence is returned when the field catalog can not be written or read
	ErrMetadataPersistence = errors.New("field catalog persistence failed")
	// ErrIO is returned when a DBF file or folder can not be opened, read or written
	ErrIO = errors.New("dbf io failed")
	// ErrDataConversion is returned when a value can not be converted between a DBF field and a column
	ErrDataConversion = errors.New("data conversion failed")
)

// RecordError is the failure of a single record during a dump.
// Row is the snapshot of the values as read from the store.
type RecordError struct {
	Path string
	Row  []interface{}
	Err  error
}

// Error renders the failed record like: Error saving /out/a.dbf record : ['Ann',null, ] <cause>
func (e *RecordError) Error() string {
	var sb strings.Builder
	sb.WriteString("Error saving ")
	sb.WriteString(e.Path)
	sb.WriteString(" record : [")
	for _, v := range e.Row {
		if v == nil {
			sb.WriteString("null")
		} else {
			fmt.Fprintf(&sb, "'%v'", snapshotValue(v))
		}
		sb.WriteString(",")
	}
	sb.WriteString(" ]")
	if e.Err != nil {
		sb.WriteString(" ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *RecordError) Unwrap() []error {
	return []error{ErrDataConversion, e.Err}
}

func snapshotValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return fmt.Sprintf("%d bytes", len(b))
	}
	return v
}

// RecordPolicy decides how a dump continues after a failed record.
// Returning nil skips the record, returning an error aborts the table with it.
type RecordPolicy func(err *RecordError) error

// AbortOnRecordError aborts the table on the first failed record
func AbortOnRecordError(err *RecordError) error {
	return err
}

// SkipRecordErrors skips every failed record
func SkipRecordErrors(*RecordError) error {
	return nil
}
