package dbase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Returned when the end of a dBase table file is reached
	ErrEOF = errors.New("EOF")
	// Returned when the row pointer is attempted to be moved before the first row
	ErrBOF = errors.New("BOF")
	// Returned when the read or write of a row or column did not finish
	ErrIncomplete = errors.New("INCOMPLETE")
	// Returned when a file operation is attempted on a non existent file
	ErrNoFPT = errors.New("FPT_FILE_NOT_FOUND")
	ErrNoDBF = errors.New("DBF_FILE_NOT_FOUND")
	// Returned when an invalid column position is used (x<1 or x>number of columns)
	ErrInvalidPosition = errors.New("INVALID_POSITION")
	// Returned when a value can not be represented in or interpreted from a column
	ErrInvalidValue = errors.New("INVALID_VALUE")
	// Returned when the string data could not be converted with the configured charset
	ErrInvalidEncoding = errors.New("INVALID_ENCODING")
	// Returned when the file version is not tested and Untested is not set
	ErrUntested = errors.New("UNTESTED_FILE_VERSION")
	// Returned on write operations on a table opened read only
	ErrReadOnly = errors.New("READ_ONLY")
)

// Error is the error type of this package, it carries the context trace
// of the functions the error passed through.
type Error struct {
	context []string
	err     error
}

func newError(context string, err error) Error {
	var inner Error
	if errors.As(err, &inner) {
		return Error{
			context: append([]string{context}, inner.context...),
			err:     inner.err,
		}
	}
	return Error{
		context: []string{context},
		err:     err,
	}
}

func newErrorf(context string, format string, a ...interface{}) Error {
	return newError(context, fmt.Errorf(format, a...))
}

func (e Error) Error() string {
	return e.err.Error()
}

// Unwrap returns the underlying error so errors.Is works with the package level errors
func (e Error) Unwrap() error {
	return e.err
}

// Context returns the trace of contexts, outermost first
func (e Error) Context() []string {
	return e.context
}

func (e Error) trace() string {
	return fmt.Sprintf("%s:%s", strings.Join(e.context, ":"), e.err.Error())
}

// GetErrorTrace returns the error with the context trace prepended.
// Errors of other packages are returned as they are.
func GetErrorTrace(err error) error {
	var e Error
	if errors.As(err, &e) {
		return errors.New(e.trace())
	}
	return err
}
