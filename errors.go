package fixdb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrOpen          = errors.New("cannot open store")
	ErrIO            = errors.New("i/o failure")
	ErrCorruptRecord = errors.New("corrupt record")
	ErrOutOfRange    = errors.New("row out of range")
	ErrUnknownField  = errors.New("unknown field")

	ErrInvalidSchema = errors.New("invalid schema")
	ErrFieldType     = errors.New("value does not match field type")
	ErrNotIndexed    = errors.New("field is not indexed")
	ErrLocked        = errors.New("store is locked by another process")
	ErrClosed        = errors.New("store is closed")
	ErrStoreFull     = errors.New("store is full")
	ErrMismatch      = errors.New("mirror does not match file")
)

const noRow = -1

// StoreError describes a failed store operation. Kind is one of the Err*
// sentinels; Err is the underlying cause, if any. Both are reachable through
// errors.Is and errors.As.
type StoreError struct {
	Kind  error
	Op    string
	Path  string
	Row   int64 // -1 when not applicable
	Field string
	Off   int64 // -1 when not applicable
	Msg   string
	Err   error
}

func storeErrf(kind error, op, path string, err error, format string, args ...any) *StoreError {
	var msg string
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &StoreError{Kind: kind, Op: op, Path: path, Row: noRow, Off: -1, Msg: msg, Err: err}
}

func (e *StoreError) at(row int64, off int64) *StoreError {
	e.Row, e.Off = row, off
	return e
}

func (e *StoreError) field(name string) *StoreError {
	e.Field = name
	return e
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func (e *StoreError) Error() string {
	var buf strings.Builder
	buf.WriteString("fixdb: ")
	if e.Op != "" {
		buf.WriteString(e.Op)
		buf.WriteByte(' ')
	}
	buf.WriteString(e.Path)
	if e.Row >= 0 {
		buf.WriteString(" row ")
		buf.WriteString(strconv.FormatInt(e.Row, 10))
	}
	if e.Field != "" {
		buf.WriteByte('.')
		buf.WriteString(e.Field)
	}
	if e.Off >= 0 {
		buf.WriteString(" @")
		buf.WriteString(strconv.FormatInt(e.Off, 10))
	}
	buf.WriteString(": ")
	buf.WriteString(e.Kind.Error())
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// DataError reports bytes that cannot be decoded. Off is the position of the
// problem within Data.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// Is makes every DataError match ErrCorruptRecord.
func (e *DataError) Is(target error) bool {
	return target == ErrCorruptRecord
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x", e.Msg, e.Off, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x", e.Msg, e.Off, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x...%x", e.Msg, e.Off, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
		}
	}
}

func schemaErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSchema, fmt.Sprintf(format, args...))
}
