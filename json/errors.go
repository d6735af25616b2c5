package json

import (
	"errors"
	"fmt"
)

// SyntaxError describes malformed input.
type SyntaxError struct {
	Offset int64 // units consumed when the error was detected
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("json: syntax error at offset %d: %s", e.Offset, e.Msg)
}

// DepthError reports nesting beyond the configured limit.
type DepthError struct {
	Offset int64
	Limit  int
}

func (e *DepthError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("json: nesting exceeds %d levels", e.Limit)
	}
	return fmt.Sprintf("json: nesting exceeds %d levels at offset %d", e.Limit, e.Offset)
}

// TypeError reports a well-formed node the destination cannot hold.
type TypeError struct {
	Offset int64
	Err    error
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("json: cannot decode at offset %d: %v", e.Offset, e.Err)
}

func (e *TypeError) Unwrap() error { return e.Err }

// ErrSinkWrite is returned when the output sink rejects a write. Output
// written before the failure is not retracted.
var ErrSinkWrite = errors.New("json: sink write failed")

// ErrNonFinite is returned when encoding Infinity or NaN without
// WriteOptions.AllowNonFinite.
var ErrNonFinite = errors.New("json: non-finite number")
