package epw

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/epw-weather-service/internal/collection"
)

var (
	// ErrNotFound means the source path does not resolve to a readable file.
	ErrNotFound = errors.New("epw file not found")
	// ErrFormat means the source text does not follow the EPW layout.
	ErrFormat = errors.New("epw format error")
	// ErrValidation means an assignment violated a header or field invariant.
	ErrValidation = errors.New("epw validation error")
	// ErrBounds means an hourly index fell outside [0, 8760).
	ErrBounds = collection.ErrIndexOutOfRange
	// ErrNoDesignConditions means the header carries no design conditions to
	// derive design days from.
	ErrNoDesignConditions = errors.New("epw has no design conditions")
)

// FormatError reports a structural problem at a 1-based line of the source.
type FormatError struct {
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line <= 0 {
		return "epw: " + e.Msg
	}
	return fmt.Sprintf("epw: line %d: %s", e.Line, e.Msg)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func formatErrorf(line int, format string, args ...any) *FormatError {
	return &FormatError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// ValidationError names the group or field whose invariant was violated.
// Err, when set, is the underlying collection error.
type ValidationError struct {
	Group string
	Msg   string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("epw: invalid %s: %s", e.Group, e.Msg)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }
