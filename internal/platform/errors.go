package platform

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by an Adapter or by the facade wraps
// exactly one of these; match with errors.Is.
var (
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrUnsupportedPlatform    = errors.New("unsupported platform")
	ErrAlreadyEnabled         = errors.New("autostart already enabled")
	ErrNotEnabled             = errors.New("autostart not enabled")
	ErrNativeInvocationFailed = errors.New("native invocation failed")
	ErrUnexpectedOutput       = errors.New("unexpected native output")
)

// Error describes a failed autostart operation.
type Error struct {
	Op     string // "enable", "disable", "query" or "resolve"
	Key    string
	Kind   error
	Detail string // native diagnostic text, if any
	Err    error  // underlying cause, if any
}

func (e *Error) Error() string {
	msg := "autostart: " + e.Op
	if e.Key != "" {
		msg += " " + e.Key
	}
	msg += ": " + e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func newError(op, key string, kind error, detail string, cause error) *Error {
	return &Error{Op: op, Key: key, Kind: kind, Detail: detail, Err: cause}
}

// InvalidArgument returns an ErrInvalidArgument failure for op.
func InvalidArgument(op, format string, args ...interface{}) *Error {
	return newError(op, "", ErrInvalidArgument, fmt.Sprintf(format, args...), nil)
}

// Unsupported returns an ErrUnsupportedPlatform failure for op.
func Unsupported(op, key, goos string) *Error {
	return newError(op, key, ErrUnsupportedPlatform, goos, nil)
}

// StateConflict returns ErrAlreadyEnabled or ErrNotEnabled for op.
func StateConflict(op, key string, kind error) *Error {
	return newError(op, key, kind, "", nil)
}
