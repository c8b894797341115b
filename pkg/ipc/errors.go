package ipc

import (
	"errors"
	"fmt"

	"github.com/motorlink/motorlink-go/pkg/wire"
)

// IPC errors.
var (
	// ErrClosed is returned to pending and new calls after Close.
	ErrClosed = errors.New("ipc: closed")

	// ErrTargetNotSet is returned when a notification is published before
	// the target channel was registered.
	ErrTargetNotSet = errors.New("ipc: target channel not set")

	// ErrTargetAlreadySet is returned when registering the target twice.
	ErrTargetAlreadySet = errors.New("ipc: target channel already set")
)

// Error codes owned by this package. Device codes start at 100.
const (
	// CodeGeneric marks a plain error normalized to its message.
	CodeGeneric uint16 = 0

	// CodeInternal marks a handler panic or an unencodable result.
	CodeInternal uint16 = 1

	// CodeUnknownMethod is returned for calls with no registered handler.
	CodeUnknownMethod uint16 = 2

	// CodeBadRequest is returned when call arguments cannot be decoded.
	CodeBadRequest uint16 = 3
)

// Error is an error with a code that crosses the process boundary intact.
type Error struct {
	Code    uint16
	Message string
}

// Error implements error.
func (e *Error) Error() string {
	return e.Message
}

// Is matches another *Error with the same non-generic code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code != CodeGeneric && t.Code == e.Code
}

// Errorf builds a coded error.
func Errorf(code uint16, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code carried by err, or CodeGeneric.
func CodeOf(err error) uint16 {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeGeneric
}

// toRemote normalizes err for the wire. Rich error values collapse to
// their message.
func toRemote(err error) *wire.RemoteError {
	if err == nil {
		return nil
	}
	return &wire.RemoteError{Code: CodeOf(err), Message: err.Error()}
}

// fromRemote rebuilds a caller-side error from a wire error.
func fromRemote(re *wire.RemoteError) error {
	return &Error{Code: re.Code, Message: re.Message}
}
