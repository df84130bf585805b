// internal/api/errors.go
//
// Error taxonomy for gateway calls. Every failure is an *Error whose kind
// is one of the sentinels below, so callers branch with errors.Is and still
// read the original HTTP status and server message.

package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrAuth       = errors.New("unauthenticated")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrServer     = errors.New("server error")
)

var (
	errNotObject = errors.New("payload is not an object")
	errNotArray  = errors.New("payload is not an array")
)

// Error is returned by every Client method.
type Error struct {
	Op      string // e.g. "list posts"
	Status  int    // HTTP status; 0 for local or transport failures
	Message string // server message, or a local description
	Kind    error  // one of the Err* sentinels
	Cause   error  // transport or decode failure, if any
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// kindForStatus maps an HTTP status onto the taxonomy.
func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrAuth
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 400 && status < 500:
		return ErrValidation
	default:
		return ErrServer
	}
}

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Message returns the server (or local) message carried by err, falling
// back to err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func validationError(op, msg string) *Error {
	return &Error{Op: op, Message: msg, Kind: ErrValidation}
}
