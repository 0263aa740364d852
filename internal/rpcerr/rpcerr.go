// Package rpcerr defines the error kinds surfaced by the endpoint and
// session layers: transport errors, protocol errors, not-connected errors,
// and validation errors.
package rpcerr

// file: internal/rpcerr/rpcerr.go

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Category groups errors by the layer that raised them.
type Category string

// Recognized error categories.
const (
	CategoryTransport  Category = "transport"
	CategoryProtocol   Category = "protocol"
	CategorySession    Category = "session"
	CategoryValidation Category = "validation"
)

// Status is a sticky, nonzero endpoint status code. Zero means healthy.
type Status int

// Status codes latched onto a dead Endpoint. These loosely mirror POSIX
// error numbers named in the transport contract (spec.md §6).
const (
	StatusOK        Status = 0
	StatusEAGAIN    Status = -11 // not terminal; never latched, used only as a sentinel check.
	StatusEOF       Status = -100
	StatusProtoErr  Status = -101
	StatusNotConn   Status = -102
	StatusTransport Status = -103
)

// String renders a Status for logging.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEOF:
		return "eof"
	case StatusProtoErr:
		return "proto_error"
	case StatusNotConn:
		return "not_connected"
	case StatusTransport:
		return "transport_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Error is the structured error type returned by this module's layers. It
// carries a Category, a sticky Status code (0 when not applicable, e.g. for
// validation errors), and a human-readable reason.
type Error struct {
	Category Category
	Status   Status
	Reason   string
	cause    error
}

// Error implements the standard error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Reason)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is implements error comparison by Category and Status, matching the
// teacher's transport.Error.Is convention.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Status == t.Status
}

// TransportError wraps an error or status code surfaced by the byte-stream
// transport, including EOF and EAGAIN per spec.md §7.
func TransportError(status Status, cause error) *Error {
	return &Error{Category: CategoryTransport, Status: status, Reason: "transport error", cause: errors.WithStack(cause)}
}

// ProtocolError reports malformed JSON or an invalid message structure
// (EPROTO). The endpoint that raises it latches StatusProtoErr.
func ProtocolError(reason string) *Error {
	return &Error{Category: CategoryProtocol, Status: StatusProtoErr, Reason: reason}
}

// NotConnectedError reports a Session operation attempted with no live
// Endpoint (ENOTCONN).
func NotConnectedError() *Error {
	return &Error{Category: CategorySession, Status: StatusNotConn, Reason: "not connected"}
}

// Invalid reports a construction or validation failure. It is returned to
// the caller and never affects endpoint state, and it is never sent on the
// wire (spec.md §7).
func Invalid(reason string) *Error {
	return &Error{Category: CategoryValidation, Status: StatusOK, Reason: reason}
}

// IsNotConnected reports whether err is (or wraps) a NotConnectedError.
func IsNotConnected(err error) bool {
	return errors.Is(err, NotConnectedError())
}

// IsInvalid reports whether err is (or wraps) a validation error.
func IsInvalid(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == CategoryValidation
}
