// Package transport defines the byte-stream transport contract consumed by
// Endpoint and Session (spec.md §6, "Transport (consumed)"). The transport
// itself — its open/read/write/close mechanics and readiness reporting — is
// an external collaborator; this package only defines the narrow interface
// and the sentinel errors used to report non-blocking conditions.
package transport

// file: internal/transport/transport.go

import "errors"

// ErrWouldBlock stands in for POSIX EAGAIN: the operation made no progress
// and the caller should park on the poll loop.
var ErrWouldBlock = errors.New("transport: would block")

// ErrClosed is returned by operations attempted on a stream that has
// already been closed.
var ErrClosed = errors.New("transport: closed")

// Stream is the narrow, non-blocking byte-stream capability Endpoint and
// Session depend on. Implementations must never block: Connect, Send, and
// Recv report ErrWouldBlock instead of waiting.
type Stream interface {
	// Name returns a stable, human-readable identifier for the stream,
	// snapshotted by Endpoint at open time (spec.md §3).
	Name() string

	// Run drives any non-blocking progress the stream needs outside of an
	// explicit Send/Recv/Connect call (e.g. flushing an internal buffer).
	Run()

	// Connect advances connection establishment. It returns nil once
	// connected, ErrWouldBlock while still in progress, or a terminal
	// error on failure.
	Connect() error

	// Send writes as many bytes of p as the transport will currently
	// accept, returning the count written. It returns (0, ErrWouldBlock)
	// when nothing could be written right now, never blocking.
	Send(p []byte) (int, error)

	// Recv reads into buf, returning the number of bytes read. It returns
	// (0, ErrWouldBlock) when no data is currently available, (0, io.EOF)
	// at end of stream, and (0, err) on any other error.
	Recv(buf []byte) (int, error)

	// Close releases the stream's resources. Idempotent.
	Close() error

	// WantRead registers interest in read-readiness with the stream's poll
	// loop; WantWrite does the same for write-readiness.
	// Implementations that have no external poll loop to register with
	// may treat these as no-ops.
	WantRead()
	WantWrite()
}
