// file: internal/transport/memory.go
package transport

import (
	"bytes"
	"io"
)

// direction is one half of a duplex in-memory pipe: bytes written by one
// PipeStream and read by its peer.
type direction struct {
	buf    bytes.Buffer
	closed bool
}

// PipeStream is a non-blocking, in-memory Stream implementation used for
// tests and the cmd/ctrlrpcd demo, adapted from the teacher's
// InMemoryTransport pairing (internal/transport/in_memory_transport.go in
// the reference tree) but reshaped around immediate, non-blocking
// Send/Recv instead of goroutines blocking on channels.
type PipeStream struct {
	name      string
	out       *direction
	in        *direction
	maxWrite  int // caps bytes accepted per Send call; 0 means unlimited.
	connected bool
}

// NewPipe creates a connected pair of PipeStreams named nameA and nameB,
// each able to Send to and Recv from the other.
func NewPipe(nameA, nameB string) (a, b *PipeStream) {
	c2s := &direction{}
	s2c := &direction{}
	a = &PipeStream{name: nameA, out: c2s, in: s2c, connected: true}
	b = &PipeStream{name: nameB, out: s2c, in: c2s, connected: true}
	return a, b
}

// SetMaxWrite limits how many bytes a single Send call accepts, to
// exercise Endpoint's partial-write handling (spec.md §4.3, run()).
func (p *PipeStream) SetMaxWrite(n int) {
	p.maxWrite = n
}

// Name implements Stream.
func (p *PipeStream) Name() string { return p.name }

// Run implements Stream. Writes in this in-memory transport are applied
// synchronously by Send, so Run has nothing further to drive.
func (p *PipeStream) Run() {}

// Connect implements Stream. An in-memory pipe is connected at creation.
func (p *PipeStream) Connect() error {
	if !p.connected {
		return ErrClosed
	}
	return nil
}

// Send implements Stream.
func (p *PipeStream) Send(data []byte) (int, error) {
	if p.out.closed {
		return 0, ErrClosed
	}
	if len(data) == 0 {
		return 0, nil
	}
	n := len(data)
	if p.maxWrite > 0 && n > p.maxWrite {
		n = p.maxWrite
	}
	return p.out.buf.Write(data[:n])
}

// Recv implements Stream.
func (p *PipeStream) Recv(buf []byte) (int, error) {
	if p.in.buf.Len() == 0 {
		if p.in.closed {
			return 0, io.EOF
		}
		return 0, ErrWouldBlock
	}
	return p.in.buf.Read(buf)
}

// Close implements Stream. Closing a side marks its outbound direction
// closed so the peer observes EOF once it has drained any bytes already in
// flight.
func (p *PipeStream) Close() error {
	p.out.closed = true
	return nil
}

// WantRead implements Stream as a no-op: this in-memory transport has no
// external poll loop to register interest with.
func (p *PipeStream) WantRead() {}

// WantWrite implements Stream as a no-op, for the same reason as WantRead.
func (p *PipeStream) WantWrite() {}
