// Package endpoint implements a non-blocking, framed JSON-RPC connection
// over one byte stream (spec.md §4.3): an ordered send queue with backlog
// accounting, an incremental receive loop built from a ringbuf.Ring and a
// jsonvalue.Parser, and a sticky status latch that makes the endpoint
// terminally dead on the first transport or protocol error.
package endpoint

// file: internal/endpoint/endpoint.go

import (
	"io"

	"github.com/dkoosis/ctrlrpc/internal/jsonvalue"
	"github.com/dkoosis/ctrlrpc/internal/logging"
	"github.com/dkoosis/ctrlrpc/internal/message"
	"github.com/dkoosis/ctrlrpc/internal/ringbuf"
	"github.com/dkoosis/ctrlrpc/internal/rpcerr"
	"github.com/dkoosis/ctrlrpc/internal/transport"
	"github.com/google/uuid"
)

// ErrWouldBlock is returned by Recv when no complete Message is available
// and the endpoint is still healthy.
var ErrWouldBlock = rpcerr.TransportError(rpcerr.StatusEAGAIN, nil)

// Stats is a point-in-time snapshot of endpoint activity, an addition
// beyond spec.md's named operations (SPEC_FULL.md EXPANSION-C.1) useful
// for logging and metrics wiring without reaching into endpoint internals.
type Stats struct {
	ID            string
	Name          string
	Status        rpcerr.Status
	Backlog       int
	MessagesSent  uint64
	MessagesRecvd uint64
}

// Endpoint holds exclusive ownership of one transport.Stream and frames
// JSON-RPC 1.0 messages over it (spec.md §3 "Endpoint").
type Endpoint struct {
	id     string
	name   string
	stream transport.Stream
	logger logging.Logger

	status rpcerr.Status // sticky; 0 == healthy.

	ring   *ringbuf.Ring
	parser *jsonvalue.Parser

	pending   message.Message
	hasPendig bool

	sendQueue [][]byte
	backlog   int

	sent, recvd uint64
}

// Open takes ownership of stream, snapshotting its name, and returns a
// healthy Endpoint (spec.md §4.3 open). ringCapacity must be positive;
// callers typically pass ringbuf.DefaultCapacity.
func Open(stream transport.Stream, ringCapacity int, logger logging.Logger) *Endpoint {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	id := uuid.NewString()
	return &Endpoint{
		id:     id,
		name:   stream.Name(),
		stream: stream,
		logger: logger.WithField("endpoint", stream.Name()).WithField("endpoint_id", id),
		ring:   ringbuf.New(ringCapacity),
	}
}

// Name returns the stream name snapshotted at Open time, even after the
// endpoint has died.
func (e *Endpoint) Name() string { return e.name }

// ID returns the per-process correlation id minted at Open time, the same
// value attached to this endpoint's logger as "endpoint_id".
func (e *Endpoint) ID() string { return e.id }

// Status returns the sticky status code; 0 means healthy.
func (e *Endpoint) Status() rpcerr.Status { return e.status }

// Backlog returns the total unsent bytes queued for transmission; 0 when
// dead (spec.md §3 invariant).
func (e *Endpoint) Backlog() int { return e.backlog }

// Stats returns a snapshot of this endpoint's counters (EXPANSION-C.1).
func (e *Endpoint) Stats() Stats {
	return Stats{
		ID:            e.id,
		Name:          e.name,
		Status:        e.status,
		Backlog:       e.backlog,
		MessagesSent:  e.sent,
		MessagesRecvd: e.recvd,
	}
}

func (e *Endpoint) dead() bool { return e.status != rpcerr.StatusOK }

// teardown releases all owned resources and latches status to code,
// keeping the first error (spec.md §3, §7 "first error wins").
func (e *Endpoint) teardown(code rpcerr.Status) {
	if e.dead() {
		return
	}
	e.status = code
	if e.stream != nil {
		_ = e.stream.Close()
	}
	e.stream = nil
	e.parser = nil
	e.hasPendig = false
	e.pending = message.Message{}
	e.sendQueue = nil
	e.backlog = 0
}

// Fail externally latches status to code and tears the endpoint down
// (spec.md §4.3 fail).
func (e *Endpoint) Fail(code rpcerr.Status) {
	e.teardown(code)
}

// Close releases all owned resources (spec.md §4.3 close).
func (e *Endpoint) Close() {
	e.teardown(rpcerr.StatusEOF)
}

// Send serializes msg, appends it to the send queue, and — if it is the
// only queued buffer — opportunistically calls Run once to push bytes
// immediately. Send always consumes msg: on a dead endpoint the
// serialized form is simply discarded (spec.md §4.3 send, §9 ownership
// note). Returns the endpoint's status after the attempt.
func (e *Endpoint) Send(msg message.Message) rpcerr.Status {
	if e.dead() {
		return e.status
	}
	if err := message.Validate(msg); err != nil {
		// Validation errors never affect endpoint state (spec.md §7);
		// the message is simply dropped.
		e.logger.Warn("dropping invalid outbound message", "error", err.Error())
		return e.status
	}

	wire := []byte(message.ToJSON(msg).String())
	wasEmpty := len(e.sendQueue) == 0
	e.sendQueue = append(e.sendQueue, wire)
	e.backlog += len(wire)
	e.sent++

	if wasEmpty {
		e.Run()
	}
	return e.status
}

// Run drains the send queue against the transport (spec.md §4.3 run).
func (e *Endpoint) Run() {
	if e.dead() {
		return
	}
	e.stream.Run()

	for len(e.sendQueue) > 0 {
		buf := e.sendQueue[0]
		n, err := e.stream.Send(buf)
		if n > 0 {
			e.backlog -= n
			if n == len(buf) {
				e.sendQueue = e.sendQueue[1:]
			} else {
				e.sendQueue[0] = buf[n:]
				return
			}
			continue
		}
		if err == transport.ErrWouldBlock {
			return
		}
		if err != nil {
			e.teardown(rpcerr.StatusTransport)
			return
		}
		// n == 0, err == nil: nothing accepted right now, try again later.
		return
	}
}

// Wait registers interest with the poll loop for the next actionable
// event (spec.md §4.3 wait): it always registers read-readiness on the
// stream and, if the send queue is non-empty, also write-readiness. It does
// not call the stream's Run. It is a no-op on a dead endpoint.
func (e *Endpoint) Wait() {
	if e.dead() {
		return
	}
	e.stream.WantRead()
	if len(e.sendQueue) > 0 {
		e.stream.WantWrite()
	}
}

// RecvWait registers read-readiness on the stream (spec.md §4.3
// recv_wait). If a Message is already buffered, status is set, or bytes are
// pending in the ring, it registers nothing and returns; the endpoint holds
// no poll loop, so it does not request an immediate wakeup in those cases.
func (e *Endpoint) RecvWait() {
	if e.dead() || e.hasPendig || !e.ring.IsEmpty() {
		return
	}
	e.stream.WantRead()
}

const recvBufSize = 512

// Recv attempts to deliver the next fully parsed Message (spec.md §4.3
// recv). It returns (Message, nil) on success, (zero, ErrWouldBlock) when
// no complete Message is available yet, or (zero, err) describing the
// latched status on terminal failure.
func (e *Endpoint) Recv() (message.Message, error) {
	for {
		if e.hasPendig {
			m := e.pending
			e.pending = message.Message{}
			e.hasPendig = false
			e.recvd++
			return m, nil
		}
		if e.dead() {
			return message.Message{}, e.terminalErr()
		}

		if e.ring.IsEmpty() {
			if err := e.fillRing(); err != nil {
				if err == transport.ErrWouldBlock {
					return message.Message{}, ErrWouldBlock
				}
				return message.Message{}, e.terminalErr()
			}
			continue
		}

		if e.parser == nil {
			e.parser = jsonvalue.New()
		}
		span := e.ring.TailReadableSpan()
		n, err := e.parser.Feed(span)
		e.ring.AdvanceTail(n)
		if err != nil {
			e.teardown(rpcerr.StatusProtoErr)
			return message.Message{}, e.terminalErr()
		}
		if !e.parser.Done() {
			if n == 0 {
				// Parser made no progress on a non-empty span: treat as
				// would-block until more bytes arrive.
				return message.Message{}, ErrWouldBlock
			}
			continue
		}

		val := e.parser.Finish()
		e.parser = nil

		if err := e.deliver(val); err != nil {
			return message.Message{}, e.terminalErr()
		}
		// Loop back: either hasPendig is now true, or the value was
		// discarded as an error and the endpoint already latched.
	}
}

// deliver implements spec.md §4.3.1: a finalized String value reports a
// parser-side error; otherwise the value is decoded via from_json.
func (e *Endpoint) deliver(val jsonvalue.Value) error {
	if val.Kind() == jsonvalue.KindString {
		e.teardown(rpcerr.StatusProtoErr)
		return statusAsError(e.status)
	}
	m, err := message.FromJSON(val)
	if err != nil {
		e.teardown(rpcerr.StatusProtoErr)
		return statusAsError(e.status)
	}
	e.pending = m
	e.hasPendig = true
	return nil
}

// fillRing reads into the ring's head free space, per spec.md §4.3's
// receive algorithm.
func (e *Endpoint) fillRing() error {
	free := e.ring.HeadFreeSpace()
	if free == nil {
		// Ring is full but the parser hasn't consumed: treat as
		// would-block rather than an error; a healthy parser always
		// consumes something from a non-empty span.
		return transport.ErrWouldBlock
	}
	n, err := e.stream.Recv(free)
	if n > 0 {
		e.ring.AdvanceHead(n)
	}
	if err == io.EOF {
		e.teardown(rpcerr.StatusEOF)
		return err
	}
	if err == transport.ErrWouldBlock {
		return err
	}
	if err != nil {
		e.teardown(rpcerr.StatusTransport)
		return err
	}
	return nil
}

func (e *Endpoint) terminalErr() error {
	return statusAsError(e.status)
}

// statusAsError adapts a latched rpcerr.Status into an error value callers
// can inspect with errors.Is against the sentinels in rpcerr.
func statusAsError(s rpcerr.Status) error {
	switch s {
	case rpcerr.StatusEOF:
		return rpcerr.TransportError(rpcerr.StatusEOF, io.EOF)
	case rpcerr.StatusProtoErr:
		return rpcerr.ProtocolError("malformed or invalid message")
	case rpcerr.StatusTransport:
		return rpcerr.TransportError(rpcerr.StatusTransport, nil)
	default:
		return rpcerr.TransportError(s, nil)
	}
}
