// Package session implements the reconnecting wrapper around at most one
// endpoint.Endpoint (spec.md §4.5): it owns a reconnect.Controller, drives
// the Idle/Connecting/Connected lifecycle, and transparently handles the
// application-level "echo" keepalive on both the send and receive paths.
package session

// file: internal/session/session.go

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/ctrlrpc/internal/endpoint"
	"github.com/dkoosis/ctrlrpc/internal/fsm"
	"github.com/dkoosis/ctrlrpc/internal/jsonvalue"
	"github.com/dkoosis/ctrlrpc/internal/logging"
	"github.com/dkoosis/ctrlrpc/internal/message"
	"github.com/dkoosis/ctrlrpc/internal/paramschema"
	"github.com/dkoosis/ctrlrpc/internal/reconnect"
	"github.com/dkoosis/ctrlrpc/internal/rpcerr"
	"github.com/dkoosis/ctrlrpc/internal/transport"
)

// DefaultEchoMethod is the literal keepalive method name, per spec.md §6
// "Wire format".
const DefaultEchoMethod = "echo"

// EchoID is the literal id every probe request carries and every
// suppressed reply must match, per spec.md §4.5.1.
const EchoID = "echo"

// Lifecycle states, per spec.md §4.5's state diagram.
const (
	StateIdle       fsm.State = "idle"
	StateConnecting fsm.State = "connecting"
	StateConnected  fsm.State = "connected"
)

const (
	eventConnectStart  fsm.Event = "connect_start"
	eventEstablished   fsm.Event = "established"
	eventConnectFailed fsm.Event = "connect_failed"
	eventDisconnect    fsm.Event = "disconnect"
)

// StreamFactory opens a new transport.Stream for the named peer, the
// external transport factory spec.md §4.5's CONNECT decision drives
// (spec.md §6 names this collaborator but leaves its shape to the
// implementer; it mirrors transport.Stream's own open(name) contract).
type StreamFactory func(name string) (transport.Stream, error)

func lifecycleTransitions() []fsm.Transition {
	return []fsm.Transition{
		{From: []fsm.State{StateIdle}, To: StateConnecting, Event: eventConnectStart},
		{From: []fsm.State{StateConnecting}, To: StateConnected, Event: eventEstablished},
		{From: []fsm.State{StateConnecting}, To: StateIdle, Event: eventConnectFailed},
		{From: []fsm.State{StateConnected}, To: StateIdle, Event: eventDisconnect},
	}
}

// Session owns at most one Endpoint-or-Stream and drives controller to
// keep it alive (spec.md §3 "Session").
type Session struct {
	controller   reconnect.Controller
	factory      StreamFactory
	ringCapacity int
	echoMethod   string
	paramSchema  *paramschema.Validator
	logger       logging.Logger

	machine fsm.FSM
	seqno   uint64

	stream transport.Stream
	ep     *endpoint.Endpoint

	pending    message.Message
	hasPending bool

	lastErr error
}

// Open creates a Session with no endpoint or stream yet, in state Idle.
// It enables controller, which per spec.md §4.5 is constructed
// disabled-then-enabled by its owner; Open performs the "then enabled"
// half so the very first Run tick observes an armed controller.
func Open(controller reconnect.Controller, factory StreamFactory, ringCapacity int, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	controller.Enable(true)
	return &Session{
		controller:   controller,
		factory:      factory,
		ringCapacity: ringCapacity,
		echoMethod:   DefaultEchoMethod,
		logger:       logger.WithField("session", controller.Name()),
		machine:      fsm.New(StateIdle, lifecycleTransitions(), logger),
	}
}

// OpenAttached wraps an already-connected Endpoint, telling controller it
// is connected and to never attempt further reconnects, used for
// server-accepted inbound sessions (spec.md §4.5 open_attached).
func OpenAttached(ep *endpoint.Endpoint, controller reconnect.Controller, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	controller.SetMaxTries(0)
	controller.Enable(true)
	controller.Connected()
	return &Session{
		controller: controller,
		echoMethod: DefaultEchoMethod,
		logger:     logger.WithField("session", controller.Name()),
		machine:    fsm.New(StateConnected, lifecycleTransitions(), logger),
		ep:         ep,
	}
}

// SetEchoMethod overrides the keepalive method name (EXPANSION-A); callers
// typically leave this at DefaultEchoMethod.
func (s *Session) SetEchoMethod(method string) {
	s.echoMethod = method
}

// SetParamSchema installs an optional JSON-schema validator that
// Recv consults for every inbound Request before handing it to the
// caller, as a defense-in-depth layer on top of message.Validate's
// mandatory structural checks (SPEC_FULL.md EXPANSION-A). Passing nil
// disables schema checking; the zero value's behavior is unchanged.
func (s *Session) SetParamSchema(v *paramschema.Validator) {
	s.paramSchema = v
}

// Name returns the controller's stable name, unchanged across reconnects.
func (s *Session) Name() string {
	return s.controller.Name()
}

// SeqNo returns the monotone change counter; consumers detect reconnects
// by observing it increase.
func (s *Session) SeqNo() uint64 {
	return s.seqno
}

// IsConnected reports whether a live Endpoint currently exists.
func (s *Session) IsConnected() bool {
	return s.ep != nil
}

// IsAlive reports whether the session has an endpoint or stream, or the
// controller still has remaining connection attempts (spec.md §4.5
// is_alive).
func (s *Session) IsAlive() bool {
	return s.ep != nil || s.stream != nil || s.controller.HasRemainingTries()
}

// LastError returns the most recent transport/connect error observed,
// or nil if none has occurred yet (SPEC_FULL.md EXPANSION-C.2). It is
// informational only; the session always recovers via the controller
// rather than surfacing this to Send/Recv callers.
func (s *Session) LastError() error {
	return s.lastErr
}

// Close tears down the endpoint or stream and releases the session.
func (s *Session) Close() {
	if s.ep != nil {
		s.ep.Close()
		s.ep = nil
	}
	if s.stream != nil {
		_ = s.stream.Close()
		s.stream = nil
	}
}

// ForceReconnect instructs the controller to drop and retry.
func (s *Session) ForceReconnect() {
	s.controller.ForceReconnect()
}

// Send delegates to the endpoint, or reports StatusNotConn if none exists
// (spec.md §4.5 send).
func (s *Session) Send(msg message.Message) rpcerr.Status {
	if s.ep == nil {
		return rpcerr.StatusNotConn
	}
	return s.ep.Send(msg)
}

// Recv delegates to the endpoint and, on receipt, notifies the controller
// of liveness. It transparently answers inbound echo Requests and
// discards Replies whose id is the literal string "echo" before ever
// returning to the caller (spec.md §4.5.1). A Message already buffered by
// a prior Run tick's opportunistic fetch is returned first.
func (s *Session) Recv() (message.Message, error) {
	if s.hasPending {
		return s.fetch()
	}
	if s.ep == nil {
		return message.Message{}, rpcerr.NotConnectedError()
	}
	return s.fetch()
}

// fetch returns a buffered Message if one is already pending (stashed by
// driveConnected), otherwise pulls from the endpoint directly, handling
// echo traffic transparently along the way.
func (s *Session) fetch() (message.Message, error) {
	if s.hasPending {
		m := s.pending
		s.pending = message.Message{}
		s.hasPending = false
		return m, nil
	}
	for {
		m, err := s.ep.Recv()
		if err != nil {
			return message.Message{}, err
		}
		s.controller.Received()

		if m.Variant == message.VariantRequest && m.Method == s.echoMethod {
			reply := message.Reply(jsonvalue.Clone(m.Params), m.ID)
			s.ep.Send(reply)
			continue
		}
		if m.Variant == message.VariantReply && m.ID.Kind() == jsonvalue.KindString && m.ID.StringValue() == EchoID {
			continue
		}
		if s.paramSchema != nil && m.Variant == message.VariantRequest {
			if err := s.paramSchema.Validate(m.Method, m.Params); err != nil {
				s.logger.Warn("inbound request failed param schema validation", "method", m.Method, "error", err.Error())
				return message.Message{}, err
			}
		}
		return m, nil
	}
}

// Wait registers poll interest combining endpoint/stream readiness with
// the controller's next timer (spec.md §4.5 wait).
func (s *Session) Wait(nowNanos int64) {
	switch {
	case s.ep != nil:
		s.ep.Wait()
		s.ep.RecvWait()
	case s.stream != nil:
		s.stream.WantRead()
		s.stream.WantWrite()
	}
	s.controller.Wait(nowNanos)
}

// Run performs one cooperative lifecycle step (spec.md §4.5 run): it
// drives whatever is currently owned, then consults the controller's
// decision for this tick.
func (s *Session) Run(ctx context.Context, nowNanos int64) {
	switch s.machine.CurrentState() {
	case StateConnected:
		s.driveConnected(ctx)
	case StateConnecting:
		s.driveConnecting(ctx)
	}

	switch decision := s.controller.Run(nowNanos); decision {
	case reconnect.Connect:
		s.startConnect(ctx)
	case reconnect.Disconnect:
		s.disconnect(ctx)
	case reconnect.Probe:
		if s.ep != nil {
			s.sendEcho()
		}
	case reconnect.NOP:
	}
}

func (s *Session) driveConnected(ctx context.Context) {
	s.ep.Run()
	if !s.hasPending {
		// Opportunistically pull any already-available Message so a dead
		// transport (EOF, a protocol error) is observed on this tick
		// rather than only the next time the caller invokes Recv.
		if m, err := s.fetch(); err == nil {
			s.pending = m
			s.hasPending = true
		}
	}
	if s.ep.Status() == rpcerr.StatusOK {
		return
	}
	s.lastErr = errors.Newf("endpoint %s dead: status=%s", s.ep.Name(), s.ep.Status())
	s.controller.Disconnected(s.lastErr)
	s.ep.Close()
	s.ep = nil
	s.transition(ctx, eventDisconnect)
}

func (s *Session) driveConnecting(ctx context.Context) {
	err := s.stream.Connect()
	switch err {
	case nil:
		s.controller.Connected()
		s.ep = endpoint.Open(s.stream, s.ringCapacity, s.logger)
		s.stream = nil
		s.transition(ctx, eventEstablished)
	case transport.ErrWouldBlock:
		// Keep waiting; no state change this tick.
	default:
		s.lastErr = err
		s.controller.ConnectFailed(err)
		_ = s.stream.Close()
		s.stream = nil
		s.transition(ctx, eventConnectFailed)
	}
}

func (s *Session) startConnect(ctx context.Context) {
	if s.ep != nil || s.stream != nil {
		return
	}
	stream, err := s.factory(s.controller.Name())
	if err != nil {
		s.lastErr = err
		s.controller.ConnectFailed(err)
		return
	}
	s.stream = stream
	s.controller.Connecting()
	s.transition(ctx, eventConnectStart)
}

func (s *Session) disconnect(ctx context.Context) {
	switch {
	case s.ep != nil:
		s.controller.Disconnected(nil)
		s.ep.Close()
		s.ep = nil
		s.transition(ctx, eventDisconnect)
	case s.stream != nil:
		_ = s.stream.Close()
		s.stream = nil
		s.controller.ConnectFailed(errors.New("disconnect requested while connecting"))
		s.transition(ctx, eventConnectFailed)
	}
}

// sendEcho implements the PROBE decision (spec.md §4.5.1): a Request with
// method echoMethod, empty-array params, and the literal id "echo",
// bypassing the auto-assigned integer id message.Request would mint.
func (s *Session) sendEcho() {
	req := message.Message{
		Variant:   message.VariantRequest,
		Method:    s.echoMethod,
		HasMethod: true,
		Params:    jsonvalue.Array(),
		HasParams: true,
		ID:        jsonvalue.String(EchoID),
		HasID:     true,
	}
	s.ep.Send(req)
}

// transition fires event on the lifecycle machine and bumps seqno on
// success. Failure here indicates a programming error (an event fired
// from a state that does not define it), which Run's callers avoid by
// construction, so it is logged rather than propagated.
func (s *Session) transition(ctx context.Context, event fsm.Event) {
	if err := s.machine.Transition(ctx, event, nil); err != nil {
		s.logger.Error("unexpected lifecycle transition failure", "event", string(event), "error", err.Error())
		return
	}
	s.seqno++
}
