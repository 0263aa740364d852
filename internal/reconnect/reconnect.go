// Package reconnect defines the reconnect controller contract Session
// consults on every tick of its lifecycle (spec.md §6, "Reconnect
// controller (consumed)"). Backoff, probe scheduling, and all timing
// policy live entirely with the implementation the caller supplies;
// Session only calls Run/Wait and reports the lifecycle events it
// observes. The controller owns a wall-clock origin and a stable name;
// neither lives in this package, since both are collaborator state.
package reconnect

// file: internal/reconnect/reconnect.go

// Decision is the action a Controller asks Session to take on one Run
// tick.
type Decision int

// Recognized decisions, per spec.md §4.5.
const (
	// NOP asks Session to do nothing this tick.
	NOP Decision = iota
	// Connect asks Session to open a new Stream via its transport factory.
	Connect
	// Disconnect asks Session to close its current Endpoint/Stream and
	// return to Idle.
	Disconnect
	// Probe asks Session to send its configured echo keepalive on the
	// current Endpoint.
	Probe
)

// String renders a Decision for logging.
func (d Decision) String() string {
	switch d {
	case NOP:
		return "nop"
	case Connect:
		return "connect"
	case Disconnect:
		return "disconnect"
	case Probe:
		return "probe"
	default:
		return "unknown"
	}
}

// Controller is the external collaborator that decides how Session's
// lifecycle should advance and owns all backoff/probe-interval/timeout
// policy (spec.md §1 Non-goals, §5 "the Endpoint is timeless"). Session
// notifies it of every lifecycle event and asks it, once per tick, what
// to do next.
type Controller interface {
	// Name returns the controller's stable name, reported by the Session
	// as its own name across reconnects.
	Name() string

	// SetMaxTries bounds how many more connection attempts the controller
	// will authorize; 0 disables further reconnection entirely, used by
	// Session.OpenAttached for server-accepted inbound sessions.
	SetMaxTries(n int)

	// HasRemainingTries reports whether the controller would still
	// authorize at least one more connection attempt. Session.IsAlive
	// consults this so a session with no endpoint or stream, but with
	// tries remaining, still counts as alive.
	HasRemainingTries() bool

	// Enable arms or disarms the controller; Session.Open calls
	// Enable(true) on the controller it is given so the very first Run
	// tick observes an armed controller.
	Enable(enabled bool)

	// Connecting notifies the controller that Session has started opening
	// a new Stream.
	Connecting()

	// Connected notifies the controller that the Stream finished
	// connecting and was promoted to an Endpoint.
	Connected()

	// ConnectFailed notifies the controller that stream establishment
	// failed with err.
	ConnectFailed(err error)

	// Disconnected notifies the controller that a previously live
	// Endpoint died with err (nil if via ForceReconnect).
	Disconnected(err error)

	// Received notifies the controller that a Message arrived, resetting
	// any liveness/inactivity timer it keeps.
	Received()

	// ForceReconnect instructs the controller to drop the current
	// connection and retry, irrespective of its own timers.
	ForceReconnect()

	// Run returns the action to take this tick, given the current
	// wall-clock time in nanoseconds since the controller's origin.
	Run(nowNanos int64) Decision

	// Wait schedules the controller's next timer relative to nowNanos,
	// for Session.Wait to combine with endpoint/stream readiness.
	Wait(nowNanos int64)
}
