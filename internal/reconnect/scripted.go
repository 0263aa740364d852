package reconnect

// file: internal/reconnect/scripted.go

// Scripted is a test-double Controller that returns a fixed queue of
// decisions, one per Run call, repeating the last entry once the queue is
// drained. It records every lifecycle notification it receives, letting
// tests assert Session drove the controller through the expected sequence
// without needing a real backoff/timer implementation.
type Scripted struct {
	name      string
	maxTries  int
	enabled   bool
	decisions []Decision
	calls     int

	Events []string
}

// NewScripted returns a Scripted controller named name, enabled, with no
// decisions queued (Run returns NOP until WithDecisions is used).
func NewScripted(name string) *Scripted {
	return &Scripted{name: name, enabled: true, maxTries: -1} // -1: unlimited until SetMaxTries(0).
}

// WithDecisions queues the decisions Run will return, in order.
func (s *Scripted) WithDecisions(decisions ...Decision) *Scripted {
	s.decisions = decisions
	s.calls = 0
	return s
}

// Name implements Controller.
func (s *Scripted) Name() string { return s.name }

// SetMaxTries implements Controller.
func (s *Scripted) SetMaxTries(n int) { s.maxTries = n }

// MaxTries returns the value last passed to SetMaxTries, for assertions.
func (s *Scripted) MaxTries() int { return s.maxTries }

// HasRemainingTries implements Controller. Scripted has no attempt
// counter of its own: it simply reports whether it was ever given a
// nonzero max-tries budget and remains enabled.
func (s *Scripted) HasRemainingTries() bool {
	return s.enabled && s.maxTries != 0
}

// Enable implements Controller.
func (s *Scripted) Enable(enabled bool) { s.enabled = enabled }

// Enabled returns whether the controller is currently enabled.
func (s *Scripted) Enabled() bool { return s.enabled }

// Connecting implements Controller.
func (s *Scripted) Connecting() { s.Events = append(s.Events, "connecting") }

// Connected implements Controller.
func (s *Scripted) Connected() { s.Events = append(s.Events, "connected") }

// ConnectFailed implements Controller.
func (s *Scripted) ConnectFailed(_ error) { s.Events = append(s.Events, "connect_failed") }

// Disconnected implements Controller.
func (s *Scripted) Disconnected(_ error) { s.Events = append(s.Events, "disconnected") }

// Received implements Controller.
func (s *Scripted) Received() { s.Events = append(s.Events, "received") }

// ForceReconnect implements Controller.
func (s *Scripted) ForceReconnect() { s.Events = append(s.Events, "force_reconnect") }

// Run implements Controller.
func (s *Scripted) Run(_ int64) Decision {
	if len(s.decisions) == 0 {
		return NOP
	}
	idx := s.calls
	if idx >= len(s.decisions) {
		idx = len(s.decisions) - 1
	}
	s.calls++
	return s.decisions[idx]
}

// Wait implements Controller as a no-op: Scripted has no real timer.
func (s *Scripted) Wait(_ int64) {}
