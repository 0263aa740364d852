package pollloop

// file: internal/pollloop/inmemory.go

// InMemoryLoop is a reference Loop implementation for tests. It has no real I/O readiness to wait on: Block simply
// counts how many times it was asked to wait, so tests can assert a
// blocking helper looped the expected number of times before progress
// became available.
type InMemoryLoop struct {
	woken      bool
	BlockCalls int
}

// NewInMemoryLoop returns a Loop ready for use.
func NewInMemoryLoop() *InMemoryLoop {
	return &InMemoryLoop{}
}

// Block implements Loop. It returns immediately; callers drive actual
// progress (e.g. feeding bytes into a PipeStream) between Block calls.
func (l *InMemoryLoop) Block() {
	l.BlockCalls++
	l.woken = false
}

// ImmediateWake implements Loop.
func (l *InMemoryLoop) ImmediateWake() {
	l.woken = true
}

// Woken reports whether ImmediateWake was called since the last Block.
func (l *InMemoryLoop) Woken() bool {
	return l.woken
}
