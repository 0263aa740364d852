// Package fsm provides a small finite-state-machine wrapper used by Session
// to drive its Idle/Connecting/Connected lifecycle (spec.md §4.5).
// file: internal/fsm/fsm.go
package fsm

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/ctrlrpc/internal/logging"
	lfsm "github.com/looplab/fsm"
)

// State names a node in the machine.
type State string

// Event names a trigger that may move the machine from one State to another.
type Event string

// Action runs when a transition completes, after the machine's state has
// already changed to To.
type Action func(ctx context.Context, event Event, data interface{}) error

// Transition declares that firing Event while in any of the From states
// moves the machine to To, then runs Action if set.
type Transition struct {
	From   []State
	To     State
	Event  Event
	Action Action
}

// FSM is the trimmed machine contract Session depends on: build a fixed set
// of transitions once, then fire events and read the current state.
type FSM interface {
	// Transition attempts to fire event from the current state. Returns an
	// error if the machine was not built or the event is not defined from
	// the current state.
	Transition(ctx context.Context, event Event, data interface{}) error
	// CurrentState returns the machine's current state.
	CurrentState() State
	// CanTransition reports whether event is defined from the current state.
	CanTransition(event Event) bool
}

// loopFSM adapts looplab/fsm to the FSM contract. Unlike a general-purpose
// FSM builder, it has no guard-condition machinery: Session's transitions
// are unconditional given the reconnect controller's decision, so nothing
// here needs to cancel a transition mid-flight.
type loopFSM struct {
	logger logging.Logger
	fsm    *lfsm.FSM
}

// New builds and returns a ready-to-use FSM starting at initial, wired with
// transitions. Unlike the teacher's two-phase AddTransition/Build builder,
// this constructor takes the full transition table up front: Session's
// transition set is fixed at construction time and never grows.
func New(initial State, transitions []Transition, logger logging.Logger) FSM {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	logger = logger.WithField("component", "fsm")

	events := make([]lfsm.EventDesc, 0, len(transitions))
	callbacks := make(lfsm.Callbacks, len(transitions))

	for _, t := range transitions {
		src := make([]string, len(t.From))
		for i, s := range t.From {
			src[i] = string(s)
		}
		events = append(events, lfsm.EventDesc{Name: string(t.Event), Src: src, Dst: string(t.To)})

		if t.Action != nil {
			action := t.Action
			ev := t.Event
			to := t.To
			callbackName := "enter_" + string(to)
			prev := callbacks[callbackName]
			callbacks[callbackName] = func(ctx context.Context, e *lfsm.Event) {
				if Event(e.Event) != ev {
					if prev != nil {
						prev(ctx, e)
					}
					return
				}
				var data interface{}
				if len(e.Args) > 0 {
					data = e.Args[0]
				}
				if err := action(ctx, ev, data); err != nil {
					logger.Error("transition action failed", "event", string(ev), "to", string(to), "error", err.Error())
				}
				if prev != nil {
					prev(ctx, e)
				}
			}
		}
	}

	return &loopFSM{logger: logger, fsm: lfsm.NewFSM(string(initial), events, callbacks)}
}

// CurrentState implements FSM.
func (l *loopFSM) CurrentState() State {
	return State(l.fsm.Current())
}

// CanTransition implements FSM.
func (l *loopFSM) CanTransition(event Event) bool {
	return l.fsm.Can(string(event))
}

// Transition implements FSM. Data, if non-nil, is passed through to the
// firing transition's Action.
func (l *loopFSM) Transition(ctx context.Context, event Event, data interface{}) error {
	from := l.CurrentState()
	var args []interface{}
	if data != nil {
		args = []interface{}{data}
	}
	if err := l.fsm.Event(ctx, string(event), args...); err != nil {
		return errors.Wrapf(err, "event %q not valid from state %q", event, from)
	}
	return nil
}
