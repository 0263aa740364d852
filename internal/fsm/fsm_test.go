package fsm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateConnected  State = "connected"

	EventConnect    Event = "connect"
	EventEstablish  Event = "establish"
	EventDisconnect Event = "disconnect"
)

func sessionTransitions(entered *[]State) []Transition {
	record := func(s State) Action {
		return func(_ context.Context, _ Event, _ interface{}) error {
			*entered = append(*entered, s)
			return nil
		}
	}
	return []Transition{
		{From: []State{StateIdle}, To: StateConnecting, Event: EventConnect, Action: record(StateConnecting)},
		{From: []State{StateConnecting}, To: StateConnected, Event: EventEstablish, Action: record(StateConnected)},
		{From: []State{StateConnecting, StateConnected}, To: StateIdle, Event: EventDisconnect, Action: record(StateIdle)},
	}
}

func TestFSMWalksSessionLifecycle(t *testing.T) {
	var entered []State
	m := New(StateIdle, sessionTransitions(&entered), nil)

	require.Equal(t, StateIdle, m.CurrentState())

	require.NoError(t, m.Transition(context.Background(), EventConnect, nil))
	assert.Equal(t, StateConnecting, m.CurrentState())

	require.NoError(t, m.Transition(context.Background(), EventEstablish, nil))
	assert.Equal(t, StateConnected, m.CurrentState())

	require.NoError(t, m.Transition(context.Background(), EventDisconnect, nil))
	assert.Equal(t, StateIdle, m.CurrentState())

	assert.Equal(t, []State{StateConnecting, StateConnected, StateIdle}, entered)
}

func TestFSMDisconnectFromEitherConnectingOrConnected(t *testing.T) {
	var entered []State
	m := New(StateIdle, sessionTransitions(&entered), nil)

	require.NoError(t, m.Transition(context.Background(), EventConnect, nil))
	require.NoError(t, m.Transition(context.Background(), EventDisconnect, nil))
	assert.Equal(t, StateIdle, m.CurrentState())
}

func TestFSMRejectsInvalidEvent(t *testing.T) {
	var entered []State
	m := New(StateIdle, sessionTransitions(&entered), nil)

	err := m.Transition(context.Background(), EventEstablish, nil)
	require.Error(t, err)
	assert.Equal(t, StateIdle, m.CurrentState())
}

func TestFSMCanTransition(t *testing.T) {
	var entered []State
	m := New(StateIdle, sessionTransitions(&entered), nil)

	assert.True(t, m.CanTransition(EventConnect))
	assert.False(t, m.CanTransition(EventEstablish))
}
