package reconnect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptedControllerYieldsInOrderThenRepeatsLast(t *testing.T) {
	c := NewScripted("peer-a").WithDecisions(Connect, Probe, Disconnect)

	assert.Equal(t, Connect, c.Run(0))
	assert.Equal(t, Probe, c.Run(0))
	assert.Equal(t, Disconnect, c.Run(0))
	assert.Equal(t, Disconnect, c.Run(0))
}

func TestScriptedControllerRecordsLifecycleEvents(t *testing.T) {
	c := NewScripted("peer-a")
	c.Connecting()
	c.Connected()
	c.Disconnected(nil)
	assert.Equal(t, []string{"connecting", "connected", "disconnected"}, c.Events)
}

func TestScriptedControllerTracksMaxTriesAndEnable(t *testing.T) {
	c := NewScripted("peer-a")
	assert.True(t, c.HasRemainingTries())

	c.SetMaxTries(0)
	c.Enable(false)
	assert.Equal(t, 0, c.MaxTries())
	assert.False(t, c.Enabled())
	assert.False(t, c.HasRemainingTries())
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "connect", Connect.String())
	assert.Equal(t, "disconnect", Disconnect.String())
	assert.Equal(t, "probe", Probe.String())
	assert.Equal(t, "nop", NOP.String())
}
