package ctrlconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dkoosis/ctrlrpc/internal/ringbuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsDefaults(t *testing.T) {
	s := New()
	assert.Equal(t, ringbuf.DefaultCapacity, s.Session.RingCapacity)
	assert.Equal(t, "", s.Session.EchoMethod)
}

func TestLoadParsesYAMLAndFillsGaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ctrlrpc.yaml")
	doc := `
session:
  ring_capacity: 8192
  echo_method: ping
  param_schemas:
    sum: ./schemas/sum.json
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8192, s.Session.RingCapacity)
	assert.Equal(t, "ping", s.Session.EchoMethod)
	assert.Equal(t, "./schemas/sum.json", s.Session.ParamSchemas["sum"])
	assert.Equal(t, "ping", s.EffectiveEchoMethod("echo"))
}

func TestLoadFallsBackToDefaultRingCapacityWhenUnset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ctrlrpc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  echo_method: x\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ringbuf.DefaultCapacity, s.Session.RingCapacity)
}

func TestEffectiveEchoMethodFallsBackWhenUnset(t *testing.T) {
	s := New()
	assert.Equal(t, "echo", s.EffectiveEchoMethod("echo"))
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
