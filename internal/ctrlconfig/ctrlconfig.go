// Package ctrlconfig loads the static configuration a Session is
// constructed with, the way the teacher's internal/config package loads
// server configuration from YAML (SPEC_FULL.md EXPANSION-A/B).
package ctrlconfig

// file: internal/ctrlconfig/ctrlconfig.go

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/ctrlrpc/internal/ringbuf"
	"gopkg.in/yaml.v3"
)

// Settings holds the static parameters a Session is built from: the
// endpoint's ring buffer capacity, an optional override of the literal
// echo keepalive method name (spec.md §6), and an optional path to a
// param-schema document keyed by method name (EXPANSION-A).
type Settings struct {
	Session SessionConfig `yaml:"session"`
}

// SessionConfig groups the Session-construction knobs.
type SessionConfig struct {
	// RingCapacity sizes the Endpoint's internal ByteRing (spec.md §4.2);
	// zero or negative falls back to ringbuf.DefaultCapacity.
	RingCapacity int `yaml:"ring_capacity"`

	// EchoMethod overrides the default "echo" keepalive method name
	// (spec.md §6); empty means DefaultEchoMethod.
	EchoMethod string `yaml:"echo_method"`

	// ParamSchemas maps a Request method name to the path of a JSON
	// Schema document validating that method's params (EXPANSION-A).
	ParamSchemas map[string]string `yaml:"param_schemas"`
}

// New returns Settings populated with sensible defaults, mirroring the
// teacher's config.New() "runs out-of-the-box" convention.
func New() *Settings {
	return &Settings{
		Session: SessionConfig{
			RingCapacity: ringbuf.DefaultCapacity,
		},
	}
}

// Load reads and parses the YAML document at path into Settings seeded
// with New()'s defaults. Fields absent from the document keep their
// default values, since yaml.Unmarshal only overwrites keys it finds.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ctrlconfig: reading %q", path)
	}
	settings := New()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, errors.Wrapf(err, "ctrlconfig: parsing %q", path)
	}
	if settings.Session.RingCapacity <= 0 {
		settings.Session.RingCapacity = ringbuf.DefaultCapacity
	}
	return settings, nil
}

// EffectiveEchoMethod returns the configured echo method override, or
// fallback when none was set.
func (s *Settings) EffectiveEchoMethod(fallback string) string {
	if s.Session.EchoMethod == "" {
		return fallback
	}
	return s.Session.EchoMethod
}
