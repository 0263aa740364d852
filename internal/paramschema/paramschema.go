// Package paramschema provides optional JSON Schema validation of a
// Request's params, layered on top of the mandatory structural checks in
// internal/message (SPEC_FULL.md EXPANSION-A). It is never required by the
// core invariants: a Session with no Validator configured behaves exactly
// as spec.md describes.
package paramschema

// file: internal/paramschema/paramschema.go

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/ctrlrpc/internal/jsonvalue"
	"github.com/dkoosis/ctrlrpc/internal/logging"
	"github.com/dkoosis/ctrlrpc/internal/rpcerr"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator schema-checks Request params against one compiled JSON Schema
// document, keyed by method name. It is deliberately narrower than the
// teacher's internal/schema.Validator, which validates whole MCP messages
// against an embedded, versioned schema covering every method: this
// package has exactly one schema per method, supplied by the caller, with
// no embedding, fallback, or HTTP-fetch machinery, since method routing is
// out of scope here (spec.md §1).
type Validator struct {
	compiler *jsonschema.Compiler
	schemas  map[string]*jsonschema.Schema
	logger   logging.Logger
}

// New returns an empty Validator ready for schemas to be registered with
// Load/LoadFile.
func New(logger logging.Logger) *Validator {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	return &Validator{
		compiler: compiler,
		schemas:  make(map[string]*jsonschema.Schema),
		logger:   logger.WithField("component", "paramschema"),
	}
}

// LoadFile reads the JSON Schema document at path and registers it for
// method, the way cmd/server's config-driven startup loads the teacher's
// schema override from disk.
func (v *Validator) LoadFile(method, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "paramschema: reading schema for method %q", method)
	}
	return v.Load(method, path, data)
}

// Load compiles the JSON Schema document in data and registers it for
// method. resourceID need only be unique per call; it is used as the
// compiler's internal resource URI.
func (v *Validator) Load(method, resourceID string, data []byte) error {
	if err := v.compiler.AddResource(resourceID, bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, "paramschema: adding schema resource for method %q", method)
	}
	schema, err := v.compiler.Compile(resourceID)
	if err != nil {
		return errors.Wrapf(err, "paramschema: compiling schema for method %q", method)
	}
	v.schemas[method] = schema
	v.logger.Info("registered param schema", "method", method)
	return nil
}

// HasSchema reports whether a schema is registered for method.
func (v *Validator) HasSchema(method string) bool {
	_, ok := v.schemas[method]
	return ok
}

// Validate checks params against the schema registered for method. A
// method with no registered schema always passes: this validator is a
// defense-in-depth layer on top of message.Validate's mandatory
// params-is-array check (spec.md §4.1), not a replacement for per-method
// routing, which is out of scope (spec.md §1).
func (v *Validator) Validate(method string, params jsonvalue.Value) error {
	schema, ok := v.schemas[method]
	if !ok {
		return nil
	}
	if err := schema.Validate(jsonvalue.ToInterface(params)); err != nil {
		var valErr *jsonschema.ValidationError
		if errors.As(err, &valErr) {
			return rpcerr.Invalid(errors.Wrapf(valErr, "params for method %q failed schema validation", method).Error())
		}
		return rpcerr.Invalid(errors.Wrapf(err, "params for method %q failed schema validation", method).Error())
	}
	return nil
}
