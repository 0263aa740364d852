// Package message implements the four-variant JSON-RPC 1.0 message record
// (spec.md §3, §4.1): Request, Notify, Reply, and Error, their structural
// validation, and their conversion to and from JSON.
package message

// file: internal/message/message.go

import (
	"fmt"
	"sync/atomic"

	"github.com/dkoosis/ctrlrpc/internal/jsonvalue"
	"github.com/dkoosis/ctrlrpc/internal/rpcerr"
)

// Variant identifies which of the four JSON-RPC 1.0 message shapes a
// Message represents.
type Variant int

// Recognized variants, per the presence table in spec.md §3.
const (
	VariantRequest Variant = iota
	VariantNotify
	VariantReply
	VariantError
)

// String renders a Variant for logging and error messages.
func (v Variant) String() string {
	switch v {
	case VariantRequest:
		return "request"
	case VariantNotify:
		return "notify"
	case VariantReply:
		return "reply"
	case VariantError:
		return "error"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Message is a tagged record for one of the four JSON-RPC 1.0 variants.
// Which fields are populated is tracked independently of Variant so that
// Validate can detect both missing required fields and forbidden fields
// present on the wrong variant, including messages built by FromJSON from
// untrusted input.
type Message struct {
	Variant Variant

	Method    string
	HasMethod bool

	Params    jsonvalue.Value
	HasParams bool

	Result    jsonvalue.Value
	HasResult bool

	Err    jsonvalue.Value
	HasErr bool

	ID    jsonvalue.Value
	HasID bool
}

var idCounter uint64

// idRange bounds the minted id so it stays well within float64's exact
// integer range, per spec.md §4.1's "wrapping modulo its range".
const idRange = 1 << 32

// nextID mints the next id from the process-wide monotonic counter
// (spec.md §4.1, §9: acceptable as a single global counter because id
// matching is per-endpoint and requests are short-lived).
func nextID() jsonvalue.Value {
	n := atomic.AddUint64(&idCounter, 1) - 1
	return jsonvalue.Number(float64(n % idRange))
}

// Request constructs a Request message with a freshly minted id, returning
// both the Message and a clone of the id for the caller to match against
// replies (spec.md §4.1).
func Request(method string, params jsonvalue.Value) (Message, jsonvalue.Value) {
	id := nextID()
	m := Message{
		Variant:   VariantRequest,
		Method:    method,
		HasMethod: true,
		Params:    params,
		HasParams: true,
		ID:        id,
		HasID:     true,
	}
	return m, jsonvalue.Clone(id)
}

// Notify constructs a Notify message (a Request with no id, expecting no
// reply).
func Notify(method string, params jsonvalue.Value) Message {
	return Message{
		Variant:   VariantNotify,
		Method:    method,
		HasMethod: true,
		Params:    params,
		HasParams: true,
	}
}

// Reply constructs a successful Reply answering the request identified by
// id. id is cloned into the new Message.
func Reply(result jsonvalue.Value, id jsonvalue.Value) Message {
	return Message{
		Variant:   VariantReply,
		Result:    result,
		HasResult: true,
		ID:        jsonvalue.Clone(id),
		HasID:     true,
	}
}

// Error constructs an error Reply answering the request identified by id.
// id is cloned into the new Message.
func Error(errVal jsonvalue.Value, id jsonvalue.Value) Message {
	return Message{
		Variant: VariantError,
		Err:     errVal,
		HasErr:  true,
		ID:      jsonvalue.Clone(id),
		HasID:   true,
	}
}

// presence describes whether a field is required, forbidden, or optional
// for a given variant. Required and forbidden are both checked; any field
// not mentioned as required/forbidden for a variant is simply not checked
// beyond the params-is-array invariant.
type presence struct {
	methodRequired, methodForbidden bool
	paramsRequired, paramsForbidden bool
	resultRequired, resultForbidden bool
	errRequired, errForbidden       bool
	idRequired, idForbidden         bool
}

func rulesFor(v Variant) presence {
	switch v {
	case VariantRequest:
		return presence{methodRequired: true, paramsRequired: true, resultForbidden: true, errForbidden: true, idRequired: true}
	case VariantNotify:
		return presence{methodRequired: true, paramsRequired: true, resultForbidden: true, errForbidden: true, idForbidden: true}
	case VariantReply:
		return presence{methodForbidden: true, paramsForbidden: true, resultRequired: true, errForbidden: true, idRequired: true}
	case VariantError:
		return presence{methodForbidden: true, paramsForbidden: true, resultForbidden: true, errRequired: true, idRequired: true}
	default:
		return presence{}
	}
}

// Validate enforces the presence table of spec.md §3 and the
// params-is-array invariant. It returns nil when m is well-formed, or an
// *rpcerr.Error (category Validation) naming the offending field.
func Validate(m Message) error {
	r := rulesFor(m.Variant)

	type check struct {
		required, forbidden, has bool
		name                     string
	}
	checks := []check{
		{r.methodRequired, r.methodForbidden, m.HasMethod, "method"},
		{r.paramsRequired, r.paramsForbidden, m.HasParams, "params"},
		{r.resultRequired, r.resultForbidden, m.HasResult, "result"},
		{r.errRequired, r.errForbidden, m.HasErr, "error"},
		{r.idRequired, r.idForbidden, m.HasID, "id"},
	}
	for _, c := range checks {
		if c.required && !c.has {
			return rpcerr.Invalid(fmt.Sprintf("%s variant requires field %q", m.Variant, c.name))
		}
		if c.forbidden && c.has {
			return rpcerr.Invalid(fmt.Sprintf("%s variant forbids field %q", m.Variant, c.name))
		}
	}

	if m.HasParams && m.Params.Kind() != jsonvalue.KindArray {
		return rpcerr.Invalid("params must be a JSON array")
	}

	return nil
}

// ToJSON converts m to its wire JSON object (spec.md §4.1). Fields present
// in the record are emitted verbatim; JSON-RPC 1.0 wire-compatibility
// padding is added as documented on each variant below.
func ToJSON(m Message) jsonvalue.Value {
	fields := map[string]jsonvalue.Value{}

	switch m.Variant {
	case VariantRequest:
		// Only the populated fields are emitted; no padding is needed
		// because a Request has no forbidden-but-conventionally-expected
		// sibling field on the wire.
		fields["method"] = jsonvalue.String(m.Method)
		fields["params"] = m.Params
		fields["id"] = m.ID
	case VariantNotify:
		fields["method"] = jsonvalue.String(m.Method)
		fields["params"] = m.Params
		fields["id"] = jsonvalue.Null()
	case VariantReply:
		fields["result"] = m.Result
		fields["id"] = m.ID
		fields["error"] = jsonvalue.Null()
	case VariantError:
		fields["error"] = m.Err
		fields["id"] = m.ID
		fields["result"] = jsonvalue.Null()
	}

	return jsonvalue.Object(fields)
}

// knownFields are the only object members from_json accepts, preserving
// the spec.md §9 strictness of rejecting e.g. a JSON-RPC 2.0 "jsonrpc" tag.
var knownFields = map[string]struct{}{
	"method": {}, "params": {}, "result": {}, "error": {}, "id": {},
}

// FromJSON parses a wire JSON value into a Message. Any field present with
// a JSON null value is treated as absent (spec.md §4.1). The variant is
// inferred by priority: result present ⇒ Reply; else error present ⇒
// Error; else id present ⇒ Request; else Notify. FromJSON rejects objects
// containing any member outside {method,params,result,error,id} and runs
// Validate before returning.
func FromJSON(v jsonvalue.Value) (Message, error) {
	if v.Kind() != jsonvalue.KindObject {
		return Message{}, rpcerr.Invalid("message must be a JSON object")
	}

	fields := v.ObjectFields()
	for k := range fields {
		if _, ok := knownFields[k]; !ok {
			return Message{}, rpcerr.Invalid(fmt.Sprintf("unknown message field %q", k))
		}
	}

	var m Message

	if methodVal, ok := fields["method"]; ok && !methodVal.IsNull() {
		if methodVal.Kind() != jsonvalue.KindString {
			return Message{}, rpcerr.Invalid("method must be a string")
		}
		m.Method = methodVal.StringValue()
		m.HasMethod = true
	}
	if paramsVal, ok := fields["params"]; ok && !paramsVal.IsNull() {
		m.Params = paramsVal
		m.HasParams = true
	}
	if resultVal, ok := fields["result"]; ok && !resultVal.IsNull() {
		m.Result = resultVal
		m.HasResult = true
	}
	if errVal, ok := fields["error"]; ok && !errVal.IsNull() {
		m.Err = errVal
		m.HasErr = true
	}
	if idVal, ok := fields["id"]; ok && !idVal.IsNull() {
		m.ID = idVal
		m.HasID = true
	}

	switch {
	case m.HasResult:
		m.Variant = VariantReply
	case m.HasErr:
		m.Variant = VariantError
	case m.HasID:
		m.Variant = VariantRequest
	default:
		m.Variant = VariantNotify
	}

	if err := Validate(m); err != nil {
		return Message{}, err
	}
	return m, nil
}
