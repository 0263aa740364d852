// Package jsonvalue provides a tagged JSON value union and an incremental,
// byte-fed parser, standing in for the "JSON (consumed)" external
// interface of spec.md §6.
package jsonvalue

// file: internal/jsonvalue/value.go

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which variant a Value holds.
type Kind int

// Recognized Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a tagged JSON value union. The zero Value is KindNull.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

// Null returns the JSON null value.
func Null() Value { return Value{kind: KindNull} }

// Bool constructs a JSON boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number constructs a JSON numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String constructs a JSON string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array constructs a JSON array value, taking ownership of elems.
func Array(elems ...Value) Value { return Value{kind: KindArray, arr: elems} }

// Object constructs a JSON object value from the given fields.
func Object(fields map[string]Value) Value { return Value{kind: KindObject, obj: fields} }

// Kind returns the value's variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the JSON null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// BoolValue returns the boolean payload; only meaningful when Kind() == KindBool.
func (v Value) BoolValue() bool { return v.b }

// NumberValue returns the numeric payload; only meaningful when Kind() == KindNumber.
func (v Value) NumberValue() float64 { return v.n }

// StringValue returns the string payload; only meaningful when Kind() == KindString.
func (v Value) StringValue() string { return v.s }

// ArrayValues returns the element slice; only meaningful when Kind() == KindArray.
func (v Value) ArrayValues() []Value { return v.arr }

// ObjectFields returns the field map; only meaningful when Kind() == KindObject.
func (v Value) ObjectFields() map[string]Value { return v.obj }

// Clone returns a deep copy of v.
func Clone(v Value) Value {
	switch v.kind {
	case KindArray:
		out := make([]Value, len(v.arr))
		for i, e := range v.arr {
			out[i] = Clone(e)
		}
		return Value{kind: KindArray, arr: out}
	case KindObject:
		out := make(map[string]Value, len(v.obj))
		for k, e := range v.obj {
			out[k] = Clone(e)
		}
		return Value{kind: KindObject, obj: out}
	default:
		return v
	}
}

// Equal reports deep JSON equality between a and b, used by Transaction
// (spec.md §4.4) to match a Reply's id against the originating request id.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for k, av := range a.obj {
			bv, ok := b.obj[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v as canonical JSON text. Object keys are sorted so output
// is deterministic, which keeps S1-style wire-format assertions stable.
func (v Value) String() string {
	b, err := json.Marshal(toInterface(v))
	if err != nil {
		// A Value built only through this package's constructors is always
		// marshalable; surface a parse-error sentinel string on the
		// unreachable failure path rather than panicking.
		return fmt.Sprintf("<invalid value: %v>", err)
	}
	return string(b)
}

// ToInterface converts v into the plain Go representation
// (map[string]interface{}, []interface{}, string, float64, bool, nil) that
// third-party libraries expecting encoding/json-decoded trees — such as a
// JSON Schema validator — operate on.
func ToInterface(v Value) interface{} {
	return toInterface(v)
}

func toInterface(v Value) interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = toInterface(e)
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.obj))
		for k, e := range v.obj {
			out[k] = toInterface(e)
		}
		return out
	default:
		return nil
	}
}

// FromInterface converts a decoded encoding/json tree (as produced by
// json.Unmarshal into interface{}) into a Value.
func FromInterface(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case json.Number:
		f, _ := t.Float64()
		return Number(f)
	case string:
		return String(t)
	case []interface{}:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromInterface(e)
		}
		return Value{kind: KindArray, arr: out}
	case map[string]interface{}:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = FromInterface(e)
		}
		return Value{kind: KindObject, obj: out}
	default:
		return Null()
	}
}
