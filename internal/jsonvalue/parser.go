// file: internal/jsonvalue/parser.go
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Parser incrementally scans byte-fed input for the boundary of exactly one
// top-level JSON value, without requiring a length prefix or delimiter —
// the value's own matching braces/brackets (or, for a bare string, its
// closing quote) terminate it. This stands in for the external "incremental
// JSON parser" collaborator named in spec.md §6.
//
// Messages on this wire are always JSON objects (§3), so a leading byte
// other than '{', '[' or '"' is treated as an immediate framing error; a
// conforming peer never sends anything else.
type Parser struct {
	buf      []byte
	depth    int
	started  bool
	done     bool
	inString bool
	escaped  bool
	scanErr  error
}

// New creates a parser ready to scan the bytes of one top-level JSON value.
func New() *Parser {
	return &Parser{}
}

// Feed scans as much of data as is needed to complete the current value and
// reports how many bytes it consumed. Once Done reports true, Feed consumes
// nothing further until the parser is discarded (per spec.md §9, a parser
// is single-use: one per message, created lazily and discarded on completion).
func (p *Parser) Feed(data []byte) (int, error) {
	if p.done {
		return 0, nil
	}

	consumed := 0
	for _, c := range data {
		consumed++

		if p.inString {
			switch {
			case p.escaped:
				p.escaped = false
			case c == '\\':
				p.escaped = true
			case c == '"':
				p.inString = false
				if p.depth == 0 {
					p.done = true
				}
			}
			if p.done {
				break
			}
			continue
		}

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			// Leading whitespace before the value starts is consumed but
			// otherwise ignored.
		case c == '"':
			p.started = true
			p.inString = true
		case c == '{' || c == '[':
			p.started = true
			p.depth++
		case c == '}' || c == ']':
			p.depth--
			if p.depth < 0 {
				p.scanErr = fmt.Errorf("unbalanced closing bracket %q", c)
				p.done = true
			} else if p.depth == 0 {
				p.done = true
			}
		default:
			if !p.started {
				p.started = true
				p.scanErr = fmt.Errorf("unexpected leading byte %q: messages must be JSON objects", c)
				p.done = true
			}
			// A byte inside a number/literal at depth>0 is valid JSON and
			// requires no special handling here.
		}

		if p.done {
			break
		}
	}

	p.buf = append(p.buf, data[:consumed]...)
	return consumed, nil
}

// Done reports whether a complete top-level value has been scanned.
func (p *Parser) Done() bool {
	return p.done
}

// Finish finalizes the parser into a Value. If the scanned bytes did not
// form valid JSON, it returns a Value whose Kind is KindString carrying a
// human-readable parse error, per spec.md §4.3.1 — the caller (Endpoint)
// recognizes this shape and latches a protocol error rather than treating
// it as a legitimate string message.
func (p *Parser) Finish() Value {
	if p.scanErr != nil {
		return String(p.scanErr.Error())
	}

	var x interface{}
	dec := json.NewDecoder(bytes.NewReader(p.buf))
	dec.UseNumber()
	if err := dec.Decode(&x); err != nil {
		return String(fmt.Sprintf("invalid JSON: %v", err))
	}
	if n, ok := x.(json.Number); ok {
		f, _ := n.Float64()
		return Number(f)
	}
	return FromInterface(normalizeNumbers(x))
}

// Abort discards any partially scanned state, leaving the parser ready to
// scan a fresh value. Endpoint does not call it: on teardown it simply drops
// its parser reference.
func (p *Parser) Abort() {
	p.buf = nil
	p.depth = 0
	p.started = false
	p.done = false
	p.inString = false
	p.escaped = false
	p.scanErr = nil
}

// normalizeNumbers walks a decoded tree replacing json.Number leaves (from
// a UseNumber decoder) with float64, since FromInterface's switch expects
// the default decoder's numeric representation for nested values.
func normalizeNumbers(x interface{}) interface{} {
	switch t := x.(type) {
	case json.Number:
		f, _ := t.Float64()
		return f
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeNumbers(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = normalizeNumbers(e)
		}
		return out
	default:
		return x
	}
}
