package filter

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Bucket maps each filtered field to the raw values used against it across
// the whole expression, so they can be validated with the field's own rules.
type Bucket map[string][]any

// Values collects the leaf values of e per field. In lists are flattened.
func Values(e Expr) Bucket {
	b := Bucket{}
	if e == nil {
		return b
	}
	Walk(e, func(c Cond) {
		if _, ok := b[c.Field]; !ok {
			b[c.Field] = []any{}
		}
		if c.Op == In {
			b[c.Field] = append(b[c.Field], c.Values...)
			return
		}
		b[c.Field] = append(b[c.Field], c.Value)
	})
	return b
}

// Model exposes the bucket as a record for the schema engine.
func (b Bucket) Model() map[string]any {
	m := make(map[string]any, len(b))
	for field, values := range b {
		m[field] = values
	}
	return m
}

// Expr rebuilds an expression holding exactly the bucket's values: an And of
// one In leaf per field, in field order.
func (b Bucket) Expr() Expr {
	if len(b) == 0 {
		return nil
	}
	fields := make([]string, 0, len(b))
	for field := range b {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	group := Group{Op: And}
	for _, field := range fields {
		values := append([]any{}, b[field]...)
		group.Operands = append(group.Operands, Cond{Op: In, Field: field, Values: values})
	}
	return group
}

// Encode renders e in wire form. A nil expression encodes as "[]".
func Encode(e Expr) string {
	if e == nil {
		return "[]"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(wire(e)); err != nil {
		// Parse only produces strings and numbers, which always marshal.
		return "[]"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func wire(e Expr) []any {
	switch n := e.(type) {
	case Group:
		out := []any{string(n.Op)}
		for _, operand := range n.Operands {
			out = append(out, wire(operand))
		}
		return out
	case Cond:
		if n.Op == In {
			values := n.Values
			if values == nil {
				values = []any{}
			}
			return []any{string(n.Op), n.Field, values}
		}
		return []any{string(n.Op), n.Field, n.Value}
	}
	return nil
}
