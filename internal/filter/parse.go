package filter

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalid is returned for any text that is not a well-formed expression
// over the allowed fields. The grammar is rejected as a whole; callers get no
// per-node detail.
var ErrInvalid = errors.New("invalid filter expression")

// Parse decodes text and validates it against the allowed fields. An empty
// array yields a nil Expr, meaning no filter.
func Parse(text string, allowed []string) (Expr, error) {
	if !gjson.Valid(text) {
		return nil, ErrInvalid
	}
	root := gjson.Parse(text)
	if !root.IsArray() {
		return nil, ErrInvalid
	}
	if len(root.Array()) == 0 {
		return nil, nil
	}

	allow := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		allow[f] = true
	}

	expr, ok := parseNode(root, allow)
	if !ok {
		return nil, ErrInvalid
	}
	return expr, nil
}

func parseNode(node gjson.Result, allow map[string]bool) (Expr, bool) {
	if !node.IsArray() {
		return nil, false
	}
	items := node.Array()
	if len(items) == 0 || items[0].Type != gjson.String {
		return nil, false
	}

	op := Op(items[0].Str)
	switch {
	case op.Combinator():
		if len(items) < 2 {
			return nil, false
		}
		group := Group{Op: op, Operands: make([]Expr, 0, len(items)-1)}
		for _, item := range items[1:] {
			operand, ok := parseNode(item, allow)
			if !ok {
				return nil, false
			}
			group.Operands = append(group.Operands, operand)
		}
		return group, true

	case op.Comparison():
		if len(items) != 3 || items[1].Type != gjson.String || !allow[items[1].Str] {
			return nil, false
		}
		cond := Cond{Op: op, Field: items[1].Str}
		if op == In {
			if !items[2].IsArray() {
				return nil, false
			}
			elems := items[2].Array()
			cond.Values = make([]any, 0, len(elems))
			for _, elem := range elems {
				v, ok := primitive(elem)
				if !ok {
					return nil, false
				}
				cond.Values = append(cond.Values, v)
			}
			return cond, true
		}
		v, ok := primitive(items[2])
		if !ok {
			return nil, false
		}
		cond.Value = v
		return cond, true
	}

	return nil, false
}

// primitive converts a string or number node. Integral numbers decode to
// int64 so they compare equal to integer columns.
func primitive(r gjson.Result) (any, bool) {
	switch r.Type {
	case gjson.String:
		return r.Str, true
	case gjson.Number:
		if f := r.Num; f == float64(int64(f)) && !strings.ContainsAny(r.Raw, ".eE") {
			return r.Int(), true
		}
		return r.Num, true
	}
	return nil, false
}
