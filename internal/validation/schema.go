// Package validation evaluates declarative schemas against request models.
//
// A Schema is an ordered list of fields, each with an ordered list of rules.
// Validate runs every rule of every field, never stopping at the first
// failure, and returns a single ValidationException holding all violations
// in declaration order.
//
// Rules that need previously fetched records (Exists, Unique, typed Custom)
// read them from the data argument, an explicit per-use-case struct chosen by
// the caller. Syntactic passes pass nil.
package validation

import (
	"context"
	"strconv"
	"strings"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
)

// Field binds a model key, possibly a dot-path, to its rules.
type Field struct {
	Key   string
	Rules []Rule
}

// Schema is evaluated in declaration order.
type Schema []Field

// F is shorthand for declaring a schema field.
func F(key string, rules ...Rule) Field {
	return Field{Key: key, Rules: rules}
}

// Keys returns the field keys in declaration order.
func (s Schema) Keys() []string {
	keys := make([]string, len(s))
	for i, f := range s {
		keys[i] = f.Key
	}
	return keys
}

// Validate returns a ValidationException with every violation produced by
// schema, or nil when all rules pass.
func Validate(ctx context.Context, schema Schema, model map[string]any, data any) error {
	violations := collect(ctx, schema, model, data)
	if len(violations) > 0 {
		return apperr.Validation(violations)
	}
	return nil
}

func collect(ctx context.Context, schema Schema, model map[string]any, data any) []apperr.Violation {
	var violations []apperr.Violation
	for _, field := range schema {
		s := scope{
			key:   field.Key,
			value: Lookup(model, field.Key),
			model: model,
			data:  data,
		}
		for _, rule := range field.Rules {
			if m, ok := rule.(multiRule); ok {
				violations = append(violations, m.evaluateAll(ctx, s)...)
				continue
			}
			if v := rule.evaluate(ctx, s); v != nil {
				violations = append(violations, *v)
			}
		}
	}
	return violations
}

// Lookup resolves a dot-path such as "data.number" or "orderItems.0.productId".
func Lookup(model map[string]any, path string) any {
	if model == nil {
		return nil
	}
	if v, ok := model[path]; ok {
		return v
	}

	var current any = model
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			current = node[segment]
		case []any:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			current = node[i]
		default:
			return nil
		}
	}
	return current
}
