package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
)

// Rule is one check of the catalog. The set of rules is closed: values are
// obtained from the builder functions of this package.
type Rule interface {
	// Name is the rule name reported in violations.
	Name() string
	evaluate(ctx context.Context, s scope) *apperr.Violation
}

// multiRule is a Rule that can report several violations for one value. A
// schema collects all of them; nested rules keep the first.
type multiRule interface {
	Rule
	evaluateAll(ctx context.Context, s scope) []apperr.Violation
}

// scope is what a rule sees: the value under key, the record holding it and
// the caller's dataset.
type scope struct {
	key   string
	value any
	model map[string]any
	data  any
}

func (s scope) fail(rule, msg string, details map[string]any) *apperr.Violation {
	return &apperr.Violation{Field: s.key, Rule: rule, Message: msg, Details: details}
}

func absent(v any) bool {
	return v == nil
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// equal compares a request value with a stored one. Numbers compare by
// value regardless of their Go type, timestamps by instant.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat64(a); ok {
		fb, ok := toFloat64(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return sa == sb
		}
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
