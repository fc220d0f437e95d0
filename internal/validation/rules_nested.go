package validation

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
)

type arrayRule struct {
	rules []Rule
}

// Array requires a list and applies rules to every element. The first
// element violation is reported, its field prefixed with the element index.
func Array(rules ...Rule) Rule { return arrayRule{rules: rules} }

func (arrayRule) Name() string { return "array" }

func (r arrayRule) evaluate(ctx context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	items, ok := asList(s.value)
	if !ok {
		return s.fail(r.Name(), "This value must be an array", nil)
	}
	for i, item := range items {
		elem := scope{key: strconv.Itoa(i), value: item, model: s.model, data: s.data}
		for _, rule := range r.rules {
			if v := rule.evaluate(ctx, elem); v != nil {
				nested := v.Prefixed(s.key)
				return &nested
			}
		}
	}
	return nil
}

type objectRule struct {
	schema Schema
}

// Object requires a record and validates it with schema; rules inside see
// the record as their model.
func Object(schema Schema) Rule { return objectRule{schema: schema} }

func (objectRule) Name() string { return "object" }

func (r objectRule) evaluate(ctx context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	record, ok := s.value.(map[string]any)
	if !ok {
		return s.fail(r.Name(), "This value must be an object", nil)
	}
	if violations := collect(ctx, r.schema, record, s.data); len(violations) > 0 {
		nested := violations[0].Prefixed(s.key)
		return &nested
	}
	return nil
}

type distinctRule struct {
	keys []string
}

// Distinct fails when two elements of a list hold equal values on every key.
// Without keys the elements themselves are compared.
func Distinct(keys ...string) Rule { return distinctRule{keys: keys} }

func (distinctRule) Name() string { return "distinct" }

func (r distinctRule) evaluate(_ context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	items, ok := asList(s.value)
	if !ok {
		return nil
	}
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if r.same(items[i], items[j]) {
				msg := "This value must not have duplicated items"
				if len(r.keys) > 0 {
					msg = fmt.Sprintf("This value must not have items with the same %s", strings.Join(r.keys, ", "))
				}
				return s.fail(r.Name(), msg, map[string]any{"keys": r.keys, "index": j})
			}
		}
	}
	return nil
}

func (r distinctRule) same(a, b any) bool {
	if len(r.keys) == 0 {
		return equal(a, b)
	}
	ma, okA := a.(map[string]any)
	mb, okB := b.(map[string]any)
	if !okA || !okB {
		return false
	}
	for _, k := range r.keys {
		if !equal(Lookup(ma, k), Lookup(mb, k)) {
			return false
		}
	}
	return true
}

func asList(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
