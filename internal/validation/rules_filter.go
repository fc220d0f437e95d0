package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
	"github.com/luizxsoto/checkout-api-sub000/internal/filter"
)

type listFiltersRule struct {
	schema Schema
}

// ListFilters validates a filter expression string over the fields of
// schema. Structural problems yield one listFilters violation; the values
// used against each field are then checked with that field's own rules,
// yielding one violation per failing field.
func ListFilters(schema Schema) Rule { return listFiltersRule{schema: schema} }

func (listFiltersRule) Name() string { return "listFilters" }

func (r listFiltersRule) evaluate(ctx context.Context, s scope) *apperr.Violation {
	if violations := r.evaluateAll(ctx, s); len(violations) > 0 {
		return &violations[0]
	}
	return nil
}

func (r listFiltersRule) evaluateAll(ctx context.Context, s scope) []apperr.Violation {
	if absent(s.value) {
		return nil
	}
	fields := r.schema.Keys()
	fail := s.fail(r.Name(),
		fmt.Sprintf("This value must be a valid filter expression over the fields: %s", strings.Join(fields, ", ")),
		map[string]any{"fields": fields})

	text, ok := s.value.(string)
	if !ok {
		return []apperr.Violation{*fail}
	}
	expr, err := filter.Parse(text, fields)
	if err != nil {
		return []apperr.Violation{*fail}
	}
	if expr == nil {
		return nil
	}

	violations := collect(ctx, BucketSchema(r.schema), filter.Values(expr).Model(), s.data)
	for i := range violations {
		violations[i] = violations[i].Prefixed(s.key)
	}
	return violations
}

// BucketSchema wraps each field's rules in Array, since a filter bucket holds
// any number of values per field.
func BucketSchema(schema Schema) Schema {
	out := make(Schema, len(schema))
	for i, f := range schema {
		out[i] = Field{Key: f.Key, Rules: []Rule{Array(f.Rules...)}}
	}
	return out
}
