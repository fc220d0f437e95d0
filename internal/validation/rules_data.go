package validation

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
)

// Pair links a model key to the column of a fetched record it must equal.
type Pair struct {
	ModelKey string
	DataKey  string
}

// On is shorthand for a Pair.
func On(modelKey, dataKey string) Pair {
	return Pair{ModelKey: modelKey, DataKey: dataKey}
}

// Collection reads one entity's records from a typed dataset.
type Collection[D any] func(D) []map[string]any

func (c Collection[D]) records(data any) []map[string]any {
	d, ok := data.(D)
	if !ok || c == nil {
		return nil
	}
	return c(d)
}

func matchesAll(model, record map[string]any, pairs []Pair) bool {
	if len(pairs) == 0 {
		return false
	}
	for _, p := range pairs {
		if !equal(Lookup(model, p.ModelKey), Lookup(record, p.DataKey)) {
			return false
		}
	}
	return true
}

type crossEntityRule struct {
	name   string
	entity string
	pairs  []Pair
	ignore []Pair
	from   func(data any) []map[string]any
}

// Exists fails unless a record of the collection matches the model on every
// pair. Records matched by ignore still count, so a self-update never fails.
func Exists[D any](entity string, from Collection[D], pairs []Pair, ignore ...Pair) Rule {
	return crossEntityRule{name: "exists", entity: entity, pairs: pairs, ignore: ignore, from: from.records}
}

// Unique fails when a record of the collection matches the model on every
// pair, ignoring records that match on every ignore pair (the record being
// updated).
func Unique[D any](entity string, from Collection[D], pairs []Pair, ignore ...Pair) Rule {
	return crossEntityRule{name: "unique", entity: entity, pairs: pairs, ignore: ignore, from: from.records}
}

func (r crossEntityRule) Name() string { return r.name }

func (r crossEntityRule) evaluate(_ context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	found := false
	for _, record := range r.from(s.data) {
		if !matchesAll(s.model, record, r.pairs) {
			continue
		}
		if r.name == "unique" && len(r.ignore) > 0 && matchesAll(s.model, record, r.ignore) {
			continue
		}
		found = true
		break
	}

	details := map[string]any{"entity": r.entity, "value": s.value}
	switch {
	case r.name == "exists" && !found:
		return s.fail(r.name, fmt.Sprintf("This value was not found in %s", r.entity), details)
	case r.name == "unique" && found:
		return s.fail(r.name, fmt.Sprintf("This value already exists in %s", r.entity), details)
	}
	return nil
}

type customRule struct {
	name    string
	message string
	pred    func(ctx context.Context, value any, model map[string]any, data any) bool
}

// Custom fails when pred returns false. The dataset is handed to pred typed;
// a nil or foreign dataset arrives as the zero D.
func Custom[D any](name, message string, pred func(ctx context.Context, value any, model map[string]any, data D) bool) Rule {
	return customRule{
		name:    name,
		message: message,
		pred: func(ctx context.Context, value any, model map[string]any, data any) bool {
			d, _ := data.(D)
			return pred(ctx, value, model, d)
		},
	}
}

func (r customRule) Name() string { return r.name }

func (r customRule) evaluate(ctx context.Context, s scope) *apperr.Violation {
	if r.pred(ctx, s.value, s.model, s.data) {
		return nil
	}
	return s.fail(r.name, r.message, nil)
}

type expressionRule struct {
	name    string
	message string
	source  string
	program *vm.Program
	err     error
}

// Expression is a Custom rule written in expr-lang. The expression sees
// `value` and `model` and must evaluate to true for the value to pass.
func Expression(name, message, source string) Rule {
	prog, err := expr.Compile(source, expr.AsBool())
	if err != nil {
		err = fmt.Errorf("compile expression: %w", err)
	}
	return expressionRule{name: name, message: message, source: source, program: prog, err: err}
}

func (r expressionRule) Name() string { return r.name }

func (r expressionRule) evaluate(_ context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	if r.err != nil {
		return s.fail(r.name, r.err.Error(), map[string]any{"expression": r.source})
	}
	result, err := expr.Run(r.program, map[string]any{"value": s.value, "model": s.model})
	if err != nil {
		return s.fail(r.name, fmt.Sprintf("rule evaluation error: %v", err), map[string]any{"expression": r.source})
	}
	if ok, _ := result.(bool); ok {
		return nil
	}
	return s.fail(r.name, r.message, map[string]any{"expression": r.source})
}
