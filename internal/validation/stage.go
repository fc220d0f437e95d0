package validation

import (
	"context"
	"fmt"
)

// Stage is one validation pass over In. It either finishes the validation
// or hands back the next stage, which the caller runs once it has gathered
// that stage's input (usually records fetched from repositories).
type Stage[In any] func(ctx context.Context, in In) (Outcome, error)

// Outcome is the result of a successful stage: Done, or Continue with the
// next stage.
type Outcome struct {
	next any
}

// Done ends the validation.
func Done() Outcome { return Outcome{} }

// Continue defers to next.
func Continue[In any](next Stage[In]) Outcome { return Outcome{next: next} }

// IsDone reports whether no stage remains.
func (o Outcome) IsDone() bool { return o.next == nil }

// Next returns the pending stage if it accepts In.
func Next[In any](o Outcome) (Stage[In], bool) {
	next, ok := o.next.(Stage[In])
	return next, ok
}

// Resume runs the pending stage of o with in.
func Resume[In any](ctx context.Context, o Outcome, in In) (Outcome, error) {
	if o.IsDone() {
		return Done(), fmt.Errorf("validation: resume called on a finished validation")
	}
	next, ok := Next[In](o)
	if !ok {
		return Done(), fmt.Errorf("validation: next stage does not accept %T", in)
	}
	return next(ctx, in)
}

// Check runs schema and, only when it passes, then. A nil then finishes.
func Check(ctx context.Context, schema Schema, model map[string]any, data any, then func() Outcome) (Outcome, error) {
	if err := Validate(ctx, schema, model, data); err != nil {
		return Done(), err
	}
	if then == nil {
		return Done(), nil
	}
	return then(), nil
}

// Run executes the first stage of a validation.
func Run[In any](ctx context.Context, stage Stage[In], in In) (Outcome, error) {
	if stage == nil {
		return Done(), nil
	}
	return stage(ctx, in)
}
