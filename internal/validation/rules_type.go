package validation

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
)

type requiredRule struct{}

// Required fails when the value is absent, null, an empty string or an
// empty collection.
func Required() Rule { return requiredRule{} }

func (requiredRule) Name() string { return "required" }

func (r requiredRule) evaluate(_ context.Context, s scope) *apperr.Violation {
	empty := false
	switch v := s.value.(type) {
	case nil:
		empty = true
	case string:
		empty = v == ""
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Map, reflect.Array:
			empty = rv.Len() == 0
		}
	}
	if empty {
		return s.fail(r.Name(), "This value is required", nil)
	}
	return nil
}

type stringRule struct{}

func String() Rule { return stringRule{} }

func (stringRule) Name() string { return "string" }

func (r stringRule) evaluate(_ context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	if _, ok := s.value.(string); !ok {
		return s.fail(r.Name(), "This value must be a string", nil)
	}
	return nil
}

type numberRule struct{}

func Number() Rule { return numberRule{} }

func (numberRule) Name() string { return "number" }

func (r numberRule) evaluate(_ context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	if f, ok := toFloat64(s.value); !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return s.fail(r.Name(), "This value must be a number", nil)
	}
	return nil
}

type integerRule struct{}

func Integer() Rule { return integerRule{} }

func (integerRule) Name() string { return "integer" }

func (r integerRule) evaluate(_ context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	f, ok := toFloat64(s.value)
	if !ok || math.IsInf(f, 0) || f != math.Trunc(f) {
		return s.fail(r.Name(), "This value must be an integer", nil)
	}
	return nil
}

var integerStringRE = regexp.MustCompile(`^-?\d+$`)

type integerStringRule struct{}

// IntegerString accepts strings holding an integer literal, as query
// parameters do.
func IntegerString() Rule { return integerStringRule{} }

func (integerStringRule) Name() string { return "integerString" }

func (r integerStringRule) evaluate(_ context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	str, ok := s.value.(string)
	if !ok || !integerStringRE.MatchString(str) {
		return s.fail(r.Name(), "This value must be an integer in a string", nil)
	}
	return nil
}

type dateRule struct{}

// Date accepts RFC 3339 timestamps and YYYY-MM-DD dates.
func Date() Rule { return dateRule{} }

func (dateRule) Name() string { return "date" }

func (r dateRule) evaluate(_ context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	if _, ok := s.value.(time.Time); ok {
		return nil
	}
	str, ok := s.value.(string)
	if ok {
		if _, err := time.Parse(time.RFC3339, str); err == nil {
			return nil
		}
		if _, err := time.Parse(time.DateOnly, str); err == nil {
			return nil
		}
	}
	return s.fail(r.Name(), "This value must be a valid date", nil)
}

type lengthRule struct {
	min, max int
}

// Length bounds the rune count of a string or the size of a list.
func Length(min, max int) Rule { return lengthRule{min: min, max: max} }

func (lengthRule) Name() string { return "length" }

func (r lengthRule) evaluate(_ context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	var n int
	switch v := s.value.(type) {
	case string:
		n = utf8.RuneCountInString(v)
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil
		}
		n = rv.Len()
	}
	if n < r.min || n > r.max {
		return s.fail(r.Name(),
			fmt.Sprintf("This value length must be between %d and %d", r.min, r.max),
			map[string]any{"minLength": r.min, "maxLength": r.max})
	}
	return nil
}

type regexRule struct {
	pattern string
	re      *regexp2.Regexp
	err     error
}

// Regex checks a string against a named pattern of the dictionary.
func Regex(name PatternName) Rule {
	re, ok := compiledPatterns[name]
	if !ok {
		return regexRule{pattern: string(name), err: fmt.Errorf("unknown pattern %q", name)}
	}
	return regexRule{pattern: patterns[name], re: re}
}

// Pattern checks a string against a caller-supplied ECMAScript pattern.
func Pattern(src string) Rule {
	re, err := regexp2.Compile(src, regexp2.ECMAScript)
	if err != nil {
		return regexRule{pattern: src, err: err}
	}
	return regexRule{pattern: src, re: compilePattern(re)}
}

func (regexRule) Name() string { return "regex" }

func (r regexRule) evaluate(_ context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	details := map[string]any{"pattern": r.pattern}
	msg := fmt.Sprintf("This value must match the pattern %s", r.pattern)
	str, ok := s.value.(string)
	if !ok || r.err != nil {
		return s.fail(r.Name(), msg, details)
	}
	matched, err := r.re.MatchString(str)
	if err != nil || !matched {
		return s.fail(r.Name(), msg, details)
	}
	return nil
}

type inRule struct {
	values []any
}

// In restricts the value to the given set.
func In[T any](values ...T) Rule {
	r := inRule{values: make([]any, len(values))}
	for i, v := range values {
		r.values[i] = v
	}
	return r
}

func (inRule) Name() string { return "in" }

func (r inRule) evaluate(_ context.Context, s scope) *apperr.Violation {
	if absent(s.value) {
		return nil
	}
	for _, allowed := range r.values {
		if equal(s.value, allowed) {
			return nil
		}
	}
	parts := make([]string, len(r.values))
	for i, v := range r.values {
		parts[i] = fmt.Sprint(v)
	}
	return s.fail(r.Name(),
		fmt.Sprintf("This value must be one of: %s", strings.Join(parts, ", ")),
		map[string]any{"values": r.values})
}
