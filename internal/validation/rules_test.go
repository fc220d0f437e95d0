package validation

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
)

// check runs a single rule against value under the key "field".
func check(t *testing.T, rule Rule, value any) []apperr.Violation {
	t.Helper()
	return checkWith(t, Schema{F("field", rule)}, map[string]any{"field": value}, nil)
}

func checkWith(t *testing.T, schema Schema, model map[string]any, data any) []apperr.Violation {
	t.Helper()
	err := Validate(context.Background(), schema, model, data)
	if err == nil {
		return nil
	}
	violations, ok := apperr.AsValidation(err)
	if !ok {
		t.Fatalf("expected ValidationException, got %T: %v", err, err)
	}
	return violations
}

func expectPass(t *testing.T, rule Rule, values ...any) {
	t.Helper()
	for _, v := range values {
		if got := check(t, rule, v); len(got) != 0 {
			t.Fatalf("%s: expected pass for %#v, got %+v", rule.Name(), v, got)
		}
	}
}

func expectFail(t *testing.T, rule Rule, values ...any) {
	t.Helper()
	for _, v := range values {
		got := check(t, rule, v)
		if len(got) != 1 {
			t.Fatalf("%s: expected one violation for %#v, got %+v", rule.Name(), v, got)
		}
		if got[0].Rule != rule.Name() {
			t.Fatalf("expected rule=%s, got %s", rule.Name(), got[0].Rule)
		}
		if got[0].Field != "field" {
			t.Fatalf("expected field=field, got %s", got[0].Field)
		}
	}
}

func TestRequired(t *testing.T) {
	expectFail(t, Required(), nil, "", []any{}, map[string]any{})
	expectPass(t, Required(), "x", float64(0), false, []any{1})

	// Absent key behaves like nil
	got := checkWith(t, Schema{F("name", Required())}, map[string]any{}, nil)
	if len(got) != 1 || got[0].Field != "name" {
		t.Fatalf("expected required violation on name, got %+v", got)
	}
}

func TestTypeRules_SkipAbsentValues(t *testing.T) {
	for _, rule := range []Rule{String(), Number(), Integer(), IntegerString(), Date(), Length(1, 2), Regex(PatternEmail), In("a"), Array(), Object(nil), Distinct()} {
		expectPass(t, rule, nil)
	}
}

func TestString(t *testing.T) {
	expectPass(t, String(), "", "abc")
	expectFail(t, String(), float64(1), true, []any{"a"})
}

func TestNumberAndInteger(t *testing.T) {
	expectPass(t, Number(), float64(1.5), int64(3), 0)
	expectFail(t, Number(), "1", true)

	expectPass(t, Integer(), float64(3), int64(-2), 0)
	expectFail(t, Integer(), float64(1.5), "3")
}

func TestIntegerString(t *testing.T) {
	expectPass(t, IntegerString(), "0", "42", "-7")
	expectFail(t, IntegerString(), "4.2", "abc", "", float64(4))
}

func TestDate(t *testing.T) {
	expectPass(t, Date(), "2024-01-31", "2024-01-31T10:00:00Z")
	expectFail(t, Date(), "31/01/2024", "2024-13-01", float64(1))
}

func TestLength(t *testing.T) {
	rule := Length(2, 4)
	expectPass(t, rule, "ab", "abcd", "çãõé", []any{1, 2})
	expectFail(t, rule, "a", "abcde", []any{1}, []any{1, 2, 3, 4, 5})

	got := check(t, rule, "a")
	if got[0].Details["minLength"] != 2 || got[0].Details["maxLength"] != 4 {
		t.Fatalf("expected length bounds in details, got %v", got[0].Details)
	}
}

func TestRegex_Dictionary(t *testing.T) {
	expectPass(t, Regex(PatternPersonName), "John", "José da Silva")
	expectFail(t, Regex(PatternPersonName), "John  Doe", "R2D2", " John")

	expectPass(t, Regex(PatternEmail), "john@mail.com", "first.last+tag@sub.domain.io")
	expectFail(t, Regex(PatternEmail), "john", "john@", "john@mail")

	expectPass(t, Regex(PatternPassword), "Secret@1", "Abcde1!")
	expectFail(t, Regex(PatternPassword), "secret@1", "Secret1", "S@1a")

	expectPass(t, Regex(PatternUUIDv4), uuid.New().String())
	expectFail(t, Regex(PatternUUIDv4), "00000000-0000-1000-8000-000000000000", "not-a-uuid")

	expectPass(t, Regex(PatternURL), "https://cdn.example.com/img/1.png", "http://localhost:3000")
	expectFail(t, Regex(PatternURL), "ftp://x.com", "example.com")
}

func TestRegex_EchoesPattern(t *testing.T) {
	got := check(t, Regex(PatternEmail), "nope")
	if got[0].Details["pattern"] != patterns[PatternEmail] {
		t.Fatalf("expected pattern in details, got %v", got[0].Details)
	}

	custom := Pattern(`^[A-Z]{3}$`)
	expectPass(t, custom, "ABC")
	got = check(t, custom, "abc")
	if got[0].Details["pattern"] != `^[A-Z]{3}$` {
		t.Fatalf("expected custom pattern in details, got %v", got[0].Details)
	}
}

func TestRegex_InvalidPatternAlwaysFails(t *testing.T) {
	expectFail(t, Pattern(`([`), "anything")
	expectFail(t, Regex("unknown"), "anything")
}

func TestIn(t *testing.T) {
	expectPass(t, In("PAID", "NOT_PAID"), "PAID")
	expectFail(t, In("PAID", "NOT_PAID"), "REFUNDED", "paid")
	expectPass(t, In(1, 2), float64(2))
}

func TestArray_PrefixesElementIndex(t *testing.T) {
	got := checkWith(t, Schema{F("tags", Array(String(), Length(1, 3)))},
		map[string]any{"tags": []any{"a", "bb", float64(3), "toolong"}}, nil)
	if len(got) != 1 {
		t.Fatalf("expected the first element violation only, got %+v", got)
	}
	if got[0].Field != "tags.2" || got[0].Rule != "string" {
		t.Fatalf("expected tags.2/string, got %s/%s", got[0].Field, got[0].Rule)
	}

	expectFail(t, Array(String()), "not a list")
}

func TestObjectInsideArray(t *testing.T) {
	items := Schema{
		F("productId", Required(), Regex(PatternUUIDv4)),
		F("quantity", Required(), Integer()),
	}
	model := map[string]any{
		"orderItems": []any{
			map[string]any{"productId": uuid.New().String(), "quantity": float64(1)},
			map[string]any{"productId": "bad", "quantity": float64(1)},
		},
	}
	got := checkWith(t, Schema{F("orderItems", Array(Object(items)))}, model, nil)
	if len(got) != 1 || got[0].Field != "orderItems.1.productId" || got[0].Rule != "regex" {
		t.Fatalf("expected orderItems.1.productId regex violation, got %+v", got)
	}

	expectFail(t, Object(items), "not an object")
}

func TestDistinct(t *testing.T) {
	rule := Distinct("productId")
	expectPass(t, rule, []any{
		map[string]any{"productId": "a", "quantity": float64(1)},
		map[string]any{"productId": "b", "quantity": float64(1)},
	})
	expectFail(t, rule, []any{
		map[string]any{"productId": "a", "quantity": float64(1)},
		map[string]any{"productId": "b"},
		map[string]any{"productId": "a", "quantity": float64(2)},
	})

	expectPass(t, Distinct(), []any{"a", "b"})
	expectFail(t, Distinct(), []any{"a", "b", "a"})
}

type userData struct {
	Users []map[string]any
}

func users(d userData) []map[string]any { return d.Users }

func TestExists(t *testing.T) {
	data := userData{Users: []map[string]any{
		{"id": "u1", "email": "a@mail.com"},
		{"id": "u2", "email": "b@mail.com"},
	}}
	schema := Schema{F("userId", Exists("users", users, []Pair{On("userId", "id")}))}

	if got := checkWith(t, schema, map[string]any{"userId": "u2"}, data); len(got) != 0 {
		t.Fatalf("expected pass, got %+v", got)
	}
	got := checkWith(t, schema, map[string]any{"userId": "u3"}, data)
	if len(got) != 1 || got[0].Rule != "exists" || got[0].Details["entity"] != "users" {
		t.Fatalf("expected exists violation, got %+v", got)
	}

	// A dataset of another type behaves as empty
	if got := checkWith(t, schema, map[string]any{"userId": "u2"}, nil); len(got) != 1 {
		t.Fatalf("expected exists violation without data, got %+v", got)
	}
}

func TestExists_AllPairsMustMatch(t *testing.T) {
	data := userData{Users: []map[string]any{{"id": "u1", "email": "a@mail.com"}}}
	schema := Schema{F("email", Exists("users", users, []Pair{On("id", "id"), On("email", "email")}))}

	if got := checkWith(t, schema, map[string]any{"id": "u1", "email": "a@mail.com"}, data); len(got) != 0 {
		t.Fatalf("expected pass, got %+v", got)
	}
	if got := checkWith(t, schema, map[string]any{"id": "u2", "email": "a@mail.com"}, data); len(got) != 1 {
		t.Fatalf("expected violation when only one pair matches, got %+v", got)
	}
}

func TestExists_IgnoredSelfStillCounts(t *testing.T) {
	data := userData{Users: []map[string]any{{"id": "u1", "email": "a@mail.com"}}}
	schema := Schema{F("id", Exists("users", users, []Pair{On("id", "id")}, On("id", "id")))}

	if got := checkWith(t, schema, map[string]any{"id": "u1"}, data); len(got) != 0 {
		t.Fatalf("expected pass for self-update, got %+v", got)
	}
}

func TestUnique_IgnoresRecordBeingUpdated(t *testing.T) {
	data := userData{Users: []map[string]any{
		{"id": "u1", "email": "a@mail.com"},
		{"id": "u2", "email": "b@mail.com"},
	}}
	schema := Schema{F("email", Unique("users", users, []Pair{On("email", "email")}, On("id", "id")))}

	// Own email on self-update
	if got := checkWith(t, schema, map[string]any{"id": "u1", "email": "a@mail.com"}, data); len(got) != 0 {
		t.Fatalf("expected pass for own email, got %+v", got)
	}
	// Someone else's email
	got := checkWith(t, schema, map[string]any{"id": "u1", "email": "b@mail.com"}, data)
	if len(got) != 1 || got[0].Rule != "unique" {
		t.Fatalf("expected unique violation, got %+v", got)
	}
	// Fresh email
	if got := checkWith(t, schema, map[string]any{"id": "u1", "email": "c@mail.com"}, data); len(got) != 0 {
		t.Fatalf("expected pass for new email, got %+v", got)
	}
}

func TestUnique_WithoutIgnore(t *testing.T) {
	data := userData{Users: []map[string]any{{"id": "u1", "email": "a@mail.com"}}}
	schema := Schema{F("email", Unique("users", users, []Pair{On("email", "email")}))}
	if got := checkWith(t, schema, map[string]any{"email": "a@mail.com"}, data); len(got) != 1 {
		t.Fatalf("expected unique violation, got %+v", got)
	}
}

func TestCustom_TypedData(t *testing.T) {
	rule := Custom("password", "Wrong password", func(_ context.Context, value any, _ map[string]any, d userData) bool {
		return len(d.Users) == 1 && d.Users[0]["password"] == value
	})
	data := userData{Users: []map[string]any{{"password": "s3cret"}}}

	if got := checkWith(t, Schema{F("password", rule)}, map[string]any{"password": "s3cret"}, data); len(got) != 0 {
		t.Fatalf("expected pass, got %+v", got)
	}
	got := checkWith(t, Schema{F("password", rule)}, map[string]any{"password": "nope"}, data)
	if len(got) != 1 || got[0].Rule != "password" || got[0].Message != "Wrong password" {
		t.Fatalf("expected custom violation, got %+v", got)
	}
}

func TestExpression(t *testing.T) {
	rule := Expression("positive", "Must be positive", "value > 0")
	expectPass(t, rule, float64(1))
	expectFail(t, rule, float64(0))

	crossField := Expression("lessThanMax", "Must not exceed max", "value <= model.max")
	got := checkWith(t, Schema{F("min", crossField)}, map[string]any{"min": float64(5), "max": float64(3)}, nil)
	if len(got) != 1 {
		t.Fatalf("expected violation, got %+v", got)
	}

	broken := Expression("broken", "never", "value >")
	got = check(t, broken, float64(1))
	if len(got) != 1 || got[0].Details["expression"] != "value >" {
		t.Fatalf("expected compile failure to surface as violation, got %+v", got)
	}
}
