package query

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/luizxsoto/checkout-api-sub000/internal/filter"
	"github.com/luizxsoto/checkout-api-sub000/internal/store"
)

var productColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"category":  "category",
	"price":     "price",
	"createdAt": "created_at",
}

func productColumn(field string) string { return productColumns[field] }

var productFields = []string{"id", "name", "category", "price", "createdAt"}

func mustParse(t *testing.T, text string) filter.Expr {
	t.Helper()
	e, err := filter.Parse(text, productFields)
	if err != nil {
		t.Fatalf("parse %s: %v", text, err)
	}
	return e
}

func TestCompile_Postgres(t *testing.T) {
	cases := []struct {
		name       string
		text       string
		wantSQL    string
		wantParams []any
	}{
		{
			name:       "equality",
			text:       `["=","category","shoes"]`,
			wantSQL:    `category = $1`,
			wantParams: []any{"shoes"},
		},
		{
			name:       "nested groups",
			text:       `["&",["=","category","shoes"],["|",[">","price",100],["<=","price",9.5]]]`,
			wantSQL:    `(category = $1 AND (price > $2 OR price <= $3))`,
			wantParams: []any{"shoes", int64(100), 9.5},
		},
		{
			name:       "negated equality",
			text:       `["!=","category","shoes"]`,
			wantSQL:    `category <> $1`,
			wantParams: []any{"shoes"},
		},
		{
			name:       "membership",
			text:       `["in","category",["shoes","clothes"]]`,
			wantSQL:    `category = ANY($1)`,
			wantParams: []any{[]any{"shoes", "clothes"}},
		},
		{
			name:       "empty membership",
			text:       `["in","category",[]]`,
			wantSQL:    `1=0`,
			wantParams: nil,
		},
		{
			name:       "pattern folds and escapes",
			text:       `[":","name","Café_100%"]`,
			wantSQL:    `lower(unaccent(CAST(name AS TEXT))) LIKE $1 ESCAPE '\'`,
			wantParams: []any{`%cafe\_100\%%`},
		},
		{
			name:       "negated pattern",
			text:       `["!:","name","x"]`,
			wantSQL:    `lower(unaccent(CAST(name AS TEXT))) NOT LIKE $1 ESCAPE '\'`,
			wantParams: []any{`%x%`},
		},
		{
			name:       "camel field maps to column",
			text:       `[">=","createdAt","2024-01-01"]`,
			wantSQL:    `created_at >= $1`,
			wantParams: []any{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		{
			name:       "timestamp with offset binds as instant",
			text:       `["in","createdAt",["2024-01-01T00:00:00-03:00"]]`,
			wantSQL:    `created_at = ANY($1)`,
			wantParams: []any{[]any{time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)}},
		},
	}

	d := store.NewDialect("postgres")
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pb := d.NewParamBuilder()
			got, err := Compile(mustParse(t, tc.text), d, pb, productColumn)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if got != tc.wantSQL {
				t.Fatalf("sql mismatch\n got: %s\nwant: %s", got, tc.wantSQL)
			}
			if diff := cmp.Diff(tc.wantParams, pb.Params()); diff != "" {
				t.Fatalf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompile_NilIsEmpty(t *testing.T) {
	d := store.NewDialect("sqlite")
	got, err := Compile(nil, d, d.NewParamBuilder(), productColumn)
	if err != nil || got != "" {
		t.Fatalf("expected empty predicate, got %q, %v", got, err)
	}
}

func TestCompile_RejectsWhatParseNeverProduces(t *testing.T) {
	d := store.NewDialect("sqlite")
	for _, e := range []filter.Expr{
		filter.Cond{Op: "~", Field: "name", Value: "x"},
		filter.Group{Op: filter.Eq, Operands: []filter.Expr{filter.Cond{Op: filter.Eq, Field: "name", Value: "x"}}},
		filter.Cond{Op: filter.Eq, Field: "password", Value: "x"},
	} {
		if _, err := Compile(e, d, d.NewParamBuilder(), productColumn); !errors.Is(err, ErrUnsupported) {
			t.Fatalf("expected ErrUnsupported for %#v, got %v", e, err)
		}
	}
}

func TestBuildSelect_Defaults(t *testing.T) {
	target := Target{Table: "products", Columns: []string{"id", "name"}, Column: productColumn}
	res, err := BuildSelect(store.NewDialect("postgres"), target, List{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "SELECT id, name FROM products WHERE deleted_at IS NULL ORDER BY created_at DESC LIMIT $1 OFFSET $2"
	if res.SQL != want {
		t.Fatalf("sql mismatch\n got: %s\nwant: %s", res.SQL, want)
	}
	if diff := cmp.Diff([]any{20, 0}, res.Params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSelect_PagingFiltersAndDeleted(t *testing.T) {
	target := Target{
		Table:   "products",
		Columns: []string{"id"},
		Column:  productColumn,
		Limits:  Limits{DefaultPerPage: 10, MaxPerPage: 50},
	}
	list := List{
		Page:           3,
		PerPage:        500,
		OrderBy:        "price",
		Order:          "ASC",
		Filters:        mustParse(t, `["=","category","shoes"]`),
		IncludeDeleted: true,
	}
	res, err := BuildSelect(store.NewDialect("sqlite"), target, list)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "SELECT id FROM products WHERE category = ?1 ORDER BY price ASC LIMIT ?2 OFFSET ?3"
	if res.SQL != want {
		t.Fatalf("sql mismatch\n got: %s\nwant: %s", res.SQL, want)
	}
	if diff := cmp.Diff([]any{"shoes", 50, 100}, res.Params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSelect_UnknownOrderField(t *testing.T) {
	target := Target{Table: "products", Columns: []string{"id"}, Column: productColumn}
	if _, err := BuildSelect(store.NewDialect("postgres"), target, List{OrderBy: "password"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestListNormalize(t *testing.T) {
	l := List{Page: -1, Order: "sideways"}.Normalize(Limits{})
	if l.Page != 1 || l.PerPage != 20 || l.OrderBy != "createdAt" || l.Order != "desc" {
		t.Fatalf("unexpected defaults %+v", l)
	}
	if got := (List{Page: 4, PerPage: 25}).Offset(); got != 75 {
		t.Fatalf("expected offset 75, got %d", got)
	}
}
