// Package listing turns list query-string parameters into a validated
// query.List.
package listing

import (
	"context"
	"strconv"

	"github.com/luizxsoto/checkout-api-sub000/internal/filter"
	"github.com/luizxsoto/checkout-api-sub000/internal/query"
	"github.com/luizxsoto/checkout-api-sub000/internal/validation"
)

// Params are the raw list parameters of a request.
type Params struct {
	Page    string `query:"page"`
	PerPage string `query:"perPage"`
	OrderBy string `query:"orderBy"`
	Order   string `query:"order"`
	Filters string `query:"filters"`
}

func (p Params) model() map[string]any {
	m := map[string]any{}
	for k, v := range map[string]string{
		"page": p.Page, "perPage": p.PerPage, "orderBy": p.OrderBy, "order": p.Order, "filters": p.Filters,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// Schema is the list schema for a resource whose filterable fields are
// described by fields. Every filterable field can be used in orderBy.
func Schema(fields validation.Schema) validation.Schema {
	orderable := fields.Keys()
	return validation.Schema{
		validation.F("page", validation.IntegerString()),
		validation.F("perPage", validation.IntegerString()),
		validation.F("orderBy", validation.String(), validation.In(orderable...)),
		validation.F("order", validation.String(), validation.In("asc", "desc")),
		validation.F("filters", validation.String(), validation.ListFilters(fields)),
	}
}

// Parse validates p against the list schema of fields and builds the query.
func Parse(ctx context.Context, p Params, fields validation.Schema) (query.List, error) {
	if err := validation.Validate(ctx, Schema(fields), p.model(), nil); err != nil {
		return query.List{}, err
	}

	list := query.List{OrderBy: p.OrderBy, Order: p.Order}
	list.Page, _ = strconv.Atoi(p.Page)
	list.PerPage, _ = strconv.Atoi(p.PerPage)
	if p.Filters != "" {
		expr, err := filter.Parse(p.Filters, fields.Keys())
		if err != nil {
			return query.List{}, err
		}
		list.Filters = expr
	}
	return list, nil
}

// Restrict ANDs an equality on field into the list filters.
func Restrict(list query.List, field string, value any) query.List {
	cond := filter.Cond{Op: filter.Eq, Field: field, Value: value}
	if list.Filters == nil {
		list.Filters = cond
		return list
	}
	list.Filters = filter.Group{Op: filter.And, Operands: []filter.Expr{list.Filters, cond}}
	return list
}
