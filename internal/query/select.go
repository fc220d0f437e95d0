package query

import (
	"fmt"
	"strings"

	"github.com/luizxsoto/checkout-api-sub000/internal/filter"
	"github.com/luizxsoto/checkout-api-sub000/internal/store"
)

const (
	DefaultOrderBy = "createdAt"
	DefaultOrder   = "desc"
)

// Limits bounds the page size of list queries.
type Limits struct {
	DefaultPerPage int
	MaxPerPage     int
}

// DefaultLimits applies when a Target carries none.
var DefaultLimits = Limits{DefaultPerPage: 20, MaxPerPage: 100}

// List describes one page of a list query. Zero values take the defaults.
type List struct {
	Page           int
	PerPage        int
	OrderBy        string
	Order          string
	Filters        filter.Expr
	IncludeDeleted bool
}

// Normalize fills defaults and clamps the page size.
func (l List) Normalize(limits Limits) List {
	if limits.DefaultPerPage <= 0 {
		limits = DefaultLimits
	}
	if l.Page < 1 {
		l.Page = 1
	}
	if l.PerPage < 1 {
		l.PerPage = limits.DefaultPerPage
	}
	if limits.MaxPerPage > 0 && l.PerPage > limits.MaxPerPage {
		l.PerPage = limits.MaxPerPage
	}
	if l.OrderBy == "" {
		l.OrderBy = DefaultOrderBy
	}
	l.Order = strings.ToLower(l.Order)
	if l.Order != "asc" {
		l.Order = DefaultOrder
	}
	return l
}

// Offset is the number of rows skipped before the page.
func (l List) Offset() int {
	return (l.Page - 1) * l.PerPage
}

// Target is the table a list query reads.
type Target struct {
	Table   string
	Columns []string
	Column  ColumnFunc
	Limits  Limits
}

type Result struct {
	SQL    string
	Params []any
}

// BuildSelect renders the page query for l. Soft-deleted rows are excluded
// unless l.IncludeDeleted is set.
func BuildSelect(d store.Dialect, t Target, l List) (Result, error) {
	l = l.Normalize(t.Limits)
	pb := d.NewParamBuilder()

	var where []string
	if !l.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	predicate, err := Compile(l.Filters, d, pb, t.Column)
	if err != nil {
		return Result{}, err
	}
	if predicate != "" {
		where = append(where, predicate)
	}

	orderCol := t.Column(l.OrderBy)
	if orderCol == "" {
		return Result{}, fmt.Errorf("%w: unknown order field %q", ErrUnsupported, l.OrderBy)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(t.Columns, ", "), t.Table)
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += fmt.Sprintf(" ORDER BY %s %s", orderCol, strings.ToUpper(l.Order))

	limit := pb.Add(l.PerPage)
	offset := pb.Add(l.Offset())
	sql += fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)

	return Result{SQL: sql, Params: pb.Params()}, nil
}
