// Package query lowers validated filter expressions into SQL predicates and
// wraps them with pagination, ordering and soft-delete exclusion.
//
// Compile trusts its input: expressions must come from filter.Parse, which
// already enforced the field allow-list and the shape of every node.
package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luizxsoto/checkout-api-sub000/internal/filter"
	"github.com/luizxsoto/checkout-api-sub000/internal/store"
)

// ErrUnsupported is returned for a node the compiler cannot lower. Parsed
// expressions never produce one.
var ErrUnsupported = errors.New("unsupported filter node")

// ColumnFunc maps a record field to its column. It returns "" for fields the
// table does not have.
type ColumnFunc func(field string) string

var comparisons = map[filter.Op]string{
	filter.Eq:  "=",
	filter.Neq: "<>",
	filter.Gt:  ">",
	filter.Gte: ">=",
	filter.Lt:  "<",
	filter.Lte: "<=",
}

// Compile renders e as a SQL boolean expression, appending its operands to pb.
// A nil expression compiles to an empty string.
func Compile(e filter.Expr, d store.Dialect, pb store.ParamBuilder, column ColumnFunc) (string, error) {
	switch node := e.(type) {
	case nil:
		return "", nil
	case filter.Group:
		return compileGroup(node, d, pb, column)
	case filter.Cond:
		return compileCond(node, d, pb, column)
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupported, e)
}

func compileGroup(g filter.Group, d store.Dialect, pb store.ParamBuilder, column ColumnFunc) (string, error) {
	var joiner, empty string
	switch g.Op {
	case filter.And:
		joiner, empty = " AND ", "1=1"
	case filter.Or:
		joiner, empty = " OR ", "1=0"
	default:
		return "", fmt.Errorf("%w: combinator %q", ErrUnsupported, g.Op)
	}
	if len(g.Operands) == 0 {
		return empty, nil
	}

	parts := make([]string, 0, len(g.Operands))
	for _, operand := range g.Operands {
		part, err := Compile(operand, d, pb, column)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return "(" + strings.Join(parts, joiner) + ")", nil
}

func compileCond(c filter.Cond, d store.Dialect, pb store.ParamBuilder, column ColumnFunc) (string, error) {
	col := column(c.Field)
	if col == "" {
		return "", fmt.Errorf("%w: unknown field %q", ErrUnsupported, c.Field)
	}

	if sqlOp, ok := comparisons[c.Op]; ok {
		return fmt.Sprintf("%s %s %s", col, sqlOp, pb.Add(operand(d, col, c.Value))), nil
	}

	switch c.Op {
	case filter.Like:
		return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, d.FoldExpr(col), pb.Add(filter.LikePattern(c.Value))), nil
	case filter.NotLike:
		return fmt.Sprintf(`%s NOT LIKE %s ESCAPE '\'`, d.FoldExpr(col), pb.Add(filter.LikePattern(c.Value))), nil
	case filter.In:
		if len(c.Values) == 0 {
			return "1=0", nil
		}
		values := make([]any, len(c.Values))
		for i, v := range c.Values {
			values[i] = operand(d, col, v)
		}
		return d.InExpr(col, pb, values), nil
	}
	return "", fmt.Errorf("%w: operator %q", ErrUnsupported, c.Op)
}

// operand encodes a value compared against col. Dates and timestamps on
// *_at columns are bound in the dialect's storage form, so they compare as
// instants rather than as the text the client sent.
func operand(d store.Dialect, col string, v any) any {
	if !strings.HasSuffix(col, "_at") {
		return v
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return d.TimeParam(t)
		}
	}
	return v
}
