// Package filter implements the filter expression language used by list
// endpoints: a JSON nested-array grammar such as
//
//	["&", ["=", "category", "shoes"], ["in", "price", [100, 200]]]
//
// Parse is the only way to obtain an Expr, so every Expr handed to the query
// compiler has already passed the operator, arity and allow-list checks.
package filter

// Op is an operator token of the grammar.
type Op string

const (
	And     Op = "&"
	Or      Op = "|"
	Eq      Op = "="
	Neq     Op = "!="
	Gt      Op = ">"
	Gte     Op = ">="
	Lt      Op = "<"
	Lte     Op = "<="
	Like    Op = ":"
	NotLike Op = "!:"
	In      Op = "in"
)

// Combinator reports whether op joins sub-expressions.
func (op Op) Combinator() bool {
	return op == And || op == Or
}

// Comparison reports whether op is a leaf operator.
func (op Op) Comparison() bool {
	switch op {
	case Eq, Neq, Gt, Gte, Lt, Lte, Like, NotLike, In:
		return true
	}
	return false
}

// Expr is a parsed, validated filter expression: either a Group or a Cond.
type Expr interface {
	isExpr()
}

// Group joins one or more operands with And or Or.
type Group struct {
	Op       Op
	Operands []Expr
}

// Cond is a leaf comparison. Value holds the primitive for every operator
// except In, which uses Values.
type Cond struct {
	Op     Op
	Field  string
	Value  any
	Values []any
}

func (Group) isExpr() {}
func (Cond) isExpr()  {}

// Walk calls fn for every Cond in expression order.
func Walk(e Expr, fn func(Cond)) {
	switch n := e.(type) {
	case Group:
		for _, operand := range n.Operands {
			Walk(operand, fn)
		}
	case Cond:
		fn(n)
	}
}
