package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Expr is a typed query expression node.
type Expr interface {
	fmt.Stringer
	expr()
}

// P is a predicate: a boolean-valued expression.
type P interface {
	Expr
	// Negate returns the negation of the predicate.
	Negate() P
}

// Op is a binary, n-ary or unary operator.
type Op int

const (
	// OpEQ through OpLTE are the comparison operators.
	OpEQ Op = iota
	OpNEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
	// OpAnd, OpOr and OpNot are the boolean connectors.
	OpAnd
	OpOr
	OpNot
	// OpIn and OpNotIn test list membership.
	OpIn
	OpNotIn
	// OpAdd through OpMod are the arithmetic operators.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

var ops = [...]string{
	OpEQ:    "==",
	OpNEQ:   "!=",
	OpGT:    ">",
	OpGTE:   ">=",
	OpLT:    "<",
	OpLTE:   "<=",
	OpAnd:   "&&",
	OpOr:    "||",
	OpNot:   "!",
	OpIn:    "in",
	OpNotIn: "not in",
	OpAdd:   "+",
	OpSub:   "-",
	OpMul:   "*",
	OpDiv:   "/",
	OpMod:   "%",
}

// String returns the textual form of the operator.
func (o Op) String() string {
	if o >= 0 && int(o) < len(ops) {
		return ops[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Func is a function usable in call expressions. Translators decide
// which functions are legal in which clause.
type Func string

const (
	// String predicates.
	FuncContains     Func = "contains"
	FuncContainsFold Func = "contains_fold"
	FuncEqualFold    Func = "equal_fold"
	FuncHasPrefix    Func = "has_prefix"
	FuncHasSuffix    Func = "has_suffix"
	// Relationship existence.
	FuncHasRel Func = "has_rel"
	// String transforms, legal in projections and ordering.
	FuncUpper Func = "upper"
	FuncLower Func = "lower"
	FuncTrim  Func = "trim"
	// Aggregates, legal in projections.
	FuncCount Func = "count"
	FuncSum   Func = "sum"
	FuncAvg   Func = "avg"
	FuncMin   Func = "min"
	FuncMax   Func = "max"
)

type (
	// Field is a property access on the row binding. Dotted names reach
	// into complex properties: "home.street".
	Field struct {
		Name string
	}

	// Value is a constant. Translators lift every Value into a named
	// parameter; it never appears inline in compiled text.
	Value struct {
		V any
	}

	// BinaryExpr is an operator with two operands.
	BinaryExpr struct {
		Op   Op
		X, Y Expr
	}

	// NaryExpr connects three or more predicates with AND or OR.
	NaryExpr struct {
		Op Op
		Xs []P
	}

	// UnaryExpr is an operator with one operand.
	UnaryExpr struct {
		Op Op
		X  P
	}

	// CallExpr is a function applied to arguments.
	CallExpr struct {
		Func Func
		Args []Expr
	}
)

func (*Field) expr()      {}
func (*Value) expr()      {}
func (*BinaryExpr) expr() {}
func (*NaryExpr) expr()   {}
func (*UnaryExpr) expr()  {}
func (*CallExpr) expr()   {}

// F returns a field access expression.
func F(name string) *Field { return &Field{Name: name} }

// V returns a constant expression.
func V(v any) *Value { return &Value{V: v} }

// String returns the field name, dots included.
func (f *Field) String() string { return f.Name }

// String renders the constant the way encoding/json would, with nil
// spelled nil.
func (v *Value) String() string {
	if v.V == nil {
		return "nil"
	}
	buf, err := json.Marshal(v.V)
	if err != nil {
		return fmt.Sprintf("%v", v.V)
	}
	return string(buf)
}

// String renders `X op Y`.
func (e *BinaryExpr) String() string {
	return fmt.Sprintf("%s %s %s", e.X, e.Op, e.Y)
}

// Negate returns the negation of the expression.
func (e *BinaryExpr) Negate() P { return negate(e) }

// String renders the parenthesized operand chain.
func (e *NaryExpr) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, x := range e.Xs {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(e.Op.String())
			b.WriteByte(' ')
		}
		b.WriteString(x.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Negate returns the negation of the expression.
func (e *NaryExpr) Negate() P { return negate(e) }

// String renders `!(X)`.
func (e *UnaryExpr) String() string {
	return fmt.Sprintf("%s(%s)", e.Op, e.X)
}

// Negate returns the negation of the expression.
func (e *UnaryExpr) Negate() P { return negate(e) }

// String renders `func(arg, ...)`.
func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Func, strings.Join(args, ", "))
}

// Negate returns the negation of the expression.
func (e *CallExpr) Negate() P { return negate(e) }

func negate(p P) P {
	return &UnaryExpr{Op: OpNot, X: p}
}
