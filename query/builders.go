package query

// And returns a predicate that holds when all operands hold.
func And(x, y P, zs ...P) P {
	if len(zs) == 0 {
		return &BinaryExpr{Op: OpAnd, X: x, Y: y}
	}
	return &NaryExpr{Op: OpAnd, Xs: append([]P{x, y}, zs...)}
}

// Or returns a predicate that holds when at least one operand holds.
func Or(x, y P, zs ...P) P {
	if len(zs) == 0 {
		return &BinaryExpr{Op: OpOr, X: x, Y: y}
	}
	return &NaryExpr{Op: OpOr, Xs: append([]P{x, y}, zs...)}
}

// Not negates the predicate.
func Not(x P) P {
	return &UnaryExpr{Op: OpNot, X: x}
}

// EQ compares two expressions for equality.
func EQ(x, y Expr) P { return &BinaryExpr{Op: OpEQ, X: x, Y: y} }

// NEQ compares two expressions for inequality.
func NEQ(x, y Expr) P { return &BinaryExpr{Op: OpNEQ, X: x, Y: y} }

// GT applies the > comparison.
func GT(x, y Expr) P { return &BinaryExpr{Op: OpGT, X: x, Y: y} }

// GTE applies the >= comparison.
func GTE(x, y Expr) P { return &BinaryExpr{Op: OpGTE, X: x, Y: y} }

// LT applies the < comparison.
func LT(x, y Expr) P { return &BinaryExpr{Op: OpLT, X: x, Y: y} }

// LTE applies the <= comparison.
func LTE(x, y Expr) P { return &BinaryExpr{Op: OpLTE, X: x, Y: y} }

// Add, Sub, Mul, Div and Mod build arithmetic expressions.
func Add(x, y Expr) Expr { return &BinaryExpr{Op: OpAdd, X: x, Y: y} }
func Sub(x, y Expr) Expr { return &BinaryExpr{Op: OpSub, X: x, Y: y} }
func Mul(x, y Expr) Expr { return &BinaryExpr{Op: OpMul, X: x, Y: y} }
func Div(x, y Expr) Expr { return &BinaryExpr{Op: OpDiv, X: x, Y: y} }
func Mod(x, y Expr) Expr { return &BinaryExpr{Op: OpMod, X: x, Y: y} }

// FieldEQ returns a predicate testing the field for equality with v.
func FieldEQ(name string, v any) P {
	return &BinaryExpr{Op: OpEQ, X: F(name), Y: V(v)}
}

// FieldNEQ returns a predicate testing the field for inequality with v.
func FieldNEQ(name string, v any) P {
	return &BinaryExpr{Op: OpNEQ, X: F(name), Y: V(v)}
}

// FieldGT returns the predicate field > v.
func FieldGT(name string, v any) P {
	return &BinaryExpr{Op: OpGT, X: F(name), Y: V(v)}
}

// FieldGTE returns the predicate field >= v.
func FieldGTE(name string, v any) P {
	return &BinaryExpr{Op: OpGTE, X: F(name), Y: V(v)}
}

// FieldLT returns the predicate field < v.
func FieldLT(name string, v any) P {
	return &BinaryExpr{Op: OpLT, X: F(name), Y: V(v)}
}

// FieldLTE returns the predicate field <= v.
func FieldLTE(name string, v any) P {
	return &BinaryExpr{Op: OpLTE, X: F(name), Y: V(v)}
}

// FieldIn tests membership of the field value in vs.
func FieldIn(name string, vs ...any) P {
	return &BinaryExpr{Op: OpIn, X: F(name), Y: V(vs)}
}

// FieldNotIn tests absence of the field value from vs.
func FieldNotIn(name string, vs ...any) P {
	return &BinaryExpr{Op: OpNotIn, X: F(name), Y: V(vs)}
}

// FieldNil tests the field for absence.
func FieldNil(name string) P {
	return &BinaryExpr{Op: OpEQ, X: F(name), Y: V(nil)}
}

// FieldNotNil tests the field for presence.
func FieldNotNil(name string) P {
	return &BinaryExpr{Op: OpNEQ, X: F(name), Y: V(nil)}
}

// FieldContains tests whether the field contains substr.
func FieldContains(name, substr string) P {
	return &CallExpr{Func: FuncContains, Args: []Expr{F(name), V(substr)}}
}

// FieldContainsFold tests containment under simple case folding.
func FieldContainsFold(name, substr string) P {
	return &CallExpr{Func: FuncContainsFold, Args: []Expr{F(name), V(substr)}}
}

// FieldEqualFold tests equality under simple case folding.
func FieldEqualFold(name, v string) P {
	return &CallExpr{Func: FuncEqualFold, Args: []Expr{F(name), V(v)}}
}

// FieldHasPrefix tests whether the field starts with prefix.
func FieldHasPrefix(name, prefix string) P {
	return &CallExpr{Func: FuncHasPrefix, Args: []Expr{F(name), V(prefix)}}
}

// FieldHasSuffix tests whether the field ends with suffix.
func FieldHasSuffix(name, suffix string) P {
	return &CallExpr{Func: FuncHasSuffix, Args: []Expr{F(name), V(suffix)}}
}

// HasRelationship tests whether the row binding has at least one
// outgoing relationship of the given kind.
func HasRelationship(kind string) P {
	return &CallExpr{Func: FuncHasRel, Args: []Expr{F(kind)}}
}

// HasRelationshipWith tests whether the row binding has an outgoing
// relationship of the given kind to a node matching all of ps.
func HasRelationshipWith(kind string, ps ...P) P {
	args := make([]Expr, 0, len(ps)+1)
	args = append(args, F(kind))
	for _, p := range ps {
		args = append(args, p)
	}
	return &CallExpr{Func: FuncHasRel, Args: args}
}

// Upper applies upper-casing to a string expression.
func Upper(x Expr) Expr { return &CallExpr{Func: FuncUpper, Args: []Expr{x}} }

// Lower applies lower-casing to a string expression.
func Lower(x Expr) Expr { return &CallExpr{Func: FuncLower, Args: []Expr{x}} }

// Trim strips surrounding whitespace from a string expression.
func Trim(x Expr) Expr { return &CallExpr{Func: FuncTrim, Args: []Expr{x}} }

// CountAll counts the rows of the current binding.
func CountAll() Expr { return &CallExpr{Func: FuncCount} }

// Count counts the non-null values of x.
func Count(x Expr) Expr { return &CallExpr{Func: FuncCount, Args: []Expr{x}} }

// Sum aggregates x by summation.
func Sum(x Expr) Expr { return &CallExpr{Func: FuncSum, Args: []Expr{x}} }

// Avg aggregates x by arithmetic mean.
func Avg(x Expr) Expr { return &CallExpr{Func: FuncAvg, Args: []Expr{x}} }

// Min aggregates x by minimum.
func Min(x Expr) Expr { return &CallExpr{Func: FuncMin, Args: []Expr{x}} }

// Max aggregates x by maximum.
func Max(x Expr) Expr { return &CallExpr{Func: FuncMax, Args: []Expr{x}} }
