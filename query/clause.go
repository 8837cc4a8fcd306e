package query

import (
	"fmt"
	"reflect"
	"strings"
)

// Clause is one step of a composed query. The queryable surface appends
// clauses; the translator lowers the list into a single statement.
type Clause interface {
	clause()
	fmt.Stringer
}

// Direction orients a traversal relative to the current binding.
type Direction int

const (
	// Outgoing follows relationships away from the current binding.
	Outgoing Direction = iota
	// Incoming follows relationships into the current binding.
	Incoming
	// Either follows relationships regardless of orientation.
	Either
)

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	case Either:
		return "either"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// OrderTerm is one ordering criterion: a property path or an allowed
// string transform over one, ascending or descending.
type OrderTerm struct {
	X    Expr
	Desc bool
}

// Asc orders by x ascending.
func Asc(x Expr) OrderTerm { return OrderTerm{X: x} }

// Desc orders by x descending.
func Desc(x Expr) OrderTerm { return OrderTerm{X: x, Desc: true} }

// String renders `expr asc` or `expr desc`.
func (t OrderTerm) String() string {
	if t.Desc {
		return t.X.String() + " desc"
	}
	return t.X.String() + " asc"
}

// ConstructTerm is one aliased member of a projection.
type ConstructTerm struct {
	Alias string
	X     Expr
}

// As aliases an expression inside a projection.
func As(x Expr, alias string) ConstructTerm { return ConstructTerm{Alias: alias, X: x} }

// Construct is a row-shaping projection: each term becomes one return
// column named by its alias.
type Construct struct {
	Terms []ConstructTerm
}

// ConstructOf builds a projection from aliased terms.
func ConstructOf(terms ...ConstructTerm) *Construct { return &Construct{Terms: terms} }

// Project builds a projection of bare property paths, each aliased to
// its own name.
func Project(paths ...string) *Construct {
	c := &Construct{Terms: make([]ConstructTerm, len(paths))}
	for i, p := range paths {
		c.Terms[i] = ConstructTerm{Alias: p, X: F(p)}
	}
	return c
}

// String renders `{alias: expr, ...}`.
func (c *Construct) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, t := range c.Terms {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.Alias)
		b.WriteString(": ")
		b.WriteString(t.X.String())
	}
	b.WriteByte('}')
	return b.String()
}

// TraverseStep moves the row binding across a relationship kind to a
// target type. Hop bounds of (1, 1) mean a single hop; MaxHops above
// MinHops compiles to a variable-length pattern.
type TraverseStep struct {
	RelKind   string
	Target    reflect.Type
	Direction Direction
	MinHops   int
	MaxHops   int
	// RelPred filters on the traversed relationship's properties. For
	// variable-length steps it must hold on every relationship of the
	// path.
	RelPred P
}

// String renders the step with its orientation and hop bounds.
func (s TraverseStep) String() string {
	target := "?"
	if s.Target != nil {
		target = s.Target.Name()
	}
	hops := ""
	if s.MinHops != 1 || s.MaxHops != 1 {
		hops = fmt.Sprintf("*%d..%d", s.MinHops, s.MaxHops)
	}
	switch s.Direction {
	case Incoming:
		return fmt.Sprintf("<-[%s%s]-(%s)", s.RelKind, hops, target)
	case Either:
		return fmt.Sprintf("-[%s%s]-(%s)", s.RelKind, hops, target)
	default:
		return fmt.Sprintf("-[%s%s]->(%s)", s.RelKind, hops, target)
	}
}

type (
	// WhereClause filters the current binding. Consecutive Where
	// clauses conjoin into one predicate over one match pattern.
	WhereClause struct {
		P P
	}

	// SelectClause replaces the default entity return with a
	// projection.
	SelectClause struct {
		Construct *Construct
	}

	// OrderClause sets or extends the ordering. Append false resets any
	// previous ordering; true appends in ThenBy fashion.
	OrderClause struct {
		Terms  []OrderTerm
		Append bool
	}

	// GroupClause groups rows by one or more key expressions. Rows of
	// each group are collected unless a projection overrides it.
	GroupClause struct {
		Keys []Expr
	}

	// DistinctClause deduplicates returned rows.
	DistinctClause struct{}

	// SkipClause drops the first N rows.
	SkipClause struct {
		N int
	}

	// TakeClause caps the row count at N.
	TakeClause struct {
		N int
	}

	// FirstClause returns the first row, optionally after applying one
	// more filter.
	FirstClause struct {
		P P // optional
	}

	// LastClause returns the final row of the current ordering, or of
	// the identity ordering when none was requested.
	LastClause struct{}

	// CountClause returns the row count instead of rows.
	CountClause struct{}

	// TraverseClause hops the binding across relationships.
	TraverseClause struct {
		Step TraverseStep
	}
)

func (WhereClause) clause()    {}
func (SelectClause) clause()   {}
func (OrderClause) clause()    {}
func (GroupClause) clause()    {}
func (DistinctClause) clause() {}
func (SkipClause) clause()     {}
func (TakeClause) clause()     {}
func (FirstClause) clause()    {}
func (LastClause) clause()     {}
func (CountClause) clause()    {}
func (TraverseClause) clause() {}

func (c WhereClause) String() string { return "where " + c.P.String() }

func (c SelectClause) String() string { return "select " + c.Construct.String() }

func (c OrderClause) String() string {
	terms := make([]string, len(c.Terms))
	for i, t := range c.Terms {
		terms[i] = t.String()
	}
	verb := "order by "
	if c.Append {
		verb = "then by "
	}
	return verb + strings.Join(terms, ", ")
}

func (c GroupClause) String() string {
	keys := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		keys[i] = k.String()
	}
	return "group by " + strings.Join(keys, ", ")
}

func (DistinctClause) String() string { return "distinct" }

func (c SkipClause) String() string { return fmt.Sprintf("skip %d", c.N) }

func (c TakeClause) String() string { return fmt.Sprintf("take %d", c.N) }

func (c FirstClause) String() string {
	if c.P != nil {
		return "first " + c.P.String()
	}
	return "first"
}

func (LastClause) String() string { return "last" }

func (CountClause) String() string { return "count" }

func (c TraverseClause) String() string { return "traverse " + c.Step.String() }
