// Package query defines the typed expression language queries are
// written in.
//
// Expressions form a small algebra: field accesses (dotted paths reach
// into complex properties), constants, comparison/boolean/arithmetic
// operators, and a fixed set of functions. Predicates compose with And,
// Or and Not:
//
//	query.And(
//	    query.FieldGT("age", 30),
//	    query.FieldContains("name", "li"),
//	)
//
// Composed queries are clause lists (Where, Select, OrderBy, GroupBy,
// Skip, Take, Traverse, ...) consumed by dialect/cypher. The package is
// dialect-agnostic: nothing here renders query text, and every constant
// stays a Value until the translator lifts it into a parameter.
//
// String renders any expression for diagnostics and tests:
//
//	query.FieldIn("org", "acme", "initech").String()  // `org in ["acme","initech"]`
package query
