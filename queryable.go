package nodus

import (
	"context"
	"reflect"

	"github.com/syssam/nodus/dialect"
	"github.com/syssam/nodus/dialect/cypher"
	"github.com/syssam/nodus/query"
)

// NodeSet is a composable query over one registered node type. Sets are
// immutable: every builder method returns a new set, so partial chains
// can be shared and extended independently.
type NodeSet[T any] struct {
	g       *Graph
	clauses []query.Clause
}

// Nodes opens a query over the node type T.
func Nodes[T any](g *Graph) *NodeSet[T] {
	return &NodeSet[T]{g: g}
}

func (s *NodeSet[T]) with(cl query.Clause) *NodeSet[T] {
	return &NodeSet[T]{g: s.g, clauses: extend(s.clauses, cl)}
}

// Where filters the set. Consecutive Where calls conjoin.
func (s *NodeSet[T]) Where(p query.P) *NodeSet[T] {
	return s.with(query.WhereClause{P: p})
}

// OrderBy orders the set ascending by x, discarding any prior ordering.
func (s *NodeSet[T]) OrderBy(x query.Expr) *NodeSet[T] {
	return s.with(query.OrderClause{Terms: []query.OrderTerm{query.Asc(x)}})
}

// OrderByDescending orders the set descending by x, discarding any
// prior ordering.
func (s *NodeSet[T]) OrderByDescending(x query.Expr) *NodeSet[T] {
	return s.with(query.OrderClause{Terms: []query.OrderTerm{query.Desc(x)}})
}

// ThenBy appends an ascending tiebreaker to the current ordering.
func (s *NodeSet[T]) ThenBy(x query.Expr) *NodeSet[T] {
	return s.with(query.OrderClause{Terms: []query.OrderTerm{query.Asc(x)}, Append: true})
}

// ThenByDescending appends a descending tiebreaker to the current
// ordering.
func (s *NodeSet[T]) ThenByDescending(x query.Expr) *NodeSet[T] {
	return s.with(query.OrderClause{Terms: []query.OrderTerm{query.Desc(x)}, Append: true})
}

// Skip drops the first n rows.
func (s *NodeSet[T]) Skip(n int) *NodeSet[T] {
	return s.with(query.SkipClause{N: n})
}

// Take caps the result at n rows.
func (s *NodeSet[T]) Take(n int) *NodeSet[T] {
	return s.with(query.TakeClause{N: n})
}

// Distinct deduplicates the returned rows.
func (s *NodeSet[T]) Distinct() *NodeSet[T] {
	return s.with(query.DistinctClause{})
}

// All compiles and runs the chain, returning every matching entity.
// An empty result is not an error.
func (s *NodeSet[T]) All(ctx context.Context) ([]*T, error) {
	compiled, records, err := s.g.query(ctx, rootType[T](), s.clauses)
	if err != nil {
		return nil, err
	}
	return materializeNodes[T](s.g, compiled, records)
}

// First returns the first matching entity, or a NotFoundError when the
// set is empty.
func (s *NodeSet[T]) First(ctx context.Context) (*T, error) {
	out, err := s.with(query.FirstClause{}).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, NewNotFoundError(typeLabelOf[T](s.g))
	}
	return out[0], nil
}

// FirstOrNone returns the first matching entity, or nil without error
// when the set is empty.
func (s *NodeSet[T]) FirstOrNone(ctx context.Context) (*T, error) {
	out, err := s.with(query.FirstClause{}).All(ctx)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return out[0], nil
}

// Single returns the only matching entity. An empty set is a
// NotFoundError; more than one match is a NotSingularError.
func (s *NodeSet[T]) Single(ctx context.Context) (*T, error) {
	out, err := s.Take(2).All(ctx)
	if err != nil {
		return nil, err
	}
	switch len(out) {
	case 0:
		return nil, NewNotFoundError(typeLabelOf[T](s.g))
	case 1:
		return out[0], nil
	default:
		return nil, NewNotSingularErrorWithCount(typeLabelOf[T](s.g), len(out))
	}
}

// Last returns the final entity of the current ordering; without an
// explicit ordering it falls back to descending identifier order.
func (s *NodeSet[T]) Last(ctx context.Context) (*T, error) {
	out, err := s.with(query.LastClause{}).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, NewNotFoundError(typeLabelOf[T](s.g))
	}
	return out[0], nil
}

// Count returns the number of matching rows.
func (s *NodeSet[T]) Count(ctx context.Context) (int64, error) {
	compiled, records, err := s.g.query(ctx, rootType[T](), extend(s.clauses, query.CountClause{}))
	if err != nil {
		return 0, err
	}
	return materializeCount(compiled, records)
}

// Any reports whether the set matches at least one row.
func (s *NodeSet[T]) Any(ctx context.Context) (bool, error) {
	n, err := s.Count(ctx)
	return n > 0, err
}

// RelationshipSet is a composable query over one registered
// relationship type.
type RelationshipSet[T any] struct {
	g       *Graph
	clauses []query.Clause
}

// Relationships opens a query over the relationship type T.
func Relationships[T any](g *Graph) *RelationshipSet[T] {
	return &RelationshipSet[T]{g: g}
}

func (s *RelationshipSet[T]) with(cl query.Clause) *RelationshipSet[T] {
	return &RelationshipSet[T]{g: s.g, clauses: extend(s.clauses, cl)}
}

// Where filters the set. Consecutive Where calls conjoin.
func (s *RelationshipSet[T]) Where(p query.P) *RelationshipSet[T] {
	return s.with(query.WhereClause{P: p})
}

// OrderBy orders the set ascending by x, discarding any prior ordering.
func (s *RelationshipSet[T]) OrderBy(x query.Expr) *RelationshipSet[T] {
	return s.with(query.OrderClause{Terms: []query.OrderTerm{query.Asc(x)}})
}

// OrderByDescending orders the set descending by x, discarding any
// prior ordering.
func (s *RelationshipSet[T]) OrderByDescending(x query.Expr) *RelationshipSet[T] {
	return s.with(query.OrderClause{Terms: []query.OrderTerm{query.Desc(x)}})
}

// ThenBy appends an ascending tiebreaker to the current ordering.
func (s *RelationshipSet[T]) ThenBy(x query.Expr) *RelationshipSet[T] {
	return s.with(query.OrderClause{Terms: []query.OrderTerm{query.Asc(x)}, Append: true})
}

// Skip drops the first n rows.
func (s *RelationshipSet[T]) Skip(n int) *RelationshipSet[T] {
	return s.with(query.SkipClause{N: n})
}

// Take caps the result at n rows.
func (s *RelationshipSet[T]) Take(n int) *RelationshipSet[T] {
	return s.with(query.TakeClause{N: n})
}

// All compiles and runs the chain, returning every matching
// relationship entity with its endpoint identifiers applied.
func (s *RelationshipSet[T]) All(ctx context.Context) ([]*T, error) {
	compiled, records, err := s.g.query(ctx, rootType[T](), s.clauses)
	if err != nil {
		return nil, err
	}
	return materializeRelationships[T](s.g, compiled, records)
}

// First returns the first matching relationship, or a NotFoundError
// when the set is empty.
func (s *RelationshipSet[T]) First(ctx context.Context) (*T, error) {
	out, err := s.with(query.FirstClause{}).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, NewNotFoundError(typeLabelOf[T](s.g))
	}
	return out[0], nil
}

// Count returns the number of matching rows.
func (s *RelationshipSet[T]) Count(ctx context.Context) (int64, error) {
	compiled, records, err := s.g.query(ctx, rootType[T](), extend(s.clauses, query.CountClause{}))
	if err != nil {
		return 0, err
	}
	return materializeCount(compiled, records)
}

// ProjectionSet is a query whose rows materialize into the row type R
// instead of an entity. It is produced by Select and SelectGroups;
// filters and traversals must be applied before projecting.
type ProjectionSet[R any] struct {
	g       *Graph
	root    reflect.Type
	label   string
	clauses []query.Clause
}

func (s *ProjectionSet[R]) with(cl query.Clause) *ProjectionSet[R] {
	return &ProjectionSet[R]{g: s.g, root: s.root, label: s.label, clauses: extend(s.clauses, cl)}
}

// OrderBy orders the rows ascending by x. After projection only
// returned columns are addressable; order by the aliased expression.
func (s *ProjectionSet[R]) OrderBy(x query.Expr) *ProjectionSet[R] {
	return s.with(query.OrderClause{Terms: []query.OrderTerm{query.Asc(x)}})
}

// OrderByDescending orders the rows descending by x.
func (s *ProjectionSet[R]) OrderByDescending(x query.Expr) *ProjectionSet[R] {
	return s.with(query.OrderClause{Terms: []query.OrderTerm{query.Desc(x)}})
}

// Skip drops the first n rows.
func (s *ProjectionSet[R]) Skip(n int) *ProjectionSet[R] {
	return s.with(query.SkipClause{N: n})
}

// Take caps the result at n rows.
func (s *ProjectionSet[R]) Take(n int) *ProjectionSet[R] {
	return s.with(query.TakeClause{N: n})
}

// Distinct deduplicates the returned rows.
func (s *ProjectionSet[R]) Distinct() *ProjectionSet[R] {
	return s.with(query.DistinctClause{})
}

// All compiles and runs the chain, materializing every row into R.
func (s *ProjectionSet[R]) All(ctx context.Context) ([]R, error) {
	compiled, records, err := s.g.query(ctx, s.root, s.clauses)
	if err != nil {
		return nil, err
	}
	return materializeRows[R](compiled, records)
}

// First returns the first row, or a NotFoundError when the set is
// empty.
func (s *ProjectionSet[R]) First(ctx context.Context) (R, error) {
	var zero R
	out, err := s.with(query.FirstClause{}).All(ctx)
	if err != nil {
		return zero, err
	}
	if len(out) == 0 {
		return zero, NewNotFoundError(s.label)
	}
	return out[0], nil
}

// Select shapes the set's rows into R. R is a struct whose fields match
// the projection's aliases by name, or a scalar when the projection has
// a single column. Select is a package function because Go methods
// cannot introduce type parameters.
func Select[T, R any](s *NodeSet[T], construct *query.Construct) *ProjectionSet[R] {
	return &ProjectionSet[R]{
		g:       s.g,
		root:    rootType[T](),
		label:   typeLabelOf[T](s.g),
		clauses: extend(s.clauses, query.SelectClause{Construct: construct}),
	}
}

// SelectRelationships shapes a relationship set's rows into R.
func SelectRelationships[T, R any](s *RelationshipSet[T], construct *query.Construct) *ProjectionSet[R] {
	return &ProjectionSet[R]{
		g:       s.g,
		root:    rootType[T](),
		label:   typeLabelOf[T](s.g),
		clauses: extend(s.clauses, query.SelectClause{Construct: construct}),
	}
}

// Group is one grouped result row: the key values, aliased by their
// derived column names, and the group's collected entities.
type Group[T any] struct {
	Keys  map[string]any
	Items []*T
}

// GroupSet is a grouped query over T.
type GroupSet[T any] struct {
	g       *Graph
	clauses []query.Clause
}

// GroupBy groups the set's rows by the key expressions.
func GroupBy[T any](s *NodeSet[T], keys ...query.Expr) *GroupSet[T] {
	return &GroupSet[T]{g: s.g, clauses: extend(s.clauses, query.GroupClause{Keys: keys})}
}

// All runs the grouped query. Each group carries its keys and its
// collected entities; complex properties of the collected entities are
// not expanded.
func (s *GroupSet[T]) All(ctx context.Context) ([]*Group[T], error) {
	compiled, records, err := s.g.query(ctx, rootType[T](), s.clauses)
	if err != nil {
		return nil, err
	}
	return materializeGroups[T](s.g, compiled, records)
}

// SelectGroups projects aggregate expressions over the groups instead
// of collecting their members.
func SelectGroups[T, R any](s *GroupSet[T], construct *query.Construct) *ProjectionSet[R] {
	return &ProjectionSet[R]{
		g:       s.g,
		root:    rootType[T](),
		label:   typeLabelOf[T](s.g),
		clauses: extend(s.clauses, query.SelectClause{Construct: construct}),
	}
}

// TraverseOption tunes a traversal step.
type TraverseOption func(*query.TraverseStep)

// InDirection sets the traversal orientation; the default follows
// outgoing relationships.
func InDirection(d query.Direction) TraverseOption {
	return func(s *query.TraverseStep) { s.Direction = d }
}

// Hops sets variable-length hop bounds for the traversal.
func Hops(min, max int) TraverseOption {
	return func(s *query.TraverseStep) { s.MinHops, s.MaxHops = min, max }
}

// WhereRelationship filters on the traversed relationship's
// properties. For variable-length steps the predicate must hold on
// every relationship of the path.
func WhereRelationship(p query.P) TraverseOption {
	return func(s *query.TraverseStep) { s.RelPred = p }
}

// Traverse hops the set's binding across a relationship kind to the
// node type To. Subsequent clauses apply to the target nodes.
func Traverse[From, To any](s *NodeSet[From], kind string, opts ...TraverseOption) *NodeSet[To] {
	step := query.TraverseStep{RelKind: kind, Target: rootType[To](), MinHops: 1, MaxHops: 1}
	for _, opt := range opts {
		opt(&step)
	}
	return &NodeSet[To]{g: s.g, clauses: extend(s.clauses, query.TraverseClause{Step: step})}
}

// query compiles the chain and runs it on a read session.
func (g *Graph) query(ctx context.Context, root reflect.Type, clauses []query.Clause) (*cypher.Compiled, []*dialect.Record, error) {
	compiled, err := g.translator.Compile(root, clauses)
	if err != nil {
		return nil, nil, err
	}
	label := ""
	if es, serr := g.reg.SchemaOf(root); serr == nil {
		label = es.Label
	}
	records, err := g.runRead(ctx, label, compiled)
	if err != nil {
		return nil, nil, err
	}
	return compiled, records, nil
}

// extend copies the clause list before appending, keeping shared chain
// prefixes immutable.
func extend(clauses []query.Clause, cl query.Clause) []query.Clause {
	out := make([]query.Clause, len(clauses), len(clauses)+1)
	copy(out, clauses)
	return append(out, cl)
}

func rootType[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// typeLabelOf resolves T's stored label for error context.
func typeLabelOf[T any](g *Graph) string {
	if es, err := g.reg.SchemaOf(rootType[T]()); err == nil {
		return es.Label
	}
	return rootType[T]().Name()
}

func idEQ(id string) query.P { return query.FieldEQ("id", id) }
