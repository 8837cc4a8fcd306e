package cypher

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/nodus/codec"
	"github.com/syssam/nodus/query"
	"github.com/syssam/nodus/schema"
)

// Shape describes how the rows of a compiled statement materialize.
type Shape uint8

const (
	// ShapeEntity rows carry one entity column, plus an auxiliary path
	// column when the type has complex properties.
	ShapeEntity Shape = iota + 1
	// ShapeRelationship rows carry a relationship column and the
	// identifiers of its endpoints.
	ShapeRelationship
	// ShapeProjection rows carry the projected columns.
	ShapeProjection
	// ShapeGroup rows carry the group keys plus the collected group.
	ShapeGroup
	// ShapeScalar rows carry a single scalar column.
	ShapeScalar
)

// String returns the lowercase shape name.
func (s Shape) String() string {
	switch s {
	case ShapeEntity:
		return "entity"
	case ShapeRelationship:
		return "relationship"
	case ShapeProjection:
		return "projection"
	case ShapeGroup:
		return "group"
	case ShapeScalar:
		return "scalar"
	default:
		return fmt.Sprintf("Shape(%d)", uint8(s))
	}
}

// Compiled is one translated statement together with everything a
// caller needs to run it and shape its rows.
type Compiled struct {
	Query  string
	Params map[string]any
	Shape  Shape

	// Alias is the column carrying the entity for entity and
	// relationship shapes.
	Alias string
	// Entity is the Go struct type of that column, when known.
	Entity reflect.Type
	// PathColumn is the auxiliary path column accompanying entity rows.
	// Empty when the type has no complex properties.
	PathColumn string
	// StartColumn and EndColumn carry the endpoint identifier columns
	// of relationship rows.
	StartColumn string
	EndColumn   string
	// Columns names the returned columns of projection, group and
	// scalar rows, in order.
	Columns []string
}

// Translator lowers clause lists into single Cypher statements.
// Instances are stateless across Compile calls and safe for concurrent
// use.
type Translator struct {
	reg      *schema.Registry
	maxDepth int
}

// Option configures a Translator.
type Option func(*Translator)

// WithMaxDepth bounds the auxiliary subtree fetched alongside entity
// rows. It should match the codec's depth bound.
func WithMaxDepth(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.maxDepth = n
		}
	}
}

// New returns a Translator over the registry.
func New(reg *schema.Registry, opts ...Option) *Translator {
	t := &Translator{reg: reg, maxDepth: codec.DefaultMaxDepth}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Compile lowers the clause list rooted at the given registered type
// into one statement. The root decides the initial pattern: node types
// open with a label match, relationship types with an endpoint
// pattern.
func (t *Translator) Compile(root reflect.Type, clauses []query.Clause) (*Compiled, error) {
	for root != nil && root.Kind() == reflect.Ptr {
		root = root.Elem()
	}
	if root == nil {
		return nil, NewTranslationError("", "", "nil root type", nil)
	}
	es, err := t.reg.SchemaOf(root)
	if err != nil {
		return nil, NewTranslationError(root.Name(), "", "type is not registered", err)
	}

	c := &compilation{t: t, scope: NewScope(), params: NewParams()}
	c.w = &exprWriter{t: t, scope: c.scope, params: c.params, join: c.joinAux}

	switch es.Kind {
	case schema.KindNode:
		b := c.scope.BindNode(es.Type, es)
		c.scope.SetCursor(b)
		c.segs = append(c.segs, &segment{
			pattern: fmt.Sprintf("(%s:%s)", b.Alias, Ident(es.Label)),
		})
	case schema.KindRelationship:
		start := c.scope.BindNode(nil, nil)
		rel := c.scope.BindRelationship(es.Type, es)
		end := c.scope.BindNode(nil, nil)
		c.rel = &relEndpoints{start: start, end: end}
		c.scope.SetCursor(rel)
		c.segs = append(c.segs, &segment{
			pattern: fmt.Sprintf("(%s)-[%s:%s]->(%s)",
				start.Alias, rel.Alias, Ident(es.Label), end.Alias),
		})
	default:
		return nil, NewTranslationError(es.Type.Name(), "",
			"complex types cannot be queried directly", nil)
	}

	for _, cl := range clauses {
		if c.done {
			return nil, NewTranslationError(c.typeName(), clauseName(cl),
				"no clause may follow first, last or count", nil)
		}
		if err := c.apply(cl); err != nil {
			return nil, err
		}
	}
	return c.finish()
}

// segment is one MATCH pattern with the conditions attached to it.
type segment struct {
	optional bool
	pattern  string
	where    []cond
}

// cond is one rendered condition. composite marks or-rooted conditions
// that need wrapping when conjoined with siblings.
type cond struct {
	text      string
	composite bool
}

// col is one rendered return column.
type col struct {
	name string
	text string
	agg  bool
}

type orderTerm struct {
	text string
	desc bool
	agg  bool
}

type relEndpoints struct {
	start, end *Binding
}

// compilation is the mutable state of one Compile call.
type compilation struct {
	t      *Translator
	scope  *Scope
	params *Params
	w      *exprWriter

	segs []*segment
	rel  *relEndpoints

	distinct bool
	orders   []orderTerm
	skipRef  string
	limitRef string

	projCols  []col
	groupCols []col

	count bool
	last  bool
	done  bool
}

func (c *compilation) typeName() string {
	if cur, err := c.scope.Cursor(); err == nil && cur.Schema != nil {
		return cur.Schema.Type.Name()
	}
	return ""
}

func (c *compilation) shaped() bool {
	return c.projCols != nil || c.groupCols != nil
}

// joinAux emits the match pattern for a freshly joined auxiliary node.
func (c *compilation) joinAux(owner *Binding, p *schema.PropertySchema, aux *Binding) {
	label := ""
	if aux.Schema != nil {
		label = ":" + Ident(aux.Schema.Label)
	}
	c.segs = append(c.segs, &segment{
		pattern: fmt.Sprintf("(%s)-[:%s]->(%s%s)",
			owner.Alias, Ident(schema.PropertyRelKind(p.Name)), aux.Alias, label),
	})
}

func (c *compilation) apply(cl query.Clause) error {
	switch q := cl.(type) {
	case query.WhereClause:
		return c.applyWhere(q.P, "where")
	case query.TraverseClause:
		return c.applyTraverse(q.Step)
	case query.SelectClause:
		return c.applySelect(q.Construct)
	case query.GroupClause:
		return c.applyGroup(q.Keys)
	case query.OrderClause:
		return c.applyOrder(q)
	case query.DistinctClause:
		c.distinct = true
	case query.SkipClause:
		ref, err := c.params.Bind(q.N)
		if err != nil {
			return err
		}
		c.skipRef = ref
	case query.TakeClause:
		ref, err := c.params.Bind(q.N)
		if err != nil {
			return err
		}
		c.limitRef = ref
	case query.FirstClause:
		if q.P != nil {
			if err := c.applyWhere(q.P, "first"); err != nil {
				return err
			}
		}
		c.limitRef = "1"
		c.done = true
	case query.LastClause:
		c.last = true
		c.done = true
	case query.CountClause:
		c.count = true
		c.done = true
	default:
		return NewTranslationError(c.typeName(), "",
			fmt.Sprintf("unsupported clause %T", cl), nil)
	}
	return nil
}

func (c *compilation) applyWhere(p query.P, clause string) error {
	if c.shaped() {
		return NewTranslationError(c.typeName(), clause,
			"filters must precede projection and grouping", nil)
	}
	c.w.clause = clause
	c.w.allowAgg = false
	text, err := c.w.renderP(p)
	if err != nil {
		return err
	}
	seg := c.segs[len(c.segs)-1]
	seg.where = append(seg.where, cond{text: text, composite: orRooted(p)})
	return nil
}

func (c *compilation) applyTraverse(step query.TraverseStep) error {
	if c.rel != nil {
		return NewTranslationError(c.typeName(), "traverse",
			"traversals start from a node binding", nil)
	}
	if c.shaped() {
		return NewTranslationError(c.typeName(), "traverse",
			"traversals must precede projection and grouping", nil)
	}
	if step.RelKind == "" {
		return NewTranslationError(c.typeName(), "traverse",
			"traversal needs a relationship kind", nil)
	}
	if step.Target == nil {
		return NewTranslationError(c.typeName(), "traverse",
			"traversal needs a target type", nil)
	}
	target := step.Target
	for target.Kind() == reflect.Ptr {
		target = target.Elem()
	}
	tes, err := c.t.reg.SchemaOf(target)
	if err != nil {
		return NewTranslationError(c.typeName(), "traverse",
			fmt.Sprintf("target type %s is not registered", target.Name()), err)
	}
	if tes.Kind != schema.KindNode {
		return NewTranslationError(c.typeName(), "traverse",
			fmt.Sprintf("target type %s is not a node type", target.Name()), nil)
	}
	cur, err := c.scope.Cursor()
	if err != nil {
		return err
	}

	min, max := step.MinHops, step.MaxHops
	if min == 0 && max == 0 {
		min, max = 1, 1
	}
	if min < 1 || max < min {
		return NewTranslationError(c.typeName(), "traverse",
			fmt.Sprintf("invalid hop bounds %d..%d", min, max), nil)
	}

	// Relationship properties validate against the kind's schema when
	// the kind is registered; raw kinds render unchecked.
	var relES *schema.EntitySchema
	if es, err := c.t.reg.Lookup(step.RelKind); err == nil && es.Kind == schema.KindRelationship {
		relES = es
	}

	left, right := arrows(step.Direction)
	kind := Ident(step.RelKind)

	if min == 1 && max == 1 {
		if step.RelPred != nil {
			rb := c.scope.BindRelationship(nil, relES)
			tgt := c.scope.BindNode(target, tes)
			seg := &segment{pattern: fmt.Sprintf("(%s)%s[%s:%s]%s(%s:%s)",
				cur.Alias, left, rb.Alias, kind, right, tgt.Alias, Ident(tes.Label))}
			c.segs = append(c.segs, seg)

			c.scope.SetCursor(rb)
			c.w.clause = "traverse"
			text, err := c.w.renderP(step.RelPred)
			c.scope.SetCursor(tgt)
			if err != nil {
				return err
			}
			seg.where = append(seg.where, cond{text: text, composite: orRooted(step.RelPred)})
			return nil
		}
		tgt := c.scope.BindNode(target, tes)
		c.segs = append(c.segs, &segment{pattern: fmt.Sprintf("(%s)%s[:%s]%s(%s:%s)",
			cur.Alias, left, kind, right, tgt.Alias, Ident(tes.Label))})
		c.scope.SetCursor(tgt)
		return nil
	}

	path := c.scope.BindPath()
	tgt := c.scope.BindNode(target, tes)
	seg := &segment{pattern: fmt.Sprintf("%s = (%s)%s[:%s*%d..%d]%s(%s:%s)",
		path, cur.Alias, left, kind, min, max, right, tgt.Alias, Ident(tes.Label))}
	c.segs = append(c.segs, seg)

	if step.RelPred != nil {
		iter := c.scope.BindRelationship(nil, relES)
		c.scope.SetCursor(iter)
		c.w.clause = "traverse"
		text, err := c.w.renderP(step.RelPred)
		c.scope.SetCursor(tgt)
		if err != nil {
			return err
		}
		seg.where = append(seg.where, cond{
			text: fmt.Sprintf("all(%s IN relationships(%s) WHERE %s)", iter.Alias, path, text),
		})
		return nil
	}
	c.scope.SetCursor(tgt)
	return nil
}

func (c *compilation) applySelect(construct *query.Construct) error {
	if construct == nil || len(construct.Terms) == 0 {
		return NewTranslationError(c.typeName(), "select", "empty projection", nil)
	}
	if c.projCols != nil {
		return NewTranslationError(c.typeName(), "select", "projection already set", nil)
	}
	c.w.clause = "select"
	c.w.allowAgg = true
	defer func() { c.w.allowAgg = false }()
	for i, term := range construct.Terms {
		c.w.aggUsed = false
		text, err := c.w.renderE(term.X)
		if err != nil {
			return err
		}
		name := term.Alias
		if name == "" {
			name = deriveColumn(term.X, i)
		}
		c.projCols = append(c.projCols, col{name: name, text: text, agg: c.w.aggUsed})
	}
	return nil
}

func (c *compilation) applyGroup(keys []query.Expr) error {
	if len(keys) == 0 {
		return NewTranslationError(c.typeName(), "group by",
			"grouping needs at least one key", nil)
	}
	if c.groupCols != nil {
		return NewTranslationError(c.typeName(), "group by", "grouping already set", nil)
	}
	c.w.clause = "group by"
	c.w.allowAgg = false
	for i, k := range keys {
		text, err := c.w.renderE(k)
		if err != nil {
			return err
		}
		c.groupCols = append(c.groupCols, col{name: deriveColumn(k, i), text: text})
	}
	return nil
}

func (c *compilation) applyOrder(q query.OrderClause) error {
	c.w.clause = "order by"
	c.w.allowAgg = true
	defer func() { c.w.allowAgg = false }()
	terms := make([]orderTerm, 0, len(q.Terms))
	for _, t := range q.Terms {
		c.w.aggUsed = false
		text, err := c.w.renderE(t.X)
		if err != nil {
			return err
		}
		terms = append(terms, orderTerm{text: text, desc: t.Desc, agg: c.w.aggUsed})
	}
	if q.Append {
		c.orders = append(c.orders, terms...)
	} else {
		c.orders = terms
	}
	return nil
}

func (c *compilation) finish() (*Compiled, error) {
	cur, err := c.scope.Cursor()
	if err != nil {
		return nil, err
	}
	if c.count || !c.shaped() {
		// Aggregate order terms only make sense over an aggregated
		// result, where they resolve to a returned column.
		for _, o := range c.orders {
			if o.agg {
				return nil, NewTranslationError(c.typeName(), "order by",
					"ordering by an aggregate needs a projection or grouping", nil)
			}
		}
	}

	b := &Builder{}
	for _, seg := range c.segs {
		if seg.optional {
			b.OptionalMatch(seg.pattern)
		} else {
			b.Match(seg.pattern)
		}
		if len(seg.where) > 0 {
			b.Where(joinConds(seg.where))
		}
	}

	out := &Compiled{}
	switch {
	case c.count:
		c.finishCount(b, cur, out)
	case c.groupCols != nil:
		err = c.finishGrouped(b, cur, out)
	case c.projCols != nil:
		err = c.finishProjection(b, out)
	case c.rel != nil:
		c.finishRelationship(b, cur, out)
	default:
		c.finishEntity(b, cur, out)
	}
	if err != nil {
		return nil, err
	}

	out.Query = b.String()
	out.Params = c.params.Map()
	return out, nil
}

func (c *compilation) finishCount(b *Builder, cur *Binding, out *Compiled) {
	if c.skipRef != "" || c.limitRef != "" {
		// Pagination narrows the counted window, so rows pipe through
		// WITH before aggregating.
		b.With(c.distinct, cur.Alias)
		if len(c.orders) > 0 {
			b.OrderBy(orderTexts(c.orders)...)
		}
		if c.skipRef != "" {
			b.Skip(c.skipRef)
		}
		if c.limitRef != "" {
			b.Limit(c.limitRef)
		}
		b.Return(false, "count("+cur.Alias+") AS count")
	} else {
		expr := "count(" + cur.Alias + ")"
		if c.distinct {
			expr = "count(DISTINCT " + cur.Alias + ")"
		}
		b.Return(false, expr+" AS count")
	}
	out.Shape = ShapeScalar
	out.Columns = []string{"count"}
}

func (c *compilation) finishGrouped(b *Builder, cur *Binding, out *Compiled) error {
	cols := make([]col, 0, len(c.groupCols)+len(c.projCols)+1)
	cols = append(cols, c.groupCols...)
	if c.projCols != nil {
		cols = append(cols, c.projCols...)
		out.Shape = ShapeProjection
	} else {
		cols = append(cols, col{name: "items", text: "collect(" + cur.Alias + ")"})
		out.Shape = ShapeGroup
	}
	returns := make([]string, len(cols))
	for i, cl := range cols {
		returns[i] = cl.text + " AS " + Ident(cl.name)
		out.Columns = append(out.Columns, cl.name)
	}
	b.Return(false, returns...)
	return c.finishTail(b, cols, true)
}

func (c *compilation) finishProjection(b *Builder, out *Compiled) error {
	aggregated := false
	returns := make([]string, len(c.projCols))
	for i, cl := range c.projCols {
		returns[i] = cl.text + " AS " + Ident(cl.name)
		out.Columns = append(out.Columns, cl.name)
		aggregated = aggregated || cl.agg
	}
	b.Return(c.distinct, returns...)
	out.Shape = ShapeProjection
	return c.finishTail(b, c.projCols, aggregated)
}

// finishTail appends ordering and pagination after a RETURN over
// derived columns. Once rows are aggregated only the returned columns
// remain addressable, so strict mode rejects order terms that do not
// match one.
func (c *compilation) finishTail(b *Builder, cols []col, strict bool) error {
	if c.last {
		if len(c.orders) == 0 {
			return NewTranslationError(c.typeName(), "last",
				"last needs an explicit ordering after projection or grouping", nil)
		}
		flipOrders(c.orders)
		c.limitRef = "1"
	}
	if len(c.orders) > 0 {
		terms := make([]orderTerm, len(c.orders))
		for i, o := range c.orders {
			terms[i] = o
			if name, ok := matchCol(cols, o.text); ok {
				terms[i].text = Ident(name)
			} else if strict {
				return NewTranslationError(c.typeName(), "order by",
					fmt.Sprintf("ordering term %s is not a returned column", o.text), nil)
			}
		}
		b.OrderBy(orderTexts(terms)...)
	}
	if c.skipRef != "" {
		b.Skip(c.skipRef)
	}
	if c.limitRef != "" {
		b.Limit(c.limitRef)
	}
	return nil
}

func (c *compilation) finishRelationship(b *Builder, cur *Binding, out *Compiled) {
	if c.last {
		c.applyLast(cur)
	}
	b.Return(c.distinct,
		cur.Alias,
		c.rel.start.Alias+".id AS startId",
		c.rel.end.Alias+".id AS endId",
	)
	if len(c.orders) > 0 {
		b.OrderBy(orderTexts(c.orders)...)
	}
	if c.skipRef != "" {
		b.Skip(c.skipRef)
	}
	if c.limitRef != "" {
		b.Limit(c.limitRef)
	}
	out.Shape = ShapeRelationship
	out.Alias = cur.Alias
	out.Entity = cur.Type
	out.StartColumn, out.EndColumn = "startId", "endId"
}

func (c *compilation) finishEntity(b *Builder, cur *Binding, out *Compiled) {
	if c.last {
		c.applyLast(cur)
	}
	out.Shape = ShapeEntity
	out.Alias = cur.Alias
	out.Entity = cur.Type

	if cur.Schema != nil && len(cur.Schema.ComplexProperties()) > 0 {
		// Filter and paginate first, then expand each surviving row's
		// auxiliary subtree along reserved relationship kinds.
		b.With(c.distinct, cur.Alias)
		if len(c.orders) > 0 {
			b.OrderBy(orderTexts(c.orders)...)
		}
		if c.skipRef != "" {
			b.Skip(c.skipRef)
		}
		if c.limitRef != "" {
			b.Limit(c.limitRef)
		}
		path := c.scope.BindPath()
		iter := c.scope.BindRelationship(nil, nil)
		b.OptionalMatch(fmt.Sprintf("%s = (%s)-[*1..%d]->()", path, cur.Alias, c.t.maxDepth))
		b.Where(fmt.Sprintf("all(%s IN relationships(%s) WHERE type(%s) STARTS WITH '%s')",
			iter.Alias, path, iter.Alias, schema.PropertyKindPrefix))
		b.Return(false, cur.Alias, path)
		out.PathColumn = path
		return
	}

	b.Return(c.distinct, cur.Alias)
	if len(c.orders) > 0 {
		b.OrderBy(orderTexts(c.orders)...)
	}
	if c.skipRef != "" {
		b.Skip(c.skipRef)
	}
	if c.limitRef != "" {
		b.Limit(c.limitRef)
	}
}

// applyLast inverts the requested ordering, falling back to descending
// identity order, and caps the result at one row.
func (c *compilation) applyLast(cur *Binding) {
	if len(c.orders) == 0 {
		c.orders = []orderTerm{{text: cur.Alias + ".id", desc: true}}
	} else {
		flipOrders(c.orders)
	}
	c.limitRef = "1"
}

func flipOrders(orders []orderTerm) {
	for i := range orders {
		orders[i].desc = !orders[i].desc
	}
}

func orderTexts(orders []orderTerm) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		dir := " ASC"
		if o.desc {
			dir = " DESC"
		}
		out[i] = o.text + dir
	}
	return out
}

func matchCol(cols []col, text string) (string, bool) {
	for _, cl := range cols {
		if cl.text == text || cl.name == text {
			return cl.name, true
		}
	}
	return "", false
}

func joinConds(conds []cond) string {
	if len(conds) == 1 {
		return conds[0].text
	}
	parts := make([]string, len(conds))
	for i, cn := range conds {
		if cn.composite {
			parts[i] = "(" + cn.text + ")"
		} else {
			parts[i] = cn.text
		}
	}
	return strings.Join(parts, " AND ")
}

// orRooted reports whether the predicate's top connector is OR, in
// which case its text needs wrapping before conjoining with siblings.
func orRooted(p query.P) bool {
	switch e := p.(type) {
	case *query.BinaryExpr:
		return e.Op == query.OpOr
	case *query.NaryExpr:
		return e.Op == query.OpOr
	}
	return false
}

func arrows(d query.Direction) (left, right string) {
	switch d {
	case query.Incoming:
		return "<-", "-"
	case query.Either:
		return "-", "-"
	default:
		return "-", "->"
	}
}

// deriveColumn names an unaliased projection term: the final segment
// of a field path, the function name of a call, or a positional name.
func deriveColumn(x query.Expr, i int) string {
	switch e := x.(type) {
	case *query.Field:
		if j := strings.LastIndexByte(e.Name, '.'); j >= 0 {
			return e.Name[j+1:]
		}
		return e.Name
	case *query.CallExpr:
		return string(e.Func)
	default:
		return fmt.Sprintf("column%d", i)
	}
}

func clauseName(cl query.Clause) string {
	switch cl.(type) {
	case query.WhereClause:
		return "where"
	case query.SelectClause:
		return "select"
	case query.OrderClause:
		return "order by"
	case query.GroupClause:
		return "group by"
	case query.DistinctClause:
		return "distinct"
	case query.SkipClause:
		return "skip"
	case query.TakeClause:
		return "take"
	case query.FirstClause:
		return "first"
	case query.LastClause:
		return "last"
	case query.CountClause:
		return "count"
	case query.TraverseClause:
		return "traverse"
	default:
		return ""
	}
}
