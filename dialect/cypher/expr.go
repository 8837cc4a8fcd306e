package cypher

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/nodus/query"
	"github.com/syssam/nodus/schema"
)

// exprWriter lowers expression trees against the scope's cursor
// binding. One writer serves one statement; the translator adjusts
// clause and allowAgg as it walks the clause list.
type exprWriter struct {
	t      *Translator
	scope  *Scope
	params *Params

	// join emits the MATCH pattern for a freshly allocated auxiliary
	// binding. Dotted field paths call it once per newly joined hop.
	join func(owner *Binding, p *schema.PropertySchema, aux *Binding)

	// clause names the clause under translation, for errors.
	clause string
	// allowAgg permits aggregate calls. Only projection terms set it.
	allowAgg bool
	// aggUsed reports whether the last rendered term used an aggregate.
	aggUsed bool
	// unsafe counts enclosing OR and NOT contexts. A nested property
	// joins its auxiliary node as a plain match, which requires the
	// property to be present; introducing that requirement under OR or
	// NOT would silently change the predicate's meaning, so it is
	// rejected instead.
	unsafe int
}

func (w *exprWriter) errf(format string, args ...any) error {
	typeName := ""
	if cur, err := w.scope.Cursor(); err == nil && cur.Schema != nil {
		typeName = cur.Schema.Type.Name()
	}
	return NewTranslationError(typeName, w.clause, fmt.Sprintf(format, args...), nil)
}

// renderP lowers a predicate.
func (w *exprWriter) renderP(p query.P) (string, error) {
	switch e := p.(type) {
	case *query.BinaryExpr:
		return w.renderBinaryP(e)
	case *query.NaryExpr:
		return w.renderNaryP(e)
	case *query.UnaryExpr:
		if e.Op != query.OpNot {
			return "", w.errf("operator %s is not a unary predicate", e.Op)
		}
		w.unsafe++
		inner, err := w.renderP(e.X)
		w.unsafe--
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case *query.CallExpr:
		return w.renderCallP(e)
	default:
		return "", w.errf("expression %s is not a predicate", p)
	}
}

func (w *exprWriter) renderBinaryP(e *query.BinaryExpr) (string, error) {
	switch e.Op {
	case query.OpAnd, query.OpOr:
		return w.renderLogical(e.Op, e.X, e.Y)
	case query.OpEQ, query.OpNEQ:
		if isNilValue(e.Y) {
			return w.renderNullTest(e.X, e.Op)
		}
		if isNilValue(e.X) {
			return w.renderNullTest(e.Y, e.Op)
		}
	case query.OpGT, query.OpGTE, query.OpLT, query.OpLTE:
	case query.OpIn, query.OpNotIn:
		x, err := w.renderE(e.X)
		if err != nil {
			return "", err
		}
		list, err := w.renderE(e.Y)
		if err != nil {
			return "", err
		}
		if e.Op == query.OpNotIn {
			return "NOT (" + x + " IN " + list + ")", nil
		}
		return x + " IN " + list, nil
	default:
		return "", w.errf("operator %s is not a predicate", e.Op)
	}
	x, err := w.renderE(e.X)
	if err != nil {
		return "", err
	}
	y, err := w.renderE(e.Y)
	if err != nil {
		return "", err
	}
	return x + " " + comparisons[e.Op] + " " + y, nil
}

var comparisons = map[query.Op]string{
	query.OpEQ:  "=",
	query.OpNEQ: "<>",
	query.OpGT:  ">",
	query.OpGTE: ">=",
	query.OpLT:  "<",
	query.OpLTE: "<=",
}

func (w *exprWriter) renderNullTest(x query.Expr, op query.Op) (string, error) {
	s, err := w.renderE(x)
	if err != nil {
		return "", err
	}
	if op == query.OpNEQ {
		return s + " IS NOT NULL", nil
	}
	return s + " IS NULL", nil
}

func (w *exprWriter) renderLogical(op query.Op, x, y query.Expr) (string, error) {
	connector := " AND "
	if op == query.OpOr {
		connector = " OR "
		w.unsafe++
		defer func() { w.unsafe-- }()
	}
	l, err := w.renderOperand(x)
	if err != nil {
		return "", err
	}
	r, err := w.renderOperand(y)
	if err != nil {
		return "", err
	}
	return l + connector + r, nil
}

// renderOperand renders one side of a boolean connector, wrapping
// composite operands so precedence survives textually.
func (w *exprWriter) renderOperand(x query.Expr) (string, error) {
	p, ok := x.(query.P)
	if !ok {
		return "", w.errf("expression %s is not a predicate", x)
	}
	s, err := w.renderP(p)
	if err != nil {
		return "", err
	}
	if isComposite(p) {
		return "(" + s + ")", nil
	}
	return s, nil
}

func (w *exprWriter) renderNaryP(e *query.NaryExpr) (string, error) {
	if e.Op != query.OpAnd && e.Op != query.OpOr {
		return "", w.errf("operator %s does not connect predicates", e.Op)
	}
	if len(e.Xs) == 0 {
		return "", w.errf("empty %s chain", e.Op)
	}
	connector := " AND "
	if e.Op == query.OpOr {
		connector = " OR "
		w.unsafe++
		defer func() { w.unsafe-- }()
	}
	parts := make([]string, len(e.Xs))
	for i, x := range e.Xs {
		s, err := w.renderOperand(x)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, connector), nil
}

func (w *exprWriter) renderCallP(e *query.CallExpr) (string, error) {
	switch e.Func {
	case query.FuncContains, query.FuncHasPrefix, query.FuncHasSuffix:
		x, y, err := w.renderPair(e)
		if err != nil {
			return "", err
		}
		return x + stringOps[e.Func] + y, nil
	case query.FuncContainsFold:
		x, y, err := w.renderPair(e)
		if err != nil {
			return "", err
		}
		return "toLower(" + x + ") CONTAINS toLower(" + y + ")", nil
	case query.FuncEqualFold:
		x, y, err := w.renderPair(e)
		if err != nil {
			return "", err
		}
		return "toLower(" + x + ") = toLower(" + y + ")", nil
	case query.FuncHasRel:
		return w.renderHasRel(e)
	case query.FuncCount, query.FuncSum, query.FuncAvg, query.FuncMin, query.FuncMax:
		return "", w.errf("aggregate %s is not allowed in a predicate", e.Func)
	default:
		return "", w.errf("function %s is not a predicate", e.Func)
	}
}

var stringOps = map[query.Func]string{
	query.FuncContains:  " CONTAINS ",
	query.FuncHasPrefix: " STARTS WITH ",
	query.FuncHasSuffix: " ENDS WITH ",
}

func (w *exprWriter) renderPair(e *query.CallExpr) (x, y string, err error) {
	if len(e.Args) != 2 {
		return "", "", w.errf("function %s needs two arguments, got %d", e.Func, len(e.Args))
	}
	if x, err = w.renderE(e.Args[0]); err != nil {
		return "", "", err
	}
	if y, err = w.renderE(e.Args[1]); err != nil {
		return "", "", err
	}
	return x, y, nil
}

// renderHasRel lowers a relationship existence test into an EXISTS
// subquery anchored on the cursor. Trailing predicate arguments apply
// to the far node.
func (w *exprWriter) renderHasRel(e *query.CallExpr) (string, error) {
	if len(e.Args) == 0 {
		return "", w.errf("has_rel needs a relationship kind")
	}
	kindArg, ok := e.Args[0].(*query.Field)
	if !ok || kindArg.Name == "" {
		return "", w.errf("has_rel needs a relationship kind")
	}
	cur, err := w.scope.Cursor()
	if err != nil {
		return "", err
	}
	if len(e.Args) == 1 {
		pattern := fmt.Sprintf("(%s)-[:%s]->()", cur.Alias, Ident(kindArg.Name))
		return "EXISTS { MATCH " + pattern + " }", nil
	}

	far := w.scope.BindNode(nil, nil)
	pattern := fmt.Sprintf("(%s)-[:%s]->(%s)", cur.Alias, Ident(kindArg.Name), far.Alias)
	w.scope.SetCursor(far)
	defer w.scope.SetCursor(cur)

	conds := make([]string, 0, len(e.Args)-1)
	for _, arg := range e.Args[1:] {
		p, ok := arg.(query.P)
		if !ok {
			return "", w.errf("has_rel argument %s is not a predicate", arg)
		}
		s, err := w.renderP(p)
		if err != nil {
			return "", err
		}
		if isComposite(p) {
			s = "(" + s + ")"
		}
		conds = append(conds, s)
	}
	return "EXISTS { MATCH " + pattern + " WHERE " + strings.Join(conds, " AND ") + " }", nil
}

// renderE lowers an expression in value position.
func (w *exprWriter) renderE(e query.Expr) (string, error) {
	switch x := e.(type) {
	case *query.Field:
		return w.fieldRef(x.Name)
	case *query.Value:
		ref, err := w.params.Bind(x.V)
		if err != nil {
			return "", err
		}
		return ref, nil
	case *query.BinaryExpr:
		return w.renderArith(x)
	case *query.CallExpr:
		return w.renderCallE(x)
	default:
		return "", w.errf("expression %s is not usable in value position", e)
	}
}

func (w *exprWriter) renderArith(e *query.BinaryExpr) (string, error) {
	switch e.Op {
	case query.OpAdd, query.OpSub, query.OpMul, query.OpDiv, query.OpMod:
	default:
		return "", w.errf("predicate %s is not usable in value position", e)
	}
	x, err := w.renderE(e.X)
	if err != nil {
		return "", err
	}
	y, err := w.renderE(e.Y)
	if err != nil {
		return "", err
	}
	return "(" + x + " " + e.Op.String() + " " + y + ")", nil
}

func (w *exprWriter) renderCallE(e *query.CallExpr) (string, error) {
	switch e.Func {
	case query.FuncUpper, query.FuncLower, query.FuncTrim:
		if len(e.Args) != 1 {
			return "", w.errf("function %s needs one argument, got %d", e.Func, len(e.Args))
		}
		arg, err := w.renderE(e.Args[0])
		if err != nil {
			return "", err
		}
		return transforms[e.Func] + "(" + arg + ")", nil
	case query.FuncCount, query.FuncSum, query.FuncAvg, query.FuncMin, query.FuncMax:
		if !w.allowAgg {
			return "", w.errf("aggregate %s is only allowed in a projection", e.Func)
		}
		w.aggUsed = true
		if e.Func == query.FuncCount && len(e.Args) == 0 {
			return "count(*)", nil
		}
		if len(e.Args) != 1 {
			return "", w.errf("aggregate %s needs one argument, got %d", e.Func, len(e.Args))
		}
		arg, err := w.renderE(e.Args[0])
		if err != nil {
			return "", err
		}
		return string(e.Func) + "(" + arg + ")", nil
	default:
		return "", w.errf("function %s is not usable in value position", e.Func)
	}
}

var transforms = map[query.Func]string{
	query.FuncUpper: "toUpper",
	query.FuncLower: "toLower",
	query.FuncTrim:  "trim",
}

// fieldRef resolves a possibly dotted property path against the cursor
// binding. Intermediate segments must be complex properties; each hop
// joins the auxiliary node once per statement and reuses its alias
// afterwards.
func (w *exprWriter) fieldRef(path string) (string, error) {
	cur, err := w.scope.Cursor()
	if err != nil {
		return "", err
	}
	parts := strings.Split(path, ".")
	b := cur
	for _, part := range parts[:len(parts)-1] {
		if b.Schema == nil {
			return "", w.errf("cannot navigate %q through an untyped binding", path)
		}
		p, ok := b.Schema.Property(part)
		if !ok {
			return "", NewTranslationError(b.Schema.Type.Name(), w.clause,
				fmt.Sprintf("unknown property %q", part), nil)
		}
		if !p.Class.IsComplex() {
			return "", NewTranslationError(b.Schema.Type.Name(), w.clause,
				fmt.Sprintf("property %q is simple and has no nested properties", part), nil)
		}
		et := structType(p)
		es, err := w.t.reg.SchemaOf(et)
		if err != nil {
			return "", NewTranslationError(b.Schema.Type.Name(), w.clause,
				fmt.Sprintf("complex property %q has no registered type", part), err)
		}
		if w.unsafe > 0 && !w.scope.HasAux(b, p.Name) {
			return "", NewTranslationError(b.Schema.Type.Name(), w.clause,
				fmt.Sprintf("nested property %q cannot be introduced under OR or NOT; filter it in a separate Where first", path), nil)
		}
		aux, created := w.scope.Aux(b, p.Name, et, es)
		if created && w.join != nil {
			w.join(b, p, aux)
		}
		b = aux
	}
	last := parts[len(parts)-1]
	name := last
	if b.Schema != nil {
		p, ok := b.Schema.Property(last)
		if !ok {
			return "", NewTranslationError(b.Schema.Type.Name(), w.clause,
				fmt.Sprintf("unknown property %q", last), nil)
		}
		if p.Class.IsComplex() {
			return "", NewTranslationError(b.Schema.Type.Name(), w.clause,
				fmt.Sprintf("complex property %q needs a nested path or a traversal", last), nil)
		}
		name = p.Name
	}
	return b.Alias + "." + Ident(name), nil
}

// structType returns the struct type behind a complex property,
// unwrapping pointers and collection elements.
func structType(p *schema.PropertySchema) reflect.Type {
	t := p.Type
	if p.Class.IsCollection() {
		t = p.Elem
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func isNilValue(e query.Expr) bool {
	v, ok := e.(*query.Value)
	return ok && v.V == nil
}

// isComposite reports whether the predicate is a boolean connective
// whose text needs wrapping when embedded in a larger condition.
func isComposite(p query.P) bool {
	switch e := p.(type) {
	case *query.BinaryExpr:
		return e.Op == query.OpAnd || e.Op == query.OpOr
	case *query.NaryExpr:
		return true
	}
	return false
}
