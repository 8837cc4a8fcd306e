package cypher

import (
	"fmt"
	"reflect"
	"time"

	"github.com/syssam/nodus/schema"
)

// Binding is one pattern variable: its alias and, when known, the
// entity schema bound to it. Untyped bindings render raw property
// references without validation.
type Binding struct {
	Alias  string
	Type   reflect.Type
	Schema *schema.EntitySchema
}

// Scope allocates pattern aliases and tracks the cursor, the binding
// subsequent clauses apply to. Node aliases count up as n0, n1, ...,
// relationship aliases as r0, r1, ... and path aliases as p0, p1, ...
// Aliases are never reused within one statement.
type Scope struct {
	nodes, rels, paths int
	byAlias            map[string]*Binding
	aux                map[string]*Binding
	cursor             *Binding
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{
		byAlias: make(map[string]*Binding),
		aux:     make(map[string]*Binding),
	}
}

// BindNode allocates the next node alias.
func (s *Scope) BindNode(t reflect.Type, es *schema.EntitySchema) *Binding {
	b := &Binding{Alias: fmt.Sprintf("n%d", s.nodes), Type: t, Schema: es}
	s.nodes++
	s.byAlias[b.Alias] = b
	return b
}

// BindRelationship allocates the next relationship alias.
func (s *Scope) BindRelationship(t reflect.Type, es *schema.EntitySchema) *Binding {
	b := &Binding{Alias: fmt.Sprintf("r%d", s.rels), Type: t, Schema: es}
	s.rels++
	s.byAlias[b.Alias] = b
	return b
}

// BindPath allocates the next path alias.
func (s *Scope) BindPath() string {
	alias := fmt.Sprintf("p%d", s.paths)
	s.paths++
	s.byAlias[alias] = &Binding{Alias: alias}
	return alias
}

// Cursor returns the binding clauses currently apply to.
func (s *Scope) Cursor() (*Binding, error) {
	if s.cursor == nil {
		return nil, NewAliasResolutionError("", "no binding in scope")
	}
	return s.cursor, nil
}

// SetCursor moves the cursor.
func (s *Scope) SetCursor(b *Binding) { s.cursor = b }

// Resolve returns the binding behind an alias.
func (s *Scope) Resolve(alias string) (*Binding, error) {
	b, ok := s.byAlias[alias]
	if !ok {
		return nil, NewAliasResolutionError(alias, "not bound in this scope")
	}
	return b, nil
}

// Aux returns the binding joined for the owner's complex property,
// allocating it on first use. Repeated references to the same property
// share one alias, so predicates over it stay consistent. created
// reports whether the caller must emit the join pattern.
func (s *Scope) Aux(owner *Binding, property string, t reflect.Type, es *schema.EntitySchema) (b *Binding, created bool) {
	key := owner.Alias + "." + property
	if b, ok := s.aux[key]; ok {
		return b, false
	}
	b = s.BindNode(t, es)
	s.aux[key] = b
	return b, true
}

// HasAux reports whether the owner's complex property is already
// joined.
func (s *Scope) HasAux(owner *Binding, property string) bool {
	_, ok := s.aux[owner.Alias+"."+property]
	return ok
}

// Params collects the named parameters of one statement, numbered in
// first-use order. Every literal is lifted; compiled text never
// carries an inline value.
type Params struct {
	m map[string]any
	n int
}

// NewParams returns an empty parameter set.
func NewParams() *Params { return &Params{m: make(map[string]any)} }

// Bind lifts a literal into the next named parameter and returns its
// textual reference, $p0 onward.
func (p *Params) Bind(v any) (string, error) {
	if err := bindable(reflect.ValueOf(v), v); err != nil {
		return "", err
	}
	name := fmt.Sprintf("p%d", p.n)
	p.n++
	p.m[name] = v
	return "$" + name, nil
}

// Map returns the bound parameters, keyed without the $ sigil the way
// drivers expect them.
func (p *Params) Map() map[string]any { return p.m }

// Len returns the number of bound parameters.
func (p *Params) Len() int { return p.n }

// bindable rejects values the wire protocol cannot carry.
func bindable(rv reflect.Value, orig any) error {
	if !rv.IsValid() {
		return nil
	}
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return NewParameterBindingError(orig, "unsupported parameter kind "+rv.Kind().String())
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return bindable(rv.Elem(), orig)
	case reflect.Struct:
		switch rv.Type() {
		case timeType, pointType:
			return nil
		}
		return NewParameterBindingError(orig, "unsupported parameter type "+rv.Type().String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < rv.Len(); i++ {
			if err := bindable(rv.Index(i), orig); err != nil {
				return err
			}
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return NewParameterBindingError(orig, "map parameters must have string keys")
		}
		iter := rv.MapRange()
		for iter.Next() {
			if err := bindable(iter.Value(), orig); err != nil {
				return err
			}
		}
	}
	return nil
}

var (
	timeType  = reflect.TypeOf(time.Time{})
	pointType = reflect.TypeOf(schema.Point3D{})
)
