package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	stringType = reflect.TypeOf("")
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
)

// Registry holds the EntitySchema descriptions of every declared type.
// It is built exactly once: concurrent first callers of Initialize race
// to perform the scan, everyone else blocks until it completes and
// observes its result. Lookups after a successful Initialize are
// lock-free.
type Registry struct {
	once   sync.Once
	err    error
	tables atomic.Pointer[registryTables]
}

type registryTables struct {
	byLabel map[string]*EntitySchema
	byType  map[reflect.Type]*EntitySchema
	all     []*EntitySchema
}

// NewRegistry returns an empty, uninitialized registry.
func NewRegistry() *Registry { return &Registry{} }

// Initialize scans the manifest and builds the schema tables. The first
// call wins; later calls return the first call's result without
// rescanning, regardless of their arguments.
func (r *Registry) Initialize(specs ...TypeSpec) error {
	r.once.Do(func() {
		t, err := buildTables(specs)
		if err != nil {
			r.err = err
			return
		}
		r.tables.Store(t)
	})
	return r.err
}

// Initialized reports whether a successful Initialize has completed.
func (r *Registry) Initialized() bool { return r.tables.Load() != nil }

// Lookup returns the schema registered under the given node label or
// relationship kind.
func (r *Registry) Lookup(label string) (*EntitySchema, error) {
	t := r.tables.Load()
	if t == nil {
		return nil, NewNotFoundError(label, "registry is not initialized")
	}
	es, ok := t.byLabel[label]
	if !ok {
		return nil, NewNotFoundError(label, "")
	}
	return es, nil
}

// SchemaOf returns the schema of the given type. Pointer types resolve
// to their element.
func (r *Registry) SchemaOf(typ reflect.Type) (*EntitySchema, error) {
	t := r.tables.Load()
	if t == nil {
		return nil, NewNotFoundError(typ.String(), "registry is not initialized")
	}
	es, ok := t.byType[structType(typ)]
	if !ok {
		return nil, NewNotFoundError(typ.String(), "")
	}
	return es, nil
}

// SchemaFor returns the schema of the value's dynamic type.
func (r *Registry) SchemaFor(v any) (*EntitySchema, error) {
	if v == nil {
		return nil, NewNotFoundError("<nil>", "")
	}
	return r.SchemaOf(reflect.TypeOf(v))
}

// Schemas returns the node and relationship schemas in registration
// order. Complex sub-schemas discovered during the scan are excluded.
func (r *Registry) Schemas() []*EntitySchema {
	t := r.tables.Load()
	if t == nil {
		return nil
	}
	return append([]*EntitySchema(nil), t.all...)
}

type tableBuilder struct {
	byLabel map[string]*EntitySchema
	byType  map[reflect.Type]*EntitySchema
	all     []*EntitySchema
}

func buildTables(specs []TypeSpec) (*registryTables, error) {
	b := &tableBuilder{
		byLabel: make(map[string]*EntitySchema),
		byType:  make(map[reflect.Type]*EntitySchema),
	}
	for _, spec := range specs {
		if spec.value == nil {
			return nil, NewConfigurationError("", "", "nil manifest entry", nil)
		}
		t := structType(reflect.TypeOf(spec.value))
		if t.Kind() != reflect.Struct {
			return nil, NewConfigurationError(t.String(), "", "manifest entries must be struct types", nil)
		}
		es, err := b.scan(t)
		if err != nil {
			return nil, err
		}
		for _, cb := range spec.constructors {
			if err := bindConstructor(es, cb); err != nil {
				return nil, err
			}
		}
	}
	if err := b.checkRequiredCycles(); err != nil {
		return nil, err
	}
	return &registryTables{byLabel: b.byLabel, byType: b.byType, all: b.all}, nil
}

// scan builds (or returns) the EntitySchema of t. The schema is put in
// the type table before its fields are walked so that type-level
// recursion through complex properties terminates.
func (b *tableBuilder) scan(t reflect.Type) (*EntitySchema, error) {
	if es, ok := b.byType[t]; ok {
		return es, nil
	}
	es := &EntitySchema{Type: t, byName: make(map[string]*PropertySchema)}
	markerIdx := -1
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		switch f.Type {
		case nodeMarkerType, relMarkerType:
			if markerIdx >= 0 {
				return nil, NewConfigurationError(t.Name(), f.Name, "multiple entity markers", nil)
			}
			markerIdx = i
			if f.Type == nodeMarkerType {
				es.Kind = KindNode
			} else {
				es.Kind = KindRelationship
			}
			if name := tagName(f); name != "" && name != "-" {
				es.Label = name
			}
		}
	}
	switch es.Kind {
	case KindNode:
		if es.Label == "" {
			es.Label = defaultLabel(t)
		}
	case KindRelationship:
		if es.Label == "" {
			es.Label = defaultRelKind(t)
		}
	default:
		es.Kind = KindComplex
		es.Label = defaultLabel(t)
	}
	if es.Kind != KindComplex {
		if prev, ok := b.byLabel[es.Label]; ok {
			return nil, NewConfigurationError(t.Name(), "",
				fmt.Sprintf("label %q already registered by %s", es.Label, prev.Type.Name()), nil)
		}
		b.byLabel[es.Label] = es
		b.all = append(b.all, es)
	}
	b.byType[t] = es
	if err := b.walkFields(es, t, nil); err != nil {
		return nil, err
	}
	return es, nil
}

// walkFields collects the properties of t into es, flattening embedded
// value structs the way mixins compose.
func (b *tableBuilder) walkFields(es *EntitySchema, t reflect.Type, index []int) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		idx := append(append([]int(nil), index...), i)
		switch {
		case f.Anonymous && (f.Type == nodeMarkerType || f.Type == relMarkerType):
			id := &PropertySchema{
				Name:       "id",
				FieldName:  "ID",
				FieldIndex: append(idx, 0),
				Class:      Simple,
				Type:       stringType,
				Identity:   true,
				Unique:     true,
			}
			if err := b.addProperty(es, id, f.Name); err != nil {
				return err
			}
			continue
		case f.PkgPath != "": // unexported
			continue
		case tagName(f) == "-":
			continue
		case f.Anonymous && f.Type.Kind() == reflect.Struct && tagName(f) == "":
			if isMarkerStruct(f.Type) {
				return NewConfigurationError(t.Name(), f.Name, "entity types cannot be embedded as mixins", nil)
			}
			if err := b.walkFields(es, f.Type, idx); err != nil {
				return err
			}
			continue
		}
		p, err := b.property(es, f, idx)
		if err != nil {
			return err
		}
		if err := b.addProperty(es, p, f.Name); err != nil {
			return err
		}
	}
	return nil
}

func (b *tableBuilder) property(es *EntitySchema, f reflect.StructField, idx []int) (*PropertySchema, error) {
	class, elem := classify(f.Type)
	if class == 0 {
		msg := "unsupported property type " + f.Type.String()
		if ft := structType(f.Type); ft.Kind() == reflect.Struct && isMarkerStruct(ft) {
			msg = "entity types cannot be properties; connect nodes through relationship types"
		}
		return nil, NewConfigurationError(es.Type.Name(), f.Name, msg, nil)
	}
	p := &PropertySchema{
		Name:       storedName(f),
		FieldName:  f.Name,
		FieldIndex: idx,
		Class:      class,
		Type:       f.Type,
		Elem:       elem,
		Validate:   f.Tag.Get("validate"),
	}
	if class == Simple && structType(f.Type).Kind() == reflect.String {
		p.FullText = true
	}
	for _, opt := range tagOptions(f) {
		switch opt {
		case "required":
			p.Required = true
		case "unique":
			p.Unique = true
		case "index":
			p.Indexed = true
		case "fulltext":
			p.FullText = true
		case "nofulltext":
			p.FullText = false
		case "":
		default:
			return nil, NewConfigurationError(es.Type.Name(), f.Name, fmt.Sprintf("unknown graph tag option %q", opt), nil)
		}
	}
	if class.IsComplex() {
		if es.Kind == KindRelationship {
			return nil, NewConfigurationError(es.Type.Name(), f.Name, "relationship types carry simple properties only", nil)
		}
		if p.Unique || p.Indexed || p.FullText {
			return nil, NewConfigurationError(es.Type.Name(), f.Name, "unique, index and fulltext apply to simple properties only", nil)
		}
		p.RelKind = PropertyRelKind(p.Name)
		sub := structType(f.Type)
		if class == ComplexCollection {
			sub = structType(elem)
		}
		if _, err := b.scan(sub); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (b *tableBuilder) addProperty(es *EntitySchema, p *PropertySchema, goField string) error {
	key := strings.ToLower(p.Name)
	if prev, ok := es.byName[key]; ok {
		return NewConfigurationError(es.Type.Name(), goField,
			fmt.Sprintf("stored name %q already used by field %s", p.Name, prev.FieldName), nil)
	}
	es.byName[key] = p
	es.Properties = append(es.Properties, p)
	return nil
}

// bindConstructor validates and attaches one registered constructor.
func bindConstructor(es *EntitySchema, cb constructorBinding) error {
	fv := reflect.ValueOf(cb.fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return NewConfigurationError(es.Type.Name(), "", "constructor must be a function", nil)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return NewConfigurationError(es.Type.Name(), "", "variadic constructors are not supported", nil)
	}
	if ft.NumIn() != len(cb.params) {
		return NewConfigurationError(es.Type.Name(), "",
			fmt.Sprintf("constructor takes %d parameters, %d names given", ft.NumIn(), len(cb.params)), nil)
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if !ft.Out(1).Implements(errorType) {
			return NewConfigurationError(es.Type.Name(), "", "constructor's second return value must be error", nil)
		}
	default:
		return NewConfigurationError(es.Type.Name(), "", "constructor must return the type, optionally with error", nil)
	}
	if out := structType(ft.Out(0)); out != es.Type {
		return NewConfigurationError(es.Type.Name(), "",
			"constructor must return "+es.Type.Name()+" or *"+es.Type.Name(), nil)
	}
	spec := &ConstructorSpec{Fn: fv, Params: make([]string, len(cb.params))}
	for i, param := range cb.params {
		p, ok := es.Property(param)
		if !ok {
			return NewConfigurationError(es.Type.Name(), "",
				fmt.Sprintf("constructor parameter %q matches no property", param), nil)
		}
		if in := ft.In(i); in != p.Type && !p.Type.AssignableTo(in) {
			return NewConfigurationError(es.Type.Name(), p.FieldName,
				fmt.Sprintf("constructor parameter %q has type %s, property is %s", param, in, p.Type), nil)
		}
		spec.Params[i] = p.Name
	}
	es.Constructors = append(es.Constructors, spec)
	return nil
}

// checkRequiredCycles rejects manifests where a type reaches itself
// through required singular complex properties: no instance of such a
// type could ever satisfy its own requirements.
func (b *tableBuilder) checkRequiredCycles() error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[reflect.Type]int)
	var visit func(es *EntitySchema, path []string) error
	visit = func(es *EntitySchema, path []string) error {
		switch state[es.Type] {
		case done:
			return nil
		case visiting:
			return NewConfigurationError(es.Type.Name(), "",
				"required complex properties form a cycle: "+strings.Join(path, " -> ")+" -> "+es.Type.Name(), nil)
		}
		state[es.Type] = visiting
		for _, p := range es.Properties {
			if p.Class != Complex || !p.Required {
				continue
			}
			sub, ok := b.byType[structType(p.Type)]
			if !ok {
				continue
			}
			if err := visit(sub, append(path, es.Type.Name())); err != nil {
				return err
			}
		}
		state[es.Type] = done
		return nil
	}
	for _, es := range b.byType {
		if err := visit(es, nil); err != nil {
			return err
		}
	}
	return nil
}
