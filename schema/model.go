package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// EntityKind distinguishes the three shapes the registry knows about.
type EntityKind uint8

const (
	// KindNode is a type embedding Node.
	KindNode EntityKind = iota + 1
	// KindRelationship is a type embedding Relationship.
	KindRelationship
	// KindComplex is a plain struct stored as an auxiliary node.
	KindComplex
)

// String returns the lowercase name of the kind.
func (k EntityKind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindRelationship:
		return "relationship"
	case KindComplex:
		return "complex"
	default:
		return fmt.Sprintf("EntityKind(%d)", uint8(k))
	}
}

// Classification describes how a property maps onto graph storage.
type Classification uint8

const (
	// Simple properties are stored inline on the owning node or
	// relationship.
	Simple Classification = iota + 1
	// SimpleCollection properties are homogeneous lists of simple
	// values, stored inline.
	SimpleCollection
	// Complex properties are structs persisted as auxiliary nodes
	// linked through a reserved relationship kind.
	Complex
	// ComplexCollection properties are lists of complex values, one
	// auxiliary node per element.
	ComplexCollection
)

// String returns the name of the classification.
func (c Classification) String() string {
	switch c {
	case Simple:
		return "simple"
	case SimpleCollection:
		return "simple collection"
	case Complex:
		return "complex"
	case ComplexCollection:
		return "complex collection"
	default:
		return fmt.Sprintf("Classification(%d)", uint8(c))
	}
}

// IsComplex reports whether the classification requires auxiliary
// nodes.
func (c Classification) IsComplex() bool {
	return c == Complex || c == ComplexCollection
}

// IsCollection reports whether the classification is list shaped.
func (c Classification) IsCollection() bool {
	return c == SimpleCollection || c == ComplexCollection
}

// PropertySchema describes one declared property of an entity type.
type PropertySchema struct {
	// Name is the stored property name, from the graph tag or derived
	// from the field name.
	Name string
	// FieldName is the Go field the property maps to.
	FieldName string
	// FieldIndex is the reflect index path of the field, through
	// embedded structs.
	FieldIndex []int
	// Class is how the property maps onto storage.
	Class Classification
	// Type is the declared field type.
	Type reflect.Type
	// Elem is the element type for collection classifications.
	Elem reflect.Type

	// Identity marks the id property contributed by the marker.
	Identity bool
	// Required properties must be present on write.
	Required bool
	// Unique properties get a uniqueness constraint in the emitted DDL.
	Unique bool
	// Indexed properties get a range index in the emitted DDL.
	Indexed bool
	// FullText properties participate in the full-text index. Defaults
	// to true for string-typed simple properties.
	FullText bool
	// Validate is a go-playground/validator expression enforced at
	// serialization time, from the validate tag.
	Validate string
	// RelKind is the reserved relationship kind linking the owner to
	// the auxiliary node. Set for complex classifications only.
	RelKind string
}

// ConstructorSpec binds a constructor function to the stored property
// names its parameters consume, by position.
type ConstructorSpec struct {
	Fn     reflect.Value
	Params []string
}

// EntitySchema is the immutable description of one registered type.
// Instances are built once during Registry.Initialize and never
// mutated afterward.
type EntitySchema struct {
	// Type is the struct type, without pointer.
	Type reflect.Type
	// Kind is the entity shape.
	Kind EntityKind
	// Label is the node label or relationship kind under which
	// instances are stored. For complex types it names the auxiliary
	// node label.
	Label string
	// Properties holds the declared properties in declaration order.
	Properties []*PropertySchema
	// Constructors holds the registered construction paths, if any.
	Constructors []*ConstructorSpec

	byName map[string]*PropertySchema
}

// Property returns the property with the given stored name. Lookup is
// case-insensitive, matching the constructor parameter rules.
func (s *EntitySchema) Property(name string) (*PropertySchema, bool) {
	p, ok := s.byName[strings.ToLower(name)]
	return p, ok
}

// Identity returns the id property, or nil for complex types that are
// only ever stored as auxiliary nodes of an owner.
func (s *EntitySchema) Identity() *PropertySchema {
	for _, p := range s.Properties {
		if p.Identity {
			return p
		}
	}
	return nil
}

// ComplexProperties returns the properties persisted as auxiliary
// nodes, in declaration order.
func (s *EntitySchema) ComplexProperties() []*PropertySchema {
	var out []*PropertySchema
	for _, p := range s.Properties {
		if p.Class.IsComplex() {
			out = append(out, p)
		}
	}
	return out
}

// SimpleProperties returns the properties stored inline, in declaration
// order.
func (s *EntitySchema) SimpleProperties() []*PropertySchema {
	var out []*PropertySchema
	for _, p := range s.Properties {
		if !p.Class.IsComplex() {
			out = append(out, p)
		}
	}
	return out
}

// TypeSpec is one manifest entry handed to Registry.Initialize.
type TypeSpec struct {
	value        any
	constructors []constructorBinding
}

type constructorBinding struct {
	fn     any
	params []string
}

// TypeOption configures a manifest entry.
type TypeOption func(*TypeSpec)

// Type declares a node, relationship or complex type for registration.
func Type(v any, opts ...TypeOption) TypeSpec {
	ts := TypeSpec{value: v}
	for _, opt := range opts {
		opt(&ts)
	}
	return ts
}

// Types declares several entries without options.
func Types(vs ...any) []TypeSpec {
	specs := make([]TypeSpec, len(vs))
	for i, v := range vs {
		specs[i] = Type(v)
	}
	return specs
}

// WithConstructor registers fn as a construction path for the type.
// params name the stored properties bound to the function parameters,
// by position; Go reflection cannot recover parameter names, so they
// are spelled out here. fn must return the type (or a pointer to it),
// optionally with an error.
func WithConstructor(fn any, params ...string) TypeOption {
	return func(ts *TypeSpec) {
		ts.constructors = append(ts.constructors, constructorBinding{fn: fn, params: params})
	}
}
