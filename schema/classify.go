package schema

import (
	"reflect"
	"time"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	point3DType  = reflect.TypeOf(Point3D{})

	nodeMarkerType = reflect.TypeOf(Node{})
	relMarkerType  = reflect.TypeOf(Relationship{})
)

// isSimpleScalar reports whether t is one of the closed set of simple
// scalar kinds: booleans, integers, floats, strings (including named
// kinds of those), time.Time, time.Duration and Point3D.
func isSimpleScalar(t reflect.Type) bool {
	switch t {
	case timeType, durationType, point3DType:
		return true
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	}
	return false
}

// classify maps a declared field type to its storage classification.
// One level of pointer indirection is transparent and marks the
// property optional. The zero Classification means the type is not
// storable.
func classify(t reflect.Type) (c Classification, elem reflect.Type) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
		if t.Kind() == reflect.Ptr {
			return 0, nil
		}
	}
	if isSimpleScalar(t) {
		return Simple, nil
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		e := t.Elem()
		if e.Kind() == reflect.Ptr {
			e = e.Elem()
		}
		if isSimpleScalar(e) {
			return SimpleCollection, t.Elem()
		}
		if e.Kind() == reflect.Struct && !isMarkerStruct(e) {
			return ComplexCollection, t.Elem()
		}
		return 0, nil
	case reflect.Struct:
		if isMarkerStruct(t) {
			return 0, nil
		}
		return Complex, nil
	}
	return 0, nil
}

// IsSimpleType reports whether t is storable inline: a simple scalar or
// a collection of simple scalars.
func IsSimpleType(t reflect.Type) bool {
	c, _ := classify(t)
	return c == Simple || c == SimpleCollection
}

// IsComplexType reports whether t is storable as an auxiliary node: a
// struct (or pointer to one) whose fields are recursively simple or
// complex, with no node or relationship type reachable.
func IsComplexType(t reflect.Type) bool {
	c, _ := classify(t)
	if c != Complex {
		return false
	}
	return validateComplex(structType(t), make(map[reflect.Type]bool)) == nil
}

// isMarkerStruct reports whether t is a marker or embeds one at any
// depth, i.e. whether it is an entity type rather than a value type.
func isMarkerStruct(t reflect.Type) bool {
	if t == nodeMarkerType || t == relMarkerType {
		return true
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct && isMarkerStruct(f.Type) {
			return true
		}
	}
	return false
}

// structType strips one pointer level and returns the struct type.
func structType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// validateComplex walks a complex candidate and returns a
// ConfigurationError when an entity type or an unsupported kind is
// reachable from it. seen breaks type-level recursion; instance-level
// cycles are the codec's concern.
func validateComplex(t reflect.Type, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true
	if isMarkerStruct(t) {
		return NewConfigurationError(t.Name(), "", "entity types cannot appear inside complex properties", nil)
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		if tagName(f) == "-" {
			continue
		}
		ft := f.Type
		c, elem := classify(ft)
		switch c {
		case Simple, SimpleCollection:
		case Complex:
			if err := validateComplex(structType(ft), seen); err != nil {
				return err
			}
		case ComplexCollection:
			if err := validateComplex(structType(elem), seen); err != nil {
				return err
			}
		default:
			return NewConfigurationError(t.Name(), f.Name, "unsupported property type "+ft.String(), nil)
		}
	}
	return nil
}
