package codec

import "reflect"

// intermediate is one staged property value held in decoded form until
// a constructor parameter or field assignment claims it.
type intermediate interface {
	value() reflect.Value
}

type simpleValue struct{ v reflect.Value }

type simpleCollectionValue struct{ v reflect.Value }

type complexValue struct{ v reflect.Value }

// complexCollectionValue grows element by element as auxiliary nodes
// decode; v is the slice in its field shape.
type complexCollectionValue struct{ v reflect.Value }

func (s simpleValue) value() reflect.Value            { return s.v }
func (s simpleCollectionValue) value() reflect.Value  { return s.v }
func (s complexValue) value() reflect.Value           { return s.v }
func (s complexCollectionValue) value() reflect.Value { return s.v }
