package codec

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/nodus/schema"
)

// Serialize converts a node entity into write instructions. The entity
// must be a non-nil pointer to a registered node type; an empty
// identifier is assigned before encoding. Shared complex instances
// (pointer identity) serialize once and are marked Shared on later
// occurrences; reference cycles abort with CycleDetectedError before
// any instruction is produced.
func (c *Codec) Serialize(entity any) (*NodeWrite, error) {
	pv, es, err := c.entityValue(entity, schema.KindNode)
	if err != nil {
		return nil, err
	}
	if err := c.scanCycles(pv.Elem(), es, make(map[uintptr]bool), nil); err != nil {
		return nil, err
	}
	node := entity.(schema.INode)
	if node.GetID() == "" {
		node.SetID(uuid.NewString())
	}
	enc := &encoder{c: c, shared: make(map[uintptr]*NodeWrite)}
	return enc.encodeNode(pv, es, 0)
}

// SerializeRelationship converts a relationship entity into write
// instructions. Both endpoint identifiers must be set.
func (c *Codec) SerializeRelationship(entity any) (*RelationshipWrite, error) {
	pv, es, err := c.entityValue(entity, schema.KindRelationship)
	if err != nil {
		return nil, err
	}
	rel := entity.(schema.IRelationship)
	if rel.GetStartID() == "" {
		return nil, NewSerializationError(es.Type.Name(), "", "missing start node id", nil)
	}
	if rel.GetEndID() == "" {
		return nil, NewSerializationError(es.Type.Name(), "", "missing end node id", nil)
	}
	if rel.GetID() == "" {
		rel.SetID(uuid.NewString())
	}
	sv := pv.Elem()
	w := &RelationshipWrite{
		ID:      rel.GetID(),
		Kind:    es.Label,
		StartID: rel.GetStartID(),
		EndID:   rel.GetEndID(),
		Props:   make(map[string]any),
	}
	for _, p := range es.Properties {
		if p.Identity {
			continue
		}
		val, present, err := c.encodeSimpleProperty(fieldByIndex(sv, p.FieldIndex), es, p)
		if err != nil {
			return nil, err
		}
		if present {
			w.Props[p.Name] = val
		}
	}
	return w, nil
}

// entityValue checks the entity against the registry and returns its
// pointer value and schema.
func (c *Codec) entityValue(entity any, want schema.EntityKind) (reflect.Value, *schema.EntitySchema, error) {
	if entity == nil {
		return reflect.Value{}, nil, NewSerializationError("", "", "nil entity", nil)
	}
	pv := reflect.ValueOf(entity)
	if pv.Kind() != reflect.Ptr || pv.IsNil() || pv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, nil, NewSerializationError(pv.Type().String(), "",
			"entity must be a non-nil pointer to a struct", nil)
	}
	es, err := c.reg.SchemaOf(pv.Type())
	if err != nil {
		return reflect.Value{}, nil, NewSerializationError(pv.Elem().Type().Name(), "", "type is not registered", err)
	}
	if es.Kind != want {
		return reflect.Value{}, nil, NewSerializationError(es.Type.Name(), "",
			fmt.Sprintf("expected a %s type, got a %s type", want, es.Kind), nil)
	}
	return pv, es, nil
}

// scanCycles walks the complex-property-reachable values and rejects
// on-path pointer repeats. Off-path repeats are shared references and
// legal; plain node-to-node references do not pass through here at all,
// so they can never trip the scan.
func (c *Codec) scanCycles(sv reflect.Value, es *schema.EntitySchema, onPath map[uintptr]bool, path []string) error {
	for _, p := range es.Properties {
		if !p.Class.IsComplex() {
			continue
		}
		fv := fieldByIndex(sv, p.FieldIndex)
		if p.Class == schema.Complex {
			if err := c.scanCycleValue(fv, p, onPath, append(path, p.Name)); err != nil {
				return err
			}
			continue
		}
		if fv.Kind() == reflect.Slice && fv.IsNil() {
			continue
		}
		for i := 0; i < fv.Len(); i++ {
			if err := c.scanCycleValue(fv.Index(i), p, onPath, append(path, p.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Codec) scanCycleValue(v reflect.Value, p *schema.PropertySchema, onPath map[uintptr]bool, path []string) error {
	var key uintptr
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		key = v.Pointer()
		if onPath[key] {
			return NewCycleDetectedError(v.Type().Elem().Name(), path)
		}
		onPath[key] = true
		v = v.Elem()
	}
	sub, err := c.reg.SchemaOf(v.Type())
	if err != nil {
		return NewSerializationError(v.Type().Name(), p.Name, "complex type is not registered", err)
	}
	if err := c.scanCycles(v, sub, onPath, path); err != nil {
		return err
	}
	if key != 0 {
		delete(onPath, key)
	}
	return nil
}

type encoder struct {
	c      *Codec
	shared map[uintptr]*NodeWrite
}

func (e *encoder) encodeNode(v reflect.Value, es *schema.EntitySchema, depth int) (*NodeWrite, error) {
	if depth > e.c.maxDepth {
		return nil, NewSerializationError(es.Type.Name(), "",
			fmt.Sprintf("complex property depth exceeds %d", e.c.maxDepth), nil)
	}
	sv := v
	if sv.Kind() == reflect.Ptr {
		sv = sv.Elem()
	}
	w := &NodeWrite{Labels: []string{es.Label}, Props: make(map[string]any)}
	if es.Kind == schema.KindNode {
		w.ID = fieldByIndex(sv, es.Identity().FieldIndex).String()
	} else {
		// Auxiliary nodes get a fresh identifier per write; updates
		// replace the property subtree wholesale.
		w.ID = uuid.NewString()
	}
	for _, p := range es.Properties {
		if p.Identity {
			continue
		}
		fv := fieldByIndex(sv, p.FieldIndex)
		switch p.Class {
		case schema.Simple, schema.SimpleCollection:
			val, present, err := e.c.encodeSimpleProperty(fv, es, p)
			if err != nil {
				return nil, err
			}
			if present {
				w.Props[p.Name] = val
			}
		case schema.Complex:
			if fv.Kind() == reflect.Ptr && fv.IsNil() {
				if p.Required {
					return nil, NewSerializationError(es.Type.Name(), p.Name, "missing required property", nil)
				}
				continue
			}
			child, sharedNode, err := e.encodeComplex(fv, p, depth)
			if err != nil {
				return nil, err
			}
			w.Nested = append(w.Nested, &NestedWrite{
				Property: p.Name,
				RelKind:  p.RelKind,
				Node:     child,
				Shared:   sharedNode,
			})
		case schema.ComplexCollection:
			if fv.Kind() == reflect.Slice && fv.IsNil() {
				if p.Required {
					return nil, NewSerializationError(es.Type.Name(), p.Name, "missing required property", nil)
				}
				continue
			}
			for i := 0; i < fv.Len(); i++ {
				ev := fv.Index(i)
				if ev.Kind() == reflect.Ptr && ev.IsNil() {
					continue
				}
				child, sharedNode, err := e.encodeComplex(ev, p, depth)
				if err != nil {
					return nil, err
				}
				w.Nested = append(w.Nested, &NestedWrite{
					Property: p.Name,
					RelKind:  p.RelKind,
					Node:     child,
					Shared:   sharedNode,
				})
			}
		}
	}
	return w, nil
}

// encodeComplex serializes one complex instance, reusing the existing
// write when the same pointer was already encoded in this call.
func (e *encoder) encodeComplex(v reflect.Value, p *schema.PropertySchema, depth int) (*NodeWrite, bool, error) {
	var key uintptr
	if v.Kind() == reflect.Ptr {
		key = v.Pointer()
		if w, ok := e.shared[key]; ok {
			return w, true, nil
		}
	}
	sub, err := e.c.reg.SchemaOf(v.Type())
	if err != nil {
		return nil, false, NewSerializationError(structTypeName(v.Type()), p.Name, "complex type is not registered", err)
	}
	w, err := e.encodeNode(v, sub, depth+1)
	if err != nil {
		return nil, false, err
	}
	if key != 0 {
		e.shared[key] = w
	}
	return w, false, nil
}

// encodeSimpleProperty enforces required and validate before converting
// the value. The bool result reports presence; absent optional values
// produce no stored property.
func (c *Codec) encodeSimpleProperty(fv reflect.Value, es *schema.EntitySchema, p *schema.PropertySchema) (any, bool, error) {
	if p.Required && missingValue(fv) {
		return nil, false, NewSerializationError(es.Type.Name(), p.Name, "missing required property", nil)
	}
	v := fv
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, false, nil
		}
		v = v.Elem()
	}
	if p.Validate != "" {
		if err := c.validate.Var(v.Interface(), p.Validate); err != nil {
			return nil, false, NewSerializationError(es.Type.Name(), p.Name, "constraint violation", err)
		}
	}
	if p.Class == schema.SimpleCollection {
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, false, nil
		}
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return append([]byte(nil), v.Bytes()...), true, nil
		}
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			ev := v.Index(i)
			if ev.Kind() == reflect.Ptr {
				if ev.IsNil() {
					out[i] = nil
					continue
				}
				ev = ev.Elem()
			}
			enc, err := encodeScalar(ev, es.Type.Name(), p.Name)
			if err != nil {
				return nil, false, err
			}
			out[i] = enc
		}
		return out, true, nil
	}
	enc, err := encodeScalar(v, es.Type.Name(), p.Name)
	if err != nil {
		return nil, false, err
	}
	return enc, true, nil
}

// encodeScalar converts one scalar to its stored representation:
// widened integers, float64, string, bool, time.Time, time.Duration and
// Point3D pass through as the dialect-neutral kinds drivers accept.
func encodeScalar(v reflect.Value, typeName, propName string) (any, error) {
	switch v.Type() {
	case timeType:
		return v.Interface().(time.Time), nil
	case durationType:
		return v.Interface().(time.Duration), nil
	case pointType:
		return v.Interface().(schema.Point3D), nil
	}
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, NewSerializationError(typeName, propName,
				fmt.Sprintf("unsigned value %d overflows the stored integer range", u), nil)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		return v.String(), nil
	}
	return nil, NewSerializationError(typeName, propName, "unsupported runtime value "+v.Type().String(), nil)
}

// missingValue reports whether a value fails a required constraint:
// nil pointers, empty strings, nil or empty slices, and the zero time.
// Numeric and boolean zeros are legitimate values.
func missingValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr:
		return v.IsNil()
	case reflect.String:
		return v.Len() == 0
	case reflect.Slice:
		return v.IsNil() || v.Len() == 0
	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface().(time.Time).IsZero()
		}
	}
	return false
}

func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	for _, i := range index {
		v = v.Field(i)
	}
	return v
}

func structTypeName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	pointType    = reflect.TypeOf(schema.Point3D{})
)
