package codec

import (
	"fmt"
	"reflect"
	"time"

	"github.com/syssam/nodus/dialect"
	"github.com/syssam/nodus/schema"
)

// Subgraph is the raw driver view of one entity: the root node plus the
// auxiliary property nodes reachable over reserved relationships.
// Materialization accumulates the paths returned for one root here and
// hands the whole bundle to Deserialize.
type Subgraph struct {
	Root  dialect.Node
	nodes map[string]dialect.Node
	out   map[string][]dialect.Relationship
	seen  map[string]bool
}

// NewSubgraph starts a subgraph rooted at n.
func NewSubgraph(n dialect.Node) *Subgraph {
	s := &Subgraph{
		Root:  n,
		nodes: make(map[string]dialect.Node),
		out:   make(map[string][]dialect.Relationship),
		seen:  make(map[string]bool),
	}
	s.AddNode(n)
	return s
}

// AddNode records a node by element id. Re-adding is a no-op.
func (s *Subgraph) AddNode(n dialect.Node) {
	if _, ok := s.nodes[n.ElementID]; !ok {
		s.nodes[n.ElementID] = n
	}
}

// AddRelationship records an outgoing edge once, preserving insertion
// order per start node. Overlapping paths re-deliver shared prefixes;
// the element id keeps them single.
func (s *Subgraph) AddRelationship(r dialect.Relationship) {
	if s.seen[r.ElementID] {
		return
	}
	s.seen[r.ElementID] = true
	s.out[r.StartElementID] = append(s.out[r.StartElementID], r)
}

// AddPath records every node and relationship along p.
func (s *Subgraph) AddPath(p dialect.Path) {
	for _, n := range p.Nodes {
		s.AddNode(n)
	}
	for _, r := range p.Relationships {
		s.AddRelationship(r)
	}
}

// Node returns a recorded node by element id.
func (s *Subgraph) Node(elementID string) (dialect.Node, bool) {
	n, ok := s.nodes[elementID]
	return n, ok
}

// Deserialize reconstructs an entity from a subgraph. The concrete type
// is resolved from the root node's labels when one of them is
// registered; want (a struct or pointer-to-struct type, may be nil)
// otherwise decides, and a conflict between the two is an error. The
// result is a pointer to the entity with identity and labels applied.
func (c *Codec) Deserialize(sub *Subgraph, want reflect.Type) (any, error) {
	es, err := c.resolveNodeSchema(sub.Root, want)
	if err != nil {
		return nil, err
	}
	d := &decoder{c: c, sub: sub, visited: make(map[string]reflect.Value)}
	pv, err := d.decodeNode(sub.Root, es, 0)
	if err != nil {
		return nil, err
	}
	entity := pv.Interface()
	if node, ok := entity.(schema.INode); ok {
		schema.ApplyNodeMetadata(node, sub.Root.Labels)
	}
	return entity, nil
}

// DeserializeRelationship reconstructs a relationship entity from a raw
// edge. startID and endID are the entity identifiers of the endpoints,
// resolved by the caller from the same result row.
func (c *Codec) DeserializeRelationship(rel dialect.Relationship, startID, endID string, want reflect.Type) (any, error) {
	es, err := c.resolveRelationshipSchema(rel, want)
	if err != nil {
		return nil, err
	}
	d := &decoder{c: c, visited: make(map[string]reflect.Value)}
	staged, err := d.stageSimple(rel.Props, es)
	if err != nil {
		return nil, err
	}
	pv, err := d.construct(es, staged)
	if err != nil {
		return nil, err
	}
	r := pv.Interface().(schema.IRelationship)
	r.SetStartID(startID)
	r.SetEndID(endID)
	schema.ApplyRelationshipMetadata(r, rel.Type)
	return r, nil
}

func (c *Codec) resolveNodeSchema(n dialect.Node, want reflect.Type) (*schema.EntitySchema, error) {
	wantStruct := normalizeWant(want)
	for _, label := range n.Labels {
		es, err := c.reg.Lookup(label)
		if err != nil {
			continue
		}
		if wantStruct != nil && es.Type != wantStruct {
			return nil, NewSerializationError(wantStruct.Name(), "",
				fmt.Sprintf("stored labels %v resolve to type %s", n.Labels, es.Type.Name()), nil)
		}
		return es, nil
	}
	if wantStruct == nil {
		return nil, NewSerializationError("", "",
			fmt.Sprintf("no registered type for labels %v", n.Labels), nil)
	}
	es, err := c.reg.SchemaOf(wantStruct)
	if err != nil {
		return nil, NewSerializationError(wantStruct.Name(), "", "type is not registered", err)
	}
	return es, nil
}

func (c *Codec) resolveRelationshipSchema(rel dialect.Relationship, want reflect.Type) (*schema.EntitySchema, error) {
	if es, err := c.reg.Lookup(rel.Type); err == nil {
		if wantStruct := normalizeWant(want); wantStruct != nil && es.Type != wantStruct {
			return nil, NewSerializationError(wantStruct.Name(), "",
				fmt.Sprintf("stored kind %s resolves to type %s", rel.Type, es.Type.Name()), nil)
		}
		return es, nil
	}
	wantStruct := normalizeWant(want)
	if wantStruct == nil {
		return nil, NewSerializationError("", "",
			fmt.Sprintf("no registered type for relationship kind %s", rel.Type), nil)
	}
	es, err := c.reg.SchemaOf(wantStruct)
	if err != nil {
		return nil, NewSerializationError(wantStruct.Name(), "", "type is not registered", err)
	}
	return es, nil
}

func normalizeWant(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

type decoder struct {
	c       *Codec
	sub     *Subgraph
	visited map[string]reflect.Value
}

// decodeNode reconstructs one stored node as a pointer value. Nodes
// already decoded in this call return the same pointer, so shared
// auxiliary nodes come back as shared Go references.
func (d *decoder) decodeNode(n dialect.Node, es *schema.EntitySchema, depth int) (reflect.Value, error) {
	if pv, ok := d.visited[n.ElementID]; ok {
		return pv, nil
	}
	if depth > d.c.maxDepth {
		return reflect.Value{}, NewSerializationError(es.Type.Name(), "",
			fmt.Sprintf("complex property depth exceeds %d", d.c.maxDepth), nil)
	}
	staged, err := d.stageSimple(n.Props, es)
	if err != nil {
		return reflect.Value{}, err
	}
	if err := d.stageComplex(n, es, staged, depth); err != nil {
		return reflect.Value{}, err
	}
	pv, err := d.construct(es, staged)
	if err != nil {
		return reflect.Value{}, err
	}
	d.visited[n.ElementID] = pv
	return pv, nil
}

// stageSimple decodes the stored properties present on the node into
// field-shaped values. Properties without a stored value stay unstaged
// and end up as zero values.
func (d *decoder) stageSimple(props map[string]any, es *schema.EntitySchema) (map[string]intermediate, error) {
	staged := make(map[string]intermediate)
	for _, p := range es.Properties {
		if p.Class.IsComplex() {
			continue
		}
		raw, ok := props[p.Name]
		if !ok || raw == nil {
			continue
		}
		v, err := decodeSimpleValue(raw, p.Type, es.Type.Name(), p.Name)
		if err != nil {
			return nil, err
		}
		if p.Class == schema.SimpleCollection {
			staged[p.Name] = simpleCollectionValue{v: v}
		} else {
			staged[p.Name] = simpleValue{v: v}
		}
	}
	return staged, nil
}

// stageComplex follows the reserved relationships fanning out of n and
// decodes each target as the owning property's value.
func (d *decoder) stageComplex(n dialect.Node, es *schema.EntitySchema, staged map[string]intermediate, depth int) error {
	for _, r := range d.sub.out[n.ElementID] {
		name, ok := schema.PropertyNameFromRelKind(r.Type)
		if !ok {
			continue
		}
		p, ok := es.Property(name)
		if !ok || !p.Class.IsComplex() {
			continue
		}
		child, ok := d.sub.Node(r.EndElementID)
		if !ok {
			continue
		}
		sub, err := d.c.reg.SchemaOf(elemStruct(p))
		if err != nil {
			return NewSerializationError(es.Type.Name(), p.Name, "complex type is not registered", err)
		}
		pv, err := d.decodeNode(child, sub, depth+1)
		if err != nil {
			return err
		}
		if p.Class == schema.Complex {
			if _, ok := staged[p.Name]; ok {
				continue
			}
			v, err := shapeComplex(pv, p.Type, es.Type.Name(), p.Name)
			if err != nil {
				return err
			}
			staged[p.Name] = complexValue{v: v}
			continue
		}
		cur, ok := staged[p.Name].(complexCollectionValue)
		if !ok {
			cur = complexCollectionValue{v: reflect.MakeSlice(p.Type, 0, 4)}
		}
		ev, err := shapeComplex(pv, p.Type.Elem(), es.Type.Name(), p.Name)
		if err != nil {
			return err
		}
		cur.v = reflect.Append(cur.v, ev)
		staged[p.Name] = cur
	}
	return nil
}

// elemStruct returns the struct type behind a complex property,
// unwrapping collection and pointer shapes.
func elemStruct(p *schema.PropertySchema) reflect.Type {
	t := p.Type
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// shapeComplex adapts a decoded *T to the field's declared shape, T or
// *T. Pointer fields keep the shared reference; value fields copy.
func shapeComplex(pv reflect.Value, t reflect.Type, typeName, propName string) (reflect.Value, error) {
	if pv.Type().AssignableTo(t) {
		return pv, nil
	}
	if pv.Kind() == reflect.Ptr && pv.Type().Elem().AssignableTo(t) {
		return pv.Elem(), nil
	}
	return reflect.Value{}, NewSerializationError(typeName, propName,
		fmt.Sprintf("cannot shape %s into %s", pv.Type(), t), nil)
}

// decodeSimpleValue converts a stored value into the field type t.
// Stored integers arrive widened as int64, collections as []any, and
// temporal and spatial values as the dialect-neutral Go kinds.
func decodeSimpleValue(raw any, t reflect.Type, typeName, propName string) (reflect.Value, error) {
	if t.Kind() == reflect.Ptr {
		inner, err := decodeSimpleValue(raw, t.Elem(), typeName, propName)
		if err != nil {
			return reflect.Value{}, err
		}
		pv := reflect.New(t.Elem())
		pv.Elem().Set(inner)
		return pv, nil
	}
	fail := func() (reflect.Value, error) {
		return reflect.Value{}, NewSerializationError(typeName, propName,
			fmt.Sprintf("cannot decode stored %T into %s", raw, t), nil)
	}
	switch t {
	case timeType:
		if tv, ok := raw.(time.Time); ok {
			return reflect.ValueOf(tv), nil
		}
		return fail()
	case durationType:
		switch dv := raw.(type) {
		case time.Duration:
			return reflect.ValueOf(dv), nil
		case int64:
			return reflect.ValueOf(time.Duration(dv)), nil
		}
		return fail()
	case pointType:
		if p, ok := raw.(schema.Point3D); ok {
			return reflect.ValueOf(p), nil
		}
		return fail()
	}
	switch t.Kind() {
	case reflect.Bool:
		if b, ok := raw.(bool); ok {
			return reflect.ValueOf(b).Convert(t), nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, ok := storedInt(raw); ok {
			rv := reflect.New(t).Elem()
			if rv.OverflowInt(i) {
				return reflect.Value{}, NewSerializationError(typeName, propName,
					fmt.Sprintf("stored value %d overflows %s", i, t), nil)
			}
			rv.SetInt(i)
			return rv, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i, ok := storedInt(raw); ok {
			if i < 0 {
				return reflect.Value{}, NewSerializationError(typeName, propName,
					fmt.Sprintf("stored value %d is negative for %s", i, t), nil)
			}
			rv := reflect.New(t).Elem()
			if rv.OverflowUint(uint64(i)) {
				return reflect.Value{}, NewSerializationError(typeName, propName,
					fmt.Sprintf("stored value %d overflows %s", i, t), nil)
			}
			rv.SetUint(uint64(i))
			return rv, nil
		}
	case reflect.Float32, reflect.Float64:
		switch f := raw.(type) {
		case float64:
			rv := reflect.New(t).Elem()
			rv.SetFloat(f)
			return rv, nil
		case int64:
			rv := reflect.New(t).Elem()
			rv.SetFloat(float64(f))
			return rv, nil
		}
	case reflect.String:
		if s, ok := raw.(string); ok {
			rv := reflect.New(t).Elem()
			rv.SetString(s)
			return rv, nil
		}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			if b, ok := raw.([]byte); ok {
				rv := reflect.MakeSlice(t, len(b), len(b))
				reflect.Copy(rv, reflect.ValueOf(b))
				return rv, nil
			}
			return fail()
		}
		items, ok := raw.([]any)
		if !ok {
			return fail()
		}
		rv := reflect.MakeSlice(t, 0, len(items))
		for _, item := range items {
			if item == nil {
				rv = reflect.Append(rv, reflect.Zero(t.Elem()))
				continue
			}
			ev, err := decodeSimpleValue(item, t.Elem(), typeName, propName)
			if err != nil {
				return reflect.Value{}, err
			}
			rv = reflect.Append(rv, ev)
		}
		return rv, nil
	}
	return fail()
}

func storedInt(raw any) (int64, bool) {
	switch i := raw.(type) {
	case int64:
		return i, true
	case int:
		return int64(i), true
	case int32:
		return int64(i), true
	}
	return 0, false
}
