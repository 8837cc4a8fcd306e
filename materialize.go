package nodus

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/syssam/nodus/codec"
	"github.com/syssam/nodus/dialect"
	"github.com/syssam/nodus/dialect/cypher"
)

// materializeNodes reassembles entity rows. Rows sharing one root node
// (the auxiliary path column fans a root out over several rows) merge
// into a single subgraph, deserialized once, in first-seen row order.
func materializeNodes[T any](g *Graph, c *cypher.Compiled, records []*dialect.Record) ([]*T, error) {
	if c.Shape != cypher.ShapeEntity {
		return nil, NewQueryError(typeLabelOf[T](g), "all",
			fmt.Errorf("statement produced %s rows, want entity rows", c.Shape))
	}
	var (
		order []string
		subs  = make(map[string]*codec.Subgraph)
	)
	for _, rec := range records {
		v, ok := rec.Get(c.Alias)
		if !ok || v == nil {
			continue
		}
		node, ok := v.(dialect.Node)
		if !ok {
			return nil, NewQueryError(typeLabelOf[T](g), "all",
				fmt.Errorf("column %s holds %T, want a node", c.Alias, v))
		}
		sub, seen := subs[node.ElementID]
		if !seen {
			sub = codec.NewSubgraph(node)
			subs[node.ElementID] = sub
			order = append(order, node.ElementID)
		}
		if c.PathColumn != "" {
			if pv, ok := rec.Get(c.PathColumn); ok && pv != nil {
				path, ok := pv.(dialect.Path)
				if !ok {
					return nil, NewQueryError(typeLabelOf[T](g), "all",
						fmt.Errorf("column %s holds %T, want a path", c.PathColumn, pv))
				}
				sub.AddPath(path)
			}
		}
	}
	out := make([]*T, 0, len(order))
	for _, id := range order {
		entity, err := g.codec.Deserialize(subs[id], rootType[T]())
		if err != nil {
			return nil, err
		}
		typed, ok := entity.(*T)
		if !ok {
			return nil, NewQueryError(typeLabelOf[T](g), "all",
				fmt.Errorf("deserialized %T, want %T", entity, typed))
		}
		out = append(out, typed)
	}
	return out, nil
}

// materializeRelationships rebuilds relationship rows, resolving the
// endpoint identifiers from the same row.
func materializeRelationships[T any](g *Graph, c *cypher.Compiled, records []*dialect.Record) ([]*T, error) {
	if c.Shape != cypher.ShapeRelationship {
		return nil, NewQueryError(typeLabelOf[T](g), "all",
			fmt.Errorf("statement produced %s rows, want relationship rows", c.Shape))
	}
	out := make([]*T, 0, len(records))
	for _, rec := range records {
		v, ok := rec.Get(c.Alias)
		if !ok || v == nil {
			continue
		}
		rel, ok := v.(dialect.Relationship)
		if !ok {
			return nil, NewQueryError(typeLabelOf[T](g), "all",
				fmt.Errorf("column %s holds %T, want a relationship", c.Alias, v))
		}
		startID := stringColumn(rec, c.StartColumn)
		endID := stringColumn(rec, c.EndColumn)
		entity, err := g.codec.DeserializeRelationship(rel, startID, endID, rootType[T]())
		if err != nil {
			return nil, err
		}
		typed, ok := entity.(*T)
		if !ok {
			return nil, NewQueryError(typeLabelOf[T](g), "all",
				fmt.Errorf("deserialized %T, want %T", entity, typed))
		}
		out = append(out, typed)
	}
	return out, nil
}

// materializeRows binds projection rows onto R. Struct fields match
// columns by case-folded name first, then by position; a single-column
// projection may bind onto a scalar R directly.
func materializeRows[R any](c *cypher.Compiled, records []*dialect.Record) ([]R, error) {
	if c.Shape != cypher.ShapeProjection {
		return nil, NewQueryError("", "select",
			fmt.Errorf("statement produced %s rows, want projection rows", c.Shape))
	}
	rt := reflect.TypeOf((*R)(nil)).Elem()
	out := make([]R, 0, len(records))
	for _, rec := range records {
		rv := reflect.New(rt).Elem()
		if rt.Kind() == reflect.Struct && rt != timeType {
			if err := bindStruct(rv, rec); err != nil {
				return nil, err
			}
		} else {
			if len(rec.Values) == 0 {
				continue
			}
			bound, err := convertColumn(rec.Values[0], rt)
			if err != nil {
				return nil, err
			}
			rv.Set(bound)
		}
		out = append(out, rv.Interface().(R))
	}
	return out, nil
}

// materializeGroups rebuilds grouped rows: key columns verbatim, the
// collected nodes deserialized one by one. Collected nodes carry only
// their stored properties, so complex properties stay zero.
func materializeGroups[T any](g *Graph, c *cypher.Compiled, records []*dialect.Record) ([]*Group[T], error) {
	if c.Shape != cypher.ShapeGroup {
		return nil, NewQueryError(typeLabelOf[T](g), "group by",
			fmt.Errorf("statement produced %s rows, want group rows", c.Shape))
	}
	out := make([]*Group[T], 0, len(records))
	for _, rec := range records {
		grp := &Group[T]{Keys: make(map[string]any)}
		for i, key := range rec.Keys {
			if key == "items" {
				continue
			}
			grp.Keys[key] = rec.Values[i]
		}
		items, _ := rec.Get("items")
		collected, ok := items.([]any)
		if !ok && items != nil {
			return nil, NewQueryError(typeLabelOf[T](g), "group by",
				fmt.Errorf("column items holds %T, want a collection", items))
		}
		for _, item := range collected {
			node, ok := item.(dialect.Node)
			if !ok {
				return nil, NewQueryError(typeLabelOf[T](g), "group by",
					fmt.Errorf("collected %T, want a node", item))
			}
			entity, err := g.codec.Deserialize(codec.NewSubgraph(node), rootType[T]())
			if err != nil {
				return nil, err
			}
			typed, ok := entity.(*T)
			if !ok {
				return nil, NewQueryError(typeLabelOf[T](g), "group by",
					fmt.Errorf("deserialized %T, want %T", entity, typed))
			}
			grp.Items = append(grp.Items, typed)
		}
		out = append(out, grp)
	}
	return out, nil
}

// materializeCount extracts the single scalar of a count statement.
func materializeCount(c *cypher.Compiled, records []*dialect.Record) (int64, error) {
	if c.Shape != cypher.ShapeScalar {
		return 0, NewQueryError("", "count",
			fmt.Errorf("statement produced %s rows, want a scalar", c.Shape))
	}
	if len(records) == 0 {
		return 0, nil
	}
	v, ok := records[0].Get("count")
	if !ok {
		return 0, NewQueryError("", "count", errors.New("row has no count column"))
	}
	n, ok := v.(int64)
	if !ok {
		return 0, NewQueryError("", "count", fmt.Errorf("count column holds %T, want int64", v))
	}
	return n, nil
}

// bindStruct fills one row struct from a record. Exported fields match
// columns by case-folded name; fields left unmatched bind to the column
// at their field position when one exists.
func bindStruct(rv reflect.Value, rec *dialect.Record) error {
	rt := rv.Type()
	used := make(map[int]bool, len(rec.Keys))
	unmatched := make([]int, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if j, ok := findColumn(rec.Keys, f.Name); ok {
			used[j] = true
			bound, err := convertColumn(rec.Values[j], f.Type)
			if err != nil {
				return fmt.Errorf("nodus: column %s: %w", rec.Keys[j], err)
			}
			rv.Field(i).Set(bound)
			continue
		}
		unmatched = append(unmatched, i)
	}
	next := 0
	for _, i := range unmatched {
		for next < len(rec.Keys) && used[next] {
			next++
		}
		if next >= len(rec.Keys) {
			break
		}
		bound, err := convertColumn(rec.Values[next], rt.Field(i).Type)
		if err != nil {
			return fmt.Errorf("nodus: column %s: %w", rec.Keys[next], err)
		}
		rv.Field(i).Set(bound)
		used[next] = true
	}
	return nil
}

func findColumn(keys []string, name string) (int, bool) {
	for i, k := range keys {
		if strings.EqualFold(k, name) {
			return i, true
		}
	}
	return 0, false
}

var timeType = reflect.TypeOf(time.Time{})

// convertColumn adapts one driver value to a row field type. Drivers
// deliver integers widened to int64 and collections as []any.
func convertColumn(raw any, t reflect.Type) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(t), nil
	}
	if t.Kind() == reflect.Ptr {
		inner, err := convertColumn(raw, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		pv := reflect.New(t.Elem())
		pv.Elem().Set(inner)
		return pv, nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, ok := raw.(int64); ok {
			out := reflect.New(t).Elem()
			if out.OverflowInt(i) {
				return reflect.Value{}, fmt.Errorf("value %d overflows %s", i, t)
			}
			out.SetInt(i)
			return out, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i, ok := raw.(int64); ok && i >= 0 {
			out := reflect.New(t).Elem()
			if out.OverflowUint(uint64(i)) {
				return reflect.Value{}, fmt.Errorf("value %d overflows %s", i, t)
			}
			out.SetUint(uint64(i))
			return out, nil
		}
	case reflect.Float32, reflect.Float64:
		switch f := raw.(type) {
		case float64:
			out := reflect.New(t).Elem()
			out.SetFloat(f)
			return out, nil
		case int64:
			out := reflect.New(t).Elem()
			out.SetFloat(float64(f))
			return out, nil
		}
	case reflect.Slice:
		items, ok := raw.([]any)
		if !ok {
			break
		}
		out := reflect.MakeSlice(t, 0, len(items))
		for _, item := range items {
			ev, err := convertColumn(item, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, ev)
		}
		return out, nil
	}
	if rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind() {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot bind %T to %s", raw, t)
}

func stringColumn(rec *dialect.Record, key string) string {
	if key == "" {
		return ""
	}
	if v, ok := rec.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
