package codec

import (
	"fmt"
	"reflect"

	"github.com/syssam/nodus/schema"
)

// construct instantiates the entity for the staged values. A registered
// constructor is preferred; among several the one satisfying the most
// required and identity properties wins, then the most parameters
// overall, then the fewest unmatched parameters, with declaration order
// breaking remaining ties. Staged values not claimed by a parameter are
// assigned to their fields afterwards, so stored state wins over
// derived state.
func (d *decoder) construct(es *schema.EntitySchema, staged map[string]intermediate) (reflect.Value, error) {
	ctor := pickConstructor(es, staged)
	var pv reflect.Value
	claimed := make(map[string]bool)
	if ctor == nil {
		pv = reflect.New(es.Type)
	} else {
		out, err := invokeConstructor(es, ctor, staged)
		if err != nil {
			return reflect.Value{}, err
		}
		pv = out
		for _, name := range ctor.Params {
			claimed[name] = true
		}
	}
	sv := pv.Elem()
	for _, p := range es.Properties {
		if claimed[p.Name] {
			continue
		}
		iv, ok := staged[p.Name]
		if !ok {
			continue
		}
		fv := fieldByIndex(sv, p.FieldIndex)
		av, ok := adaptValue(iv.value(), fv.Type())
		if !ok {
			return reflect.Value{}, NewSerializationError(es.Type.Name(), p.Name,
				fmt.Sprintf("cannot assign staged %s to field %s", iv.value().Type(), fv.Type()), nil)
		}
		fv.Set(av)
	}
	return pv, nil
}

func pickConstructor(es *schema.EntitySchema, staged map[string]intermediate) *schema.ConstructorSpec {
	var best *schema.ConstructorSpec
	bestScore := [3]int{-1, -1, 0}
	for _, ctor := range es.Constructors {
		matched, required := 0, 0
		for _, name := range ctor.Params {
			if _, ok := staged[name]; !ok {
				continue
			}
			matched++
			if p, ok := es.Property(name); ok && (p.Required || p.Identity) {
				required++
			}
		}
		score := [3]int{required, matched, matched - len(ctor.Params)}
		if best == nil || scoreBetter(bestScore, score) {
			best, bestScore = ctor, score
		}
	}
	return best
}

// scoreBetter reports whether b beats a lexicographically. Equal scores
// keep the earlier constructor.
func scoreBetter(a, b [3]int) bool {
	for i := range a {
		if b[i] != a[i] {
			return b[i] > a[i]
		}
	}
	return false
}

func invokeConstructor(es *schema.EntitySchema, ctor *schema.ConstructorSpec, staged map[string]intermediate) (reflect.Value, error) {
	ft := ctor.Fn.Type()
	args := make([]reflect.Value, ft.NumIn())
	for i, name := range ctor.Params {
		pt := ft.In(i)
		iv, ok := staged[name]
		if !ok {
			args[i] = reflect.Zero(pt)
			continue
		}
		av, ok := adaptValue(iv.value(), pt)
		if !ok {
			return reflect.Value{}, NewSerializationError(es.Type.Name(), name,
				fmt.Sprintf("cannot pass staged %s as constructor parameter %s", iv.value().Type(), pt), nil)
		}
		args[i] = av
	}
	out := ctor.Fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, NewSerializationError(es.Type.Name(), "", "constructor failed", out[1].Interface().(error))
	}
	res := out[0]
	if res.Kind() != reflect.Ptr {
		pv := reflect.New(es.Type)
		pv.Elem().Set(res)
		return pv, nil
	}
	if res.IsNil() {
		return reflect.Value{}, NewSerializationError(es.Type.Name(), "", "constructor returned nil", nil)
	}
	return res, nil
}

// adaptValue bridges the staged shape and the target shape, adding or
// stripping one level of pointer when the base types line up.
func adaptValue(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	switch {
	case v.Type().AssignableTo(t):
		return v, true
	case v.Kind() == reflect.Ptr && !v.IsNil() && v.Type().Elem().AssignableTo(t):
		return v.Elem(), true
	case t.Kind() == reflect.Ptr && v.Type().AssignableTo(t.Elem()):
		pv := reflect.New(t.Elem())
		pv.Elem().Set(v)
		return pv, true
	case v.Type().ConvertibleTo(t) && v.Kind() == t.Kind():
		return v.Convert(t), true
	}
	return reflect.Value{}, false
}
