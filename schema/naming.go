package schema

import (
	"reflect"
	"strings"

	"github.com/go-openapi/inflect"
)

// TagKey is the struct tag key read by the registry.
//
//	Name    string `graph:"name,required,unique"`
//	Age     int    `graph:"age,index"`
//	Ignored string `graph:"-"`
//
// The first token overrides the stored name; the remaining tokens are
// flags: required, unique, index, fulltext, nofulltext. On a marker
// embed the first token overrides the label or relationship kind.
const TagKey = "graph"

// tagName returns the first graph tag token, or the empty string when
// the tag is absent.
func tagName(f reflect.StructField) string {
	tag, ok := f.Tag.Lookup(TagKey)
	if !ok {
		return ""
	}
	if i := strings.IndexByte(tag, ','); i >= 0 {
		return tag[:i]
	}
	return tag
}

// tagOptions returns the graph tag tokens after the name.
func tagOptions(f reflect.StructField) []string {
	tag, ok := f.Tag.Lookup(TagKey)
	if !ok {
		return nil
	}
	parts := strings.Split(tag, ",")
	if len(parts) <= 1 {
		return nil
	}
	opts := parts[1:]
	for i, o := range opts {
		opts[i] = strings.TrimSpace(o)
	}
	return opts
}

// storedName derives the stored property name for a field: the tag
// name when present, otherwise the lower-camel form of the field name.
func storedName(f reflect.StructField) string {
	if name := tagName(f); name != "" && name != "-" {
		return name
	}
	return inflect.CamelizeDownFirst(inflect.Underscore(f.Name))
}

// defaultLabel derives the node label from the type name, unchanged.
func defaultLabel(t reflect.Type) string {
	return t.Name()
}

// defaultRelKind derives the relationship kind from the type name in
// upper snake form: WorksFor becomes WORKS_FOR.
func defaultRelKind(t reflect.Type) string {
	return strings.ToUpper(inflect.Underscore(t.Name()))
}
