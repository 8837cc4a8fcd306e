// Package schema declares the typed entity model and builds the
// runtime registry the rest of nodus works from.
//
// # Declaring Types
//
// Node and relationship types are plain structs embedding a marker:
//
//	type Person struct {
//	    schema.Node `graph:"Person"`
//	    Name string  `graph:"name,required" validate:"min=1,max=120"`
//	    Age  int     `graph:"age,index"`
//	    Home Address `graph:"home"`
//	}
//
//	type WorksFor struct {
//	    schema.Relationship `graph:"WORKS_FOR"`
//	    Since int `graph:"since"`
//	}
//
// The marker contributes the id property and the runtime metadata
// (labels, relationship kind) populated on read. The tag on the marker
// overrides the label or relationship kind; without it the type name is
// used, upper-snake-cased for relationships.
//
// # Properties
//
// Field tags follow the encoding/json convention: the first token is
// the stored name (lower-camel of the field name when omitted), the
// rest are flags:
//
//	required    must be present on write
//	unique      uniqueness constraint in the emitted DDL
//	index       range index in the emitted DDL
//	fulltext    include in the full-text index (default for strings)
//	nofulltext  exclude from the full-text index
//
// A "-" name skips the field. A validate tag carries a
// go-playground/validator expression enforced at serialization time.
//
// # Simple and Complex Properties
//
// Simple properties are stored inline: booleans, integers, floats,
// strings, named kinds of those, time.Time, time.Duration, Point3D, and
// slices of them. Anything struct-shaped is a complex property: it is
// persisted as an auxiliary node connected through a reserved
// relationship kind derived from the property name, and reassembled on
// read. Complex types nest recursively but may not contain node or
// relationship types.
//
// # The Registry
//
// A Registry is initialized once with the explicit type manifest and is
// immutable afterward:
//
//	reg := schema.NewRegistry()
//	err := reg.Initialize(
//	    schema.Type(Person{}, schema.WithConstructor(NewPerson, "name", "age")),
//	    schema.Type(WorksFor{}),
//	)
//
// Initialize is safe for concurrent use: first callers race to perform
// the scan exactly once, later callers observe the first result.
// Complex types reachable from registered types are scanned
// automatically; registering one explicitly is only needed to attach a
// constructor.
package schema
