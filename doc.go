// Package nodus maps typed Go structs onto a property-graph store and
// compiles typed query expressions to Cypher.
//
// # Overview
//
// Domain types are plain structs embedding a schema marker; a Registry
// built from an explicit manifest describes how each maps onto the
// store. The Graph facade ties the pieces together:
//
//	reg := schema.NewRegistry()
//	err := reg.Initialize(schema.Type(Person{}), schema.Type(WorksFor{}))
//	...
//	g, err := nodus.New(driver, nodus.WithRegistry(reg))
//	defer g.Close(ctx)
//
//	alice := &Person{Name: "Alice", Home: &Address{Street: "Main St"}}
//	err = g.CreateNode(ctx, alice)
//
//	adults, err := nodus.Nodes[Person](g).
//	    Where(query.FieldGT("age", 30)).
//	    OrderByDescending(query.F("name")).
//	    All(ctx)
//
// Struct-shaped properties ("complex" properties, Home above) are
// persisted as auxiliary nodes connected through reserved relationship
// kinds and reassembled transparently on read; the reserved kinds never
// appear in user-facing relationship listings.
//
// # Packages
//
//   - schema: type declarations, classification, the once-initialized
//     registry
//   - codec: entity serialization and deserialization, cycle detection,
//     shared-reference preservation
//   - query: the typed query-expression AST
//   - dialect: the driver boundary; dialect/cypher compiles expressions
//     to Cypher, dialect/neo4j speaks to Neo4j
//   - compiler/gen: generation of typed per-entity field helpers
//
// # Queries
//
// Nodes[T] and Relationships[T] open immutable, composable chains.
// Every literal in a predicate is lifted into a named parameter;
// compiled text never embeds a value. Select, GroupBy and Traverse are
// package functions because Go methods cannot introduce type
// parameters:
//
//	names, err := nodus.Select[Person, NameRow](
//	    nodus.Nodes[Person](g).Where(query.FieldGT("age", 30)),
//	    query.ConstructOf(query.As(query.F("name"), "name")),
//	).All(ctx)
//
// # Writes
//
// CreateNode, UpdateNode and the relationship counterparts serialize
// through the codec and execute the resulting instructions in one
// transaction; a serialization failure, including a complex-property
// reference cycle, aborts before anything reaches the store.
package nodus
