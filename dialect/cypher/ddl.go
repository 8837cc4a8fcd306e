package cypher

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/nodus/schema"
)

// DDL emits the constraint and index statements implied by a registry:
// uniqueness and existence constraints, range indexes, and one
// full-text index per label over its eligible string properties.
// Auxiliary labels of complex property types are covered too. Every
// statement carries IF NOT EXISTS, so replaying the set is idempotent.
func DDL(reg *schema.Registry) []string {
	var out []string
	for _, es := range schemasWithComplex(reg) {
		out = append(out, ConstraintStatements(es)...)
		out = append(out, IndexStatements(es)...)
	}
	return out
}

// schemasWithComplex lists the registered schemas plus the complex
// sub-schemas reachable through their properties, each once.
func schemasWithComplex(reg *schema.Registry) []*schema.EntitySchema {
	var (
		out  []*schema.EntitySchema
		seen = make(map[*schema.EntitySchema]bool)
		add  func(es *schema.EntitySchema)
	)
	add = func(es *schema.EntitySchema) {
		if seen[es] {
			return
		}
		seen[es] = true
		out = append(out, es)
		for _, p := range es.ComplexProperties() {
			if sub, err := reg.SchemaOf(structType(p)); err == nil {
				add(sub)
			}
		}
	}
	for _, es := range reg.Schemas() {
		add(es)
	}
	return out
}

// ConstraintStatements emits the uniqueness and existence constraints
// of one schema.
func ConstraintStatements(es *schema.EntitySchema) []string {
	var out []string
	for _, p := range es.SimpleProperties() {
		if p.Unique {
			out = append(out, constraintStmt(es, p, "unique", "IS UNIQUE"))
		}
		if p.Required {
			out = append(out, constraintStmt(es, p, "exists", "IS NOT NULL"))
		}
	}
	return out
}

func constraintStmt(es *schema.EntitySchema, p *schema.PropertySchema, suffix, requirement string) string {
	name := ddlName(es.Label, p.Name, suffix)
	if es.Kind == schema.KindRelationship {
		return fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR ()-[r:%s]-() REQUIRE r.%s %s",
			name, Ident(es.Label), Ident(p.Name), requirement)
	}
	return fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s %s",
		name, Ident(es.Label), Ident(p.Name), requirement)
}

// IndexStatements emits the range indexes of one schema, plus its
// full-text index when any property participates. Unique properties
// are skipped, their constraints already back an index.
func IndexStatements(es *schema.EntitySchema) []string {
	var out []string
	for _, p := range es.SimpleProperties() {
		if !p.Indexed || p.Unique {
			continue
		}
		name := ddlName(es.Label, p.Name, "index")
		if es.Kind == schema.KindRelationship {
			out = append(out, fmt.Sprintf("CREATE INDEX %s IF NOT EXISTS FOR ()-[r:%s]-() ON (r.%s)",
				name, Ident(es.Label), Ident(p.Name)))
		} else {
			out = append(out, fmt.Sprintf("CREATE INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.%s)",
				name, Ident(es.Label), Ident(p.Name)))
		}
	}
	if ft := fulltextColumns(es); len(ft) > 0 {
		name := inflect.Underscore(es.Label) + "_fulltext"
		if es.Kind == schema.KindRelationship {
			out = append(out, fmt.Sprintf("CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR ()-[r:%s]-() ON EACH [%s]",
				name, Ident(es.Label), strings.Join(prefixColumns("r", ft), ", ")))
		} else {
			out = append(out, fmt.Sprintf("CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (n:%s) ON EACH [%s]",
				name, Ident(es.Label), strings.Join(prefixColumns("n", ft), ", ")))
		}
	}
	return out
}

func fulltextColumns(es *schema.EntitySchema) []string {
	var out []string
	for _, p := range es.SimpleProperties() {
		if p.FullText && !p.Identity {
			out = append(out, p.Name)
		}
	}
	return out
}

func prefixColumns(alias string, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = alias + "." + Ident(n)
	}
	return out
}

func ddlName(label, property, suffix string) string {
	return inflect.Underscore(label) + "_" + inflect.Underscore(property) + "_" + suffix
}
