package nodus

import (
	"fmt"

	"github.com/syssam/nodus/codec"
	"github.com/syssam/nodus/dialect/cypher"
	"github.com/syssam/nodus/schema"
)

// statement is one rendered write with its named parameters.
type statement struct {
	text   string
	params map[string]any
}

// nodeCreateStatements renders the statements persisting w: one MERGE
// per distinct node, owners before their auxiliaries, then one MERGE
// per reserved relationship. Shared nested writes reuse the node
// persisted for the first occurrence, so sharing in memory stays
// sharing in the store.
func nodeCreateStatements(w *codec.NodeWrite) []statement {
	stmts := make([]statement, 0, 8)
	for _, n := range w.Flatten() {
		stmts = append(stmts, statement{
			text: fmt.Sprintf("MERGE (n:%s {id: $id}) SET n = $props",
				cypher.Ident(n.Labels[0])),
			params: map[string]any{"id": n.ID, "props": nodeProps(n)},
		})
	}
	var link func(owner *codec.NodeWrite)
	seen := make(map[*codec.NodeWrite]bool)
	link = func(owner *codec.NodeWrite) {
		if seen[owner] {
			return
		}
		seen[owner] = true
		for _, nested := range owner.Nested {
			stmts = append(stmts, statement{
				text: fmt.Sprintf("MATCH (a {id: $from}), (b {id: $to}) MERGE (a)-[:%s]->(b)",
					cypher.Ident(nested.RelKind)),
				params: map[string]any{"from": owner.ID, "to": nested.Node.ID},
			})
			link(nested.Node)
		}
	}
	link(w)
	return stmts
}

// nodeUpdateStatements replaces a stored node wholesale: the old
// auxiliary subtree is deleted, then the entity persists as on create.
// SET n = $props drops stored properties the entity no longer carries.
func nodeUpdateStatements(w *codec.NodeWrite, depth int) []statement {
	stmts := []statement{{
		text: fmt.Sprintf(
			"MATCH (n:%s {id: $id}) OPTIONAL MATCH p = (n)-[*1..%d]->(m) WHERE %s DETACH DELETE m",
			cypher.Ident(w.Labels[0]), depth, reservedPathCond("p")),
		params: map[string]any{"id": w.ID},
	}}
	return append(stmts, nodeCreateStatements(w)...)
}

// nodeDeleteStatements removes a node together with its auxiliary
// property subtree.
func nodeDeleteStatements(label, id string, depth int) []statement {
	return []statement{{
		text: fmt.Sprintf(
			"MATCH (n:%s {id: $id}) OPTIONAL MATCH p = (n)-[*1..%d]->(m) WHERE %s DETACH DELETE m, n",
			cypher.Ident(label), depth, reservedPathCond("p")),
		params: map[string]any{"id": id},
	}}
}

// relationshipMergeStatement persists a relationship write; it serves
// create and update alike since MERGE keys on the identifier.
func relationshipMergeStatement(w *codec.RelationshipWrite) statement {
	return statement{
		text: fmt.Sprintf(
			"MATCH (a {id: $start}), (b {id: $end}) MERGE (a)-[r:%s {id: $id}]->(b) SET r = $props",
			cypher.Ident(w.Kind)),
		params: map[string]any{
			"start": w.StartID,
			"end":   w.EndID,
			"id":    w.ID,
			"props": relationshipProps(w),
		},
	}
}

// relationshipDeleteStatement removes a relationship by identifier.
func relationshipDeleteStatement(kind, id string) statement {
	return statement{
		text:   fmt.Sprintf("MATCH ()-[r:%s {id: $id}]-() DELETE r", cypher.Ident(kind)),
		params: map[string]any{"id": id},
	}
}

// relationshipsOfStatement lists a node's relationships with the
// reserved property-encoding kinds filtered out.
func relationshipsOfStatement(id string) statement {
	return statement{
		text: "MATCH (n {id: $id})-[r]-() WHERE NOT type(r) STARTS WITH '" +
			schema.PropertyKindPrefix +
			"' RETURN r, startNode(r).id AS startId, endNode(r).id AS endId",
		params: map[string]any{"id": id},
	}
}

// reservedPathCond restricts a variable-length path to reserved
// relationship kinds only.
func reservedPathCond(pathAlias string) string {
	return fmt.Sprintf("all(r IN relationships(%s) WHERE type(r) STARTS WITH '%s')",
		pathAlias, schema.PropertyKindPrefix)
}

// nodeProps returns the stored property map of a write, identifier
// included.
func nodeProps(w *codec.NodeWrite) map[string]any {
	props := make(map[string]any, len(w.Props)+1)
	for k, v := range w.Props {
		props[k] = v
	}
	props["id"] = w.ID
	return props
}

func relationshipProps(w *codec.RelationshipWrite) map[string]any {
	props := make(map[string]any, len(w.Props)+1)
	for k, v := range w.Props {
		props[k] = v
	}
	props["id"] = w.ID
	return props
}
