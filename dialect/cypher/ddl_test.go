package cypher_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/nodus/dialect/cypher"
)

func TestDDLEmitsConstraintsAndIndexes(t *testing.T) {
	stmts := cypher.DDL(newRegistry(t))
	require.NotEmpty(t, stmts)

	assert.Contains(t, stmts,
		"CREATE CONSTRAINT company_id_unique IF NOT EXISTS FOR (n:Company) REQUIRE n.id IS UNIQUE")
	assert.Contains(t, stmts,
		"CREATE CONSTRAINT company_name_unique IF NOT EXISTS FOR (n:Company) REQUIRE n.name IS UNIQUE")
	assert.Contains(t, stmts,
		"CREATE CONSTRAINT company_name_exists IF NOT EXISTS FOR (n:Company) REQUIRE n.name IS NOT NULL")
	assert.Contains(t, stmts,
		"CREATE INDEX company_city_index IF NOT EXISTS FOR (n:Company) ON (n.city)")
	assert.Contains(t, stmts,
		"CREATE FULLTEXT INDEX company_fulltext IF NOT EXISTS FOR (n:Company) ON EACH [n.name, n.city]")

	for _, stmt := range stmts {
		assert.Contains(t, stmt, "IF NOT EXISTS", "replaying the set must be idempotent: %s", stmt)
	}
}

func TestDDLCoversRelationshipsAndAuxiliaryLabels(t *testing.T) {
	stmts := cypher.DDL(newRegistry(t))

	var relConstraint, auxConstraint bool
	for _, stmt := range stmts {
		if strings.Contains(stmt, "FOR ()-[r:WORKS_FOR]-() REQUIRE r.id IS UNIQUE") {
			relConstraint = true
		}
		if strings.Contains(stmt, "FOR (n:Address) REQUIRE n.street IS NOT NULL") {
			auxConstraint = true
		}
	}
	assert.True(t, relConstraint, "relationship identities are constrained")
	assert.True(t, auxConstraint, "auxiliary labels of complex types are covered")
}

func TestDDLSkipsIndexOnUniqueProperties(t *testing.T) {
	for _, stmt := range cypher.DDL(newRegistry(t)) {
		assert.NotContains(t, stmt, "CREATE INDEX company_name_index",
			"the uniqueness constraint already backs an index")
	}
}
