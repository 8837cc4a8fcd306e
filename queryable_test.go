package nodus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/nodus"
	"github.com/syssam/nodus/dialect"
	"github.com/syssam/nodus/internal/graphtest"
	"github.com/syssam/nodus/query"
)

func TestWhereLiftsEveryLiteral(t *testing.T) {
	g, driver := newGraph(t)

	_, err := nodus.Nodes[Person](g).
		Where(query.FieldGT("age", 30)).
		All(context.Background())
	require.NoError(t, err)

	last := driver.Last()
	assert.Equal(t,
		"MATCH (n0:Person) WHERE n0.age > $p0"+
			" WITH n0"+
			" OPTIONAL MATCH p0 = (n0)-[*1..5]->()"+
			" WHERE all(r0 IN relationships(p0) WHERE type(r0) STARTS WITH '__PROPERTY__')"+
			" RETURN n0, p0",
		last.Query)
	assert.Equal(t, map[string]any{"p0": 30}, last.Params)
	assert.NotContains(t, last.Query, "30", "literals never embed in text")
}

func TestSimpleEntityQuerySkipsAuxiliaryFetch(t *testing.T) {
	g, driver := newGraph(t)

	_, err := nodus.Nodes[Company](g).All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n0:Company) RETURN n0", driver.Last().Query)
}

func TestConsecutiveWhereConjoin(t *testing.T) {
	g, driver := newGraph(t)

	_, err := nodus.Nodes[Company](g).
		Where(query.FieldEQ("city", "Berlin")).
		Where(query.FieldGT("employees", 10)).
		All(context.Background())
	require.NoError(t, err)

	last := driver.Last()
	assert.Equal(t,
		"MATCH (n0:Company) WHERE n0.city = $p0 AND n0.employees > $p1 RETURN n0",
		last.Query)
	assert.Equal(t, map[string]any{"p0": "Berlin", "p1": 10}, last.Params)
}

func TestOrderByResetsThenByExtends(t *testing.T) {
	g, driver := newGraph(t)
	ctx := context.Background()

	_, err := nodus.Nodes[Company](g).
		OrderBy(query.F("name")).
		ThenByDescending(query.F("employees")).
		All(ctx)
	require.NoError(t, err)
	assert.Equal(t,
		"MATCH (n0:Company) RETURN n0 ORDER BY n0.name ASC, n0.employees DESC",
		driver.Last().Query)

	_, err = nodus.Nodes[Company](g).
		OrderBy(query.F("name")).
		OrderBy(query.F("city")).
		All(ctx)
	require.NoError(t, err)
	assert.Equal(t,
		"MATCH (n0:Company) RETURN n0 ORDER BY n0.city ASC",
		driver.Last().Query, "a repeated OrderBy discards the previous ordering")
}

func TestSkipTakeBindParameters(t *testing.T) {
	g, driver := newGraph(t)

	_, err := nodus.Nodes[Company](g).
		OrderBy(query.F("name")).
		Skip(10).
		Take(5).
		All(context.Background())
	require.NoError(t, err)

	last := driver.Last()
	assert.Equal(t,
		"MATCH (n0:Company) RETURN n0 ORDER BY n0.name ASC SKIP $p0 LIMIT $p1",
		last.Query)
	assert.Equal(t, map[string]any{"p0": 10, "p1": 5}, last.Params)
}

func TestAliasesStayStableAcrossCompiles(t *testing.T) {
	g, driver := newGraph(t)
	ctx := context.Background()

	set := nodus.Nodes[Person](g).Where(query.FieldGT("age", 30))
	_, err := set.All(ctx)
	require.NoError(t, err)
	first := driver.Last().Query

	_, err = set.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, driver.Last().Query, "recompiling the same chain yields identical text")
}

func TestLastFallsBackToIdentityOrder(t *testing.T) {
	g, driver := newGraph(t)
	ctx := context.Background()

	_, err := nodus.Nodes[Company](g).Last(ctx)
	require.Error(t, err) // empty script, so not found
	assert.True(t, nodus.IsNotFound(err))
	assert.Equal(t,
		"MATCH (n0:Company) RETURN n0 ORDER BY n0.id DESC LIMIT 1",
		driver.Last().Query)

	// With an explicit ordering, Last flips it instead.
	_, err = nodus.Nodes[Company](g).OrderBy(query.F("name")).Last(ctx)
	require.Error(t, err)
	assert.Equal(t,
		"MATCH (n0:Company) RETURN n0 ORDER BY n0.name DESC LIMIT 1",
		driver.Last().Query)
}

func TestLastMatchesDescendingFirst(t *testing.T) {
	g, driver := newGraph(t)
	ctx := context.Background()

	_, _ = nodus.Nodes[Company](g).Last(ctx)
	lastQuery := driver.Last().Query

	_, _ = nodus.Nodes[Company](g).OrderByDescending(query.F("id")).First(ctx)
	assert.Equal(t, lastQuery, driver.Last().Query)
}

func TestFirstOnEmptySetDiffersFromAll(t *testing.T) {
	g, _ := newGraph(t)
	ctx := context.Background()

	all, err := nodus.Nodes[Company](g).All(ctx)
	require.NoError(t, err, "an empty result is not an error")
	assert.Empty(t, all)

	_, err = nodus.Nodes[Company](g).First(ctx)
	assert.True(t, nodus.IsNotFound(err))

	none, err := nodus.Nodes[Company](g).FirstOrNone(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSingleRejectsMultipleRows(t *testing.T) {
	g, driver := newGraph(t)
	driver.Script(
		graphtest.Record("n0", graphtest.Node("c1", "Company", map[string]any{"name": "Initech"})),
		graphtest.Record("n0", graphtest.Node("c2", "Company", map[string]any{"name": "Globex"})),
	)

	_, err := nodus.Nodes[Company](g).Single(context.Background())
	require.Error(t, err)
	assert.True(t, nodus.IsNotSingular(err))
	assert.Contains(t, driver.Last().Query, "LIMIT $p0")
}

func TestCount(t *testing.T) {
	g, driver := newGraph(t)
	driver.Script(graphtest.Record("count", int64(3)))

	n, err := nodus.Nodes[Company](g).
		Where(query.FieldEQ("city", "Berlin")).
		Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t,
		"MATCH (n0:Company) WHERE n0.city = $p0 RETURN count(n0) AS count",
		driver.Last().Query)
}

func TestAnyReportsExistence(t *testing.T) {
	g, driver := newGraph(t)
	driver.Script(graphtest.Record("count", int64(0)))
	driver.Script(graphtest.Record("count", int64(7)))
	ctx := context.Background()

	ok, err := nodus.Nodes[Company](g).Any(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = nodus.Nodes[Company](g).Any(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllMergesAuxiliaryPathRows(t *testing.T) {
	g, driver := newGraph(t)

	root := graphtest.Node("p1", "Person", map[string]any{"name": "Alice", "age": int64(34)})
	home := graphtest.Node("a1", "Address", map[string]any{"street": "Main St", "city": "Springfield"})
	office := graphtest.Node("a2", "Address", map[string]any{"street": "Dock Rd"})
	homeRel := graphtest.Relationship("r1", "__PROPERTY__home__", "p1", "a1", nil)
	officeRel := graphtest.Relationship("r2", "__PROPERTY__offices__", "p1", "a2", nil)

	// The variable-length fetch returns one row per path; both rows
	// carry the same root and must collapse into one entity.
	driver.Script(
		graphtest.Record("n0", root, "p0", dialect.Path{
			Nodes:         []dialect.Node{root, home},
			Relationships: []dialect.Relationship{homeRel},
		}),
		graphtest.Record("n0", root, "p0", dialect.Path{
			Nodes:         []dialect.Node{root, office},
			Relationships: []dialect.Relationship{officeRel},
		}),
	)

	people, err := nodus.Nodes[Person](g).All(context.Background())
	require.NoError(t, err)
	require.Len(t, people, 1)

	alice := people[0]
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, 34, alice.Age)
	require.NotNil(t, alice.Home)
	assert.Equal(t, "Main St", alice.Home.Street)
	require.Len(t, alice.Offices, 1)
	assert.Equal(t, "Dock Rd", alice.Offices[0].Street)
}

func TestAllPreservesSharedReferences(t *testing.T) {
	g, driver := newGraph(t)

	root := graphtest.Node("p1", "Person", map[string]any{"name": "Bob"})
	addr := graphtest.Node("a1", "Address", map[string]any{"street": "Main St"})
	homeRel := graphtest.Relationship("r1", "__PROPERTY__home__", "p1", "a1", nil)
	officeRel := graphtest.Relationship("r2", "__PROPERTY__offices__", "p1", "a1", nil)

	driver.Script(
		graphtest.Record("n0", root, "p0", dialect.Path{
			Nodes:         []dialect.Node{root, addr},
			Relationships: []dialect.Relationship{homeRel},
		}),
		graphtest.Record("n0", root, "p0", dialect.Path{
			Nodes:         []dialect.Node{root, addr},
			Relationships: []dialect.Relationship{officeRel},
		}),
	)

	people, err := nodus.Nodes[Person](g).All(context.Background())
	require.NoError(t, err)
	require.Len(t, people, 1)
	require.Len(t, people[0].Offices, 1)
	assert.Same(t, people[0].Home, people[0].Offices[0],
		"one stored auxiliary node decodes to one Go instance")
}

func TestRelationshipQuery(t *testing.T) {
	g, driver := newGraph(t)
	driver.Script(graphtest.Record(
		"r0", graphtest.Relationship("w1", "WORKS_FOR", "p1", "c1",
			map[string]any{"since": int64(2020), "role": "engineer"}),
		"startId", "p1",
		"endId", "c1",
	))

	rels, err := nodus.Relationships[WorksFor](g).
		Where(query.FieldGT("since", 2019)).
		All(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		"MATCH (n0)-[r0:WORKS_FOR]->(n1) WHERE r0.since > $p0"+
			" RETURN r0, n0.id AS startId, n1.id AS endId",
		driver.Last().Query)
	require.Len(t, rels, 1)
	assert.Equal(t, 2020, rels[0].Since)
	assert.Equal(t, "engineer", rels[0].Role)
	assert.Equal(t, "p1", rels[0].StartID)
	assert.Equal(t, "c1", rels[0].EndID)
}

func TestSelectProjectsRows(t *testing.T) {
	type nameRow struct {
		Name string
		Age  int
	}
	g, driver := newGraph(t)
	driver.Script(
		graphtest.Record("name", "Alice", "age", int64(34)),
		graphtest.Record("name", "Bob", "age", int64(28)),
	)

	rows, err := nodus.Select[Person, nameRow](
		nodus.Nodes[Person](g).Where(query.FieldGT("age", 18)),
		query.ConstructOf(
			query.As(query.F("name"), "name"),
			query.As(query.F("age"), "age"),
		),
	).All(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		"MATCH (n0:Person) WHERE n0.age > $p0 RETURN n0.name AS name, n0.age AS age",
		driver.Last().Query)
	require.Len(t, rows, 2)
	assert.Equal(t, nameRow{Name: "Alice", Age: 34}, rows[0])
	assert.Equal(t, nameRow{Name: "Bob", Age: 28}, rows[1])
}

func TestSelectSingleColumnScalar(t *testing.T) {
	g, driver := newGraph(t)
	driver.Script(
		graphtest.Record("name", "Alice"),
		graphtest.Record("name", "Bob"),
	)

	names, err := nodus.Select[Person, string](
		nodus.Nodes[Person](g),
		query.ConstructOf(query.As(query.F("name"), "name")),
	).All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, names)
	assert.Equal(t, "MATCH (n0:Person) RETURN n0.name AS name", driver.Last().Query)
}

func TestGroupByCollectsMembers(t *testing.T) {
	g, driver := newGraph(t)
	driver.Script(graphtest.Record(
		"city", "Berlin",
		"items", []any{
			graphtest.Node("c1", "Company", map[string]any{"name": "Initech", "city": "Berlin"}),
			graphtest.Node("c2", "Company", map[string]any{"name": "Globex", "city": "Berlin"}),
		},
	))

	groups, err := nodus.GroupBy[Company](
		nodus.Nodes[Company](g),
		query.F("city"),
	).All(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		"MATCH (n0:Company) RETURN n0.city AS city, collect(n0) AS items",
		driver.Last().Query)
	require.Len(t, groups, 1)
	assert.Equal(t, "Berlin", groups[0].Keys["city"])
	require.Len(t, groups[0].Items, 2)
	assert.Equal(t, "Initech", groups[0].Items[0].Name)
	assert.Equal(t, "Globex", groups[0].Items[1].Name)
}

func TestSelectGroupsAggregates(t *testing.T) {
	type cityCount struct {
		City  string
		Count int64
	}
	g, driver := newGraph(t)
	driver.Script(
		graphtest.Record("city", "Berlin", "count", int64(2)),
		graphtest.Record("city", "Boston", "count", int64(1)),
	)

	rows, err := nodus.SelectGroups[Company, cityCount](
		nodus.GroupBy[Company](nodus.Nodes[Company](g), query.F("city")),
		query.ConstructOf(query.As(query.CountAll(), "count")),
	).All(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		"MATCH (n0:Company) RETURN n0.city AS city, count(*) AS count",
		driver.Last().Query)
	require.Len(t, rows, 2)
	assert.Equal(t, cityCount{City: "Berlin", Count: 2}, rows[0])
}

func TestTraverseHopsToTarget(t *testing.T) {
	g, driver := newGraph(t)

	_, err := nodus.Traverse[Person, Company](
		nodus.Nodes[Person](g).Where(query.FieldEQ("name", "Alice")),
		"WORKS_FOR",
	).Where(query.FieldEQ("city", "Berlin")).All(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		"MATCH (n0:Person) WHERE n0.name = $p0"+
			" MATCH (n0)-[:WORKS_FOR]->(n1:Company) WHERE n1.city = $p1"+
			" RETURN n1",
		driver.Last().Query)
}

func TestTraverseVariableLength(t *testing.T) {
	g, driver := newGraph(t)

	_, err := nodus.Traverse[Person, Company](
		nodus.Nodes[Person](g),
		"WORKS_FOR",
		nodus.Hops(1, 3),
		nodus.InDirection(query.Either),
	).All(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		"MATCH (n0:Person) MATCH p0 = (n0)-[:WORKS_FOR*1..3]-(n1:Company) RETURN n1",
		driver.Last().Query)
}

func TestImmutableChainsShareNoState(t *testing.T) {
	g, driver := newGraph(t)
	ctx := context.Background()

	base := nodus.Nodes[Company](g).Where(query.FieldEQ("city", "Berlin"))
	_, err := base.Take(1).All(ctx)
	require.NoError(t, err)
	withLimit := driver.Last().Query

	_, err = base.All(ctx)
	require.NoError(t, err)
	assert.NotContains(t, driver.Last().Query, "LIMIT", "extending a chain must not mutate its prefix")
	assert.Contains(t, withLimit, "LIMIT")
}
