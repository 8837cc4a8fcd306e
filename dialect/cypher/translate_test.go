package cypher_test

import (
	"reflect"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/nodus/dialect/cypher"
	"github.com/syssam/nodus/query"
	"github.com/syssam/nodus/schema"
)

type Address struct {
	Street string `graph:"street,required"`
	City   string `graph:"city"`
}

type Person struct {
	schema.Node `graph:"Person"`
	Name        string   `graph:"name,required"`
	Age         int      `graph:"age"`
	Home        *Address `graph:"home"`
}

type Company struct {
	schema.Node `graph:"Company"`
	Name        string `graph:"name,required,unique"`
	City        string `graph:"city,index"`
	Employees   int    `graph:"employees"`
}

type WorksFor struct {
	schema.Relationship `graph:"WORKS_FOR"`
	Since               int    `graph:"since"`
	Role                string `graph:"role"`
}

func newRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	require.NoError(t, reg.Initialize(schema.Types(
		&Person{},
		&Company{},
		&WorksFor{},
	)...))
	return reg
}

func newTranslator(t *testing.T) *cypher.Translator {
	t.Helper()
	return cypher.New(newRegistry(t))
}

func typeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

func TestCompileGolden(t *testing.T) {
	tests := []struct {
		name    string
		root    reflect.Type
		clauses []query.Clause
	}{
		{
			name: "node_entity_basic",
			root: typeOf[Company](),
		},
		{
			name: "node_entity_filtered",
			root: typeOf[Person](),
			clauses: []query.Clause{
				query.WhereClause{P: query.FieldGT("age", 30)},
			},
		},
		{
			name: "node_nested_property",
			root: typeOf[Person](),
			clauses: []query.Clause{
				query.WhereClause{P: query.FieldEQ("home.city", "Springfield")},
			},
		},
		{
			name: "node_pagination",
			root: typeOf[Company](),
			clauses: []query.Clause{
				query.OrderClause{Terms: []query.OrderTerm{query.Asc(query.F("name"))}},
				query.SkipClause{N: 10},
				query.TakeClause{N: 5},
			},
		},
		{
			name: "relationship_filtered",
			root: typeOf[WorksFor](),
			clauses: []query.Clause{
				query.WhereClause{P: query.FieldGT("since", 2019)},
			},
		},
		{
			name: "projection_ordered",
			root: typeOf[Person](),
			clauses: []query.Clause{
				query.SelectClause{Construct: query.ConstructOf(
					query.As(query.F("name"), "name"),
					query.As(query.F("age"), "age"),
				)},
				query.OrderClause{Terms: []query.OrderTerm{query.Asc(query.F("name"))}},
			},
		},
		{
			name: "group_collect",
			root: typeOf[Company](),
			clauses: []query.Clause{
				query.GroupClause{Keys: []query.Expr{query.F("city")}},
			},
		},
		{
			name: "traverse_filtered_relationship",
			root: typeOf[Person](),
			clauses: []query.Clause{
				query.TraverseClause{Step: query.TraverseStep{
					RelKind: "WORKS_FOR",
					Target:  typeOf[Company](),
					RelPred: query.FieldGT("since", 2019),
				}},
			},
		},
		{
			name: "exists_subquery",
			root: typeOf[Person](),
			clauses: []query.Clause{
				query.WhereClause{P: query.HasRelationshipWith("WORKS_FOR",
					query.FieldEQ("city", "Berlin"))},
			},
		},
		{
			name: "count_distinct",
			root: typeOf[Company](),
			clauses: []query.Clause{
				query.DistinctClause{},
				query.CountClause{},
			},
		},
	}

	translator := newTranslator(t)
	g := goldie.New(t, goldie.WithNameSuffix(".golden"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled, err := translator.Compile(tt.root, tt.clauses)
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(compiled.Query))
		})
	}
}

func TestCompileLiftsEveryLiteral(t *testing.T) {
	translator := newTranslator(t)

	compiled, err := translator.Compile(typeOf[Company](), []query.Clause{
		query.WhereClause{P: query.And(
			query.FieldEQ("city", "Berlin"),
			query.FieldGT("employees", 25),
		)},
		query.SkipClause{N: 10},
		query.TakeClause{N: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"p0": "Berlin",
		"p1": 25,
		"p2": 10,
		"p3": 5,
	}, compiled.Params)
	assert.NotContains(t, compiled.Query, "Berlin")
	assert.NotContains(t, compiled.Query, "25")
}

func TestCompileShapes(t *testing.T) {
	translator := newTranslator(t)

	t.Run("entity with complex properties", func(t *testing.T) {
		compiled, err := translator.Compile(typeOf[Person](), nil)
		require.NoError(t, err)
		assert.Equal(t, cypher.ShapeEntity, compiled.Shape)
		assert.Equal(t, "n0", compiled.Alias)
		assert.Equal(t, "p0", compiled.PathColumn)
		assert.Equal(t, typeOf[Person](), compiled.Entity)
	})

	t.Run("entity without complex properties", func(t *testing.T) {
		compiled, err := translator.Compile(typeOf[Company](), nil)
		require.NoError(t, err)
		assert.Equal(t, cypher.ShapeEntity, compiled.Shape)
		assert.Empty(t, compiled.PathColumn)
	})

	t.Run("relationship", func(t *testing.T) {
		compiled, err := translator.Compile(typeOf[WorksFor](), nil)
		require.NoError(t, err)
		assert.Equal(t, cypher.ShapeRelationship, compiled.Shape)
		assert.Equal(t, "r0", compiled.Alias)
		assert.Equal(t, "startId", compiled.StartColumn)
		assert.Equal(t, "endId", compiled.EndColumn)
	})

	t.Run("projection", func(t *testing.T) {
		compiled, err := translator.Compile(typeOf[Company](), []query.Clause{
			query.SelectClause{Construct: query.Project("name", "city")},
		})
		require.NoError(t, err)
		assert.Equal(t, cypher.ShapeProjection, compiled.Shape)
		assert.Equal(t, []string{"name", "city"}, compiled.Columns)
	})

	t.Run("group", func(t *testing.T) {
		compiled, err := translator.Compile(typeOf[Company](), []query.Clause{
			query.GroupClause{Keys: []query.Expr{query.F("city")}},
		})
		require.NoError(t, err)
		assert.Equal(t, cypher.ShapeGroup, compiled.Shape)
		assert.Equal(t, []string{"city", "items"}, compiled.Columns)
	})

	t.Run("scalar", func(t *testing.T) {
		compiled, err := translator.Compile(typeOf[Company](), []query.Clause{
			query.CountClause{},
		})
		require.NoError(t, err)
		assert.Equal(t, cypher.ShapeScalar, compiled.Shape)
		assert.Equal(t, []string{"count"}, compiled.Columns)
	})
}

func TestCompileAliasesAreDeterministic(t *testing.T) {
	translator := newTranslator(t)
	clauses := []query.Clause{
		query.WhereClause{P: query.FieldEQ("home.city", "Springfield")},
	}

	first, err := translator.Compile(typeOf[Person](), clauses)
	require.NoError(t, err)
	second, err := translator.Compile(typeOf[Person](), clauses)
	require.NoError(t, err)
	assert.Equal(t, first.Query, second.Query)
}

func TestCompileLastFallsBackToIdentityOrder(t *testing.T) {
	translator := newTranslator(t)

	compiled, err := translator.Compile(typeOf[Company](), []query.Clause{
		query.LastClause{},
	})
	require.NoError(t, err)
	assert.Contains(t, compiled.Query, "ORDER BY n0.id DESC LIMIT 1")

	compiled, err = translator.Compile(typeOf[Company](), []query.Clause{
		query.OrderClause{Terms: []query.OrderTerm{query.Asc(query.F("name"))}},
		query.LastClause{},
	})
	require.NoError(t, err)
	assert.Contains(t, compiled.Query, "ORDER BY n0.name DESC LIMIT 1")
}

func TestCompileRejections(t *testing.T) {
	translator := newTranslator(t)
	tests := []struct {
		name    string
		root    reflect.Type
		clauses []query.Clause
	}{
		{
			name: "unregistered root",
			root: reflect.TypeOf(struct{ X int }{}),
		},
		{
			name: "complex root",
			root: typeOf[Address](),
		},
		{
			name: "filter after projection",
			root: typeOf[Person](),
			clauses: []query.Clause{
				query.SelectClause{Construct: query.Project("name")},
				query.WhereClause{P: query.FieldGT("age", 30)},
			},
		},
		{
			name: "clause after count",
			root: typeOf[Company](),
			clauses: []query.Clause{
				query.CountClause{},
				query.TakeClause{N: 1},
			},
		},
		{
			name: "aggregate in predicate",
			root: typeOf[Company](),
			clauses: []query.Clause{
				query.WhereClause{P: query.GT(query.Count(query.F("employees")), query.V(1))},
			},
		},
		{
			name: "aggregate ordering without projection",
			root: typeOf[Company](),
			clauses: []query.Clause{
				query.OrderClause{Terms: []query.OrderTerm{query.Asc(query.Count(query.F("employees")))}},
			},
		},
		{
			name: "unknown property",
			root: typeOf[Company](),
			clauses: []query.Clause{
				query.WhereClause{P: query.FieldEQ("revenue", 1)},
			},
		},
		{
			name: "bare complex property",
			root: typeOf[Person](),
			clauses: []query.Clause{
				query.WhereClause{P: query.FieldNotNil("home")},
			},
		},
		{
			name: "nested property under OR",
			root: typeOf[Person](),
			clauses: []query.Clause{
				query.WhereClause{P: query.Or(
					query.FieldEQ("home.city", "Springfield"),
					query.FieldGT("age", 30),
				)},
			},
		},
		{
			name: "invalid hop bounds",
			root: typeOf[Person](),
			clauses: []query.Clause{
				query.TraverseClause{Step: query.TraverseStep{
					RelKind: "WORKS_FOR",
					Target:  typeOf[Company](),
					MinHops: 3,
					MaxHops: 1,
				}},
			},
		},
		{
			name: "traverse from relationship root",
			root: typeOf[WorksFor](),
			clauses: []query.Clause{
				query.TraverseClause{Step: query.TraverseStep{
					RelKind: "WORKS_FOR",
					Target:  typeOf[Company](),
				}},
			},
		},
		{
			name: "last after projection without ordering",
			root: typeOf[Company](),
			clauses: []query.Clause{
				query.SelectClause{Construct: query.Project("name")},
				query.LastClause{},
			},
		},
		{
			name: "ordering by a non-returned column after aggregation",
			root: typeOf[Company](),
			clauses: []query.Clause{
				query.SelectClause{Construct: query.ConstructOf(
					query.As(query.CountAll(), "count"),
				)},
				query.OrderClause{Terms: []query.OrderTerm{query.Asc(query.F("employees"))}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := translator.Compile(tt.root, tt.clauses)
			require.Error(t, err)
			assert.True(t, cypher.IsTranslationError(err), "got %v", err)
		})
	}
}

func TestCompileUnbindableParameter(t *testing.T) {
	translator := newTranslator(t)

	_, err := translator.Compile(typeOf[Company](), []query.Clause{
		query.WhereClause{P: query.FieldEQ("name", make(chan int))},
	})
	require.Error(t, err)
	assert.True(t, cypher.IsParameterBindingError(err))
}
