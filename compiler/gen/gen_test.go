package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	Score       float64  `graph:"score"`
	Active      bool     `graph:"active"`
	Tags        []string `graph:"tags"`
	Home        *Address `graph:"home"`
}

type WorksFor struct {
	schema.Relationship `graph:"WORKS_FOR"`
	Since               int `graph:"since"`
}

func newRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	require.NoError(t, reg.Initialize(schema.Types(&Person{}, &WorksFor{})...))
	return reg
}

func readGenerated(t *testing.T, dir, pkg string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, pkg, pkg+".go"))
	require.NoError(t, err)
	return string(data)
}

func TestGenerateEmitsHelperPackages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(context.Background(), newRegistry(t), Config{Target: dir}))

	person := readGenerated(t, dir, "person")
	assert.Contains(t, person, "package person")
	assert.Contains(t, person, DefaultHeader)
	assert.Contains(t, person, `const Label = "Person"`)
	assert.Contains(t, person, `ID = query.StringField("id")`)
	assert.Contains(t, person, `Name = query.StringField("name")`)
	assert.Contains(t, person, `Age = query.IntField("age")`)
	assert.Contains(t, person, `Score = query.Float64Field("score")`)
	assert.Contains(t, person, `Active = query.BoolField("active")`)
	assert.NotContains(t, person, `"tags"`, "collections get no predicate helper")

	worksfor := readGenerated(t, dir, "worksfor")
	assert.Contains(t, worksfor, `const Kind = "WORKS_FOR"`)
	assert.Contains(t, worksfor, `Since = query.IntField("since")`)
}

func TestGenerateNestsComplexPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(context.Background(), newRegistry(t), Config{Target: dir}))

	person := readGenerated(t, dir, "person")
	assert.Contains(t, person, "var Home = struct {")
	assert.Contains(t, person, `query.StringField("home.city")`)
	assert.Contains(t, person, `query.StringField("home.street")`)

	_, err := os.Stat(filepath.Join(dir, "address"))
	assert.True(t, os.IsNotExist(err), "complex types get no package of their own")
}

func TestGenerateHeaderOverride(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Target: dir, Header: "Code generated by graph-tool. DO NOT EDIT."}
	require.NoError(t, Generate(context.Background(), newRegistry(t), cfg))

	assert.Contains(t, readGenerated(t, dir, "person"), "graph-tool")
}

func TestGenerateRequiresTarget(t *testing.T) {
	err := Generate(context.Background(), newRegistry(t), Config{})
	require.Error(t, err)
}

func TestGenerateRequiresInitializedRegistry(t *testing.T) {
	err := Generate(context.Background(), schema.NewRegistry(), Config{Target: t.TempDir()})
	require.Error(t, err)
}

func TestVarName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"id", "ID"},
		{"name", "Name"},
		{"created_at", "CreatedAt"},
		{"createdAt", "CreatedAt"},
		{"home-town", "HomeTown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, varName(tt.in), "varName(%q)", tt.in)
	}
}
