package neo4j

import (
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/nodus/dialect"
	"github.com/syssam/nodus/schema"
)

func TestConvertValueNode(t *testing.T) {
	got := convertValue(dbtype.Node{
		ElementId: "4:abc:1",
		Labels:    []string{"Person"},
		Props: map[string]any{
			"name":     "Ada",
			"age":      int64(36),
			"position": dbtype.Point3D{X: 1, Y: 2, Z: 3, SpatialRefId: sridCartesian3D},
		},
	})

	node, ok := got.(dialect.Node)
	require.True(t, ok)
	assert.Equal(t, "4:abc:1", node.ElementID)
	assert.Equal(t, []string{"Person"}, node.Labels)
	assert.Equal(t, "Ada", node.Prop("name"))
	assert.Equal(t, int64(36), node.Prop("age"))
	assert.Equal(t, schema.Point3D{X: 1, Y: 2, Z: 3}, node.Prop("position"),
		"points lose the driver type inside property maps too")
}

func TestConvertValueRelationship(t *testing.T) {
	got := convertValue(dbtype.Relationship{
		ElementId:      "5:abc:9",
		StartElementId: "4:abc:1",
		EndElementId:   "4:abc:2",
		Type:           "WORKS_FOR",
		Props:          map[string]any{"since": int64(2020)},
	})

	rel, ok := got.(dialect.Relationship)
	require.True(t, ok)
	assert.Equal(t, "WORKS_FOR", rel.Type)
	assert.Equal(t, "4:abc:1", rel.StartElementID)
	assert.Equal(t, "4:abc:2", rel.EndElementID)
	assert.Equal(t, int64(2020), rel.Prop("since"))
}

func TestConvertValuePath(t *testing.T) {
	got := convertValue(dbtype.Path{
		Nodes: []dbtype.Node{
			{ElementId: "4:abc:1", Labels: []string{"Person"}},
			{ElementId: "4:abc:2", Labels: []string{"Address"}},
		},
		Relationships: []dbtype.Relationship{
			{ElementId: "5:abc:9", StartElementId: "4:abc:1", EndElementId: "4:abc:2", Type: "__PROPERTY__home__"},
		},
	})

	path, ok := got.(dialect.Path)
	require.True(t, ok)
	require.Len(t, path.Nodes, 2)
	require.Equal(t, 1, path.Len())
	assert.Equal(t, "__PROPERTY__home__", path.Relationships[0].Type)
}

func TestConvertValueTemporals(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, ts, convertValue(ts), "time.Time passes through")
	assert.Equal(t, ts, convertValue(dbtype.LocalDateTime(ts)))
	assert.Equal(t, ts, convertValue(dbtype.Date(ts)))

	d := convertValue(dbtype.Duration{Months: 1, Days: 2, Seconds: 3, Nanos: 4})
	assert.Equal(t, 32*24*time.Hour+3*time.Second+4*time.Nanosecond, d)
}

func TestConvertValueRecursesCollections(t *testing.T) {
	got := convertValue([]any{
		int64(1),
		map[string]any{"p": dbtype.Point3D{X: 9, Y: 8, Z: 7}},
	})
	list, ok := got.([]any)
	require.True(t, ok)
	assert.Equal(t, int64(1), list[0])
	inner := list[1].(map[string]any)
	assert.Equal(t, schema.Point3D{X: 9, Y: 8, Z: 7}, inner["p"])
}

func TestConvertParams(t *testing.T) {
	out, err := convertParams(map[string]any{
		"name":   "Ada",
		"age":    int64(36),
		"pos":    schema.Point3D{X: 1, Y: 2, Z: 3},
		"ttl":    90 * time.Minute,
		"nested": map[string]any{"pause": 1500 * time.Millisecond},
		"list":   []any{schema.Point3D{X: 4, Y: 5, Z: 6}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada", out["name"])
	assert.Equal(t, int64(36), out["age"])
	assert.Equal(t, dbtype.Point3D{SpatialRefId: sridCartesian3D, X: 1, Y: 2, Z: 3}, out["pos"])
	assert.Equal(t, dbtype.Duration{Seconds: 5400}, out["ttl"])

	nested := out["nested"].(map[string]any)
	assert.Equal(t, dbtype.Duration{Seconds: 1, Nanos: 500000000}, nested["pause"])
	list := out["list"].([]any)
	assert.Equal(t, dbtype.Point3D{SpatialRefId: sridCartesian3D, X: 4, Y: 5, Z: 6}, list[0])
}

func TestConvertParamsNil(t *testing.T) {
	out, err := convertParams(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
