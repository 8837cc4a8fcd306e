package cypher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/nodus/dialect/cypher"
)

func TestBuilderAssemblesClauses(t *testing.T) {
	b := &cypher.Builder{}
	b.Match("(n0:Person)").
		Where("n0.age > $p0").
		With(false, "n0").
		OrderBy("n0.name ASC", "n0.age DESC").
		Skip("$p1").
		Limit("$p2").
		Return(true, "n0")
	assert.Equal(t,
		"MATCH (n0:Person) WHERE n0.age > $p0 WITH n0"+
			" ORDER BY n0.name ASC, n0.age DESC SKIP $p1 LIMIT $p2 RETURN DISTINCT n0",
		b.String())
}

func TestIdentQuoting(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Person", "Person"},
		{"WORKS_FOR", "WORKS_FOR"},
		{"__PROPERTY__home__", "__PROPERTY__home__"},
		{"has space", "`has space`"},
		{"3rd", "`3rd`"},
		{"with`tick", "`with``tick`"},
		{"", "``"},
		{"emoji🙂", "`emoji🙂`"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cypher.Ident(tt.in), "Ident(%q)", tt.in)
	}
}

func TestParamsNumberInFirstUseOrder(t *testing.T) {
	p := cypher.NewParams()
	ref, err := p.Bind("Berlin")
	require.NoError(t, err)
	assert.Equal(t, "$p0", ref)
	ref, err = p.Bind(25)
	require.NoError(t, err)
	assert.Equal(t, "$p1", ref)
	assert.Equal(t, map[string]any{"p0": "Berlin", "p1": 25}, p.Map())
	assert.Equal(t, 2, p.Len())
}

func TestParamsRejectUnsupportedKinds(t *testing.T) {
	p := cypher.NewParams()
	for _, v := range []any{
		make(chan int),
		func() {},
		complex(1, 2),
		struct{ X int }{},
		map[int]string{1: "a"},
	} {
		_, err := p.Bind(v)
		require.Error(t, err, "%T must not bind", v)
		assert.True(t, cypher.IsParameterBindingError(err))
	}
}

func TestParamsAcceptWireKinds(t *testing.T) {
	p := cypher.NewParams()
	for _, v := range []any{
		nil,
		"text",
		int64(7),
		3.14,
		true,
		[]byte{0x1},
		[]any{"a", int64(1)},
		map[string]any{"k": "v"},
	} {
		_, err := p.Bind(v)
		assert.NoError(t, err, "%T must bind", v)
	}
}

func TestScopeAllocatesDistinctAliases(t *testing.T) {
	s := cypher.NewScope()
	n0 := s.BindNode(nil, nil)
	n1 := s.BindNode(nil, nil)
	r0 := s.BindRelationship(nil, nil)
	p0 := s.BindPath()

	assert.Equal(t, "n0", n0.Alias)
	assert.Equal(t, "n1", n1.Alias)
	assert.Equal(t, "r0", r0.Alias)
	assert.Equal(t, "p0", p0)

	_, err := s.Cursor()
	require.Error(t, err)
	assert.True(t, cypher.IsAliasResolutionError(err))

	s.SetCursor(n1)
	cur, err := s.Cursor()
	require.NoError(t, err)
	assert.Equal(t, "n1", cur.Alias)

	resolved, err := s.Resolve("r0")
	require.NoError(t, err)
	assert.Equal(t, r0, resolved)
	_, err = s.Resolve("n9")
	assert.True(t, cypher.IsAliasResolutionError(err))
}

func TestScopeSharesAuxiliaryBindings(t *testing.T) {
	s := cypher.NewScope()
	owner := s.BindNode(nil, nil)

	first, created := s.Aux(owner, "home", nil, nil)
	assert.True(t, created)
	second, created := s.Aux(owner, "home", nil, nil)
	assert.False(t, created, "repeated references share one alias")
	assert.Equal(t, first, second)
	assert.True(t, s.HasAux(owner, "home"))
	assert.False(t, s.HasAux(owner, "offices"))
}
