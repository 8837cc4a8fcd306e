package nodus_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/nodus"
	"github.com/syssam/nodus/dialect"
	"github.com/syssam/nodus/internal/graphtest"
	"github.com/syssam/nodus/schema"
)

type Address struct {
	Street string `graph:"street,required"`
	City   string `graph:"city"`
}

type Person struct {
	schema.Node `graph:"Person"`
	Name        string     `graph:"name,required"`
	Age         int        `graph:"age"`
	Home        *Address   `graph:"home"`
	Offices     []*Address `graph:"offices"`
}

// Company has only simple properties, so its rows come back without an
// auxiliary path column.
type Company struct {
	schema.Node `graph:"Company"`
	Name        string `graph:"name,required"`
	City        string `graph:"city"`
	Employees   int    `graph:"employees"`
}

type WorksFor struct {
	schema.Relationship `graph:"WORKS_FOR"`
	Since               int    `graph:"since"`
	Role                string `graph:"role"`
}

// Link chains onto itself so a cyclic value is expressible.
type Link struct {
	Label string `graph:"label"`
	Next  *Link  `graph:"next"`
}

type Widget struct {
	schema.Node
	Name string `graph:"name"`
	Root *Link  `graph:"root"`
}

func testSpecs() []schema.TypeSpec {
	return schema.Types(
		&Person{},
		&Company{},
		&WorksFor{},
		&Widget{},
	)
}

// dialectPath bundles one hop of an auxiliary subtree fetch.
func dialectPath(from, to dialect.Node, rel dialect.Relationship) dialect.Path {
	return dialect.Path{
		Nodes:         []dialect.Node{from, to},
		Relationships: []dialect.Relationship{rel},
	}
}

func newGraph(t *testing.T, opts ...nodus.Option) (*nodus.Graph, *graphtest.Driver) {
	t.Helper()
	driver := graphtest.New()
	opts = append([]nodus.Option{nodus.WithTypes(testSpecs()...)}, opts...)
	g, err := nodus.New(driver, opts...)
	require.NoError(t, err)
	return g, driver
}
