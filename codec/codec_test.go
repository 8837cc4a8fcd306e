package codec_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syssam/nodus/codec"
	"github.com/syssam/nodus/dialect"
	"github.com/syssam/nodus/schema"
)

type Address struct {
	Street string `graph:"street,required"`
	City   string `graph:"city"`
}

type Person struct {
	schema.Node `graph:"Person"`
	Name        string     `graph:"name,required" validate:"min=1,max=10"`
	Age         int        `graph:"age"`
	Nick        *string    `graph:"nick"`
	Tags        []string   `graph:"tags"`
	Score       float64    `graph:"score"`
	Active      bool       `graph:"active"`
	Joined      time.Time  `graph:"joined"`
	Home        *Address   `graph:"home"`
	Offices     []*Address `graph:"offices"`
}

type Part struct {
	Label string `graph:"label"`
	Next  *Part  `graph:"next"`
}

type Machine struct {
	schema.Node
	Name    string `graph:"name"`
	Counter uint64 `graph:"counter"`
	Root    *Part  `graph:"root"`
}

type Sensor struct {
	schema.Node
	Tiny     int8           `graph:"tiny"`
	Big      uint32         `graph:"big"`
	Ratio    float32        `graph:"ratio"`
	Interval time.Duration  `graph:"interval"`
	At       schema.Point3D `graph:"at"`
	Blob     []byte         `graph:"blob"`
}

type WorksFor struct {
	schema.Relationship `graph:"WORKS_FOR"`
	Since               int    `graph:"since"`
	Role                string `graph:"role"`
}

// Account carries two constructors so the selection order is
// observable through Via, which is not a stored property.
type Account struct {
	schema.Node
	Owner   string `graph:"owner,required"`
	Balance int64  `graph:"balance"`
	Remark  string `graph:"remark"`
	Via     string `graph:"-"`
}

func NewAccount(owner string) *Account {
	return &Account{Owner: owner, Remark: "opened", Via: "owner"}
}

func NewAccountWithBalance(owner string, balance int64) *Account {
	return &Account{Owner: owner, Balance: balance, Via: "owner+balance"}
}

func newCodec(t *testing.T, opts ...codec.Option) *codec.Codec {
	t.Helper()
	reg := schema.NewRegistry()
	require.NoError(t, reg.Initialize(
		schema.Type(&Person{}),
		schema.Type(&Machine{}),
		schema.Type(&Sensor{}),
		schema.Type(&WorksFor{}),
		schema.Type(&Account{},
			schema.WithConstructor(NewAccount, "owner"),
			schema.WithConstructor(NewAccountWithBalance, "owner", "balance"),
		),
	))
	return codec.New(reg, opts...)
}

// subgraphFor replays write instructions as the driver values a fetch
// would return, with the identifier stored as the id property.
func subgraphFor(t *testing.T, w *codec.NodeWrite) *codec.Subgraph {
	t.Helper()
	sub := codec.NewSubgraph(nodeFor(w))
	seen := make(map[*codec.NodeWrite]bool)
	relSeq := 0
	var walk func(owner *codec.NodeWrite)
	walk = func(owner *codec.NodeWrite) {
		if seen[owner] {
			return
		}
		seen[owner] = true
		for _, n := range owner.Nested {
			sub.AddNode(nodeFor(n.Node))
			relSeq++
			sub.AddRelationship(dialect.Relationship{
				ElementID:      fmt.Sprintf("r%d", relSeq),
				Type:           n.RelKind,
				StartElementID: "e:" + owner.ID,
				EndElementID:   "e:" + n.Node.ID,
			})
			walk(n.Node)
		}
	}
	walk(w)
	return sub
}

func nodeFor(w *codec.NodeWrite) dialect.Node {
	props := make(map[string]any, len(w.Props)+1)
	for k, v := range w.Props {
		props[k] = v
	}
	props["id"] = w.ID
	return dialect.Node{ElementID: "e:" + w.ID, Labels: w.Labels, Props: props}
}
