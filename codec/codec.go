package codec

import (
	"github.com/go-playground/validator/v10"

	"github.com/syssam/nodus/schema"
)

// DefaultMaxDepth is how far the codec follows complex properties, in
// both directions, unless configured otherwise.
const DefaultMaxDepth = 5

// Codec converts between typed entities and write instructions or
// subgraphs. A Codec is immutable and safe for concurrent use.
type Codec struct {
	reg      *schema.Registry
	validate *validator.Validate
	maxDepth int
}

// Option configures a Codec.
type Option func(*Codec)

// WithMaxDepth bounds the complex property walk. Values below 1 are
// ignored.
func WithMaxDepth(n int) Option {
	return func(c *Codec) {
		if n >= 1 {
			c.maxDepth = n
		}
	}
}

// WithValidator replaces the validator instance enforcing the validate
// tags at serialization time.
func WithValidator(v *validator.Validate) Option {
	return func(c *Codec) {
		if v != nil {
			c.validate = v
		}
	}
}

// New returns a Codec over the given registry.
func New(reg *schema.Registry, opts ...Option) *Codec {
	c := &Codec{
		reg:      reg,
		validate: validator.New(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxDepth returns the configured complex property depth bound.
func (c *Codec) MaxDepth() int { return c.maxDepth }

// NodeWrite is the serialized form of a node: everything a writer needs
// to persist it, in store-neutral terms. Nested writes appear in
// declaration order, collection elements in element order.
type NodeWrite struct {
	ID     string
	Labels []string
	Props  map[string]any
	Nested []*NestedWrite
}

// NestedWrite links an owner to one auxiliary node carrying a complex
// property value. Shared marks occurrences after the first of the same
// instance: the writer must attach the existing node instead of
// creating a second one.
type NestedWrite struct {
	Property string
	RelKind  string
	Node     *NodeWrite
	Shared   bool
}

// RelationshipWrite is the serialized form of a relationship.
type RelationshipWrite struct {
	ID      string
	Kind    string
	StartID string
	EndID   string
	Props   map[string]any
}

// Flatten returns the write and every auxiliary write beneath it,
// owners before their auxiliaries, each distinct node exactly once.
func (w *NodeWrite) Flatten() []*NodeWrite {
	var (
		out  []*NodeWrite
		seen = make(map[*NodeWrite]bool)
		walk func(n *NodeWrite)
	)
	walk = func(n *NodeWrite) {
		if seen[n] {
			return
		}
		seen[n] = true
		out = append(out, n)
		for _, nested := range n.Nested {
			walk(nested.Node)
		}
	}
	walk(w)
	return out
}
