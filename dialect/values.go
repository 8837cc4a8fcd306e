package dialect

// Node is the dialect-level handle of a stored node: the element id
// assigned by the store, the label set, and the property map. Property
// values are already converted to the kinds the schema package accepts.
type Node struct {
	ElementID string
	Labels    []string
	Props     map[string]any
}

// Prop returns the named property or nil when absent.
func (n Node) Prop(name string) any {
	if n.Props == nil {
		return nil
	}
	return n.Props[name]
}

// HasLabel reports whether the node carries the given label.
func (n Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Relationship is the dialect-level handle of a stored relationship.
type Relationship struct {
	ElementID      string
	Type           string
	StartElementID string
	EndElementID   string
	Props          map[string]any
}

// Prop returns the named property or nil when absent.
func (r Relationship) Prop(name string) any {
	if r.Props == nil {
		return nil
	}
	return r.Props[name]
}

// Path is an alternating node/relationship sequence as returned by
// path-valued query columns. Nodes has one more element than
// Relationships for non-empty paths.
type Path struct {
	Nodes         []Node
	Relationships []Relationship
}

// Len returns the number of relationships in the path.
func (p Path) Len() int { return len(p.Relationships) }
