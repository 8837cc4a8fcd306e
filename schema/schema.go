package schema

import "strings"

// Node is the marker embedded by node types. It carries the opaque
// string identifier under which the node is stored and the label set
// observed on the last read. The identifier is generated on first write
// when empty.
//
//	type Person struct {
//	    schema.Node `graph:"Person"`
//	    Name string `graph:"name,required"`
//	}
type Node struct {
	ID string `graph:"id"`

	labels []string
}

// IsNode marks the embedding type as a node.
func (*Node) IsNode() {}

// GetID returns the node identifier.
func (n *Node) GetID() string { return n.ID }

// SetID sets the node identifier.
func (n *Node) SetID(id string) { n.ID = id }

// Labels returns the label set populated on the last read. It is empty
// for entities that have not passed through the store.
func (n *Node) Labels() []string { return n.labels }

func (n *Node) applyLabels(labels []string) { n.labels = labels }

// Relationship is the marker embedded by relationship types. StartID
// and EndID name the nodes the relationship connects; the relationship
// kind observed on read is available through Kind.
//
//	type WorksFor struct {
//	    schema.Relationship `graph:"WORKS_FOR"`
//	    Since int `graph:"since"`
//	}
type Relationship struct {
	ID      string `graph:"id"`
	StartID string `graph:"-"`
	EndID   string `graph:"-"`

	kind string
}

// IsRelationship marks the embedding type as a relationship.
func (*Relationship) IsRelationship() {}

// GetID returns the relationship identifier.
func (r *Relationship) GetID() string { return r.ID }

// SetID sets the relationship identifier.
func (r *Relationship) SetID(id string) { r.ID = id }

// GetStartID returns the identifier of the start node.
func (r *Relationship) GetStartID() string { return r.StartID }

// SetStartID sets the identifier of the start node.
func (r *Relationship) SetStartID(id string) { r.StartID = id }

// GetEndID returns the identifier of the end node.
func (r *Relationship) GetEndID() string { return r.EndID }

// SetEndID sets the identifier of the end node.
func (r *Relationship) SetEndID(id string) { r.EndID = id }

// Kind returns the relationship kind populated on the last read.
func (r *Relationship) Kind() string { return r.kind }

func (r *Relationship) applyKind(kind string) { r.kind = kind }

// Entity is the method set shared by nodes and relationships.
type Entity interface {
	GetID() string
	SetID(string)
}

// INode is implemented by every type embedding Node.
type INode interface {
	Entity
	IsNode()
}

// IRelationship is implemented by every type embedding Relationship.
type IRelationship interface {
	Entity
	IsRelationship()
	GetStartID() string
	SetStartID(string)
	GetEndID() string
	SetEndID(string)
}

// ApplyNodeMetadata records the label set read from the store on the
// entity marker. Only the codec calls this; the fields it sets are not
// otherwise assignable.
func ApplyNodeMetadata(e INode, labels []string) {
	if m, ok := e.(interface{ applyLabels([]string) }); ok {
		m.applyLabels(labels)
	}
}

// ApplyRelationshipMetadata records the relationship kind read from the
// store on the entity marker.
func ApplyRelationshipMetadata(e IRelationship, kind string) {
	if m, ok := e.(interface{ applyKind(string) }); ok {
		m.applyKind(kind)
	}
}

// Point3D is a spatial point with three coordinates. It belongs to the
// simple property kinds and round-trips through the store unchanged.
type Point3D struct {
	X, Y, Z float64
}

// Reserved relationship kinds connect an owning node to the auxiliary
// nodes holding its complex property values. They are store-internal:
// user-facing relationship listings never include them.
const (
	// PropertyKindPrefix opens every reserved kind. Statements that
	// fetch or exclude auxiliary subtrees filter on it.
	PropertyKindPrefix = "__PROPERTY__"

	propertyKindSuffix = "__"
)

// PropertyRelKind returns the reserved relationship kind for the stored
// property name.
func PropertyRelKind(name string) string {
	return PropertyKindPrefix + name + propertyKindSuffix
}

// IsPropertyRelKind reports whether kind is a reserved complex-property
// relationship kind.
func IsPropertyRelKind(kind string) bool {
	return strings.HasPrefix(kind, PropertyKindPrefix) &&
		strings.HasSuffix(kind, propertyKindSuffix) &&
		len(kind) > len(PropertyKindPrefix)+len(propertyKindSuffix)
}

// PropertyNameFromRelKind recovers the stored property name from a
// reserved relationship kind.
func PropertyNameFromRelKind(kind string) (string, bool) {
	if !IsPropertyRelKind(kind) {
		return "", false
	}
	return kind[len(PropertyKindPrefix) : len(kind)-len(propertyKindSuffix)], true
}
