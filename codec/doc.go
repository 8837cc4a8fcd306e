// Package codec converts entities between their Go form and
// store-neutral instructions.
//
// # Serialization
//
// Serialize turns a registered node type into a NodeWrite: the inline
// properties, and one NestedWrite per complex property value linking
// the owner to an auxiliary node over the property's reserved
// relationship kind. The same instance reached twice serializes once;
// later occurrences reference the first write and are marked Shared. A
// reference cycle through complex properties fails with
// CycleDetectedError before any instruction is produced, so a failed
// call leaves no partial state behind.
//
// # Deserialization
//
// Deserialize reverses the mapping from a Subgraph, the root node plus
// the auxiliary nodes and reserved relationships fetched with it. The
// concrete type comes from the root's labels when one is registered.
// Stored values are staged per property, a registered constructor is
// chosen by how many staged values its parameters consume, and staged
// values no parameter claimed are assigned to their fields directly.
// Auxiliary nodes shared in the store come back as shared Go pointers.
//
// Both directions bound the complex property walk at the codec's
// maximum depth, DefaultMaxDepth unless configured otherwise.
package codec
