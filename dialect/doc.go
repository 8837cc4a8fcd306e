// Package dialect defines the boundary between the nodus mapping layer
// and the graph database it talks to.
//
// The mapping layer never opens connections itself. It compiles typed
// operations to parameterized query text and hands them to a Driver;
// everything below that line (bolt handshake, routing, pooling) belongs
// to the driver implementation.
//
// # Driver Interface
//
// The package defines the Driver interface for store access:
//
//	type Driver interface {
//	    Session(ctx context.Context, mode AccessMode) (Session, error)
//	    Close(ctx context.Context) error
//	    Dialect() string
//	}
//
// # Session and Transaction Interfaces
//
// A Session runs statements and opens explicit transactions:
//
//	type Session interface {
//	    Run(ctx context.Context, query string, params map[string]any) (Result, error)
//	    BeginTx(ctx context.Context) (Tx, error)
//	    Close(ctx context.Context) error
//	}
//
//	type Tx interface {
//	    Run(ctx context.Context, query string, params map[string]any) (Result, error)
//	    Commit(ctx context.Context) error
//	    Rollback(ctx context.Context) error
//	}
//
// Both satisfy Runner, which is what the statement execution paths are
// written against.
//
// # Value Handles
//
// Results surface store values through the Record, Node, Relationship
// and Path types. Drivers convert their wire representations into these
// handles; the codec package maps the handles onto user types.
//
// # Sub-packages
//
//   - dialect/cypher: compilation of typed query expressions to Cypher
//   - dialect/neo4j: production Driver over neo4j-go-driver/v5
package dialect
