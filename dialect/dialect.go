package dialect

import (
	"context"
	"fmt"
)

// Bolt is the dialect name of the graph databases spoken to over the
// bolt protocol (Neo4j, Memgraph and compatible stores).
const Bolt = "bolt"

// AccessMode selects the routing target of a session in clustered
// deployments. ReadMode sessions may be routed to followers.
type AccessMode int

const (
	// ReadMode marks a session that only reads from the store.
	ReadMode AccessMode = iota
	// WriteMode marks a session that may write to the store.
	WriteMode
)

// String returns the lowercase name of the access mode.
func (m AccessMode) String() string {
	switch m {
	case ReadMode:
		return "read"
	case WriteMode:
		return "write"
	default:
		return fmt.Sprintf("AccessMode(%d)", int(m))
	}
}

// Runner is the interface that wraps the Run method shared by sessions
// and transactions. Statements are parameterized query text; params
// carries the named parameters referenced by the text.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) (Result, error)
}

// Session is a logical unit of work against the graph store. Sessions
// are not safe for concurrent use; open one per goroutine.
type Session interface {
	Runner
	// BeginTx starts an explicit transaction on the session.
	BeginTx(ctx context.Context) (Tx, error)
	// Close releases the session and its underlying connection.
	Close(ctx context.Context) error
}

// Tx is an explicit transaction. Statements run through it become
// visible to other sessions only after Commit.
type Tx interface {
	Runner
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Driver is the minimal interface a graph database driver implements.
// The nodus store is written against this interface; dialect/neo4j
// provides the production implementation.
type Driver interface {
	// Session opens a session with the given access mode.
	Session(ctx context.Context, mode AccessMode) (Session, error)
	// Close shuts the driver down and releases its connection pool.
	Close(ctx context.Context) error
	// Dialect returns the name of the dialect the driver speaks.
	Dialect() string
}

// Result is a forward-only cursor over the records produced by a
// statement. Next reports whether a record is available and advances
// the cursor; Err surfaces the failure that stopped iteration.
type Result interface {
	Next(ctx context.Context) bool
	Record() *Record
	Err() error
}

// Record is a single row keyed by the return column names of the
// statement that produced it.
type Record struct {
	Keys   []string
	Values []any
}

// Get returns the value of the named column and whether it is present.
func (r *Record) Get(key string) (any, bool) {
	for i, k := range r.Keys {
		if k == key {
			return r.Values[i], true
		}
	}
	return nil, false
}

// sliceResult is a Result over pre-materialized records. It backs
// cached query replays and test drivers.
type sliceResult struct {
	records []*Record
	idx     int
	err     error
}

// NewResult returns a Result that yields the given records in order.
func NewResult(records ...*Record) Result {
	return &sliceResult{records: records, idx: -1}
}

// NewErrResult returns a Result that yields no records and reports err.
func NewErrResult(err error) Result {
	return &sliceResult{err: err}
}

func (r *sliceResult) Next(context.Context) bool {
	if r.err != nil || r.idx+1 >= len(r.records) {
		return false
	}
	r.idx++
	return true
}

func (r *sliceResult) Record() *Record {
	if r.idx < 0 || r.idx >= len(r.records) {
		return nil
	}
	return r.records[r.idx]
}

func (r *sliceResult) Err() error { return r.err }
