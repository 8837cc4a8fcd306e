// Package graphtest provides an in-memory dialect.Driver for tests: it
// records every statement run through it and replays scripted results,
// so the packages above the driver boundary test without a database.
package graphtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/syssam/nodus/dialect"
)

// Statement is one recorded Run call.
type Statement struct {
	Query  string
	Params map[string]any
}

// Driver is a scriptable fake. Script queues results consumed in FIFO
// order by subsequent Run calls; Respond installs a handler that takes
// precedence over the queue. Runs beyond the script yield empty
// results.
type Driver struct {
	mu         sync.Mutex
	statements []Statement
	queue      []queued
	respond    func(query string, params map[string]any) (dialect.Result, error)

	sessions  int
	commits   int
	rollbacks int
	closed    bool
}

type queued struct {
	records []*dialect.Record
	err     error
}

// New returns an empty fake driver.
func New() *Driver { return &Driver{} }

// Script queues one result of the given records.
func (d *Driver) Script(records ...*dialect.Record) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, queued{records: records})
	return d
}

// ScriptErr queues one failing result.
func (d *Driver) ScriptErr(err error) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, queued{err: err})
	return d
}

// Respond routes every Run through fn instead of the queue.
func (d *Driver) Respond(fn func(query string, params map[string]any) (dialect.Result, error)) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.respond = fn
	return d
}

// Statements returns the recorded statements in execution order.
func (d *Driver) Statements() []Statement {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Statement(nil), d.statements...)
}

// Queries returns just the query text of the recorded statements.
func (d *Driver) Queries() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.statements))
	for i, s := range d.statements {
		out[i] = s.Query
	}
	return out
}

// Last returns the most recent statement.
func (d *Driver) Last() Statement {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.statements) == 0 {
		return Statement{}
	}
	return d.statements[len(d.statements)-1]
}

// Reset clears the recorded statements and the script.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statements = nil
	d.queue = nil
	d.respond = nil
}

// Sessions returns how many sessions were opened.
func (d *Driver) Sessions() int { d.mu.Lock(); defer d.mu.Unlock(); return d.sessions }

// Commits returns how many transactions committed.
func (d *Driver) Commits() int { d.mu.Lock(); defer d.mu.Unlock(); return d.commits }

// Rollbacks returns how many transactions rolled back.
func (d *Driver) Rollbacks() int { d.mu.Lock(); defer d.mu.Unlock(); return d.rollbacks }

// Closed reports whether Close was called.
func (d *Driver) Closed() bool { d.mu.Lock(); defer d.mu.Unlock(); return d.closed }

// Session implements dialect.Driver.
func (d *Driver) Session(_ context.Context, _ dialect.AccessMode) (dialect.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("graphtest: driver is closed")
	}
	d.sessions++
	return &session{d: d}, nil
}

// Close implements dialect.Driver.
func (d *Driver) Close(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Dialect implements dialect.Driver.
func (d *Driver) Dialect() string { return dialect.Bolt }

func (d *Driver) run(query string, params map[string]any) (dialect.Result, error) {
	d.mu.Lock()
	d.statements = append(d.statements, Statement{Query: query, Params: params})
	respond := d.respond
	var next queued
	scripted := false
	if respond == nil && len(d.queue) > 0 {
		next = d.queue[0]
		d.queue = d.queue[1:]
		scripted = true
	}
	d.mu.Unlock()

	if respond != nil {
		return respond(query, params)
	}
	if !scripted {
		return dialect.NewResult(), nil
	}
	if next.err != nil {
		return nil, next.err
	}
	return dialect.NewResult(next.records...), nil
}

type session struct {
	d *Driver
}

func (s *session) Run(_ context.Context, query string, params map[string]any) (dialect.Result, error) {
	return s.d.run(query, params)
}

func (s *session) BeginTx(context.Context) (dialect.Tx, error) {
	return &tx{d: s.d}, nil
}

func (s *session) Close(context.Context) error { return nil }

type tx struct {
	d *Driver
}

func (t *tx) Run(_ context.Context, query string, params map[string]any) (dialect.Result, error) {
	return t.d.run(query, params)
}

func (t *tx) Commit(context.Context) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	t.d.commits++
	return nil
}

func (t *tx) Rollback(context.Context) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	t.d.rollbacks++
	return nil
}

// Record builds a record from alternating key/value pairs. It panics on
// an odd argument count; it is a test helper.
func Record(kv ...any) *dialect.Record {
	if len(kv)%2 != 0 {
		panic("graphtest: Record takes key/value pairs")
	}
	r := &dialect.Record{}
	for i := 0; i < len(kv); i += 2 {
		r.Keys = append(r.Keys, kv[i].(string))
		r.Values = append(r.Values, kv[i+1])
	}
	return r
}

// Node builds a node handle the way the production adapter would
// deliver it: element id derived from the entity id, and the id stored
// among the properties.
func Node(id string, label string, props map[string]any) dialect.Node {
	all := make(map[string]any, len(props)+1)
	for k, v := range props {
		all[k] = v
	}
	all["id"] = id
	return dialect.Node{ElementID: "e:" + id, Labels: []string{label}, Props: all}
}

// Relationship builds a relationship handle between two nodes built
// with Node.
func Relationship(id, kind, startID, endID string, props map[string]any) dialect.Relationship {
	all := make(map[string]any, len(props)+1)
	for k, v := range props {
		all[k] = v
	}
	all["id"] = id
	return dialect.Relationship{
		ElementID:      "e:" + id,
		Type:           kind,
		StartElementID: "e:" + startID,
		EndElementID:   "e:" + endID,
		Props:          all,
	}
}
