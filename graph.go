package nodus

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/nodus/codec"
	"github.com/syssam/nodus/dialect"
	"github.com/syssam/nodus/dialect/cypher"
	"github.com/syssam/nodus/schema"
)

// Graph is the store facade: it owns the registry, the codec and the
// translator, and runs compiled statements through the driver. A Graph
// is safe for concurrent use.
type Graph struct {
	driver     dialect.Driver
	reg        *schema.Registry
	codec      *codec.Codec
	translator *cypher.Translator
	log        *zap.Logger
	cache      Cache
	cacheTTL   time.Duration
	maxDepth   int

	closed atomic.Bool
}

type config struct {
	reg      *schema.Registry
	specs    []schema.TypeSpec
	log      *zap.Logger
	cache    Cache
	cacheTTL time.Duration
	maxDepth int
	validate *validator.Validate
}

// Option configures a Graph.
type Option func(*config)

// WithRegistry supplies an already initialized registry.
func WithRegistry(reg *schema.Registry) Option {
	return func(c *config) { c.reg = reg }
}

// WithTypes declares the type manifest. The Graph builds and
// initializes its own registry from it.
func WithTypes(specs ...schema.TypeSpec) Option {
	return func(c *config) { c.specs = append(c.specs, specs...) }
}

// WithLogger sets the logger. The default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithCache caches read-query rows under fingerprints of the compiled
// statement. Writes invalidate by the written label's key prefix.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *config) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithMaxDepth bounds the complex property walk of the codec and the
// auxiliary subtree fetched alongside entity rows.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.maxDepth = n
		}
	}
}

// WithValidator replaces the validator enforcing the validate tags on
// write.
func WithValidator(v *validator.Validate) Option {
	return func(c *config) { c.validate = v }
}

// New returns a Graph over the driver. Either WithRegistry or WithTypes
// must supply the type manifest.
func New(driver dialect.Driver, opts ...Option) (*Graph, error) {
	if driver == nil {
		return nil, errors.New("nodus: nil driver")
	}
	cfg := &config{log: zap.NewNop(), maxDepth: codec.DefaultMaxDepth}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.reg == nil {
		if len(cfg.specs) == 0 {
			return nil, errors.New("nodus: no type manifest; use WithRegistry or WithTypes")
		}
		cfg.reg = schema.NewRegistry()
	}
	if len(cfg.specs) > 0 {
		if err := cfg.reg.Initialize(cfg.specs...); err != nil {
			return nil, err
		}
	}
	if !cfg.reg.Initialized() {
		return nil, schema.NewNotFoundError("", "registry is not initialized")
	}
	copts := []codec.Option{codec.WithMaxDepth(cfg.maxDepth)}
	if cfg.validate != nil {
		copts = append(copts, codec.WithValidator(cfg.validate))
	}
	return &Graph{
		driver:     driver,
		reg:        cfg.reg,
		codec:      codec.New(cfg.reg, copts...),
		translator: cypher.New(cfg.reg, cypher.WithMaxDepth(cfg.maxDepth)),
		log:        cfg.log,
		cache:      cfg.cache,
		cacheTTL:   cfg.cacheTTL,
		maxDepth:   cfg.maxDepth,
	}, nil
}

// Registry returns the schema registry backing the graph.
func (g *Graph) Registry() *schema.Registry { return g.reg }

// Codec returns the entity codec backing the graph.
func (g *Graph) Codec() *codec.Codec { return g.codec }

// Close shuts the graph down and releases the driver.
func (g *Graph) Close(ctx context.Context) error {
	if g.closed.Swap(true) {
		return nil
	}
	return g.driver.Close(ctx)
}

// ApplySchema emits the constraint and index statements implied by the
// registry and runs them one by one. Every statement is idempotent, so
// replaying at startup is safe.
func (g *Graph) ApplySchema(ctx context.Context) error {
	if g.closed.Load() {
		return ErrClosed
	}
	session, err := g.driver.Session(ctx, dialect.WriteMode)
	if err != nil {
		return err
	}
	defer session.Close(ctx)
	for _, stmt := range cypher.DDL(g.reg) {
		g.log.Debug("nodus: apply schema", zap.String("query", stmt))
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			g.log.Error("nodus: apply schema failed", zap.String("query", stmt), zap.Error(err))
			return err
		}
	}
	return nil
}

// CreateNode serializes the entity and persists it, auxiliary property
// nodes included, in one transaction. An empty identifier is assigned
// to the entity before writing.
func (g *Graph) CreateNode(ctx context.Context, entity any) error {
	w, err := g.codec.Serialize(entity)
	if err != nil {
		return err
	}
	if err := g.runWrite(ctx, nodeCreateStatements(w)); err != nil {
		return NewMutationError(w.Labels[0], "create", err)
	}
	g.invalidate(ctx, w.Labels[0])
	return nil
}

// UpdateNode replaces the stored node with the entity's current state:
// inline properties are overwritten wholesale and the auxiliary
// property subtree is rebuilt.
func (g *Graph) UpdateNode(ctx context.Context, entity any) error {
	if e, ok := entity.(schema.Entity); !ok || e.GetID() == "" {
		return NewMutationError(typeLabel(g, entity), "update", errors.New("entity has no identifier"))
	}
	w, err := g.codec.Serialize(entity)
	if err != nil {
		return err
	}
	if err := g.runWrite(ctx, nodeUpdateStatements(w, g.maxDepth)); err != nil {
		return NewMutationError(w.Labels[0], "update", err)
	}
	g.invalidate(ctx, w.Labels[0])
	return nil
}

// DeleteNode removes the entity's stored node together with its
// auxiliary property subtree.
func (g *Graph) DeleteNode(ctx context.Context, entity any) error {
	es, err := g.reg.SchemaFor(entity)
	if err != nil {
		return err
	}
	e, ok := entity.(schema.Entity)
	if !ok || e.GetID() == "" {
		return NewMutationError(es.Label, "delete", errors.New("entity has no identifier"))
	}
	if err := g.runWrite(ctx, nodeDeleteStatements(es.Label, e.GetID(), g.maxDepth)); err != nil {
		return NewMutationError(es.Label, "delete", err)
	}
	g.invalidate(ctx, es.Label)
	return nil
}

// CreateRelationship persists the relationship between its start and
// end nodes, which must already exist.
func (g *Graph) CreateRelationship(ctx context.Context, entity any) error {
	w, err := g.codec.SerializeRelationship(entity)
	if err != nil {
		return err
	}
	if err := g.runWrite(ctx, []statement{relationshipMergeStatement(w)}); err != nil {
		return NewMutationError(w.Kind, "create", err)
	}
	g.invalidate(ctx, w.Kind)
	return nil
}

// UpdateRelationship overwrites the stored relationship's properties.
func (g *Graph) UpdateRelationship(ctx context.Context, entity any) error {
	if e, ok := entity.(schema.Entity); !ok || e.GetID() == "" {
		return NewMutationError(typeLabel(g, entity), "update", errors.New("entity has no identifier"))
	}
	w, err := g.codec.SerializeRelationship(entity)
	if err != nil {
		return err
	}
	if err := g.runWrite(ctx, []statement{relationshipMergeStatement(w)}); err != nil {
		return NewMutationError(w.Kind, "update", err)
	}
	g.invalidate(ctx, w.Kind)
	return nil
}

// DeleteRelationship removes the entity's stored relationship.
func (g *Graph) DeleteRelationship(ctx context.Context, entity any) error {
	es, err := g.reg.SchemaFor(entity)
	if err != nil {
		return err
	}
	e, ok := entity.(schema.Entity)
	if !ok || e.GetID() == "" {
		return NewMutationError(es.Label, "delete", errors.New("entity has no identifier"))
	}
	if err := g.runWrite(ctx, []statement{relationshipDeleteStatement(es.Label, e.GetID())}); err != nil {
		return NewMutationError(es.Label, "delete", err)
	}
	g.invalidate(ctx, es.Label)
	return nil
}

// SaveAll persists several independent entities in one transaction.
// Serialization fans out across goroutines; the writes themselves run
// in argument order. Any serialization failure aborts before anything
// reaches the store.
func (g *Graph) SaveAll(ctx context.Context, entities ...any) error {
	if len(entities) == 0 {
		return nil
	}
	var (
		stmtsPer = make([][]statement, len(entities))
		labels   = make([]string, len(entities))
	)
	eg, _ := errgroup.WithContext(ctx)
	for i, entity := range entities {
		i, entity := i, entity
		eg.Go(func() error {
			es, err := g.reg.SchemaFor(entity)
			if err != nil {
				return err
			}
			switch es.Kind {
			case schema.KindRelationship:
				w, err := g.codec.SerializeRelationship(entity)
				if err != nil {
					return err
				}
				stmtsPer[i] = []statement{relationshipMergeStatement(w)}
				labels[i] = w.Kind
			default:
				w, err := g.codec.Serialize(entity)
				if err != nil {
					return err
				}
				stmtsPer[i] = nodeCreateStatements(w)
				labels[i] = w.Labels[0]
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	var stmts []statement
	for _, s := range stmtsPer {
		stmts = append(stmts, s...)
	}
	if err := g.runWrite(ctx, stmts); err != nil {
		return NewMutationError(labels[0], "save all", err)
	}
	g.invalidate(ctx, labels...)
	return nil
}

// RelationshipInfo describes one user-visible relationship of a node.
type RelationshipInfo struct {
	ElementID string
	Kind      string
	StartID   string
	EndID     string
	Props     map[string]any
}

// RelationshipsOf lists the relationships touching the node with the
// given identifier, in either direction. Reserved property-encoding
// kinds never appear in the result.
func (g *Graph) RelationshipsOf(ctx context.Context, id string) ([]RelationshipInfo, error) {
	if g.closed.Load() {
		return nil, ErrClosed
	}
	session, err := g.driver.Session(ctx, dialect.ReadMode)
	if err != nil {
		return nil, err
	}
	defer session.Close(ctx)
	stmt := relationshipsOfStatement(id)
	res, err := session.Run(ctx, stmt.text, stmt.params)
	if err != nil {
		return nil, err
	}
	var out []RelationshipInfo
	for res.Next(ctx) {
		rec := res.Record()
		rv, _ := rec.Get("r")
		rel, ok := rv.(dialect.Relationship)
		if !ok {
			return nil, NewQueryError("relationships", "list", errors.New("column r is not a relationship"))
		}
		info := RelationshipInfo{ElementID: rel.ElementID, Kind: rel.Type, Props: rel.Props}
		if v, ok := rec.Get("startId"); ok {
			info.StartID, _ = v.(string)
		}
		if v, ok := rec.Get("endId"); ok {
			info.EndID, _ = v.(string)
		}
		out = append(out, info)
	}
	return out, res.Err()
}

// GetNode fetches one node entity by identifier. An absent identifier
// is a NotFoundError, unlike an empty query result.
func GetNode[T any](ctx context.Context, g *Graph, id string) (*T, error) {
	out, err := Nodes[T](g).Where(idEQ(id)).Take(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, NewNotFoundErrorWithID(typeLabelOf[T](g), id)
	}
	return out[0], nil
}

// GetRelationship fetches one relationship entity by identifier.
func GetRelationship[T any](ctx context.Context, g *Graph, id string) (*T, error) {
	out, err := Relationships[T](g).Where(idEQ(id)).Take(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, NewNotFoundErrorWithID(typeLabelOf[T](g), id)
	}
	return out[0], nil
}

// Tx is an explicit transaction over the facade's write operations.
// Nothing becomes visible, and no cache entry is invalidated, before
// Commit.
type Tx struct {
	g       *Graph
	session dialect.Session
	tx      dialect.Tx
	labels  map[string]bool
	done    bool
}

// BeginTx opens a write transaction.
func (g *Graph) BeginTx(ctx context.Context) (*Tx, error) {
	if g.closed.Load() {
		return nil, ErrClosed
	}
	session, err := g.driver.Session(ctx, dialect.WriteMode)
	if err != nil {
		return nil, err
	}
	tx, err := session.BeginTx(ctx)
	if err != nil {
		session.Close(ctx)
		return nil, err
	}
	return &Tx{g: g, session: session, tx: tx, labels: make(map[string]bool)}, nil
}

// CreateNode persists a node entity inside the transaction.
func (t *Tx) CreateNode(ctx context.Context, entity any) error {
	w, err := t.g.codec.Serialize(entity)
	if err != nil {
		return err
	}
	t.labels[w.Labels[0]] = true
	return t.exec(ctx, nodeCreateStatements(w))
}

// UpdateNode replaces a stored node inside the transaction.
func (t *Tx) UpdateNode(ctx context.Context, entity any) error {
	if e, ok := entity.(schema.Entity); !ok || e.GetID() == "" {
		return NewMutationError(typeLabel(t.g, entity), "update", errors.New("entity has no identifier"))
	}
	w, err := t.g.codec.Serialize(entity)
	if err != nil {
		return err
	}
	t.labels[w.Labels[0]] = true
	return t.exec(ctx, nodeUpdateStatements(w, t.g.maxDepth))
}

// DeleteNode removes a stored node inside the transaction.
func (t *Tx) DeleteNode(ctx context.Context, entity any) error {
	es, err := t.g.reg.SchemaFor(entity)
	if err != nil {
		return err
	}
	e, ok := entity.(schema.Entity)
	if !ok || e.GetID() == "" {
		return NewMutationError(es.Label, "delete", errors.New("entity has no identifier"))
	}
	t.labels[es.Label] = true
	return t.exec(ctx, nodeDeleteStatements(es.Label, e.GetID(), t.g.maxDepth))
}

// CreateRelationship persists a relationship inside the transaction.
func (t *Tx) CreateRelationship(ctx context.Context, entity any) error {
	w, err := t.g.codec.SerializeRelationship(entity)
	if err != nil {
		return err
	}
	t.labels[w.Kind] = true
	return t.exec(ctx, []statement{relationshipMergeStatement(w)})
}

// DeleteRelationship removes a stored relationship inside the
// transaction.
func (t *Tx) DeleteRelationship(ctx context.Context, entity any) error {
	es, err := t.g.reg.SchemaFor(entity)
	if err != nil {
		return err
	}
	e, ok := entity.(schema.Entity)
	if !ok || e.GetID() == "" {
		return NewMutationError(es.Label, "delete", errors.New("entity has no identifier"))
	}
	t.labels[es.Label] = true
	return t.exec(ctx, []statement{relationshipDeleteStatement(es.Label, e.GetID())})
}

// Commit makes the transaction's writes visible and invalidates the
// touched cache prefixes.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("nodus: transaction already finished")
	}
	t.done = true
	defer t.session.Close(ctx)
	if err := t.tx.Commit(ctx); err != nil {
		return err
	}
	labels := make([]string, 0, len(t.labels))
	for label := range t.labels {
		labels = append(labels, label)
	}
	t.g.invalidate(ctx, labels...)
	return nil
}

// Rollback discards the transaction's writes.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.session.Close(ctx)
	if err := t.tx.Rollback(ctx); err != nil {
		return &RollbackError{Err: err}
	}
	return nil
}

func (t *Tx) exec(ctx context.Context, stmts []statement) error {
	return execStatements(ctx, t.tx, stmts, t.g.log)
}

// runWrite executes the statements in one fresh transaction.
func (g *Graph) runWrite(ctx context.Context, stmts []statement) error {
	if g.closed.Load() {
		return ErrClosed
	}
	session, err := g.driver.Session(ctx, dialect.WriteMode)
	if err != nil {
		return err
	}
	defer session.Close(ctx)
	tx, err := session.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := execStatements(ctx, tx, stmts, g.log); err != nil {
		if rerr := tx.Rollback(ctx); rerr != nil {
			return &RollbackError{Err: errors.Join(err, rerr)}
		}
		return err
	}
	return tx.Commit(ctx)
}

func execStatements(ctx context.Context, r dialect.Runner, stmts []statement, log *zap.Logger) error {
	for _, s := range stmts {
		log.Debug("nodus: run", zap.String("query", s.text))
		if _, err := r.Run(ctx, s.text, s.params); err != nil {
			log.Error("nodus: statement failed", zap.String("query", s.text), zap.Error(err))
			return err
		}
	}
	return nil
}

// runRead executes one compiled statement on a read session, serving
// and filling the cache when one is configured.
func (g *Graph) runRead(ctx context.Context, label string, c *cypher.Compiled) ([]*dialect.Record, error) {
	if g.closed.Load() {
		return nil, ErrClosed
	}
	key := ""
	if g.cache != nil {
		key = cacheKey(label, c.Query, c.Params)
		if buf, err := g.cache.Get(ctx, key); err == nil && buf != nil {
			if records, err := decodeRecords(buf); err == nil {
				g.log.Debug("nodus: cache hit", zap.String("label", label))
				return records, nil
			}
		}
	}
	session, err := g.driver.Session(ctx, dialect.ReadMode)
	if err != nil {
		return nil, err
	}
	defer session.Close(ctx)
	g.log.Debug("nodus: run", zap.String("query", c.Query), zap.Int("params", len(c.Params)))
	res, err := session.Run(ctx, c.Query, c.Params)
	if err != nil {
		g.log.Error("nodus: query failed", zap.String("query", c.Query), zap.Error(err))
		return nil, err
	}
	var records []*dialect.Record
	for res.Next(ctx) {
		records = append(records, res.Record())
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	g.log.Debug("nodus: rows", zap.Int("count", len(records)))
	if g.cache != nil {
		if buf, err := encodeRecords(records); err == nil {
			if err := g.cache.Set(ctx, key, buf, g.cacheTTL); err != nil {
				g.log.Error("nodus: cache set failed", zap.Error(err))
			}
		}
	}
	return records, nil
}

// invalidate drops the cache entries keyed under the given labels.
func (g *Graph) invalidate(ctx context.Context, labels ...string) {
	if g.cache == nil {
		return
	}
	for _, label := range labels {
		if err := g.cache.DeletePrefix(ctx, label+":"); err != nil {
			g.log.Error("nodus: cache invalidation failed", zap.String("label", label), zap.Error(err))
		}
	}
}

// typeLabel best-effort resolves the entity's label for error context.
func typeLabel(g *Graph, entity any) string {
	if es, err := g.reg.SchemaFor(entity); err == nil {
		return es.Label
	}
	return "entity"
}
