package neo4j

import (
	"context"
	"fmt"

	neo4jdrv "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	drvcfg "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
	"go.uber.org/zap"

	"github.com/syssam/nodus/dialect"
)

// Driver adapts a neo4j-go-driver connection pool to dialect.Driver.
type Driver struct {
	drv      neo4jdrv.DriverWithContext
	database string
	log      *zap.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger statements are traced through.
func WithLogger(log *zap.Logger) Option {
	return func(d *Driver) { d.log = log }
}

// WithDatabase overrides the database sessions run against.
func WithDatabase(name string) Option {
	return func(d *Driver) { d.database = name }
}

// Open connects to the deployment described by cfg and verifies
// connectivity before returning.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	auth := neo4jdrv.NoAuth()
	if cfg.Username != "" {
		auth = neo4jdrv.BasicAuth(cfg.Username, cfg.Password, "")
	}
	drv, err := neo4jdrv.NewDriverWithContext(cfg.URI, auth, func(c *drvcfg.Config) {
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		if cfg.ConnectionTimeout > 0 {
			c.SocketConnectTimeout = cfg.ConnectionTimeout
		}
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: opening driver: %w", err)
	}
	if err := drv.VerifyConnectivity(ctx); err != nil {
		_ = drv.Close(ctx)
		return nil, fmt.Errorf("neo4j: verifying connectivity: %w", err)
	}
	d := &Driver{drv: drv, database: cfg.Database, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	d.log.Info("neo4j: connected", zap.String("uri", cfg.URI), zap.String("database", d.database))
	return d, nil
}

// Session opens a session with the given access mode.
func (d *Driver) Session(ctx context.Context, mode dialect.AccessMode) (dialect.Session, error) {
	sc := neo4jdrv.SessionConfig{
		AccessMode:   neo4jdrv.AccessModeRead,
		DatabaseName: d.database,
	}
	if mode == dialect.WriteMode {
		sc.AccessMode = neo4jdrv.AccessModeWrite
	}
	return &session{inner: d.drv.NewSession(ctx, sc), log: d.log}, nil
}

// Close shuts the driver down and releases its connection pool.
func (d *Driver) Close(ctx context.Context) error {
	return d.drv.Close(ctx)
}

// Dialect returns dialect.Bolt.
func (d *Driver) Dialect() string { return dialect.Bolt }

type session struct {
	inner neo4jdrv.SessionWithContext
	log   *zap.Logger
}

func (s *session) Run(ctx context.Context, query string, params map[string]any) (dialect.Result, error) {
	out, err := convertParams(params)
	if err != nil {
		return nil, err
	}
	s.log.Debug("neo4j: run", zap.String("query", query))
	res, err := s.inner.Run(ctx, query, out)
	if err != nil {
		return nil, err
	}
	return &result{inner: res}, nil
}

func (s *session) BeginTx(ctx context.Context) (dialect.Tx, error) {
	inner, err := s.inner.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	return &tx{inner: inner, log: s.log}, nil
}

func (s *session) Close(ctx context.Context) error {
	return s.inner.Close(ctx)
}

type tx struct {
	inner neo4jdrv.ExplicitTransaction
	log   *zap.Logger
}

func (t *tx) Run(ctx context.Context, query string, params map[string]any) (dialect.Result, error) {
	out, err := convertParams(params)
	if err != nil {
		return nil, err
	}
	t.log.Debug("neo4j: run", zap.String("query", query))
	res, err := t.inner.Run(ctx, query, out)
	if err != nil {
		return nil, err
	}
	return &result{inner: res}, nil
}

func (t *tx) Commit(ctx context.Context) error   { return t.inner.Commit(ctx) }
func (t *tx) Rollback(ctx context.Context) error { return t.inner.Rollback(ctx) }

type result struct {
	inner neo4jdrv.ResultWithContext
	cur   *dialect.Record
	err   error
}

func (r *result) Next(ctx context.Context) bool {
	if r.err != nil || !r.inner.Next(ctx) {
		return false
	}
	rec := r.inner.Record()
	values := make([]any, len(rec.Values))
	for i, v := range rec.Values {
		values[i] = convertValue(v)
	}
	r.cur = &dialect.Record{Keys: rec.Keys, Values: values}
	return true
}

func (r *result) Record() *dialect.Record { return r.cur }

func (r *result) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.inner.Err()
}
