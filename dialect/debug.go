package dialect

import (
	"context"
)

// LogFunc receives the statements executed through a debug driver.
type LogFunc func(ctx context.Context, query string, params map[string]any)

// Debug wraps a driver and reports every statement that runs through
// its sessions and transactions to log before execution.
func Debug(d Driver, log LogFunc) Driver {
	return &debugDriver{Driver: d, log: log}
}

type debugDriver struct {
	Driver
	log LogFunc
}

func (d *debugDriver) Session(ctx context.Context, mode AccessMode) (Session, error) {
	s, err := d.Driver.Session(ctx, mode)
	if err != nil {
		return nil, err
	}
	return &debugSession{Session: s, log: d.log}, nil
}

type debugSession struct {
	Session
	log LogFunc
}

func (s *debugSession) Run(ctx context.Context, query string, params map[string]any) (Result, error) {
	s.log(ctx, query, params)
	return s.Session.Run(ctx, query, params)
}

func (s *debugSession) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.Session.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &debugTx{Tx: tx, log: s.log}, nil
}

type debugTx struct {
	Tx
	log LogFunc
}

func (t *debugTx) Run(ctx context.Context, query string, params map[string]any) (Result, error) {
	t.log(ctx, query, params)
	return t.Tx.Run(ctx, query, params)
}
