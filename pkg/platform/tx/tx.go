// Package tx carries the transactional boundary used by every aggregate store.
//
// A Runner serializes writers for one aggregate key. The in-memory runner does
// this with sharded mutexes; the Postgres runner opens a SQL transaction and
// leaves row locking to the stores (SELECT ... FOR UPDATE).
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Runner executes fn as the single writer for key.
// fn must do all reads and writes of the aggregate through the ctx it receives.
type Runner interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
