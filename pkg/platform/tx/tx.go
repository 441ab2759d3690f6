// Package tx carries an ambient *sql.Tx through context so stores can join
// a caller's transaction without widening their interfaces. The request
// aggregate relies on it: the store brackets its own transaction only when
// the context does not already carry one.
package tx

import (
	"context"
	"database/sql"
)

type key struct{}

// WithTx returns a context carrying t. Store methods that see it execute
// against the transaction instead of the pooled connection. A nil t leaves
// the context untouched.
func WithTx(ctx context.Context, t *sql.Tx) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, key{}, t)
}

// From reports the ambient transaction, if the context carries one.
func From(ctx context.Context) (*sql.Tx, bool) {
	t, ok := ctx.Value(key{}).(*sql.Tx)
	return t, ok
}
