package pg

import (
	"context"
	"database/sql"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"
)

type txKey struct{}

// Transactor runs functions inside bun transactions. The transaction is
// stored in the context passed to fn, and nested calls join it instead of
// opening a new one.
type Transactor struct {
	db   *bun.DB
	opts *sql.TxOptions
}

// NewTransactor creates a Transactor over db. opts may be nil.
func NewTransactor(db *bun.DB, opts *sql.TxOptions) *Transactor {
	return &Transactor{db: db, opts: opts}
}

// Transaction commits when fn returns nil and rolls back otherwise. The
// error returned by fn is passed through unchanged.
func (t *Transactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	var fnErr error
	err := t.db.RunInTx(ctx, t.opts, func(ctx context.Context, tx bun.Tx) error {
		fnErr = fn(context.WithValue(ctx, txKey{}, tx))
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return errx.Wrap(err)
}

// TxFromContext returns the transaction opened by Transactor, if any.
func TxFromContext(ctx context.Context) (bun.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(bun.Tx)
	return tx, ok
}

// IDB returns the transaction in ctx, or db when there is none.
func IDB(ctx context.Context, db bun.IDB) bun.IDB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return db
}
