// Package pg connects command and query handlers to PostgreSQL.
//
// It opens bun databases over a pgx pool and provides Transactor, the
// transaction scope used by the command transaction behavior. Handlers reach
// the current transaction through IDB.
package pg

import (
	"context"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/extra/bunotel"

	"github.com/rise-and-shine/dispatch/observability/logger"
	"github.com/rise-and-shine/dispatch/pg/hooks"
)

// NewBunDB opens a bun database on top of a pgx pool. Queries are traced
// with OpenTelemetry and, when cfg.Debug is set, logged through l.
func NewBunDB(ctx context.Context, cfg Config, l logger.Logger) (*bun.DB, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())

	db.AddQueryHook(hooks.NewDebugHook(l,
		hooks.WithEnabled(cfg.Debug),
		hooks.WithSlowQueryThreshold(cfg.SlowQueryThreshold),
	))
	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName(cfg.Database)))

	return db, nil
}
