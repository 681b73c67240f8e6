package pg_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/rise-and-shine/dispatch/pg"
)

type stringer string

func (s stringer) String() string { return string(s) }

type panicky struct{}

func (panicky) String() string { panic("cannot format") }

func TestIsConflict(t *testing.T) {
	conflict := &pgconn.PgError{Code: "23505"}

	assert.True(t, pg.IsConflict(conflict))
	assert.True(t, pg.IsConflict(fmt.Errorf("insert: %w", conflict)))
	assert.False(t, pg.IsConflict(&pgconn.PgError{Code: "23503"}))
	assert.False(t, pg.IsConflict(errors.New("other")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, pg.IsNotFound(fmt.Errorf("select: %w", sql.ErrNoRows)))
	assert.False(t, pg.IsNotFound(errors.New("other")))
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType errx.Type
		wantCode string
	}{
		{name: "conflict", err: &pgconn.PgError{Code: "23505", TableName: "todos"}, wantType: errx.T_Conflict, wantCode: pg.CodeConflict},
		{name: "not found", err: sql.ErrNoRows, wantType: errx.T_NotFound, wantCode: pg.CodeNotFound},
		{name: "other", err: errors.New("connection reset")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := pg.WrapError(tc.err, stringer(`SELECT * FROM "todos"`))

			e := errx.AsErrorX(err)
			if tc.wantCode != "" {
				assert.Equal(t, tc.wantType, e.Type())
				assert.Equal(t, tc.wantCode, e.Code())
			}
			assert.Contains(t, err.Error(), tc.err.Error())
			assert.Equal(t, "SELECT * FROM todos", e.Details()["query"])
		})
	}

	assert.NoError(t, pg.WrapError(nil, nil))
}

func TestErrorDetails(t *testing.T) {
	details := pg.ErrorDetails(&pgconn.PgError{Code: "23505", ConstraintName: "todos_title_key"}, panicky{})

	assert.Equal(t, "23505", details["pg.code"])
	assert.Equal(t, "todos_title_key", details["pg.constraint"])
	assert.NotContains(t, details, "query")
	assert.NotContains(t, details, "pg.hint")
}

func TestIDB(t *testing.T) {
	sqldb, err := sql.Open("pgx", "postgres://localhost:5432/dispatch")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, ok := pg.TxFromContext(t.Context())
	assert.False(t, ok)
	assert.Same(t, db, pg.IDB(t.Context(), db))
}
