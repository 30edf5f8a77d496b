package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor hands out pgx transactions. The reconciler runs every status
// apply inside one so the row lock and history append commit together.
type Transactor struct {
	db Pool
}

func NewTransactor(db Pool) *Transactor {
	return &Transactor{db: db}
}

// Begin starts a database transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.db.Begin(ctx)
}
