package postgres

import (
	"context"
	"fmt"

	"wallet-settlement/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

var _ ports.DBTransactor = (*Transactor)(nil)

// Transactor opens READ COMMITTED transactions on the pool. Settlement
// correctness comes from the FOR UPDATE row locks taken inside them.
type Transactor struct {
	pool Pool
}

func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}
