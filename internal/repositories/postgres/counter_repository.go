package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CounterRepository hands out gapless-enough sequence numbers for friendly
// order numbers. The upsert takes a row lock, so concurrent checkouts inside
// their transactions serialise on the counter and never see the same value.
type CounterRepository struct {
	pool *pgxpool.Pool
}

// NewCounterRepository builds a counter repository over the shared pool.
func NewCounterRepository(pool *pgxpool.Pool) *CounterRepository {
	return &CounterRepository{pool: pool}
}

// Next increments and returns the named counter, creating it at 1 on first use.
func (r *CounterRepository) Next(ctx context.Context, counterID string) (int64, error) {
	q := db(ctx, r.pool)

	var value int64
	err := q.QueryRow(ctx, `
		INSERT INTO counters (id, value) VALUES ($1, 1)
		ON CONFLICT (id) DO UPDATE SET value = counters.value + 1
		RETURNING value`, counterID).Scan(&value)
	if err != nil {
		return 0, translate("counters.next", err)
	}
	return value, nil
}
