package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/vitrineshop/api/internal/domain"
)

// StatusHistoryRepository appends and reads the immutable transition audit log.
type StatusHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewStatusHistoryRepository builds a history repository over the shared pool.
func NewStatusHistoryRepository(pool *pgxpool.Pool) *StatusHistoryRepository {
	return &StatusHistoryRepository{pool: pool}
}

// Append writes one audit row. Called inside the same transaction as the
// status update so a transition and its history row commit together.
func (r *StatusHistoryRepository) Append(ctx context.Context, entry domain.StatusHistoryEntry) error {
	q := db(ctx, r.pool)

	_, err := q.Exec(ctx, `
		INSERT INTO order_status_history (id, order_id, status, actor, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		entry.ID, entry.OrderID, string(entry.Status), entry.Actor, entry.Note, entry.CreatedAt,
	)
	if err != nil {
		return translate("order_status_history.append", err)
	}
	return nil
}

// ListByOrder returns the order's transitions oldest first.
func (r *StatusHistoryRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.StatusHistoryEntry, error) {
	q := db(ctx, r.pool)

	rows, err := q.Query(ctx, `
		SELECT id, order_id, status, actor, note, created_at
		FROM order_status_history WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, translate("order_status_history.list_by_order", err)
	}
	defer rows.Close()

	var entries []domain.StatusHistoryEntry
	for rows.Next() {
		var (
			entry  domain.StatusHistoryEntry
			status string
		)
		if err := rows.Scan(&entry.ID, &entry.OrderID, &status, &entry.Actor, &entry.Note, &entry.CreatedAt); err != nil {
			return nil, translate("order_status_history.list_by_order", err)
		}
		entry.Status = domain.OrderStatus(status)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("order_status_history.list_by_order", err)
	}
	return entries, nil
}
