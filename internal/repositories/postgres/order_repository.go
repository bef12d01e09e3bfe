package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	domain "github.com/vitrineshop/api/internal/domain"
	"github.com/vitrineshop/api/internal/repositories"
)

const orderColumns = `
	id, order_number, user_id, contact_name, contact_email,
	subtotal, shipping_amount, total, status,
	region_code, region_name, estimated_days, pickup_in_store,
	refund_status, refund_reason, refund_note, refund_requested_at, refund_processed_at,
	tracking_code, tracking_carrier,
	created_at, updated_at, paid_at, delivered_at`

// OrderRepository is the PostgreSQL adapter for order persistence.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository builds an order repository over the shared pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Insert writes the order header and all item snapshots. Callers wrap it in a
// UnitOfWork so the two tables commit atomically.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	q := db(ctx, r.pool)

	_, err := q.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, user_id, contact_name, contact_email,
			subtotal, shipping_amount, total, status,
			region_code, region_name, estimated_days, pickup_in_store,
			refund_status, refund_reason, refund_note,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		order.ID, order.OrderNumber, order.UserID, order.ContactName, order.ContactEmail,
		order.Subtotal, order.ShippingAmount, order.Total, string(order.Status),
		order.Shipping.RegionCode, order.Shipping.RegionName, order.Shipping.EstimatedDays, order.Shipping.PickupInStore,
		string(order.Refund.Status), order.Refund.Reason, order.Refund.Note,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return translate("orders.insert", err)
	}

	for _, item := range order.Items {
		_, err := q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name, unit_price, quantity, line_subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			item.ID, order.ID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.LineSubtotal,
		)
		if err != nil {
			return translate("order_items.insert", err)
		}
	}

	return nil
}

// FindByID loads one order with its item snapshots.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	q := db(ctx, r.pool)

	row := q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, translate("orders.find_by_id", err)
	}

	items, err := r.loadItems(ctx, q, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

// FindByIDForUser loads one order only when it belongs to the given user.
func (r *OrderRepository) FindByIDForUser(ctx context.Context, orderID string, userID string) (domain.Order, error) {
	q := db(ctx, r.pool)

	row := q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID)
	order, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, translate("orders.find_by_id_for_user", err)
	}

	items, err := r.loadItems(ctx, q, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

// ListByUser returns the user's orders, newest first, items included.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	q := db(ctx, r.pool)

	rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, translate("orders.list_by_user", err)
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, translate("orders.list_by_user", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	orderIDs := lo.Map(orders, func(o domain.Order, _ int) string { return o.ID })
	itemRows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, line_subtotal
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, translate("order_items.list", err)
	}
	items, err := scanOrderItems(itemRows)
	if err != nil {
		return nil, translate("order_items.list", err)
	}

	grouped := lo.GroupBy(items, func(item domain.OrderItem) string { return item.OrderID })
	for i := range orders {
		orders[i].Items = grouped[orders[i].ID]
	}

	return orders, nil
}

// UpdateStatusIf applies the transition only when the current status is still
// in the allowed source set. The guard lives in the WHERE clause, so losing a
// race with a concurrent writer results in zero affected rows, never a
// clobbered status.
func (r *OrderRepository) UpdateStatusIf(ctx context.Context, orderID string, from []domain.OrderStatus, update repositories.StatusUpdate) (bool, error) {
	q := db(ctx, r.pool)

	var (
		refundStatus      *string
		refundNote        *string
		refundProcessedAt *time.Time
	)
	if update.Refund != nil {
		refundStatus = lo.ToPtr(string(update.Refund.Status))
		refundNote = lo.ToPtr(update.Refund.Note)
		refundProcessedAt = update.Refund.ProcessedAt
	}

	tag, err := q.Exec(ctx, `
		UPDATE orders SET
			status = $2,
			updated_at = now(),
			paid_at = COALESCE($3, paid_at),
			delivered_at = COALESCE($4, delivered_at),
			tracking_code = COALESCE($5, tracking_code),
			tracking_carrier = COALESCE($6, tracking_carrier),
			refund_status = COALESCE($7, refund_status),
			refund_note = COALESCE($8, refund_note),
			refund_processed_at = COALESCE($9, refund_processed_at)
		WHERE id = $1 AND status = ANY($10)`,
		orderID, string(update.Status),
		update.PaidAt, update.DeliveredAt,
		update.TrackingCode, update.TrackingCarrier,
		refundStatus, refundNote, refundProcessedAt,
		statusStrings(from),
	)
	if err != nil {
		return false, translate("orders.update_status_if", err)
	}

	if tag.RowsAffected() == 0 {
		return false, r.ensureExists(ctx, q, orderID, "orders.update_status_if")
	}

	return true, nil
}

// UpdateRefundIf applies the refund sub-record only when the current refund
// status is still in the allowed source set.
func (r *OrderRepository) UpdateRefundIf(ctx context.Context, orderID string, from []domain.RefundStatus, refund domain.RefundInfo) (bool, error) {
	q := db(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE orders SET
			refund_status = $2,
			refund_reason = $3,
			refund_note = $4,
			refund_requested_at = COALESCE($5, refund_requested_at),
			refund_processed_at = COALESCE($6, refund_processed_at),
			updated_at = now()
		WHERE id = $1 AND refund_status = ANY($7)`,
		orderID, string(refund.Status), refund.Reason, refund.Note,
		refund.RequestedAt, refund.ProcessedAt,
		refundStatusStrings(from),
	)
	if err != nil {
		return false, translate("orders.update_refund_if", err)
	}

	if tag.RowsAffected() == 0 {
		return false, r.ensureExists(ctx, q, orderID, "orders.update_refund_if")
	}

	return true, nil
}

// ListExpired returns orders stuck in the given status since before the
// cutoff, oldest first.
func (r *OrderRepository) ListExpired(ctx context.Context, status domain.OrderStatus, olderThan time.Time) ([]domain.Order, error) {
	q := db(ctx, r.pool)

	rows, err := q.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at`, string(status), olderThan)
	if err != nil {
		return nil, translate("orders.list_expired", err)
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, translate("orders.list_expired", err)
	}
	return orders, nil
}

func (r *OrderRepository) ensureExists(ctx context.Context, q querier, orderID string, op string) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return translate(op, err)
	}
	if !exists {
		return repositories.NewNotFound(op, errors.New("order not found"))
	}
	return nil
}

func (r *OrderRepository) loadItems(ctx context.Context, q querier, orderID string) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, line_subtotal
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, translate("order_items.list", err)
	}
	items, err := scanOrderItems(rows)
	if err != nil {
		return nil, translate("order_items.list", err)
	}
	return items, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o            domain.Order
		status       string
		refundStatus string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.ContactName, &o.ContactEmail,
		&o.Subtotal, &o.ShippingAmount, &o.Total, &status,
		&o.Shipping.RegionCode, &o.Shipping.RegionName, &o.Shipping.EstimatedDays, &o.Shipping.PickupInStore,
		&refundStatus, &o.Refund.Reason, &o.Refund.Note, &o.Refund.RequestedAt, &o.Refund.ProcessedAt,
		&o.TrackingCode, &o.TrackingCarrier,
		&o.CreatedAt, &o.UpdatedAt, &o.PaidAt, &o.DeliveredAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.Refund.Status = domain.RefundStatus(refundStatus)
	return o, nil
}

func scanOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func scanOrderItems(rows pgx.Rows) ([]domain.OrderItem, error) {
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.LineSubtotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func statusStrings(statuses []domain.OrderStatus) []string {
	return lo.Map(statuses, func(s domain.OrderStatus, _ int) string { return string(s) })
}

func refundStatusStrings(statuses []domain.RefundStatus) []string {
	return lo.Map(statuses, func(s domain.RefundStatus, _ int) string { return string(s) })
}
