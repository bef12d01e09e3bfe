package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/vitrineshop/api/internal/domain"
	"github.com/vitrineshop/api/internal/repositories"
)

// CartRepository is the PostgreSQL adapter for cart reads and closing.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository builds a cart repository over the shared pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetActive loads the single active cart for the user with its items.
func (r *CartRepository) GetActive(ctx context.Context, userID string) (domain.Cart, error) {
	q := db(ctx, r.pool)

	var cart domain.Cart
	err := q.QueryRow(ctx, `
		SELECT id, user_id, active, created_at, updated_at
		FROM carts WHERE user_id = $1 AND active`, userID).
		Scan(&cart.ID, &cart.UserID, &cart.Active, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return domain.Cart{}, translate("carts.get_active", err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, cart_id, product_id, product_name, unit_price, quantity
		FROM cart_items WHERE cart_id = $1 ORDER BY id`, cart.ID)
	if err != nil {
		return domain.Cart{}, translate("cart_items.list", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity); err != nil {
			return domain.Cart{}, translate("cart_items.list", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Cart{}, translate("cart_items.list", err)
	}

	return cart, nil
}

// Close deactivates the cart. Closing an already closed cart is a not-found so
// a doubly submitted checkout cannot build two orders from one cart.
func (r *CartRepository) Close(ctx context.Context, cartID string) error {
	q := db(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE carts SET active = false, updated_at = now()
		WHERE id = $1 AND active`, cartID)
	if err != nil {
		return translate("carts.close", err)
	}
	if tag.RowsAffected() == 0 {
		return repositories.NewNotFound("carts.close", errors.New("active cart not found"))
	}
	return nil
}
