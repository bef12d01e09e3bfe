package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the mutable pre-order container. Exactly one active cart exists per
// user; it is closed atomically when an order is assembled from it.
type Cart struct {
	ID        string
	UserID    string
	Active    bool
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem references a live product; its price is only trusted at the moment
// the cart is converted into an order snapshot.
type CartItem struct {
	ID          string
	CartID      string
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Subtotal sums unit price times quantity over all items.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
