package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the lifecycle states an order moves through.
type OrderStatus string

const (
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusPaid            OrderStatus = "paid"
	OrderStatusInProduction    OrderStatus = "in_production"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRefunded        OrderStatus = "refunded"
)

// IsTerminal reports whether no further gateway or sweeper transition applies.
// Delivered orders may still be refunded within the eligibility window.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// RefundStatus tracks the user-initiated refund sub-workflow on an order.
type RefundStatus string

const (
	RefundStatusNone      RefundStatus = "none"
	RefundStatusRequested RefundStatus = "requested"
	RefundStatusApproved  RefundStatus = "approved"
	RefundStatusRejected  RefundStatus = "rejected"
)

// ShippingSnapshot is the shipping selection copied onto the order at
// creation time. It never changes afterwards, even if the region row does.
type ShippingSnapshot struct {
	RegionCode    string
	RegionName    string
	EstimatedDays int
	PickupInStore bool
}

// RefundInfo is the refund sub-record embedded in an order.
type RefundInfo struct {
	Status      RefundStatus
	Reason      string
	Note        string
	RequestedAt *time.Time
	ProcessedAt *time.Time
}

// Order is an immutable-priced, mutable-status record created from a cart.
// Total always equals Subtotal + ShippingAmount at every committed state.
type Order struct {
	ID          string
	OrderNumber string
	UserID      string

	ContactName  string
	ContactEmail string

	Subtotal       decimal.Decimal
	ShippingAmount decimal.Decimal
	Total          decimal.Decimal

	Status   OrderStatus
	Shipping ShippingSnapshot
	Refund   RefundInfo

	Items []OrderItem

	TrackingCode    *string
	TrackingCarrier *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	PaidAt      *time.Time
	DeliveredAt *time.Time
}

// OrderItem is an immutable snapshot of a cart item at order-creation time.
// LineSubtotal equals UnitPrice * Quantity and is never recomputed from the
// live product afterwards.
type OrderItem struct {
	ID           string
	OrderID      string
	ProductID    string
	ProductName  string
	UnitPrice    decimal.Decimal
	Quantity     int
	LineSubtotal decimal.Decimal
}

// StatusHistoryEntry is an append-only audit record of one status transition.
type StatusHistoryEntry struct {
	ID        string
	OrderID   string
	Status    OrderStatus
	Actor     string
	Note      string
	CreatedAt time.Time
}
