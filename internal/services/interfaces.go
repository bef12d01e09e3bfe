package services

import (
	"context"

	"github.com/shopspring/decimal"

	domain "github.com/vitrineshop/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Order              = domain.Order
	OrderItem          = domain.OrderItem
	OrderStatus        = domain.OrderStatus
	Cart               = domain.Cart
	CartItem           = domain.CartItem
	ShippingOption     = domain.ShippingOption
	ShippingSnapshot   = domain.ShippingSnapshot
	StatusHistoryEntry = domain.StatusHistoryEntry
	RefundInfo         = domain.RefundInfo
)

// ValidateShippingCommand carries the client-submitted shipping selection that
// must be checked against server-computed truth before an order is assembled.
type ValidateShippingCommand struct {
	PostalCode      string
	PickupInStore   bool
	SelectedCode    string
	SubmittedAmount decimal.Decimal
	CartSubtotal    decimal.Decimal
}

// ShippingValidation is the authoritative shipping result for a checkout: the
// snapshot to copy onto the order and the expected amount (zero when the
// free-shipping threshold is met or pickup was chosen).
type ShippingValidation struct {
	Snapshot ShippingSnapshot
	Amount   decimal.Decimal
}

// ShippingService resolves postal codes to priced shipping options and guards
// checkout against tampered shipping amounts.
type ShippingService interface {
	Resolve(ctx context.Context, postalCode string) (ShippingOption, error)
	Quote(ctx context.Context, postalCode string) ([]ShippingOption, error)
	ValidateForCheckout(ctx context.Context, cmd ValidateShippingCommand) (ShippingValidation, error)
}

// CreateOrderCommand carries the checkout request for order assembly. The
// shipping fields are re-validated server-side; the submitted amount is never
// written without passing validation first.
type CreateOrderCommand struct {
	UserID         string
	PostalCode     string
	PickupInStore  bool
	RegionCode     string
	ShippingAmount decimal.Decimal
}

// TransitionCommand requests one conditional status transition. From lists
// the statuses the order must still be in for the write to apply.
type TransitionCommand struct {
	OrderID         string
	To              domain.OrderStatus
	From            []domain.OrderStatus
	Actor           string
	Note            string
	TrackingCode    *string
	TrackingCarrier *string
	Refund          *domain.RefundInfo
}

// AdminStatusCommand is an explicit admin status override.
type AdminStatusCommand struct {
	OrderID         string
	AdminID         string
	Status          domain.OrderStatus
	Note            string
	TrackingCode    *string
	TrackingCarrier *string
}

// OrderService owns order assembly, reads and conditional status transitions.
type OrderService interface {
	CreateFromCart(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	GetOrderForUser(ctx context.Context, userID string, orderID string) (Order, error)
	ListOrdersForUser(ctx context.Context, userID string) ([]Order, error)
	ListHistory(ctx context.Context, orderID string) ([]StatusHistoryEntry, error)
	ApplyTransition(ctx context.Context, cmd TransitionCommand) (bool, error)
	AdminSetStatus(ctx context.Context, cmd AdminStatusCommand) (Order, error)
}

// CheckoutCommand is the client checkout request: shipping selection plus
// postal code. Amounts are client-submitted and validated, never trusted.
type CheckoutCommand struct {
	UserID         string
	PostalCode     string
	PickupInStore  bool
	RegionCode     string
	ShippingAmount decimal.Decimal
}

// CheckoutResult bundles the assembled order with the gateway checkout
// session the client is redirected to.
type CheckoutResult struct {
	Order            Order
	PreferenceID     string
	InitPoint        string
	SandboxInitPoint string
	PublicKey        string
}

// CheckoutService turns an active cart into an order plus a gateway checkout
// preference.
type CheckoutService interface {
	Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error)
}

// WebhookNotification is the parsed gateway callback. Only the payment id is
// used; the body's own status is never trusted.
type WebhookNotification struct {
	EventType string
	PaymentID string
}

// ReconciliationService drives the order state machine from gateway
// notifications.
type ReconciliationService interface {
	ProcessNotification(ctx context.Context, note WebhookNotification) error
}

// RefundRequestCommand is a user-initiated refund request.
type RefundRequestCommand struct {
	UserID  string
	OrderID string
	Reason  string
}

// RefundDecisionCommand is an admin approve/reject decision.
type RefundDecisionCommand struct {
	OrderID string
	AdminID string
	Note    string
}

// RefundService owns the refund sub-workflow on orders.
type RefundService interface {
	Request(ctx context.Context, cmd RefundRequestCommand) (Order, error)
	Approve(ctx context.Context, cmd RefundDecisionCommand) (Order, error)
	Reject(ctx context.Context, cmd RefundDecisionCommand) (Order, error)
}
