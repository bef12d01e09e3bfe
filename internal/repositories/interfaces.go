package repositories

import (
	"context"
	"time"

	domain "github.com/vitrineshop/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StatusUpdate carries the target state of a conditional order transition.
// Optional fields are applied in the same statement as the status change so
// the whole transition commits or fails as one write.
type StatusUpdate struct {
	Status          domain.OrderStatus
	Actor           string
	PaidAt          *time.Time
	DeliveredAt     *time.Time
	TrackingCode    *string
	TrackingCarrier *string
	Refund          *domain.RefundInfo
}

// OrderRepository persists order headers and item snapshots.
//
// UpdateStatusIf and UpdateRefundIf are atomic compare-and-set writes: the
// update applies only when the row's current value is still in the allowed
// source set, which is the single correctness primitive protecting against
// concurrent webhook/sweeper/refund writers.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindByIDForUser(ctx context.Context, orderID string, userID string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatusIf(ctx context.Context, orderID string, from []domain.OrderStatus, update StatusUpdate) (bool, error)
	UpdateRefundIf(ctx context.Context, orderID string, from []domain.RefundStatus, refund domain.RefundInfo) (bool, error)
	ListExpired(ctx context.Context, status domain.OrderStatus, olderThan time.Time) ([]domain.Order, error)
}

// CartRepository reads and closes the per-user active cart. Cart mutation
// endpoints live in the catalog service; the order core only consumes carts.
type CartRepository interface {
	GetActive(ctx context.Context, userID string) (domain.Cart, error)
	Close(ctx context.Context, cartID string) error
}

// ShippingRegionRepository reads admin-managed region pricing rows.
type ShippingRegionRepository interface {
	FindByCode(ctx context.Context, code string) (domain.ShippingRegion, error)
	ListActive(ctx context.Context) ([]domain.ShippingRegion, error)
}

// StatusHistoryRepository appends immutable transition audit rows.
type StatusHistoryRepository interface {
	Append(ctx context.Context, entry domain.StatusHistoryEntry) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.StatusHistoryEntry, error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string) (int64, error)
}

// UserRepository reads the contact slice of a user profile.
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (domain.UserContact, error)
}
