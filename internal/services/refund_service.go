package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/vitrineshop/api/internal/domain"
	"github.com/vitrineshop/api/internal/repositories"
)

const defaultRefundWindow = 7 * 24 * time.Hour

var (
	// ErrRefundInvalidInput signals the caller provided invalid data.
	ErrRefundInvalidInput = errors.New("refund: invalid input")
	// ErrRefundNotFound indicates the order could not be located.
	ErrRefundNotFound = errors.New("refund: order not found")
	// ErrRefundNotEligible indicates the order is outside the refund window,
	// in a non-refundable state, or already carries an open refund.
	ErrRefundNotEligible = errors.New("refund: not eligible")
	// ErrRefundConflict indicates a concurrent writer prevented the decision.
	ErrRefundConflict = errors.New("refund: conflict")
	// ErrRefundUnavailable indicates a dependency could not be reached.
	ErrRefundUnavailable = errors.New("refund: unavailable")
)

// refundableStatuses are the order states a refund may be requested from.
var refundableStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusPaid:         true,
	domain.OrderStatusInProduction: true,
	domain.OrderStatusShipped:      true,
	domain.OrderStatusDelivered:    true,
}

// refundRequestSources for the request write: a rejected refund may be
// requested again; requested/approved block a new request.
var refundRequestSources = []domain.RefundStatus{
	domain.RefundStatusNone,
	domain.RefundStatusRejected,
}

// RefundServiceDeps bundles collaborators required to construct the refund service.
type RefundServiceDeps struct {
	Repo        repositories.OrderRepository
	Orders      OrderService
	History     repositories.StatusHistoryRepository
	UnitOfWork  repositories.UnitOfWork
	Clock       func() time.Time
	IDGenerator func() string
	// Window is the refund eligibility window, counted from delivery when the
	// order has been delivered and from creation otherwise.
	Window time.Duration
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type refundService struct {
	repo       repositories.OrderRepository
	orders     OrderService
	history    repositories.StatusHistoryRepository
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	newID      func() string
	window     time.Duration
	logger     func(ctx context.Context, event string, fields map[string]any)
}

// NewRefundService constructs a RefundService validating required dependencies.
func NewRefundService(deps RefundServiceDeps) (RefundService, error) {
	if deps.Repo == nil {
		return nil, errors.New("refund service: order repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("refund service: order service is required")
	}
	if deps.History == nil {
		return nil, errors.New("refund service: status history repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return strings.ToLower(ulid.Make().String()) }
	}
	window := deps.Window
	if window <= 0 {
		window = defaultRefundWindow
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &refundService{
		repo:       deps.Repo,
		orders:     deps.Orders,
		history:    deps.History,
		unitOfWork: deps.UnitOfWork,
		clock:      clock,
		newID:      newID,
		window:     window,
		logger:     logger,
	}, nil
}

// Request opens a refund request on the user's order. The write is a
// compare-and-set on the refund status, so two concurrent requests cannot
// both open one.
func (s *refundService) Request(ctx context.Context, cmd RefundRequestCommand) (Order, error) {
	if strings.TrimSpace(cmd.UserID) == "" || strings.TrimSpace(cmd.OrderID) == "" {
		return Order{}, fmt.Errorf("%w: user id and order id are required", ErrRefundInvalidInput)
	}
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		return Order{}, fmt.Errorf("%w: reason is required", ErrRefundInvalidInput)
	}

	order, err := s.orders.GetOrderForUser(ctx, cmd.UserID, cmd.OrderID)
	if err != nil {
		return Order{}, s.translateOrderError(err)
	}

	now := s.clock().UTC()
	if !s.isRefundable(order, now) {
		return Order{}, fmt.Errorf("%w: order %s is not refundable", ErrRefundNotEligible, order.ID)
	}

	applied, err := s.repo.UpdateRefundIf(ctx, order.ID, refundRequestSources, domain.RefundInfo{
		Status:      domain.RefundStatusRequested,
		Reason:      reason,
		RequestedAt: &now,
	})
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if !applied {
		return Order{}, fmt.Errorf("%w: a refund is already open for order %s", ErrRefundNotEligible, order.ID)
	}

	s.logger(ctx, "refund.requested", map[string]any{"order_id": order.ID})

	return s.orders.GetOrderForUser(ctx, cmd.UserID, cmd.OrderID)
}

// Approve grants a pending refund request: refund status moves to approved
// and the order itself to refunded, both conditionally and in one
// transaction. Losing either compare-and-set rolls the whole decision back.
func (s *refundService) Approve(ctx context.Context, cmd RefundDecisionCommand) (Order, error) {
	order, err := s.loadForDecision(ctx, cmd)
	if err != nil {
		return Order{}, err
	}

	now := s.clock().UTC()
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		applied, err := s.repo.UpdateRefundIf(txCtx, order.ID, []domain.RefundStatus{domain.RefundStatusRequested}, domain.RefundInfo{
			Status:      domain.RefundStatusApproved,
			Reason:      order.Refund.Reason,
			Note:        cmd.Note,
			ProcessedAt: &now,
		})
		if err != nil {
			return s.mapRepositoryError(err)
		}
		if !applied {
			return fmt.Errorf("%w: no pending refund request on order %s", ErrRefundNotEligible, order.ID)
		}

		transitioned, err := s.orders.ApplyTransition(txCtx, TransitionCommand{
			OrderID: order.ID,
			To:      domain.OrderStatusRefunded,
			From:    gatewayTransitionSources[domain.OrderStatusRefunded],
			Actor:   "admin:" + cmd.AdminID,
			Note:    "refund approved: " + cmd.Note,
		})
		if err != nil {
			return s.translateOrderError(err)
		}
		if !transitioned {
			return fmt.Errorf("%w: order %s reached a terminal state concurrently", ErrRefundConflict, order.ID)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.logger(ctx, "refund.approved", map[string]any{"order_id": order.ID, "admin_id": cmd.AdminID})

	return s.orders.GetOrder(ctx, order.ID)
}

// Reject closes a pending refund request without touching the order status.
func (s *refundService) Reject(ctx context.Context, cmd RefundDecisionCommand) (Order, error) {
	order, err := s.loadForDecision(ctx, cmd)
	if err != nil {
		return Order{}, err
	}

	now := s.clock().UTC()
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		applied, err := s.repo.UpdateRefundIf(txCtx, order.ID, []domain.RefundStatus{domain.RefundStatusRequested}, domain.RefundInfo{
			Status:      domain.RefundStatusRejected,
			Reason:      order.Refund.Reason,
			Note:        cmd.Note,
			ProcessedAt: &now,
		})
		if err != nil {
			return s.mapRepositoryError(err)
		}
		if !applied {
			return fmt.Errorf("%w: no pending refund request on order %s", ErrRefundNotEligible, order.ID)
		}

		return s.mapRepositoryError(s.history.Append(txCtx, domain.StatusHistoryEntry{
			ID:        historyIDPrefix + s.newID(),
			OrderID:   order.ID,
			Status:    order.Status,
			Actor:     "admin:" + cmd.AdminID,
			Note:      "refund rejected: " + cmd.Note,
			CreatedAt: now,
		}))
	})
	if err != nil {
		return Order{}, err
	}

	s.logger(ctx, "refund.rejected", map[string]any{"order_id": order.ID, "admin_id": cmd.AdminID})

	return s.orders.GetOrder(ctx, order.ID)
}

// isRefundable applies the eligibility rule: the order is in a
// deliverable-or-delivered state and within the window, counted from delivery
// when delivered and from creation otherwise.
func (s *refundService) isRefundable(order Order, now time.Time) bool {
	if !refundableStatuses[order.Status] {
		return false
	}
	basis := order.CreatedAt
	if order.DeliveredAt != nil {
		basis = *order.DeliveredAt
	}
	return now.Before(basis.Add(s.window))
}

func (s *refundService) loadForDecision(ctx context.Context, cmd RefundDecisionCommand) (Order, error) {
	if strings.TrimSpace(cmd.OrderID) == "" || strings.TrimSpace(cmd.AdminID) == "" {
		return Order{}, fmt.Errorf("%w: order id and admin id are required", ErrRefundInvalidInput)
	}
	order, err := s.orders.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, s.translateOrderError(err)
	}
	return order, nil
}

func (s *refundService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *refundService) translateOrderError(err error) error {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		return fmt.Errorf("%w: %v", ErrRefundNotFound, err)
	case errors.Is(err, ErrOrderInvalidInput):
		return fmt.Errorf("%w: %v", ErrRefundInvalidInput, err)
	case errors.Is(err, ErrOrderUnavailable):
		return fmt.Errorf("%w: %v", ErrRefundUnavailable, err)
	case errors.Is(err, ErrOrderConflict):
		return fmt.Errorf("%w: %v", ErrRefundConflict, err)
	default:
		return err
	}
}

func (s *refundService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrRefundNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrRefundConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrRefundUnavailable, err)
		}
	}
	return err
}
