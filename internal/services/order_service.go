package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	domain "github.com/vitrineshop/api/internal/domain"
	"github.com/vitrineshop/api/internal/platform/metrics"
	"github.com/vitrineshop/api/internal/repositories"
)

const (
	orderIDPrefix   = "ord_"
	itemIDPrefix    = "oit_"
	historyIDPrefix = "osh_"

	orderNumberCounter = "orders"

	defaultOrderNumberPrefix = "VS"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderEmptyCart indicates the user has no active cart items to convert.
	ErrOrderEmptyCart = errors.New("order: empty cart")
	// ErrOrderInvalidShipping indicates the submitted shipping selection failed validation.
	ErrOrderInvalidShipping = errors.New("order: invalid shipping")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrOrderConflict indicates a concurrent writer prevented the operation.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderUnavailable indicates a dependency could not be reached.
	ErrOrderUnavailable = errors.New("order: unavailable")
)

// adminTransitionSources lists, per admin-settable target status, the source
// statuses the order must still be in. Refunded is reachable only through the
// refund workflow.
var adminTransitionSources = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPaid:         {domain.OrderStatusAwaitingPayment},
	domain.OrderStatusInProduction: {domain.OrderStatusPaid},
	domain.OrderStatusShipped:      {domain.OrderStatusInProduction},
	domain.OrderStatusDelivered:    {domain.OrderStatusShipped},
	domain.OrderStatusCancelled: {
		domain.OrderStatusAwaitingPayment,
		domain.OrderStatusPaid,
		domain.OrderStatusInProduction,
	},
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders            repositories.OrderRepository
	Carts             repositories.CartRepository
	Users             repositories.UserRepository
	Counters          repositories.CounterRepository
	History           repositories.StatusHistoryRepository
	Shipping          ShippingService
	UnitOfWork        repositories.UnitOfWork
	Metrics           *metrics.Metrics
	Clock             func() time.Time
	IDGenerator       func() string
	OrderNumberPrefix string
	Logger            func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders       repositories.OrderRepository
	carts        repositories.CartRepository
	users        repositories.UserRepository
	counters     repositories.CounterRepository
	history      repositories.StatusHistoryRepository
	shipping     ShippingService
	unitOfWork   repositories.UnitOfWork
	metrics      *metrics.Metrics
	clock        func() time.Time
	newID        func() string
	numberPrefix string
	logger       func(ctx context.Context, event string, fields map[string]any)
}

// NewOrderService constructs an OrderService validating required dependencies.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Carts == nil {
		return nil, errors.New("order service: cart repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("order service: user repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}
	if deps.History == nil {
		return nil, errors.New("order service: status history repository is required")
	}
	if deps.Shipping == nil {
		return nil, errors.New("order service: shipping service is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return strings.ToLower(ulid.Make().String()) }
	}
	prefix := strings.TrimSpace(deps.OrderNumberPrefix)
	if prefix == "" {
		prefix = defaultOrderNumberPrefix
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:       deps.Orders,
		carts:        deps.Carts,
		users:        deps.Users,
		counters:     deps.Counters,
		history:      deps.History,
		shipping:     deps.Shipping,
		unitOfWork:   deps.UnitOfWork,
		metrics:      deps.Metrics,
		clock:        clock,
		newID:        newID,
		numberPrefix: prefix,
		logger:       logger,
	}, nil
}

// CreateFromCart converts the user's active cart into an immutable order
// snapshot. The order and its items are written in one transaction and the
// cart is closed inside the same transaction, so a crash mid-operation leaves
// the cart intact and the checkout retryable.
func (s *orderService) CreateFromCart(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return Order{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}

	cart, err := s.carts.GetActive(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return Order{}, fmt.Errorf("%w: no active cart", ErrOrderEmptyCart)
		}
		return Order{}, s.mapRepositoryError(err)
	}
	if len(cart.Items) == 0 {
		return Order{}, fmt.Errorf("%w: cart has no items", ErrOrderEmptyCart)
	}

	subtotal := cart.Subtotal()
	validation, err := s.shipping.ValidateForCheckout(ctx, ValidateShippingCommand{
		PostalCode:      cmd.PostalCode,
		PickupInStore:   cmd.PickupInStore,
		SelectedCode:    cmd.RegionCode,
		SubmittedAmount: cmd.ShippingAmount,
		CartSubtotal:    subtotal,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrShippingUnavailable):
			return Order{}, fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		default:
			return Order{}, fmt.Errorf("%w: %v", ErrOrderInvalidShipping, err)
		}
	}

	contact, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return Order{}, fmt.Errorf("%w: unknown user", ErrOrderInvalidInput)
		}
		return Order{}, s.mapRepositoryError(err)
	}

	now := s.clock().UTC()
	order := domain.Order{
		ID:             orderIDPrefix + s.newID(),
		UserID:         userID,
		ContactName:    contact.Name,
		ContactEmail:   contact.Email,
		Subtotal:       subtotal,
		ShippingAmount: validation.Amount,
		Total:          subtotal.Add(validation.Amount),
		Status:         domain.OrderStatusAwaitingPayment,
		Shipping:       validation.Snapshot,
		Refund:         domain.RefundInfo{Status: domain.RefundStatusNone},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:           itemIDPrefix + s.newID(),
			OrderID:      order.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineSubtotal: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		number, err := s.generateOrderNumber(txCtx, now)
		if err != nil {
			return s.mapRepositoryError(err)
		}
		order.OrderNumber = number

		if err := s.orders.Insert(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.history.Append(txCtx, domain.StatusHistoryEntry{
			ID:        historyIDPrefix + s.newID(),
			OrderID:   order.ID,
			Status:    domain.OrderStatusAwaitingPayment,
			Actor:     "user:" + userID,
			Note:      "order created from cart " + cart.ID,
			CreatedAt: now,
		}); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.carts.Close(txCtx, cart.ID); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
	}
	s.logger(ctx, "order.created", map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total.StringFixed(2),
	})

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) GetOrderForUser(ctx context.Context, userID string, orderID string) (Order, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(orderID) == "" {
		return Order{}, fmt.Errorf("%w: user id and order id are required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ListOrdersForUser(ctx context.Context, userID string) ([]Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

func (s *orderService) ListHistory(ctx context.Context, orderID string) ([]StatusHistoryEntry, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	entries, err := s.history.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return entries, nil
}

// ApplyTransition performs one conditional status transition and, only when
// the write actually applied, appends the audit row in the same transaction.
// A false return means the order was no longer in any of the source statuses;
// callers decide whether that is an error or an idempotent no-op.
func (s *orderService) ApplyTransition(ctx context.Context, cmd TransitionCommand) (bool, error) {
	if strings.TrimSpace(cmd.OrderID) == "" || cmd.To == "" || len(cmd.From) == 0 {
		return false, fmt.Errorf("%w: order id, target and source statuses are required", ErrOrderInvalidInput)
	}

	now := s.clock().UTC()
	update := repositories.StatusUpdate{
		Status:          cmd.To,
		Actor:           cmd.Actor,
		TrackingCode:    cmd.TrackingCode,
		TrackingCarrier: cmd.TrackingCarrier,
		Refund:          cmd.Refund,
	}
	switch cmd.To {
	case domain.OrderStatusPaid:
		update.PaidAt = &now
	case domain.OrderStatusDelivered:
		update.DeliveredAt = &now
	}

	applied := false
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		ok, err := s.orders.UpdateStatusIf(txCtx, cmd.OrderID, cmd.From, update)
		if err != nil {
			return s.mapRepositoryError(err)
		}
		if !ok {
			return nil
		}
		applied = true
		return s.mapRepositoryError(s.history.Append(txCtx, domain.StatusHistoryEntry{
			ID:        historyIDPrefix + s.newID(),
			OrderID:   cmd.OrderID,
			Status:    cmd.To,
			Actor:     cmd.Actor,
			Note:      cmd.Note,
			CreatedAt: now,
		}))
	})
	if err != nil {
		return false, err
	}

	if applied {
		s.logger(ctx, "order.status.changed", map[string]any{
			"order_id": cmd.OrderID,
			"status":   string(cmd.To),
			"actor":    cmd.Actor,
		})
	}

	return applied, nil
}

// AdminSetStatus applies an explicit admin override through the same
// conditional-write discipline as the webhook and sweeper paths.
func (s *orderService) AdminSetStatus(ctx context.Context, cmd AdminStatusCommand) (Order, error) {
	if strings.TrimSpace(cmd.OrderID) == "" || strings.TrimSpace(cmd.AdminID) == "" {
		return Order{}, fmt.Errorf("%w: order id and admin id are required", ErrOrderInvalidInput)
	}

	sources, ok := adminTransitionSources[cmd.Status]
	if !ok {
		return Order{}, fmt.Errorf("%w: status %q is not admin-settable", ErrOrderInvalidState, cmd.Status)
	}

	applied, err := s.ApplyTransition(ctx, TransitionCommand{
		OrderID:         cmd.OrderID,
		To:              cmd.Status,
		From:            sources,
		Actor:           "admin:" + cmd.AdminID,
		Note:            cmd.Note,
		TrackingCode:    cmd.TrackingCode,
		TrackingCarrier: cmd.TrackingCarrier,
	})
	if err != nil {
		return Order{}, err
	}
	if !applied {
		return Order{}, fmt.Errorf("%w: order is not in a valid source status for %q", ErrOrderInvalidState, cmd.Status)
	}

	return s.GetOrder(ctx, cmd.OrderID)
}

func (s *orderService) generateOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, orderNumberCounter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d-%06d", s.numberPrefix, now.Year(), seq), nil
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
	}

	return err
}
