package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitrineshop/api/internal/payments"
)

var (
	// ErrCheckoutInvalidInput indicates the caller supplied invalid input parameters.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutEmptyCart indicates the user has no active cart items to check out.
	ErrCheckoutEmptyCart = errors.New("checkout: empty cart")
	// ErrCheckoutInvalidShipping indicates the submitted shipping selection failed validation.
	ErrCheckoutInvalidShipping = errors.New("checkout: invalid shipping")
	// ErrCheckoutPaymentFailed indicates the gateway checkout session could not be created.
	ErrCheckoutPaymentFailed = errors.New("checkout: payment session failed")
	// ErrCheckoutUnavailable indicates checkout dependencies are currently unavailable.
	ErrCheckoutUnavailable = errors.New("checkout: unavailable")
)

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Orders    OrderService
	Provider  payments.Provider
	PublicKey string
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	orders    OrderService
	provider  payments.Provider
	publicKey string
	logger    func(ctx context.Context, event string, fields map[string]any)
}

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order service is required")
	}
	if deps.Provider == nil {
		return nil, errors.New("checkout service: payment provider is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &checkoutService{
		orders:    deps.Orders,
		provider:  deps.Provider,
		publicKey: deps.PublicKey,
		logger:    logger,
	}, nil
}

// Checkout assembles the order from the active cart and opens the gateway
// checkout preference for it. A preference failure never touches the order's
// status; the order stays awaiting payment and only the webhook path, the
// sweeper or an admin move it afterwards.
func (s *checkoutService) Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error) {
	order, err := s.orders.CreateFromCart(ctx, CreateOrderCommand{
		UserID:         cmd.UserID,
		PostalCode:     cmd.PostalCode,
		PickupInStore:  cmd.PickupInStore,
		RegionCode:     cmd.RegionCode,
		ShippingAmount: cmd.ShippingAmount,
	})
	if err != nil {
		return CheckoutResult{}, s.translateOrderError(err)
	}

	items := make([]payments.PreferenceItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, payments.PreferenceItem{
			ID:        item.ProductID,
			Title:     item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	if order.ShippingAmount.IsPositive() {
		items = append(items, payments.PreferenceItem{
			ID:        "shipping",
			Title:     "Shipping (" + order.Shipping.RegionName + ")",
			Quantity:  1,
			UnitPrice: order.ShippingAmount,
		})
	}

	preference, err := s.provider.CreatePreference(ctx, payments.PreferenceRequest{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		PayerName:   order.ContactName,
		PayerEmail:  order.ContactEmail,
		Items:       items,
	})
	if err != nil {
		s.logger(ctx, "checkout.preference.failed", map[string]any{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return CheckoutResult{}, fmt.Errorf("%w: %v", ErrCheckoutPaymentFailed, err)
	}

	return CheckoutResult{
		Order:            order,
		PreferenceID:     preference.ID,
		InitPoint:        preference.InitPoint,
		SandboxInitPoint: preference.SandboxInitPoint,
		PublicKey:        s.publicKey,
	}, nil
}

func (s *checkoutService) translateOrderError(err error) error {
	switch {
	case errors.Is(err, ErrOrderEmptyCart):
		return fmt.Errorf("%w: %v", ErrCheckoutEmptyCart, err)
	case errors.Is(err, ErrOrderInvalidShipping):
		return fmt.Errorf("%w: %v", ErrCheckoutInvalidShipping, err)
	case errors.Is(err, ErrOrderInvalidInput):
		return fmt.Errorf("%w: %v", ErrCheckoutInvalidInput, err)
	case errors.Is(err, ErrOrderUnavailable), errors.Is(err, ErrOrderConflict):
		return fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	default:
		return err
	}
}
