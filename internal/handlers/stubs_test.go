package handlers

import (
	"context"
	"errors"

	"github.com/vitrineshop/api/internal/services"
)

type stubShippingService struct {
	quoteFn func(context.Context, string) ([]services.ShippingOption, error)
}

func (s *stubShippingService) Resolve(ctx context.Context, postalCode string) (services.ShippingOption, error) {
	options, err := s.Quote(ctx, postalCode)
	if err != nil {
		return services.ShippingOption{}, err
	}
	return options[0], nil
}

func (s *stubShippingService) Quote(ctx context.Context, postalCode string) ([]services.ShippingOption, error) {
	if s.quoteFn != nil {
		return s.quoteFn(ctx, postalCode)
	}
	return nil, errors.New("not implemented")
}

func (s *stubShippingService) ValidateForCheckout(context.Context, services.ValidateShippingCommand) (services.ShippingValidation, error) {
	return services.ShippingValidation{}, errors.New("not implemented")
}

type stubOrderService struct {
	getForUserFn  func(context.Context, string, string) (services.Order, error)
	listForUserFn func(context.Context, string) ([]services.Order, error)
	listHistoryFn func(context.Context, string) ([]services.StatusHistoryEntry, error)
	adminSetFn    func(context.Context, services.AdminStatusCommand) (services.Order, error)
}

func (s *stubOrderService) CreateFromCart(context.Context, services.CreateOrderCommand) (services.Order, error) {
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) GetOrder(context.Context, string) (services.Order, error) {
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) GetOrderForUser(ctx context.Context, userID string, orderID string) (services.Order, error) {
	if s.getForUserFn != nil {
		return s.getForUserFn(ctx, userID, orderID)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) ListOrdersForUser(ctx context.Context, userID string) ([]services.Order, error) {
	if s.listForUserFn != nil {
		return s.listForUserFn(ctx, userID)
	}
	return nil, nil
}

func (s *stubOrderService) ListHistory(ctx context.Context, orderID string) ([]services.StatusHistoryEntry, error) {
	if s.listHistoryFn != nil {
		return s.listHistoryFn(ctx, orderID)
	}
	return nil, nil
}

func (s *stubOrderService) ApplyTransition(context.Context, services.TransitionCommand) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubOrderService) AdminSetStatus(ctx context.Context, cmd services.AdminStatusCommand) (services.Order, error) {
	if s.adminSetFn != nil {
		return s.adminSetFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

type stubCheckoutService struct {
	checkoutFn func(context.Context, services.CheckoutCommand) (services.CheckoutResult, error)
}

func (s *stubCheckoutService) Checkout(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
	if s.checkoutFn != nil {
		return s.checkoutFn(ctx, cmd)
	}
	return services.CheckoutResult{}, errors.New("not implemented")
}

type stubRefundService struct {
	requestFn func(context.Context, services.RefundRequestCommand) (services.Order, error)
	approveFn func(context.Context, services.RefundDecisionCommand) (services.Order, error)
	rejectFn  func(context.Context, services.RefundDecisionCommand) (services.Order, error)
}

func (s *stubRefundService) Request(ctx context.Context, cmd services.RefundRequestCommand) (services.Order, error) {
	if s.requestFn != nil {
		return s.requestFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubRefundService) Approve(ctx context.Context, cmd services.RefundDecisionCommand) (services.Order, error) {
	if s.approveFn != nil {
		return s.approveFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubRefundService) Reject(ctx context.Context, cmd services.RefundDecisionCommand) (services.Order, error) {
	if s.rejectFn != nil {
		return s.rejectFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

type stubReconciliationService struct {
	processFn func(context.Context, services.WebhookNotification) error
}

func (s *stubReconciliationService) ProcessNotification(ctx context.Context, note services.WebhookNotification) error {
	if s.processFn != nil {
		return s.processFn(ctx, note)
	}
	return nil
}
