package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/vitrineshop/api/internal/domain"
	"github.com/vitrineshop/api/internal/payments"
	"github.com/vitrineshop/api/internal/repositories"
)

type stubOrderRepo struct {
	insertFn         func(context.Context, domain.Order) error
	findFn           func(context.Context, string) (domain.Order, error)
	findForUserFn    func(context.Context, string, string) (domain.Order, error)
	listByUserFn     func(context.Context, string) ([]domain.Order, error)
	updateStatusIfFn func(context.Context, string, []domain.OrderStatus, repositories.StatusUpdate) (bool, error)
	updateRefundIfFn func(context.Context, string, []domain.RefundStatus, domain.RefundInfo) (bool, error)
	listExpiredFn    func(context.Context, domain.OrderStatus, time.Time) ([]domain.Order, error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) FindByIDForUser(ctx context.Context, orderID string, userID string) (domain.Order, error) {
	if s.findForUserFn != nil {
		return s.findForUserFn(ctx, orderID, userID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if s.listByUserFn != nil {
		return s.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (s *stubOrderRepo) UpdateStatusIf(ctx context.Context, orderID string, from []domain.OrderStatus, update repositories.StatusUpdate) (bool, error) {
	if s.updateStatusIfFn != nil {
		return s.updateStatusIfFn(ctx, orderID, from, update)
	}
	return true, nil
}

func (s *stubOrderRepo) UpdateRefundIf(ctx context.Context, orderID string, from []domain.RefundStatus, refund domain.RefundInfo) (bool, error) {
	if s.updateRefundIfFn != nil {
		return s.updateRefundIfFn(ctx, orderID, from, refund)
	}
	return true, nil
}

func (s *stubOrderRepo) ListExpired(ctx context.Context, status domain.OrderStatus, olderThan time.Time) ([]domain.Order, error) {
	if s.listExpiredFn != nil {
		return s.listExpiredFn(ctx, status, olderThan)
	}
	return nil, nil
}

type stubCartRepo struct {
	getActiveFn func(context.Context, string) (domain.Cart, error)
	closeFn     func(context.Context, string) error
}

func (s *stubCartRepo) GetActive(ctx context.Context, userID string) (domain.Cart, error) {
	if s.getActiveFn != nil {
		return s.getActiveFn(ctx, userID)
	}
	return domain.Cart{}, errors.New("not implemented")
}

func (s *stubCartRepo) Close(ctx context.Context, cartID string) error {
	if s.closeFn != nil {
		return s.closeFn(ctx, cartID)
	}
	return nil
}

type stubRegionRepo struct {
	findFn func(context.Context, string) (domain.ShippingRegion, error)
	listFn func(context.Context) ([]domain.ShippingRegion, error)
}

func (s *stubRegionRepo) FindByCode(ctx context.Context, code string) (domain.ShippingRegion, error) {
	if s.findFn != nil {
		return s.findFn(ctx, code)
	}
	return domain.ShippingRegion{}, errors.New("not implemented")
}

func (s *stubRegionRepo) ListActive(ctx context.Context) ([]domain.ShippingRegion, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

type stubHistoryRepo struct {
	appendFn func(context.Context, domain.StatusHistoryEntry) error
	listFn   func(context.Context, string) ([]domain.StatusHistoryEntry, error)
}

func (s *stubHistoryRepo) Append(ctx context.Context, entry domain.StatusHistoryEntry) error {
	if s.appendFn != nil {
		return s.appendFn(ctx, entry)
	}
	return nil
}

func (s *stubHistoryRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.StatusHistoryEntry, error) {
	if s.listFn != nil {
		return s.listFn(ctx, orderID)
	}
	return nil, nil
}

type stubCounterRepo struct {
	nextFn func(context.Context, string) (int64, error)
}

func (s *stubCounterRepo) Next(ctx context.Context, counterID string) (int64, error) {
	if s.nextFn != nil {
		return s.nextFn(ctx, counterID)
	}
	return 1, nil
}

type stubUserRepo struct {
	findFn func(context.Context, string) (domain.UserContact, error)
}

func (s *stubUserRepo) FindByID(ctx context.Context, userID string) (domain.UserContact, error) {
	if s.findFn != nil {
		return s.findFn(ctx, userID)
	}
	return domain.UserContact{ID: userID, Name: "Test User", Email: "test@example.com"}, nil
}

// passthroughUnitOfWork runs the callback directly; stub repositories have no
// real transactions.
type passthroughUnitOfWork struct{}

func (passthroughUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubShippingService struct {
	resolveFn  func(context.Context, string) (ShippingOption, error)
	validateFn func(context.Context, ValidateShippingCommand) (ShippingValidation, error)
}

func (s *stubShippingService) Resolve(ctx context.Context, postalCode string) (ShippingOption, error) {
	if s.resolveFn != nil {
		return s.resolveFn(ctx, postalCode)
	}
	return ShippingOption{}, errors.New("not implemented")
}

func (s *stubShippingService) Quote(ctx context.Context, postalCode string) ([]ShippingOption, error) {
	option, err := s.Resolve(ctx, postalCode)
	if err != nil {
		return nil, err
	}
	return []ShippingOption{option}, nil
}

func (s *stubShippingService) ValidateForCheckout(ctx context.Context, cmd ValidateShippingCommand) (ShippingValidation, error) {
	if s.validateFn != nil {
		return s.validateFn(ctx, cmd)
	}
	return ShippingValidation{}, errors.New("not implemented")
}

type stubOrderService struct {
	createFn     func(context.Context, CreateOrderCommand) (Order, error)
	getFn        func(context.Context, string) (Order, error)
	getForUserFn func(context.Context, string, string) (Order, error)
	applyFn      func(context.Context, TransitionCommand) (bool, error)
}

func (s *stubOrderService) CreateFromCart(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return Order{}, errors.New("not implemented")
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID)
	}
	return Order{}, errors.New("not implemented")
}

func (s *stubOrderService) GetOrderForUser(ctx context.Context, userID string, orderID string) (Order, error) {
	if s.getForUserFn != nil {
		return s.getForUserFn(ctx, userID, orderID)
	}
	return Order{}, errors.New("not implemented")
}

func (s *stubOrderService) ListOrdersForUser(context.Context, string) ([]Order, error) {
	return nil, nil
}

func (s *stubOrderService) ListHistory(context.Context, string) ([]StatusHistoryEntry, error) {
	return nil, nil
}

func (s *stubOrderService) ApplyTransition(ctx context.Context, cmd TransitionCommand) (bool, error) {
	if s.applyFn != nil {
		return s.applyFn(ctx, cmd)
	}
	return true, nil
}

func (s *stubOrderService) AdminSetStatus(context.Context, AdminStatusCommand) (Order, error) {
	return Order{}, errors.New("not implemented")
}

type stubPaymentProvider struct {
	createFn func(context.Context, payments.PreferenceRequest) (payments.Preference, error)
	lookupFn func(context.Context, string) (payments.PaymentDetails, error)
}

func (s *stubPaymentProvider) CreatePreference(ctx context.Context, req payments.PreferenceRequest) (payments.Preference, error) {
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return payments.Preference{ID: "pref_1", InitPoint: "https://gateway.test/init"}, nil
}

func (s *stubPaymentProvider) LookupPayment(ctx context.Context, paymentID string) (payments.PaymentDetails, error) {
	if s.lookupFn != nil {
		return s.lookupFn(ctx, paymentID)
	}
	return payments.PaymentDetails{}, errors.New("not implemented")
}
