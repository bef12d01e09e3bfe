package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/vitrineshop/api/internal/domain"
	"github.com/vitrineshop/api/internal/services"
)

func newAdminRouter(orders *stubOrderService, refunds *stubRefundService) chi.Router {
	if orders == nil {
		orders = &stubOrderService{}
	}
	if refunds == nil {
		refunds = &stubRefundService{}
	}
	router := chi.NewRouter()
	NewAdminOrderHandlers(orders, refunds).Routes(router)
	return router
}

func TestAdminOrderHandlersSetStatus(t *testing.T) {
	var received services.AdminStatusCommand
	orders := &stubOrderService{
		adminSetFn: func(_ context.Context, cmd services.AdminStatusCommand) (services.Order, error) {
			received = cmd
			order := orderFixture()
			order.Status = cmd.Status
			order.TrackingCode = cmd.TrackingCode
			order.TrackingCarrier = cmd.TrackingCarrier
			return order, nil
		},
	}
	router := newAdminRouter(orders, nil)

	payload, _ := json.Marshal(map[string]any{
		"status":          "shipped",
		"note":            "left the warehouse",
		"trackingCode":    "BR123456789",
		"trackingCarrier": "correios",
	})
	req := httptest.NewRequest(http.MethodPost, "/orders/ord_1/status", bytes.NewReader(payload))
	req.Header.Set(adminIDHeader, "adm-1")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if received.OrderID != "ord_1" || received.AdminID != "adm-1" {
		t.Fatalf("unexpected command %+v", received)
	}
	if received.Status != domain.OrderStatusShipped {
		t.Fatalf("expected shipped got %s", received.Status)
	}
	if received.TrackingCode == nil || *received.TrackingCode != "BR123456789" {
		t.Fatalf("expected tracking code forwarded, got %v", received.TrackingCode)
	}

	var decoded struct {
		Order orderResponse `json:"order"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.Order.TrackingCode == nil || *decoded.Order.TrackingCode != "BR123456789" {
		t.Fatalf("expected tracking code in response, got %v", decoded.Order.TrackingCode)
	}
}

func TestAdminOrderHandlersSetStatusRequiresAdmin(t *testing.T) {
	router := newAdminRouter(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/orders/ord_1/status", bytes.NewReader([]byte(`{"status":"paid"}`)))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAdminOrderHandlersSetStatusInvalidTransition(t *testing.T) {
	orders := &stubOrderService{
		adminSetFn: func(_ context.Context, _ services.AdminStatusCommand) (services.Order, error) {
			return services.Order{}, fmt.Errorf("%w: order is not in a valid source status", services.ErrOrderInvalidState)
		},
	}
	router := newAdminRouter(orders, nil)

	req := httptest.NewRequest(http.MethodPost, "/orders/ord_1/status", bytes.NewReader([]byte(`{"status":"delivered"}`)))
	req.Header.Set(adminIDHeader, "adm-1")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if decoded["error"] != "invalid_status_transition" {
		t.Fatalf("expected invalid_status_transition got %v", decoded["error"])
	}
}

func TestAdminOrderHandlersApproveRefund(t *testing.T) {
	var received services.RefundDecisionCommand
	refunds := &stubRefundService{
		approveFn: func(_ context.Context, cmd services.RefundDecisionCommand) (services.Order, error) {
			received = cmd
			order := orderFixture()
			order.Status = domain.OrderStatusRefunded
			order.Refund = domain.RefundInfo{Status: domain.RefundStatusApproved, Note: cmd.Note}
			return order, nil
		},
	}
	router := newAdminRouter(nil, refunds)

	req := httptest.NewRequest(http.MethodPost, "/orders/ord_1/refund/approve", bytes.NewReader([]byte(`{"note":"refund via gateway"}`)))
	req.Header.Set(adminIDHeader, "adm-1")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if received.OrderID != "ord_1" || received.AdminID != "adm-1" || received.Note != "refund via gateway" {
		t.Fatalf("unexpected command %+v", received)
	}
}

func TestAdminOrderHandlersRejectRefundWithoutBody(t *testing.T) {
	var received services.RefundDecisionCommand
	refunds := &stubRefundService{
		rejectFn: func(_ context.Context, cmd services.RefundDecisionCommand) (services.Order, error) {
			received = cmd
			order := orderFixture()
			order.Refund = domain.RefundInfo{Status: domain.RefundStatusRejected}
			return order, nil
		},
	}
	router := newAdminRouter(nil, refunds)

	req := httptest.NewRequest(http.MethodPost, "/orders/ord_1/refund/reject", nil)
	req.Header.Set(adminIDHeader, "adm-1")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 without a note body, got %d: %s", resp.Code, resp.Body.String())
	}
	if received.OrderID != "ord_1" || received.Note != "" {
		t.Fatalf("unexpected command %+v", received)
	}
}

func TestAdminOrderHandlersDecisionWithoutPendingRequest(t *testing.T) {
	refunds := &stubRefundService{
		approveFn: func(_ context.Context, _ services.RefundDecisionCommand) (services.Order, error) {
			return services.Order{}, fmt.Errorf("%w: no pending refund request", services.ErrRefundNotEligible)
		},
	}
	router := newAdminRouter(nil, refunds)

	req := httptest.NewRequest(http.MethodPost, "/orders/ord_1/refund/approve", nil)
	req.Header.Set(adminIDHeader, "adm-1")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
}
