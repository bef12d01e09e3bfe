package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/vitrineshop/api/internal/services"
)

func newWebhookRouter(reconciliation *stubReconciliationService) chi.Router {
	router := chi.NewRouter()
	NewWebhookHandlers(reconciliation).Routes(router)
	return router
}

func TestWebhookHandlersPaymentNotification(t *testing.T) {
	var received services.WebhookNotification
	router := newWebhookRouter(&stubReconciliationService{
		processFn: func(_ context.Context, note services.WebhookNotification) error {
			received = note
			return nil
		},
	})

	payload := []byte(`{"type":"payment","data":{"id":"123456"}}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/mercadopago", bytes.NewReader(payload))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if received.EventType != "payment" || received.PaymentID != "123456" {
		t.Fatalf("unexpected notification %+v", received)
	}
}

func TestWebhookHandlersNumericDataID(t *testing.T) {
	var received services.WebhookNotification
	router := newWebhookRouter(&stubReconciliationService{
		processFn: func(_ context.Context, note services.WebhookNotification) error {
			received = note
			return nil
		},
	})

	payload := []byte(`{"type":"payment","data":{"id":123456}}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/mercadopago", bytes.NewReader(payload))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if received.PaymentID != "123456" {
		t.Fatalf("expected numeric id coerced to string, got %q", received.PaymentID)
	}
}

func TestWebhookHandlersLegacyQueryParams(t *testing.T) {
	var received services.WebhookNotification
	router := newWebhookRouter(&stubReconciliationService{
		processFn: func(_ context.Context, note services.WebhookNotification) error {
			received = note
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/payments/mercadopago?topic=payment&id=7890", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if received.EventType != "payment" || received.PaymentID != "7890" {
		t.Fatalf("unexpected notification %+v", received)
	}
}

func TestWebhookHandlersUnparseableBodyAcked(t *testing.T) {
	router := newWebhookRouter(&stubReconciliationService{
		processFn: func(_ context.Context, _ services.WebhookNotification) error {
			t.Fatalf("unparseable body must be dropped before reconciliation")
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/payments/mercadopago", bytes.NewReader([]byte(`{{not json`)))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 ack for unparseable body, got %d", resp.Code)
	}
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded["status"] != "ignored" {
		t.Fatalf("expected ignored got %v", decoded["status"])
	}
}

func TestWebhookHandlersTransientFailureReturns502(t *testing.T) {
	router := newWebhookRouter(&stubReconciliationService{
		processFn: func(_ context.Context, _ services.WebhookNotification) error {
			return fmt.Errorf("%w: gateway timeout", services.ErrReconciliationUnavailable)
		},
	})

	payload := []byte(`{"type":"payment","data":{"id":"123"}}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/mercadopago", bytes.NewReader(payload))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for transient failure, got %d", resp.Code)
	}
}

func TestWebhookHandlersUnexpectedFailureReturns500(t *testing.T) {
	router := newWebhookRouter(&stubReconciliationService{
		processFn: func(_ context.Context, _ services.WebhookNotification) error {
			return errors.New("boom")
		},
	})

	payload := []byte(`{"type":"payment","data":{"id":"123"}}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/mercadopago", bytes.NewReader(payload))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
