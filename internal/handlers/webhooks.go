package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vitrineshop/api/internal/platform/httpx"
	"github.com/vitrineshop/api/internal/services"
)

const maxWebhookBody = 64 * 1024

// WebhookHandlers receives payment gateway notifications.
type WebhookHandlers struct {
	reconciliation services.ReconciliationService
}

// NewWebhookHandlers constructs webhook handlers.
func NewWebhookHandlers(reconciliation services.ReconciliationService) *WebhookHandlers {
	return &WebhookHandlers{reconciliation: reconciliation}
}

// Routes registers webhook endpoints under the provided router.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/payments/mercadopago", h.paymentNotification)
}

// mercadoPagoNotification covers both the webhook body shape
// {"type":"payment","data":{"id":"…"}} and the legacy IPN query parameters
// (?topic=payment&id=…).
type mercadoPagoNotification struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Data  struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// paymentNotification acknowledges everything it can classify: malformed
// payloads are dropped with a 200 so the gateway stops redelivering them,
// while transient infrastructure failures return a 5xx so the gateway's
// retry mechanism redelivers the notification.
func (h *WebhookHandlers) paymentNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	note := services.WebhookNotification{
		EventType: r.URL.Query().Get("topic"),
		PaymentID: r.URL.Query().Get("id"),
	}

	body, err := readLimitedBody(r, maxWebhookBody)
	if err == nil {
		var parsed mercadoPagoNotification
		if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
			// Unparseable body: acknowledge and drop.
			writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ignored"})
			return
		}
		if eventType := firstNonEmpty(parsed.Type, parsed.Topic); eventType != "" {
			note.EventType = eventType
		}
		if id := parsed.Data.ID.String(); id != "" {
			note.PaymentID = id
		}
	} else if !errors.Is(err, errEmptyBody) {
		writeBodyError(ctx, w, err)
		return
	}

	if err := h.reconciliation.ProcessNotification(ctx, note); err != nil {
		if errors.Is(err, services.ErrReconciliationUnavailable) {
			httpx.WriteError(ctx, w, httpx.NewError("reconciliation_unavailable", "temporarily unable to reconcile, retry", http.StatusBadGateway))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
