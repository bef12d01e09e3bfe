package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/vitrineshop/api/internal/domain"
	"github.com/vitrineshop/api/internal/platform/httpx"
	"github.com/vitrineshop/api/internal/services"
)

// AdminOrderHandlers exposes status overrides and refund decisions.
type AdminOrderHandlers struct {
	orders  services.OrderService
	refunds services.RefundService
}

// NewAdminOrderHandlers constructs admin order handlers.
func NewAdminOrderHandlers(orders services.OrderService, refunds services.RefundService) *AdminOrderHandlers {
	return &AdminOrderHandlers{orders: orders, refunds: refunds}
}

// Routes registers admin order endpoints under the provided router.
func (h *AdminOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/orders/{orderID}/status", h.setStatus)
	r.Post("/orders/{orderID}/refund/approve", h.approveRefund)
	r.Post("/orders/{orderID}/refund/reject", h.rejectRefund)
}

type adminStatusRequest struct {
	Status          string  `json:"status"`
	Note            string  `json:"note"`
	TrackingCode    *string `json:"trackingCode"`
	TrackingCarrier *string `json:"trackingCarrier"`
}

func (h *AdminOrderHandlers) setStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	aid := adminID(r)
	if aid == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "admin identity required", http.StatusUnauthorized))
		return
	}

	body, err := readLimitedBody(r, maxOrderRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req adminStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.AdminSetStatus(ctx, services.AdminStatusCommand{
		OrderID:         chi.URLParam(r, "orderID"),
		AdminID:         aid,
		Status:          domain.OrderStatus(strings.TrimSpace(req.Status)),
		Note:            req.Note,
		TrackingCode:    req.TrackingCode,
		TrackingCarrier: req.TrackingCarrier,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"order": toOrderResponse(order)})
}

type refundDecisionRequest struct {
	Note string `json:"note"`
}

func (h *AdminOrderHandlers) approveRefund(w http.ResponseWriter, r *http.Request) {
	h.decideRefund(w, r, h.refunds.Approve)
}

func (h *AdminOrderHandlers) rejectRefund(w http.ResponseWriter, r *http.Request) {
	h.decideRefund(w, r, h.refunds.Reject)
}

func (h *AdminOrderHandlers) decideRefund(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, cmd services.RefundDecisionCommand) (services.Order, error)) {
	ctx := r.Context()
	aid := adminID(r)
	if aid == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "admin identity required", http.StatusUnauthorized))
		return
	}

	var req refundDecisionRequest
	body, err := readLimitedBody(r, maxOrderRequestBody)
	switch {
	case err == nil:
		if err := json.Unmarshal(body, &req); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
			return
		}
	case errors.Is(err, errEmptyBody):
		// A bare decision without a note is fine.
	default:
		writeBodyError(ctx, w, err)
		return
	}

	order, err := decide(ctx, services.RefundDecisionCommand{
		OrderID: chi.URLParam(r, "orderID"),
		AdminID: aid,
		Note:    req.Note,
	})
	if err != nil {
		writeRefundError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"order": toOrderResponse(order)})
}
