package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vitrineshop/api/internal/platform/httpx"
	"github.com/vitrineshop/api/internal/services"
)

const maxOrderRequestBody = 8 * 1024

// OrderHandlers exposes checkout, order reads and the refund request for the
// authenticated user.
type OrderHandlers struct {
	checkout services.CheckoutService
	orders   services.OrderService
	refunds  services.RefundService
}

// NewOrderHandlers constructs order handlers.
func NewOrderHandlers(checkout services.CheckoutService, orders services.OrderService, refunds services.RefundService) *OrderHandlers {
	return &OrderHandlers{
		checkout: checkout,
		orders:   orders,
		refunds:  refunds,
	}
}

// Routes registers order endpoints under the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{orderID}", h.get)
	r.Post("/{orderID}/refund", h.requestRefund)
}

type createOrderRequest struct {
	PostalCode     string `json:"postalCode"`
	PickupInStore  bool   `json:"pickupInStore"`
	RegionCode     string `json:"regionCode"`
	ShippingAmount string `json:"shippingAmount"`
}

type checkoutResponse struct {
	Order            orderResponse `json:"order"`
	PreferenceID     string        `json:"preferenceId"`
	InitPoint        string        `json:"initPoint"`
	SandboxInitPoint string        `json:"sandboxInitPoint,omitempty"`
	PublicKey        string        `json:"publicKey,omitempty"`
}

func (h *OrderHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(r)
	if uid == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "user identity required", http.StatusUnauthorized))
		return
	}

	body, err := readLimitedBody(r, maxOrderRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req createOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	amount := decimal.Zero
	if raw := strings.TrimSpace(req.ShippingAmount); raw != "" {
		amount, err = decimal.NewFromString(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "shippingAmount must be a decimal number", http.StatusBadRequest))
			return
		}
	}

	result, err := h.checkout.Checkout(ctx, services.CheckoutCommand{
		UserID:         uid,
		PostalCode:     req.PostalCode,
		PickupInStore:  req.PickupInStore,
		RegionCode:     req.RegionCode,
		ShippingAmount: amount,
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, checkoutResponse{
		Order:            toOrderResponse(result.Order),
		PreferenceID:     result.PreferenceID,
		InitPoint:        result.InitPoint,
		SandboxInitPoint: result.SandboxInitPoint,
		PublicKey:        result.PublicKey,
	})
}

func (h *OrderHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(r)
	if uid == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "user identity required", http.StatusUnauthorized))
		return
	}

	orders, err := h.orders.ListOrdersForUser(ctx, uid)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	payload := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, toOrderResponse(order))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"orders": payload})
}

func (h *OrderHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(r)
	if uid == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "user identity required", http.StatusUnauthorized))
		return
	}

	orderID := chi.URLParam(r, "orderID")
	order, err := h.orders.GetOrderForUser(ctx, uid, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	history, err := h.orders.ListHistory(ctx, order.ID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"order":   toOrderResponse(order),
		"history": toHistoryResponse(history),
	})
}

type refundRequestBody struct {
	Reason string `json:"reason"`
}

func (h *OrderHandlers) requestRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(r)
	if uid == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "user identity required", http.StatusUnauthorized))
		return
	}

	body, err := readLimitedBody(r, maxOrderRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req refundRequestBody
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	order, err := h.refunds.Request(ctx, services.RefundRequestCommand{
		UserID:  uid,
		OrderID: chi.URLParam(r, "orderID"),
		Reason:  req.Reason,
	})
	if err != nil {
		writeRefundError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"order": toOrderResponse(order)})
}
