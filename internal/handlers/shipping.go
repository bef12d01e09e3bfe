package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vitrineshop/api/internal/platform/httpx"
	"github.com/vitrineshop/api/internal/services"
)

// ShippingHandlers exposes public shipping resolution endpoints.
type ShippingHandlers struct {
	shipping services.ShippingService
}

// NewShippingHandlers constructs shipping handlers.
func NewShippingHandlers(shipping services.ShippingService) *ShippingHandlers {
	return &ShippingHandlers{shipping: shipping}
}

// Routes registers shipping endpoints under the provided router.
func (h *ShippingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/quote", h.quote)
}

type shippingOptionResponse struct {
	RegionCode            string `json:"regionCode"`
	RegionName            string `json:"regionName"`
	Price                 string `json:"price"`
	EstimatedDays         int    `json:"estimatedDays"`
	FreeShippingThreshold string `json:"freeShippingThreshold,omitempty"`
	PickupInStore         bool   `json:"pickupInStore"`
}

func (h *ShippingHandlers) quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.shipping == nil {
		httpx.WriteError(ctx, w, httpx.NewError("shipping_unavailable", "shipping service unavailable", http.StatusServiceUnavailable))
		return
	}

	postalCode := r.URL.Query().Get("postalCode")
	options, err := h.shipping.Quote(ctx, postalCode)
	if err != nil {
		writeShippingError(w, r, err)
		return
	}

	payload := make([]shippingOptionResponse, 0, len(options))
	for _, option := range options {
		resp := shippingOptionResponse{
			RegionCode:    option.RegionCode,
			RegionName:    option.RegionName,
			Price:         option.Price.StringFixed(2),
			EstimatedDays: option.EstimatedDays,
			PickupInStore: option.PickupInStore,
		}
		if option.FreeShippingThreshold.IsPositive() {
			resp.FreeShippingThreshold = option.FreeShippingThreshold.StringFixed(2)
		}
		payload = append(payload, resp)
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"options": payload})
}

func writeShippingError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrShippingInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_postal_code", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrShippingRegionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("region_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrShippingUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("shipping_unavailable", "shipping temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
