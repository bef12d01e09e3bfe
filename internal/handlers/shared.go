package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/vitrineshop/api/internal/domain"
)

const (
	defaultMaxRequestBody = 8 * 1024

	userIDHeader  = "X-User-Id"
	adminIDHeader = "X-Admin-Id"
)

var (
	errBodyTooLarge = errors.New("request body too large")
	errEmptyBody    = errors.New("request body is required")
)

// userID reads the identity the upstream gateway attached to the request.
func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(userIDHeader))
}

func adminID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(adminIDHeader))
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = defaultMaxRequestBody
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type shippingSnapshotResponse struct {
	RegionCode    string `json:"regionCode"`
	RegionName    string `json:"regionName"`
	EstimatedDays int    `json:"estimatedDays"`
	PickupInStore bool   `json:"pickupInStore"`
}

type refundResponse struct {
	Status      string  `json:"status"`
	Reason      string  `json:"reason,omitempty"`
	Note        string  `json:"note,omitempty"`
	RequestedAt *string `json:"requestedAt,omitempty"`
	ProcessedAt *string `json:"processedAt,omitempty"`
}

type orderItemResponse struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	UnitPrice    string `json:"unitPrice"`
	Quantity     int    `json:"quantity"`
	LineSubtotal string `json:"lineSubtotal"`
}

type orderResponse struct {
	ID              string                   `json:"id"`
	OrderNumber     string                   `json:"orderNumber"`
	Status          string                   `json:"status"`
	Subtotal        string                   `json:"subtotal"`
	ShippingAmount  string                   `json:"shippingAmount"`
	Total           string                   `json:"total"`
	Shipping        shippingSnapshotResponse `json:"shipping"`
	Refund          refundResponse           `json:"refund"`
	Items           []orderItemResponse      `json:"items"`
	TrackingCode    *string                  `json:"trackingCode,omitempty"`
	TrackingCarrier *string                  `json:"trackingCarrier,omitempty"`
	CreatedAt       string                   `json:"createdAt"`
	PaidAt          *string                  `json:"paidAt,omitempty"`
	DeliveredAt     *string                  `json:"deliveredAt,omitempty"`
}

type historyEntryResponse struct {
	Status    string `json:"status"`
	Actor     string `json:"actor"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         string(order.Status),
		Subtotal:       order.Subtotal.StringFixed(2),
		ShippingAmount: order.ShippingAmount.StringFixed(2),
		Total:          order.Total.StringFixed(2),
		Shipping: shippingSnapshotResponse{
			RegionCode:    order.Shipping.RegionCode,
			RegionName:    order.Shipping.RegionName,
			EstimatedDays: order.Shipping.EstimatedDays,
			PickupInStore: order.Shipping.PickupInStore,
		},
		Refund: refundResponse{
			Status:      string(order.Refund.Status),
			Reason:      order.Refund.Reason,
			Note:        order.Refund.Note,
			RequestedAt: formatTimePtr(order.Refund.RequestedAt),
			ProcessedAt: formatTimePtr(order.Refund.ProcessedAt),
		},
		TrackingCode:    order.TrackingCode,
		TrackingCarrier: order.TrackingCarrier,
		CreatedAt:       order.CreatedAt.UTC().Format(time.RFC3339),
		PaidAt:          formatTimePtr(order.PaidAt),
		DeliveredAt:     formatTimePtr(order.DeliveredAt),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			UnitPrice:    item.UnitPrice.StringFixed(2),
			Quantity:     item.Quantity,
			LineSubtotal: item.LineSubtotal.StringFixed(2),
		})
	}
	return resp
}

func toHistoryResponse(entries []domain.StatusHistoryEntry) []historyEntryResponse {
	out := make([]historyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, historyEntryResponse{
			Status:    string(entry.Status),
			Actor:     entry.Actor,
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}
