package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/vitrineshop/api/internal/domain"
	"github.com/vitrineshop/api/internal/payments"
	"github.com/vitrineshop/api/internal/platform/metrics"
)

const gatewayActor = "gateway"

// Webhook processing outcomes, used as metric labels.
const (
	webhookOutcomeApplied   = "applied"
	webhookOutcomeNoop      = "noop"
	webhookOutcomeIgnored   = "ignored"
	webhookOutcomeMalformed = "malformed"
	webhookOutcomeError     = "error"
)

// ErrReconciliationUnavailable marks a transient infrastructure failure. The
// webhook handler surfaces it as a 5xx so the gateway's own retry mechanism
// redelivers; everything else is acknowledged.
var ErrReconciliationUnavailable = errors.New("reconciliation: unavailable")

// gatewayTransitionSources lists, per gateway-driven target status, the
// source statuses the order must still be in for the write to apply.
var gatewayTransitionSources = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPaid:      {domain.OrderStatusAwaitingPayment},
	domain.OrderStatusCancelled: {domain.OrderStatusAwaitingPayment},
	domain.OrderStatusRefunded: {
		domain.OrderStatusAwaitingPayment,
		domain.OrderStatusPaid,
		domain.OrderStatusInProduction,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
	},
}

// pendingGatewayStatuses are gateway states that intentionally leave the
// order untouched.
var pendingGatewayStatuses = map[string]bool{
	"pending":                    true,
	"in_process":                 true,
	"in_mediation":               true,
	"authorized_pending_capture": true,
}

// mapGatewayStatus translates the gateway's status vocabulary into the
// internal target status. The second return is false when the notification
// should not change the order (still pending, or unrecognised vocabulary —
// the latter is treated as still-pending rather than dropped).
func mapGatewayStatus(raw string) (domain.OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "authorized":
		return domain.OrderStatusPaid, true
	case "cancelled", "rejected", "expired":
		return domain.OrderStatusCancelled, true
	case "refunded", "charged_back":
		return domain.OrderStatusRefunded, true
	default:
		return "", false
	}
}

// ReconciliationServiceDeps bundles collaborators required to construct the reconciliation service.
type ReconciliationServiceDeps struct {
	Orders   OrderService
	Provider payments.Provider
	Metrics  *metrics.Metrics
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type reconciliationService struct {
	orders   OrderService
	provider payments.Provider
	metrics  *metrics.Metrics
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewReconciliationService constructs a ReconciliationService validating required dependencies.
func NewReconciliationService(deps ReconciliationServiceDeps) (ReconciliationService, error) {
	if deps.Orders == nil {
		return nil, errors.New("reconciliation service: order service is required")
	}
	if deps.Provider == nil {
		return nil, errors.New("reconciliation service: payment provider is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &reconciliationService{
		orders:   deps.Orders,
		provider: deps.Provider,
		metrics:  deps.Metrics,
		logger:   logger,
	}, nil
}

// ProcessNotification reconciles one gateway notification into local order
// state. The webhook body's own status is never trusted: the payment is
// re-fetched from the gateway by id, mapped through the fixed status table
// and applied as a conditional transition. Repeated or reordered deliveries
// converge to the same final state.
func (s *reconciliationService) ProcessNotification(ctx context.Context, note WebhookNotification) error {
	if eventType := strings.ToLower(strings.TrimSpace(note.EventType)); eventType != "" && eventType != "payment" {
		s.observe(webhookOutcomeIgnored)
		return nil
	}

	paymentID := strings.TrimSpace(note.PaymentID)
	if paymentID == "" {
		s.logger(ctx, "webhook.malformed", map[string]any{"reason": "missing payment id"})
		s.observe(webhookOutcomeMalformed)
		return nil
	}

	details, err := s.provider.LookupPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidPaymentID) {
			s.logger(ctx, "webhook.malformed", map[string]any{"payment_id": paymentID})
			s.observe(webhookOutcomeMalformed)
			return nil
		}
		s.observe(webhookOutcomeError)
		return fmt.Errorf("%w: payment lookup: %v", ErrReconciliationUnavailable, err)
	}

	orderID := strings.TrimSpace(details.ExternalReference)
	if orderID == "" {
		s.logger(ctx, "webhook.dropped", map[string]any{
			"payment_id": paymentID,
			"reason":     "no external reference",
		})
		s.observe(webhookOutcomeMalformed)
		return nil
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrOrderInvalidInput):
			s.logger(ctx, "webhook.dropped", map[string]any{
				"payment_id": paymentID,
				"order_id":   orderID,
				"reason":     "unknown order",
			})
			s.observe(webhookOutcomeMalformed)
			return nil
		default:
			s.observe(webhookOutcomeError)
			return fmt.Errorf("%w: order lookup: %v", ErrReconciliationUnavailable, err)
		}
	}

	target, apply := mapGatewayStatus(details.Status)
	if !apply {
		if !pendingGatewayStatuses[strings.ToLower(strings.TrimSpace(details.Status))] {
			s.logger(ctx, "webhook.status.unrecognized", map[string]any{
				"payment_id": paymentID,
				"order_id":   order.ID,
				"status":     details.Status,
			})
		}
		s.observe(webhookOutcomeNoop)
		return nil
	}

	applied, err := s.orders.ApplyTransition(ctx, TransitionCommand{
		OrderID: order.ID,
		To:      target,
		From:    gatewayTransitionSources[target],
		Actor:   gatewayActor,
		Note:    fmt.Sprintf("payment %s reported %s", paymentID, details.Status),
	})
	if err != nil {
		s.observe(webhookOutcomeError)
		return fmt.Errorf("%w: apply transition: %v", ErrReconciliationUnavailable, err)
	}

	if applied {
		s.observe(webhookOutcomeApplied)
	} else {
		// Order already moved past the source set; a repeated or late
		// delivery lands here as an idempotent no-op.
		s.observe(webhookOutcomeNoop)
	}

	s.logger(ctx, "webhook.processed", map[string]any{
		"payment_id": paymentID,
		"order_id":   order.ID,
		"status":     details.Status,
		"applied":    applied,
	})

	return nil
}

func (s *reconciliationService) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.WebhooksProcessed.WithLabelValues(outcome).Inc()
	}
}
