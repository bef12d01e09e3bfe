package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/vitrineshop/api/internal/domain"
	"github.com/vitrineshop/api/internal/platform/metrics"
	"github.com/vitrineshop/api/internal/repositories"
)

const (
	sweeperActor = "sweeper"

	defaultSweepInterval = time.Hour
	defaultOrderExpiry   = 24 * time.Hour
)

// ExpirationSweeperDeps bundles collaborators required to construct the sweeper.
type ExpirationSweeperDeps struct {
	Orders   repositories.OrderRepository
	Service  OrderService
	Metrics  *metrics.Metrics
	Clock    func() time.Time
	Interval time.Duration
	Expiry   time.Duration
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

// ExpirationSweeper periodically cancels orders stuck awaiting payment past
// the expiry threshold. Each cancellation is a conditional write, so a
// payment approved between selection and write always wins the race.
type ExpirationSweeper struct {
	orders   repositories.OrderRepository
	service  OrderService
	metrics  *metrics.Metrics
	clock    func() time.Time
	interval time.Duration
	expiry   time.Duration
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewExpirationSweeper constructs the sweeper validating required dependencies.
func NewExpirationSweeper(deps ExpirationSweeperDeps) (*ExpirationSweeper, error) {
	if deps.Orders == nil {
		return nil, errors.New("expiration sweeper: order repository is required")
	}
	if deps.Service == nil {
		return nil, errors.New("expiration sweeper: order service is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	expiry := deps.Expiry
	if expiry <= 0 {
		expiry = defaultOrderExpiry
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &ExpirationSweeper{
		orders:   deps.Orders,
		service:  deps.Service,
		metrics:  deps.Metrics,
		clock:    clock,
		interval: interval,
		expiry:   expiry,
		logger:   logger,
	}, nil
}

// Run sweeps once immediately, then on every tick until the context is
// cancelled.
func (s *ExpirationSweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// SweepOnce cancels all currently expired awaiting-payment orders and returns
// how many cancellations applied. Per-order failures are logged and skipped;
// only the candidate listing itself can fail the cycle.
func (s *ExpirationSweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.clock().UTC().Add(-s.expiry)

	expired, err := s.orders.ListExpired(ctx, domain.OrderStatusAwaitingPayment, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, order := range expired {
		applied, err := s.service.ApplyTransition(ctx, TransitionCommand{
			OrderID: order.ID,
			To:      domain.OrderStatusCancelled,
			From:    []domain.OrderStatus{domain.OrderStatusAwaitingPayment},
			Actor:   sweeperActor,
			Note:    "payment window expired",
		})
		if err != nil {
			s.logger(ctx, "sweep.order.failed", map[string]any{
				"order_id": order.ID,
				"error":    err.Error(),
			})
			continue
		}
		if applied {
			cancelled++
			if s.metrics != nil {
				s.metrics.OrdersExpired.Inc()
			}
		}
	}

	return cancelled, nil
}

func (s *ExpirationSweeper) sweep(ctx context.Context) {
	cancelled, err := s.SweepOnce(ctx)
	if err != nil {
		s.logger(ctx, "sweep.failed", map[string]any{"error": err.Error()})
		return
	}
	if s.metrics != nil {
		s.metrics.SweepCycles.Inc()
	}
	s.logger(ctx, "sweep.completed", map[string]any{"cancelled": cancelled})
}
