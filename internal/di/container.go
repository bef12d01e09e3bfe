package di

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vitrineshop/api/internal/payments"
	"github.com/vitrineshop/api/internal/platform/config"
	"github.com/vitrineshop/api/internal/platform/metrics"
	pg "github.com/vitrineshop/api/internal/platform/postgres"
	postgresrepo "github.com/vitrineshop/api/internal/repositories/postgres"
	"github.com/vitrineshop/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Shipping       services.ShippingService
	Orders         services.OrderService
	Checkout       services.CheckoutService
	Reconciliation services.ReconciliationService
	Refunds        services.RefundService
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config   *config.Config
	Pool     *pgxpool.Pool
	Metrics  *metrics.Metrics
	Services Services
	Sweeper  *services.ExpirationSweeper
}

// NewContainer constructs the runtime dependencies from configuration.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("build connection pool: %w", err)
	}

	provider, err := payments.NewMercadoPagoProvider(payments.MercadoPagoOptions{
		AccessToken:     cfg.Gateway.AccessToken,
		NotificationURL: cfg.Gateway.NotificationURL,
		SuccessURL:      cfg.Gateway.SuccessURL,
		FailureURL:      cfg.Gateway.FailureURL,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build payment provider: %w", err)
	}

	m := metrics.New()

	unitOfWork := postgresrepo.NewUnitOfWork(pool)
	orderRepo := postgresrepo.NewOrderRepository(pool)
	cartRepo := postgresrepo.NewCartRepository(pool)
	regionRepo := postgresrepo.NewShippingRegionRepository(pool)
	historyRepo := postgresrepo.NewStatusHistoryRepository(pool)
	counterRepo := postgresrepo.NewCounterRepository(pool)
	userRepo := postgresrepo.NewUserRepository(pool)

	shippingSvc, err := services.NewShippingService(services.ShippingServiceDeps{
		Regions: regionRepo,
		Logger:  eventLogger(logger.Named("shipping")),
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build shipping service: %w", err)
	}

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:            orderRepo,
		Carts:             cartRepo,
		Users:             userRepo,
		Counters:          counterRepo,
		History:           historyRepo,
		Shipping:          shippingSvc,
		UnitOfWork:        unitOfWork,
		Metrics:           m,
		OrderNumberPrefix: cfg.Orders.NumberPrefix,
		Logger:            eventLogger(logger.Named("orders")),
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build order service: %w", err)
	}

	checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Orders:    orderSvc,
		Provider:  provider,
		PublicKey: cfg.Gateway.PublicKey,
		Logger:    eventLogger(logger.Named("checkout")),
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build checkout service: %w", err)
	}

	reconciliationSvc, err := services.NewReconciliationService(services.ReconciliationServiceDeps{
		Orders:   orderSvc,
		Provider: provider,
		Metrics:  m,
		Logger:   eventLogger(logger.Named("reconciliation")),
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build reconciliation service: %w", err)
	}

	refundSvc, err := services.NewRefundService(services.RefundServiceDeps{
		Repo:       orderRepo,
		Orders:     orderSvc,
		History:    historyRepo,
		UnitOfWork: unitOfWork,
		Window:     cfg.Orders.RefundWindow(),
		Logger:     eventLogger(logger.Named("refunds")),
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build refund service: %w", err)
	}

	sweeper, err := services.NewExpirationSweeper(services.ExpirationSweeperDeps{
		Orders:   orderRepo,
		Service:  orderSvc,
		Metrics:  m,
		Interval: cfg.Sweeper.Interval,
		Expiry:   cfg.Orders.Expiry,
		Logger:   eventLogger(logger.Named("sweeper")),
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build expiration sweeper: %w", err)
	}

	return &Container{
		Config:  cfg,
		Pool:    pool,
		Metrics: m,
		Services: Services{
			Shipping:       shippingSvc,
			Orders:         orderSvc,
			Checkout:       checkoutSvc,
			Reconciliation: reconciliationSvc,
			Refunds:        refundSvc,
		},
		Sweeper: sweeper,
	}, nil
}

// Close releases the connection pool.
func (c *Container) Close() {
	if c == nil || c.Pool == nil {
		return
	}
	c.Pool.Close()
}

func eventLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Info(event, zFields...)
	}
}
