package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Gateway  GatewayConfig
	Orders   OrderConfig
	Sweeper  SweeperConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`
}

// DatabaseConfig stores PostgreSQL connection parameters.
type DatabaseConfig struct {
	URL          string        `envconfig:"DATABASE_URL" required:"true"`
	MaxConns     int32         `envconfig:"DATABASE_MAX_CONNS" default:"8"`
	ConnLifetime time.Duration `envconfig:"DATABASE_CONN_LIFETIME" default:"30m"`
}

// GatewayConfig collects Mercado Pago credentials and callback settings.
type GatewayConfig struct {
	AccessToken     string `envconfig:"MERCADOPAGO_ACCESS_TOKEN" required:"true"`
	PublicKey       string `envconfig:"MERCADOPAGO_PUBLIC_KEY"`
	NotificationURL string `envconfig:"MERCADOPAGO_NOTIFICATION_URL"`
	SuccessURL      string `envconfig:"CHECKOUT_SUCCESS_URL"`
	FailureURL      string `envconfig:"CHECKOUT_FAILURE_URL"`
}

// OrderConfig controls order lifecycle policy values.
type OrderConfig struct {
	// RefundWindowDays bounds refund eligibility, counted from delivery when
	// the order was delivered and from creation otherwise.
	RefundWindowDays int           `envconfig:"REFUND_WINDOW_DAYS" default:"7"`
	Expiry           time.Duration `envconfig:"ORDER_EXPIRY" default:"24h"`
	NumberPrefix     string        `envconfig:"ORDER_NUMBER_PREFIX" default:"VS"`
}

// SweeperConfig controls the background expiration sweep.
type SweeperConfig struct {
	Interval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`
	Enabled  bool          `envconfig:"SWEEP_ENABLED" default:"true"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("envconfig.Process: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Database.URL) == "" {
		problems = append(problems, "DATABASE_URL")
	}
	if strings.TrimSpace(c.Gateway.AccessToken) == "" {
		problems = append(problems, "MERCADOPAGO_ACCESS_TOKEN")
	}
	if c.Orders.RefundWindowDays <= 0 {
		problems = append(problems, "REFUND_WINDOW_DAYS")
	}
	if c.Orders.Expiry <= 0 {
		problems = append(problems, "ORDER_EXPIRY")
	}
	if c.Sweeper.Interval <= 0 {
		problems = append(problems, "SWEEP_INTERVAL")
	}
	if len(problems) > 0 {
		return errors.New("config validation failed: missing or invalid fields [" + strings.Join(problems, ", ") + "]")
	}
	return nil
}

// RefundWindow returns the eligibility window as a duration.
func (c OrderConfig) RefundWindow() time.Duration {
	return time.Duration(c.RefundWindowDays) * 24 * time.Hour
}
