package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type AppConfig struct {
	Port string
}

type OrderServiceConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	SubmitTimeout  time.Duration
}

type PricingConfig struct {
	// FallbackTaxRate is a percentage of the subtotal, used only to preview
	// tax before the remote service has priced the order.
	FallbackTaxRate decimal.Decimal
}

type Config struct {
	App          AppConfig
	OrderService OrderServiceConfig
	Pricing      PricingConfig
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. A missing .env is fine; a malformed value is not.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
		}
	}

	cfg := &Config{}
	cfg.App.Port = getenv("APP_PORT", "8080")

	cfg.OrderService.BaseURL = os.Getenv("ORDER_SERVICE_URL")
	if cfg.OrderService.BaseURL == "" {
		return nil, fmt.Errorf("config: ORDER_SERVICE_URL is required")
	}

	var err error
	cfg.OrderService.RequestTimeout, err = getduration("ORDER_SERVICE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.OrderService.SubmitTimeout, err = getduration("ORDER_SERVICE_SUBMIT_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	rate := getenv("FALLBACK_TAX_RATE", "8.25")
	cfg.Pricing.FallbackTaxRate, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("config: invalid FALLBACK_TAX_RATE %q: %w", rate, err)
	}
	if cfg.Pricing.FallbackTaxRate.IsNegative() {
		return nil, fmt.Errorf("config: FALLBACK_TAX_RATE must be non-negative, got %s", rate)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
