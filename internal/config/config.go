package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/emarastore/emara/internal/payments/webpay"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080" validate:"required,url"`

	PaymentProvider string `env:"PAYMENT_PROVIDER" envDefault:"webpay" validate:"oneof=webpay mercadopago"`

	WebpayBaseURL      string `env:"WEBPAY_BASE_URL" envDefault:"https://webpay3gint.transbank.cl" validate:"url"`
	WebpayCommerceCode string `env:"WEBPAY_COMMERCE_CODE" envDefault:"597055555532" validate:"required"`
	WebpayAPIKey       string `env:"WEBPAY_API_KEY"`

	MercadoPagoAccessToken string `env:"MERCADOPAGO_ACCESS_TOKEN"`
	MercadoPagoBaseURL     string `env:"MERCADOPAGO_BASE_URL" envDefault:"https://api.mercadopago.com" validate:"url"`

	MagentoURL        string `env:"MAGENTO_URL" validate:"omitempty,url"`
	MagentoAdminToken string `env:"MAGENTO_ADMIN_TOKEN"`

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=32"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"Emara <pedidos@emara.cl>"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	if c.PaymentProvider == "mercadopago" && strings.TrimSpace(c.MercadoPagoAccessToken) == "" {
		return fmt.Errorf("MERCADOPAGO_ACCESS_TOKEN is required when PAYMENT_PROVIDER is mercadopago")
	}

	// The sandbox API key only works against the sandbox host; anything else
	// needs explicit credentials.
	if c.PaymentProvider == "webpay" && strings.TrimSpace(c.WebpayAPIKey) == "" &&
		c.WebpayBaseURL != webpay.IntegrationBaseURL {
		return fmt.Errorf("WEBPAY_API_KEY is required outside the integration environment")
	}

	hasMagentoURL := strings.TrimSpace(c.MagentoURL) != ""
	hasMagentoToken := strings.TrimSpace(c.MagentoAdminToken) != ""
	if hasMagentoURL != hasMagentoToken {
		return fmt.Errorf("MAGENTO_URL and MAGENTO_ADMIN_TOKEN must be set together")
	}

	parsed, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil || parsed.Hostname() == "" {
		return fmt.Errorf("BASE_URL must be a valid absolute URL")
	}
	if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("BASE_URL must use https outside local development")
	}

	return nil
}

// MagentoEnabled reports whether the legacy order history proxy is
// configured.
func (c *Config) MagentoEnabled() bool {
	return strings.TrimSpace(c.MagentoURL) != ""
}

// EmailEnabled reports whether order confirmation email is configured.
func (c *Config) EmailEnabled() bool {
	return strings.TrimSpace(c.ResendAPIKey) != ""
}

// WebpayKey returns the configured API key, falling back to the published
// sandbox credentials.
func (c *Config) WebpayKey() string {
	if strings.TrimSpace(c.WebpayAPIKey) != "" {
		return c.WebpayAPIKey
	}
	return webpay.IntegrationAPIKey
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
