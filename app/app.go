package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emarastore/emara/internal/auth"
	"github.com/emarastore/emara/internal/cache"
	"github.com/emarastore/emara/internal/config"
	"github.com/emarastore/emara/internal/db"
	"github.com/emarastore/emara/internal/email"
	"github.com/emarastore/emara/internal/handlers"
	"github.com/emarastore/emara/internal/legacy"
	"github.com/emarastore/emara/internal/observability"
	"github.com/emarastore/emara/internal/payments/mercadopago"
	"github.com/emarastore/emara/internal/payments/webpay"
	"github.com/emarastore/emara/internal/services"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	tokenService, err := auth.NewService(cfg.JWTSecret)
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	productStore := db.NewProductStore(database)
	customerStore := db.NewCustomerStore(database)
	orderStore := db.NewOrderStore(database)
	adminUserStore := db.NewAdminUserStore(database)
	statsStore := db.NewStatsStore(database)

	webpayClient := webpay.NewClient(webpay.Config{
		BaseURL:      cfg.WebpayBaseURL,
		CommerceCode: cfg.WebpayCommerceCode,
		APIKey:       cfg.WebpayKey(),
	}, observability.NewHTTPClient(10*time.Second))
	mercadoPagoClient := mercadopago.NewClient(mercadopago.Config{
		BaseURL:     cfg.MercadoPagoBaseURL,
		AccessToken: cfg.MercadoPagoAccessToken,
	}, observability.NewHTTPClient(10*time.Second))

	var magentoClient *legacy.Client
	if cfg.MagentoEnabled() {
		magentoClient = legacy.NewClient(legacy.Config{
			BaseURL:    cfg.MagentoURL,
			AdminToken: cfg.MagentoAdminToken,
		}, observability.NewHTTPClient(15*time.Second))
	}

	var emailSender services.OrderEmailSender
	if cfg.EmailEnabled() {
		emailSender = services.NewProviderOrderEmailSender(
			email.NewResendProvider(cfg.ResendAPIKey, cfg.EmailFrom))
	}

	checkoutService := services.NewCheckoutService(
		productStore,
		customerStore,
		orderStore,
		logger.With("component", "checkout_service"),
	)

	// A disabled Magento client must reach the payment service as a nil
	// interface, not a typed nil pointer.
	var paymentService *services.PaymentService
	if magentoClient != nil {
		paymentService = services.NewPaymentService(orderStore, cfg.PaymentProvider,
			webpayClient, mercadoPagoClient, cacheProvider, emailSender, magentoClient,
			cfg.BaseURL, logger.With("component", "payment_service"))
	} else {
		paymentService = services.NewPaymentService(orderStore, cfg.PaymentProvider,
			webpayClient, mercadoPagoClient, cacheProvider, emailSender, nil,
			cfg.BaseURL, logger.With("component", "payment_service"))
	}

	adminService := services.NewAdminService(
		productStore,
		orderStore,
		adminUserStore,
		statsStore,
		tokenService,
		logger.With("component", "admin_service"),
	)

	var historyService *services.HistoryService
	if magentoClient != nil {
		historyService = services.NewHistoryService(magentoClient, logger.With("component", "history_service"))
	}

	h, err := handlers.New(handlers.Dependencies{
		Config:          cfg,
		ProductStore:    productStore,
		CacheProvider:   cacheProvider,
		CheckoutService: checkoutService,
		PaymentService:  paymentService,
		AdminService:    adminService,
		HistoryService:  historyService,
		Logger:          logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	case "text", "":
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel}))
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
