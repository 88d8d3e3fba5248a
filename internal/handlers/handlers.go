package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/emarastore/emara/internal/cache"
	"github.com/emarastore/emara/internal/config"
	"github.com/emarastore/emara/internal/db"
	"github.com/emarastore/emara/internal/logging"
	"github.com/emarastore/emara/internal/services"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Handlers provides the HTTP surface: storefront API, payment callbacks and
// the admin panel API.
type Handlers struct {
	config          *config.Config
	productStore    *db.ProductStore
	cacheProvider   cache.Provider
	checkoutService *services.CheckoutService
	paymentService  *services.PaymentService
	adminService    *services.AdminService
	historyService  *services.HistoryService
	logger          *slog.Logger
}

type Dependencies struct {
	Config          *config.Config
	ProductStore    *db.ProductStore
	CacheProvider   cache.Provider
	CheckoutService *services.CheckoutService
	PaymentService  *services.PaymentService
	AdminService    *services.AdminService
	HistoryService  *services.HistoryService
	Logger          *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.ProductStore == nil {
		return nil, fmt.Errorf("handlers dependencies: productStore is required")
	}
	if deps.CacheProvider == nil {
		return nil, fmt.Errorf("handlers dependencies: cacheProvider is required")
	}
	if deps.CheckoutService == nil {
		return nil, fmt.Errorf("handlers dependencies: checkoutService is required")
	}
	if deps.PaymentService == nil {
		return nil, fmt.Errorf("handlers dependencies: paymentService is required")
	}
	if deps.AdminService == nil {
		return nil, fmt.Errorf("handlers dependencies: adminService is required")
	}

	return &Handlers{
		config:          deps.Config,
		productStore:    deps.ProductStore,
		cacheProvider:   deps.CacheProvider,
		checkoutService: deps.CheckoutService,
		paymentService:  deps.PaymentService,
		adminService:    deps.AdminService,
		historyService:  deps.HistoryService,
		logger:          logger,
	}, nil
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

// Health responds to load balancer probes.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logging.FromContext(r.Context(), nil).Debug("rejecting malformed body", "error", err)
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
