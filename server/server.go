package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/emarastore/emara/internal/config"
	"github.com/emarastore/emara/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	// Storefront API
	r.HandleFunc("/api/products", h.ListProducts).Methods("GET").Name("products.list")
	r.HandleFunc("/api/products/{sku}", h.GetProduct).Methods("GET").Name("products.get")
	r.HandleFunc("/api/checkout", h.Checkout).Methods("POST").Name("checkout")
	r.HandleFunc("/api/orders/history", h.OrderHistory).Methods("GET").Name("orders.history")

	// Payment flow. The gateway redirects the buyer back with either a form
	// POST or a query string, so the commit endpoint takes both methods.
	r.HandleFunc("/api/payments/create", h.CreatePayment).Methods("POST").Name("payments.create")
	r.HandleFunc("/api/payments/webpay/commit", h.WebpayCommit).Methods("GET", "POST").Name("payments.webpay.commit")
	r.HandleFunc("/webhooks/mercadopago", h.MercadoPagoWebhook).Methods("POST").Name("webhooks.mercadopago")

	// Public admin routes - must be registered before the protected subrouter
	r.HandleFunc("/api/admin/login", h.AdminLogin).Methods("POST").Name("admin.login")

	// Protected admin routes - require a bearer token
	adminRouter := r.PathPrefix("/api/admin").Subrouter()
	adminRouter.Use(h.RequireAdmin)
	adminRouter.HandleFunc("/verify", h.AdminVerify).Methods("GET").Name("admin.verify")
	adminRouter.HandleFunc("/products", h.AdminListProducts).Methods("GET").Name("admin.products.list")
	adminRouter.HandleFunc("/products", h.AdminCreateProduct).Methods("POST").Name("admin.products.create")
	adminRouter.HandleFunc("/products/{id}", h.AdminGetProduct).Methods("GET").Name("admin.products.get")
	adminRouter.HandleFunc("/products/{id}", h.AdminUpdateProduct).Methods("PUT").Name("admin.products.update")
	adminRouter.HandleFunc("/products/{id}", h.AdminDeleteProduct).Methods("DELETE").Name("admin.products.delete")
	adminRouter.HandleFunc("/orders", h.AdminListOrders).Methods("GET").Name("admin.orders.list")
	adminRouter.HandleFunc("/orders/{id}", h.AdminGetOrder).Methods("GET").Name("admin.orders.get")
	adminRouter.HandleFunc("/orders/{id}/status", h.AdminUpdateOrderStatus).Methods("PATCH").Name("admin.orders.status")
	adminRouter.HandleFunc("/stats", h.AdminStats).Methods("GET").Name("admin.stats")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	return r
}
