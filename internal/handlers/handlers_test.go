package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/emarastore/emara/internal/auth"
	"github.com/emarastore/emara/internal/cache"
	"github.com/emarastore/emara/internal/config"
	"github.com/emarastore/emara/internal/db"
	"github.com/emarastore/emara/internal/models"
	"github.com/emarastore/emara/internal/payments/mercadopago"
	"github.com/emarastore/emara/internal/payments/webpay"
	"github.com/emarastore/emara/internal/services"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

type stubProductStore struct{}

func (stubProductStore) List(context.Context, db.ProductFilter) ([]*db.Product, int, error) {
	return nil, 0, nil
}
func (stubProductStore) GetByID(context.Context, uuid.UUID) (*db.Product, error) {
	return nil, db.ErrNotFound
}
func (stubProductStore) Create(context.Context, *db.Product) error { return nil }
func (stubProductStore) Update(context.Context, *db.Product) error { return nil }
func (stubProductStore) Delete(context.Context, uuid.UUID) error   { return nil }

type stubOrderStore struct {
	orders map[uuid.UUID]*db.Order
}

func (s *stubOrderStore) List(context.Context, db.OrderFilter) ([]*db.Order, int, error) {
	return nil, 0, nil
}

func (s *stubOrderStore) GetByID(_ context.Context, orderID uuid.UUID) (*db.Order, error) {
	if o, ok := s.orders[orderID]; ok {
		return o, nil
	}
	return nil, db.ErrNotFound
}

func (s *stubOrderStore) GetByOrderNumber(_ context.Context, orderNumber string) (*db.Order, error) {
	for _, o := range s.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *stubOrderStore) ItemsByOrder(context.Context, uuid.UUID) ([]db.OrderItem, error) {
	return nil, nil
}

func (s *stubOrderStore) RecordPaymentResult(_ context.Context, orderID uuid.UUID, result db.PaymentResult) error {
	order, ok := s.orders[orderID]
	if !ok {
		return db.ErrNotFound
	}
	order.PaymentStatus = result.PaymentStatus
	order.Status = result.Status
	order.PaymentMethod = result.PaymentMethod
	return nil
}

func (s *stubOrderStore) UpdateFulfillmentStatus(context.Context, uuid.UUID, models.FulfillmentStatus) error {
	return nil
}

type stubAdminUserStore struct {
	users map[string]*db.AdminUser
}

func (s *stubAdminUserStore) GetByEmail(_ context.Context, email string) (*db.AdminUser, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, db.ErrNotFound
}

type stubStatsStore struct{}

func (stubStatsStore) Dashboard(context.Context) (*db.DashboardStats, error) {
	return &db.DashboardStats{}, nil
}

type stubWebpayGateway struct {
	commitResp *webpay.CommitResponse
}

func (g *stubWebpayGateway) Create(context.Context, string, string, int, string) (*webpay.CreateResponse, error) {
	return &webpay.CreateResponse{Token: "tok-1", URL: "https://gateway/init"}, nil
}

func (g *stubWebpayGateway) Commit(context.Context, string) (*webpay.CommitResponse, error) {
	return g.commitResp, nil
}

type stubMercadoPagoGateway struct{}

func (stubMercadoPagoGateway) CreatePreference(context.Context, mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	return &mercadopago.Preference{InitPoint: "https://mp/redirect"}, nil
}

func (stubMercadoPagoGateway) GetPayment(context.Context, string) (*mercadopago.Payment, error) {
	return &mercadopago.Payment{}, nil
}

type testEnv struct {
	handlers *Handlers
	orders   *stubOrderStore
	tokens   *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewService(testJWTSecret)
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}

	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	users := &stubAdminUserStore{users: map[string]*db.AdminUser{
		"admin@emara.cl": {ID: uuid.New(), Email: "admin@emara.cl", Name: "Admin", PasswordHash: hash, Role: "admin", Active: true},
	}}

	order := &db.Order{
		ID:            uuid.New(),
		OrderNumber:   "EMR-1700000000000-ab12",
		Status:        db.StatusPending,
		PaymentStatus: db.PaymentPending,
		Total:         27790,
	}
	orders := &stubOrderStore{orders: map[uuid.UUID]*db.Order{order.ID: order}}

	commit := &webpay.CommitResponse{
		BuyOrder:        order.OrderNumber,
		ResponseCode:    0,
		PaymentTypeCode: "VD",
		TransactionDate: time.Now(),
	}
	paymentService := services.NewPaymentService(orders, "webpay",
		&stubWebpayGateway{commitResp: commit}, stubMercadoPagoGateway{},
		nil, nil, nil, "https://emara.cl", logger)

	adminService := services.NewAdminService(stubProductStore{}, orders, users, stubStatsStore{}, tokens, logger)
	checkoutService := services.NewCheckoutService(nil, nil, nil, logger)

	cacheProvider, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatalf("cache.NewMemoryProvider: %v", err)
	}

	h, err := New(Dependencies{
		Config:          &config.Config{BaseURL: "https://emara.cl"},
		ProductStore:    db.NewProductStore(nil),
		CacheProvider:   cacheProvider,
		CheckoutService: checkoutService,
		PaymentService:  paymentService,
		AdminService:    adminService,
		Logger:          logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testEnv{handlers: h, orders: orders, tokens: tokens}
}

func TestRequireAdminRejectsMissingToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run without a token")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	env.handlers.RequireAdmin(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAdminRejectsBadToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run with a bad token")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	env.handlers.RequireAdmin(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAdminPassesClaims(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	token, err := env.tokens.IssueToken("user-1", "admin@emara.cl", "admin")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	var sawClaims bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.Email != "admin@emara.cl" {
			t.Errorf("claims = %+v", claims)
		}
		sawClaims = true
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	env.handlers.RequireAdmin(next).ServeHTTP(rec, req)

	if !sawClaims {
		t.Error("next handler never ran")
	}
}

func TestAdminLogin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login",
		strings.NewReader(`{"email":"admin@emara.cl","password":"correct-horse"}`))
	env.handlers.AdminLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, err := env.tokens.VerifyToken(body.Token); err != nil {
		t.Errorf("issued token does not verify: %v", err)
	}
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login",
		strings.NewReader(`{"email":"admin@emara.cl","password":"wrong"}`))
	env.handlers.AdminLogin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestWebpayCommitAcceptsFormToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	form := url.Values{"token_ws": {"tok-1"}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webpay/commit",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	env.handlers.WebpayCommit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	for _, order := range env.orders.orders {
		if order.PaymentStatus != db.PaymentPaid {
			t.Errorf("order payment status = %s, want paid", order.PaymentStatus)
		}
	}
}

func TestWebpayCommitAcceptsQueryToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/payments/webpay/commit?token_ws=tok-1", nil)
	env.handlers.WebpayCommit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestWebpayCommitAbortedFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/payments/webpay/commit?TBK_ORDEN_COMPRA=EMR-1700000000000-ab12&TBK_ID_SESION=s1", nil)
	env.handlers.WebpayCommit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "aborted" {
		t.Errorf("status = %q, want aborted", body.Status)
	}
	for _, order := range env.orders.orders {
		if order.PaymentStatus != db.PaymentPending {
			t.Errorf("aborted flow changed payment status to %s", order.PaymentStatus)
		}
	}
}

func TestWebpayCommitRequiresToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/payments/webpay/commit", nil)
	env.handlers.WebpayCommit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMercadoPagoWebhookIgnoresNonPayment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago",
		strings.NewReader(`{"type":"merchant_order","data":{"id":"123"}}`))
	env.handlers.MercadoPagoWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMercadoPagoWebhookRejectsBadBody(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago", strings.NewReader("{"))
	env.handlers.MercadoPagoWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	env.handlers.SecurityHeaders(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
