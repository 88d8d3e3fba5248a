package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/emarastore/emara/internal/auth"
	"github.com/emarastore/emara/internal/db"
	"github.com/emarastore/emara/internal/logging"
	"github.com/emarastore/emara/internal/models"
)

type adminProductStore interface {
	List(ctx context.Context, filter db.ProductFilter) ([]*db.Product, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db.Product, error)
	Create(ctx context.Context, p *db.Product) error
	Update(ctx context.Context, p *db.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type adminOrderStore interface {
	List(ctx context.Context, filter db.OrderFilter) ([]*db.Order, int, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*db.Order, error)
	ItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]db.OrderItem, error)
	UpdateFulfillmentStatus(ctx context.Context, orderID uuid.UUID, status models.FulfillmentStatus) error
}

type adminUserStore interface {
	GetByEmail(ctx context.Context, email string) (*db.AdminUser, error)
}

type statsStore interface {
	Dashboard(ctx context.Context) (*db.DashboardStats, error)
}

type AdminService struct {
	products adminProductStore
	orders   adminOrderStore
	users    adminUserStore
	stats    statsStore
	tokens   *auth.Service
	logger   *slog.Logger
}

func NewAdminService(products adminProductStore, orders adminOrderStore, users adminUserStore, stats statsStore, tokens *auth.Service, logger *slog.Logger) *AdminService {
	return &AdminService{
		products: products,
		orders:   orders,
		users:    users,
		stats:    stats,
		tokens:   tokens,
		logger:   logger,
	}
}

func (s *AdminService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Login checks credentials against admin_users and issues a bearer token.
// All failure modes collapse to ErrInvalidCredentials.
func (s *AdminService) Login(ctx context.Context, email, password string) (string, *db.AdminUser, error) {
	logger := s.loggerFromContext(ctx)

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load admin user: %w", err)
	}
	if !user.Active {
		logger.Warn("login attempt for inactive admin", "email", user.Email)
		return "", nil, ErrInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	logger.Info("admin logged in", "email", user.Email)
	return token, user, nil
}

// VerifyToken exposes token verification to the auth middleware.
func (s *AdminService) VerifyToken(token string) (*auth.Claims, error) {
	return s.tokens.VerifyToken(token)
}

func (s *AdminService) ListProducts(ctx context.Context, filter db.ProductFilter) ([]*db.Product, int, error) {
	return s.products.List(ctx, filter)
}

func (s *AdminService) GetProduct(ctx context.Context, id uuid.UUID) (*db.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

func (s *AdminService) CreateProduct(ctx context.Context, product *db.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	err := s.products.Create(ctx, product)
	if errors.Is(err, db.ErrSKUTaken) {
		return UserError{Message: fmt.Sprintf("SKU %s is already in use", product.SKU)}
	}
	return err
}

// UpdateProduct rejects SKU changes that collide with another product and
// leaves the stored row untouched in that case.
func (s *AdminService) UpdateProduct(ctx context.Context, product *db.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	err := s.products.Update(ctx, product)
	if errors.Is(err, db.ErrSKUTaken) {
		return UserError{Message: fmt.Sprintf("SKU %s is already in use", product.SKU)}
	}
	if errors.Is(err, db.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func (s *AdminService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func validateProduct(product *db.Product) error {
	if strings.TrimSpace(product.SKU) == "" {
		return UserError{Message: "SKU is required"}
	}
	if strings.TrimSpace(product.Name) == "" {
		return UserError{Message: "Name is required"}
	}
	if product.Price <= 0 {
		return UserError{Message: "Price must be positive"}
	}
	if product.SalePrice < 0 || (product.SalePrice > 0 && product.SalePrice >= product.Price) {
		return UserError{Message: "Sale price must be below the regular price"}
	}
	if product.Stock < 0 {
		return UserError{Message: "Stock cannot be negative"}
	}
	return nil
}

func (s *AdminService) ListOrders(ctx context.Context, filter db.OrderFilter) ([]*db.Order, int, error) {
	return s.orders.List(ctx, filter)
}

// OrderDetail is an order with its customer-facing lines attached.
type OrderDetail struct {
	Order *db.Order      `json:"order"`
	Items []db.OrderItem `json:"items"`
}

func (s *AdminService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := s.orders.ItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: order, Items: items}, nil
}

// UpdateOrderStatus moves the fulfillment lifecycle. Payment fields are never
// editable here, and orders cancelled by a failed payment stay cancelled.
func (s *AdminService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	if !models.ValidFulfillmentStatus(status) {
		return UserError{Message: fmt.Sprintf("invalid status %q", status)}
	}

	err := s.orders.UpdateFulfillmentStatus(ctx, orderID, models.FulfillmentStatus(status))
	if errors.Is(err, db.ErrNotFound) {
		return ErrOrderNotFound
	}
	if errors.Is(err, db.ErrInvalidStatusTransition) {
		return UserError{Message: "order payment failed; status cannot be changed"}
	}
	return err
}

func (s *AdminService) DashboardStats(ctx context.Context) (*db.DashboardStats, error) {
	return s.stats.Dashboard(ctx)
}
