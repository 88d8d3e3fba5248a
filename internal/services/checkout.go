package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/go-playground/validator/v10"

	"github.com/emarastore/emara/internal/checkout"
	"github.com/emarastore/emara/internal/db"
	"github.com/emarastore/emara/internal/logging"
	"github.com/emarastore/emara/internal/models"
	"github.com/emarastore/emara/internal/observability"
)

type productReader interface {
	GetBySKU(ctx context.Context, sku string) (*db.Product, error)
}

type customerWriter interface {
	Upsert(ctx context.Context, c *db.Customer) error
	CreateAddress(ctx context.Context, a *db.Address) error
}

type orderWriter interface {
	CreateWithItems(ctx context.Context, order *db.Order, items []db.OrderItem) error
}

type CheckoutService struct {
	products  productReader
	customers customerWriter
	orders    orderWriter
	logger    *slog.Logger
}

var checkoutValidator = validator.New()

func NewCheckoutService(products productReader, customers customerWriter, orders orderWriter, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		products:  products,
		customers: customers,
		orders:    orders,
		logger:    logger,
	}
}

func (s *CheckoutService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type CustomerInput struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	RUT       string `json:"rut"`
}

type AddressInput struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	Region     string `json:"region" validate:"required"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type ItemInput struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
	Size     string `json:"size"`
	Color    string `json:"color"`
}

// CheckoutInput is the storefront checkout payload. Total is the amount the
// buyer saw; it must match what the writer computes from the catalog.
type CheckoutInput struct {
	Customer        CustomerInput `json:"customer" validate:"required"`
	ShippingAddress AddressInput  `json:"shipping_address" validate:"required"`
	BillingAddress  *AddressInput `json:"billing_address"`
	Items           []ItemInput   `json:"items" validate:"required,min=1,dive"`
	Total           int           `json:"total" validate:"required,min=1"`
}

// PlaceOrder writes the customer, address, order and items. Prices and names
// come from the catalog, never from the payload; a stale client total is
// rejected before any write.
func (s *CheckoutService) PlaceOrder(ctx context.Context, input CheckoutInput) (*db.Order, error) {
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("checkout.received", 1)

	if err := checkoutValidator.Struct(input); err != nil {
		meter.Count("checkout.rejected", 1, sentry.WithAttributes(
			attribute.String("reason", "validation"),
		))
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	subtotal := 0
	items := make([]db.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		product, err := s.products.GetBySKU(ctx, in.SKU)
		if errors.Is(err, db.ErrNotFound) {
			meter.Count("checkout.rejected", 1, sentry.WithAttributes(
				attribute.String("reason", "unknown_sku"),
			))
			return nil, fmt.Errorf("%w: unknown sku %s", ErrValidation, in.SKU)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load product %s: %w", in.SKU, err)
		}

		price := product.Price
		if product.SalePrice > 0 && product.SalePrice < product.Price {
			price = product.SalePrice
		}
		lineSubtotal := price * in.Quantity
		subtotal += lineSubtotal
		items = append(items, db.OrderItem{
			ProductID: product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			Price:     price,
			Quantity:  in.Quantity,
			Size:      in.Size,
			Color:     in.Color,
			Subtotal:  lineSubtotal,
		})
	}

	totals := checkout.ComputeTotals(subtotal)
	if input.Total != totals.Total() {
		meter.Count("checkout.rejected", 1, sentry.WithAttributes(
			attribute.String("reason", "total_mismatch"),
		))
		return nil, fmt.Errorf("%w: total %d does not match computed %d", ErrValidation, input.Total, totals.Total())
	}

	customer := &db.Customer{
		Email:     input.Customer.Email,
		FirstName: input.Customer.FirstName,
		LastName:  input.Customer.LastName,
		Phone:     input.Customer.Phone,
		RUT:       input.Customer.RUT,
	}
	if err := s.customers.Upsert(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to upsert customer: %w", err)
	}

	address := &db.Address{
		CustomerID: customer.ID,
		Street:     input.ShippingAddress.Street,
		City:       input.ShippingAddress.City,
		Region:     input.ShippingAddress.Region,
		PostalCode: input.ShippingAddress.PostalCode,
		Country:    countryOrDefault(input.ShippingAddress.Country),
	}
	if err := s.customers.CreateAddress(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	billing := input.ShippingAddress
	if input.BillingAddress != nil {
		billing = *input.BillingAddress
	}

	order := &db.Order{
		OrderNumber: checkout.GenerateOrderNumber(),
		CustomerID:  customer.ID,
		Subtotal:    totals.Subtotal,
		Shipping:    totals.Shipping,
		Tax:         totals.Tax,
		Total:       totals.Total(),
		ShippingAddress: models.OrderAddress{
			Street:     input.ShippingAddress.Street,
			City:       input.ShippingAddress.City,
			Region:     input.ShippingAddress.Region,
			PostalCode: input.ShippingAddress.PostalCode,
			Country:    countryOrDefault(input.ShippingAddress.Country),
		},
		BillingAddress: models.OrderAddress{
			Street:     billing.Street,
			City:       billing.City,
			Region:     billing.Region,
			PostalCode: billing.PostalCode,
			Country:    countryOrDefault(billing.Country),
		},
	}
	if err := s.orders.CreateWithItems(ctx, order, items); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	order.CustomerEmail = customer.Email
	order.CustomerName = customer.FirstName + " " + customer.LastName

	meter.Count("checkout.accepted", 1)
	logger.Info("order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"items", len(items),
		"total", order.Total)
	return order, nil
}

func countryOrDefault(country string) string {
	if country == "" {
		return "Chile"
	}
	return country
}
