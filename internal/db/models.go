package db

import "github.com/emarastore/emara/internal/models"

// Aliases so store callers don't need to import both packages.
type (
	Product       = models.Product
	Customer      = models.Customer
	Address       = models.Address
	Order         = models.Order
	OrderItem     = models.OrderItem
	AdminUser     = models.AdminUser
	PaymentResult = models.PaymentResult
)

const (
	StatusPending    = models.FulfillmentPending
	StatusProcessing = models.FulfillmentProcessing
	StatusShipped    = models.FulfillmentShipped
	StatusDelivered  = models.FulfillmentDelivered
	StatusCancelled  = models.FulfillmentCancelled

	PaymentPending  = models.PaymentPending
	PaymentPaid     = models.PaymentPaid
	PaymentFailed   = models.PaymentFailed
	PaymentRefunded = models.PaymentRefunded
)
