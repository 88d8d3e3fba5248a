package models

import (
	"time"

	"github.com/google/uuid"
)

// FulfillmentStatus tracks the shipping lifecycle of an order. It is a
// separate axis from PaymentStatus: the payment confirmer moves it to
// processing or cancelled, and only admin action advances it afterwards.
type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "pending"
	FulfillmentProcessing FulfillmentStatus = "processing"
	FulfillmentShipped    FulfillmentStatus = "shipped"
	FulfillmentDelivered  FulfillmentStatus = "delivered"
	FulfillmentCancelled  FulfillmentStatus = "cancelled"
)

// ValidFulfillmentStatus reports whether value is one of the enumerated
// fulfillment states.
func ValidFulfillmentStatus(value string) bool {
	switch FulfillmentStatus(value) {
	case FulfillmentPending, FulfillmentProcessing, FulfillmentShipped, FulfillmentDelivered, FulfillmentCancelled:
		return true
	default:
		return false
	}
}

// PaymentStatus tracks the payment lifecycle of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// OrderAddress is the address snapshot stored on the order. Orders keep their
// own copy so later customer edits do not rewrite history.
type OrderAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order amounts are integer Chilean pesos and satisfy
// Total = Subtotal + Shipping + Tax by construction.
//
// CustomerEmail and CustomerName are denormalized from the customers table on
// read; they are never written through the order.
type Order struct {
	ID                uuid.UUID         `json:"id"`
	OrderNumber       string            `json:"order_number"`
	CustomerID        uuid.UUID         `json:"customer_id"`
	CustomerEmail     string            `json:"customer_email,omitempty"`
	CustomerName      string            `json:"customer_name,omitempty"`
	Status            FulfillmentStatus `json:"status"`
	PaymentStatus     PaymentStatus     `json:"payment_status"`
	PaymentMethod     string            `json:"payment_method,omitempty"`
	Subtotal          int               `json:"subtotal"`
	Shipping          int               `json:"shipping"`
	Tax               int               `json:"tax"`
	Total             int               `json:"total"`
	ShippingAddress   OrderAddress      `json:"shipping_address"`
	BillingAddress    OrderAddress      `json:"billing_address"`
	AuthorizationCode string            `json:"authorization_code,omitempty"`
	CardNumber        string            `json:"card_number,omitempty"`
	ResponseCode      *int              `json:"response_code,omitempty"`
	TransactionDate   time.Time         `json:"transaction_date,omitzero"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// OrderItem captures name/SKU/price at order time so later product edits do
// not alter historical orders. Immutable after creation.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Price     int       `json:"price"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	Subtotal  int       `json:"subtotal"`
}

// PaymentResult is the authoritative outcome of a provider commit, applied to
// an order as a full overwrite keyed by order identity. Re-applying the same
// result is a no-op by construction.
type PaymentResult struct {
	PaymentStatus     PaymentStatus
	Status            FulfillmentStatus
	PaymentMethod     string
	AuthorizationCode string
	CardNumber        string
	ResponseCode      *int
	TransactionDate   time.Time
}
