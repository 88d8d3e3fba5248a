package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer identity is keyed by email. RUT is the Chilean national ID and is
// optional.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	RUT       string    `json:"rut,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Address is created per order at checkout time and never deduplicated.
type Address struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	Region     string    `json:"region"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	CreatedAt  time.Time `json:"created_at"`
}

// AdminUser is a back-office account. Passwords are stored as bcrypt hashes.
type AdminUser struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}
