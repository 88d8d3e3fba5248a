package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry. Prices are integer Chilean pesos; a zero
// SalePrice means the product is not on sale.
type Product struct {
	ID          uuid.UUID `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int       `json:"price"`
	SalePrice   int       `json:"sale_price,omitempty"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Active      bool      `json:"active"`
	Featured    bool      `json:"featured"`
	Images      []string  `json:"images"`
	Sizes       []string  `json:"sizes,omitempty"`
	Colors      []string  `json:"colors,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
