package email

import (
	"strings"
	"testing"

	"github.com/emarastore/emara/internal/models"
)

func TestOrderConfirmation(t *testing.T) {
	t.Parallel()

	order := &models.Order{
		OrderNumber:   "EMR-1700000000000-ab12",
		CustomerEmail: "ana@example.cl",
		CustomerName:  "Ana Rojas",
		Subtotal:      20000,
		Shipping:      3990,
		Tax:           3800,
		Total:         27790,
		ShippingAddress: models.OrderAddress{
			Street: "Av. Providencia 1234",
			City:   "Santiago",
			Region: "Región Metropolitana",
		},
	}
	items := []models.OrderItem{
		{Name: "Vestido Flor", Quantity: 2, Subtotal: 20000, Size: "M", Color: "negro"},
	}

	msg := OrderConfirmation(order, items)

	if msg.To != "ana@example.cl" {
		t.Errorf("To = %q", msg.To)
	}
	if !strings.Contains(msg.Subject, order.OrderNumber) {
		t.Errorf("Subject %q missing order number", msg.Subject)
	}
	for _, want := range []string{"Ana Rojas", "Vestido Flor", "M / negro", "$27.790", "$3.990"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestFormatCLP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount int
		want   string
	}{
		{amount: 0, want: "0"},
		{amount: 999, want: "999"},
		{amount: 3990, want: "3.990"},
		{amount: 27790, want: "27.790"},
		{amount: 1234567, want: "1.234.567"},
	}
	for _, tt := range tests {
		if got := formatCLP(tt.amount); got != tt.want {
			t.Errorf("formatCLP(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
