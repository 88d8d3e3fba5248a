package email

import (
	"fmt"
	"strings"

	"github.com/emarastore/emara/internal/models"
)

// OrderConfirmation builds the post-payment confirmation email. Copy is in
// Spanish to match the storefront.
func OrderConfirmation(order *models.Order, items []models.OrderItem) *Email {
	var lines strings.Builder
	for _, item := range items {
		variant := ""
		if item.Size != "" || item.Color != "" {
			variant = fmt.Sprintf(" (%s)", strings.TrimSpace(strings.Join(nonEmpty(item.Size, item.Color), " / ")))
		}
		fmt.Fprintf(&lines, "  - %s%s x%d  $%s\n", item.Name, variant, item.Quantity, formatCLP(item.Subtotal))
	}

	text := fmt.Sprintf(`Hola %s,

¡Gracias por tu compra en Emara!

Pedido %s

%s
Subtotal: $%s
Envío:    $%s
IVA:      $%s
Total:    $%s

Te avisaremos cuando tu pedido sea despachado a:
%s, %s, %s

Equipo Emara
`,
		order.CustomerName,
		order.OrderNumber,
		lines.String(),
		formatCLP(order.Subtotal),
		formatCLP(order.Shipping),
		formatCLP(order.Tax),
		formatCLP(order.Total),
		order.ShippingAddress.Street,
		order.ShippingAddress.City,
		order.ShippingAddress.Region,
	)

	return &Email{
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("Confirmación de pedido %s", order.OrderNumber),
		Text:    text,
	}
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// formatCLP renders an amount with dot thousand separators, Chilean style.
func formatCLP(amount int) string {
	digits := fmt.Sprintf("%d", amount)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
