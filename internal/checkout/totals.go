package checkout

import "math"

// DefaultShipping is the flat nationwide shipping rate in Chilean pesos.
const DefaultShipping = 3990

// TaxRate is Chilean IVA.
const TaxRate = 0.19

// TaxFor returns IVA on a subtotal, rounded to the nearest peso.
func TaxFor(subtotal int) int {
	return int(math.Round(float64(subtotal) * TaxRate))
}

// Totals is the amount breakdown of an order. All values are integer pesos.
type Totals struct {
	Subtotal int
	Shipping int
	Tax      int
}

func (t Totals) Total() int {
	return t.Subtotal + t.Shipping + t.Tax
}

// ComputeTotals derives the full breakdown from a subtotal using the flat
// shipping rate and IVA.
func ComputeTotals(subtotal int) Totals {
	return Totals{
		Subtotal: subtotal,
		Shipping: DefaultShipping,
		Tax:      TaxFor(subtotal),
	}
}
