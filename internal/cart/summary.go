package cart

import (
	"github.com/shopspring/decimal"

	"github.com/lmdelacruz/evride-storefront/pkg/config"
)

// Summary is derived from the current item list on every request; it has no
// identity of its own and is never persisted.
type Summary struct {
	ItemCount int     `json:"item_count"`
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Shipping  float64 `json:"shipping"`
	Total     float64 `json:"total"`
}

// Summarize computes count and peso totals for a cart. ItemCount is the
// number of distinct lines, not the sum of quantities. Shipping is waived
// once the subtotal exceeds the free-shipping threshold. All outputs are
// clamped at zero.
func Summarize(items []Item, pricing config.PricingConfig) Summary {
	subtotal := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Total)
		if line.IsZero() {
			line = decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		if line.IsNegative() {
			line = decimal.Zero
		}
		subtotal = subtotal.Add(line)
	}

	tax := subtotal.Mul(decimal.NewFromFloat(pricing.TaxRate)).Round(2)

	shipping := decimal.NewFromFloat(pricing.ShippingFee)
	if subtotal.GreaterThan(decimal.NewFromFloat(pricing.FreeShippingThreshold)) {
		shipping = decimal.Zero
	}

	total := subtotal.Add(tax).Add(shipping)

	return Summary{
		ItemCount: len(items),
		Subtotal:  clampDecimal(subtotal),
		Tax:       clampDecimal(tax),
		Shipping:  clampDecimal(shipping),
		Total:     clampDecimal(total),
	}
}

func clampDecimal(d decimal.Decimal) float64 {
	if d.IsNegative() {
		return 0
	}
	return d.InexactFloat64()
}
