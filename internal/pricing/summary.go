package pricing

import "github.com/shopspring/decimal"

// FallbackTaxRate is the flat rate (as a percentage of the subtotal) used to
// preview tax before the remote order service has priced the order. Any
// authoritative total comes from the service at submission time.
var FallbackTaxRate = decimal.RequireFromString("8.25")

// Summary is the derived pricing breakdown of an order draft. It is never
// stored; callers recompute it from the draft after every priced mutation.
type Summary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Tip         decimal.Decimal `json:"tip"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

// SummaryInput is everything Summarize needs from a draft. LineTotals are the
// already-quantity-multiplied outputs of PriceLineItem.
type SummaryInput struct {
	LineTotals  []decimal.Decimal
	DeliveryFee decimal.Decimal
	ServerTax   *decimal.Decimal // authoritative tax when the remote service has priced the order
	TaxRate     decimal.Decimal  // fallback percentage, used only when ServerTax is nil
	Tip         decimal.Decimal
	Discount    decimal.Decimal
}

// Summarize derives the full breakdown. The grand total is floored at zero so
// a discount larger than the rest of the order can never go negative.
func Summarize(in SummaryInput) Summary {
	subtotal := decimal.Zero
	for _, lt := range in.LineTotals {
		subtotal = subtotal.Add(lt)
	}

	tax := decimal.Zero
	if in.ServerTax != nil {
		tax = *in.ServerTax
	} else if !in.TaxRate.IsZero() {
		tax = subtotal.Mul(in.TaxRate).Div(oneHundred).Round(2)
	}

	total := subtotal.Add(in.DeliveryFee).Add(tax).Add(in.Tip).Sub(in.Discount).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Summary{
		Subtotal:    subtotal,
		DeliveryFee: in.DeliveryFee,
		Tax:         tax,
		Tip:         in.Tip,
		Discount:    in.Discount,
		Total:       total,
	}
}
