// Package pricing computes line item prices and order totals. Every function
// here is pure: same inputs, same outputs, no state. Amounts are
// decimal.Decimal and rounding to cents happens only at the documented final
// steps, never on intermediate values.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quickbite/checkout-service/internal/catalog"
)

var ErrInvalidConfiguration = errors.New("pricing: configuration does not match catalog item")

var oneHundred = decimal.NewFromInt(100)

// LineConfig is the buyer's configuration of one catalog item.
type LineConfig struct {
	Quantity         int            `json:"quantity"`
	VariationChoices map[string]int `json:"variation_choices,omitempty"` // variation name → option index
	AddOnIndices     []int          `json:"add_on_indices,omitempty"`
}

// ValidateConfig checks that every chosen variation option and add-on index
// refers to something that exists on the item.
func ValidateConfig(item catalog.Item, cfg LineConfig) error {
	variations := make(map[string]int, len(item.Variations))
	for _, v := range item.Variations {
		variations[v.Name] = len(v.Options)
	}
	for name, idx := range cfg.VariationChoices {
		optCount, ok := variations[name]
		if !ok {
			return fmt.Errorf("%w: unknown variation %q", ErrInvalidConfiguration, name)
		}
		if idx < 0 || idx >= optCount {
			return fmt.Errorf("%w: variation %q has no option %d", ErrInvalidConfiguration, name, idx)
		}
	}
	for _, idx := range cfg.AddOnIndices {
		if idx < 0 || idx >= len(item.AddOns) {
			return fmt.Errorf("%w: no add-on at index %d", ErrInvalidConfiguration, idx)
		}
	}
	if item.DiscountPercent < 0 || item.DiscountPercent > 100 {
		return fmt.Errorf("%w: discount percent %d out of range", ErrInvalidConfiguration, item.DiscountPercent)
	}
	return nil
}

// PriceLineItem prices one configured line:
//
//	(base + chosen variation options + chosen add-ons) × (1 − discount/100) × quantity
//
// rounded to cents only after the quantity multiplication. A required
// variation with no recorded choice defaults to its first option; an optional
// one contributes nothing. Quantity below 1 is priced as 1.
func PriceLineItem(item catalog.Item, cfg LineConfig) (decimal.Decimal, error) {
	if err := ValidateConfig(item, cfg); err != nil {
		return decimal.Zero, err
	}

	unit := item.BasePrice
	for _, v := range item.Variations {
		idx, chosen := cfg.VariationChoices[v.Name]
		if !chosen {
			if !v.Required {
				continue
			}
			idx = 0
		}
		if len(v.Options) == 0 {
			continue
		}
		unit = unit.Add(v.Options[idx].Price)
	}
	for _, idx := range dedupe(cfg.AddOnIndices) {
		unit = unit.Add(item.AddOns[idx].Price)
	}

	if item.DiscountPercent > 0 {
		factor := oneHundred.Sub(decimal.NewFromInt(int64(item.DiscountPercent))).Div(oneHundred)
		unit = unit.Mul(factor)
	}

	qty := cfg.Quantity
	if qty < 1 {
		qty = 1
	}
	total := unit.Mul(decimal.NewFromInt(int64(qty))).Round(2)
	if total.IsNegative() {
		return decimal.Zero, nil
	}
	return total, nil
}

// dedupe keeps the add-on indices set-like: picking the same extra twice in
// the UI must not price it twice.
func dedupe(indices []int) []int {
	if len(indices) < 2 {
		return indices
	}
	seen := make(map[int]struct{}, len(indices))
	out := indices[:0:0]
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}
