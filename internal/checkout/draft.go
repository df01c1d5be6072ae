// Package checkout owns the in-progress order: the draft aggregate, the
// wizard step gate and the session that ties them to the remote order
// service. The draft is mutated only through the session, one event at a
// time, so its methods are written for a single caller and hold no locks.
package checkout

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/quickbite/checkout-service/internal/catalog"
	"github.com/quickbite/checkout-service/internal/pricing"
)

// LineItem is one configured catalog item in the cart. The catalog item is
// snapshotted at add time so a menu edit mid-checkout cannot change an
// already-priced line.
type LineItem struct {
	ID     string
	Item   catalog.Item
	Config pricing.LineConfig
}

// Promo is an applied promo code. Discount stays zero until the remote
// service confirms the code, so an optimistically applied code never shows a
// discount that was not granted.
type Promo struct {
	Code        string
	Discount    decimal.Decimal
	Description string
	Confirmed   bool
}

// Draft is the aggregate root for one in-progress order. Every mutation is
// synchronous and total: it always succeeds locally once its arguments are
// valid, and remote rejection is reconciled later by the session.
type Draft struct {
	lines        []LineItem
	address      *catalog.Address
	payment      *catalog.PaymentMethod
	delivery     *catalog.DeliveryOption
	tip          decimal.Decimal
	instructions string
	promo        *Promo
	serverTax    *decimal.Decimal

	// Per-field revisions, bumped on every selection change. A sync
	// completion carrying an older revision is stale and must be ignored.
	addressRev uint64
	paymentRev uint64
	promoRev   uint64
}

// NewDraft seeds a draft with the resolved default delivery option. Address
// and payment defaults are applied by the session after it resolves them
// against the catalog.
func NewDraft(delivery *catalog.DeliveryOption) *Draft {
	return &Draft{delivery: delivery}
}

// Read side.

func (d *Draft) Lines() []LineItem                 { return d.lines }
func (d *Draft) Address() *catalog.Address         { return d.address }
func (d *Draft) Payment() *catalog.PaymentMethod   { return d.payment }
func (d *Draft) Delivery() *catalog.DeliveryOption { return d.delivery }
func (d *Draft) Tip() decimal.Decimal              { return d.tip }
func (d *Draft) Instructions() string              { return d.instructions }
func (d *Draft) PromoCode() *Promo                 { return d.promo }

func (d *Draft) AddressRevision() uint64 { return d.addressRev }
func (d *Draft) PaymentRevision() uint64 { return d.paymentRev }
func (d *Draft) PromoRevision() uint64   { return d.promoRev }

// Mutations.

// SetAddress selects a new address atomically; the previous selection is
// replaced in the same step, never observed as absent. Returns the new
// address revision.
func (d *Draft) SetAddress(a catalog.Address) uint64 {
	d.address = &a
	d.addressRev++
	return d.addressRev
}

// SetPaymentMethod selects a new payment method atomically.
func (d *Draft) SetPaymentMethod(m catalog.PaymentMethod) uint64 {
	d.payment = &m
	d.paymentRev++
	return d.paymentRev
}

func (d *Draft) SetDeliveryOption(o catalog.DeliveryOption) {
	d.delivery = &o
}

func (d *Draft) SetTip(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeTip
	}
	d.tip = amount
	return nil
}

func (d *Draft) SetSpecialInstructions(text string) {
	d.instructions = text
}

// ApplyPromoCode records the code as applied with no discount yet. Applying a
// new code replaces any previous one; at most one promo is ever applied.
func (d *Draft) ApplyPromoCode(code string) uint64 {
	d.promo = &Promo{Code: code}
	d.promoRev++
	return d.promoRev
}

// ConfirmPromo fills in the remote-granted discount for the currently applied
// code.
func (d *Draft) ConfirmPromo(discount decimal.Decimal, description string) {
	if d.promo == nil {
		return
	}
	d.promo.Discount = discount
	d.promo.Description = description
	d.promo.Confirmed = true
}

// RemovePromoCode clears the applied promo. It also bumps the promo revision
// so an in-flight validation of the removed code lands stale.
func (d *Draft) RemovePromoCode() uint64 {
	d.promo = nil
	d.promoRev++
	return d.promoRev
}

// SetServerTax records the authoritative tax supplied by the remote service;
// the summary stops using the fallback rate from then on.
func (d *Draft) SetServerTax(tax decimal.Decimal) {
	d.serverTax = &tax
}

// AddLineItem validates the configuration against the item and appends a new
// cart line. Quantity below 1 is stored as 1.
func (d *Draft) AddLineItem(item catalog.Item, cfg pricing.LineConfig) (LineItem, error) {
	if err := pricing.ValidateConfig(item, cfg); err != nil {
		return LineItem{}, err
	}
	if cfg.Quantity < 1 {
		cfg.Quantity = 1
	}
	id, err := uuid.NewV4()
	if err != nil {
		return LineItem{}, fmt.Errorf("checkout: failed to generate line item id: %w", err)
	}
	line := LineItem{ID: id.String(), Item: item, Config: cfg}
	d.lines = append(d.lines, line)
	return line, nil
}

// UpdateLineItemQuantity sets the quantity of an existing line. A quantity
// below 1 is a no-op, not an error: decrementing past the minimum leaves the
// line unchanged.
func (d *Draft) UpdateLineItemQuantity(lineID string, quantity int) error {
	for i := range d.lines {
		if d.lines[i].ID != lineID {
			continue
		}
		if quantity < 1 {
			return nil
		}
		d.lines[i].Config.Quantity = quantity
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownLineItem, lineID)
}

func (d *Draft) RemoveLineItem(lineID string) error {
	for i := range d.lines {
		if d.lines[i].ID == lineID {
			d.lines = append(d.lines[:i], d.lines[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownLineItem, lineID)
}

// Summary recomputes the full pricing breakdown from scratch. It is never
// patched incrementally, so displayed totals cannot drift from the draft.
func (d *Draft) Summary(taxRate decimal.Decimal) (pricing.Summary, error) {
	lineTotals := make([]decimal.Decimal, 0, len(d.lines))
	for _, line := range d.lines {
		total, err := pricing.PriceLineItem(line.Item, line.Config)
		if err != nil {
			return pricing.Summary{}, fmt.Errorf("checkout: line %s: %w", line.ID, err)
		}
		lineTotals = append(lineTotals, total)
	}

	fee := decimal.Zero
	if d.delivery != nil {
		fee = d.delivery.Fee
	}
	discount := decimal.Zero
	if d.promo != nil && d.promo.Confirmed {
		discount = d.promo.Discount
	}

	return pricing.Summarize(pricing.SummaryInput{
		LineTotals:  lineTotals,
		DeliveryFee: fee,
		ServerTax:   d.serverTax,
		TaxRate:     taxRate,
		Tip:         d.tip,
		Discount:    discount,
	}), nil
}
