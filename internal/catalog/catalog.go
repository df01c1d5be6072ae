// Package catalog holds the read-only selection data checkout works with:
// configurable menu items, saved addresses, delivery options and payment
// methods, plus the server-chosen defaults applied when a session starts.
package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound = errors.New("catalog: item not found")
	ErrNoDefaults   = errors.New("catalog: no checkout defaults for user")
)

// Option is a single priced choice within a variation (e.g. "Large" +$2.00).
type Option struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Variation is a named group of options on an item (e.g. "Size").
// A required variation that the buyer never touched resolves to option 0.
type Variation struct {
	Name     string   `json:"name"`
	Required bool     `json:"required"`
	Options  []Option `json:"options"`
}

// AddOn is an optional priced extra on an item.
type AddOn struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Item is one configurable menu item.
type Item struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	BasePrice       decimal.Decimal `json:"base_price"`
	Variations      []Variation     `json:"variations,omitempty"`
	AddOns          []AddOn         `json:"add_ons,omitempty"`
	DiscountPercent int             `json:"discount_percent,omitempty"` // 0–100
}

// Address is a saved delivery address. Checkout only ever selects one from
// the list; it never edits the fields.
type Address struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Street string `json:"street"`
	City   string `json:"city"`
	Note   string `json:"note,omitempty"`
}

// DeliveryOption is one way of getting the order to the buyer.
type DeliveryOption struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Fee     decimal.Decimal `json:"fee"`
	Default bool            `json:"default,omitempty"`
}

type PaymentKind string

const (
	PaymentCard   PaymentKind = "card"
	PaymentWallet PaymentKind = "wallet"
	PaymentCash   PaymentKind = "cash"
	PaymentOther  PaymentKind = "other"
)

// PaymentMethod is a saved way to pay.
type PaymentMethod struct {
	ID    string      `json:"id"`
	Kind  PaymentKind `json:"kind"`
	Label string      `json:"label"`
}

// Defaults carries the server-chosen initial selections for a new checkout
// session. Empty IDs mean no default for that field.
type Defaults struct {
	AddressID        string `json:"address_id"`
	PaymentMethodID  string `json:"payment_method_id"`
	DeliveryOptionID string `json:"delivery_option_id"`
}

// Provider is the catalog collaborator consumed by checkout.
type Provider interface {
	Item(ctx context.Context, id string) (*Item, error)
	Addresses(ctx context.Context, userID string) ([]Address, error)
	DeliveryOptions(ctx context.Context) ([]DeliveryOption, error)
	PaymentMethods(ctx context.Context, userID string) ([]PaymentMethod, error)
	Defaults(ctx context.Context, userID string) (*Defaults, error)
}

// ResolveDefaultDelivery picks the delivery option flagged as default, or the
// first available one if none is flagged. The second return is false only
// when the list is empty.
func ResolveDefaultDelivery(opts []DeliveryOption) (DeliveryOption, bool) {
	if len(opts) == 0 {
		return DeliveryOption{}, false
	}
	for _, o := range opts {
		if o.Default {
			return o, true
		}
	}
	return opts[0], true
}
