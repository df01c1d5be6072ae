package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/quickbite/checkout-service/internal/pricing"
)

// SelectionAck is the remote service's answer to a selection update. An
// address change can re-price tax (it depends on the delivery location), so
// the ack may carry an authoritative tax amount.
type SelectionAck struct {
	Tax *decimal.Decimal `json:"tax,omitempty"`
}

// PromoResult is the remote verdict on a promo code.
type PromoResult struct {
	Valid       bool            `json:"valid"`
	Discount    decimal.Decimal `json:"discount"`
	Description string          `json:"description,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// SubmitLine is one cart line as sent with the final submission.
type SubmitLine struct {
	ItemID           string          `json:"item_id"`
	Quantity         int             `json:"quantity"`
	VariationChoices map[string]int  `json:"variation_choices,omitempty"`
	AddOnIndices     []int           `json:"add_on_indices,omitempty"`
	LineTotal        decimal.Decimal `json:"line_total"`
}

// SubmitRequest carries the full draft to the remote order service.
type SubmitRequest struct {
	OrderID          string          `json:"order_id"`
	AddressID        string          `json:"address_id"`
	PaymentMethodID  string          `json:"payment_method_id"`
	DeliveryOptionID string          `json:"delivery_option_id"`
	PromoCode        string          `json:"promo_code,omitempty"`
	Tip              decimal.Decimal `json:"tip"`
	Instructions     string          `json:"instructions,omitempty"`
	Lines            []SubmitLine    `json:"lines"`
	Summary          pricing.Summary `json:"summary"`
}

// Confirmation is the remote service's acknowledgement of a placed order,
// used to render the post-purchase tracking view.
type Confirmation struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	ETAMinutes  int             `json:"eta_minutes,omitempty"`
	Total       decimal.Decimal `json:"total"`
}

// Sync is the remote sync adapter as the session sees it. Push operations
// return immediately; the done callback fires later, from another goroutine,
// unless the adapter already knows the result is stale and drops it. The rev
// echoed back is the draft revision captured at dispatch time, so the session
// can discard completions that a newer selection has superseded.
//
// SubmitOrder reports whether the attempt was started; it returns false while
// another submission is in flight.
type Sync interface {
	PushAddress(orderID, addressID string, rev uint64, done func(ack SelectionAck, err error, rev uint64))
	PushPaymentMethod(orderID, methodID string, rev uint64, done func(err error, rev uint64))
	PushPromoCode(orderID, code string, rev uint64, done func(res PromoResult, err error, rev uint64))
	SubmitOrder(orderID string, req SubmitRequest, done func(conf Confirmation, err error)) bool
	Close()
}
