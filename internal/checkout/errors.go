package checkout

import "errors"

// Validation errors are handled entirely locally: they block the attempted
// operation, leave all state unchanged and never reach the network.
var (
	ErrAddressRequired       = errors.New("checkout: an address must be selected before continuing")
	ErrPaymentMethodRequired = errors.New("checkout: a payment method must be selected before continuing")
	ErrNotAtReview           = errors.New("checkout: order can only be submitted from the review step")
	ErrEmptyCart             = errors.New("checkout: order must contain at least one item")
	ErrNegativeTip           = errors.New("checkout: tip must be non-negative")

	ErrUnknownAddress        = errors.New("checkout: address is not in the selectable list")
	ErrUnknownPaymentMethod  = errors.New("checkout: payment method is not in the selectable list")
	ErrUnknownDeliveryOption = errors.New("checkout: delivery option is not in the selectable list")
	ErrUnknownLineItem       = errors.New("checkout: no such line item in the cart")

	// ErrSubmissionPending is returned for any operation attempted while a
	// submission is in flight. Duplicate submits are ignored, not queued.
	ErrSubmissionPending = errors.New("checkout: a submission is already in progress")

	// ErrSessionClosed is returned once the order was placed or the session
	// was discarded.
	ErrSessionClosed = errors.New("checkout: session is closed")

	ErrSessionNotFound = errors.New("checkout: session not found")
)
