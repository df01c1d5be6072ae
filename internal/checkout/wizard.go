package checkout

// Step is one stage of the checkout wizard, in strict linear order.
type Step int

const (
	StepDelivery Step = iota
	StepPayment
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepDelivery:
		return "delivery"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// Wizard gates progression through the checkout steps. Forward movement is
// guarded; a failed guard leaves the current step unchanged. Backward
// movement is always allowed and clears nothing.
type Wizard struct {
	step Step
}

func NewWizard() *Wizard {
	return &Wizard{step: StepDelivery}
}

func (w *Wizard) Step() Step { return w.step }

// Advance moves to the next step if the draft satisfies the guard for the
// current one.
func (w *Wizard) Advance(d *Draft) error {
	switch w.step {
	case StepDelivery:
		if d.Address() == nil {
			return ErrAddressRequired
		}
		w.step = StepPayment
	case StepPayment:
		if d.Payment() == nil {
			return ErrPaymentMethodRequired
		}
		w.step = StepReview
	case StepReview:
		// Submission is a separate action, not an Advance.
		return ErrNotAtReview
	}
	return nil
}

// Back moves one step backward; at the first step it is a no-op.
func (w *Wizard) Back() {
	if w.step > StepDelivery {
		w.step--
	}
}

// CanSubmit re-validates the submission preconditions. The selections are
// checked again here because time may have passed since the guards on the
// earlier steps ran.
func (w *Wizard) CanSubmit(d *Draft) error {
	if w.step != StepReview {
		return ErrNotAtReview
	}
	if d.Address() == nil {
		return ErrAddressRequired
	}
	if d.Payment() == nil {
		return ErrPaymentMethodRequired
	}
	if len(d.Lines()) == 0 {
		return ErrEmptyCart
	}
	return nil
}
