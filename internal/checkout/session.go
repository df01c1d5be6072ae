package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/quickbite/checkout-service/internal/catalog"
	"github.com/quickbite/checkout-service/internal/pricing"
)

// State is the lifecycle of a checkout session.
type State int

const (
	StateActive State = iota
	StateSubmitting
	StateCompleted
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Session owns one OrderDraft for the duration of a checkout. All input is
// serialized behind one mutex, so draft mutations are atomic with respect to
// each other and sync completions always reconcile against the current draft,
// never a stale snapshot.
type Session struct {
	id      string
	userID  string
	orderID string

	mu     sync.Mutex
	draft  *Draft
	wizard *Wizard
	state  State
	conf   *Confirmation

	catalog    catalog.Provider
	addresses  []catalog.Address
	payments   []catalog.PaymentMethod
	deliveries []catalog.DeliveryOption

	sync    Sync
	buffer  *BufferSink
	sink    Sink
	taxRate decimal.Decimal
}

// sessionSeed carries everything the manager resolved for a new session.
type sessionSeed struct {
	id         string
	userID     string
	orderID    string
	catalog    catalog.Provider
	addresses  []catalog.Address
	payments   []catalog.PaymentMethod
	deliveries []catalog.DeliveryOption
	defaults   catalog.Defaults
	sync       Sync
	extraSink  Sink
	taxRate    decimal.Decimal
}

func newSession(seed sessionSeed) *Session {
	delivery, ok := catalog.ResolveDefaultDelivery(seed.deliveries)
	var deliveryPtr *catalog.DeliveryOption
	if ok {
		if d := findDelivery(seed.deliveries, seed.defaults.DeliveryOptionID); d != nil {
			deliveryPtr = d
		} else {
			deliveryPtr = &delivery
		}
	}

	buffer := NewBufferSink()
	var sink Sink = buffer
	if seed.extraSink != nil {
		sink = TeeSink{buffer, seed.extraSink}
	}

	s := &Session{
		id:         seed.id,
		userID:     seed.userID,
		orderID:    seed.orderID,
		draft:      NewDraft(deliveryPtr),
		wizard:     NewWizard(),
		catalog:    seed.catalog,
		addresses:  seed.addresses,
		payments:   seed.payments,
		deliveries: seed.deliveries,
		sync:       seed.sync,
		buffer:     buffer,
		sink:       sink,
		taxRate:    seed.taxRate,
	}

	// Server-chosen defaults are already known to the remote service, so
	// seeding them is local only: no sync push.
	if a := findAddress(seed.addresses, seed.defaults.AddressID); a != nil {
		s.draft.SetAddress(*a)
	}
	if p := findPayment(seed.payments, seed.defaults.PaymentMethodID); p != nil {
		s.draft.SetPaymentMethod(*p)
	}
	return s
}

func (s *Session) ID() string      { return s.id }
func (s *Session) OrderID() string { return s.orderID }

// ensureActive rejects mutations outside the active state. Held lock assumed.
func (s *Session) ensureActive() error {
	switch s.state {
	case StateActive:
		return nil
	case StateSubmitting:
		return ErrSubmissionPending
	default:
		return ErrSessionClosed
	}
}

// SelectAddress applies the new address locally right away and pushes it to
// the remote service in the background.
func (s *Session) SelectAddress(addressID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return err
	}
	addr := findAddress(s.addresses, addressID)
	if addr == nil {
		return fmt.Errorf("%w: %s", ErrUnknownAddress, addressID)
	}
	rev := s.draft.SetAddress(*addr)
	s.sync.PushAddress(s.orderID, addr.ID, rev, s.onAddressAck)
	return nil
}

func (s *Session) onAddressAck(ack SelectionAck, err error, rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev != s.draft.AddressRevision() {
		log.Debug().Str("session_id", s.id).Uint64("rev", rev).Msg("Dropping stale address ack")
		return
	}
	if s.state == StateCompleted || s.state == StateDiscarded {
		return
	}
	if err != nil {
		// The user keeps their selection; they only get warned that the
		// change may not have been persisted server-side.
		s.sink.Notify(Notification{
			Level:   LevelWarning,
			Code:    CodeAddressSyncFailed,
			Field:   "address",
			Message: "your address selection could not be saved and may not be persisted",
		})
		return
	}
	if ack.Tax != nil {
		s.draft.SetServerTax(*ack.Tax)
	}
	s.sink.Notify(Notification{Level: LevelInfo, Code: CodeAddressSynced, Field: "address", Message: "address saved"})
}

// SelectPaymentMethod applies the new method locally and pushes it in the
// background.
func (s *Session) SelectPaymentMethod(methodID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return err
	}
	method := findPayment(s.payments, methodID)
	if method == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPaymentMethod, methodID)
	}
	rev := s.draft.SetPaymentMethod(*method)
	s.sync.PushPaymentMethod(s.orderID, method.ID, rev, s.onPaymentAck)
	return nil
}

func (s *Session) onPaymentAck(err error, rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev != s.draft.PaymentRevision() {
		log.Debug().Str("session_id", s.id).Uint64("rev", rev).Msg("Dropping stale payment method ack")
		return
	}
	if s.state == StateCompleted || s.state == StateDiscarded {
		return
	}
	if err != nil {
		s.sink.Notify(Notification{
			Level:   LevelWarning,
			Code:    CodePaymentSyncFailed,
			Field:   "payment_method",
			Message: "your payment method selection could not be saved and may not be persisted",
		})
		return
	}
	s.sink.Notify(Notification{Level: LevelInfo, Code: CodePaymentSynced, Field: "payment_method", Message: "payment method saved"})
}

// SelectDeliveryOption is local only: the fee is part of the submitted order,
// so there is nothing to sync until submission.
func (s *Session) SelectDeliveryOption(optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return err
	}
	opt := findDelivery(s.deliveries, optionID)
	if opt == nil {
		return fmt.Errorf("%w: %s", ErrUnknownDeliveryOption, optionID)
	}
	s.draft.SetDeliveryOption(*opt)
	return nil
}

func (s *Session) SetTip(amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return err
	}
	return s.draft.SetTip(amount)
}

func (s *Session) SetSpecialInstructions(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return err
	}
	s.draft.SetSpecialInstructions(text)
	return nil
}

// ApplyPromoCode marks the code as applied immediately with a zero discount
// and asks the remote service to validate it. An invalid code reverts the
// applied state when the rejection arrives.
func (s *Session) ApplyPromoCode(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return err
	}
	rev := s.draft.ApplyPromoCode(code)
	s.sync.PushPromoCode(s.orderID, code, rev, s.onPromoResult)
	return nil
}

func (s *Session) onPromoResult(res PromoResult, err error, rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev != s.draft.PromoRevision() {
		log.Debug().Str("session_id", s.id).Uint64("rev", rev).Msg("Dropping stale promo result")
		return
	}
	if s.state == StateCompleted || s.state == StateDiscarded {
		return
	}
	if err != nil || !res.Valid {
		// The UI must not keep showing a discount that was never granted.
		s.draft.RemovePromoCode()
		msg := res.Reason
		if msg == "" {
			msg = "promo code could not be applied"
		}
		s.sink.Notify(Notification{Level: LevelError, Code: CodePromoRejected, Field: "promo_code", Message: msg})
		return
	}
	s.draft.ConfirmPromo(res.Discount, res.Description)
	s.sink.Notify(Notification{Level: LevelInfo, Code: CodePromoApplied, Field: "promo_code", Message: res.Description})
}

func (s *Session) RemovePromoCode() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return err
	}
	s.draft.RemovePromoCode()
	return nil
}

// AddItem fetches the catalog item, validates the configuration and appends
// the line.
func (s *Session) AddItem(ctx context.Context, itemID string, cfg pricing.LineConfig) (LineItem, error) {
	item, err := s.catalog.Item(ctx, itemID)
	if err != nil {
		return LineItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return LineItem{}, err
	}
	return s.draft.AddLineItem(*item, cfg)
}

func (s *Session) UpdateItemQuantity(lineID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return err
	}
	return s.draft.UpdateLineItemQuantity(lineID, quantity)
}

func (s *Session) RemoveItem(lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return err
	}
	return s.draft.RemoveLineItem(lineID)
}

// Advance moves the wizard forward if the step guard passes.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return err
	}
	return s.wizard.Advance(s.draft)
}

// Back moves the wizard backward; downstream selections are kept.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return err
	}
	s.wizard.Back()
	return nil
}

// Submit re-validates the submission preconditions and hands the full draft
// to the remote service. It is never optimistic: the session stays in the
// submitting state, rejecting further input, until the service confirms or
// rejects. A second Submit while one is pending is refused, so at most one
// order-creation request is ever in flight.
func (s *Session) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureActive(); err != nil {
		return err
	}
	if err := s.wizard.CanSubmit(s.draft); err != nil {
		return err
	}
	summary, err := s.draft.Summary(s.taxRate)
	if err != nil {
		return err
	}
	req, err := s.buildSubmitRequest(summary)
	if err != nil {
		return err
	}
	if !s.sync.SubmitOrder(s.orderID, req, s.onSubmitResult) {
		return ErrSubmissionPending
	}
	s.state = StateSubmitting
	return nil
}

func (s *Session) buildSubmitRequest(summary pricing.Summary) (SubmitRequest, error) {
	lines := make([]SubmitLine, 0, len(s.draft.Lines()))
	for _, line := range s.draft.Lines() {
		total, err := pricing.PriceLineItem(line.Item, line.Config)
		if err != nil {
			return SubmitRequest{}, err
		}
		lines = append(lines, SubmitLine{
			ItemID:           line.Item.ID,
			Quantity:         line.Config.Quantity,
			VariationChoices: line.Config.VariationChoices,
			AddOnIndices:     line.Config.AddOnIndices,
			LineTotal:        total,
		})
	}
	req := SubmitRequest{
		OrderID:         s.orderID,
		AddressID:       s.draft.Address().ID,
		PaymentMethodID: s.draft.Payment().ID,
		Tip:             s.draft.Tip(),
		Instructions:    s.draft.Instructions(),
		Lines:           lines,
		Summary:         summary,
	}
	if s.draft.Delivery() != nil {
		req.DeliveryOptionID = s.draft.Delivery().ID
	}
	if promo := s.draft.PromoCode(); promo != nil && promo.Confirmed {
		req.PromoCode = promo.Code
	}
	return req, nil
}

func (s *Session) onSubmitResult(conf Confirmation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSubmitting {
		return
	}
	if err != nil {
		// The attempt is dead but the session is not: the draft survives
		// intact on the review step and submit is re-enabled.
		s.state = StateActive
		s.sink.Notify(Notification{
			Level:   LevelError,
			Code:    CodeSubmitFailed,
			Message: fmt.Sprintf("your order could not be placed: %v — you can retry", err),
		})
		return
	}
	s.conf = &conf
	s.state = StateCompleted
	s.sync.Close()
	s.sink.Notify(Notification{Level: LevelInfo, Code: CodeOrderSubmitted, Message: "order placed"})
}

// Discard ends the session without submitting. In-flight sync calls are
// cancelled; any result that still arrives is ignored.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted || s.state == StateDiscarded {
		return
	}
	s.state = StateDiscarded
	s.sync.Close()
}

// Notifications drains the session's buffered notifications.
func (s *Session) Notifications() []Notification {
	return s.buffer.Drain()
}

func findAddress(addrs []catalog.Address, id string) *catalog.Address {
	if id == "" {
		return nil
	}
	for i := range addrs {
		if addrs[i].ID == id {
			return &addrs[i]
		}
	}
	return nil
}

func findPayment(methods []catalog.PaymentMethod, id string) *catalog.PaymentMethod {
	if id == "" {
		return nil
	}
	for i := range methods {
		if methods[i].ID == id {
			return &methods[i]
		}
	}
	return nil
}

func findDelivery(opts []catalog.DeliveryOption, id string) *catalog.DeliveryOption {
	if id == "" {
		return nil
	}
	for i := range opts {
		if opts[i].ID == id {
			return &opts[i]
		}
	}
	return nil
}
