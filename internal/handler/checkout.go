// Package handler exposes checkout sessions over HTTP. The rendering layer
// drives user intent through these endpoints and reads back the draft,
// pricing summary and wizard step as a single view model.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/quickbite/checkout-service/internal/catalog"
	"github.com/quickbite/checkout-service/internal/checkout"
	"github.com/quickbite/checkout-service/internal/pricing"
)

type CheckoutHandler struct {
	manager *checkout.Manager
}

func NewCheckoutHandler(manager *checkout.Manager) *CheckoutHandler {
	return &CheckoutHandler{manager: manager}
}

type beginRequest struct {
	UserID string `json:"user_id"`
}

// Begin starts a checkout session for a user.
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	s, err := h.manager.Begin(r.Context(), req.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to begin checkout session")
		http.Error(w, "failed to begin checkout", http.StatusBadGateway)
		return
	}
	h.writeView(w, s, http.StatusCreated)
}

// GetView returns the full session view model.
func (h *CheckoutHandler) GetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeView(w, s, http.StatusOK)
}

// Notifications drains the session's buffered notifications.
func (h *CheckoutHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Notifications())
}

type selectRequest struct {
	AddressID        string `json:"address_id,omitempty"`
	PaymentMethodID  string `json:"payment_method_id,omitempty"`
	DeliveryOptionID string `json:"delivery_option_id,omitempty"`
}

func (h *CheckoutHandler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	mutateAs(h, w, r, func(s *checkout.Session, req selectRequest) error {
		return s.SelectAddress(req.AddressID)
	})
}

func (h *CheckoutHandler) SelectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	mutateAs(h, w, r, func(s *checkout.Session, req selectRequest) error {
		return s.SelectPaymentMethod(req.PaymentMethodID)
	})
}

func (h *CheckoutHandler) SelectDeliveryOption(w http.ResponseWriter, r *http.Request) {
	mutateAs(h, w, r, func(s *checkout.Session, req selectRequest) error {
		return s.SelectDeliveryOption(req.DeliveryOptionID)
	})
}

type tipRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *CheckoutHandler) SetTip(w http.ResponseWriter, r *http.Request) {
	mutateAs(h, w, r, func(s *checkout.Session, req tipRequest) error {
		return s.SetTip(req.Amount)
	})
}

type instructionsRequest struct {
	Text string `json:"text"`
}

func (h *CheckoutHandler) SetInstructions(w http.ResponseWriter, r *http.Request) {
	mutateAs(h, w, r, func(s *checkout.Session, req instructionsRequest) error {
		return s.SetSpecialInstructions(req.Text)
	})
}

type promoRequest struct {
	Code string `json:"code"`
}

func (h *CheckoutHandler) ApplyPromoCode(w http.ResponseWriter, r *http.Request) {
	mutateAs(h, w, r, func(s *checkout.Session, req promoRequest) error {
		return s.ApplyPromoCode(req.Code)
	})
}

func (h *CheckoutHandler) RemovePromoCode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.RemovePromoCode(); err != nil {
		writeError(w, err)
		return
	}
	h.writeView(w, s, http.StatusOK)
}

type addItemRequest struct {
	ItemID string             `json:"item_id"`
	Config pricing.LineConfig `json:"config"`
}

func (h *CheckoutHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := s.AddItem(r.Context(), req.ItemID, req.Config); err != nil {
		writeError(w, err)
		return
	}
	h.writeView(w, s, http.StatusCreated)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CheckoutHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.UpdateItemQuantity(chi.URLParam(r, "lineID"), req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	h.writeView(w, s, http.StatusOK)
}

func (h *CheckoutHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.RemoveItem(chi.URLParam(r, "lineID")); err != nil {
		writeError(w, err)
		return
	}
	h.writeView(w, s, http.StatusOK)
}

func (h *CheckoutHandler) Advance(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Advance(); err != nil {
		writeError(w, err)
		return
	}
	h.writeView(w, s, http.StatusOK)
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Back(); err != nil {
		writeError(w, err)
		return
	}
	h.writeView(w, s, http.StatusOK)
}

// Submit kicks off the one allowed submission attempt. The response reflects
// the pending state; the rendering layer polls the view until the remote
// service confirms or rejects.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Submit(); err != nil {
		writeError(w, err)
		return
	}
	h.writeView(w, s, http.StatusAccepted)
}

// Discard ends the session without submitting.
func (h *CheckoutHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Discard(chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mutateAs decodes a request body of type T, applies it to the session and
// writes back the refreshed view.
func mutateAs[T any](h *CheckoutHandler, w http.ResponseWriter, r *http.Request, apply func(s *checkout.Session, req T) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := apply(s, req); err != nil {
		writeError(w, err)
		return
	}
	h.writeView(w, s, http.StatusOK)
}

func (h *CheckoutHandler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	s, err := h.manager.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return s, true
}

func (h *CheckoutHandler) writeView(w http.ResponseWriter, s *checkout.Session, status int) {
	view, err := s.View()
	if err != nil {
		log.Error().Err(err).Str("session_id", s.ID()).Msg("Failed to build session view")
		http.Error(w, "failed to build view", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, view)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Info().Msgf("Failed to encode response: %v", err)
	}
}

// writeError maps the checkout error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrSessionNotFound),
		errors.Is(err, checkout.ErrUnknownLineItem),
		errors.Is(err, catalog.ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, checkout.ErrSessionClosed):
		http.Error(w, err.Error(), http.StatusGone)
	case errors.Is(err, checkout.ErrSubmissionPending):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, checkout.ErrAddressRequired),
		errors.Is(err, checkout.ErrPaymentMethodRequired),
		errors.Is(err, checkout.ErrNotAtReview),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrNegativeTip),
		errors.Is(err, checkout.ErrUnknownAddress),
		errors.Is(err, checkout.ErrUnknownPaymentMethod),
		errors.Is(err, checkout.ErrUnknownDeliveryOption),
		errors.Is(err, pricing.ErrInvalidConfiguration):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		log.Info().Msgf("Unhandled checkout error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
