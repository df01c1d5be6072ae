package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/quickbite/checkout-service/internal/catalog"
	"github.com/quickbite/checkout-service/internal/pricing"
)

// View is the read-only projection of a session for the rendering layer.
type View struct {
	SessionID       string                   `json:"session_id"`
	OrderID         string                   `json:"order_id"`
	State           string                   `json:"state"`
	Step            string                   `json:"step"`
	Lines           []LineView               `json:"lines"`
	Address         *catalog.Address         `json:"address,omitempty"`
	PaymentMethod   *catalog.PaymentMethod   `json:"payment_method,omitempty"`
	DeliveryOption  *catalog.DeliveryOption  `json:"delivery_option,omitempty"`
	Tip             decimal.Decimal          `json:"tip"`
	Instructions    string                   `json:"instructions,omitempty"`
	Promo           *PromoView               `json:"promo,omitempty"`
	Summary         pricing.Summary          `json:"summary"`
	Confirmation    *Confirmation            `json:"confirmation,omitempty"`
	Addresses       []catalog.Address        `json:"addresses"`
	PaymentMethods  []catalog.PaymentMethod  `json:"payment_methods"`
	DeliveryOptions []catalog.DeliveryOption `json:"delivery_options"`
}

type LineView struct {
	ID               string          `json:"id"`
	ItemID           string          `json:"item_id"`
	Name             string          `json:"name"`
	Quantity         int             `json:"quantity"`
	VariationChoices map[string]int  `json:"variation_choices,omitempty"`
	AddOnIndices     []int           `json:"add_on_indices,omitempty"`
	LineTotal        decimal.Decimal `json:"line_total"`
}

type PromoView struct {
	Code        string          `json:"code"`
	Applied     bool            `json:"applied"`
	Confirmed   bool            `json:"confirmed"`
	Discount    decimal.Decimal `json:"discount"`
	Description string          `json:"description,omitempty"`
}

// View snapshots the session under its lock, recomputing the summary from the
// current draft.
func (s *Session) View() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := s.draft.Summary(s.taxRate)
	if err != nil {
		return View{}, err
	}

	lines := make([]LineView, 0, len(s.draft.Lines()))
	for _, line := range s.draft.Lines() {
		total, err := pricing.PriceLineItem(line.Item, line.Config)
		if err != nil {
			return View{}, err
		}
		lines = append(lines, LineView{
			ID:               line.ID,
			ItemID:           line.Item.ID,
			Name:             line.Item.Name,
			Quantity:         line.Config.Quantity,
			VariationChoices: line.Config.VariationChoices,
			AddOnIndices:     line.Config.AddOnIndices,
			LineTotal:        total,
		})
	}

	v := View{
		SessionID:       s.id,
		OrderID:         s.orderID,
		State:           s.state.String(),
		Step:            s.wizard.Step().String(),
		Lines:           lines,
		Address:         s.draft.Address(),
		PaymentMethod:   s.draft.Payment(),
		DeliveryOption:  s.draft.Delivery(),
		Tip:             s.draft.Tip(),
		Instructions:    s.draft.Instructions(),
		Summary:         summary,
		Confirmation:    s.conf,
		Addresses:       s.addresses,
		PaymentMethods:  s.payments,
		DeliveryOptions: s.deliveries,
	}
	if promo := s.draft.PromoCode(); promo != nil {
		v.Promo = &PromoView{
			Code:        promo.Code,
			Applied:     true,
			Confirmed:   promo.Confirmed,
			Discount:    promo.Discount,
			Description: promo.Description,
		}
	}
	return v, nil
}
