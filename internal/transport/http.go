package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quickbite/checkout-service/internal/handler"
)

func NewRouter(h *handler.CheckoutHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/", h.Begin)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetView)
			r.Delete("/", h.Discard)
			r.Get("/notifications", h.Notifications)

			r.Put("/address", h.SelectAddress)
			r.Put("/payment-method", h.SelectPaymentMethod)
			r.Put("/delivery-option", h.SelectDeliveryOption)
			r.Put("/tip", h.SetTip)
			r.Put("/instructions", h.SetInstructions)
			r.Post("/promo-code", h.ApplyPromoCode)
			r.Delete("/promo-code", h.RemovePromoCode)

			r.Post("/items", h.AddItem)
			r.Put("/items/{lineID}", h.UpdateItemQuantity)
			r.Delete("/items/{lineID}", h.RemoveItem)

			r.Post("/advance", h.Advance)
			r.Post("/back", h.Back)
			r.Post("/submit", h.Submit)
		})
	})

	return r
}
