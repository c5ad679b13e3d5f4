package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio/{userID}", func(r chi.Router) {
		r.Get("/performance", h.HandleGetPerformance)

		r.Route("/holdings", func(r chi.Router) {
			r.Get("/", h.HandleListHoldings)
			r.Post("/", h.HandleAddHolding)
			r.Put("/{holdingID}", h.HandleUpdateHolding)
			r.Delete("/{holdingID}", h.HandleDeleteHolding)
		})
	})

	r.Get("/market/status", h.HandleMarketStatus)
}
