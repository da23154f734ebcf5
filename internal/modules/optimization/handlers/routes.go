package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SearchTimeout bounds synchronous search requests
const SearchTimeout = 10 * time.Minute

// RegisterRoutes registers all optimization routes under /api/v1
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/observations/summary", h.HandleGetSummary)
		r.Post("/decide", h.HandleDecide)
		r.Post("/backtest", h.HandleBacktest)

		r.Route("/search", func(r chi.Router) {
			r.With(middleware.Timeout(SearchTimeout)).Post("/", h.HandleSearch)
			r.Get("/latest", h.HandleGetLatest)
			r.Get("/stream", h.HandleStream) // websocket, cancelled when the client disconnects
		})
	})
}
