package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/launchpad/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса лаунчпада.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Route("/api/assets/{token}", func(r chi.Router) {
			r.Get("/balance", h.GetBalance)
			r.Post("/approve", h.Approve)
			r.Post("/transfer", h.Transfer)
			r.Post("/mint", h.Mint)
		})

		r.Post("/api/fundings", h.CreateFunding)
		r.Route("/api/fundings/{id}", func(r chi.Router) {
			r.Get("/", h.GetFunding)
			r.Get("/owners", h.GetOwners)

			r.Get("/instruments/{kind}", h.GetInstrument)
			r.Post("/instruments/{kind}/buy", h.Buy)
			r.Get("/holdings", h.GetHoldings)
			r.Post("/claim", h.Claim)

			r.Post("/stakes", h.Stake)
			r.Get("/stakes", h.GetPositions)
			r.Get("/stakes/{position}", h.GetPosition)
			r.Post("/stakes/{position}/unstake", h.Unstake)
			r.Post("/stakes/{position}/claim", h.ClaimStake)

			r.Get("/reserve", h.GetReserve)
			r.Post("/withdraw", h.Withdraw)
			r.Post("/proposals", h.CreateProposal)
			r.Get("/proposals", h.GetProposals)

			r.Get("/events", h.GetEvents)
		})

		r.Post("/api/proposals/{id}/votes", h.Vote)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
