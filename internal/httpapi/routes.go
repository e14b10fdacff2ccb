package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/entries", h.PostEntry)
	r.Get("/ledgerEntries", h.LedgerEntries)
	r.Get("/parties/{id}/balance", h.Balance)
	r.Get("/parties/{id}/entries", h.PartyEntries)

	r.Route("/companies", func(r chi.Router) {
		r.Post("/", h.RegisterCompany)
		r.Get("/{id}", h.GetCompany)
		r.Get("/{id}/raised", h.RaisedAmount)
		r.Post("/{id}/settlement", h.SettleCampaign)
	})

	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", h.OpenCampaign)
		r.Get("/{id}", h.GetCampaign)
		r.Post("/{id}/status", h.AdvanceCampaign)
	})

	r.Post("/investments", h.Invest)
	r.Delete("/investments/{id}", h.CancelInvestment)

	return r
}
