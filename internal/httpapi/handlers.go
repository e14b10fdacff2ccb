package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/funding"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Handler struct {
	ledger  *ledger.Ledger
	funding *funding.Service
	log     *zap.Logger
}

func NewHandler(l *ledger.Ledger, f *funding.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{ledger: l, funding: f, log: log}
}

type postEntryRequest struct {
	PartyID     string            `json:"party_id"`
	PartyKind   models.PartyKind  `json:"party_kind"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Reference   *models.Reference `json:"reference,omitempty"`
}

type balanceResponse struct {
	PartyID string          `json:"party_id"`
	Balance decimal.Decimal `json:"balance"`
}

type registerCompanyRequest struct {
	Name             string          `json:"name"`
	InvestmentNeeded decimal.Decimal `json:"investment_needed"`
}

type raisedResponse struct {
	CompanyID    string          `json:"company_id"`
	RaisedAmount decimal.Decimal `json:"raised_amount"`
	Target       decimal.Decimal `json:"target"`
	Settled      bool            `json:"settled"`
}

type settleRequest struct {
	Reference   *models.Reference `json:"reference,omitempty"`
	Description string            `json:"description"`
}

type openCampaignRequest struct {
	CompanyID string    `json:"company_id"`
	Started   time.Time `json:"started"`
	TimeLimit *int      `json:"time_limit,omitempty"`
}

type advanceCampaignRequest struct {
	Status models.CampaignStatus `json:"status"`
}

func (h *Handler) PostEntry(w http.ResponseWriter, r *http.Request) {
	var req postEntryRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	party := models.Party{ID: req.PartyID, Kind: req.PartyKind}
	entry, err := h.ledger.PostEntry(r.Context(), party, req.Amount, req.Description, req.Reference)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) LedgerEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.GetLedgerEntries(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	partyID := chi.URLParam(r, "id")
	balance, err := h.ledger.Balance(r.Context(), partyID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, balanceResponse{PartyID: partyID, Balance: balance})
}

func (h *Handler) PartyEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.GetPartyEntries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) RegisterCompany(w http.ResponseWriter, r *http.Request) {
	var req registerCompanyRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	company, err := h.funding.RegisterCompany(r.Context(), req.Name, req.InvestmentNeeded)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, company)
}

func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.funding.GetCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, company)
}

func (h *Handler) RaisedAmount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	company, err := h.funding.GetCompany(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	raised, err := h.funding.RaisedAmount(ctx, company.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	settled, err := h.funding.IsSettled(ctx, company.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, raisedResponse{
		CompanyID:    company.ID,
		RaisedAmount: raised,
		Target:       company.InvestmentNeeded,
		Settled:      settled,
	})
}

func (h *Handler) SettleCampaign(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	entry, err := h.funding.SettleCampaign(r.Context(), chi.URLParam(r, "id"), req.Reference, req.Description)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) OpenCampaign(w http.ResponseWriter, r *http.Request) {
	var req openCampaignRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	campaign, err := h.funding.OpenCampaign(r.Context(), req.CompanyID, req.Started, req.TimeLimit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, campaign)
}

func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.funding.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, campaign)
}

func (h *Handler) AdvanceCampaign(w http.ResponseWriter, r *http.Request) {
	var req advanceCampaignRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	campaign, err := h.funding.AdvanceCampaign(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, campaign)
}

func (h *Handler) Invest(w http.ResponseWriter, r *http.Request) {
	var req funding.InvestRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	investment, err := h.funding.Invest(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, investment)
}

func (h *Handler) CancelInvestment(w http.ResponseWriter, r *http.Request) {
	refund, err := h.funding.CancelInvestment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, refund)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		WriteError(w, code, "internal error")
		return
	}
	WriteError(w, code, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidParty),
		errors.Is(err, ledger.ErrInvalidReference),
		errors.Is(err, funding.ErrInvalidCompany),
		errors.Is(err, funding.ErrInvalidCampaign),
		errors.Is(err, funding.ErrInvalidInvestment):
		return http.StatusBadRequest
	case errors.Is(err, funding.ErrAlreadySettled),
		errors.Is(err, funding.ErrInvalidTransition),
		errors.Is(err, funding.ErrCampaignClosed),
		errors.Is(err, storage.ErrDuplicate),
		errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, funding.ErrTargetNotReached),
		errors.Is(err, funding.ErrNegativeRaised),
		errors.Is(err, funding.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
