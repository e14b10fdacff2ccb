package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/events"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/funding"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/storage"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/storage/memory"
	"github.com/shopspring/decimal"
)

func newTestRouter() http.Handler {
	store := memory.NewMemoryLedgerStore()
	l := ledger.NewLedger(store)
	svc := funding.NewService(store, l, events.Nop{}, nil)
	return NewRouter(NewHandler(l, svc, nil))
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body == nil {
		req.ContentLength = 0
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, code int, out any) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, code, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func TestFundingFlow(t *testing.T) {
	h := newTestRouter()

	var company models.Company
	expect(t, do(t, h, http.MethodPost, "/companies/", map[string]any{
		"name":              "Kedai Nasi",
		"investment_needed": "1000000",
	}), http.StatusCreated, &company)

	var campaign models.Campaign
	expect(t, do(t, h, http.MethodPost, "/campaigns/", map[string]any{
		"company_id": company.ID,
	}), http.StatusCreated, &campaign)
	if campaign.Status != models.CampaignFunding {
		t.Fatalf("campaign status: got %s", campaign.Status)
	}

	for i, amount := range []string{"400000", "600000"} {
		user := fmt.Sprintf("user-%d", i)
		expect(t, do(t, h, http.MethodPost, "/entries", map[string]any{
			"party_id":    user,
			"party_kind":  "user",
			"amount":      amount,
			"description": "Top up",
		}), http.StatusCreated, nil)
		expect(t, do(t, h, http.MethodPost, "/investments", map[string]any{
			"party_id":    user,
			"campaign_id": campaign.ID,
			"amount":      amount,
		}), http.StatusCreated, nil)
	}

	var raised raisedResponse
	expect(t, do(t, h, http.MethodGet, "/companies/"+company.ID+"/raised", nil), http.StatusOK, &raised)
	if !raised.RaisedAmount.Equal(decimal.RequireFromString("1000000")) || raised.Settled {
		t.Fatalf("raised: got %+v", raised)
	}

	var entry models.LedgerEntry
	expect(t, do(t, h, http.MethodPost, "/companies/"+company.ID+"/settlement", nil), http.StatusCreated, &entry)
	if entry.Description != funding.DefaultSettlementDescription {
		t.Errorf("description: got %q", entry.Description)
	}

	var errResp ErrorResponse
	expect(t, do(t, h, http.MethodPost, "/companies/"+company.ID+"/settlement", nil), http.StatusConflict, &errResp)
	if errResp.Error == "" {
		t.Error("conflict response has no message")
	}

	var balance balanceResponse
	expect(t, do(t, h, http.MethodGet, "/parties/"+company.ID+"/balance", nil), http.StatusOK, &balance)
	if !balance.Balance.Equal(decimal.RequireFromString("1000000")) {
		t.Errorf("company balance: got %s", balance.Balance)
	}

	expect(t, do(t, h, http.MethodPost, "/campaigns/"+campaign.ID+"/status", map[string]any{
		"status": "complete",
	}), http.StatusOK, &campaign)
	if campaign.Status != models.CampaignComplete {
		t.Errorf("campaign status: got %s", campaign.Status)
	}
	expect(t, do(t, h, http.MethodPost, "/campaigns/"+campaign.ID+"/status", map[string]any{
		"status": "funding",
	}), http.StatusConflict, nil)
}

func TestSettleBelowTarget(t *testing.T) {
	h := newTestRouter()

	var company models.Company
	expect(t, do(t, h, http.MethodPost, "/companies/", map[string]any{
		"name":              "Bengkel",
		"investment_needed": "1000",
	}), http.StatusCreated, &company)

	expect(t, do(t, h, http.MethodPost, "/companies/"+company.ID+"/settlement", map[string]any{
		"description": "Addition",
	}), http.StatusUnprocessableEntity, nil)

	var entries []models.LedgerEntry
	expect(t, do(t, h, http.MethodGet, "/ledgerEntries", nil), http.StatusOK, &entries)
	if len(entries) != 0 {
		t.Errorf("entries: got %d, want 0", len(entries))
	}
}

func TestBadRequests(t *testing.T) {
	h := newTestRouter()

	tests := []struct {
		desc   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown field", http.MethodPost, "/entries", map[string]any{"bogus": 1}, http.StatusBadRequest},
		{"zero amount", http.MethodPost, "/entries", map[string]any{"party_id": "u", "party_kind": "user", "amount": "0"}, http.StatusBadRequest},
		{"sub-cent amount", http.MethodPost, "/entries", map[string]any{"party_id": "u", "party_kind": "user", "amount": "0.004"}, http.StatusBadRequest},
		{"bad party kind", http.MethodPost, "/entries", map[string]any{"party_id": "u", "party_kind": "bank", "amount": "1"}, http.StatusBadRequest},
		{"company without target", http.MethodPost, "/companies/", map[string]any{"name": "x", "investment_needed": "0"}, http.StatusBadRequest},
		{"unknown company", http.MethodGet, "/companies/missing", nil, http.StatusNotFound},
		{"unknown campaign", http.MethodGet, "/campaigns/missing", nil, http.StatusNotFound},
		{"bad status", http.MethodPost, "/campaigns/missing/status", map[string]any{"status": "closed"}, http.StatusBadRequest},
		{"unknown investment", http.MethodDelete, "/investments/missing", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", ledger.ErrInvalidAmount), http.StatusBadRequest},
		{funding.ErrInvalidCampaign, http.StatusBadRequest},
		{funding.ErrAlreadySettled, http.StatusConflict},
		{funding.ErrCampaignClosed, http.StatusConflict},
		{storage.ErrDuplicate, http.StatusConflict},
		{funding.ErrTargetNotReached, http.StatusUnprocessableEntity},
		{funding.ErrNegativeRaised, http.StatusUnprocessableEntity},
		{funding.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{storage.Wrap("save entry", errors.New("connection reset")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v): got %d, want %d", tt.err, got, tt.want)
		}
	}
}
