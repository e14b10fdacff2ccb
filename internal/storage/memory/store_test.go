package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/storage"
	"github.com/shopspring/decimal"
)

func entry(party string, amount int64) models.LedgerEntry {
	return models.NewLedgerEntry(models.UserParty(party), decimal.NewFromInt(amount), "test", nil, time.Now())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLedgerStore()
	company := models.NewCompany("Acme", decimal.NewFromInt(100), time.Now())
	if err := s.SaveCompany(ctx, company); err != nil {
		t.Fatalf("SaveCompany: %v", err)
	}

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx interfaces.Store) error {
		if err := tx.SaveEntry(ctx, entry("user-1", 10)); err != nil {
			return err
		}
		inv := models.NewInvestment("user-1", company.ID, "", decimal.NewFromInt(10), time.Now())
		if err := tx.SaveInvestment(ctx, inv); err != nil {
			return err
		}
		if err := tx.SaveSettlement(ctx, models.Settlement{ID: "s1", CompanyID: company.ID}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx: got %v, want boom", err)
	}

	entries, _ := s.GetLedgerEntries(ctx)
	if len(entries) != 0 {
		t.Errorf("entries after rollback: got %d, want 0", len(entries))
	}
	investments, _ := s.GetInvestmentsByCompany(ctx, company.ID)
	if len(investments) != 0 {
		t.Errorf("investments after rollback: got %d, want 0", len(investments))
	}
	if _, err := s.GetSettlement(ctx, company.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("settlement after rollback: got %v, want ErrNotFound", err)
	}
	if _, err := s.GetCompany(ctx, company.ID); err != nil {
		t.Errorf("company written before the tx is gone: %v", err)
	}
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLedgerStore()

	err := s.WithTx(ctx, func(tx interfaces.Store) error {
		// Nested transactions join the outer one.
		return tx.WithTx(ctx, func(inner interfaces.Store) error {
			return inner.SaveEntry(ctx, entry("user-1", 5))
		})
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	entries, _ := s.GetEntriesByParty(ctx, "user-1")
	if len(entries) != 1 {
		t.Errorf("entries: got %d, want 1", len(entries))
	}
}

func TestWithTxCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewMemoryLedgerStore().WithTx(ctx, func(interfaces.Store) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if called {
		t.Error("callback ran on a cancelled context")
	}
}

func TestSoftDeletedRowsAreHidden(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLedgerStore()

	keep, drop := entry("user-1", 1), entry("user-1", 2)
	for _, e := range []models.LedgerEntry{keep, drop} {
		if err := s.SaveEntry(ctx, e); err != nil {
			t.Fatalf("SaveEntry: %v", err)
		}
	}
	if err := s.SoftDeleteEntry(ctx, drop.ID); err != nil {
		t.Fatalf("SoftDeleteEntry: %v", err)
	}
	entries, _ := s.GetEntriesByParty(ctx, "user-1")
	if len(entries) != 1 || entries[0].ID != keep.ID {
		t.Errorf("entries: got %+v", entries)
	}

	inv := models.NewInvestment("user-1", "company-1", "", decimal.NewFromInt(3), time.Now())
	if err := s.SaveInvestment(ctx, inv); err != nil {
		t.Fatalf("SaveInvestment: %v", err)
	}
	if err := s.SoftDeleteInvestment(ctx, inv.ID); err != nil {
		t.Fatalf("SoftDeleteInvestment: %v", err)
	}
	if _, err := s.GetInvestment(ctx, inv.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetInvestment: got %v, want ErrNotFound", err)
	}
	if err := s.SoftDeleteInvestment(ctx, inv.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLedgerStore()

	e := entry("user-1", 1)
	if err := s.SaveEntry(ctx, e); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	if err := s.SaveEntry(ctx, e); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate entry: got %v, want ErrDuplicate", err)
	}

	first := models.Settlement{ID: "a", CompanyID: "company-1"}
	second := models.Settlement{ID: "b", CompanyID: "company-1"}
	if err := s.SaveSettlement(ctx, first); err != nil {
		t.Fatalf("SaveSettlement: %v", err)
	}
	if err := s.SaveSettlement(ctx, second); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("second settlement: got %v, want ErrDuplicate", err)
	}
	got, err := s.GetSettlement(ctx, "company-1")
	if err != nil || got.ID != first.ID {
		t.Errorf("GetSettlement: got %+v, %v", got, err)
	}
}

func TestUpdateCampaignStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLedgerStore()
	company := models.NewCompany("Acme", decimal.NewFromInt(100), time.Now())
	campaign := models.NewCampaign(company, "abcdef", time.Now(), nil, time.Now())
	if err := s.SaveCampaign(ctx, campaign); err != nil {
		t.Fatalf("SaveCampaign: %v", err)
	}

	if err := s.UpdateCampaignStatus(ctx, campaign.ID, models.CampaignComplete, models.CampaignDividend); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("stale from: got %v, want ErrConflict", err)
	}
	if err := s.UpdateCampaignStatus(ctx, campaign.ID, models.CampaignFunding, models.CampaignComplete); err != nil {
		t.Fatalf("UpdateCampaignStatus: %v", err)
	}
	if err := s.UpdateCampaignStatus(ctx, "missing", models.CampaignFunding, models.CampaignComplete); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing campaign: got %v, want ErrNotFound", err)
	}

	funding, _ := s.GetCampaignsByStatus(ctx, models.CampaignFunding)
	complete, _ := s.GetCampaignsByStatus(ctx, models.CampaignComplete)
	if len(funding) != 0 || len(complete) != 1 {
		t.Errorf("by status: funding %d, complete %d", len(funding), len(complete))
	}
}

func TestGetCampaignsByStatusOrdersByStart(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLedgerStore()
	company := models.NewCompany("Acme", decimal.NewFromInt(100), time.Now())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, days := range []int{5, 1, 3} {
		c := models.NewCampaign(company, "abcdef", base.AddDate(0, 0, days), nil, time.Now())
		if err := s.SaveCampaign(ctx, c); err != nil {
			t.Fatalf("SaveCampaign: %v", err)
		}
	}
	campaigns, err := s.GetCampaignsByStatus(ctx, models.CampaignFunding)
	if err != nil {
		t.Fatalf("GetCampaignsByStatus: %v", err)
	}
	for i := 1; i < len(campaigns); i++ {
		if campaigns[i].Started.Before(campaigns[i-1].Started) {
			t.Errorf("campaigns out of order at %d", i)
		}
	}
}
