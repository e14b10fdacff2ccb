package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/storage"
	"gorm.io/gorm"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.Store.
// A transaction holds the write lock for its whole duration, so readers
// never observe half of a transaction.
type MemoryLedgerStore struct {
	mu    sync.RWMutex
	state *state
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{state: newState()}
}

// WithTx runs fn with exclusive access to the store. If fn returns an
// error every write it made is rolled back.
func (m *MemoryLedgerStore) WithTx(ctx context.Context, fn func(tx interfaces.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(&txStore{state: m.state}); err != nil {
		*m.state = *snapshot
		return err
	}
	return nil
}

func (m *MemoryLedgerStore) write(fn func(s *state) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.state)
}

func (m *MemoryLedgerStore) SaveEntry(ctx context.Context, entry models.LedgerEntry) error {
	return m.write(func(s *state) error { return s.SaveEntry(ctx, entry) })
}

func (m *MemoryLedgerStore) SoftDeleteEntry(ctx context.Context, id string) error {
	return m.write(func(s *state) error { return s.SoftDeleteEntry(ctx, id) })
}

// GetLedgerEntries returns a copy of all active entries.
func (m *MemoryLedgerStore) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetLedgerEntries(ctx)
}

func (m *MemoryLedgerStore) GetEntriesByParty(ctx context.Context, partyID string) ([]models.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetEntriesByParty(ctx, partyID)
}

func (m *MemoryLedgerStore) SaveCompany(ctx context.Context, company models.Company) error {
	return m.write(func(s *state) error { return s.SaveCompany(ctx, company) })
}

func (m *MemoryLedgerStore) GetCompany(ctx context.Context, id string) (models.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetCompany(ctx, id)
}

// LockCompany outside a transaction is a plain read; the lock only has a
// meaning inside WithTx where the whole store is already exclusive.
func (m *MemoryLedgerStore) LockCompany(ctx context.Context, id string) (models.Company, error) {
	return m.GetCompany(ctx, id)
}

func (m *MemoryLedgerStore) SaveCampaign(ctx context.Context, campaign models.Campaign) error {
	return m.write(func(s *state) error { return s.SaveCampaign(ctx, campaign) })
}

func (m *MemoryLedgerStore) GetCampaign(ctx context.Context, id string) (models.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetCampaign(ctx, id)
}

func (m *MemoryLedgerStore) GetCampaignsByStatus(ctx context.Context, status models.CampaignStatus) ([]models.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetCampaignsByStatus(ctx, status)
}

func (m *MemoryLedgerStore) UpdateCampaignStatus(ctx context.Context, id string, from, to models.CampaignStatus) error {
	return m.write(func(s *state) error { return s.UpdateCampaignStatus(ctx, id, from, to) })
}

func (m *MemoryLedgerStore) SaveInvestment(ctx context.Context, investment models.Investment) error {
	return m.write(func(s *state) error { return s.SaveInvestment(ctx, investment) })
}

func (m *MemoryLedgerStore) GetInvestment(ctx context.Context, id string) (models.Investment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetInvestment(ctx, id)
}

func (m *MemoryLedgerStore) GetInvestmentsByCompany(ctx context.Context, companyID string) ([]models.Investment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetInvestmentsByCompany(ctx, companyID)
}

func (m *MemoryLedgerStore) SoftDeleteInvestment(ctx context.Context, id string) error {
	return m.write(func(s *state) error { return s.SoftDeleteInvestment(ctx, id) })
}

func (m *MemoryLedgerStore) SaveSettlement(ctx context.Context, settlement models.Settlement) error {
	return m.write(func(s *state) error { return s.SaveSettlement(ctx, settlement) })
}

func (m *MemoryLedgerStore) GetSettlement(ctx context.Context, companyID string) (models.Settlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetSettlement(ctx, companyID)
}

// txStore is the view handed to WithTx callbacks. The store lock is
// already held, so it talks to the state directly.
type txStore struct {
	*state
}

// WithTx inside a transaction joins the outer one.
func (t *txStore) WithTx(ctx context.Context, fn func(tx interfaces.Store) error) error {
	return fn(t)
}

func (t *txStore) LockCompany(ctx context.Context, id string) (models.Company, error) {
	return t.state.GetCompany(ctx, id)
}

// state holds the data. None of its methods lock.
type state struct {
	entries     []models.LedgerEntry
	companies   map[string]models.Company
	campaigns   map[string]models.Campaign
	investments []models.Investment
	settlements map[string]models.Settlement // keyed by company id
}

func newState() *state {
	return &state{
		entries:     make([]models.LedgerEntry, 0),
		companies:   make(map[string]models.Company),
		campaigns:   make(map[string]models.Campaign),
		investments: make([]models.Investment, 0),
		settlements: make(map[string]models.Settlement),
	}
}

func (s *state) clone() *state {
	c := &state{
		entries:     append([]models.LedgerEntry(nil), s.entries...),
		companies:   make(map[string]models.Company, len(s.companies)),
		campaigns:   make(map[string]models.Campaign, len(s.campaigns)),
		investments: append([]models.Investment(nil), s.investments...),
		settlements: make(map[string]models.Settlement, len(s.settlements)),
	}
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.campaigns {
		c.campaigns[k] = v
	}
	for k, v := range s.settlements {
		c.settlements[k] = v
	}
	return c
}

func deletedNow() gorm.DeletedAt {
	return gorm.DeletedAt{Time: time.Now(), Valid: true}
}

func (s *state) SaveEntry(_ context.Context, entry models.LedgerEntry) error {
	for _, e := range s.entries {
		if e.ID == entry.ID {
			return storage.ErrDuplicate
		}
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *state) SoftDeleteEntry(_ context.Context, id string) error {
	for i := range s.entries {
		if s.entries[i].ID == id && s.entries[i].Active() {
			s.entries[i].DeletedAt = deletedNow()
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *state) GetLedgerEntries(_ context.Context) ([]models.LedgerEntry, error) {
	result := make([]models.LedgerEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Active() {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *state) GetEntriesByParty(_ context.Context, partyID string) ([]models.LedgerEntry, error) {
	var result []models.LedgerEntry
	for _, e := range s.entries {
		if e.PartyID == partyID && e.Active() {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *state) SaveCompany(_ context.Context, company models.Company) error {
	if _, exists := s.companies[company.ID]; exists {
		return storage.ErrDuplicate
	}
	s.companies[company.ID] = company
	return nil
}

func (s *state) GetCompany(_ context.Context, id string) (models.Company, error) {
	company, ok := s.companies[id]
	if !ok || company.DeletedAt.Valid {
		return models.Company{}, storage.ErrNotFound
	}
	return company, nil
}

func (s *state) SaveCampaign(_ context.Context, campaign models.Campaign) error {
	if _, exists := s.campaigns[campaign.ID]; exists {
		return storage.ErrDuplicate
	}
	s.campaigns[campaign.ID] = campaign
	return nil
}

func (s *state) GetCampaign(_ context.Context, id string) (models.Campaign, error) {
	campaign, ok := s.campaigns[id]
	if !ok || campaign.DeletedAt.Valid {
		return models.Campaign{}, storage.ErrNotFound
	}
	return campaign, nil
}

func (s *state) GetCampaignsByStatus(_ context.Context, status models.CampaignStatus) ([]models.Campaign, error) {
	var result []models.Campaign
	for _, c := range s.campaigns {
		if c.Status == status && !c.DeletedAt.Valid {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Started.Before(result[j].Started)
	})
	return result, nil
}

func (s *state) UpdateCampaignStatus(_ context.Context, id string, from, to models.CampaignStatus) error {
	campaign, ok := s.campaigns[id]
	if !ok || campaign.DeletedAt.Valid {
		return storage.ErrNotFound
	}
	if campaign.Status != from {
		return storage.ErrConflict
	}
	campaign.Status = to
	campaign.UpdatedAt = time.Now()
	s.campaigns[id] = campaign
	return nil
}

func (s *state) SaveInvestment(_ context.Context, investment models.Investment) error {
	for _, inv := range s.investments {
		if inv.ID == investment.ID {
			return storage.ErrDuplicate
		}
	}
	s.investments = append(s.investments, investment)
	return nil
}

func (s *state) GetInvestment(_ context.Context, id string) (models.Investment, error) {
	for _, inv := range s.investments {
		if inv.ID == id && inv.Active() {
			return inv, nil
		}
	}
	return models.Investment{}, storage.ErrNotFound
}

func (s *state) GetInvestmentsByCompany(_ context.Context, companyID string) ([]models.Investment, error) {
	var result []models.Investment
	for _, inv := range s.investments {
		if inv.CompanyID == companyID && inv.Active() {
			result = append(result, inv)
		}
	}
	return result, nil
}

func (s *state) SoftDeleteInvestment(_ context.Context, id string) error {
	for i := range s.investments {
		if s.investments[i].ID == id && s.investments[i].Active() {
			s.investments[i].DeletedAt = deletedNow()
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *state) SaveSettlement(_ context.Context, settlement models.Settlement) error {
	if _, exists := s.settlements[settlement.CompanyID]; exists {
		return storage.ErrDuplicate
	}
	s.settlements[settlement.CompanyID] = settlement
	return nil
}

func (s *state) GetSettlement(_ context.Context, companyID string) (models.Settlement, error) {
	settlement, ok := s.settlements[companyID]
	if !ok {
		return models.Settlement{}, storage.ErrNotFound
	}
	return settlement, nil
}

// Compile-time check: ensure MemoryLedgerStore implements Store interface
var _ interfaces.Store = (*MemoryLedgerStore)(nil)
var _ interfaces.Store = (*txStore)(nil)
