package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount    = errors.New("amount must be non-zero with at most two decimal places")
	ErrInvalidParty     = errors.New("party id and kind are required")
	ErrInvalidReference = errors.New("reference needs a known kind and an id")
)

// Ledger is the wallet service: every credit or debit of a party goes
// through it as an append-only entry.
type Ledger struct {
	store interfaces.Store
	muMap map[string]*sync.Mutex // one mutex per party id
	mapMu sync.Mutex             // protects muMap
	now   func() time.Time
}

func NewLedger(store interfaces.Store) *Ledger {
	return &Ledger{
		store: store,
		muMap: make(map[string]*sync.Mutex),
		now:   time.Now,
	}
}

func (l *Ledger) getPartyLock(partyID string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[partyID]; !exists {
		l.muMap[partyID] = &sync.Mutex{}
	}
	return l.muMap[partyID]
}

// LockParties takes the in-process locks of the given parties and returns
// the function releasing them. Locks are always taken in id order so two
// callers locking the same pair cannot deadlock.
func (l *Ledger) LockParties(partyIDs ...string) (unlock func()) {
	ids := make([]string, 0, len(partyIDs))
	seen := make(map[string]bool, len(partyIDs))
	for _, id := range partyIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	locks := make([]*sync.Mutex, len(ids))
	for i, id := range ids {
		locks[i] = l.getPartyLock(id)
		locks[i].Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

// PostEntry appends a signed entry for party in its own transaction. No
// balance check happens here; preventing overdrafts is up to the caller.
func (l *Ledger) PostEntry(ctx context.Context, party models.Party, amount decimal.Decimal, description string, ref *models.Reference) (models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := l.store.WithTx(ctx, func(tx interfaces.Store) error {
		var err error
		entry, err = l.Post(ctx, tx, party, amount, description, ref)
		return err
	})
	if err != nil {
		return models.LedgerEntry{}, err
	}
	return entry, nil
}

// Post validates and appends an entry through store, which is usually a
// transaction opened by the caller.
func (l *Ledger) Post(ctx context.Context, store interfaces.LedgerStore, party models.Party, amount decimal.Decimal, description string, ref *models.Reference) (models.LedgerEntry, error) {
	if amount.IsZero() || !models.FitsMoneyScale(amount) {
		return models.LedgerEntry{}, ErrInvalidAmount
	}
	if party.ID == "" || !party.Kind.Valid() {
		return models.LedgerEntry{}, ErrInvalidParty
	}
	if ref != nil && !ref.Valid() {
		return models.LedgerEntry{}, ErrInvalidReference
	}

	entry := models.NewLedgerEntry(party, amount, description, ref, l.now())
	if err := store.SaveEntry(ctx, entry); err != nil {
		return models.LedgerEntry{}, err
	}
	return entry, nil
}

// VoidEntry soft-deletes an entry so it stops counting towards balances.
func (l *Ledger) VoidEntry(ctx context.Context, entryID string) error {
	return l.store.SoftDeleteEntry(ctx, entryID)
}

// Balance is recomputed from the entries on every call.
func (l *Ledger) Balance(ctx context.Context, partyID string) (decimal.Decimal, error) {
	return l.BalanceOf(ctx, l.store, partyID)
}

// BalanceOf sums the active entries of partyID as seen by store.
func (l *Ledger) BalanceOf(ctx context.Context, store interfaces.LedgerStore, partyID string) (decimal.Decimal, error) {
	ledgerEntries, err := store.GetEntriesByParty(ctx, partyID)
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, ledgerEntry := range ledgerEntries {
		if !ledgerEntry.Active() {
			continue
		}
		balance = balance.Add(ledgerEntry.Amount)
	}
	return balance, nil
}

func (l *Ledger) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	ledgerEntries, err := l.store.GetLedgerEntries(ctx)
	if err != nil {
		return []models.LedgerEntry{}, err
	}
	return ledgerEntries, nil
}

func (l *Ledger) GetPartyEntries(ctx context.Context, partyID string) ([]models.LedgerEntry, error) {
	ledgerEntries, err := l.store.GetEntriesByParty(ctx, partyID)
	if err != nil {
		return []models.LedgerEntry{}, err
	}
	return ledgerEntries, nil
}
