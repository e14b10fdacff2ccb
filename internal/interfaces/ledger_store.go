package interfaces

import (
	"context"

	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models"
)

// LedgerStore persists ledger entries. Reads never return soft-deleted
// entries.
type LedgerStore interface {
	SaveEntry(ctx context.Context, entry models.LedgerEntry) error
	SoftDeleteEntry(ctx context.Context, id string) error
	GetEntriesByParty(ctx context.Context, partyID string) ([]models.LedgerEntry, error)
	GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error)
}
