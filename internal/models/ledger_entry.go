package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntry represents a single signed movement on a party's wallet.
// Entries are never updated; corrections are soft-deleted or offset.
type LedgerEntry struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	PartyID     string          `json:"party_id" gorm:"size:36;index;not null"`
	PartyKind   PartyKind       `json:"party_kind" gorm:"size:16;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(20,2);not null"` // positive credit, negative debit
	Description string          `json:"description,omitempty" gorm:"size:255"`
	RefKind     ReferenceKind   `json:"reference_kind,omitempty" gorm:"size:32"`
	RefID       string          `json:"reference_id,omitempty" gorm:"size:36;index"`
	CreatedAt   time.Time       `json:"created_at"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// NewLedgerEntry builds an entry with a fresh id. ref may be nil.
func NewLedgerEntry(party Party, amount decimal.Decimal, description string, ref *Reference, at time.Time) LedgerEntry {
	entry := LedgerEntry{
		ID:          uuid.New().String(),
		PartyID:     party.ID,
		PartyKind:   party.Kind,
		Amount:      amount,
		Description: description,
		CreatedAt:   at,
	}
	if ref != nil {
		entry.RefKind = ref.Kind
		entry.RefID = ref.ID
	}
	return entry
}

// Reference returns the object that caused the entry, or nil.
func (e LedgerEntry) Reference() *Reference {
	if e.RefKind == "" {
		return nil
	}
	return &Reference{Kind: e.RefKind, ID: e.RefID}
}

// Active reports whether the entry counts towards balances.
func (e LedgerEntry) Active() bool {
	return !e.DeletedAt.Valid
}
