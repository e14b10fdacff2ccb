package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement marks that a company's raised amount has been credited to
// its wallet. At most one exists per company.
type Settlement struct {
	ID         string          `json:"id" gorm:"primaryKey;size:36"`
	CompanyID  string          `json:"company_id" gorm:"size:36;uniqueIndex;not null"`
	CampaignID string          `json:"campaign_id,omitempty" gorm:"size:36;index"`
	EntryID    string          `json:"entry_id" gorm:"size:36;not null"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(20,2);not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (Settlement) TableName() string {
	return "settlements"
}

// NewSettlement records entry as the settlement credit of companyID. The
// campaign is taken from the entry's reference when it points at one.
func NewSettlement(companyID string, entry LedgerEntry) Settlement {
	settlement := Settlement{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		EntryID:   entry.ID,
		Amount:    entry.Amount,
		CreatedAt: entry.CreatedAt,
	}
	if ref := entry.Reference(); ref != nil && ref.Kind == RefCampaign {
		settlement.CampaignID = ref.ID
	}
	return settlement
}
