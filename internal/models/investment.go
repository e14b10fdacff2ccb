package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Investment is one contribution of a party to a company. The amount is
// fixed at creation.
type Investment struct {
	ID         string          `json:"id" gorm:"primaryKey;size:36"`
	PartyID    string          `json:"party_id" gorm:"size:36;index;not null"`
	CompanyID  string          `json:"company_id" gorm:"size:36;index;not null"`
	CampaignID string          `json:"campaign_id,omitempty" gorm:"size:36;index"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(20,2);not null"`
	Dividend   decimal.Decimal `json:"dividend" gorm:"type:numeric(20,2);not null;default:0"`
	CreatedAt  time.Time       `json:"created_at"`
	DeletedAt  gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (Investment) TableName() string {
	return "investments"
}

func NewInvestment(partyID, companyID, campaignID string, amount decimal.Decimal, at time.Time) Investment {
	return Investment{
		ID:         uuid.New().String(),
		PartyID:    partyID,
		CompanyID:  companyID,
		CampaignID: campaignID,
		Amount:     amount,
		Dividend:   decimal.Zero,
		CreatedAt:  at,
	}
}

func (i Investment) Active() bool {
	return !i.DeletedAt.Valid
}

func (i Investment) Reference() *Reference {
	return &Reference{Kind: RefInvestment, ID: i.ID}
}
