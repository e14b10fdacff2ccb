package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const TopicInvestmentCreated = "investment_created"

type InvestmentCreated struct {
	InvestmentID string          `json:"investment_id"`
	PartyID      string          `json:"party_id"`
	CompanyID    string          `json:"company_id"`
	CampaignID   string          `json:"campaign_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	OccurredAt   time.Time       `json:"occurred_at"`
}
