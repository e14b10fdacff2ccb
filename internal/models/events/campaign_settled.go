package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const TopicCampaignSettled = "campaign_settled"

type CampaignSettled struct {
	SettlementID string          `json:"settlement_id"`
	CompanyID    string          `json:"company_id"`
	CampaignID   string          `json:"campaign_id,omitempty"`
	EntryID      string          `json:"entry_id"`
	Amount       decimal.Decimal `json:"amount"`
	OccurredAt   time.Time       `json:"occurred_at"`
}
