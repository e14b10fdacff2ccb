package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CampaignStatus is stored as an integer; the numbering is persisted and
// must not change.
type CampaignStatus int

const (
	CampaignFunding  CampaignStatus = 1
	CampaignComplete CampaignStatus = 2
	CampaignDividend CampaignStatus = 3
)

func (s CampaignStatus) String() string {
	switch s {
	case CampaignFunding:
		return "funding"
	case CampaignComplete:
		return "complete"
	case CampaignDividend:
		return "dividend"
	}
	return fmt.Sprintf("CampaignStatus(%d)", int(s))
}

func (s CampaignStatus) Valid() bool {
	return s >= CampaignFunding && s <= CampaignDividend
}

// CanAdvanceTo reports whether next is the single step forward from s.
// There is no way back.
func (s CampaignStatus) CanAdvanceTo(next CampaignStatus) bool {
	return s.Valid() && next == s+1 && next.Valid()
}

func ParseCampaignStatus(v string) (CampaignStatus, error) {
	switch v {
	case "funding":
		return CampaignFunding, nil
	case "complete":
		return CampaignComplete, nil
	case "dividend":
		return CampaignDividend, nil
	}
	return 0, fmt.Errorf("unknown campaign status %q", v)
}

func (s CampaignStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid campaign status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *CampaignStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseCampaignStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Campaign is one fundraising round of a company.
type Campaign struct {
	ID        string          `json:"id" gorm:"primaryKey;size:36"`
	CompanyID string          `json:"company_id" gorm:"size:36;index;not null"`
	Code      string          `json:"code" gorm:"size:6"`
	Target    decimal.Decimal `json:"target" gorm:"type:numeric(20,2);not null"`
	Status    CampaignStatus  `json:"status" gorm:"not null;default:1;index"`
	Started   time.Time       `json:"started" gorm:"index;not null"`
	TimeLimit *int            `json:"time_limit,omitempty"` // days
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func NewCampaign(company Company, code string, started time.Time, timeLimit *int, at time.Time) Campaign {
	return Campaign{
		ID:        uuid.New().String(),
		CompanyID: company.ID,
		Code:      code,
		Target:    company.InvestmentNeeded,
		Status:    CampaignFunding,
		Started:   started,
		TimeLimit: timeLimit,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// Deadline returns the end of the campaign, or false when it has no limit.
func (c Campaign) Deadline() (time.Time, bool) {
	if c.TimeLimit == nil {
		return time.Time{}, false
	}
	return c.Started.AddDate(0, 0, *c.TimeLimit), true
}

func (c Campaign) Expired(now time.Time) bool {
	deadline, ok := c.Deadline()
	return ok && !now.Before(deadline)
}
