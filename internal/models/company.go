package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Company is a listed business raising money. Its id doubles as the
// ledger party id of its wallet.
type Company struct {
	ID               string          `json:"id" gorm:"primaryKey;size:36"`
	Name             string          `json:"name" gorm:"size:150;not null"`
	InvestmentNeeded decimal.Decimal `json:"investment_needed" gorm:"type:numeric(20,2);not null"` // funding target
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (Company) TableName() string {
	return "companies"
}

func NewCompany(name string, investmentNeeded decimal.Decimal, at time.Time) Company {
	return Company{
		ID:               uuid.New().String(),
		Name:             name,
		InvestmentNeeded: investmentNeeded,
		CreatedAt:        at,
		UpdatedAt:        at,
	}
}

func (c Company) Party() Party {
	return CompanyParty(c.ID)
}
