package interfaces

import (
	"context"

	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models"
)

type FundingStore interface {
	SaveCompany(ctx context.Context, company models.Company) error
	GetCompany(ctx context.Context, id string) (models.Company, error)
	// LockCompany loads the company and holds a write lock on it until the
	// surrounding transaction ends.
	LockCompany(ctx context.Context, id string) (models.Company, error)

	SaveCampaign(ctx context.Context, campaign models.Campaign) error
	GetCampaign(ctx context.Context, id string) (models.Campaign, error)
	GetCampaignsByStatus(ctx context.Context, status models.CampaignStatus) ([]models.Campaign, error)
	// UpdateCampaignStatus moves a campaign from one status to another and
	// fails with storage.ErrConflict when the current status is not from.
	UpdateCampaignStatus(ctx context.Context, id string, from, to models.CampaignStatus) error

	SaveInvestment(ctx context.Context, investment models.Investment) error
	GetInvestment(ctx context.Context, id string) (models.Investment, error)
	GetInvestmentsByCompany(ctx context.Context, companyID string) ([]models.Investment, error)
	SoftDeleteInvestment(ctx context.Context, id string) error

	// SaveSettlement fails with storage.ErrDuplicate when the company
	// already has a settlement.
	SaveSettlement(ctx context.Context, settlement models.Settlement) error
	GetSettlement(ctx context.Context, companyID string) (models.Settlement, error)
}

// Store is the full persistence surface. WithTx runs fn against a store
// bound to one atomic transaction: either everything fn wrote commits, or
// nothing does.
type Store interface {
	LedgerStore
	FundingStore
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
