package funding

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models/events"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultSettlementDescription = "Addition"
	investmentDescription        = "Investment"
	refundDescription            = "Investment refund"
	campaignCodeLength           = 6
	campaignCodeLetters          = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var (
	ErrTargetNotReached    = errors.New("raised amount has not reached the funding target")
	ErrNegativeRaised      = errors.New("raised amount is not positive")
	ErrAlreadySettled      = errors.New("company has already been settled")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrCampaignClosed      = errors.New("campaign is not accepting investments")
	ErrInvalidTransition   = errors.New("invalid campaign status transition")
	ErrInvalidCompany      = errors.New("company needs a name and a positive investment target with at most two decimal places")
	ErrInvalidCampaign     = errors.New("invalid campaign parameters")
	ErrInvalidInvestment   = errors.New("invalid investment request")
)

// Service runs the campaign lifecycle and the settlement of raised money
// into company wallets.
type Service struct {
	store     interfaces.Store
	ledger    *ledger.Ledger
	publisher interfaces.EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

func NewService(store interfaces.Store, l *ledger.Ledger, publisher interfaces.EventPublisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     store,
		ledger:    l,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (s *Service) RegisterCompany(ctx context.Context, name string, investmentNeeded decimal.Decimal) (models.Company, error) {
	if name == "" || !investmentNeeded.IsPositive() || !models.FitsMoneyScale(investmentNeeded) {
		return models.Company{}, ErrInvalidCompany
	}
	company := models.NewCompany(name, investmentNeeded, s.now())
	if err := s.store.SaveCompany(ctx, company); err != nil {
		return models.Company{}, err
	}
	s.log.Info("company registered",
		zap.String("company_id", company.ID),
		zap.String("investment_needed", investmentNeeded.String()))
	return company, nil
}

func (s *Service) GetCompany(ctx context.Context, id string) (models.Company, error) {
	return s.store.GetCompany(ctx, id)
}

// OpenCampaign starts a funding campaign whose target is the company's
// investment need at this moment. timeLimit is in days and may be nil.
func (s *Service) OpenCampaign(ctx context.Context, companyID string, started time.Time, timeLimit *int) (models.Campaign, error) {
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return models.Campaign{}, err
	}
	if timeLimit != nil && *timeLimit <= 0 {
		return models.Campaign{}, fmt.Errorf("%w: time limit must be positive, got %d", ErrInvalidCampaign, *timeLimit)
	}
	if started.IsZero() {
		started = s.now()
	}

	campaign := models.NewCampaign(company, generateCampaignCode(), started, timeLimit, s.now())
	if err := s.store.SaveCampaign(ctx, campaign); err != nil {
		return models.Campaign{}, err
	}
	s.log.Info("campaign opened",
		zap.String("campaign_id", campaign.ID),
		zap.String("company_id", company.ID),
		zap.String("code", campaign.Code))
	return campaign, nil
}

func (s *Service) GetCampaign(ctx context.Context, id string) (models.Campaign, error) {
	return s.store.GetCampaign(ctx, id)
}

func (s *Service) FundingCampaigns(ctx context.Context) ([]models.Campaign, error) {
	return s.store.GetCampaignsByStatus(ctx, models.CampaignFunding)
}

// AdvanceCampaign moves a campaign one step forward:
// funding -> complete -> dividend.
func (s *Service) AdvanceCampaign(ctx context.Context, campaignID string, to models.CampaignStatus) (models.Campaign, error) {
	current, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return models.Campaign{}, err
	}

	// Investments check the campaign status under the same company lock.
	unlock := s.ledger.LockParties(current.CompanyID)
	defer unlock()

	var campaign models.Campaign
	err = s.store.WithTx(ctx, func(tx interfaces.Store) error {
		if _, err := tx.LockCompany(ctx, current.CompanyID); err != nil {
			return err
		}
		locked, err := tx.GetCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		campaign = locked
		if !campaign.Status.CanAdvanceTo(to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, campaign.Status, to)
		}
		if err := tx.UpdateCampaignStatus(ctx, campaignID, campaign.Status, to); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.Campaign{}, err
	}

	s.log.Info("campaign advanced",
		zap.String("campaign_id", campaignID),
		zap.Stringer("from", campaign.Status),
		zap.Stringer("to", to))
	campaign.Status = to
	return campaign, nil
}

// RaisedAmount sums the active investments of a company. It is
// recomputed on every call.
func (s *Service) RaisedAmount(ctx context.Context, companyID string) (decimal.Decimal, error) {
	return raisedAmount(ctx, s.store, companyID)
}

func raisedAmount(ctx context.Context, store interfaces.FundingStore, companyID string) (decimal.Decimal, error) {
	investments, err := store.GetInvestmentsByCompany(ctx, companyID)
	if err != nil {
		return decimal.Zero, err
	}

	raised := decimal.Zero
	for _, inv := range investments {
		if !inv.Active() {
			continue
		}
		raised = raised.Add(inv.Amount)
	}
	return raised, nil
}

// SettleCampaign credits a company's wallet with everything it has raised,
// once the raised amount meets the company's investment target. It posts
// exactly one entry per company; a second call fails with
// ErrAlreadySettled. Campaign status is left for the caller to advance.
func (s *Service) SettleCampaign(ctx context.Context, companyID string, ref *models.Reference, description string) (models.LedgerEntry, error) {
	if description == "" {
		description = DefaultSettlementDescription
	}

	unlock := s.ledger.LockParties(companyID)
	defer unlock()

	var (
		entry      models.LedgerEntry
		settlement models.Settlement
	)
	err := s.store.WithTx(ctx, func(tx interfaces.Store) error {
		company, err := tx.LockCompany(ctx, companyID)
		if err != nil {
			return err
		}
		if err := ensureNotSettled(ctx, tx, companyID); err != nil {
			return err
		}

		raised, err := raisedAmount(ctx, tx, companyID)
		if err != nil {
			return err
		}
		if raised.IsNegative() {
			return fmt.Errorf("%w: %s", ErrNegativeRaised, raised)
		}
		if raised.LessThan(company.InvestmentNeeded) {
			return fmt.Errorf("%w: raised %s of %s", ErrTargetNotReached, raised, company.InvestmentNeeded)
		}
		if raised.IsZero() {
			return fmt.Errorf("%w: nothing raised", ErrNegativeRaised)
		}

		entry, err = s.ledger.Post(ctx, tx, company.Party(), raised, description, ref)
		if err != nil {
			return err
		}

		settlement = models.NewSettlement(companyID, entry)
		if err := tx.SaveSettlement(ctx, settlement); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return ErrAlreadySettled
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.LedgerEntry{}, err
	}

	s.log.Info("company settled",
		zap.String("company_id", companyID),
		zap.String("entry_id", entry.ID),
		zap.String("amount", entry.Amount.String()))
	s.publish(ctx, events.TopicCampaignSettled, companyID, events.CampaignSettled{
		SettlementID: settlement.ID,
		CompanyID:    companyID,
		CampaignID:   settlement.CampaignID,
		EntryID:      entry.ID,
		Amount:       entry.Amount,
		OccurredAt:   entry.CreatedAt,
	})
	return entry, nil
}

// IsSettled reports whether the company's raised money has been credited.
func (s *Service) IsSettled(ctx context.Context, companyID string) (bool, error) {
	_, err := s.store.GetSettlement(ctx, companyID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func ensureNotSettled(ctx context.Context, store interfaces.FundingStore, companyID string) error {
	_, err := store.GetSettlement(ctx, companyID)
	if err == nil {
		return ErrAlreadySettled
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Service) publish(ctx context.Context, topic, key string, event any) {
	if s.publisher == nil {
		return
	}
	// The transaction has committed; a lost event must not undo it.
	if err := s.publisher.Publish(ctx, topic, key, event); err != nil {
		s.log.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err))
	}
}

func generateCampaignCode() string {
	code := make([]byte, campaignCodeLength)
	for i := range code {
		code[i] = campaignCodeLetters[rand.Intn(len(campaignCodeLetters))]
	}
	return string(code)
}
