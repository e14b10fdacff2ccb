package funding

import (
	"context"
	"errors"
	"fmt"

	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvestRequest describes one contribution. CampaignID is optional; when
// it is set the company is taken from the campaign.
type InvestRequest struct {
	PartyID    string          `json:"party_id"`
	CompanyID  string          `json:"company_id"`
	CampaignID string          `json:"campaign_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// Invest records an investment and debits the contributor's wallet by the
// same amount, atomically.
func (s *Service) Invest(ctx context.Context, req InvestRequest) (models.Investment, error) {
	if !req.Amount.IsPositive() || !models.FitsMoneyScale(req.Amount) {
		return models.Investment{}, fmt.Errorf("%w: investment must be positive, got %s", ledger.ErrInvalidAmount, req.Amount)
	}
	if req.PartyID == "" {
		return models.Investment{}, ledger.ErrInvalidParty
	}

	companyID := req.CompanyID
	if req.CampaignID != "" {
		campaign, err := s.store.GetCampaign(ctx, req.CampaignID)
		if err != nil {
			return models.Investment{}, err
		}
		if companyID != "" && companyID != campaign.CompanyID {
			return models.Investment{}, fmt.Errorf("%w: campaign %s does not belong to company %s", ErrInvalidInvestment, campaign.ID, companyID)
		}
		if err := s.ensureOpen(campaign); err != nil {
			return models.Investment{}, err
		}
		companyID = campaign.CompanyID
	}
	if companyID == "" {
		return models.Investment{}, fmt.Errorf("%w: company id is required", ErrInvalidInvestment)
	}

	unlock := s.ledger.LockParties(req.PartyID, companyID)
	defer unlock()

	var investment models.Investment
	err := s.store.WithTx(ctx, func(tx interfaces.Store) error {
		if _, err := tx.LockCompany(ctx, companyID); err != nil {
			return err
		}
		// The campaign may have advanced while we waited for the lock.
		if req.CampaignID != "" {
			campaign, err := tx.GetCampaign(ctx, req.CampaignID)
			if err != nil {
				return err
			}
			if err := s.ensureOpen(campaign); err != nil {
				return err
			}
		}
		if err := ensureNotSettled(ctx, tx, companyID); err != nil {
			if errors.Is(err, ErrAlreadySettled) {
				return ErrCampaignClosed
			}
			return err
		}

		balance, err := s.ledger.BalanceOf(ctx, tx, req.PartyID)
		if err != nil {
			return err
		}
		if balance.LessThan(req.Amount) {
			return fmt.Errorf("%w: balance %s, investment %s", ErrInsufficientBalance, balance, req.Amount)
		}

		investment = models.NewInvestment(req.PartyID, companyID, req.CampaignID, req.Amount, s.now())
		if err := tx.SaveInvestment(ctx, investment); err != nil {
			return err
		}
		_, err = s.ledger.Post(ctx, tx, models.UserParty(req.PartyID), req.Amount.Neg(), investmentDescription, investment.Reference())
		return err
	})
	if err != nil {
		return models.Investment{}, err
	}

	s.log.Info("investment created",
		zap.String("investment_id", investment.ID),
		zap.String("party_id", investment.PartyID),
		zap.String("company_id", investment.CompanyID),
		zap.String("amount", investment.Amount.String()))
	s.publish(ctx, events.TopicInvestmentCreated, companyID, events.InvestmentCreated{
		InvestmentID: investment.ID,
		PartyID:      investment.PartyID,
		CompanyID:    investment.CompanyID,
		CampaignID:   investment.CampaignID,
		Amount:       investment.Amount,
		OccurredAt:   investment.CreatedAt,
	})
	return investment, nil
}

func (s *Service) ensureOpen(campaign models.Campaign) error {
	if campaign.Status != models.CampaignFunding {
		return fmt.Errorf("%w: campaign %s is %s", ErrCampaignClosed, campaign.ID, campaign.Status)
	}
	if campaign.Expired(s.now()) {
		return fmt.Errorf("%w: campaign %s has expired", ErrCampaignClosed, campaign.ID)
	}
	return nil
}

// CancelInvestment withdraws an investment before its company is settled.
// The investment is soft-deleted and the contributor gets a refund entry;
// the investment debit stays in the ledger.
func (s *Service) CancelInvestment(ctx context.Context, investmentID string) (models.LedgerEntry, error) {
	investment, err := s.store.GetInvestment(ctx, investmentID)
	if err != nil {
		return models.LedgerEntry{}, err
	}

	unlock := s.ledger.LockParties(investment.PartyID, investment.CompanyID)
	defer unlock()

	var refund models.LedgerEntry
	err = s.store.WithTx(ctx, func(tx interfaces.Store) error {
		if _, err := tx.LockCompany(ctx, investment.CompanyID); err != nil {
			return err
		}
		if err := ensureNotSettled(ctx, tx, investment.CompanyID); err != nil {
			return err
		}
		if err := tx.SoftDeleteInvestment(ctx, investment.ID); err != nil {
			return err
		}
		refund, err = s.ledger.Post(ctx, tx, models.UserParty(investment.PartyID), investment.Amount, refundDescription, investment.Reference())
		return err
	})
	if err != nil {
		return models.LedgerEntry{}, err
	}

	s.log.Info("investment cancelled",
		zap.String("investment_id", investment.ID),
		zap.String("refund_entry_id", refund.ID))
	return refund, nil
}
