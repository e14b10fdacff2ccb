package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/funding"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models"
	"go.uber.org/zap"
)

// SettlementJob settles every company whose funding campaign has met its
// target and then marks the campaign complete. Companies are handled in
// parallel on a worker pool.
//
// A campaign that expires below target stays in funding: late investments
// are refused, but cancellations can still refund investors and an
// operator decides what happens to it. The job reports it once.
type SettlementJob struct {
	funding  *funding.Service
	interval time.Duration
	workers  int
	timeout  time.Duration
	log      *zap.Logger
	expired  sync.Map // campaign id -> struct{}, already reported
}

// RunSummary counts what one run did.
type RunSummary struct {
	Checked   int
	Settled   int
	Completed int
	Pending   int
	Failed    int
}

func NewSettlementJob(svc *funding.Service, interval time.Duration, workers int, timeout time.Duration, log *zap.Logger) *SettlementJob {
	if log == nil {
		log = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &SettlementJob{
		funding:  svc,
		interval: interval,
		workers:  workers,
		timeout:  timeout,
		log:      log,
	}
}

func (j *SettlementJob) GetName() string {
	return "campaign_settlement"
}

func (j *SettlementJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *SettlementJob) Execute() {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	summary, err := j.Run(ctx)
	if err != nil {
		j.log.Error("settlement run failed", zap.Error(err))
		return
	}
	j.log.Info("settlement run completed",
		zap.Int("checked", summary.Checked),
		zap.Int("settled", summary.Settled),
		zap.Int("completed", summary.Completed),
		zap.Int("pending", summary.Pending),
		zap.Int("failed", summary.Failed))
}

// Run performs one pass over all campaigns still in funding.
func (j *SettlementJob) Run(ctx context.Context) (RunSummary, error) {
	campaigns, err := j.funding.FundingCampaigns(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	if len(campaigns) == 0 {
		return RunSummary{}, nil
	}

	pool, err := ants.NewPool(j.workers)
	if err != nil {
		return RunSummary{}, err
	}
	defer pool.Release()

	var (
		wg                                  sync.WaitGroup
		settled, completed, pending, failed atomic.Int64
	)
	for _, campaign := range campaigns {
		campaign := campaign
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			switch j.settle(ctx, campaign) {
			case outcomeSettled:
				settled.Add(1)
				completed.Add(1)
			case outcomeCompleted:
				completed.Add(1)
			case outcomePending:
				pending.Add(1)
			default:
				failed.Add(1)
			}
		})
		if err != nil {
			wg.Done()
			failed.Add(1)
			j.log.Error("failed to submit settlement task",
				zap.String("campaign_id", campaign.ID),
				zap.Error(err))
		}
	}
	wg.Wait()

	return RunSummary{
		Checked:   len(campaigns),
		Settled:   int(settled.Load()),
		Completed: int(completed.Load()),
		Pending:   int(pending.Load()),
		Failed:    int(failed.Load()),
	}, nil
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeSettled
	outcomeCompleted // already settled earlier, only the status moved
	outcomePending
)

func (j *SettlementJob) settle(ctx context.Context, campaign models.Campaign) outcome {
	log := j.log.With(
		zap.String("campaign_id", campaign.ID),
		zap.String("company_id", campaign.CompanyID))

	ref := &models.Reference{Kind: models.RefCampaign, ID: campaign.ID}
	_, err := j.funding.SettleCampaign(ctx, campaign.CompanyID, ref, funding.DefaultSettlementDescription)
	result := outcomeSettled
	switch {
	case err == nil:
	case errors.Is(err, funding.ErrAlreadySettled):
		// Settled by an earlier run or an API call that never advanced
		// the campaign.
		result = outcomeCompleted
	case errors.Is(err, funding.ErrTargetNotReached):
		if campaign.Expired(time.Now()) {
			if _, seen := j.expired.LoadOrStore(campaign.ID, struct{}{}); !seen {
				log.Warn("campaign expired below target")
			}
		}
		return outcomePending
	default:
		log.Error("settlement failed", zap.Error(err))
		return outcomeFailed
	}

	if _, err := j.funding.AdvanceCampaign(ctx, campaign.ID, models.CampaignComplete); err != nil {
		if errors.Is(err, funding.ErrInvalidTransition) {
			return result
		}
		log.Error("failed to complete campaign", zap.Error(err))
		return outcomeFailed
	}
	return result
}
