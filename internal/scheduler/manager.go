package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/config"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/funding"
	"go.uber.org/zap"
)

// Job is a periodic task run by the Manager.
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager owns the gocron scheduler and its registered jobs.
type Manager struct {
	scheduler gocron.Scheduler
	funding   *funding.Service
	config    config.SchedulerConfig
	log       *zap.Logger
}

func NewManager(svc *funding.Service, cfg config.SchedulerConfig, log *zap.Logger) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		scheduler: s,
		funding:   svc,
		config:    cfg,
		log:       log,
	}, nil
}

// RegisterJobs registers every job of the service.
func (m *Manager) RegisterJobs() error {
	job := NewSettlementJob(
		m.funding,
		time.Duration(m.config.Interval)*time.Second,
		m.config.Workers,
		time.Duration(m.config.Timeout)*time.Second,
		m.log,
	)
	return m.register(job)
}

func (m *Manager) register(job Job) error {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.GetName(), err)
	}
	return nil
}

func (m *Manager) Start() {
	m.scheduler.Start()
	m.log.Info("scheduler started", zap.Int("jobs", len(m.scheduler.Jobs())))
}

func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		m.log.Error("failed to shutdown scheduler", zap.Error(err))
		return
	}
	m.log.Info("scheduler stopped")
}
