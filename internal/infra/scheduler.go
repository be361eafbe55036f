package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"myfunds/internal/logger"
	"myfunds/internal/service"
	"myfunds/internal/usecase"
	"myfunds/internal/utils"
)

// FundRefresher refreshes every stored fund
type FundRefresher interface {
	RefreshAllFunds(ctx context.Context) (*service.RefreshReport, error)
}

// PlanExecutor runs the fixed investment plans that are due
type PlanExecutor interface {
	ExecuteFixedInvestments(ctx context.Context) (*usecase.ExecutionReport, error)
}

// ScheduleSpecs holds the cron specs (seconds field first) of the batch jobs
type ScheduleSpecs struct {
	DailyRefresh  string
	PlanExecution string
	HourlyRefresh string
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron    *cron.Cron
	funds   FundRefresher
	plans   PlanExecutor
	specs   ScheduleSpecs
	log     *zap.Logger
	timeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(funds FundRefresher, plans PlanExecutor, specs ScheduleSpecs, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(utils.GetLocation())),
		funds:   funds,
		plans:   plans,
		specs:   specs,
		log:     log,
		timeout: 30 * time.Minute,
	}
}

// Start registers the jobs and starts the cron runner
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context)
	}{
		{"daily_refresh", s.specs.DailyRefresh, s.RunRefresh},
		{"plan_execution", s.specs.PlanExecution, s.RunPlans},
		{"hourly_refresh", s.specs.HourlyRefresh, s.RunRefresh},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, func() { s.RunJob(job.name, job.run) }); err != nil {
			return fmt.Errorf("failed to schedule %s (%q): %w", job.name, job.spec, err)
		}
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		zap.String("daily_refresh", s.specs.DailyRefresh),
		zap.String("plan_execution", s.specs.PlanExecution),
		zap.String("hourly_refresh", s.specs.HourlyRefresh),
	)
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.log.Info("stopping scheduler")
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunJob runs one job with its own job and run_id logger fields
func (s *Scheduler) RunJob(name string, run func(ctx context.Context)) {
	log := s.log.With(zap.String("job", name), zap.String("run_id", uuid.NewString()))
	ctx, cancel := context.WithTimeout(logger.WithContext(context.Background(), log), s.timeout)
	defer cancel()

	start := time.Now()
	log.Info("job started")
	run(ctx)
	log.Info("job finished", zap.Duration("elapsed", time.Since(start)))
}

// RunRefresh refreshes every stored fund and logs the report
func (s *Scheduler) RunRefresh(ctx context.Context) {
	report, err := s.funds.RefreshAllFunds(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("fund refresh failed", zap.Error(err))
		return
	}
	logger.FromContext(ctx).Info("fund refresh done",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", len(report.Failed)),
	)
}

// RunPlans executes due plans and logs the report
func (s *Scheduler) RunPlans(ctx context.Context) {
	report, err := s.plans.ExecuteFixedInvestments(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("plan execution failed", zap.Error(err))
		return
	}
	logger.FromContext(ctx).Info("plan execution done",
		zap.Int("due", report.Due),
		zap.Int("executed", report.Executed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)),
	)
}
