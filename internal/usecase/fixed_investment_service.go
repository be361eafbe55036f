package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"myfunds/internal/domain"
	"myfunds/internal/logger"
	"myfunds/internal/utils"
)

// ExecutionReport summarizes one run of due plans
type ExecutionReport struct {
	Due      int               `json:"due"`
	Executed int               `json:"executed"`
	Skipped  int               `json:"skipped"`
	Failed   map[string]string `json:"failed"` // plan id -> error
}

// errPlanNotDue marks a plan that changed between selection and execution
var errPlanNotDue = errors.New("plan no longer due")

// FixedInvestmentService manages recurring purchase plans and runs the due ones
type FixedInvestmentService struct {
	store  domain.Store
	funds  FundRefresher
	trades *TradeService
	now    utils.Clock
}

// NewFixedInvestmentService creates a new FixedInvestmentService
func NewFixedInvestmentService(
	store domain.Store,
	funds FundRefresher,
	trades *TradeService,
	now utils.Clock,
) *FixedInvestmentService {
	return &FixedInvestmentService{
		store:  store,
		funds:  funds,
		trades: trades,
		now:    now,
	}
}

// SetFixedInvestment creates an ACTIVE plan first due one period from now
func (s *FixedInvestmentService) SetFixedInvestment(ctx context.Context, userID uuid.UUID, fundCode string, amount float64, frequency string) (*domain.FixedInvestment, error) {
	if err := positive("amount", amount); err != nil {
		return nil, err
	}
	frequency = domain.NormalizeFrequency(frequency)
	if frequency == "" {
		frequency = domain.FrequencyDaily
	}

	var plan *domain.FixedInvestment
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		fund, err := s.funds.RefreshFund(ctx, strings.TrimSpace(fundCode))
		if err != nil {
			return err
		}

		now := s.now()
		plan = &domain.FixedInvestment{
			ID:                uuid.New(),
			UserID:            userID,
			FundID:            fund.ID,
			FundCode:          fund.FundCode,
			Amount:            amount,
			Frequency:         frequency,
			StartDate:         now,
			NextExecutionDate: domain.NextExecutionDate(now, frequency),
			Status:            domain.PlanActive,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return repos.FixedInvestments.Create(ctx, plan)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("fixed investment created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("fund_code", plan.FundCode),
		zap.String("frequency", plan.Frequency),
		zap.Time("next_execution_date", plan.NextExecutionDate),
	)
	return plan, nil
}

// PauseFixedInvestment moves an ACTIVE plan to PAUSED
func (s *FixedInvestmentService) PauseFixedInvestment(ctx context.Context, userID, planID uuid.UUID) (*domain.FixedInvestment, error) {
	return s.transition(ctx, userID, planID, func(p *domain.FixedInvestment) error {
		return p.Pause()
	})
}

// ResumeFixedInvestment reactivates a PAUSED plan, rescheduling it from now
func (s *FixedInvestmentService) ResumeFixedInvestment(ctx context.Context, userID, planID uuid.UUID) (*domain.FixedInvestment, error) {
	return s.transition(ctx, userID, planID, func(p *domain.FixedInvestment) error {
		return p.Resume(s.now())
	})
}

// StopFixedInvestment terminates a plan
func (s *FixedInvestmentService) StopFixedInvestment(ctx context.Context, userID, planID uuid.UUID) (*domain.FixedInvestment, error) {
	return s.transition(ctx, userID, planID, func(p *domain.FixedInvestment) error {
		return p.Stop()
	})
}

// GetUserFixedInvestments lists a user's plans
func (s *FixedInvestmentService) GetUserFixedInvestments(ctx context.Context, userID uuid.UUID) ([]*domain.FixedInvestment, error) {
	plans, err := s.store.Repos(ctx).FixedInvestments.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []*domain.FixedInvestment{}
	}
	return plans, nil
}

// ExecuteFixedInvestments buys for every ACTIVE plan due at now. Each plan runs in
// its own transaction; a failing plan is logged and recorded, the rest still run.
// A successful run advances the plan one period from its previous due date.
func (s *FixedInvestmentService) ExecuteFixedInvestments(ctx context.Context) (*ExecutionReport, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	plans, err := s.store.Repos(ctx).FixedInvestments.GetDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due plans: %w", err)
	}

	report := &ExecutionReport{Due: len(plans), Failed: make(map[string]string)}
	for _, plan := range plans {
		err := s.executePlan(ctx, plan, now)
		switch {
		case errors.Is(err, errPlanNotDue):
			report.Skipped++
		case err != nil:
			report.Failed[plan.ID.String()] = err.Error()
			log.Warn("fixed investment failed",
				zap.String("plan_id", plan.ID.String()),
				zap.String("fund_code", plan.FundCode),
				zap.Error(err),
			)
		default:
			report.Executed++
		}
	}

	log.Info("fixed investments executed",
		zap.Int("due", report.Due),
		zap.Int("executed", report.Executed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func (s *FixedInvestmentService) executePlan(ctx context.Context, plan *domain.FixedInvestment, now time.Time) error {
	unlock := s.trades.locks.Lock(positionKey(plan.UserID, plan.FundCode))
	defer unlock()

	return s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		// Re-read under lock; the plan may have been paused or run since selection.
		current, err := repos.FixedInvestments.GetByID(ctx, plan.ID)
		if err != nil {
			return err
		}
		if !current.IsDue(now) {
			return errPlanNotDue
		}

		if _, err := s.trades.buy(ctx, repos, current.UserID, current.FundCode, current.Amount); err != nil {
			return err
		}

		current.Advance()
		current.UpdatedAt = s.now()
		return repos.FixedInvestments.Update(ctx, current)
	})
}

func (s *FixedInvestmentService) transition(ctx context.Context, userID, planID uuid.UUID, apply func(*domain.FixedInvestment) error) (*domain.FixedInvestment, error) {
	var plan *domain.FixedInvestment
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		plan, err = repos.FixedInvestments.GetByID(ctx, planID)
		if err != nil {
			return err
		}
		if plan.UserID != userID {
			return fmt.Errorf("fixed investment %s: %w", planID, domain.ErrNotFound)
		}
		if err := apply(plan); err != nil {
			return err
		}
		plan.UpdatedAt = s.now()
		return repos.FixedInvestments.Update(ctx, plan)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("fixed investment updated",
		zap.String("plan_id", plan.ID.String()),
		zap.String("status", plan.Status),
	)
	return plan, nil
}
