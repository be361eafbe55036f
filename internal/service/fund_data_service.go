package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"myfunds/internal/domain"
	"myfunds/internal/logger"
	"myfunds/internal/utils"
)

// RefreshReport summarizes a refresh-all run
type RefreshReport struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    map[string]string `json:"failed"` // fund code -> error
}

// FundDataService keeps stored funds and their holdings in line with the market data provider
type FundDataService struct {
	store    domain.Store
	provider domain.MarketDataProvider
	cache    domain.FundCache
	workers  int
	now      utils.Clock
}

// NewFundDataService creates a new FundDataService.
// workers bounds the parallelism of RefreshAllFunds.
func NewFundDataService(
	store domain.Store,
	provider domain.MarketDataProvider,
	cache domain.FundCache,
	workers int,
	now utils.Clock,
) *FundDataService {
	if workers < 1 {
		workers = 1
	}
	return &FundDataService{
		store:    store,
		provider: provider,
		cache:    cache,
		workers:  workers,
		now:      now,
	}
}

// GetFundInfo returns the fund from cache or store, refreshing it from the provider
// when it has never been stored.
func (s *FundDataService) GetFundInfo(ctx context.Context, fundCode string) (*domain.Fund, error) {
	fundCode, err := normalizeCode(fundCode)
	if err != nil {
		return nil, err
	}

	if fund, ok := s.cache.GetFund(ctx, fundCode); ok {
		return fund, nil
	}

	fund, err := s.store.Repos(ctx).Funds.GetByCode(ctx, fundCode)
	if errors.Is(err, domain.ErrNotFound) {
		return s.RefreshFund(ctx, fundCode)
	}
	if err != nil {
		return nil, err
	}

	s.cache.SetFund(ctx, fund)
	return fund, nil
}

// GetFundHoldings returns the stored holdings of a fund, largest ratio first.
// An unknown fund yields an empty list.
func (s *FundDataService) GetFundHoldings(ctx context.Context, fundCode string) ([]*domain.FundStock, error) {
	fundCode, err := normalizeCode(fundCode)
	if err != nil {
		return nil, err
	}

	if holdings, ok := s.cache.GetHoldings(ctx, fundCode); ok {
		return holdings, nil
	}

	repos := s.store.Repos(ctx)
	fund, err := repos.Funds.GetByCode(ctx, fundCode)
	if errors.Is(err, domain.ErrNotFound) {
		return []*domain.FundStock{}, nil
	}
	if err != nil {
		return nil, err
	}

	holdings, err := repos.FundStocks.GetByFundID(ctx, fund.ID)
	if err != nil {
		return nil, err
	}
	if holdings == nil {
		holdings = []*domain.FundStock{}
	}

	s.cache.SetHoldings(ctx, fundCode, holdings)
	return holdings, nil
}

// RefreshFund fetches fresh metadata and holdings for one fund, replaces the stored
// holdings and recomputes the estimate, all in one transaction. When ctx already
// carries a transaction the refresh joins it.
func (s *FundDataService) RefreshFund(ctx context.Context, fundCode string) (*domain.Fund, error) {
	fundCode, err := normalizeCode(fundCode)
	if err != nil {
		return nil, err
	}

	var (
		fund     *domain.Fund
		holdings []*domain.FundStock
	)

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		meta, err := s.provider.FetchFundMetadata(ctx, fundCode)
		if err != nil {
			return fmt.Errorf("failed to fetch fund metadata for %s: %w", fundCode, err)
		}

		now := s.now()
		fund, err = repos.Funds.GetByCode(ctx, fundCode)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			fund = &domain.Fund{ID: uuid.New(), FundCode: fundCode, CreatedAt: now}
			applyMetadata(fund, meta, now)
			if err := repos.Funds.Create(ctx, fund); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			applyMetadata(fund, meta, now)
			if err := repos.Funds.Update(ctx, fund); err != nil {
				return err
			}
		}

		holdings, err = s.provider.FetchHoldings(ctx, fundCode)
		if err != nil {
			return fmt.Errorf("failed to fetch holdings for %s: %w", fundCode, err)
		}

		if err := repos.FundStocks.DeleteByFundID(ctx, fund.ID); err != nil {
			return err
		}
		for _, h := range holdings {
			h.ID = uuid.New()
			h.FundID = fund.ID
			h.CreatedAt = now
			if err := repos.FundStocks.Create(ctx, h); err != nil {
				return err
			}
		}

		ApplyEstimate(fund, holdings)
		if err := repos.Funds.Update(ctx, fund); err != nil {
			return err
		}

		cached := *fund
		s.store.AfterCommit(ctx, func() {
			s.cache.SetFund(context.WithoutCancel(ctx), &cached)
			s.cache.SetHoldings(context.WithoutCancel(ctx), fundCode, holdings)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("fund refreshed",
		zap.String("fund_code", fundCode),
		zap.Int("holdings", len(holdings)),
		zap.Float64("estimated_nav", fund.EstimatedNav),
	)
	return fund, nil
}

// RefreshAllFunds refreshes every stored fund on a bounded worker pool.
// A failing fund is logged and recorded in the report; the rest still run.
func (s *FundDataService) RefreshAllFunds(ctx context.Context) (*RefreshReport, error) {
	log := logger.FromContext(ctx)

	funds, err := s.store.Repos(ctx).Funds.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}

	report := &RefreshReport{Total: len(funds), Failed: make(map[string]string)}
	if len(funds) == 0 {
		return report, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh pool: %w", err)
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(code string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failed[code] = err.Error()
			log.Warn("fund refresh failed", zap.String("fund_code", code), zap.Error(err))
			return
		}
		report.Succeeded++
	}

	for _, f := range funds {
		code := f.FundCode
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			_, err := s.RefreshFund(ctx, code)
			record(code, err)
		})
		if submitErr != nil {
			wg.Done()
			record(code, submitErr)
		}
	}
	wg.Wait()

	log.Info("refresh all funds completed",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// applyMetadata copies provider fields onto a stored fund, keeping its identity
func applyMetadata(dst, src *domain.Fund, now time.Time) {
	dst.FundName = src.FundName
	dst.FundType = src.FundType
	dst.Manager = src.Manager
	dst.EstablishDate = src.EstablishDate
	dst.LatestNav = src.LatestNav
	dst.DayGrowth = src.DayGrowth
	dst.WeekGrowth = src.WeekGrowth
	dst.MonthGrowth = src.MonthGrowth
	dst.QuarterGrowth = src.QuarterGrowth
	dst.YearGrowth = src.YearGrowth
	dst.UpdatedAt = now
}

func normalizeCode(fundCode string) (string, error) {
	fundCode = strings.TrimSpace(fundCode)
	if fundCode == "" {
		return "", fmt.Errorf("%w: fund code is required", domain.ErrInvalidInput)
	}
	return fundCode, nil
}
