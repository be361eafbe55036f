package adapter

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"myfunds/internal/domain"
	"myfunds/internal/utils"
)

// MockHoldingCount is the number of holdings the mock provider returns per fund
const MockHoldingCount = 10

// MockMarketData is a MarketDataProvider returning random but well-formed data.
// It never fails.
type MockMarketData struct {
	mu  sync.Mutex
	rng *rand.Rand
	now utils.Clock
}

// NewMockMarketData creates a mock provider; equal seeds produce equal sequences
func NewMockMarketData(seed int64, now utils.Clock) *MockMarketData {
	return &MockMarketData{
		rng: rand.New(rand.NewSource(seed)),
		now: now,
	}
}

// FetchFundMetadata returns a fund with nav in [1.5, 2.5)
func (m *MockMarketData) FetchFundMetadata(ctx context.Context, fundCode string) (*domain.Fund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return &domain.Fund{
		FundCode:      fundCode,
		FundName:      "Mock Fund - " + fundCode,
		FundType:      "Equity",
		Manager:       "Mock Manager",
		EstablishDate: m.now().AddDate(-5, 0, 0),
		LatestNav:     1.5 + m.rng.Float64(),
		DayGrowth:     m.between(-5, 5),
		WeekGrowth:    m.between(-7.5, 7.5),
		MonthGrowth:   m.between(-15, 15),
		QuarterGrowth: m.between(-25, 25),
		YearGrowth:    m.between(-50, 50),
	}, nil
}

// FetchHoldings returns MockHoldingCount holdings with ratios 9.5, 9.0, ... 5.0
func (m *MockMarketData) FetchHoldings(ctx context.Context, fundCode string) ([]*domain.FundStock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reportDate := m.now().AddDate(0, -1, 0)
	holdings := make([]*domain.FundStock, 0, MockHoldingCount)
	for i := 1; i <= MockHoldingCount; i++ {
		holdings = append(holdings, &domain.FundStock{
			StockCode:    fmt.Sprintf("60000%d", i),
			StockName:    fmt.Sprintf("Mock Stock %d", i),
			HoldingRatio: 10 - float64(i)*0.5,
			StockPrice:   m.between(10, 100),
			DayGrowth:    m.between(-5, 5),
			HoldingValue: 1e7 * float64(MockHoldingCount+1-i),
			ReportDate:   reportDate,
		})
	}
	return holdings, nil
}

func (m *MockMarketData) between(lo, hi float64) float64 {
	return lo + m.rng.Float64()*(hi-lo)
}
