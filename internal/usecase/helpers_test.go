package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"myfunds/internal/cache"
	"myfunds/internal/domain"
	"myfunds/internal/repository/memstore"
	"myfunds/internal/service"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{t: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// stubProvider serves a fixed nav per fund code and can be told to fail
type stubProvider struct {
	mu      sync.Mutex
	navs    map[string]float64
	failing map[string]bool
}

func newStubProvider(navs map[string]float64) *stubProvider {
	return &stubProvider{navs: navs, failing: make(map[string]bool)}
}

func (p *stubProvider) setFailing(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing[code] = true
}

func (p *stubProvider) FetchFundMetadata(_ context.Context, code string) (*domain.Fund, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing[code] {
		return nil, fmt.Errorf("%w: upstream down", domain.ErrUnavailable)
	}
	nav, ok := p.navs[code]
	if !ok {
		return nil, fmt.Errorf("%w: fund %s", domain.ErrNotFound, code)
	}
	return &domain.Fund{FundCode: code, FundName: "Fund " + code, LatestNav: nav}, nil
}

func (p *stubProvider) FetchHoldings(_ context.Context, _ string) ([]*domain.FundStock, error) {
	return nil, nil
}

// recordingPublisher keeps every published transaction
type recordingPublisher struct {
	mu  sync.Mutex
	txs []*domain.FundTransaction
}

func (p *recordingPublisher) Publish(_ context.Context, tx *domain.FundTransaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs = append(p.txs, tx)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.txs)
}

type fixture struct {
	store     *memstore.Store
	provider  *stubProvider
	publisher *recordingPublisher
	clock     *testClock
	trades    *TradeService
	plans     *FixedInvestmentService
}

func newFixture(t *testing.T, navs map[string]float64) *fixture {
	t.Helper()
	store := memstore.New()
	provider := newStubProvider(navs)
	publisher := &recordingPublisher{}
	clock := newTestClock(time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC))

	funds := service.NewFundDataService(store, provider, cache.Nop{}, 2, clock.Now)
	trades := NewTradeService(store, funds, publisher, DefaultFeeRate, clock.Now)
	plans := NewFixedInvestmentService(store, funds, trades, clock.Now)

	return &fixture{
		store:     store,
		provider:  provider,
		publisher: publisher,
		clock:     clock,
		trades:    trades,
		plans:     plans,
	}
}
