package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfunds/internal/cache"
	"myfunds/internal/domain"
	"myfunds/internal/repository/memstore"
)

var testNow = func() time.Time { return time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC) }

// fakeProvider returns scripted metadata and holdings per code
type fakeProvider struct {
	mu            sync.Mutex
	navs          map[string]float64
	holdings      map[string][]*domain.FundStock
	holdingsErr   map[string]error
	metadataCalls int
}

func (p *fakeProvider) FetchFundMetadata(_ context.Context, code string) (*domain.Fund, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metadataCalls++
	nav, ok := p.navs[code]
	if !ok {
		return nil, fmt.Errorf("%w: fund %s", domain.ErrNotFound, code)
	}
	return &domain.Fund{FundCode: code, FundName: "Fund " + code, LatestNav: nav}, nil
}

func (p *fakeProvider) FetchHoldings(_ context.Context, code string) ([]*domain.FundStock, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.holdingsErr[code]; err != nil {
		return nil, err
	}
	var out []*domain.FundStock
	for _, h := range p.holdings[code] {
		c := *h
		out = append(out, &c)
	}
	return out, nil
}

// mapCache is an in-process FundCache
type mapCache struct {
	mu       sync.Mutex
	funds    map[string]domain.Fund
	holdings map[string][]*domain.FundStock
}

func newMapCache() *mapCache {
	return &mapCache{funds: map[string]domain.Fund{}, holdings: map[string][]*domain.FundStock{}}
}

func (c *mapCache) GetFund(_ context.Context, code string) (*domain.Fund, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.funds[code]
	return &f, ok
}

func (c *mapCache) SetFund(_ context.Context, f *domain.Fund) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funds[f.FundCode] = *f
}

func (c *mapCache) GetHoldings(_ context.Context, code string) ([]*domain.FundStock, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.holdings[code]
	return h, ok
}

func (c *mapCache) SetHoldings(_ context.Context, code string, h []*domain.FundStock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holdings[code] = h
}

func newProvider() *fakeProvider {
	return &fakeProvider{
		navs: map[string]float64{"000001": 2.0, "000002": 1.0, "000003": 1.5},
		holdings: map[string][]*domain.FundStock{
			"000001": {
				{StockCode: "600519", HoldingRatio: 50, DayGrowth: 2},
				{StockCode: "000858", HoldingRatio: 30, DayGrowth: 1},
			},
		},
		holdingsErr: map[string]error{},
	}
}

func TestRefreshFund_PersistsFundHoldingsAndEstimate(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	c := newMapCache()
	svc := NewFundDataService(store, newProvider(), c, 2, testNow)

	fund, err := svc.RefreshFund(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, "Fund 000001", fund.FundName)
	// 0.5*2 + 0.3*1 = 1.3%
	assert.InDelta(t, 1.3, fund.EstimatedDayGrowth, 1e-9)
	assert.InDelta(t, 2.026, fund.EstimatedNav, 1e-9)
	assert.InDelta(t, 130, fund.EstimatedProfit, 1e-6)

	stored, err := store.Repos(ctx).Funds.GetByCode(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, fund.ID, stored.ID)
	assert.InDelta(t, 2.026, stored.EstimatedNav, 1e-9)

	holdings, err := store.Repos(ctx).FundStocks.GetByFundID(ctx, fund.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, "600519", holdings[0].StockCode)
	assert.Equal(t, fund.ID, holdings[0].FundID)

	cached, ok := c.GetFund(ctx, "000001")
	require.True(t, ok)
	assert.Equal(t, fund.ID, cached.ID)
}

func TestRefreshFund_SecondRefreshKeepsIDAndReplacesHoldings(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := newProvider()
	svc := NewFundDataService(store, p, cache.Nop{}, 2, testNow)

	first, err := svc.RefreshFund(ctx, "000001")
	require.NoError(t, err)

	p.mu.Lock()
	p.navs["000001"] = 2.2
	p.holdings["000001"] = []*domain.FundStock{{StockCode: "601318", HoldingRatio: 10, DayGrowth: -1}}
	p.mu.Unlock()

	second, err := svc.RefreshFund(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2.2, second.LatestNav)

	holdings, err := svc.GetFundHoldings(ctx, "000001")
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "601318", holdings[0].StockCode)
}

func TestRefreshFund_HoldingsFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := newProvider()
	svc := NewFundDataService(store, p, cache.Nop{}, 2, testNow)

	_, err := svc.RefreshFund(ctx, "000001")
	require.NoError(t, err)

	p.mu.Lock()
	p.navs["000001"] = 9.9
	p.holdingsErr["000001"] = fmt.Errorf("%w: timeout", domain.ErrUnavailable)
	p.mu.Unlock()

	_, err = svc.RefreshFund(ctx, "000001")
	require.ErrorIs(t, err, domain.ErrUnavailable)

	stored, err := store.Repos(ctx).Funds.GetByCode(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, 2.0, stored.LatestNav)

	holdings, err := store.Repos(ctx).FundStocks.GetByFundID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Len(t, holdings, 2)
}

func TestRefreshFund_UnknownCode(t *testing.T) {
	svc := NewFundDataService(memstore.New(), newProvider(), cache.Nop{}, 2, testNow)

	_, err := svc.RefreshFund(context.Background(), "999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.RefreshFund(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetFundInfo_RefreshesOnlyWhenAbsent(t *testing.T) {
	ctx := context.Background()
	p := newProvider()
	svc := NewFundDataService(memstore.New(), p, cache.Nop{}, 2, testNow)

	fund, err := svc.GetFundInfo(ctx, "000002")
	require.NoError(t, err)
	assert.Equal(t, "000002", fund.FundCode)

	again, err := svc.GetFundInfo(ctx, "000002")
	require.NoError(t, err)
	assert.Equal(t, fund.ID, again.ID)
	assert.Equal(t, 1, p.metadataCalls)
}

func TestGetFundHoldings_UnknownFundIsEmpty(t *testing.T) {
	svc := NewFundDataService(memstore.New(), newProvider(), cache.Nop{}, 2, testNow)

	holdings, err := svc.GetFundHoldings(context.Background(), "000001")
	require.NoError(t, err)
	assert.NotNil(t, holdings)
	assert.Empty(t, holdings)
}

func TestRefreshAllFunds_IsolatesFailures(t *testing.T) {
	ctx := context.Background()
	p := newProvider()
	svc := NewFundDataService(memstore.New(), p, cache.Nop{}, 3, testNow)

	for _, code := range []string{"000001", "000002", "000003"} {
		_, err := svc.RefreshFund(ctx, code)
		require.NoError(t, err)
	}

	p.mu.Lock()
	p.holdingsErr["000002"] = fmt.Errorf("%w: upstream", domain.ErrUnavailable)
	p.mu.Unlock()

	report, err := svc.RefreshAllFunds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed, "000002")
}

func TestRefreshAllFunds_Empty(t *testing.T) {
	svc := NewFundDataService(memstore.New(), newProvider(), cache.Nop{}, 2, testNow)

	report, err := svc.RefreshAllFunds(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Empty(t, report.Failed)
}
