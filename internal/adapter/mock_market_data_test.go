package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockMarketData_Metadata(t *testing.T) {
	m := NewMockMarketData(42, fixedNow)

	fund, err := m.FetchFundMetadata(context.Background(), "000001")
	require.NoError(t, err)
	assert.Equal(t, "Mock Fund - 000001", fund.FundName)
	assert.GreaterOrEqual(t, fund.LatestNav, 1.5)
	assert.Less(t, fund.LatestNav, 2.5)
	assert.Equal(t, fixedNow().AddDate(-5, 0, 0), fund.EstablishDate)
}

func TestMockMarketData_Holdings(t *testing.T) {
	m := NewMockMarketData(42, fixedNow)

	holdings, err := m.FetchHoldings(context.Background(), "000001")
	require.NoError(t, err)
	require.Len(t, holdings, MockHoldingCount)

	assert.Equal(t, "600001", holdings[0].StockCode)
	assert.Equal(t, 9.5, holdings[0].HoldingRatio)
	assert.Equal(t, 1e8, holdings[0].HoldingValue)
	assert.Equal(t, 5.0, holdings[9].HoldingRatio)
	for _, h := range holdings {
		assert.GreaterOrEqual(t, h.StockPrice, 10.0)
		assert.Less(t, h.StockPrice, 100.0)
		assert.GreaterOrEqual(t, h.DayGrowth, -5.0)
		assert.Less(t, h.DayGrowth, 5.0)
	}
}

func TestMockMarketData_SeedIsDeterministic(t *testing.T) {
	a, _ := NewMockMarketData(7, fixedNow).FetchFundMetadata(context.Background(), "x")
	b, _ := NewMockMarketData(7, fixedNow).FetchFundMetadata(context.Background(), "x")
	assert.Equal(t, a.LatestNav, b.LatestNav)
}
