package service

import "myfunds/internal/domain"

// EstimateNotional is the investment size the estimated profit is quoted on
const EstimateNotional = 10000.0

// Estimate is the intraday valuation derived from a holdings snapshot
type Estimate struct {
	DayGrowth float64 // percent
	Nav       float64
	Profit    float64
}

// CalculateEstimate weights each holding's day growth by its share of the fund.
// Ratios that do not sum to 100 leave the remainder at zero growth.
func CalculateEstimate(latestNav float64, holdings []*domain.FundStock) Estimate {
	var growth float64
	for _, h := range holdings {
		growth += h.HoldingRatio / 100 * h.DayGrowth
	}

	nav := latestNav * (1 + growth/100)

	var profit float64
	if latestNav > 0 {
		profit = EstimateNotional / latestNav * (nav - latestNav)
	}

	return Estimate{DayGrowth: growth, Nav: nav, Profit: profit}
}

// ApplyEstimate recomputes the estimate fields of fund from holdings
func ApplyEstimate(fund *domain.Fund, holdings []*domain.FundStock) {
	est := CalculateEstimate(fund.LatestNav, holdings)
	fund.EstimatedDayGrowth = est.DayGrowth
	fund.EstimatedNav = est.Nav
	fund.EstimatedProfit = est.Profit
}
