package domain

import (
	"time"

	"github.com/google/uuid"
)

// Fund represents a mutual fund and its latest estimated valuation
type Fund struct {
	ID                 uuid.UUID `json:"id"`
	FundCode           string    `json:"fund_code"`
	FundName           string    `json:"fund_name"`
	FundType           string    `json:"fund_type"`
	Manager            string    `json:"manager"`
	EstablishDate      time.Time `json:"establish_date"`
	LatestNav          float64   `json:"latest_nav"`
	DayGrowth          float64   `json:"day_growth"`
	WeekGrowth         float64   `json:"week_growth"`
	MonthGrowth        float64   `json:"month_growth"`
	QuarterGrowth      float64   `json:"quarter_growth"`
	YearGrowth         float64   `json:"year_growth"`
	EstimatedDayGrowth float64   `json:"estimated_day_growth"` // percent
	EstimatedNav       float64   `json:"estimated_nav"`
	EstimatedProfit    float64   `json:"estimated_profit"` // on a 10000 notional
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// FundStock is one stock holding line of a fund at a report date
type FundStock struct {
	ID           uuid.UUID `json:"id"`
	FundID       uuid.UUID `json:"fund_id"`
	StockCode    string    `json:"stock_code"`
	StockName    string    `json:"stock_name"`
	HoldingRatio float64   `json:"holding_ratio"` // percent of fund, 0-100
	StockPrice   float64   `json:"stock_price"`
	DayGrowth    float64   `json:"day_growth"` // percent
	HoldingValue float64   `json:"holding_value"`
	ReportDate   time.Time `json:"report_date"`
	CreatedAt    time.Time `json:"created_at"`
}
