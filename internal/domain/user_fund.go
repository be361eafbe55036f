package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserFund is a user's aggregated position in one fund.
// A row exists only while TotalShares > 0.
type UserFund struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	FundID          uuid.UUID `json:"fund_id"`
	FundCode        string    `json:"fund_code"`
	FundName        string    `json:"fund_name"`
	TotalShares     float64   `json:"total_shares"`
	AverageCost     float64   `json:"average_cost"`
	TotalCost       float64   `json:"total_cost"`
	CurrentValue    float64   `json:"current_value"`
	ProfitLoss      float64   `json:"profit_loss"`
	ProfitLossRatio float64   `json:"profit_loss_ratio"` // percent
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Revalue marks the position at nav and recomputes value and profit fields.
// ProfitLossRatio stays 0 when TotalCost is 0.
func (p *UserFund) Revalue(nav float64) {
	p.CurrentValue = p.TotalShares * nav
	p.ProfitLoss = p.CurrentValue - p.TotalCost
	if p.TotalCost == 0 {
		p.ProfitLossRatio = 0
		return
	}
	p.ProfitLossRatio = p.ProfitLoss / p.TotalCost * 100
}
