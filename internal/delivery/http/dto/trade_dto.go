package dto

// AddHoldingRequest records an existing holding
type AddHoldingRequest struct {
	FundCode  string  `json:"fund_code" validate:"nonzero,max=20"`
	Shares    float64 `json:"shares" validate:"nonzero"`
	CostPrice float64 `json:"cost_price" validate:"nonzero"`
}

// BuyRequest spends Amount on a fund
type BuyRequest struct {
	FundCode string  `json:"fund_code" validate:"nonzero,max=20"`
	Amount   float64 `json:"amount" validate:"nonzero"`
}

// SellRequest sells Shares of a fund
type SellRequest struct {
	FundCode string  `json:"fund_code" validate:"nonzero,max=20"`
	Shares   float64 `json:"shares" validate:"nonzero"`
}

// PlanRequest creates a fixed investment plan
type PlanRequest struct {
	FundCode  string  `json:"fund_code" validate:"nonzero,max=20"`
	Amount    float64 `json:"amount" validate:"nonzero"`
	Frequency string  `json:"frequency"` // DAILY, WEEKLY or MONTHLY
}
