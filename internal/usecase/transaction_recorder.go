package usecase

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"myfunds/internal/domain"
	"myfunds/internal/utils"
)

// DefaultFeeRate is the trade fee charged on the gross amount
const DefaultFeeRate = 0.0015

// TransactionRecorder builds immutable BUY and SELL records. Money math is done
// in decimal so fees and share counts do not pick up binary rounding noise.
type TransactionRecorder struct {
	feeRate decimal.Decimal
	now     utils.Clock
}

// NewTransactionRecorder creates a recorder charging feeRate
func NewTransactionRecorder(feeRate float64, now utils.Clock) *TransactionRecorder {
	return &TransactionRecorder{feeRate: decimal.NewFromFloat(feeRate), now: now}
}

// Buy records spending amount on fund at its latest NAV.
// shares = (amount - fee) / nav.
func (r *TransactionRecorder) Buy(userID uuid.UUID, fund *domain.Fund, amount float64) (*domain.FundTransaction, error) {
	if err := positive("amount", amount); err != nil {
		return nil, err
	}
	nav, err := navOf(fund)
	if err != nil {
		return nil, err
	}

	gross := decimal.NewFromFloat(amount)
	fee := gross.Mul(r.feeRate)
	shares := gross.Sub(fee).Div(nav)

	return r.record(userID, fund, domain.TransactionBuy, gross, shares, fee), nil
}

// Sell records selling shares of fund at its latest NAV. amount = shares * nav.
func (r *TransactionRecorder) Sell(userID uuid.UUID, fund *domain.Fund, shares float64) (*domain.FundTransaction, error) {
	if err := positive("shares", shares); err != nil {
		return nil, err
	}
	nav, err := navOf(fund)
	if err != nil {
		return nil, err
	}

	qty := decimal.NewFromFloat(shares)
	gross := qty.Mul(nav)
	fee := gross.Mul(r.feeRate)

	return r.record(userID, fund, domain.TransactionSell, gross, qty, fee), nil
}

func (r *TransactionRecorder) record(userID uuid.UUID, fund *domain.Fund, kind string, gross, shares, fee decimal.Decimal) *domain.FundTransaction {
	now := r.now()
	return &domain.FundTransaction{
		ID:                uuid.New(),
		UserID:            userID,
		FundID:            fund.ID,
		FundCode:          fund.FundCode,
		TransactionType:   kind,
		TransactionAmount: gross.InexactFloat64(),
		TransactionShares: shares.InexactFloat64(),
		TransactionPrice:  fund.LatestNav,
		Fee:               fee.InexactFloat64(),
		Status:            domain.TransactionSuccess,
		TransactionTime:   now,
		CreatedAt:         now,
	}
}

func navOf(fund *domain.Fund) (decimal.Decimal, error) {
	if !(fund.LatestNav > 0) || math.IsInf(fund.LatestNav, 0) {
		return decimal.Zero, fmt.Errorf("%w: fund %s has no valid nav (%v)", domain.ErrInvalidInput, fund.FundCode, fund.LatestNav)
	}
	return decimal.NewFromFloat(fund.LatestNav), nil
}

// positive rejects zero, negative, NaN and infinite values
func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be greater than 0", domain.ErrInvalidInput, name)
	}
	return nil
}
