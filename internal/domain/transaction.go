package domain

import (
	"time"

	"github.com/google/uuid"
)

// FundTransaction is an immutable record of one buy or sell
type FundTransaction struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	FundID            uuid.UUID `json:"fund_id"`
	FundCode          string    `json:"fund_code"`
	TransactionType   string    `json:"transaction_type"`
	TransactionAmount float64   `json:"transaction_amount"` // gross
	TransactionShares float64   `json:"transaction_shares"`
	TransactionPrice  float64   `json:"transaction_price"`
	Fee               float64   `json:"fee"`
	Status            string    `json:"status"`
	TransactionTime   time.Time `json:"transaction_time"`
	CreatedAt         time.Time `json:"created_at"`
}

// TransactionType constants
const (
	TransactionBuy  = "BUY"
	TransactionSell = "SELL"
)

// TransactionStatus constants
const (
	TransactionPending = "PENDING"
	TransactionSuccess = "SUCCESS"
	TransactionFailed  = "FAILED"
)
