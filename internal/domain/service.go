package domain

import "context"

// MarketDataProvider fetches fund data from an external market source.
// Implementations return ErrNotFound for unknown codes and ErrUnavailable
// for transport or upstream failures.
type MarketDataProvider interface {
	FetchFundMetadata(ctx context.Context, fundCode string) (*Fund, error)
	FetchHoldings(ctx context.Context, fundCode string) ([]*FundStock, error)
}

// FundCache is a read-through cache for fund views. Misses and cache errors
// both report ok=false; callers fall back to the store.
type FundCache interface {
	GetFund(ctx context.Context, fundCode string) (*Fund, bool)
	SetFund(ctx context.Context, fund *Fund)
	GetHoldings(ctx context.Context, fundCode string) ([]*FundStock, bool)
	SetHoldings(ctx context.Context, fundCode string, holdings []*FundStock)
}

// TransactionPublisher emits committed transactions to downstream consumers
type TransactionPublisher interface {
	Publish(ctx context.Context, tx *FundTransaction) error
	Close() error
}
