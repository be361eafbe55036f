package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"myfunds/internal/domain"
	"myfunds/internal/logger"
	"myfunds/internal/utils"
)

// FundRefresher refreshes a fund from market data and returns the stored result
type FundRefresher interface {
	RefreshFund(ctx context.Context, fundCode string) (*domain.Fund, error)
}

// TradeService records buys and sells and keeps user positions in step with them.
// At most one mutation per (user, fund) position is in flight at a time.
type TradeService struct {
	store     domain.Store
	funds     FundRefresher
	recorder  *TransactionRecorder
	ledger    *PositionLedger
	publisher domain.TransactionPublisher
	locks     *keyedLock
	now       utils.Clock
}

// NewTradeService creates a new TradeService
func NewTradeService(
	store domain.Store,
	funds FundRefresher,
	publisher domain.TransactionPublisher,
	feeRate float64,
	now utils.Clock,
) *TradeService {
	return &TradeService{
		store:     store,
		funds:     funds,
		recorder:  NewTransactionRecorder(feeRate, now),
		ledger:    NewPositionLedger(now),
		publisher: publisher,
		locks:     newKeyedLock(),
		now:       now,
	}
}

// AddFundHolding records an existing holding without a transaction.
// It only creates; an existing position fails with ErrConflict.
func (s *TradeService) AddFundHolding(ctx context.Context, userID uuid.UUID, fundCode string, shares, costPrice float64) (*domain.UserFund, error) {
	if err := positive("shares", shares); err != nil {
		return nil, err
	}
	if err := positive("cost price", costPrice); err != nil {
		return nil, err
	}
	fundCode = strings.TrimSpace(fundCode)

	unlock := s.locks.Lock(positionKey(userID, fundCode))
	defer unlock()

	var position *domain.UserFund
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		fund, err := s.funds.RefreshFund(ctx, fundCode)
		if err != nil {
			return err
		}

		now := s.now()
		position = &domain.UserFund{
			ID:          uuid.New(),
			UserID:      userID,
			FundID:      fund.ID,
			FundCode:    fund.FundCode,
			FundName:    fund.FundName,
			TotalShares: shares,
			AverageCost: costPrice,
			TotalCost:   shares * costPrice,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		position.Revalue(fund.LatestNav)

		// Create enforces the (user, fund) uniqueness and reports ErrConflict.
		return repos.UserFunds.Create(ctx, position)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("holding added",
		zap.String("user_id", userID.String()),
		zap.String("fund_code", fundCode),
		zap.Float64("shares", shares),
	)
	return position, nil
}

// BuyFund spends amount on the fund at its freshly refreshed NAV
func (s *TradeService) BuyFund(ctx context.Context, userID uuid.UUID, fundCode string, amount float64) (*domain.FundTransaction, error) {
	if err := positive("amount", amount); err != nil {
		return nil, err
	}
	fundCode = strings.TrimSpace(fundCode)

	unlock := s.locks.Lock(positionKey(userID, fundCode))
	defer unlock()

	var tx *domain.FundTransaction
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		tx, err = s.buy(ctx, repos, userID, fundCode, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// SellFund sells shares of the fund at its freshly refreshed NAV
func (s *TradeService) SellFund(ctx context.Context, userID uuid.UUID, fundCode string, shares float64) (*domain.FundTransaction, error) {
	if err := positive("shares", shares); err != nil {
		return nil, err
	}
	fundCode = strings.TrimSpace(fundCode)

	unlock := s.locks.Lock(positionKey(userID, fundCode))
	defer unlock()

	var tx *domain.FundTransaction
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		fund, err := s.funds.RefreshFund(ctx, fundCode)
		if err != nil {
			return err
		}

		position, err := repos.UserFunds.GetByUserAndFund(ctx, userID, fund.ID)
		if err != nil {
			return fmt.Errorf("no holding of fund %s: %w", fundCode, err)
		}
		if shares > position.TotalShares {
			return fmt.Errorf("%w: insufficient shares: have %v, want %v", domain.ErrInvalidInput, position.TotalShares, shares)
		}

		tx, err = s.recorder.Sell(userID, fund, shares)
		if err != nil {
			return err
		}
		if err := repos.Transactions.Create(ctx, tx); err != nil {
			return err
		}
		if _, err := s.ledger.Apply(ctx, repos.UserFunds, userID, fund, -shares, -tx.TransactionAmount); err != nil {
			return err
		}

		s.publishAfterCommit(ctx, tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// GetUserFunds lists a user's positions
func (s *TradeService) GetUserFunds(ctx context.Context, userID uuid.UUID) ([]*domain.UserFund, error) {
	positions, err := s.store.Repos(ctx).UserFunds.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if positions == nil {
		positions = []*domain.UserFund{}
	}
	return positions, nil
}

// GetUserTransactions lists a user's transactions, newest first
func (s *TradeService) GetUserTransactions(ctx context.Context, userID uuid.UUID) ([]*domain.FundTransaction, error) {
	txs, err := s.store.Repos(ctx).Transactions.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []*domain.FundTransaction{}
	}
	return txs, nil
}

// buy runs inside a transaction with the position lock already held
func (s *TradeService) buy(ctx context.Context, repos domain.Repositories, userID uuid.UUID, fundCode string, amount float64) (*domain.FundTransaction, error) {
	fund, err := s.funds.RefreshFund(ctx, fundCode)
	if err != nil {
		return nil, err
	}

	tx, err := s.recorder.Buy(userID, fund, amount)
	if err != nil {
		return nil, err
	}
	if err := repos.Transactions.Create(ctx, tx); err != nil {
		return nil, err
	}
	// Cost basis grows by the gross amount, so the fee is part of the average cost.
	if _, err := s.ledger.Apply(ctx, repos.UserFunds, userID, fund, tx.TransactionShares, tx.TransactionAmount); err != nil {
		return nil, err
	}

	s.publishAfterCommit(ctx, tx)
	return tx, nil
}

// publishAfterCommit logs and feeds tx once it is durable
func (s *TradeService) publishAfterCommit(ctx context.Context, tx *domain.FundTransaction) {
	s.store.AfterCommit(ctx, func() {
		logger.FromContext(ctx).Info("transaction recorded",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("type", tx.TransactionType),
			zap.String("fund_code", tx.FundCode),
			zap.Float64("amount", tx.TransactionAmount),
			zap.Float64("shares", tx.TransactionShares),
			zap.Float64("fee", tx.Fee),
		)
		if err := s.publisher.Publish(context.WithoutCancel(ctx), tx); err != nil {
			logger.FromContext(ctx).Warn("failed to publish transaction",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(err),
			)
		}
	})
}

func positionKey(userID uuid.UUID, fundCode string) string {
	return userID.String() + ":" + fundCode
}
