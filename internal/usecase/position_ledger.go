package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"myfunds/internal/domain"
	"myfunds/internal/utils"
)

// PositionLedger merges signed share and cost deltas into a user's position
type PositionLedger struct {
	now utils.Clock
}

// NewPositionLedger creates a new PositionLedger
func NewPositionLedger(now utils.Clock) *PositionLedger {
	return &PositionLedger{now: now}
}

// Apply adds sharesDelta and amountDelta to the (user, fund) position and marks it
// at the fund's latest NAV. A missing position is created; a position whose shares
// fall to zero or below is deleted and nil is returned.
func (l *PositionLedger) Apply(
	ctx context.Context,
	positions domain.UserFundRepository,
	userID uuid.UUID,
	fund *domain.Fund,
	sharesDelta, amountDelta float64,
) (*domain.UserFund, error) {
	now := l.now()

	position, err := positions.GetByUserAndFund(ctx, userID, fund.ID)
	if errors.Is(err, domain.ErrNotFound) {
		if sharesDelta <= 0 {
			return nil, fmt.Errorf("%w: no holding of fund %s", domain.ErrNotFound, fund.FundCode)
		}
		position = &domain.UserFund{
			ID:          uuid.New(),
			UserID:      userID,
			FundID:      fund.ID,
			FundCode:    fund.FundCode,
			FundName:    fund.FundName,
			TotalShares: sharesDelta,
			TotalCost:   amountDelta,
			AverageCost: amountDelta / sharesDelta,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		position.Revalue(fund.LatestNav)
		if err := positions.Create(ctx, position); err != nil {
			return nil, err
		}
		return position, nil
	}
	if err != nil {
		return nil, err
	}

	newShares := position.TotalShares + sharesDelta
	if newShares <= 0 {
		if err := positions.DeleteByID(ctx, position.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	position.TotalShares = newShares
	position.TotalCost += amountDelta
	position.AverageCost = position.TotalCost / newShares
	position.UpdatedAt = now
	position.Revalue(fund.LatestNav)

	if err := positions.Update(ctx, position); err != nil {
		return nil, err
	}
	return position, nil
}
