package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"myfunds/internal/domain"
)

const userFundSelect = `
	SELECT uf.id, uf.user_id, uf.fund_id, f.fund_code, f.fund_name,
	       uf.total_shares, uf.average_cost, uf.total_cost, uf.current_value,
	       uf.profit_loss, uf.profit_loss_ratio, uf.created_at, uf.updated_at
	FROM user_funds uf
	JOIN funds f ON f.id = uf.fund_id`

// UserFundRepositoryImpl implements the UserFundRepository interface
type UserFundRepositoryImpl struct {
	db DBTX
}

// NewUserFundRepository creates a new UserFundRepository
func NewUserFundRepository(db DBTX) domain.UserFundRepository {
	return &UserFundRepositoryImpl{db: db}
}

// Create inserts a new position
func (r *UserFundRepositoryImpl) Create(ctx context.Context, position *domain.UserFund) error {
	query := `
		INSERT INTO user_funds (
			id, user_id, fund_id, total_shares, average_cost, total_cost,
			current_value, profit_loss, profit_loss_ratio, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.Exec(ctx, query,
		position.ID,
		position.UserID,
		position.FundID,
		position.TotalShares,
		position.AverageCost,
		position.TotalCost,
		position.CurrentValue,
		position.ProfitLoss,
		position.ProfitLossRatio,
		position.CreatedAt,
		position.UpdatedAt,
	)
	if err != nil {
		return wrapErr("failed to create user fund", err)
	}

	return nil
}

// Update overwrites shares, cost and valuation fields
func (r *UserFundRepositoryImpl) Update(ctx context.Context, position *domain.UserFund) error {
	query := `
		UPDATE user_funds
		SET total_shares = $1, average_cost = $2, total_cost = $3, current_value = $4,
		    profit_loss = $5, profit_loss_ratio = $6, updated_at = $7
		WHERE id = $8
	`

	tag, err := r.db.Exec(ctx, query,
		position.TotalShares,
		position.AverageCost,
		position.TotalCost,
		position.CurrentValue,
		position.ProfitLoss,
		position.ProfitLossRatio,
		position.UpdatedAt,
		position.ID,
	)
	if err != nil {
		return wrapErr("failed to update user fund", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr("failed to update user fund", pgx.ErrNoRows)
	}

	return nil
}

// DeleteByID removes a position
func (r *UserFundRepositoryImpl) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM user_funds WHERE id = $1`, id)
	if err != nil {
		return wrapErr("failed to delete user fund", err)
	}
	return nil
}

// GetByUserAndFund retrieves and row-locks the position for a (user, fund) pair
func (r *UserFundRepositoryImpl) GetByUserAndFund(ctx context.Context, userID, fundID uuid.UUID) (*domain.UserFund, error) {
	query := userFundSelect + `
		WHERE uf.user_id = $1 AND uf.fund_id = $2
		FOR UPDATE OF uf
	`

	position, err := scanUserFund(r.db.QueryRow(ctx, query, userID, fundID))
	if err != nil {
		return nil, wrapErr("failed to get user fund", err)
	}
	return position, nil
}

// GetByUserID retrieves all positions of a user
func (r *UserFundRepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.UserFund, error) {
	query := userFundSelect + `
		WHERE uf.user_id = $1
		ORDER BY uf.created_at ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("failed to query user funds", err)
	}
	defer rows.Close()

	var positions []*domain.UserFund
	for rows.Next() {
		position, err := scanUserFund(rows)
		if err != nil {
			return nil, wrapErr("failed to scan user fund", err)
		}
		positions = append(positions, position)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating user funds", err)
	}

	return positions, nil
}

func scanUserFund(row pgx.Row) (*domain.UserFund, error) {
	p := &domain.UserFund{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.FundID,
		&p.FundCode,
		&p.FundName,
		&p.TotalShares,
		&p.AverageCost,
		&p.TotalCost,
		&p.CurrentValue,
		&p.ProfitLoss,
		&p.ProfitLossRatio,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
