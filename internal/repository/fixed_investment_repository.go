package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"myfunds/internal/domain"
)

const planSelect = `
	SELECT p.id, p.user_id, p.fund_id, f.fund_code, p.amount, p.frequency,
	       p.start_date, p.next_execution_date, p.status, p.created_at, p.updated_at
	FROM fixed_investments p
	JOIN funds f ON f.id = p.fund_id`

// FixedInvestmentRepositoryImpl implements the FixedInvestmentRepository interface
type FixedInvestmentRepositoryImpl struct {
	db DBTX
}

// NewFixedInvestmentRepository creates a new FixedInvestmentRepository
func NewFixedInvestmentRepository(db DBTX) domain.FixedInvestmentRepository {
	return &FixedInvestmentRepositoryImpl{db: db}
}

// Create inserts a new plan
func (r *FixedInvestmentRepositoryImpl) Create(ctx context.Context, plan *domain.FixedInvestment) error {
	query := `
		INSERT INTO fixed_investments (
			id, user_id, fund_id, amount, frequency, start_date,
			next_execution_date, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := r.db.Exec(ctx, query,
		plan.ID,
		plan.UserID,
		plan.FundID,
		plan.Amount,
		plan.Frequency,
		plan.StartDate,
		plan.NextExecutionDate,
		plan.Status,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return wrapErr("failed to create fixed investment", err)
	}

	return nil
}

// Update persists status and schedule changes
func (r *FixedInvestmentRepositoryImpl) Update(ctx context.Context, plan *domain.FixedInvestment) error {
	query := `
		UPDATE fixed_investments
		SET amount = $1, frequency = $2, next_execution_date = $3, status = $4, updated_at = $5
		WHERE id = $6
	`

	tag, err := r.db.Exec(ctx, query,
		plan.Amount,
		plan.Frequency,
		plan.NextExecutionDate,
		plan.Status,
		plan.UpdatedAt,
		plan.ID,
	)
	if err != nil {
		return wrapErr("failed to update fixed investment", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr("failed to update fixed investment", pgx.ErrNoRows)
	}

	return nil
}

// GetByID retrieves a plan by ID, row-locked inside a transaction
func (r *FixedInvestmentRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.FixedInvestment, error) {
	query := planSelect + `
		WHERE p.id = $1
		FOR UPDATE OF p
	`

	plan, err := scanPlan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr("failed to get fixed investment", err)
	}
	return plan, nil
}

// GetByUserID retrieves all plans of a user
func (r *FixedInvestmentRepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.FixedInvestment, error) {
	return r.query(ctx, planSelect+`
		WHERE p.user_id = $1
		ORDER BY p.created_at ASC
	`, userID)
}

// GetDue retrieves ACTIVE plans whose next execution date is at or before now
func (r *FixedInvestmentRepositoryImpl) GetDue(ctx context.Context, now time.Time) ([]*domain.FixedInvestment, error) {
	return r.query(ctx, planSelect+`
		WHERE p.status = $1 AND p.next_execution_date <= $2
		ORDER BY p.next_execution_date ASC
	`, domain.PlanActive, now)
}

func (r *FixedInvestmentRepositoryImpl) query(ctx context.Context, query string, args ...any) ([]*domain.FixedInvestment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("failed to query fixed investments", err)
	}
	defer rows.Close()

	var plans []*domain.FixedInvestment
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, wrapErr("failed to scan fixed investment", err)
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating fixed investments", err)
	}

	return plans, nil
}

func scanPlan(row pgx.Row) (*domain.FixedInvestment, error) {
	p := &domain.FixedInvestment{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.FundID,
		&p.FundCode,
		&p.Amount,
		&p.Frequency,
		&p.StartDate,
		&p.NextExecutionDate,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
