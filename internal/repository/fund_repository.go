package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"myfunds/internal/domain"
)

const fundColumns = `
	id, fund_code, fund_name, fund_type, manager, establish_date,
	latest_nav, day_growth, week_growth, month_growth, quarter_growth, year_growth,
	estimated_day_growth, estimated_nav, estimated_profit, created_at, updated_at`

// FundRepositoryImpl implements the FundRepository interface
type FundRepositoryImpl struct {
	db DBTX
}

// NewFundRepository creates a new FundRepository
func NewFundRepository(db DBTX) domain.FundRepository {
	return &FundRepositoryImpl{db: db}
}

// Create inserts a new fund
func (r *FundRepositoryImpl) Create(ctx context.Context, fund *domain.Fund) error {
	query := `
		INSERT INTO funds (` + fundColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
	`

	_, err := r.db.Exec(ctx, query,
		fund.ID,
		fund.FundCode,
		fund.FundName,
		fund.FundType,
		fund.Manager,
		fund.EstablishDate,
		fund.LatestNav,
		fund.DayGrowth,
		fund.WeekGrowth,
		fund.MonthGrowth,
		fund.QuarterGrowth,
		fund.YearGrowth,
		fund.EstimatedDayGrowth,
		fund.EstimatedNav,
		fund.EstimatedProfit,
		fund.CreatedAt,
		fund.UpdatedAt,
	)
	if err != nil {
		return wrapErr("failed to create fund", err)
	}

	return nil
}

// Update overwrites all mutable fields of an existing fund
func (r *FundRepositoryImpl) Update(ctx context.Context, fund *domain.Fund) error {
	query := `
		UPDATE funds
		SET fund_name = $1, fund_type = $2, manager = $3, establish_date = $4,
		    latest_nav = $5, day_growth = $6, week_growth = $7, month_growth = $8,
		    quarter_growth = $9, year_growth = $10, estimated_day_growth = $11,
		    estimated_nav = $12, estimated_profit = $13, updated_at = $14
		WHERE id = $15
	`

	tag, err := r.db.Exec(ctx, query,
		fund.FundName,
		fund.FundType,
		fund.Manager,
		fund.EstablishDate,
		fund.LatestNav,
		fund.DayGrowth,
		fund.WeekGrowth,
		fund.MonthGrowth,
		fund.QuarterGrowth,
		fund.YearGrowth,
		fund.EstimatedDayGrowth,
		fund.EstimatedNav,
		fund.EstimatedProfit,
		fund.UpdatedAt,
		fund.ID,
	)
	if err != nil {
		return wrapErr("failed to update fund", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr("failed to update fund", pgx.ErrNoRows)
	}

	return nil
}

// GetByID retrieves a fund by ID
func (r *FundRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM funds WHERE id = $1`

	fund, err := scanFund(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr("failed to get fund by ID", err)
	}
	return fund, nil
}

// GetByCode retrieves a fund by its fund code
func (r *FundRepositoryImpl) GetByCode(ctx context.Context, fundCode string) (*domain.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM funds WHERE fund_code = $1`

	fund, err := scanFund(r.db.QueryRow(ctx, query, fundCode))
	if err != nil {
		return nil, wrapErr("failed to get fund by code", err)
	}
	return fund, nil
}

// GetAll retrieves every stored fund
func (r *FundRepositoryImpl) GetAll(ctx context.Context) ([]*domain.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM funds ORDER BY fund_code ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, wrapErr("failed to query funds", err)
	}
	defer rows.Close()

	var funds []*domain.Fund
	for rows.Next() {
		fund, err := scanFund(rows)
		if err != nil {
			return nil, wrapErr("failed to scan fund", err)
		}
		funds = append(funds, fund)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating funds", err)
	}

	return funds, nil
}

func scanFund(row pgx.Row) (*domain.Fund, error) {
	fund := &domain.Fund{}
	err := row.Scan(
		&fund.ID,
		&fund.FundCode,
		&fund.FundName,
		&fund.FundType,
		&fund.Manager,
		&fund.EstablishDate,
		&fund.LatestNav,
		&fund.DayGrowth,
		&fund.WeekGrowth,
		&fund.MonthGrowth,
		&fund.QuarterGrowth,
		&fund.YearGrowth,
		&fund.EstimatedDayGrowth,
		&fund.EstimatedNav,
		&fund.EstimatedProfit,
		&fund.CreatedAt,
		&fund.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return fund, nil
}
