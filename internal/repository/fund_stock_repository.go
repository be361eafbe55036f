package repository

import (
	"context"

	"github.com/google/uuid"

	"myfunds/internal/domain"
)

// FundStockRepositoryImpl implements the FundStockRepository interface
type FundStockRepositoryImpl struct {
	db DBTX
}

// NewFundStockRepository creates a new FundStockRepository
func NewFundStockRepository(db DBTX) domain.FundStockRepository {
	return &FundStockRepositoryImpl{db: db}
}

// Create inserts a holding line
func (r *FundStockRepositoryImpl) Create(ctx context.Context, stock *domain.FundStock) error {
	query := `
		INSERT INTO fund_stocks (
			id, fund_id, stock_code, stock_name, holding_ratio,
			stock_price, day_growth, holding_value, report_date, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := r.db.Exec(ctx, query,
		stock.ID,
		stock.FundID,
		stock.StockCode,
		stock.StockName,
		stock.HoldingRatio,
		stock.StockPrice,
		stock.DayGrowth,
		stock.HoldingValue,
		stock.ReportDate,
		stock.CreatedAt,
	)
	if err != nil {
		return wrapErr("failed to create fund stock", err)
	}

	return nil
}

// GetByFundID retrieves all holding lines of a fund, largest ratio first
func (r *FundStockRepositoryImpl) GetByFundID(ctx context.Context, fundID uuid.UUID) ([]*domain.FundStock, error) {
	query := `
		SELECT id, fund_id, stock_code, stock_name, holding_ratio,
		       stock_price, day_growth, holding_value, report_date, created_at
		FROM fund_stocks
		WHERE fund_id = $1
		ORDER BY holding_ratio DESC
	`

	rows, err := r.db.Query(ctx, query, fundID)
	if err != nil {
		return nil, wrapErr("failed to query fund stocks", err)
	}
	defer rows.Close()

	var stocks []*domain.FundStock
	for rows.Next() {
		stock := &domain.FundStock{}
		err := rows.Scan(
			&stock.ID,
			&stock.FundID,
			&stock.StockCode,
			&stock.StockName,
			&stock.HoldingRatio,
			&stock.StockPrice,
			&stock.DayGrowth,
			&stock.HoldingValue,
			&stock.ReportDate,
			&stock.CreatedAt,
		)
		if err != nil {
			return nil, wrapErr("failed to scan fund stock", err)
		}
		stocks = append(stocks, stock)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating fund stocks", err)
	}

	return stocks, nil
}

// DeleteByFundID removes every holding line of a fund
func (r *FundStockRepositoryImpl) DeleteByFundID(ctx context.Context, fundID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM fund_stocks WHERE fund_id = $1`, fundID)
	if err != nil {
		return wrapErr("failed to delete fund stocks", err)
	}
	return nil
}
