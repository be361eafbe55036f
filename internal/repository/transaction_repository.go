package repository

import (
	"context"

	"github.com/google/uuid"

	"myfunds/internal/domain"
)

// TransactionRepositoryImpl implements the TransactionRepository interface
type TransactionRepositoryImpl struct {
	db DBTX
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db DBTX) domain.TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

// Create appends a transaction
func (r *TransactionRepositoryImpl) Create(ctx context.Context, tx *domain.FundTransaction) error {
	query := `
		INSERT INTO fund_transactions (
			id, user_id, fund_id, transaction_type, transaction_amount,
			transaction_shares, transaction_price, fee, status, transaction_time, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.FundID,
		tx.TransactionType,
		tx.TransactionAmount,
		tx.TransactionShares,
		tx.TransactionPrice,
		tx.Fee,
		tx.Status,
		tx.TransactionTime,
		tx.CreatedAt,
	)
	if err != nil {
		return wrapErr("failed to create transaction", err)
	}

	return nil
}

// GetByUserID retrieves a user's transactions, newest first
func (r *TransactionRepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.FundTransaction, error) {
	query := `
		SELECT t.id, t.user_id, t.fund_id, f.fund_code, t.transaction_type,
		       t.transaction_amount, t.transaction_shares, t.transaction_price,
		       t.fee, t.status, t.transaction_time, t.created_at
		FROM fund_transactions t
		JOIN funds f ON f.id = t.fund_id
		WHERE t.user_id = $1
		ORDER BY t.transaction_time DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("failed to query transactions", err)
	}
	defer rows.Close()

	var txs []*domain.FundTransaction
	for rows.Next() {
		tx := &domain.FundTransaction{}
		err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.FundID,
			&tx.FundCode,
			&tx.TransactionType,
			&tx.TransactionAmount,
			&tx.TransactionShares,
			&tx.TransactionPrice,
			&tx.Fee,
			&tx.Status,
			&tx.TransactionTime,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, wrapErr("failed to scan transaction", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating transactions", err)
	}

	return txs, nil
}
