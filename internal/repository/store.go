package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"myfunds/internal/domain"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

type txState struct {
	tx    pgx.Tx
	hooks []func()
}

// PgStore implements domain.Store on a pgx connection pool
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a new PgStore
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Repos returns repositories bound to the transaction in ctx, or to the pool
func (s *PgStore) Repos(ctx context.Context) domain.Repositories {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		return newRepositories(st.tx)
	}
	return newRepositories(s.pool)
}

// WithinTx runs fn inside a transaction, joining one already present in ctx
func (s *PgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx, newRepositories(st.tx))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", errors.Join(domain.ErrUnavailable, err))
	}

	st := &txState{tx: tx}
	txCtx := context.WithValue(ctx, txKey{}, st)

	if err := fn(txCtx, newRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", errors.Join(domain.ErrUnavailable, err))
	}

	for _, hook := range st.hooks {
		hook()
	}
	return nil
}

// AfterCommit defers fn until the outermost transaction commits
func (s *PgStore) AfterCommit(ctx context.Context, fn func()) {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		st.hooks = append(st.hooks, fn)
		return
	}
	fn()
}

func newRepositories(db DBTX) domain.Repositories {
	return domain.Repositories{
		Funds:            NewFundRepository(db),
		FundStocks:       NewFundStockRepository(db),
		UserFunds:        NewUserFundRepository(db),
		Transactions:     NewTransactionRepository(db),
		FixedInvestments: NewFixedInvestmentRepository(db),
		Users:            NewUserRepository(db),
	}
}

// wrapErr classifies a driver error into a domain error kind
func wrapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w: %s", op, domain.ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrUnavailable, err))
}
