package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FundRepository defines the interface for fund data operations
type FundRepository interface {
	// Create inserts a new fund
	Create(ctx context.Context, fund *Fund) error

	// Update overwrites all mutable fields of an existing fund
	Update(ctx context.Context, fund *Fund) error

	// GetByID retrieves a fund by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Fund, error)

	// GetByCode retrieves a fund by its fund code
	GetByCode(ctx context.Context, fundCode string) (*Fund, error)

	// GetAll retrieves every stored fund
	GetAll(ctx context.Context) ([]*Fund, error)
}

// FundStockRepository defines the interface for fund holding lines
type FundStockRepository interface {
	// Create inserts a holding line
	Create(ctx context.Context, stock *FundStock) error

	// GetByFundID retrieves all holding lines of a fund, largest ratio first
	GetByFundID(ctx context.Context, fundID uuid.UUID) ([]*FundStock, error)

	// DeleteByFundID removes every holding line of a fund
	DeleteByFundID(ctx context.Context, fundID uuid.UUID) error
}

// UserFundRepository defines the interface for user positions
type UserFundRepository interface {
	// Create inserts a new position
	Create(ctx context.Context, position *UserFund) error

	// Update overwrites shares, cost and valuation fields
	Update(ctx context.Context, position *UserFund) error

	// DeleteByID removes a position
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// GetByUserAndFund retrieves the position for a (user, fund) pair.
	// Inside a transaction the row stays locked until commit.
	GetByUserAndFund(ctx context.Context, userID, fundID uuid.UUID) (*UserFund, error)

	// GetByUserID retrieves all positions of a user
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*UserFund, error)
}

// TransactionRepository defines the interface for the append-only transaction log
type TransactionRepository interface {
	// Create appends a transaction
	Create(ctx context.Context, tx *FundTransaction) error

	// GetByUserID retrieves a user's transactions, newest first
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*FundTransaction, error)
}

// FixedInvestmentRepository defines the interface for recurring plans
type FixedInvestmentRepository interface {
	// Create inserts a new plan
	Create(ctx context.Context, plan *FixedInvestment) error

	// Update persists status and schedule changes
	Update(ctx context.Context, plan *FixedInvestment) error

	// GetByID retrieves a plan by ID
	GetByID(ctx context.Context, id uuid.UUID) (*FixedInvestment, error)

	// GetByUserID retrieves all plans of a user
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*FixedInvestment, error)

	// GetDue retrieves ACTIVE plans whose next execution date is at or before now
	GetDue(ctx context.Context, now time.Time) ([]*FixedInvestment, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update updates profile fields and status
	Update(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*User, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
}

// Repositories groups the repositories bound to one connection or transaction
type Repositories struct {
	Funds            FundRepository
	FundStocks       FundStockRepository
	UserFunds        UserFundRepository
	Transactions     TransactionRepository
	FixedInvestments FixedInvestmentRepository
	Users            UserRepository
}

// Store is the persistence port. WithinTx runs fn as one all-or-nothing unit;
// a WithinTx call made with a context that already carries a transaction joins it.
type Store interface {
	// Repos returns repositories bound to the transaction in ctx, if any
	Repos(ctx context.Context) Repositories

	// WithinTx commits when fn returns nil and rolls back otherwise
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	// AfterCommit schedules fn to run once the outermost transaction in ctx commits.
	// Without a transaction fn runs immediately.
	AfterCommit(ctx context.Context, fn func())
}
