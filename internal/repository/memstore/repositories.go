package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"myfunds/internal/domain"
)

type fundRepo struct{ base }

func (r *fundRepo) Create(ctx context.Context, fund *domain.Fund) error {
	d, done := r.enter()
	defer done()

	for _, f := range d.funds {
		if f.FundCode == fund.FundCode {
			return fmt.Errorf("failed to create fund: %w: fund code %s", domain.ErrConflict, fund.FundCode)
		}
	}
	d.funds[fund.ID] = *fund
	return nil
}

func (r *fundRepo) Update(ctx context.Context, fund *domain.Fund) error {
	d, done := r.enter()
	defer done()

	if _, ok := d.funds[fund.ID]; !ok {
		return fmt.Errorf("failed to update fund: %w", domain.ErrNotFound)
	}
	d.funds[fund.ID] = *fund
	return nil
}

func (r *fundRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fund, error) {
	d, done := r.enter()
	defer done()

	f, ok := d.funds[id]
	if !ok {
		return nil, fmt.Errorf("failed to get fund: %w", domain.ErrNotFound)
	}
	return &f, nil
}

func (r *fundRepo) GetByCode(ctx context.Context, fundCode string) (*domain.Fund, error) {
	d, done := r.enter()
	defer done()

	for _, f := range d.funds {
		if f.FundCode == fundCode {
			return &f, nil
		}
	}
	return nil, fmt.Errorf("failed to get fund by code: %w", domain.ErrNotFound)
}

func (r *fundRepo) GetAll(ctx context.Context) ([]*domain.Fund, error) {
	d, done := r.enter()
	defer done()

	funds := make([]*domain.Fund, 0, len(d.funds))
	for _, f := range d.funds {
		funds = append(funds, &f)
	}
	sort.Slice(funds, func(i, j int) bool { return funds[i].FundCode < funds[j].FundCode })
	return funds, nil
}

type fundStockRepo struct{ base }

func (r *fundStockRepo) Create(ctx context.Context, stock *domain.FundStock) error {
	d, done := r.enter()
	defer done()

	if _, ok := d.funds[stock.FundID]; !ok {
		return fmt.Errorf("failed to create fund stock: %w: unknown fund", domain.ErrNotFound)
	}
	d.stocks[stock.FundID] = append(d.stocks[stock.FundID], *stock)
	return nil
}

func (r *fundStockRepo) GetByFundID(ctx context.Context, fundID uuid.UUID) ([]*domain.FundStock, error) {
	d, done := r.enter()
	defer done()

	lines := d.stocks[fundID]
	stocks := make([]*domain.FundStock, 0, len(lines))
	for _, s := range lines {
		stocks = append(stocks, &s)
	}
	sort.SliceStable(stocks, func(i, j int) bool { return stocks[i].HoldingRatio > stocks[j].HoldingRatio })
	return stocks, nil
}

func (r *fundStockRepo) DeleteByFundID(ctx context.Context, fundID uuid.UUID) error {
	d, done := r.enter()
	defer done()

	delete(d.stocks, fundID)
	return nil
}

type userFundRepo struct{ base }

func (r *userFundRepo) Create(ctx context.Context, position *domain.UserFund) error {
	d, done := r.enter()
	defer done()

	for _, p := range d.userFunds {
		if p.UserID == position.UserID && p.FundID == position.FundID {
			return fmt.Errorf("failed to create user fund: %w: position exists", domain.ErrConflict)
		}
	}
	d.userFunds[position.ID] = *position
	return nil
}

func (r *userFundRepo) Update(ctx context.Context, position *domain.UserFund) error {
	d, done := r.enter()
	defer done()

	if _, ok := d.userFunds[position.ID]; !ok {
		return fmt.Errorf("failed to update user fund: %w", domain.ErrNotFound)
	}
	d.userFunds[position.ID] = *position
	return nil
}

func (r *userFundRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	d, done := r.enter()
	defer done()

	delete(d.userFunds, id)
	return nil
}

func (r *userFundRepo) GetByUserAndFund(ctx context.Context, userID, fundID uuid.UUID) (*domain.UserFund, error) {
	d, done := r.enter()
	defer done()

	for _, p := range d.userFunds {
		if p.UserID == userID && p.FundID == fundID {
			return withFund(d, p), nil
		}
	}
	return nil, fmt.Errorf("failed to get user fund: %w", domain.ErrNotFound)
}

func (r *userFundRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.UserFund, error) {
	d, done := r.enter()
	defer done()

	var positions []*domain.UserFund
	for _, p := range d.userFunds {
		if p.UserID == userID {
			positions = append(positions, withFund(d, p))
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].CreatedAt.Before(positions[j].CreatedAt) })
	return positions, nil
}

// withFund fills the fund code and name the way the SQL join does
func withFund(d *data, p domain.UserFund) *domain.UserFund {
	if f, ok := d.funds[p.FundID]; ok {
		p.FundCode = f.FundCode
		p.FundName = f.FundName
	}
	return &p
}

type transactionRepo struct{ base }

func (r *transactionRepo) Create(ctx context.Context, tx *domain.FundTransaction) error {
	d, done := r.enter()
	defer done()

	d.txs = append(d.txs, *tx)
	return nil
}

func (r *transactionRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.FundTransaction, error) {
	d, done := r.enter()
	defer done()

	var txs []*domain.FundTransaction
	for _, t := range d.txs {
		if t.UserID != userID {
			continue
		}
		if f, ok := d.funds[t.FundID]; ok {
			t.FundCode = f.FundCode
		}
		txs = append(txs, &t)
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].TransactionTime.After(txs[j].TransactionTime) })
	return txs, nil
}

type planRepo struct{ base }

func (r *planRepo) Create(ctx context.Context, plan *domain.FixedInvestment) error {
	d, done := r.enter()
	defer done()

	d.plans[plan.ID] = *plan
	return nil
}

func (r *planRepo) Update(ctx context.Context, plan *domain.FixedInvestment) error {
	d, done := r.enter()
	defer done()

	if _, ok := d.plans[plan.ID]; !ok {
		return fmt.Errorf("failed to update fixed investment: %w", domain.ErrNotFound)
	}
	d.plans[plan.ID] = *plan
	return nil
}

func (r *planRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FixedInvestment, error) {
	d, done := r.enter()
	defer done()

	p, ok := d.plans[id]
	if !ok {
		return nil, fmt.Errorf("failed to get fixed investment: %w", domain.ErrNotFound)
	}
	return withPlanFund(d, p), nil
}

func (r *planRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.FixedInvestment, error) {
	return r.filter(func(p domain.FixedInvestment) bool { return p.UserID == userID },
		func(a, b *domain.FixedInvestment) bool { return a.CreatedAt.Before(b.CreatedAt) })
}

func (r *planRepo) GetDue(ctx context.Context, now time.Time) ([]*domain.FixedInvestment, error) {
	return r.filter(func(p domain.FixedInvestment) bool { return p.IsDue(now) },
		func(a, b *domain.FixedInvestment) bool { return a.NextExecutionDate.Before(b.NextExecutionDate) })
}

func (r *planRepo) filter(keep func(domain.FixedInvestment) bool, less func(a, b *domain.FixedInvestment) bool) ([]*domain.FixedInvestment, error) {
	d, done := r.enter()
	defer done()

	var plans []*domain.FixedInvestment
	for _, p := range d.plans {
		if keep(p) {
			plans = append(plans, withPlanFund(d, p))
		}
	}
	sort.SliceStable(plans, func(i, j int) bool { return less(plans[i], plans[j]) })
	return plans, nil
}

func withPlanFund(d *data, p domain.FixedInvestment) *domain.FixedInvestment {
	if f, ok := d.funds[p.FundID]; ok {
		p.FundCode = f.FundCode
	}
	return &p
}

type userRepo struct{ base }

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	d, done := r.enter()
	defer done()

	for _, u := range d.users {
		switch {
		case u.Username == user.Username:
			return fmt.Errorf("failed to create user: %w: username taken", domain.ErrConflict)
		case user.Email != "" && u.Email == user.Email:
			return fmt.Errorf("failed to create user: %w: email taken", domain.ErrConflict)
		case user.Phone != "" && u.Phone == user.Phone:
			return fmt.Errorf("failed to create user: %w: phone taken", domain.ErrConflict)
		}
	}
	d.users[user.ID] = *user
	return nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	d, done := r.enter()
	defer done()

	if _, ok := d.users[user.ID]; !ok {
		return fmt.Errorf("failed to update user: %w", domain.ErrNotFound)
	}
	for id, u := range d.users {
		if id == user.ID {
			continue
		}
		if u.Username == user.Username || (user.Email != "" && u.Email == user.Email) || (user.Phone != "" && u.Phone == user.Phone) {
			return fmt.Errorf("failed to update user: %w: username or contact taken", domain.ErrConflict)
		}
	}
	d.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	d, done := r.enter()
	defer done()

	u, ok := d.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user by ID: %w", domain.ErrNotFound)
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	d, done := r.enter()
	defer done()

	for _, u := range d.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("failed to get user by username: %w", domain.ErrNotFound)
}

func (r *userRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(func(u domain.User) bool { return u.Username == username }), nil
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(func(u domain.User) bool { return email != "" && u.Email == email }), nil
}

func (r *userRepo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return r.exists(func(u domain.User) bool { return phone != "" && u.Phone == phone }), nil
}

func (r *userRepo) exists(match func(domain.User) bool) bool {
	d, done := r.enter()
	defer done()

	for _, u := range d.users {
		if match(u) {
			return true
		}
	}
	return false
}
