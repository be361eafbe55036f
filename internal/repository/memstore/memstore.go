// Package memstore is an in-memory domain.Store used for local runs and tests.
// A single mutex serializes transactions; a failed transaction restores the
// snapshot taken when it began.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"myfunds/internal/domain"
)

type txKey struct{}

type txState struct {
	hooks []func()
}

type data struct {
	funds     map[uuid.UUID]domain.Fund
	stocks    map[uuid.UUID][]domain.FundStock
	userFunds map[uuid.UUID]domain.UserFund
	txs       []domain.FundTransaction
	plans     map[uuid.UUID]domain.FixedInvestment
	users     map[uuid.UUID]domain.User
}

func newData() *data {
	return &data{
		funds:     make(map[uuid.UUID]domain.Fund),
		stocks:    make(map[uuid.UUID][]domain.FundStock),
		userFunds: make(map[uuid.UUID]domain.UserFund),
		plans:     make(map[uuid.UUID]domain.FixedInvestment),
		users:     make(map[uuid.UUID]domain.User),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.funds {
		c.funds[k] = v
	}
	for k, v := range d.stocks {
		c.stocks[k] = append([]domain.FundStock(nil), v...)
	}
	for k, v := range d.userFunds {
		c.userFunds[k] = v
	}
	c.txs = append([]domain.FundTransaction(nil), d.txs...)
	for k, v := range d.plans {
		c.plans[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	return c
}

// Store implements domain.Store in memory
type Store struct {
	mu   sync.Mutex
	data *data
}

// New creates an empty Store
func New() *Store {
	return &Store{data: newData()}
}

// Repos returns repositories bound to the transaction in ctx, if any.
// Outside a transaction every call takes the store lock on its own.
func (s *Store) Repos(ctx context.Context) domain.Repositories {
	_, inTx := ctx.Value(txKey{}).(*txState)
	return s.repos(!inTx)
}

// WithinTx runs fn holding the store lock. On error all changes made by fn are discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx, s.repos(false))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	st := &txState{}
	txCtx := context.WithValue(ctx, txKey{}, st)

	if err := s.run(txCtx, fn); err != nil {
		return err
	}
	for _, hook := range st.hooks {
		hook()
	}
	return nil
}

func (s *Store) run(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if r := recover(); r != nil {
			s.data = snapshot
			panic(r)
		}
		if err != nil {
			s.data = snapshot
		}
	}()

	return fn(ctx, s.repos(false))
}

// AfterCommit defers fn until the outermost transaction commits
func (s *Store) AfterCommit(ctx context.Context, fn func()) {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		st.hooks = append(st.hooks, fn)
		return
	}
	fn()
}

func (s *Store) repos(lock bool) domain.Repositories {
	b := base{s: s, lock: lock}
	return domain.Repositories{
		Funds:            &fundRepo{b},
		FundStocks:       &fundStockRepo{b},
		UserFunds:        &userFundRepo{b},
		Transactions:     &transactionRepo{b},
		FixedInvestments: &planRepo{b},
		Users:            &userRepo{b},
	}
}

type base struct {
	s    *Store
	lock bool
}

// enter takes the store lock when the repository is not bound to a transaction.
// The returned func releases it.
func (b base) enter() (*data, func()) {
	if b.lock {
		b.s.mu.Lock()
		return b.s.data, b.s.mu.Unlock
	}
	return b.s.data, func() {}
}
