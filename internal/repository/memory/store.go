// Package memory is an in-process store used by tests and the memory backend.
// Session writes are buffered and applied under one lock on commit.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"banking-service/internal/domain"
	"banking-service/internal/repository"

	"github.com/google/uuid"
)

var ErrSessionClosed = errors.New("session already closed")

// DB holds the committed state plus the fault hooks.
type DB struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	order    []string
	txs      []*domain.Transaction

	faultMu        sync.Mutex
	collisions     int
	txInsertFaults int
	txInsertErr    error
	commitErr      error
	sessionsBegun  int
	accountInserts int
}

func New() *DB {
	return &DB{accounts: make(map[string]*domain.Account)}
}

// NewStore wires the memory repositories on db.
func NewStore(db *DB) *repository.Store {
	return &repository.Store{
		Accounts:     &accountRepo{db: db},
		Transactions: &transactionRepo{db: db},
		Sessions:     &sessionManager{db: db},
		Close:        func(context.Context) error { return nil },
	}
}

// CollideAccountInserts makes the next n account inserts report a duplicate number.
func (db *DB) CollideAccountInserts(n int) {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	db.collisions = n
}

// FailTransactionInserts makes the next n transaction log inserts fail with err.
func (db *DB) FailTransactionInserts(n int, err error) {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	db.txInsertFaults, db.txInsertErr = n, err
}

// FailCommits makes every commit fail with err until reset with nil.
func (db *DB) FailCommits(err error) {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	db.commitErr = err
}

func (db *DB) SessionsBegun() int {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	return db.sessionsBegun
}

// AccountInsertAttempts counts every account insert, rejected ones included.
func (db *DB) AccountInsertAttempts() int {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	return db.accountInserts
}

func (db *DB) takeCollision() bool {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	db.accountInserts++
	if db.collisions > 0 {
		db.collisions--
		return true
	}
	return false
}

func (db *DB) takeTxInsertFault() error {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	if db.txInsertFaults > 0 {
		db.txInsertFaults--
		return db.txInsertErr
	}
	return nil
}

// checkVersion must be called with db.mu held.
func (db *DB) checkVersion(a *domain.Account) error {
	cur, ok := db.accounts[a.AccountNumber]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Version != a.Version {
		return repository.ErrConcurrentModification
	}
	return nil
}

// applyUpdate must be called with db.mu held for writing.
func (db *DB) applyUpdate(a *domain.Account, now time.Time) {
	cur := db.accounts[a.AccountNumber]
	cp := a.Clone()
	cp.ID = cur.ID
	cp.CreatedAt = cur.CreatedAt
	cp.Version = cur.Version + 1
	cp.UpdatedAt = now
	db.accounts[a.AccountNumber] = cp
}

type accountRepo struct {
	db *DB
}

func (r *accountRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.accounts[accountNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *accountRepo) GetAll(ctx context.Context) ([]*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*domain.Account, 0, len(r.db.order))
	for _, n := range r.db.order {
		out = append(out, r.db.accounts[n].Clone())
	}
	return out, nil
}

func (r *accountRepo) Create(ctx context.Context, a *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.db.takeCollision() {
		return repository.ErrDuplicateAccountNumber
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.accounts[a.AccountNumber]; exists {
		return repository.ErrDuplicateAccountNumber
	}

	now := time.Now().UTC()
	a.ID = uuid.NewString()
	a.Version = 0
	a.CreatedAt, a.UpdatedAt = now, now
	r.db.accounts[a.AccountNumber] = a.Clone()
	r.db.order = append(r.db.order, a.AccountNumber)
	return nil
}

func (r *accountRepo) Update(ctx context.Context, a *domain.Account, sess repository.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sess != nil {
		s, err := asSession(sess)
		if err != nil {
			return err
		}
		return s.stageAccount(a)
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.checkVersion(a); err != nil {
		return err
	}
	now := time.Now().UTC()
	r.db.applyUpdate(a, now)
	a.Version++
	a.UpdatedAt = now
	return nil
}

type transactionRepo struct {
	db *DB
}

func (r *transactionRepo) Create(ctx context.Context, t *domain.Transaction, sess repository.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.db.takeTxInsertFault(); err != nil {
		return err
	}

	t.ID = uuid.NewString()
	if sess != nil {
		s, err := asSession(sess)
		if err != nil {
			return err
		}
		return s.stageTransaction(t)
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.txs = append(r.db.txs, cloneTransaction(t))
	return nil
}

func (r *transactionRepo) Update(ctx context.Context, t *domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i, cur := range r.db.txs {
		if cur.ID == t.ID {
			r.db.txs[i] = cloneTransaction(t)
			return nil
		}
	}
	return repository.ErrNotFound
}

// ListByAccount returns entries naming accountNumber on either side, newest first.
func (r *transactionRepo) ListByAccount(ctx context.Context, accountNumber string) ([]*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*domain.Transaction
	for i := len(r.db.txs) - 1; i >= 0; i-- {
		t := r.db.txs[i]
		if t.ExecutionAccount == accountNumber ||
			(t.CounterpartyAccount != nil && *t.CounterpartyAccount == accountNumber) {
			out = append(out, cloneTransaction(t))
		}
	}
	return out, nil
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	cp := *t
	if t.CounterpartyAccount != nil {
		c := *t.CounterpartyAccount
		cp.CounterpartyAccount = &c
	}
	return &cp
}
