package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"banking-service/internal/domain"
	"banking-service/internal/repository"
	"banking-service/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	admin = domain.Claims{Role: domain.RoleAdmin}

	errMiss = errors.New("cache miss")
)

func userOf(accountNumber string) domain.Claims {
	return domain.Claims{Role: domain.RoleUser, AccountNumber: accountNumber}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	db        *memory.DB
	store     *repository.Store
	accounts  *AccountUsecase
	txs       *TransactionUsecase
	publisher *recordingPublisher
	cache     *mapCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	store := memory.NewStore(db)
	pub := &recordingPublisher{}
	cache := newMapCache()
	return &fixture{
		db:        db,
		store:     store,
		accounts:  NewAccountUsecase(store.Accounts, nil, cache, zap.NewNop()),
		txs:       NewTransactionUsecase(store, pub, cache, time.Second, zap.NewNop()),
		publisher: pub,
		cache:     cache,
	}
}

func newMemory() (*memory.DB, *repository.Store) {
	db := memory.New()
	return db, memory.NewStore(db)
}

func (f *fixture) seed(t *testing.T, number, balance string) {
	t.Helper()
	require.NoError(t, f.store.Accounts.Create(context.Background(), &domain.Account{
		AccountNumber: number,
		FirstName:     "Taras",
		LastName:      "Bondar",
		Balance:       dec(balance),
	}))
}

func (f *fixture) balance(t *testing.T, number string) decimal.Decimal {
	t.Helper()
	a, err := f.store.Accounts.GetByAccountNumber(context.Background(), number)
	require.NoError(t, err)
	return a.Balance
}

func (f *fixture) history(t *testing.T, number string) []*domain.Transaction {
	t.Helper()
	txs, err := f.store.Transactions.ListByAccount(context.Background(), number)
	require.NoError(t, err)
	return txs
}

// sequentialNumbers yields UA00305299000000001, UA00305299000000002, ...
type sequentialNumbers struct {
	mu sync.Mutex
	n  int
}

func (s *sequentialNumbers) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("UA00305299%09d", s.n)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.TransactionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt *domain.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Events() []*domain.TransactionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.TransactionEvent(nil), p.events...)
}

type mapCache struct {
	mu      sync.Mutex
	data    map[string]string
	gets    int
	deletes int
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string]string)}
}

func (c *mapCache) Get(_ context.Context, namespace, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[namespace+":"+key]
	if !ok {
		return "", errMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, namespace, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.data[namespace+":"+key] = string(v)
	default:
		c.data[namespace+":"+key] = fmt.Sprint(v)
	}
	return nil
}

func (c *mapCache) Delete(_ context.Context, namespace, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.data, namespace+":"+key)
	return nil
}

func (c *mapCache) has(namespace, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[namespace+":"+key]
	return ok
}

// failingCreates rejects every account insert with err and counts the calls.
type failingCreates struct {
	repository.AccountRepository
	err   error
	calls int
}

func (r *failingCreates) Create(context.Context, *domain.Account) error {
	r.calls++
	return r.err
}

// cancelOnBegin cancels the operation's context as soon as its session opens.
type cancelOnBegin struct {
	repository.SessionManager
	cancel context.CancelFunc
}

func (m *cancelOnBegin) Begin(ctx context.Context) (repository.Session, error) {
	sess, err := m.SessionManager.Begin(ctx)
	m.cancel()
	return sess, err
}
