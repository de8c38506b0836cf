package memory

import (
	"context"
	"errors"
	"testing"

	"banking-service/internal/domain"
	"banking-service/internal/repository"
	"banking-service/internal/repository/repotest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store *repository.Store, number string, balance int64) *domain.Account {
	t.Helper()
	a := &domain.Account{AccountNumber: number, FirstName: "Ivan", LastName: "Franko", Balance: decimal.NewFromInt(balance)}
	require.NoError(t, store.Accounts.Create(context.Background(), a))
	return a
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	store := NewStore(New())
	seed(t, store, "UA1", 0)

	err := store.Accounts.Create(context.Background(), &domain.Account{AccountNumber: "UA1"})
	assert.ErrorIs(t, err, repository.ErrDuplicateAccountNumber)

	all, err := store.Accounts.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCollideAccountInserts(t *testing.T) {
	db := New()
	store := NewStore(db)
	db.CollideAccountInserts(2)

	ctx := context.Background()
	assert.ErrorIs(t, store.Accounts.Create(ctx, &domain.Account{AccountNumber: "UA1"}), repository.ErrDuplicateAccountNumber)
	assert.ErrorIs(t, store.Accounts.Create(ctx, &domain.Account{AccountNumber: "UA2"}), repository.ErrDuplicateAccountNumber)
	assert.NoError(t, store.Accounts.Create(ctx, &domain.Account{AccountNumber: "UA3"}))
	assert.Equal(t, 3, db.AccountInsertAttempts())
}

func TestSessionWritesInvisibleUntilCommit(t *testing.T) {
	store := NewStore(New())
	ctx := context.Background()
	a := seed(t, store, "UA1", 100)

	sess, err := store.Sessions.Begin(ctx)
	require.NoError(t, err)

	a.Balance = decimal.NewFromInt(150)
	require.NoError(t, store.Accounts.Update(ctx, a, sess))
	require.NoError(t, store.Transactions.Create(ctx, &domain.Transaction{
		ExecutionAccount: "UA1", Amount: decimal.NewFromInt(50), Type: domain.TransactionDeposit,
	}, sess))

	got, err := store.Accounts.GetByAccountNumber(ctx, "UA1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(got.Balance))

	history, err := store.Transactions.ListByAccount(ctx, "UA1")
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, sess.Commit(ctx))

	got, err = store.Accounts.GetByAccountNumber(ctx, "UA1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(got.Balance))
	assert.Equal(t, int64(1), got.Version)
	assert.True(t, a.UpdatedAt.Equal(got.UpdatedAt))

	history, err = store.Transactions.ListByAccount(ctx, "UA1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAbortDiscardsWrites(t *testing.T) {
	store := NewStore(New())
	ctx := context.Background()
	a := seed(t, store, "UA1", 100)

	sess, err := store.Sessions.Begin(ctx)
	require.NoError(t, err)

	a.Balance = decimal.Zero
	require.NoError(t, store.Accounts.Update(ctx, a, sess))
	require.NoError(t, sess.Abort(ctx))
	assert.ErrorIs(t, sess.Commit(ctx), ErrSessionClosed)

	got, err := store.Accounts.GetByAccountNumber(ctx, "UA1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(got.Balance))
}

func TestCommitDetectsConcurrentModification(t *testing.T) {
	store := NewStore(New())
	ctx := context.Background()
	seed(t, store, "UA1", 100)

	first, err := store.Accounts.GetByAccountNumber(ctx, "UA1")
	require.NoError(t, err)
	second, err := store.Accounts.GetByAccountNumber(ctx, "UA1")
	require.NoError(t, err)

	sess, err := store.Sessions.Begin(ctx)
	require.NoError(t, err)
	first.Balance = decimal.NewFromInt(10)
	require.NoError(t, store.Accounts.Update(ctx, first, sess))

	second.Balance = decimal.NewFromInt(20)
	require.NoError(t, store.Accounts.Update(ctx, second, nil))

	assert.ErrorIs(t, sess.Commit(ctx), repository.ErrConcurrentModification)

	got, err := store.Accounts.GetByAccountNumber(ctx, "UA1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(got.Balance))
}

func TestUpdateUnknownAccount(t *testing.T) {
	store := NewStore(New())
	err := store.Accounts.Update(context.Background(), &domain.Account{AccountNumber: "ZZ000"}, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFailTransactionInserts(t *testing.T) {
	db := New()
	store := NewStore(db)
	boom := errors.New("disk full")
	db.FailTransactionInserts(1, boom)

	ctx := context.Background()
	err := store.Transactions.Create(ctx, &domain.Transaction{ExecutionAccount: "UA1"}, nil)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, store.Transactions.Create(ctx, &domain.Transaction{ExecutionAccount: "UA1"}, nil))
}

type otherSession struct{}

func (otherSession) Commit(context.Context) error { return nil }
func (otherSession) Abort(context.Context) error  { return nil }

func TestForeignSessionRejected(t *testing.T) {
	store := NewStore(New())
	a := seed(t, store, "UA1", 1)
	err := store.Accounts.Update(context.Background(), a, otherSession{})
	assert.ErrorIs(t, err, repository.ErrForeignSession)
}

func TestListByAccountIncludesCounterparty(t *testing.T) {
	store := NewStore(New())
	ctx := context.Background()
	to := "UA2"

	require.NoError(t, store.Transactions.Create(ctx, &domain.Transaction{ExecutionAccount: "UA1", Type: domain.TransactionDeposit}, nil))
	require.NoError(t, store.Transactions.Create(ctx, &domain.Transaction{ExecutionAccount: "UA1", CounterpartyAccount: &to, Type: domain.TransactionTransfer}, nil))

	got, err := store.Transactions.ListByAccount(ctx, "UA2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.TransactionTransfer, got[0].Type)

	got, err = store.Transactions.ListByAccount(ctx, "UA1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.TransactionTransfer, got[0].Type)
}

func TestStoreContract(t *testing.T) {
	repotest.RunStoreContract(t, func(*testing.T) *repository.Store {
		return NewStore(New())
	})
}
