// Package repotest holds the behaviour every repository backend must share.
package repotest

import (
	"context"
	"testing"
	"time"

	"banking-service/internal/domain"
	"banking-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory returns an empty store; cleanup is registered on t.
type StoreFactory func(t *testing.T) *repository.Store

type foreignSession struct{}

func (foreignSession) Commit(context.Context) error { return nil }
func (foreignSession) Abort(context.Context) error  { return nil }

// RunStoreContract runs the shared account, transaction log and session checks.
func RunStoreContract(t *testing.T, newStore StoreFactory) {
	t.Run("create rejects duplicate number", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		seed(t, store, "UA10305299100000001", "5")

		err := store.Accounts.Create(ctx, &domain.Account{
			AccountNumber: "UA10305299100000001", FirstName: "B", LastName: "C", Balance: decimal.Zero,
		})
		assert.ErrorIs(t, err, repository.ErrDuplicateAccountNumber)
	})

	t.Run("update guards version", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		seed(t, store, "UA10305299100000002", "10")

		first, err := store.Accounts.GetByAccountNumber(ctx, "UA10305299100000002")
		require.NoError(t, err)
		stale := first.Clone()

		first.Balance = decimal.NewFromInt(20)
		require.NoError(t, store.Accounts.Update(ctx, first, nil))

		stale.Balance = decimal.NewFromInt(99)
		assert.ErrorIs(t, store.Accounts.Update(ctx, stale, nil), repository.ErrConcurrentModification)

		got, err := store.Accounts.GetByAccountNumber(ctx, "UA10305299100000002")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(20).Equal(got.Balance))
		assert.Equal(t, first.Version, got.Version)
	})

	t.Run("update unknown account", func(t *testing.T) {
		store := newStore(t)
		err := store.Accounts.Update(context.Background(), &domain.Account{AccountNumber: "UA00"}, nil)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		_, err = store.Accounts.GetByAccountNumber(context.Background(), "UA00")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("session commit applies every write", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		from := seed(t, store, "UA10305299100000003", "100")
		to := seed(t, store, "UA10305299100000004", "0")

		sess, err := store.Sessions.Begin(ctx)
		require.NoError(t, err)

		from.Balance = decimal.NewFromInt(70)
		to.Balance = decimal.NewFromInt(30)
		counterparty := to.AccountNumber
		require.NoError(t, store.Accounts.Update(ctx, from, sess))
		require.NoError(t, store.Accounts.Update(ctx, to, sess))
		require.NoError(t, store.Transactions.Create(ctx, &domain.Transaction{
			ExecutionAccount:    from.AccountNumber,
			CounterpartyAccount: &counterparty,
			Amount:              decimal.NewFromInt(30),
			Timestamp:           time.Now().UTC(),
			Type:                domain.TransactionTransfer,
		}, sess))

		got, err := store.Accounts.GetByAccountNumber(ctx, from.AccountNumber)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(got.Balance), "uncommitted write visible")

		require.NoError(t, sess.Commit(ctx))

		got, err = store.Accounts.GetByAccountNumber(ctx, from.AccountNumber)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(70).Equal(got.Balance))
		assert.Equal(t, from.Version, got.Version)

		got, err = store.Accounts.GetByAccountNumber(ctx, to.AccountNumber)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(30).Equal(got.Balance))

		history, err := store.Transactions.ListByAccount(ctx, to.AccountNumber)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, domain.TransactionTransfer, history[0].Type)
		assert.NotEmpty(t, history[0].ID)
		require.NotNil(t, history[0].CounterpartyAccount)
		assert.Equal(t, to.AccountNumber, *history[0].CounterpartyAccount)
		assert.True(t, decimal.NewFromInt(30).Equal(history[0].Amount))
	})

	t.Run("session abort discards every write", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		a := seed(t, store, "UA10305299100000005", "50")

		sess, err := store.Sessions.Begin(ctx)
		require.NoError(t, err)

		a.Balance = decimal.NewFromInt(10)
		require.NoError(t, store.Accounts.Update(ctx, a, sess))
		require.NoError(t, store.Transactions.Create(ctx, &domain.Transaction{
			ExecutionAccount: a.AccountNumber,
			Amount:           decimal.NewFromInt(-40),
			Timestamp:        time.Now().UTC(),
			Type:             domain.TransactionWithdrawal,
		}, sess))
		require.NoError(t, sess.Abort(ctx))

		got, err := store.Accounts.GetByAccountNumber(ctx, a.AccountNumber)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(50).Equal(got.Balance))

		history, err := store.Transactions.ListByAccount(ctx, a.AccountNumber)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("stale write inside session", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		a := seed(t, store, "UA10305299100000006", "50")
		stale := a.Clone()

		a.Balance = decimal.NewFromInt(60)
		require.NoError(t, store.Accounts.Update(ctx, a, nil))

		sess, err := store.Sessions.Begin(ctx)
		require.NoError(t, err)
		stale.Balance = decimal.NewFromInt(0)
		assert.ErrorIs(t, store.Accounts.Update(ctx, stale, sess), repository.ErrConcurrentModification)
		require.NoError(t, sess.Abort(ctx))

		got, err := store.Accounts.GetByAccountNumber(ctx, a.AccountNumber)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(60).Equal(got.Balance))
	})

	t.Run("foreign session rejected", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		a := seed(t, store, "UA10305299100000007", "1")

		assert.ErrorIs(t, store.Accounts.Update(ctx, a, foreignSession{}), repository.ErrForeignSession)
		assert.ErrorIs(t, store.Transactions.Create(ctx, &domain.Transaction{
			ExecutionAccount: a.AccountNumber, Amount: decimal.NewFromInt(1),
			Timestamp: time.Now().UTC(), Type: domain.TransactionDeposit,
		}, foreignSession{}), repository.ErrForeignSession)
	})

	t.Run("exact decimal round trip", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		seed(t, store, "UA10305299100000008", "12345678901234567890.1234")

		got, err := store.Accounts.GetByAccountNumber(ctx, "UA10305299100000008")
		require.NoError(t, err)
		assert.Equal(t, "12345678901234567890.1234", got.Balance.String())
	})
}

func seed(t *testing.T, store *repository.Store, number, balance string) *domain.Account {
	t.Helper()
	a := &domain.Account{
		AccountNumber: number,
		FirstName:     "Mykola",
		LastName:      "Lysenko",
		Balance:       decimal.RequireFromString(balance),
	}
	require.NoError(t, store.Accounts.Create(context.Background(), a))
	require.NotEmpty(t, a.ID)
	return a
}
