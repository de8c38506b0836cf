package usecase

import (
	"context"
	"errors"
	"testing"

	"banking-service/internal/domain"
	"banking-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)

	a, err := f.accounts.CreateAccount(context.Background(), "Lesya", "Ukrainka", dec("12.50"))
	require.NoError(t, err)

	assert.Regexp(t, `^UA\d{2}305299\d{9}$`, a.AccountNumber)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Lesya", a.FirstName)
	assert.True(t, dec("12.5").Equal(a.Balance))

	stored, err := f.store.Accounts.GetByAccountNumber(context.Background(), a.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, a.ID, stored.ID)
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.CreateAccount(ctx, "", "Ukrainka", dec("0"))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.accounts.CreateAccount(ctx, "Lesya", "Ukrainka", dec("-0.01"))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "balance", verr.Field)

	assert.Zero(t, f.db.AccountInsertAttempts())
}

func TestCreateAccountRetriesCollisions(t *testing.T) {
	for _, k := range []int{1, 5, 9} {
		db, store := newMemory()
		numbers := &sequentialNumbers{}
		uc := NewAccountUsecase(store.Accounts, numbers, nil, zap.NewNop())
		db.CollideAccountInserts(k)

		a, err := uc.CreateAccount(context.Background(), "Ivan", "Franko", dec("0"))
		require.NoError(t, err, "k=%d", k)

		want := (&sequentialNumbers{n: k}).Next()
		assert.Equal(t, want, a.AccountNumber, "k=%d", k)
		assert.Equal(t, k+1, db.AccountInsertAttempts())

		all, err := store.Accounts.GetAll(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, want, all[0].AccountNumber)
	}
}

func TestCreateAccountSucceedsOnLastAttempt(t *testing.T) {
	db, store := newMemory()
	uc := NewAccountUsecase(store.Accounts, &sequentialNumbers{}, nil, zap.NewNop())
	db.CollideAccountInserts(MaxAccountNumberAttempts - 1)

	a, err := uc.CreateAccount(context.Background(), "Ivan", "Franko", dec("0"))
	require.NoError(t, err)
	assert.Equal(t, "UA00305299000000010", a.AccountNumber)

	all, err := store.Accounts.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateAccountExhausted(t *testing.T) {
	db, store := newMemory()
	uc := NewAccountUsecase(store.Accounts, &sequentialNumbers{}, nil, zap.NewNop())
	db.CollideAccountInserts(MaxAccountNumberAttempts)

	_, err := uc.CreateAccount(context.Background(), "Ivan", "Franko", dec("0"))

	var exhausted *domain.IdentifierExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, MaxAccountNumberAttempts, exhausted.Attempts)
	assert.Equal(t, MaxAccountNumberAttempts, db.AccountInsertAttempts())

	all, err := store.Accounts.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateAccountRetriesRealDuplicates(t *testing.T) {
	_, store := newMemory()
	numbers := AccountNumberGeneratorFunc(func() func() string {
		seq := []string{"UA11305299111111111", "UA11305299111111111", "UA22305299222222222"}
		i := 0
		return func() string {
			n := seq[i]
			i++
			return n
		}
	}())
	uc := NewAccountUsecase(store.Accounts, numbers, nil, zap.NewNop())
	ctx := context.Background()

	first, err := uc.CreateAccount(ctx, "A", "B", dec("0"))
	require.NoError(t, err)
	second, err := uc.CreateAccount(ctx, "C", "D", dec("0"))
	require.NoError(t, err)

	assert.Equal(t, "UA11305299111111111", first.AccountNumber)
	assert.Equal(t, "UA22305299222222222", second.AccountNumber)
}

func TestCreateAccountDoesNotRetryOtherErrors(t *testing.T) {
	_, store := newMemory()
	boom := errors.New("connection reset")
	repo := &failingCreates{AccountRepository: store.Accounts, err: boom}
	uc := NewAccountUsecase(repo, &sequentialNumbers{}, nil, zap.NewNop())

	_, err := uc.CreateAccount(context.Background(), "Ivan", "Franko", dec("0"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	assert.Equal(t, 1, repo.calls)
}

func TestGetAccount(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "UA1", "3")
	ctx := context.Background()

	a, err := f.accounts.GetAccount(ctx, "UA1", userOf("UA1"))
	require.NoError(t, err)
	assert.True(t, dec("3").Equal(a.Balance))

	_, err = f.accounts.GetAccount(ctx, "UA1", userOf("UA2"))
	assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))

	_, err = f.accounts.GetAccount(ctx, "ZZ000", admin)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestListAccountsCachesAndInvalidates(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "UA1", "1")
	ctx := context.Background()

	all, err := f.accounts.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, f.cache.has(accountsCacheNamespace, accountListKey(ctx, f.cache)))

	// served from cache: a direct store write is not visible yet
	f.seed(t, "UA2", "2")
	all, err = f.accounts.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.accounts.CreateAccount(ctx, "Marko", "Vovchok", dec("0"))
	require.NoError(t, err)
	assert.False(t, f.cache.has(accountsCacheNamespace, accountListKey(ctx, f.cache)))

	all, err = f.accounts.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTransactionsInvalidateAccountList(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "UA1", "1")
	ctx := context.Background()

	_, err := f.accounts.ListAccounts(ctx)
	require.NoError(t, err)

	_, err = f.txs.Deposit(ctx, "UA1", dec("1"), admin)
	require.NoError(t, err)
	assert.False(t, f.cache.has(accountsCacheNamespace, accountListKey(ctx, f.cache)))

	all, err := f.accounts.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, dec("2").Equal(all[0].Balance))
}

// invalidatingGetAll simulates a write that commits while a list read is in flight.
type invalidatingGetAll struct {
	repository.AccountRepository
	cache Cache
	calls int
}

func (r *invalidatingGetAll) GetAll(ctx context.Context) ([]*domain.Account, error) {
	r.calls++
	accounts, err := r.AccountRepository.GetAll(ctx)
	if r.calls == 1 {
		_ = invalidateAccountList(ctx, r.cache)
	}
	return accounts, err
}

func TestListAccountsDoesNotServeListReadBeforeInvalidation(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "UA1", "1")
	ctx := context.Background()

	repo := &invalidatingGetAll{AccountRepository: f.store.Accounts, cache: f.cache}
	uc := NewAccountUsecase(repo, nil, f.cache, zap.NewNop())

	_, err := uc.ListAccounts(ctx)
	require.NoError(t, err)

	_, err = uc.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)

	_, err = uc.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}
