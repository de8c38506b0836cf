package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"banking-service/internal/domain"
	"banking-service/internal/metrics"
	"banking-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AccountUsecase struct {
	accountRepo repository.AccountRepository
	numbers     AccountNumberGenerator
	cache       Cache
	logger      *zap.Logger
}

// NewAccountUsecase wires account creation and lookups. cache may be nil.
func NewAccountUsecase(accountRepo repository.AccountRepository, numbers AccountNumberGenerator, cache Cache, logger *zap.Logger) *AccountUsecase {
	if numbers == nil {
		numbers = NewAccountNumberGenerator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountUsecase{
		accountRepo: accountRepo,
		numbers:     numbers,
		cache:       cache,
		logger:      logger,
	}
}

// CreateAccount validates the owner data and persists a new account under a freshly
// allocated account number.
func (uc *AccountUsecase) CreateAccount(ctx context.Context, firstName, lastName string, initialBalance decimal.Decimal) (account *domain.Account, err error) {
	defer func() { metrics.AccountsCreatedTotal.WithLabelValues(metrics.Outcome(err)).Inc() }()

	req := &domain.CreateAccountRequest{FirstName: firstName, LastName: lastName, InitialBalance: initialBalance}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err = uc.allocate(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := invalidateAccountList(ctx, uc.cache); err != nil {
		uc.logger.Warn("failed to invalidate account list cache", zap.Error(err))
	}

	uc.logger.Info("account created",
		zap.String("account_number", account.AccountNumber),
		zap.String("balance", account.Balance.String()),
	)
	return account, nil
}

// allocate inserts the account under generated numbers until the store accepts one.
// Only a duplicate-number rejection is retried.
func (uc *AccountUsecase) allocate(ctx context.Context, req *domain.CreateAccountRequest) (*domain.Account, error) {
	for attempt := 1; attempt <= MaxAccountNumberAttempts; attempt++ {
		account := &domain.Account{
			AccountNumber: uc.numbers.Next(),
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Balance:       req.InitialBalance,
		}

		err := uc.accountRepo.Create(ctx, account)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, repository.ErrDuplicateAccountNumber) {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}

		uc.logger.Debug("account number collision",
			zap.String("account_number", account.AccountNumber),
			zap.Int("attempt", attempt),
		)
	}

	uc.logger.Error("account number space exhausted", zap.Int("attempts", MaxAccountNumberAttempts))
	return nil, &domain.IdentifierExhaustedError{Attempts: MaxAccountNumberAttempts}
}

// GetAccount returns the account if claims may see it.
func (uc *AccountUsecase) GetAccount(ctx context.Context, accountNumber string, claims domain.Claims) (*domain.Account, error) {
	if err := Authorize(claims, accountNumber); err != nil {
		return nil, err
	}
	return loadAccount(ctx, uc.accountRepo, accountNumber)
}

// ListAccounts returns every account, served from cache when possible.
func (uc *AccountUsecase) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	var key string
	if uc.cache != nil {
		key = accountListKey(ctx, uc.cache)
		if val, err := uc.cache.Get(ctx, accountsCacheNamespace, key); err == nil {
			var accounts []*domain.Account
			if jsonErr := json.Unmarshal([]byte(val), &accounts); jsonErr == nil {
				return accounts, nil
			}
		}
	}

	accounts, err := uc.accountRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	if uc.cache != nil {
		if data, err := json.Marshal(accounts); err == nil {
			_ = uc.cache.Set(ctx, accountsCacheNamespace, key, data, accountsCacheTTL)
		}
	}
	return accounts, nil
}

// loadAccount maps a missing account to AccountNotFoundError.
func loadAccount(ctx context.Context, repo repository.AccountRepository, accountNumber string) (*domain.Account, error) {
	account, err := repo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.AccountNotFoundError{AccountNumber: accountNumber}
		}
		return nil, fmt.Errorf("failed to load account %s: %w", accountNumber, err)
	}
	return account, nil
}
