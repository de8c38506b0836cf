package usecase

import (
	"context"
	"time"

	"banking-service/internal/domain"
	"banking-service/internal/metrics"
	"banking-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultTxTimeout = 10 * time.Second

	// abort and post-commit side effects run detached from the caller's context
	cleanupTimeout = 5 * time.Second
)

// TransactionUsecase executes deposits, withdrawals and transfers. Every operation is
// checked before a session is opened; the balance and log writes then commit together.
type TransactionUsecase struct {
	accountRepo     repository.AccountRepository
	transactionRepo repository.TransactionRepository
	sessions        repository.SessionManager

	publisher EventPublisher
	cache     Cache
	txTimeout time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewTransactionUsecase wires the engine on store. publisher and cache may be nil;
// a non-positive txTimeout falls back to DefaultTxTimeout.
func NewTransactionUsecase(store *repository.Store, publisher EventPublisher, cache Cache, txTimeout time.Duration, logger *zap.Logger) *TransactionUsecase {
	if txTimeout <= 0 {
		txTimeout = DefaultTxTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionUsecase{
		accountRepo:     store.Accounts,
		transactionRepo: store.Transactions,
		sessions:        store.Sessions,
		publisher:       publisher,
		cache:           cache,
		txTimeout:       txTimeout,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (uc *TransactionUsecase) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, claims domain.Claims) (res *domain.TransactionResult, err error) {
	defer func(started time.Time) { metrics.ObserveTransaction("deposit", started, err) }(time.Now())

	req := &domain.TransactionRequest{AccountNumber: accountNumber, Amount: amount}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := Authorize(claims, accountNumber); err != nil {
		return nil, err
	}

	account, err := loadAccount(ctx, uc.accountRepo, accountNumber)
	if err != nil {
		return nil, err
	}

	account.Balance = account.Balance.Add(amount)
	record := &domain.Transaction{
		ExecutionAccount: accountNumber,
		Amount:           amount,
		Timestamp:        uc.now(),
		Type:             domain.TransactionDeposit,
	}

	err = uc.runInSession(ctx, "deposit", func(ctx context.Context, sess repository.Session) error {
		if err := uc.accountRepo.Update(ctx, account, sess); err != nil {
			return err
		}
		return uc.transactionRepo.Create(ctx, record, sess)
	})
	if err != nil {
		return nil, err
	}
	return uc.complete(ctx, record, account), nil
}

func (uc *TransactionUsecase) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, claims domain.Claims) (res *domain.TransactionResult, err error) {
	defer func(started time.Time) { metrics.ObserveTransaction("withdraw", started, err) }(time.Now())

	req := &domain.TransactionRequest{AccountNumber: accountNumber, Amount: amount}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := Authorize(claims, accountNumber); err != nil {
		return nil, err
	}

	account, err := loadAccount(ctx, uc.accountRepo, accountNumber)
	if err != nil {
		return nil, err
	}
	if account.Balance.LessThan(amount) {
		return nil, &domain.InsufficientFundsError{AccountNumber: accountNumber, Requested: amount}
	}

	account.Balance = account.Balance.Sub(amount)
	record := &domain.Transaction{
		ExecutionAccount: accountNumber,
		Amount:           amount.Neg(),
		Timestamp:        uc.now(),
		Type:             domain.TransactionWithdrawal,
	}

	err = uc.runInSession(ctx, "withdraw", func(ctx context.Context, sess repository.Session) error {
		if err := uc.accountRepo.Update(ctx, account, sess); err != nil {
			return err
		}
		return uc.transactionRepo.Create(ctx, record, sess)
	})
	if err != nil {
		return nil, err
	}
	return uc.complete(ctx, record, account), nil
}

// Transfer moves amount from one account to another. The result carries the
// debited account.
func (uc *TransactionUsecase) Transfer(ctx context.Context, fromAccount, toAccount string, amount decimal.Decimal, claims domain.Claims) (res *domain.TransactionResult, err error) {
	defer func(started time.Time) { metrics.ObserveTransaction("transfer", started, err) }(time.Now())

	req := &domain.TransferRequest{FromAccount: fromAccount, ToAccount: toAccount, Amount: amount}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := Authorize(claims, fromAccount); err != nil {
		return nil, err
	}

	from, err := loadAccount(ctx, uc.accountRepo, fromAccount)
	if err != nil {
		return nil, err
	}
	if from.Balance.LessThan(amount) {
		return nil, &domain.InsufficientFundsError{AccountNumber: fromAccount, Requested: amount}
	}

	to, err := loadAccount(ctx, uc.accountRepo, toAccount)
	if err != nil {
		return nil, err
	}

	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)
	counterparty := toAccount
	record := &domain.Transaction{
		ExecutionAccount:    fromAccount,
		CounterpartyAccount: &counterparty,
		Amount:              amount,
		Timestamp:           uc.now(),
		Type:                domain.TransactionTransfer,
	}

	err = uc.runInSession(ctx, "transfer", func(ctx context.Context, sess repository.Session) error {
		if err := uc.accountRepo.Update(ctx, from, sess); err != nil {
			return err
		}
		if err := uc.accountRepo.Update(ctx, to, sess); err != nil {
			return err
		}
		return uc.transactionRepo.Create(ctx, record, sess)
	})
	if err != nil {
		return nil, err
	}
	return uc.complete(ctx, record, from), nil
}

// History lists the transactions naming accountNumber on either side, newest first.
func (uc *TransactionUsecase) History(ctx context.Context, accountNumber string, claims domain.Claims) ([]*domain.Transaction, error) {
	if err := Authorize(claims, accountNumber); err != nil {
		return nil, err
	}
	if _, err := loadAccount(ctx, uc.accountRepo, accountNumber); err != nil {
		return nil, err
	}
	return uc.transactionRepo.ListByAccount(ctx, accountNumber)
}

// runInSession opens a session, issues fn's writes under it and commits. Any failure,
// cancellation or timeout aborts the session and comes back as AtomicCommitError.
func (uc *TransactionUsecase) runInSession(ctx context.Context, op string, fn func(ctx context.Context, sess repository.Session) error) error {
	ctx, cancel := context.WithTimeout(ctx, uc.txTimeout)
	defer cancel()

	sess, err := uc.sessions.Begin(ctx)
	if err != nil {
		uc.logger.Error("failed to begin session", zap.String("operation", op), zap.Error(err))
		return &domain.AtomicCommitError{Operation: op, Err: err}
	}

	if err := fn(ctx, sess); err != nil {
		uc.abort(ctx, op, sess, err)
		return &domain.AtomicCommitError{Operation: op, Err: err}
	}

	if err := ctx.Err(); err != nil {
		uc.abort(ctx, op, sess, err)
		return &domain.AtomicCommitError{Operation: op, Err: err}
	}

	if err := sess.Commit(ctx); err != nil {
		uc.abort(ctx, op, sess, err)
		return &domain.AtomicCommitError{Operation: op, Err: err}
	}
	return nil
}

func (uc *TransactionUsecase) abort(ctx context.Context, op string, sess repository.Session, cause error) {
	abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	uc.logger.Warn("aborting session", zap.String("operation", op), zap.Error(cause))
	if err := sess.Abort(abortCtx); err != nil {
		uc.logger.Error("failed to abort session", zap.String("operation", op), zap.Error(err))
	}
}

// complete assembles the result and runs the best-effort post-commit side effects.
func (uc *TransactionUsecase) complete(ctx context.Context, record *domain.Transaction, account *domain.Account) *domain.TransactionResult {
	res := &domain.TransactionResult{Transaction: record, ExecutionAccount: account}

	uc.logger.Info("transaction committed",
		zap.String("transaction_id", record.ID),
		zap.String("type", string(record.Type)),
		zap.String("account_number", record.ExecutionAccount),
		zap.String("amount", record.Amount.String()),
	)

	bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := invalidateAccountList(bgCtx, uc.cache); err != nil {
		uc.logger.Warn("failed to invalidate account list cache", zap.Error(err))
	}
	if uc.publisher != nil {
		if err := uc.publisher.Publish(bgCtx, domain.NewTransactionEvent(res)); err != nil {
			uc.logger.Warn("failed to publish transaction event",
				zap.String("transaction_id", record.ID),
				zap.Error(err),
			)
		}
	}
	return res
}
