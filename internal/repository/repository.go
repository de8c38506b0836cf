package repository

import (
	"context"
	"errors"

	"banking-service/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicateAccountNumber is the store's uniqueness signal on account insert.
	ErrDuplicateAccountNumber = errors.New("duplicate account number")
	// ErrConcurrentModification means the account changed since it was read.
	ErrConcurrentModification = errors.New("concurrent modification detected")
	// ErrForeignSession means a session from another backend was passed in.
	ErrForeignSession = errors.New("session does not belong to this store")
)

// Session groups writes that must become visible together or not at all.
// A Session is owned by the single operation that began it.
type Session interface {
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
}

// SessionManager opens atomic sessions.
type SessionManager interface {
	Begin(ctx context.Context) (Session, error)
}

// AccountRepository persists accounts. Update replaces the stored account matching
// AccountNumber and the Version it was read at, then bumps Version; a nil session
// writes outside any atomic unit.
type AccountRepository interface {
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetAll(ctx context.Context) ([]*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, a *domain.Account, sess Session) error
}

// TransactionRepository is the append-only transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, t *domain.Transaction, sess Session) error
	Update(ctx context.Context, t *domain.Transaction) error
	ListByAccount(ctx context.Context, accountNumber string) ([]*domain.Transaction, error)
}

// Store bundles one backend's repositories and its session manager.
type Store struct {
	Accounts     AccountRepository
	Transactions TransactionRepository
	Sessions     SessionManager
	Close        func(ctx context.Context) error
}
