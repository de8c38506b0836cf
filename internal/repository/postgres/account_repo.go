package postgres

import (
	"context"
	"errors"
	"fmt"

	"banking-service/internal/domain"
	"banking-service/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const accountNumberConstraint = "accounts_account_number_key"

const baseAccountSelect = `
	SELECT id::text, account_number, first_name, last_name, balance::text,
	       version, created_at, updated_at
	FROM accounts`

type accountRepo struct {
	db *pgxpool.Pool
}

// NewAccountRepo creates the postgres account repository
func NewAccountRepo(db *pgxpool.Pool) repository.AccountRepository {
	return &accountRepo{db: db}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a       domain.Account
		balance string
	)
	err := row.Scan(&a.ID, &a.AccountNumber, &a.FirstName, &a.LastName, &balance,
		&a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q for account %s: %w", balance, a.AccountNumber, err)
	}
	return &a, nil
}

// GetByAccountNumber uses the unique account_number index
func (r *accountRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, baseAccountSelect+` WHERE account_number=$1`, accountNumber)
	return scanAccount(row)
}

func (r *accountRepo) GetAll(ctx context.Context) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, baseAccountSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return accounts, nil
}

// Create inserts a new account. A clash on account_number is reported as
// repository.ErrDuplicateAccountNumber so the allocator can retry.
func (r *accountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (account_number, first_name, last_name, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, 0, NOW(), NOW())
		RETURNING id::text, version, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, a.AccountNumber, a.FirstName, a.LastName, a.Balance.String()).
		Scan(&a.ID, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, accountNumberConstraint) {
			return repository.ErrDuplicateAccountNumber
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// Update replaces the balance of the account at the version it was read at.
func (r *accountRepo) Update(ctx context.Context, a *domain.Account, sess repository.Session) error {
	q, err := resolve(r.db, sess)
	if err != nil {
		return err
	}

	query := `
		UPDATE accounts
		SET balance = $1::numeric, version = version + 1, updated_at = NOW()
		WHERE account_number = $2 AND version = $3
		RETURNING version, updated_at`

	err = q.QueryRow(ctx, query, a.Balance.String(), a.AccountNumber, a.Version).
		Scan(&a.Version, &a.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update account %s: %w", a.AccountNumber, err)
	}

	// zero rows: either gone or changed underneath us
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number=$1)`, a.AccountNumber).
		Scan(&exists); err != nil {
		return fmt.Errorf("failed to check account %s: %w", a.AccountNumber, err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConcurrentModification
}
