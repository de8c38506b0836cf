package postgres

import (
	"context"
	"fmt"

	"banking-service/internal/domain"
	"banking-service/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type transactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepo(db *pgxpool.Pool) repository.TransactionRepository {
	return &transactionRepo{db: db}
}

// Create appends a transaction record, inside sess when given
func (r *transactionRepo) Create(ctx context.Context, t *domain.Transaction, sess repository.Session) error {
	q, err := resolve(r.db, sess)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (execution_account, counterparty_account, amount, type, created_at)
		VALUES ($1, $2, $3::numeric, $4, $5)
		RETURNING id::text`

	if err := q.QueryRow(ctx, query,
		t.ExecutionAccount, t.CounterpartyAccount, t.Amount.String(), string(t.Type), t.Timestamp,
	).Scan(&t.ID); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Update replaces a stored record by id. Normal flows never call it.
func (r *transactionRepo) Update(ctx context.Context, t *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET execution_account = $2, counterparty_account = $3, amount = $4::numeric,
		    type = $5, created_at = $6
		WHERE id = $1::bigint`

	tag, err := r.db.Exec(ctx, query,
		t.ID, t.ExecutionAccount, t.CounterpartyAccount, t.Amount.String(), string(t.Type), t.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByAccount returns every record where the account is either party, newest first
func (r *transactionRepo) ListByAccount(ctx context.Context, accountNumber string) ([]*domain.Transaction, error) {
	query := `
		SELECT id::text, execution_account, counterparty_account, amount::text, type, created_at
		FROM transactions
		WHERE execution_account = $1 OR counterparty_account = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		var (
			t      domain.Transaction
			amount string
			txType string
		)
		if err := rows.Scan(&t.ID, &t.ExecutionAccount, &t.CounterpartyAccount, &amount, &txType, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		t.Type = domain.TransactionType(txType)
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid amount %q on transaction %s: %w", amount, t.ID, err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
