package postgres

import (
	"context"
	"errors"
	"fmt"

	"banking-service/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type session struct {
	tx pgx.Tx
}

func (s *session) Commit(ctx context.Context) error {
	if err := s.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *session) Abort(ctx context.Context) error {
	err := s.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

type sessionManager struct {
	db *pgxpool.Pool
}

// NewSessionManager opens pgx transactions as atomic sessions.
func NewSessionManager(db *pgxpool.Pool) repository.SessionManager {
	return &sessionManager{db: db}
}

func (m *sessionManager) Begin(ctx context.Context) (repository.Session, error) {
	tx, err := m.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted, // version guard on UPDATE covers lost updates
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &session{tx: tx}, nil
}

// resolve picks the tx bound to sess, or the pool when sess is nil.
func resolve(db *pgxpool.Pool, sess repository.Session) (querier, error) {
	if sess == nil {
		return db, nil
	}
	s, ok := sess.(*session)
	if !ok {
		return nil, repository.ErrForeignSession
	}
	return s.tx, nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// NewStore wires the postgres repositories around one pool.
func NewStore(db *pgxpool.Pool) *repository.Store {
	return &repository.Store{
		Accounts:     NewAccountRepo(db),
		Transactions: NewTransactionRepo(db),
		Sessions:     NewSessionManager(db),
		Close: func(context.Context) error {
			db.Close()
			return nil
		},
	}
}
