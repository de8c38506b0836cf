package mongo

import (
	"context"
	"fmt"

	"banking-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	accountsCollection     = "accounts"
	transactionsCollection = "transactions"
)

// session wraps a client session with an open multi-document transaction.
// Multi-document transactions require a replica set or sharded cluster.
type session struct {
	s    mongo.Session
	done bool
}

func (s *session) Commit(ctx context.Context) error {
	defer s.end(ctx)
	if err := s.s.CommitTransaction(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *session) Abort(ctx context.Context) error {
	if s.done {
		return nil
	}
	defer s.end(ctx)
	if err := s.s.AbortTransaction(ctx); err != nil {
		return fmt.Errorf("failed to abort transaction: %w", err)
	}
	return nil
}

func (s *session) end(ctx context.Context) {
	s.done = true
	s.s.EndSession(ctx)
}

type sessionManager struct {
	client *mongo.Client
}

func NewSessionManager(client *mongo.Client) repository.SessionManager {
	return &sessionManager{client: client}
}

func (m *sessionManager) Begin(ctx context.Context) (repository.Session, error) {
	s, err := m.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := s.StartTransaction(txOpts); err != nil {
		s.EndSession(ctx)
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return &session{s: s}, nil
}

// bind returns a context that routes driver calls through sess, or ctx as-is.
func bind(ctx context.Context, sess repository.Session) (context.Context, error) {
	if sess == nil {
		return ctx, nil
	}
	s, ok := sess.(*session)
	if !ok {
		return nil, repository.ErrForeignSession
	}
	return mongo.NewSessionContext(ctx, s.s), nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("amount %s not representable as decimal128: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

// NewStore wires the mongo repositories on one database.
func NewStore(client *mongo.Client, dbName string) *repository.Store {
	db := client.Database(dbName)
	return &repository.Store{
		Accounts:     NewAccountRepo(db),
		Transactions: NewTransactionRepo(db),
		Sessions:     NewSessionManager(client),
		Close:        client.Disconnect,
	}
}
