package mongo

import (
	"context"
	"fmt"
	"time"

	"banking-service/internal/domain"
	"banking-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type transactionDoc struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty"`
	ExecutionAccount    string               `bson:"execution_account"`
	CounterpartyAccount *string              `bson:"counterparty_account,omitempty"`
	Amount              primitive.Decimal128 `bson:"amount"`
	Timestamp           time.Time            `bson:"timestamp"`
	Type                string               `bson:"type"`
}

func newTransactionDoc(t *domain.Transaction) (*transactionDoc, error) {
	amount, err := toDecimal128(t.Amount)
	if err != nil {
		return nil, err
	}
	return &transactionDoc{
		ExecutionAccount:    t.ExecutionAccount,
		CounterpartyAccount: t.CounterpartyAccount,
		Amount:              amount,
		Timestamp:           t.Timestamp,
		Type:                string(t.Type),
	}, nil
}

type transactionRepo struct {
	coll *mongo.Collection
}

func NewTransactionRepo(db *mongo.Database) repository.TransactionRepository {
	return &transactionRepo{coll: db.Collection(transactionsCollection)}
}

func (r *transactionRepo) Create(ctx context.Context, t *domain.Transaction, sess repository.Session) error {
	sctx, err := bind(ctx, sess)
	if err != nil {
		return err
	}

	doc, err := newTransactionDoc(t)
	if err != nil {
		return err
	}

	res, err := r.coll.InsertOne(sctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = oid.Hex()
	}
	return nil
}

func (r *transactionRepo) Update(ctx context.Context, t *domain.Transaction) error {
	oid, err := primitive.ObjectIDFromHex(t.ID)
	if err != nil {
		return repository.ErrNotFound
	}

	doc, err := newTransactionDoc(t)
	if err != nil {
		return err
	}

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return fmt.Errorf("failed to replace transaction %s: %w", t.ID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *transactionRepo) ListByAccount(ctx context.Context, accountNumber string) ([]*domain.Transaction, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"execution_account": accountNumber},
		bson.M{"counterparty_account": accountNumber},
	}}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	out := make([]*domain.Transaction, 0, len(docs))
	for _, d := range docs {
		amount, err := fromDecimal128(d.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount on transaction %s: %w", d.ID.Hex(), err)
		}
		out = append(out, &domain.Transaction{
			ID:                  d.ID.Hex(),
			ExecutionAccount:    d.ExecutionAccount,
			CounterpartyAccount: d.CounterpartyAccount,
			Amount:              amount,
			Timestamp:           d.Timestamp,
			Type:                domain.TransactionType(d.Type),
		})
	}
	return out, nil
}
