package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"banking-service/internal/domain"
	"banking-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type accountDoc struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	AccountNumber string               `bson:"account_number"`
	FirstName     string               `bson:"first_name"`
	LastName      string               `bson:"last_name"`
	Balance       primitive.Decimal128 `bson:"balance"`
	Version       int64                `bson:"version"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func (d *accountDoc) toDomain() (*domain.Account, error) {
	balance, err := fromDecimal128(d.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance on account %s: %w", d.AccountNumber, err)
	}
	return &domain.Account{
		ID:            d.ID.Hex(),
		AccountNumber: d.AccountNumber,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Balance:       balance,
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

type accountRepo struct {
	coll *mongo.Collection
}

func NewAccountRepo(db *mongo.Database) repository.AccountRepository {
	return &accountRepo{coll: db.Collection(accountsCollection)}
}

func (r *accountRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	var doc accountDoc
	err := r.coll.FindOne(ctx, bson.M{"account_number": accountNumber}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountNumber, err)
	}
	return doc.toDomain()
}

func (r *accountRepo) GetAll(ctx context.Context) ([]*domain.Account, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}

	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}

	accounts := make([]*domain.Account, 0, len(docs))
	for i := range docs {
		a, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// Create relies on the unique account_number index; a duplicate key is reported as
// repository.ErrDuplicateAccountNumber.
func (r *accountRepo) Create(ctx context.Context, a *domain.Account) error {
	balance, err := toDecimal128(a.Balance)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	doc := accountDoc{
		AccountNumber: a.AccountNumber,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Balance:       balance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateAccountNumber
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	a.Version = 0
	a.CreatedAt, a.UpdatedAt = now, now
	return nil
}

// Update replaces the account document matching number and version.
func (r *accountRepo) Update(ctx context.Context, a *domain.Account, sess repository.Session) error {
	sctx, err := bind(ctx, sess)
	if err != nil {
		return err
	}

	balance, err := toDecimal128(a.Balance)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	replacement := accountDoc{
		AccountNumber: a.AccountNumber,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Balance:       balance,
		Version:       a.Version + 1,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     now,
	}

	filter := bson.M{"account_number": a.AccountNumber, "version": a.Version}
	res, err := r.coll.ReplaceOne(sctx, filter, replacement)
	if err != nil {
		return fmt.Errorf("failed to replace account %s: %w", a.AccountNumber, err)
	}

	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(sctx, bson.M{"account_number": a.AccountNumber})
		if err != nil {
			return fmt.Errorf("failed to check account %s: %w", a.AccountNumber, err)
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConcurrentModification
	}

	a.Version++
	a.UpdatedAt = now
	return nil
}
