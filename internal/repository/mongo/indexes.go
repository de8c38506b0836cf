package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique account_number index the allocator depends on,
// plus lookup indexes on the transaction log. Safe to run on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(accountsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "account_number", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("ux_account_number"),
	})
	if err != nil {
		return fmt.Errorf("failed to create account index: %w", err)
	}

	_, err = db.Collection(transactionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "execution_account", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("ix_execution_account"),
		},
		{
			Keys:    bson.D{{Key: "counterparty_account", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("ix_counterparty_account").SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create transaction indexes: %w", err)
	}
	return nil
}
