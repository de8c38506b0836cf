package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectMongo connects and pings with the same backoff as ConnectDB. Sessions need a
// replica set, so MONGO_URI should name one.
func ConnectMongo(uri string, logger *zap.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetServerSelectionTimeout(5 * time.Second)

	var err error
	delay := 2 * time.Second
	for i := 1; i <= connectAttempts; i++ {
		logger.Info("connecting to mongo", zap.Int("attempt", i))

		client, connErr := tryConnectMongo(opts)
		if connErr == nil {
			logger.Info("mongo connected")
			return client, nil
		}
		err = connErr
		logger.Warn("mongo connection failed", zap.Int("attempt", i), zap.Error(err))

		if i < connectAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return nil, fmt.Errorf("failed to connect to mongo after %d attempts: %w", connectAttempts, err)
}

func tryConnectMongo(opts *options.ClientOptions) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return client, nil
}
