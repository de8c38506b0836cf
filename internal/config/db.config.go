package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const connectAttempts = 5

func ConnectDB(cfg DBConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL("postgres"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}
	poolCfg.MaxConns = 50
	poolCfg.MinConns = 5
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	delay := 2 * time.Second
	for i := 1; i <= connectAttempts; i++ {
		logger.Info("connecting to database", zap.Int("attempt", i), zap.String("host", cfg.Host))

		pool, connErr := tryConnectDB(poolCfg)
		if connErr == nil {
			logger.Info("database connected", zap.Int32("max_conns", poolCfg.MaxConns))
			return pool, nil
		}
		err = connErr
		logger.Warn("database connection failed", zap.Int("attempt", i), zap.Error(err))

		if i < connectAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return nil, fmt.Errorf("failed to connect to DB after %d attempts: %w", connectAttempts, err)
}

func tryConnectDB(poolCfg *pgxpool.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return pool, nil
}
