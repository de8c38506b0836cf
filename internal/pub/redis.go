package pub

import (
	"context"
	"encoding/json"
	"fmt"

	"banking-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	TransactionEventsChannel = "transaction_events"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// TransactionEventPublisher pushes committed transactions to a Redis pub/sub channel.
type TransactionEventPublisher struct {
	rdb     redisPublisher
	channel string
	logger  *zap.Logger
}

func NewTransactionEventPublisher(rdb redisPublisher, logger *zap.Logger) *TransactionEventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionEventPublisher{rdb: rdb, channel: TransactionEventsChannel, logger: logger}
}

func (p *TransactionEventPublisher) Publish(ctx context.Context, event *domain.TransactionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	receivers, err := p.rdb.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("transaction event published",
		zap.String("channel", p.channel),
		zap.String("event_type", event.EventType),
		zap.String("account_number", event.AccountNumber),
		zap.Int64("receivers", receivers),
	)
	return nil
}
