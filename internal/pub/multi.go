package pub

import (
	"context"
	"errors"

	"banking-service/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, event *domain.TransactionEvent) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event *domain.TransactionEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
