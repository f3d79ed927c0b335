package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/cadence/pkg/eventbus"
	"github.com/dukex/cadence/pkg/invalidation"
	"github.com/redis/go-redis/v9"
)

// Invalidation bundles the signal publisher used by writers with the source used by watchers.
type Invalidation struct {
	Publisher invalidation.Publisher
	Source    invalidation.Source

	close func() error
}

func (i *Invalidation) Close() error {
	if i.close == nil {
		return nil
	}

	return i.close()
}

// NewInvalidation carries signals over Redis pub/sub when redisURL is set and
// over the event bus otherwise. With Redis, signals are still mirrored onto the
// event bus for other consumers. The event bus must not be subscribed yet.
func NewInvalidation(ctx context.Context, bus eventbus.EventBus, redisURL string, logger *slog.Logger) (*Invalidation, error) {
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}

		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		return &Invalidation{
			Publisher: invalidation.MultiPublisher{
				invalidation.NewRedisPublisher(client),
				invalidation.NewEventBusPublisher(bus),
			},
			Source:    invalidation.NewRedisSource(client, logger),
			close:     client.Close,
		}, nil
	}

	source, err := invalidation.NewEventBusSource(bus, logger)
	if err != nil {
		return nil, err
	}

	if err := source.Start(ctx); err != nil {
		_ = source.Close()

		return nil, fmt.Errorf("failed to subscribe to event bus: %w", err)
	}

	return &Invalidation{
		Publisher: invalidation.NewEventBusPublisher(bus),
		Source:    source,
		close:     source.Close,
	}, nil
}
