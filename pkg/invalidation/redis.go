package invalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "cadence:campaign:"

// RedisChannel is the pub/sub channel carrying signals for one campaign.
func RedisChannel(campaignID string) string {
	return redisChannelPrefix + campaignID
}

// RedisSource subscribes each caller to its campaign's Redis channel.
type RedisSource struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisSource(client *redis.Client, logger *slog.Logger) *RedisSource {
	return &RedisSource{client: client, logger: logger.With("module", "redis_invalidation")}
}

func (s *RedisSource) Subscribe(ctx context.Context, campaignID string) (<-chan Signal, error) {
	pubsub := s.client.Subscribe(ctx, RedisChannel(campaignID))

	// Receive waits for the subscription confirmation so signals published right
	// after Subscribe returns are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()

		return nil, fmt.Errorf("subscribe to campaign %s: %w", campaignID, err)
	}

	out := make(chan Signal, SubscriberBuffer)

	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					s.logger.Warn("redis subscription closed", "campaign_id", campaignID)

					return
				}

				var signal Signal
				if err := json.Unmarshal([]byte(msg.Payload), &signal); err != nil {
					s.logger.Warn("ignoring malformed signal", "campaign_id", campaignID, "error", err)

					continue
				}

				select {
				case out <- signal:
				default:
				}
			}
		}
	}()

	return out, nil
}

// RedisPublisher publishes signals as JSON on the campaign channel.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, signal Signal) error {
	if signal.At.IsZero() {
		signal.At = time.Now().UTC()
	}

	payload, err := json.Marshal(signal)
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, RedisChannel(signal.CampaignID), payload).Err()
}
