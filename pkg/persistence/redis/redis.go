// Package redis provides Redis persistence for sequences and workflows.
//
// Each record is a JSON string under its own key; sorted sets ordered by
// creation time index records globally and per campaign.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/persistence"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sequenceKeyPrefix   = "cadence:sequence:"
	sequenceIndexKey    = "cadence:sequences"
	campaignIndexPrefix = "cadence:sequences:campaign:"
	workflowKeyPrefix   = "cadence:workflow:"
	workflowIndexKey    = "cadence:workflows"
)

// Persistence implements persistence.Persistence on a Redis server.
type Persistence struct {
	client redis.UniversalClient
	logger *slog.Logger
}

var _ persistence.Persistence = (*Persistence)(nil)

// NewPersistence connects to the server named by a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceWithClient(client, logger), nil
}

func NewPersistenceWithClient(client redis.UniversalClient, logger *slog.Logger) *Persistence {
	return &Persistence{client: client, logger: logger.With("module", "redis_persistence")}
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func (p *Persistence) Sequences(ctx context.Context, campaignID string) ([]*models.Sequence, error) {
	return loadIndexed[models.Sequence](ctx, p, campaignIndexPrefix+campaignID, sequenceKeyPrefix, false)
}

func (p *Persistence) AllSequences(ctx context.Context) ([]*models.Sequence, error) {
	return loadIndexed[models.Sequence](ctx, p, sequenceIndexKey, sequenceKeyPrefix, false)
}

func (p *Persistence) SequenceByID(ctx context.Context, id string) (*models.Sequence, error) {
	return load[models.Sequence](ctx, p.client, sequenceKeyPrefix+id)
}

// SaveSequence stores the document and moves its campaign index entry when
// the campaign changed.
func (p *Persistence) SaveSequence(ctx context.Context, sequence *models.Sequence) error {
	if sequence.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate sequence ID: %w", err)
		}

		sequence.ID = id.String()
	}

	previous, err := p.SequenceByID(ctx, sequence.ID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if sequence.CreatedAt.IsZero() {
		sequence.CreatedAt = now
	}

	sequence.UpdatedAt = now

	data, err := json.Marshal(sequence)
	if err != nil {
		return fmt.Errorf("failed to marshal sequence %s: %w", sequence.ID, err)
	}

	score := float64(sequence.CreatedAt.UnixNano())

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sequenceKeyPrefix+sequence.ID, data, 0)
		pipe.ZAdd(ctx, sequenceIndexKey, redis.Z{Score: score, Member: sequence.ID})

		if previous != nil && previous.CampaignID != sequence.CampaignID {
			pipe.ZRem(ctx, campaignIndexPrefix+previous.CampaignID, sequence.ID)
		}

		pipe.ZAdd(ctx, campaignIndexPrefix+sequence.CampaignID, redis.Z{Score: score, Member: sequence.ID})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save sequence %s: %w", sequence.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteSequence(ctx context.Context, id string) error {
	previous, err := p.SequenceByID(ctx, id)
	if err != nil || previous == nil {
		return err
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sequenceKeyPrefix+id)
		pipe.ZRem(ctx, sequenceIndexKey, id)
		pipe.ZRem(ctx, campaignIndexPrefix+previous.CampaignID, id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete sequence %s: %w", id, err)
	}

	return nil
}

// Workflows returns every workflow, newest first.
func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	return loadIndexed[models.Workflow](ctx, p, workflowIndexKey, workflowKeyPrefix, true)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return load[models.Workflow](ctx, p.client, workflowKeyPrefix+id)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, workflowKeyPrefix+workflow.ID, data, 0)
		pipe.ZAdd(ctx, workflowIndexKey, redis.Z{Score: float64(workflow.CreatedAt.UnixNano()), Member: workflow.ID})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, workflowKeyPrefix+id)
		pipe.ZRem(ctx, workflowIndexKey, id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

func load[T any](ctx context.Context, client redis.UniversalClient, key string) (*T, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	var record T

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	return &record, nil
}

// loadIndexed resolves the members of a sorted-set index. Members whose
// document vanished are skipped and pruned from the index.
func loadIndexed[T any](ctx context.Context, p *Persistence, index, prefix string, newestFirst bool) ([]*T, error) {
	var (
		ids []string
		err error
	)

	if newestFirst {
		ids, err = p.client.ZRevRange(ctx, index, 0, -1).Result()
	} else {
		ids, err = p.client.ZRange(ctx, index, 0, -1).Result()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", index, err)
	}

	records := make([]*T, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = prefix + id
	}

	values, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load records of %s: %w", index, err)
	}

	var stale []any

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			stale = append(stale, ids[i])

			continue
		}

		var record T

		err = json.Unmarshal([]byte(raw), &record)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", keys[i], err)
		}

		records = append(records, &record)
	}

	if len(stale) > 0 {
		p.logger.WarnContext(ctx, "pruning stale index entries", "index", index, "count", len(stale))

		err = p.client.ZRem(ctx, index, stale...).Err()
		if err != nil {
			p.logger.ErrorContext(ctx, "failed to prune index", "index", index, "error", err)
		}
	}

	return records, nil
}
