package adapter

import (
	"context"
	"sync"

	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// SequenceSync persists one campaign's sequence. It reads the model only
// through snapshots handed to it and never mutates them.
type SequenceSync struct {
	config

	remote     SequenceRemote
	campaignID string
	debouncer  *Debouncer
	cancel     context.CancelFunc

	// writeMu keeps at most one write in flight so retries never race a newer write.
	writeMu sync.Mutex
}

func NewSequenceSync(remote SequenceRemote, campaignID string, opts ...Option) *SequenceSync {
	cfg := newConfig(opts)
	cfg.logger = cfg.logger.With("module", "sequence_sync", "campaign_id", campaignID)

	ctx, cancel := context.WithCancel(context.Background())

	return &SequenceSync{
		config:     cfg,
		remote:     remote,
		campaignID: campaignID,
		debouncer:  NewDebouncer(ctx, cfg.window, cfg.clock),
		cancel:     cancel,
	}
}

func (s *SequenceSync) CampaignID() string {
	return s.campaignID
}

// Load fetches the campaign's sequences, retrying transient failures.
func (s *SequenceSync) Load(ctx context.Context) ([]*models.Sequence, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "adapter.fetch_sequences",
		attribute.String(otelhelper.CampaignIDKey, s.campaignID))

	sequences, err := Retry(ctx, s.policy, s.logger, "fetch_sequences", func(ctx context.Context) ([]*models.Sequence, error) {
		return s.remote.FetchSequences(ctx, s.campaignID)
	})
	otelhelper.End(span, err)

	return sequences, err
}

func (s *SequenceSync) Create(ctx context.Context, name, description string) (*models.Sequence, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "adapter.create_sequence",
		attribute.String(otelhelper.CampaignIDKey, s.campaignID))

	created, err := Retry(ctx, s.policy, s.logger, "create_sequence", func(ctx context.Context) (*models.Sequence, error) {
		return s.remote.CreateSequence(ctx, &models.Sequence{
			CampaignID:  s.campaignID,
			Name:        name,
			Description: description,
			Steps:       []*models.Step{},
		})
	})
	otelhelper.End(span, err)

	return created, err
}

// ScheduleWrite queues a full-document write. snapshot is evaluated when the
// quiet window elapses so the write carries the state after every mutation.
func (s *SequenceSync) ScheduleWrite(snapshot func() *models.Sequence) {
	s.debouncer.Schedule(func(ctx context.Context) {
		_, _ = s.Write(ctx, snapshot())
	})
}

// Write sends the sequence now. A terminal failure is returned and reported
// to the notifier; local state is left as is.
func (s *SequenceSync) Write(ctx context.Context, sequence *models.Sequence) (*models.Sequence, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "adapter.update_sequence",
		attribute.String(otelhelper.CampaignIDKey, s.campaignID),
		attribute.String(otelhelper.SequenceIDKey, sequence.ID),
		attribute.Int("cadence.sequence.steps", len(sequence.Steps)))

	updated, err := Retry(ctx, s.policy, s.logger, "update_sequence", func(ctx context.Context) (*models.Sequence, error) {
		return s.remote.UpdateSequence(ctx, s.campaignID, sequence.ID, sequence)
	})
	otelhelper.End(span, err)

	if err != nil {
		s.notify("update_sequence", "Failed to save sequence", err)

		return nil, err
	}

	s.logger.Debug("sequence saved", "sequence_id", sequence.ID, "steps", len(sequence.Steps))

	return updated, nil
}

func (s *SequenceSync) ApproveEmail(ctx context.Context, sequenceID, stepID string) error {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "adapter.approve_email",
		attribute.String(otelhelper.CampaignIDKey, s.campaignID),
		attribute.String(otelhelper.SequenceIDKey, sequenceID),
		attribute.String(otelhelper.StepIDKey, stepID))

	err := RetryDo(ctx, s.policy, s.logger, "approve_email", func(ctx context.Context) error {
		return s.remote.ApproveEmail(ctx, s.campaignID, sequenceID, stepID)
	})
	otelhelper.End(span, err)

	if err != nil {
		s.notify("approve_email", "Failed to approve email", err)
	}

	return err
}

func (s *SequenceSync) Pending() bool {
	return s.debouncer.Pending()
}

// Flush sends a pending write immediately and reports whether there was one.
func (s *SequenceSync) Flush(ctx context.Context) bool {
	return s.debouncer.Flush(ctx)
}

// Close flushes any pending write, then stops background writes.
func (s *SequenceSync) Close(ctx context.Context) {
	s.debouncer.Flush(ctx)
	s.cancel()
}

func (s *SequenceSync) notify(op, message string, err error) {
	s.notifier.Notify(Notification{
		Level:      LevelError,
		Op:         op,
		CampaignID: s.campaignID,
		Message:    message,
		Err:        err,
		At:         s.clock.Now(),
	})
}
