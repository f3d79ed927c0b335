package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/cadence/pkg/eventbus"
	"github.com/dukex/cadence/pkg/events"
	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/persistence"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule polls for due steps every minute.
const DefaultSchedule = "* * * * *"

var ErrSchedulerStarted = errors.New("delivery scheduler already started")

// Scheduler periodically scans every stored sequence and publishes a StepDue
// event for each step the planner reports as due.
type Scheduler struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	planner     *Planner
	schedule    string
	clock       clockwork.Clock
	logger      *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

type Option func(*Scheduler)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = clock }
}

func WithPlanner(planner *Planner) Option {
	return func(s *Scheduler) { s.planner = planner }
}

func NewScheduler(
	p persistence.Persistence,
	publisher eventbus.EventPublisher,
	schedule string,
	logger *slog.Logger,
	opts ...Option,
) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid delivery schedule %q: %w", schedule, err)
	}

	s := &Scheduler{
		persistence: p,
		publisher:   publisher,
		planner:     NewPlanner(),
		schedule:    schedule,
		clock:       clockwork.NewRealClock(),
		logger:      logger.With("module", "delivery_scheduler", "schedule", schedule),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrSchedulerStarted
	}

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.ErrorContext(ctx, "delivery scan failed", "error", err)
		}
	})
	if err != nil {
		s.cron = nil

		return fmt.Errorf("failed to add delivery job: %w", err)
	}

	s.logger.InfoContext(ctx, "starting delivery scheduler")
	s.cron.Start()

	return nil
}

// Stop halts the cron loop and waits for a running scan to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	s.logger.InfoContext(ctx, "stopping delivery scheduler")

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce scans every sequence once and returns how many steps were dispatched.
// A failed publish leaves the step undispatched so the next scan retries it.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	sequences, err := s.persistence.AllSequences(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load sequences: %w", err)
	}

	now := s.clock.Now().UTC()
	dispatched := 0

	for _, seq := range sequences {
		for _, step := range s.planner.Due(seq, now) {
			err := s.publisher.Publish(ctx, seq.ID, newStepDue(seq, step))
			if err != nil {
				s.logger.WarnContext(ctx, "failed to publish due step",
					"sequence_id", seq.ID, "step_id", step.ID, "error", err)

				continue
			}

			s.planner.MarkDispatched(seq.ID, step.ID)
			dispatched++

			s.logger.DebugContext(ctx, "step dispatched",
				"campaign_id", seq.CampaignID, "sequence_id", seq.ID, "step_id", step.ID, "step_type", step.Type)
		}
	}

	if dispatched > 0 {
		s.logger.InfoContext(ctx, "dispatched due steps", "count", dispatched)
	}

	return dispatched, nil
}

func newStepDue(seq *models.Sequence, step *models.Step) *events.StepDue {
	return &events.StepDue{
		BaseEvent:    events.NewBaseEvent(events.StepDueEvent, seq.CampaignID),
		SequenceID:   seq.ID,
		StepID:       step.ID,
		StepType:     string(step.Type),
		DeliveryTime: step.DeliveryTime,
	}
}
