package delivery_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/cadence/pkg/delivery"
	"github.com/dukex/cadence/pkg/events"
	"github.com/dukex/cadence/pkg/mocks"
	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/persistence/file"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func seed(t *testing.T, p *file.Persistence, seq *models.Sequence) {
	t.Helper()

	require.NoError(t, p.SaveSequence(t.Context(), seq))
}

func stepDue(stepID string) any {
	return mock.MatchedBy(func(e *events.StepDue) bool {
		return e.StepID == stepID
	})
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	t.Parallel()

	_, err := delivery.NewScheduler(file.NewPersistence(t.TempDir()), &mocks.MockEventBus{}, "every day", quietLogger())
	require.Error(t, err)

	s, err := delivery.NewScheduler(file.NewPersistence(t.TempDir()), &mocks.MockEventBus{}, "", quietLogger())
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestScheduler_RunOnce(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	p := file.NewPersistence(t.TempDir())

	seed(t, p, &models.Sequence{
		ID:         "seq-1",
		CampaignID: "camp-1",
		Name:       "Outbound",
		Steps: []*models.Step{
			{ID: "intro", Type: models.StepTypeAutomaticEmail},
			{ID: "review", Type: models.StepTypeManualEmail},
			{ID: "call", Type: models.StepTypePhoneCall, DeliveryTime: at(clock.Now().Add(time.Hour))},
		},
	})

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "seq-1", mock.MatchedBy(func(e *events.StepDue) bool {
		return e.StepID == "intro" && e.CampaignID == "camp-1" && e.StepType == "automatic_email" &&
			e.GetType() == events.StepDueEvent
	})).Return(nil).Once()

	s, err := delivery.NewScheduler(p, bus, delivery.DefaultSchedule, quietLogger(), delivery.WithClock(clock))
	require.NoError(t, err)

	n, err := s.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n, "already dispatched steps are not published again")

	bus.On("Publish", mock.Anything, "seq-1", stepDue("call")).Return(nil).Once()
	clock.Advance(time.Hour)

	n, err = s.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	bus.AssertExpectations(t)
}

func TestScheduler_RunOnce_RetriesFailedPublish(t *testing.T) {
	t.Parallel()

	p := file.NewPersistence(t.TempDir())
	seed(t, p, &models.Sequence{
		ID:         "seq-1",
		CampaignID: "camp-1",
		Name:       "Outbound",
		Steps:      []*models.Step{{ID: "intro", Type: models.StepTypeAutomaticEmail}},
	})

	planner := delivery.NewPlanner()

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "seq-1", stepDue("intro")).Return(errors.New("broker down")).Once()
	bus.On("Publish", mock.Anything, "seq-1", stepDue("intro")).Return(nil).Once()

	s, err := delivery.NewScheduler(p, bus, "", quietLogger(), delivery.WithPlanner(planner))
	require.NoError(t, err)

	n, err := s.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, planner.Dispatched("seq-1", "intro"))

	n, err = s.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, planner.Dispatched("seq-1", "intro"))

	bus.AssertExpectations(t)
}

func TestScheduler_RunOnce_PersistenceFailure(t *testing.T) {
	t.Parallel()

	p := &mocks.MockPersistence{}
	p.On("AllSequences", mock.Anything).Return(nil, errors.New("connection refused"))

	s, err := delivery.NewScheduler(p, &mocks.MockEventBus{}, "", quietLogger())
	require.NoError(t, err)

	_, err = s.RunOnce(t.Context())
	require.ErrorContains(t, err, "connection refused")
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s, err := delivery.NewScheduler(file.NewPersistence(t.TempDir()), &mocks.MockEventBus{}, "@every 1h", quietLogger())
	require.NoError(t, err)

	require.NoError(t, s.Start(t.Context()))
	require.ErrorIs(t, s.Start(t.Context()), delivery.ErrSchedulerStarted)
	require.NoError(t, s.Stop(t.Context()))
	require.NoError(t, s.Stop(t.Context()))
}
