package editor_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/cadence/pkg/adapter"
	"github.com/dukex/cadence/pkg/editor"
	"github.com/dukex/cadence/pkg/invalidation"
	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/sequence"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSequenceEditor(t *testing.T, remote *memoryRemote, source invalidation.Source, opts ...adapter.Option) *editor.SequenceEditor {
	t.Helper()

	e, err := editor.NewSequenceEditor(editor.SequenceConfig{
		CampaignID: "camp-1",
		Name:       "Outbound",
		Remote:     remote,
		Source:     source,
		SessionID:  "session-me",
		Logger:     slog.New(slog.DiscardHandler),
		Options:    testOptions(opts...),
	})
	require.NoError(t, err)
	require.NoError(t, e.Open(context.Background()))

	t.Cleanup(func() { e.Close(context.Background()) })

	return e
}

func TestNewSequenceEditor_RequiresCollaborators(t *testing.T) {
	_, err := editor.NewSequenceEditor(editor.SequenceConfig{CampaignID: "camp-1"})
	require.ErrorIs(t, err, editor.ErrMissingRemote)

	_, err = editor.NewSequenceEditor(editor.SequenceConfig{Remote: newMemoryRemote()})
	require.ErrorIs(t, err, editor.ErrMissingCampaign)
}

func TestSequenceEditor_CommandsBeforeOpen(t *testing.T) {
	e, err := editor.NewSequenceEditor(editor.SequenceConfig{CampaignID: "camp-1", Remote: newMemoryRemote()})
	require.NoError(t, err)

	_, err = e.AddStep(editor.AddStepInput{Type: models.StepTypePhoneCall})
	require.ErrorIs(t, err, editor.ErrNotOpen)
	require.ErrorIs(t, e.DragEnd(0, 1), editor.ErrNotOpen)
	assert.Nil(t, e.Steps())
	assert.Equal(t, invalidation.StatusDegraded, e.Status())
}

func TestSequenceEditor_OpenCreatesMissingSequence(t *testing.T) {
	remote := newMemoryRemote()
	e := openSequenceEditor(t, remote, nil)

	seq, err := e.Sequence()
	require.NoError(t, err)
	assert.Equal(t, "seq-1", seq.ID)
	assert.Equal(t, "Outbound", seq.Name)
	assert.Empty(t, seq.Steps)

	require.ErrorIs(t, e.Open(context.Background()), editor.ErrAlreadyOpen)
}

func TestSequenceEditor_OpenLoadsExistingSequence(t *testing.T) {
	remote := newMemoryRemote()
	remote.putSequence(&models.Sequence{
		ID: "seq-9", CampaignID: "camp-1", Name: "Existing",
		Steps: []*models.Step{{ID: "s1", Type: models.StepTypePhoneCall, Title: "Call"}},
	})

	e := openSequenceEditor(t, remote, nil)

	steps := e.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, "s1", steps[0].ID)
}

func TestSequenceEditor_ManualEmailScenario(t *testing.T) {
	remote := newMemoryRemote()
	e := openSequenceEditor(t, remote, nil)

	step, err := e.AddStep(editor.AddStepInput{Type: models.StepTypeManualEmail, Title: "Intro", Description: "first touch"})
	require.NoError(t, err)
	assert.False(t, step.Approved)
	assert.Len(t, step.Variations, 1)
	assert.Equal(t, "first touch", step.Description)

	require.NoError(t, e.Approve(context.Background(), step.ID))
	assert.True(t, e.Steps()[0].Approved)
	assert.Equal(t, []string{"seq-1/" + step.ID}, remote.approvals)

	require.NoError(t, e.Approve(context.Background(), step.ID))
	assert.Len(t, remote.approvals, 1, "approving twice is a no-op")

	draft, err := e.OpenVariantDialog(step.ID, "")
	require.NoError(t, err)
	draft.Subject = "B subject"
	draft.Body = "B body"
	require.NoError(t, e.SaveVariant(draft))

	variations := e.Steps()[0].Variations
	require.Len(t, variations, 2)
	assert.Equal(t, "B subject", variations[1].Subject)

	_, err = e.OpenVariantDialog(step.ID, "")
	require.ErrorIs(t, err, sequence.ErrLimitExceeded)
	assert.Len(t, e.Steps()[0].Variations, 2)
}

func TestSequenceEditor_ApproveOnlyManualEmail(t *testing.T) {
	e := openSequenceEditor(t, newMemoryRemote(), nil)

	step, err := e.AddStep(editor.AddStepInput{Type: models.StepTypeAutomaticEmail, Title: "Auto"})
	require.NoError(t, err)

	require.ErrorIs(t, e.Approve(context.Background(), step.ID), editor.ErrApprovalNotSupported)
	assert.False(t, e.Steps()[0].Approved)

	require.ErrorIs(t, e.Approve(context.Background(), "missing"), sequence.ErrStepNotFound)
}

func TestSequenceEditor_EditExistingVariant(t *testing.T) {
	e := openSequenceEditor(t, newMemoryRemote(), nil)

	step, err := e.AddStep(editor.AddStepInput{Type: models.StepTypeAutomaticEmail})
	require.NoError(t, err)

	draft, err := e.OpenVariantDialog(step.ID, step.Variations[0].ID)
	require.NoError(t, err)
	assert.Empty(t, draft.Subject)

	draft.Subject = "Hello"
	require.NoError(t, e.SaveVariant(draft))

	again, err := e.OpenVariantDialog(step.ID, step.Variations[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", again.Subject)

	_, err = e.OpenVariantDialog(step.ID, "nope")
	require.ErrorIs(t, err, sequence.ErrVariantNotFound)
}

func TestSequenceEditor_AbandonedVariantDraftIsNotPersisted(t *testing.T) {
	remote := newMemoryRemote()
	clock := clockwork.NewFakeClock()

	e, err := editor.NewSequenceEditor(editor.SequenceConfig{
		CampaignID: "camp-1",
		Remote:     remote,
		Logger:     slog.New(slog.DiscardHandler),
		Options:    testOptions(adapter.WithClock(clock)),
	})
	require.NoError(t, err)
	require.NoError(t, e.Open(context.Background()))

	email, err := e.AddStep(editor.AddStepInput{Type: models.StepTypeManualEmail, Title: "Intro"})
	require.NoError(t, err)
	call, err := e.AddStep(editor.AddStepInput{Type: models.StepTypePhoneCall, Title: "Call"})
	require.NoError(t, err)

	draft, err := e.OpenVariantDialog(email.ID, "")
	require.NoError(t, err)
	assert.Empty(t, draft.VariantID)
	assert.Len(t, e.Steps()[0].Variations, 1, "opening the dialog does not touch the model")

	require.NoError(t, e.DeleteStep(call.ID))

	_, err = e.OpenVariantDialog(email.ID, "")
	require.NoError(t, err, "the abandoned draft does not hold the second slot")

	e.Close(context.Background())

	stored := remote.storedSequence("seq-1")
	require.Len(t, stored.Steps, 1)
	assert.Len(t, stored.Steps[0].Variations, 1)
}

func TestSequenceEditor_DragSequenceProducesOneWrite(t *testing.T) {
	remote := newMemoryRemote()
	clock := clockwork.NewFakeClock()
	e := openSequenceEditor(t, remote, nil, adapter.WithClock(clock))

	for _, title := range []string{"a", "b", "c"} {
		_, err := e.AddStep(editor.AddStepInput{Type: models.StepTypeActionItem, Title: title})
		require.NoError(t, err)
	}

	require.NoError(t, e.DragEnd(0, 2))
	require.NoError(t, e.DragEnd(2, 1))
	require.True(t, e.Pending())

	clock.Advance(adapter.DefaultQuietWindow)
	require.Eventually(t, func() bool { return remote.writeCount() == 1 }, time.Second, time.Millisecond)

	stored := remote.storedSequence("seq-1")
	titles := make([]string, 0, len(stored.Steps))
	for _, s := range stored.Steps {
		titles = append(titles, s.Title)
	}

	assert.Equal(t, []string{"b", "a", "c"}, titles)
}

func TestSequenceEditor_DuplicateAndDelete(t *testing.T) {
	e := openSequenceEditor(t, newMemoryRemote(), nil)

	step, err := e.AddStep(editor.AddStepInput{Type: models.StepTypeLinkedInRequest, Title: "Connect"})
	require.NoError(t, err)

	dup, err := e.DuplicateStep(step.ID)
	require.NoError(t, err)
	assert.NotEqual(t, step.ID, dup.ID)

	title := "Follow up"
	_, err = e.UpdateStep(dup.ID, sequence.StepPatch{Title: &title})
	require.NoError(t, err)

	steps := e.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "Connect", steps[0].Title)
	assert.Equal(t, "Follow up", steps[1].Title)

	require.NoError(t, e.DeleteStep(step.ID))
	require.ErrorIs(t, e.DeleteStep(step.ID), sequence.ErrStepNotFound)
	assert.Len(t, e.Steps(), 1)
}

func TestSequenceEditor_CloseFlushesPendingWrite(t *testing.T) {
	remote := newMemoryRemote()
	clock := clockwork.NewFakeClock()

	e, err := editor.NewSequenceEditor(editor.SequenceConfig{
		CampaignID: "camp-1",
		Remote:     remote,
		Logger:     slog.New(slog.DiscardHandler),
		Options:    testOptions(adapter.WithClock(clock)),
	})
	require.NoError(t, err)
	require.NoError(t, e.Open(context.Background()))

	_, err = e.AddStep(editor.AddStepInput{Type: models.StepTypePhoneCall, Title: "Call"})
	require.NoError(t, err)

	e.Close(context.Background())

	assert.Equal(t, 1, remote.writeCount())
	assert.Len(t, remote.storedSequence("seq-1").Steps, 1)
}

func TestSequenceEditor_RefetchesOnRemoteChange(t *testing.T) {
	remote := newMemoryRemote()
	hub := invalidation.NewHub(slog.New(slog.DiscardHandler))
	defer hub.Close()

	e := openSequenceEditor(t, remote, hub)
	require.Eventually(t, func() bool { return e.Status() == invalidation.StatusLive }, time.Second, time.Millisecond)

	seq, err := e.Sequence()
	require.NoError(t, err)

	seq.Steps = []*models.Step{{ID: "remote-step", Type: models.StepTypeActionItem, Title: "From elsewhere"}}
	remote.putSequence(seq)

	require.NoError(t, hub.Publish(context.Background(), invalidation.Signal{CampaignID: "camp-1", Origin: "session-other"}))

	require.Eventually(t, func() bool {
		steps := e.Steps()

		return len(steps) == 1 && steps[0].ID == "remote-step"
	}, time.Second, time.Millisecond)
}
