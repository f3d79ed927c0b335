package invalidation_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/cadence/pkg/invalidation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan invalidation.Signal) invalidation.Signal {
	t.Helper()

	select {
	case sig, ok := <-ch:
		require.True(t, ok, "channel closed")

		return sig
	case <-time.After(2 * time.Second):
		t.Fatal("no signal received")

		return invalidation.Signal{}
	}
}

func TestHub_DeliversOnlyToCampaignSubscribers(t *testing.T) {
	hub := invalidation.NewHub(slog.Default())
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := hub.Subscribe(ctx, "camp-a")
	require.NoError(t, err)
	b, err := hub.Subscribe(ctx, "camp-b")
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, invalidation.Signal{CampaignID: "camp-a", Origin: "s1"}))

	sig := receive(t, a)
	assert.Equal(t, "camp-a", sig.CampaignID)
	assert.Equal(t, "s1", sig.Origin)
	assert.False(t, sig.At.IsZero())

	select {
	case <-b:
		t.Fatal("signal leaked to another campaign")
	default:
	}
}

func TestHub_DropsSignalsForFullSubscribers(t *testing.T) {
	hub := invalidation.NewHub(slog.Default())
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := hub.Subscribe(ctx, "camp")
	require.NoError(t, err)

	for range invalidation.SubscriberBuffer * 3 {
		require.NoError(t, hub.Publish(ctx, invalidation.Signal{CampaignID: "camp"}))
	}

	assert.Len(t, ch, invalidation.SubscriberBuffer, "publishing never blocks on a slow subscriber")
}

func TestHub_CancelClosesSubscription(t *testing.T) {
	hub := invalidation.NewHub(slog.Default())
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())

	ch, err := hub.Subscribe(ctx, "camp")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers("camp"))

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed")
	}

	assert.Eventually(t, func() bool { return hub.Subscribers("camp") == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_Close(t *testing.T) {
	hub := invalidation.NewHub(slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := hub.Subscribe(ctx, "camp")
	require.NoError(t, err)

	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close())

	_, ok := <-ch
	assert.False(t, ok)

	_, err = hub.Subscribe(ctx, "camp")
	require.ErrorIs(t, err, invalidation.ErrClosed)
	require.ErrorIs(t, hub.Publish(ctx, invalidation.Signal{CampaignID: "camp"}), invalidation.ErrClosed)
}

func TestMultiPublisher(t *testing.T) {
	first := invalidation.NewHub(slog.Default())
	second := invalidation.NewHub(slog.Default())
	defer first.Close()

	require.NoError(t, second.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := first.Subscribe(ctx, "camp")
	require.NoError(t, err)

	err = invalidation.MultiPublisher{first, second}.Publish(ctx, invalidation.Signal{CampaignID: "camp"})
	require.ErrorIs(t, err, invalidation.ErrClosed)

	receive(t, ch)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "live", invalidation.StatusLive.String())
	assert.Equal(t, "degraded", invalidation.StatusDegraded.String())
}
