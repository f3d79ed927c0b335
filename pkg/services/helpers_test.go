package services_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/cadence/pkg/invalidation"
	"github.com/dukex/cadence/pkg/persistence/file"
	"github.com/dukex/cadence/pkg/registry"
	"github.com/dukex/cadence/pkg/services"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fixture struct {
	sequences *services.Sequence
	workflows *services.Workflow
	hub       *invalidation.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hub := invalidation.NewHub(quietLogger())
	t.Cleanup(func() { _ = hub.Close() })

	p := file.NewPersistence(t.TempDir())
	opts := []services.Option{services.WithPublisher(hub), services.WithLogger(quietLogger())}

	return &fixture{
		sequences: services.NewSequence(p, opts...),
		workflows: services.NewWorkflow(p, registry.NewDefaultRegistry(quietLogger()), opts...),
		hub:       hub,
	}
}

func (f *fixture) subscribe(t *testing.T, campaignID string) <-chan invalidation.Signal {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ch, err := f.hub.Subscribe(ctx, campaignID)
	require.NoError(t, err)

	return ch
}

func receive(t *testing.T, ch <-chan invalidation.Signal) invalidation.Signal {
	t.Helper()

	select {
	case sig := <-ch:
		return sig
	case <-time.After(time.Second):
		t.Fatal("no invalidation signal received")
	}

	return invalidation.Signal{}
}

func assertSilent(t *testing.T, ch <-chan invalidation.Signal) {
	t.Helper()

	select {
	case sig := <-ch:
		t.Fatalf("unexpected invalidation signal %+v", sig)
	default:
	}
}
