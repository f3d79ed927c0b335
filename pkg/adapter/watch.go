package adapter

import (
	"context"
	"sync/atomic"

	"github.com/dukex/cadence/pkg/invalidation"
)

// Watcher reloads campaign state whenever the invalidation source signals a
// change. Reloads replace state wholesale; nothing is merged.
type Watcher struct {
	config

	source     invalidation.Source
	campaignID string
	sessionID  string
	reload     func(ctx context.Context) error
	status     atomic.Int32
	onStatus   func(invalidation.Status)
}

// NewWatcher skips signals whose origin equals sessionID, since those echo
// this session's own writes.
func NewWatcher(source invalidation.Source, campaignID, sessionID string, reload func(ctx context.Context) error, opts ...Option) *Watcher {
	cfg := newConfig(opts)
	cfg.logger = cfg.logger.With("module", "watcher", "campaign_id", campaignID)

	w := &Watcher{
		config:     cfg,
		source:     source,
		campaignID: campaignID,
		sessionID:  sessionID,
		reload:     reload,
	}
	w.status.Store(int32(invalidation.StatusDegraded))

	return w
}

// OnStatus registers a callback for live/degraded transitions. Call before Run.
func (w *Watcher) OnStatus(fn func(invalidation.Status)) {
	w.onStatus = fn
}

func (w *Watcher) Status() invalidation.Status {
	return invalidation.Status(w.status.Load())
}

func (w *Watcher) setStatus(status invalidation.Status) {
	previous := invalidation.Status(w.status.Swap(int32(status)))
	if previous == status {
		return
	}

	w.logger.Info("real-time status changed", "status", status.String())

	if w.onStatus != nil {
		w.onStatus(status)
	}
}

// Run blocks until ctx is cancelled or the subscription ends. Losing the
// subscription is not fatal: the status turns degraded and Run returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	signals, err := w.source.Subscribe(ctx, w.campaignID)
	if err != nil {
		w.setStatus(invalidation.StatusDegraded)

		return err
	}

	w.setStatus(invalidation.StatusLive)

	for {
		select {
		case <-ctx.Done():
			return nil
		case signal, ok := <-signals:
			if !ok {
				w.setStatus(invalidation.StatusDegraded)

				return nil
			}

			if w.sessionID != "" && signal.Origin == w.sessionID {
				w.logger.Debug("skipping own invalidation", "resource_id", signal.ResourceID)

				continue
			}

			w.refetch(ctx, signal)
		}
	}
}

func (w *Watcher) refetch(ctx context.Context, signal invalidation.Signal) {
	w.logger.Debug("campaign invalidated, reloading", "origin", signal.Origin, "resource", signal.Resource)

	err := w.reload(ctx)
	if err != nil && ctx.Err() == nil {
		w.notifier.Notify(Notification{
			Level:      LevelWarning,
			Op:         "reload",
			CampaignID: w.campaignID,
			Message:    "Failed to refresh after a remote change",
			Err:        err,
			At:         w.clock.Now(),
		})
	}
}
