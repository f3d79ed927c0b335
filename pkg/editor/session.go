package editor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dukex/cadence/pkg/adapter"
	"github.com/dukex/cadence/pkg/invalidation"
)

// session owns the pieces shared by both editors: the lock that serializes
// model access and the invalidation watcher.
type session struct {
	mu      sync.Mutex
	logger  *slog.Logger
	watcher *adapter.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

func (s *session) watch(source invalidation.Source, campaignID, sessionID string, reload func(context.Context) error, opts []adapter.Option) {
	if source == nil || campaignID == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.watcher = adapter.NewWatcher(source, campaignID, sessionID, reload, opts...)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		if err := s.watcher.Run(ctx); err != nil {
			s.logger.Warn("real-time updates unavailable", "campaign_id", campaignID, "error", err)
		}
	}()
}

func (s *session) stopWatching() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done
	s.cancel = nil
}

// Status reports whether remote changes are being received.
func (s *session) Status() invalidation.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		return invalidation.StatusDegraded
	}

	return s.watcher.Status()
}
