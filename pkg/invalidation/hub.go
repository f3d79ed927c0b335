package invalidation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SubscriberBuffer is how many signals may queue for a slow subscriber before
// further ones are dropped. A full queue already guarantees a pending refetch.
const SubscriberBuffer = 16

// Hub fans signals out to in-process subscribers. It is both a Source and a
// Publisher, and backs the event bus and Redis sources.
type Hub struct {
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
	done   chan struct{}
}

type subscriber struct {
	ch   chan Signal
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("module", "invalidation_hub"),
		now:    time.Now,
		subs:   make(map[string]map[*subscriber]struct{}),
		done:   make(chan struct{}),
	}
}

func (h *Hub) Subscribe(ctx context.Context, campaignID string) (<-chan Signal, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	sub := &subscriber{ch: make(chan Signal, SubscriberBuffer)}

	if h.subs[campaignID] == nil {
		h.subs[campaignID] = make(map[*subscriber]struct{})
	}

	h.subs[campaignID][sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
			h.remove(campaignID, sub)
		case <-h.done:
		}
	}()

	return sub.ch, nil
}

func (h *Hub) remove(campaignID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subs[campaignID]; ok {
		delete(set, sub)

		if len(set) == 0 {
			delete(h.subs, campaignID)
		}
	}

	sub.close()
}

// Publish delivers the signal to every subscriber of its campaign without blocking.
func (h *Hub) Publish(_ context.Context, signal Signal) error {
	if signal.At.IsZero() {
		signal.At = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}

	delivered := 0

	for sub := range h.subs[signal.CampaignID] {
		select {
		case sub.ch <- signal:
			delivered++
		default:
		}
	}

	h.logger.Debug("signal published", "campaign_id", signal.CampaignID, "origin", signal.Origin, "delivered", delivered)

	return nil
}

// Subscribers returns the number of open subscriptions for a campaign.
func (h *Hub) Subscribers(campaignID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs[campaignID])
}

// Close ends every subscription. Subscribers observe a closed channel.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	h.closed = true
	close(h.done)

	for campaignID, set := range h.subs {
		for sub := range set {
			sub.close()
		}

		delete(h.subs, campaignID)
	}

	return nil
}
