package invalidation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/cadence/pkg/eventbus"
	"github.com/dukex/cadence/pkg/events"
)

// EventBusSource relays campaign.invalidated events from the event bus into a Hub.
type EventBusSource struct {
	*Hub

	bus eventbus.EventSubscriber
}

// NewEventBusSource registers the relay handler. Call Start once all handlers on
// the bus are registered.
func NewEventBusSource(bus eventbus.EventSubscriber, logger *slog.Logger) (*EventBusSource, error) {
	s := &EventBusSource{Hub: NewHub(logger), bus: bus}

	err := bus.Handle(events.CampaignInvalidatedEvent, s.handle)
	if err != nil {
		return nil, fmt.Errorf("register invalidation handler: %w", err)
	}

	return s, nil
}

func (s *EventBusSource) Start(ctx context.Context) error {
	return s.bus.Subscribe(ctx)
}

func (s *EventBusSource) handle(ctx context.Context, event any) error {
	invalidated, ok := event.(*events.CampaignInvalidated)
	if !ok {
		return nil
	}

	// A closed hub means nobody is listening; acking is correct.
	_ = s.Publish(ctx, Signal{
		CampaignID: invalidated.CampaignID,
		Resource:   string(invalidated.Resource),
		ResourceID: invalidated.ResourceID,
		Origin:     invalidated.Origin,
		At:         invalidated.Timestamp,
	})

	return nil
}

// EventBusPublisher turns signals into campaign.invalidated events keyed by campaign.
type EventBusPublisher struct {
	bus eventbus.EventPublisher
}

func NewEventBusPublisher(bus eventbus.EventPublisher) *EventBusPublisher {
	return &EventBusPublisher{bus: bus}
}

func (p *EventBusPublisher) Publish(ctx context.Context, signal Signal) error {
	event := events.NewCampaignInvalidated(signal.CampaignID, events.Resource(signal.Resource), signal.ResourceID, signal.Origin)
	if !signal.At.IsZero() {
		event.Timestamp = signal.At
	}

	return p.bus.Publish(ctx, signal.CampaignID, event)
}
