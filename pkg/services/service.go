package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/cadence/pkg/events"
	"github.com/dukex/cadence/pkg/invalidation"
	"github.com/dukex/cadence/pkg/otelhelper"
	"github.com/dukex/cadence/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"
)

// base carries the collaborators shared by the sequence and workflow services.
type base struct {
	persistence persistence.Persistence
	publisher   invalidation.Publisher
	validate    *validator.Validate
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// Option customizes a service.
type Option func(*base)

// WithPublisher announces accepted writes to open editors.
func WithPublisher(publisher invalidation.Publisher) Option {
	return func(b *base) { b.publisher = publisher }
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *base) { b.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(b *base) { b.tracer = tracer }
}

func newBase(p persistence.Persistence, module string, opts []Option) base {
	b := base{
		persistence: p,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		tracer:      otelhelper.Tracer("cadence.services"),
		logger:      slog.Default(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(&b)
	}

	b.logger = b.logger.With("module", module)

	return b
}

// HealthCheck checks the health of the persistence layer.
func (b *base) HealthCheck(ctx context.Context) (string, bool) {
	if b.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := b.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// announce publishes an invalidation for an accepted write. The write is
// already durable, so a failed publish is logged and swallowed.
func (b *base) announce(ctx context.Context, campaignID string, resource events.Resource, resourceID string) {
	if b.publisher == nil || campaignID == "" {
		return
	}

	err := b.publisher.Publish(ctx, invalidation.Signal{
		CampaignID: campaignID,
		Resource:   string(resource),
		ResourceID: resourceID,
		Origin:     SessionFrom(ctx),
		At:         b.now().UTC(),
	})
	if err != nil {
		b.logger.WarnContext(ctx, "failed to publish invalidation",
			"campaign_id", campaignID, "resource", resource, "resource_id", resourceID, "error", err)
	}
}
