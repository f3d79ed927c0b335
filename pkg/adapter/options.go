package adapter

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type config struct {
	clock    clockwork.Clock
	window   time.Duration
	policy   RetryPolicy
	notifier Notifier
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*config)

func WithClock(clock clockwork.Clock) Option {
	return func(c *config) { c.clock = clock }
}

func WithQuietWindow(window time.Duration) Option {
	return func(c *config) { c.window = window }
}

func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *config) { c.policy = policy }
}

func WithNotifier(notifier Notifier) Option {
	return func(c *config) { c.notifier = notifier }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) { c.tracer = tracer }
}

func newConfig(opts []Option) config {
	c := config{
		clock:  clockwork.NewRealClock(),
		window: DefaultQuietWindow,
		policy: DefaultRetryPolicy(),
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("adapter"),
	}

	for _, opt := range opts {
		opt(&c)
	}

	if c.notifier == nil {
		c.notifier = NewLogNotifier(c.logger)
	}

	return c
}
