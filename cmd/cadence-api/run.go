package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/cadence/pkg/cmd"
	"github.com/dukex/cadence/pkg/delivery"
	"github.com/dukex/cadence/pkg/log"
	"github.com/dukex/cadence/pkg/otelhelper"
	"github.com/urfave/cli/v3"
)

func RunAPICommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Start api",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Persistence URL (file://path, postgres://..., redis://...)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers, used with --event-bus=kafka",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Carry invalidation signals over Redis pub/sub instead of the event bus",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "delivery-schedule",
				Usage:   "Cron spec for the due step scan; empty disables it",
				Value:   delivery.DefaultSchedule,
				Sources: cli.EnvVars("DELIVERY_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := log.WithModule("api")

			if command.Bool("otel") {
				tracerProvider, err := otelhelper.InitTracer(ctx, "cadence-api")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				defer func() {
					if err := tracerProvider.Shutdown(context.Background()); err != nil {
						logger.Error("Failed to shutdown tracer provider", "error", err)
					}
				}()
			}

			logger.InfoContext(ctx, "Initializing Cadence API")

			registry := cmd.NewRegistry(logger)

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(context.Background()); err != nil {
					logger.Error("Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), consumerGroup(), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.Error("Failed to close event bus", "error", err)
				}
			}()

			inv, err := cmd.NewInvalidation(ctx, eventBus, command.String("redis-url"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := inv.Close(); err != nil {
					logger.Error("Failed to close invalidation channel", "error", err)
				}
			}()

			if schedule := command.String("delivery-schedule"); schedule != "" {
				scheduler, err := delivery.NewScheduler(persistence, eventBus, schedule, logger)
				if err != nil {
					return err
				}

				if err := scheduler.Start(ctx); err != nil {
					return err
				}

				defer func() {
					if err := scheduler.Stop(context.Background()); err != nil {
						logger.Error("Failed to stop delivery scheduler", "error", err)
					}
				}()
			}

			api := NewAPI(logger, persistence, registry, inv.Publisher)

			return api.Start(ctx, command.Int("port"))
		},
	}
}

// consumerGroup is unique per host so every replica receives every invalidation.
func consumerGroup() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "cadence-api"
	}

	return "cadence-api-" + host
}
