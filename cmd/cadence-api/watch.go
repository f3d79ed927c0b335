package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/cadence/pkg/cmd"
	"github.com/dukex/cadence/pkg/invalidation"
	"github.com/dukex/cadence/pkg/log"
	"github.com/urfave/cli/v3"
)

// WatchCommand prints every invalidation signal of a campaign as one JSON line.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print invalidation signals of a campaign",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "campaign",
				Aliases:  []string{"c"},
				Usage:    "Campaign id to watch",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Read signals from Redis pub/sub instead of the event bus",
				Sources: cli.EnvVars("REDIS_URL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := log.WithModule("watch")

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), "cadence-watch-"+consumerGroup(), logger)
			if err != nil {
				return err
			}

			defer func() { _ = eventBus.Close() }()

			inv, err := cmd.NewInvalidation(ctx, eventBus, command.String("redis-url"), logger)
			if err != nil {
				return err
			}

			defer func() { _ = inv.Close() }()

			signals, err := inv.Source.Subscribe(ctx, command.String("campaign"))
			if err != nil {
				return err
			}

			return printSignals(ctx, json.NewEncoder(command.Root().Writer), signals)
		},
	}
}

func printSignals(ctx context.Context, enc *json.Encoder, signals <-chan invalidation.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return fmt.Errorf("campaign watch: %w", invalidation.ErrClosed)
			}

			if err := enc.Encode(sig); err != nil {
				return err
			}
		}
	}
}
