package main

import (
	"context"
	"os"

	"github.com/dukex/cadence/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "cadence-api",
		Usage:                 "Store campaign sequences and workflows and announce their changes",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			RunAPICommand(),
			WatchCommand(),
			SchemaCommand(),
		},
		DefaultCommand: "run",
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
