package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukex/cadence/pkg/cmd"
	"github.com/dukex/cadence/pkg/log"
	"github.com/dukex/cadence/pkg/models"
	"github.com/urfave/cli/v3"
)

// SchemaCommand dumps the parameter JSON schema of one node type, or the whole
// registry when no type is given.
func SchemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print registered node and step schemas",
		ArgsUsage: "[node-type]",
		Action: func(_ context.Context, command *cli.Command) error {
			reg := cmd.NewRegistry(log.WithModule("schema"))

			enc := json.NewEncoder(command.Root().Writer)
			enc.SetIndent("", "  ")

			nodeType := command.Args().First()
			if nodeType == "" {
				return enc.Encode(map[string][]*models.RegisteredComponent{
					"nodes": reg.Nodes(),
					"steps": reg.Steps(),
				})
			}

			schema, err := reg.Schema(models.NodeType(nodeType))
			if err != nil {
				return fmt.Errorf("schema for %s: %w", nodeType, err)
			}

			return enc.Encode(schema)
		},
	}
}
