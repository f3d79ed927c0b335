package cmd

import (
	"log/slog"

	"github.com/dukex/cadence/pkg/registry"
)

// NewRegistry returns the registry with every built-in node and step type.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewDefaultRegistry(logger)

	for _, c := range reg.Nodes() {
		logger.Debug("registered node type", "type", c.Type, "fields", len(c.Fields))
	}

	for _, c := range reg.Steps() {
		logger.Debug("registered step type", "type", c.Type, "fields", len(c.Fields))
	}

	return reg
}
