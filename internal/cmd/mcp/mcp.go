// Package mcp parses MCP command flags and serves the derby tools on
// stdio.
package mcp

import (
	"context"
	"flag"

	mcpservice "github.com/echovale/cubederby/internal/mcp/service"
	entrypoint "github.com/echovale/cubederby/internal/platform/cmd"
)

// Config holds MCP command configuration.
type Config struct {
	Store string `env:"CUBEDERBY_STORE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Store, "store", cfg.Store, "SQLite file for batch aggregates (empty keeps batches unpersisted)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{StorePath: cfg.Store})
	})
}
