package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/permahub/permahub/internal/mcp"
	"github.com/permahub/permahub/internal/telemetry"
)

func newServeCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio transport)",
		Long: `Serve exposes the registry over the Model Context Protocol so
MCP-compatible AI agents can browse, search, and register entries.

Tools: registry_list, registry_search, registry_register,
registry_metrics, registry_delete. Collections are also published as
permahub:// resources.`,
		Example: `  # Run directly
  permahub serve

  # Add to an MCP client
  claude mcp add permahub -- permahub serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			shutdown, err := telemetry.Init(cmd.Context(),
				a.cfg.OTELEndpoint, a.cfg.ServiceName, version, a.cfg.OTELInsecure)
			if err != nil {
				return fmt.Errorf("init telemetry: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					a.logger.Warn("telemetry shutdown failed", "error", err)
				}
			}()

			repo, cleanup, err := a.repository()
			if err != nil {
				return err
			}
			defer cleanup()

			a.logger.Info("starting MCP server", "transport", "stdio", "version", version)
			return mcp.New(repo, version, a.logger).ServeStdio()
		},
	}
}
