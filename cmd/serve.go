package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"stepctl/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose the reading as MCP tools and serve Prometheus metrics",
		Long: `Starts an MCP server over SSE so AI assistants can read and refresh the
metric, and serves engine metrics on telemetry.metricsAddr.

Tools:
  metric_status         Current phase, generation and last reading.
  metric_refresh        Start a refresh and wait for its result.
  metric_inject_sample  Write a test sample and wait for the new total
                        (requires synthetic mode).

The server listens on mcp.host:mcp.port (default localhost:8090) and runs
until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd, newAppConfig(cmd, true), func(ctx context.Context, a *app.Application) error {
				return a.Serve(ctx)
			})
		},
	}
}
