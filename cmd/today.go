package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"stepctl/internal/app"
)

func newTodayCmd() *cobra.Command {
	var noTUI, watch bool

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's total for the configured metric",
		Long: `Reads the configured metric for the current calendar day, from
local midnight until now, requesting authorization first if it has not been
decided yet.

1. Interactive TUI Mode (default):
   - Shows the reading in a card with refresh, copy and test-data actions.
   - Refreshes once on start and optionally every ui.autoRefreshInterval.

2. Non-TUI / CLI Mode (using --no-tui flag):
   - Prints one line with the reading and exits non-zero on failure.
   - With --watch, keeps reading on ui.autoRefreshInterval (default 1m)
     and prints only when the value changes, until Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := newAppConfig(cmd, noTUI)
			cfg.Watch = watch
			return withApplication(cmd, cfg, func(ctx context.Context, a *app.Application) error {
				return a.Run(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Print the reading instead of opening the dashboard")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep reading periodically and print changes (implies --no-tui)")
	return cmd
}
