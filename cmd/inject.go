package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"stepctl/internal/app"
)

func newInjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inject",
		Short: "Write a random test sample for today and print the new total",
		Long: `Writes one synthetic sample spanning today so far, waits for the store
to make it visible, then reads today's total again.

Requires synthetic.enabled in the configuration or the --synthetic flag.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd, newAppConfig(cmd, true), func(ctx context.Context, a *app.Application) error {
				return a.Inject(ctx, cmd.OutOrStdout())
			})
		},
	}
}
