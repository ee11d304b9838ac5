package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"stepctl/internal/app"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Inspect or request access to the configured metric",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print store availability and the current authorization state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd, newAppConfig(cmd, true), func(_ context.Context, a *app.Application) error {
				return a.AuthStatus(cmd.OutOrStdout())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "request",
		Short: "Ask the store for read access, plus write access with --synthetic",
		Long: `Asks the health store for access to the configured metric. A store
only prompts for types whose state is still undetermined; once decided, the
request completes without changing anything. Completing does not mean access
was granted, so the resulting state is printed afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd, newAppConfig(cmd, true), func(ctx context.Context, a *app.Application) error {
				return a.AuthRequest(ctx, cmd.OutOrStdout())
			})
		},
	})

	return cmd
}
