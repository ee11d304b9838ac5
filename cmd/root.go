package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stepctl/internal/app"
)

// Persistent flags shared by every subcommand.
var (
	configPath string
	logLevel   string
	backend    string
	metricName string
	synthetic  bool
	debug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stepctl",
	Short: "Read today's health metrics from your device store",
	Long: `stepctl reads a cumulative health metric (step count by default) for the
current calendar day from a local health store. It asks for authorization
when needed, shows the value in an interactive dashboard or prints it for
scripts, and can expose the reading to AI assistants over MCP.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. denied authorization, unavailable store)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v // Set cobra's version field as well
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "stepctl version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

// newAppConfig collects the persistent flags into an application config.
func newAppConfig(cmd *cobra.Command, noTUI bool) *app.Config {
	cfg := app.NewConfig(noTUI, debug)
	cfg.ConfigPath = configPath
	cfg.LogLevel = logLevel
	cfg.Backend = backend
	cfg.Metric = metricName
	cfg.Version = rootCmd.Version
	if cmd.Flags().Changed("synthetic") {
		enabled := synthetic
		cfg.Synthetic = &enabled
	}
	return cfg
}

// withApplication bootstraps the application, runs fn and releases it.
func withApplication(cmd *cobra.Command, cfg *app.Config, fn func(ctx context.Context, a *app.Application) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	application, err := app.NewApplication(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	return fn(ctx, application)
}

func init() {
	rootCmd.AddCommand(newTodayCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newInjectCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file layered over ~/.config/stepctl and ./.stepctl")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&backend, "backend", "", "Health store backend: simulated or sqlite")
	flags.StringVar(&metricName, "metric", "", "Metric to read, e.g. stepCount or flightsClimbed")
	flags.BoolVar(&synthetic, "synthetic", false, "Enable writing synthetic test samples")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
}
