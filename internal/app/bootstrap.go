package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"stepctl/internal/config"
	"stepctl/pkg/logging"
)

// Application is the main application structure that bootstraps and runs stepctl
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads configuration, configures logging and opens the
// health store.
func NewApplication(ctx context.Context, cfg *Config) (*Application, error) {
	// Logs go to stderr so readings on stdout stay pipeable.
	bootLevel := logging.LevelInfo
	if cfg.Debug {
		bootLevel = logging.LevelDebug
	}
	logging.InitForCLI(bootLevel, os.Stderr)

	loaded, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load stepctl configuration")
		return nil, fmt.Errorf("failed to load stepctl configuration: %w", err)
	}
	cfg.applyOverrides(&loaded)
	if err := loaded.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.StepctlConfig = &loaded

	level, _ := logging.ParseLevel(loaded.Log.Level)
	logging.InitForCLI(level, os.Stderr)

	services, err := InitializeServices(ctx, loaded)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services exposes the shared services.
func (a *Application) Services() *Services {
	return a.services
}

// Run executes the application in the appropriate mode
func (a *Application) Run(ctx context.Context) error {
	if a.config.NoTUI || a.config.Watch {
		return runCLIMode(ctx, a.config, a.services, os.Stdout)
	}
	return runTUIMode(ctx, a.config, a.services)
}

// Inject writes one test sample and prints the reading that follows.
func (a *Application) Inject(ctx context.Context, w io.Writer) error {
	return runInject(ctx, a.services, w)
}

// AuthStatus prints the store's availability and the metric's authorization.
func (a *Application) AuthStatus(w io.Writer) error {
	return printAuthStatus(a.services, w)
}

// AuthRequest asks for read access, plus write access when test data is
// enabled, and prints the resulting status.
func (a *Application) AuthRequest(ctx context.Context, w io.Writer) error {
	return runAuthRequest(ctx, a.services, w)
}

// Serve runs the MCP server and the metrics endpoint until ctx ends or a
// termination signal arrives.
func (a *Application) Serve(ctx context.Context) error {
	return runServeMode(ctx, a.config, a.services)
}

// Close releases the health store.
func (a *Application) Close() error {
	return a.services.Close()
}
