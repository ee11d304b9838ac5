package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stepctl/internal/dispatch"
	"stepctl/internal/mcpserver"
	"stepctl/internal/metric"
	"stepctl/internal/reporting"
	"stepctl/internal/telemetry"
	"stepctl/internal/tui/controller"
	"stepctl/internal/tui/model"
	"stepctl/pkg/logging"
)

const defaultWatchInterval = time.Minute

// runCLIMode reads the metric once, or repeatedly with --watch, and prints
// each reading.
func runCLIMode(ctx context.Context, config *Config, services *Services, out io.Writer) error {
	logging.Debug("CLI", "Running in no-TUI mode.")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := dispatch.NewLoop()
	defer loop.Close()
	session := services.NewSession(loop)
	defer session.Close()

	reporter := reporting.NewConsoleReporter(out)
	reporter.OnlyChanges = config.Watch
	session.Engine.OnSettled(reporting.Observer(reporter))

	result, err := refreshAndWait(ctx, session.Engine, loop)
	if !config.Watch {
		if err != nil {
			return err
		}
		if result.Failure != nil {
			return result.Failure
		}
		return nil
	}
	if err != nil && ctx.Err() == nil {
		logging.Error("CLI", err, "Initial reading failed")
	}

	interval := config.StepctlConfig.UI.AutoRefreshInterval
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	logging.Info("CLI", "Watching %s every %s. Press Ctrl+C to stop.", services.Metric, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logging.Debug("CLI", "Watch stopped")
			return nil
		case <-ticker.C:
			if _, err := refreshAndWait(ctx, session.Engine, loop); err != nil && ctx.Err() == nil {
				logging.Error("CLI", err, "Reading failed")
			}
		}
	}
}

// refreshAndWait starts a refresh and blocks until it settles and the
// observer has run.
func refreshAndWait(ctx context.Context, engine *metric.Engine, loop *dispatch.Loop) (metric.QueryResult, error) {
	gen := engine.Refresh()
	if gen == 0 {
		return metric.QueryResult{}, metric.ErrClosed
	}
	return waitAndSync(ctx, engine, loop, gen)
}

func waitAndSync(ctx context.Context, engine *metric.Engine, loop *dispatch.Loop, gen uint64) (metric.QueryResult, error) {
	result, err := engine.WaitSettled(ctx, gen)
	if err != nil {
		return metric.QueryResult{}, err
	}
	loop.Sync()
	return result, nil
}

// runInject writes one synthetic sample and prints the reading that follows.
func runInject(ctx context.Context, services *Services, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := dispatch.NewLoop()
	defer loop.Close()
	session := services.NewSession(loop)
	defer session.Close()

	session.Engine.OnSettled(reporting.Observer(reporting.NewConsoleReporter(out)))

	gen, err := session.Engine.InjectSynthetic()
	if err != nil {
		if errors.Is(err, metric.ErrSyntheticDisabled) {
			return fmt.Errorf("%w: enable synthetic.enabled or pass --synthetic", err)
		}
		return err
	}

	result, err := waitAndSync(ctx, session.Engine, loop, gen)
	if err != nil {
		return err
	}
	if result.Failure != nil {
		return result.Failure
	}
	return nil
}

func printAuthStatus(services *Services, out io.Writer) error {
	loop := dispatch.NewLoop()
	defer loop.Close()
	session := services.NewSession(loop)
	defer session.Close()

	available := "no"
	if services.Platform.IsDataAvailable() {
		available = "yes"
	}
	resolved := "unsupported"
	if pt, ok := services.Platform.ResolveType(services.Metric); ok {
		resolved = pt.String()
	}

	_, err := fmt.Fprintf(out, "Metric:         %s\nPlatform type:  %s\nData available: %s\nAuthorization:  %s\n",
		services.Metric, resolved, available, session.Gate.Status())
	return err
}

func runAuthRequest(ctx context.Context, services *Services, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := dispatch.NewLoop()
	defer loop.Close()
	session := services.NewSession(loop)
	defer session.Close()

	done := make(chan error, 1)
	session.Gate.Request(ctx, func(err error) { done <- err })

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Authorization for %s: %s\n", services.Metric, session.Gate.Status())
	return err
}

// runServeMode serves the MCP tools and, when configured, Prometheus
// metrics until ctx ends or a termination signal arrives.
func runServeMode(ctx context.Context, config *Config, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := dispatch.NewLoop()
	defer loop.Close()
	session := services.NewSession(loop)
	defer session.Close()

	cfg := config.StepctlConfig
	mcp := mcpserver.New(mcpserver.Config{
		Host:    cfg.MCP.Host,
		Port:    cfg.MCP.Port,
		Version: config.Version,
	}, session.Engine)
	if err := mcp.Start(ctx); err != nil {
		return err
	}
	logging.Info("Serve", "MCP server listening on http://%s/sse", mcp.Addr())

	var metricsServer *http.Server
	errCh := make(chan error, 1)
	if cfg.Telemetry.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.Handler(services.Registry))
		metricsServer = &http.Server{
			Addr:              cfg.Telemetry.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		logging.Info("Serve", "Metrics available at %s/metrics", cfg.Telemetry.MetricsAddr)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("Serve", "Shutting down")
	case runErr = <-errCh:
		logging.Error("Serve", runErr, "Metrics server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Serve", err, "Failed to stop metrics server")
		}
	}
	if err := mcp.Stop(shutdownCtx); err != nil {
		logging.Error("Serve", err, "Failed to stop MCP server")
	}
	return runErr
}

// runTUIMode executes the interactive terminal UI mode
func runTUIMode(ctx context.Context, config *Config, services *Services) error {
	logging.Debug("CLI", "Starting TUI mode...")

	// Switch logging to channel-based system for TUI integration
	level, _ := logging.ParseLevel(config.StepctlConfig.Log.Level)
	logChan := logging.InitForTUI(level)
	defer logging.CloseTUIChannel()

	queue := dispatch.NewQueue()
	defer queue.Close()
	session := services.NewSession(queue)
	defer session.Close()

	p := controller.NewProgram(session.Engine, queue, model.Config{
		AutoRefreshInterval: config.StepctlConfig.UI.AutoRefreshInterval,
		RefreshCooldown:     config.StepctlConfig.UI.RefreshCooldown,
		DebugMode:           config.Debug,
	}, logChan)

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			p.Quit()
		case <-finished:
		}
	}()

	if _, err := p.Run(); err != nil {
		logging.Error("TUI-Lifecycle", err, "Error running TUI program")
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}
	return nil
}
