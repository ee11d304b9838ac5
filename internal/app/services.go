package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"stepctl/internal/capability"
	"stepctl/internal/config"
	"stepctl/internal/dispatch"
	"stepctl/internal/health"
	"stepctl/internal/health/simulated"
	"stepctl/internal/health/sqlitestore"
	"stepctl/internal/metric"
	"stepctl/internal/telemetry"
	"stepctl/pkg/logging"
)

// Services holds the platform and telemetry shared by every session.
type Services struct {
	Platform health.Platform
	Metric   health.MetricType
	Registry *prometheus.Registry
	Recorder *telemetry.Recorder

	config  config.StepctlConfig
	closers []func() error
}

// InitializeServices opens the configured health store and the metrics
// registry.
func InitializeServices(ctx context.Context, cfg config.StepctlConfig) (*Services, error) {
	s := &Services{
		Metric:   health.MetricType(cfg.Metric),
		Registry: prometheus.NewRegistry(),
		config:   cfg,
	}
	s.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.Recorder = telemetry.NewRecorder(s.Registry)

	platform, err := s.openPlatform(ctx)
	if err != nil {
		return nil, err
	}
	s.Platform = platform
	return s, nil
}

func (s *Services) openPlatform(ctx context.Context) (health.Platform, error) {
	switch s.config.Platform.Backend {
	case config.BackendSimulated:
		sim := s.config.Platform.Simulated
		decision, err := config.ParseDecision(sim.Decision)
		if err != nil {
			return nil, err
		}
		store := simulated.New(simulated.Options{
			Available: sim.Available,
			Decision:  decision,
			Latency:   sim.Latency,
		})
		if sim.SeedValue > 0 {
			now := time.Now()
			store.AddSample(s.Metric, sim.SeedValue, health.StartOfDay(now), now)
		}
		logging.Info("Bootstrap", "Using simulated health store (available=%t, decision=%s)", sim.Available, decision)
		return store, nil

	case config.BackendSQLite:
		sq := s.config.Platform.SQLite
		decision, err := config.ParseDecision(sq.PromptDecision)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(sq.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err := sqlitestore.Open(ctx, sq.Path, sqlitestore.FixedDecision(decision))
		if err != nil {
			return nil, fmt.Errorf("failed to open health database %s: %w", sq.Path, err)
		}
		s.closers = append(s.closers, store.Close)
		logging.Info("Bootstrap", "Using sqlite health store at %s", sq.Path)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown platform backend %q", s.config.Platform.Backend)
	}
}

// SyntheticConfig converts the configured test-data settings.
func (s *Services) SyntheticConfig() metric.SyntheticConfig {
	c := s.config.Synthetic
	return metric.SyntheticConfig{
		Enabled:     c.Enabled,
		Min:         c.Min,
		Max:         c.Max,
		SettleDelay: c.SettleDelay,
	}
}

// Session is one gate and engine pair bound to a dispatcher.
type Session struct {
	Gate   *capability.Gate
	Engine *metric.Engine
}

// NewSession builds a gate and engine whose completions run on d.
func (s *Services) NewSession(d dispatch.Dispatcher) *Session {
	synthetic := s.SyntheticConfig()

	gateOpts := []capability.Option{capability.WithRecorder(s.Recorder)}
	if synthetic.Enabled {
		gateOpts = append(gateOpts, capability.WithWriteAccess())
	}
	gate := capability.NewGate(s.Platform, s.Metric, d, gateOpts...)
	engine := metric.NewEngine(s.Platform, gate, d,
		metric.WithRecorder(s.Recorder),
		metric.WithSynthetic(synthetic),
	)
	return &Session{Gate: gate, Engine: engine}
}

// Close tears down the engine, then the gate.
func (s *Session) Close() {
	s.Engine.Close()
	s.Gate.Close()
}

// Close releases the health store.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
