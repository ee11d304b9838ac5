package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepctl/internal/config"
	"stepctl/internal/health"
	"stepctl/internal/metric"
)

func testConfig() config.StepctlConfig {
	cfg := config.GetDefaultConfig()
	cfg.Platform.Simulated.SeedValue = 250
	cfg.Synthetic.SettleDelay = 0
	return cfg
}

func newTestServices(t *testing.T, cfg config.StepctlConfig) *Services {
	t.Helper()
	services, err := InitializeServices(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = services.Close() })
	return services
}

func TestInitializeServices_Simulated(t *testing.T) {
	services := newTestServices(t, testConfig())
	assert.Equal(t, health.StepCount, services.Metric)
	assert.True(t, services.Platform.IsDataAvailable())
	assert.NotNil(t, services.Recorder)

	families, err := services.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestInitializeServices_SQLite(t *testing.T) {
	cfg := testConfig()
	cfg.Platform.Backend = config.BackendSQLite
	cfg.Platform.SQLite.Path = filepath.Join(t.TempDir(), "nested", "health.db")

	newTestServices(t, cfg)
	_, err := os.Stat(cfg.Platform.SQLite.Path)
	assert.NoError(t, err, "the database file is created")
}

func TestInitializeServices_BadDecision(t *testing.T) {
	cfg := testConfig()
	cfg.Platform.Simulated.Decision = "maybe"
	_, err := InitializeServices(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewSession_WriteAccessFollowsSynthetic(t *testing.T) {
	cfg := testConfig()
	services := newTestServices(t, cfg)
	s := services.NewSession(nopDispatcher{})
	defer s.Close()
	assert.False(t, s.Gate.WantsWrite())
	assert.False(t, s.Engine.SyntheticEnabled())

	cfg.Synthetic.Enabled = true
	services = newTestServices(t, cfg)
	s = services.NewSession(nopDispatcher{})
	defer s.Close()
	assert.True(t, s.Gate.WantsWrite())
	assert.True(t, s.Engine.SyntheticEnabled())
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(func()) bool { return false }

func cliConfig(cfg config.StepctlConfig) *Config {
	c := NewConfig(true, false)
	c.StepctlConfig = &cfg
	return c
}

func TestRunCLIMode_PrintsReading(t *testing.T) {
	cfg := testConfig()
	services := newTestServices(t, cfg)

	var out bytes.Buffer
	err := runCLIMode(context.Background(), cliConfig(cfg), services, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Steps Today: 250 steps")
}

func TestRunCLIMode_FailureIsReturned(t *testing.T) {
	cfg := testConfig()
	cfg.Platform.Simulated.Available = false
	services := newTestServices(t, cfg)

	var out bytes.Buffer
	err := runCLIMode(context.Background(), cliConfig(cfg), services, &out)
	require.Error(t, err)

	var failure *health.Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, health.KindPlatformUnavailable, failure.Kind)
	assert.Contains(t, out.String(), "Error:")
}

func TestRunCLIMode_WatchStopsWithContext(t *testing.T) {
	cfg := testConfig()
	cfg.UI.AutoRefreshInterval = 20 * time.Millisecond
	services := newTestServices(t, cfg)

	c := cliConfig(cfg)
	c.Watch = true

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := runCLIMode(ctx, c, services, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("Steps Today")), "unchanged readings are printed once")
}

func TestRunInject(t *testing.T) {
	cfg := testConfig()
	services := newTestServices(t, cfg)
	err := runInject(context.Background(), services, io.Discard)
	assert.ErrorIs(t, err, metric.ErrSyntheticDisabled)

	cfg.Synthetic.Enabled = true
	cfg.Synthetic.Min = 100
	cfg.Synthetic.Max = 100
	services = newTestServices(t, cfg)

	var out bytes.Buffer
	require.NoError(t, runInject(context.Background(), services, &out))
	assert.Contains(t, out.String(), "350 steps")
}

func TestAuthStatusAndRequest(t *testing.T) {
	cfg := testConfig()
	services := newTestServices(t, cfg)

	var out bytes.Buffer
	require.NoError(t, printAuthStatus(services, &out))
	assert.Contains(t, out.String(), "Data available: yes")
	assert.Contains(t, out.String(), "Authorization:  Undetermined")

	out.Reset()
	require.NoError(t, runAuthRequest(context.Background(), services, &out))
	assert.Equal(t, "Authorization for stepCount: Granted\n", out.String())
}

func TestAuthRequest_UnsupportedMetric(t *testing.T) {
	cfg := testConfig()
	cfg.Metric = "heartRate"
	services := newTestServices(t, cfg)

	err := runAuthRequest(context.Background(), services, io.Discard)
	var failure *health.Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, health.KindTypeUnsupported, failure.Kind)
}

func TestRunServeMode(t *testing.T) {
	cfg := testConfig()
	cfg.MCP.Port = 18091
	cfg.Telemetry.MetricsAddr = "127.0.0.1:19465"
	services := newTestServices(t, cfg)

	c := cliConfig(cfg)
	c.Version = "test"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServeMode(ctx, c, services) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:19465/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestNewApplication_LayersFlags(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metric: flightsClimbed\nplatform:\n  simulated:\n    seedValue: 3\n"), 0644))

	synthetic := true
	c := NewConfig(true, false)
	c.ConfigPath = path
	c.LogLevel = "warn"
	c.Synthetic = &synthetic

	application, err := NewApplication(context.Background(), c)
	require.NoError(t, err)
	defer application.Close()

	loaded := c.StepctlConfig
	require.NotNil(t, loaded)
	assert.Equal(t, "flightsClimbed", loaded.Metric)
	assert.Equal(t, "warn", loaded.Log.Level)
	assert.True(t, loaded.Synthetic.Enabled)
	assert.Equal(t, health.FlightsClimbed, application.Services().Metric)
}

func TestNewApplication_InvalidOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c := NewConfig(true, false)
	c.Backend = "cloud"
	_, err := NewApplication(context.Background(), c)
	assert.Error(t, err)
}

func TestApplyOverrides_DebugWins(t *testing.T) {
	loaded := config.GetDefaultConfig()
	c := NewConfig(false, true)
	c.LogLevel = "error"
	c.applyOverrides(&loaded)
	assert.Equal(t, "debug", loaded.Log.Level)
}
