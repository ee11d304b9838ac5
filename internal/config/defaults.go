package config

import (
	"time"
)

// GetDefaultConfig returns the built-in configuration: today's step count
// from the simulated store, synthetic data off.
func GetDefaultConfig() StepctlConfig {
	return StepctlConfig{
		Metric: "stepCount",
		Platform: PlatformConfig{
			Backend: BackendSimulated,
			SQLite: SQLiteConfig{
				Path:           defaultDatabasePath(),
				PromptDecision: "granted",
			},
			Simulated: SimulatedConfig{
				Available: true,
				Decision:  "granted",
			},
		},
		Synthetic: SyntheticConfig{
			Enabled:     false,
			Min:         1000,
			Max:         10000,
			SettleDelay: 500 * time.Millisecond,
		},
		UI: UIConfig{
			AutoRefreshInterval: 0,
			RefreshCooldown:     time.Second,
		},
		MCP: MCPConfig{
			Host: "localhost",
			Port: 8090,
		},
		Telemetry: TelemetryConfig{
			MetricsAddr: "localhost:9464",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
