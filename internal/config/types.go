package config

import (
	"time"
)

// Backend names.
const (
	BackendSimulated = "simulated"
	BackendSQLite    = "sqlite"
)

// StepctlConfig is the top-level configuration structure for stepctl.
type StepctlConfig struct {
	// Metric is the health metric to read, e.g. "stepCount".
	Metric    string          `yaml:"metric"`
	Platform  PlatformConfig  `yaml:"platform"`
	Synthetic SyntheticConfig `yaml:"synthetic"`
	UI        UIConfig        `yaml:"ui"`
	MCP       MCPConfig       `yaml:"mcp"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// PlatformConfig selects and configures the health store.
type PlatformConfig struct {
	Backend   string          `yaml:"backend"` // "simulated" or "sqlite"
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Simulated SimulatedConfig `yaml:"simulated"`
}

// SQLiteConfig configures the file-backed store.
type SQLiteConfig struct {
	Path string `yaml:"path"`
	// PromptDecision answers authorization prompts: "granted" or "denied".
	PromptDecision string `yaml:"promptDecision"`
}

// SimulatedConfig configures the in-memory store.
type SimulatedConfig struct {
	Available bool          `yaml:"available"`
	Decision  string        `yaml:"decision"`
	Latency   time.Duration `yaml:"latency,omitempty"`
	// SeedValue, when positive, pre-loads one sample for today.
	SeedValue float64 `yaml:"seedValue,omitempty"`
}

// SyntheticConfig controls the test-data action.
type SyntheticConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Min         int           `yaml:"min"`
	Max         int           `yaml:"max"`
	SettleDelay time.Duration `yaml:"settleDelay"`
}

// UIConfig tunes the interactive view.
type UIConfig struct {
	// AutoRefreshInterval refreshes periodically when positive.
	AutoRefreshInterval time.Duration `yaml:"autoRefreshInterval"`
	// RefreshCooldown is the minimum gap between manual refreshes.
	RefreshCooldown time.Duration `yaml:"refreshCooldown"`
}

// MCPConfig defines where the MCP server listens.
type MCPConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// TelemetryConfig defines where Prometheus metrics are served.
type TelemetryConfig struct {
	MetricsAddr string `yaml:"metricsAddr,omitempty"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}
