package app

import (
	"stepctl/internal/config"
)

// Config holds the application configuration
type Config struct {
	// UI mode
	NoTUI bool
	// Watch keeps CLI mode running, re-reading on ui.autoRefreshInterval.
	Watch bool

	// Debug settings
	Debug bool

	// ConfigPath is an explicit config file layered over the defaults.
	ConfigPath string

	// Overrides from command line flags. Empty or nil leaves the loaded
	// value alone.
	Backend   string
	Metric    string
	LogLevel  string
	Synthetic *bool

	// Version is reported by the MCP server.
	Version string

	// StepctlConfig is the loaded configuration, filled in by NewApplication.
	StepctlConfig *config.StepctlConfig
}

// NewConfig creates a new application configuration
func NewConfig(noTUI, debug bool) *Config {
	return &Config{
		NoTUI: noTUI,
		Debug: debug,
	}
}

// applyOverrides copies flag values onto the loaded configuration.
func (c *Config) applyOverrides(loaded *config.StepctlConfig) {
	if c.Backend != "" {
		loaded.Platform.Backend = c.Backend
	}
	if c.Metric != "" {
		loaded.Metric = c.Metric
	}
	if c.LogLevel != "" {
		loaded.Log.Level = c.LogLevel
	}
	if c.Debug {
		loaded.Log.Level = "debug"
	}
	if c.Synthetic != nil {
		loaded.Synthetic.Enabled = *c.Synthetic
	}
}
