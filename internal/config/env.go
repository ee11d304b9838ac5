package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "STEPCTL"

// envBinding maps a config key onto the field it overrides.
type envBinding struct {
	key   string
	apply func(v *viper.Viper, key string, c *StepctlConfig)
}

var envBindings = []envBinding{
	{"metric", func(v *viper.Viper, k string, c *StepctlConfig) { c.Metric = v.GetString(k) }},
	{"platform.backend", func(v *viper.Viper, k string, c *StepctlConfig) { c.Platform.Backend = v.GetString(k) }},
	{"platform.sqlite.path", func(v *viper.Viper, k string, c *StepctlConfig) { c.Platform.SQLite.Path = v.GetString(k) }},
	{"platform.sqlite.promptDecision", func(v *viper.Viper, k string, c *StepctlConfig) {
		c.Platform.SQLite.PromptDecision = v.GetString(k)
	}},
	{"platform.simulated.available", func(v *viper.Viper, k string, c *StepctlConfig) {
		c.Platform.Simulated.Available = v.GetBool(k)
	}},
	{"platform.simulated.decision", func(v *viper.Viper, k string, c *StepctlConfig) {
		c.Platform.Simulated.Decision = v.GetString(k)
	}},
	{"platform.simulated.latency", func(v *viper.Viper, k string, c *StepctlConfig) {
		c.Platform.Simulated.Latency = v.GetDuration(k)
	}},
	{"synthetic.enabled", func(v *viper.Viper, k string, c *StepctlConfig) { c.Synthetic.Enabled = v.GetBool(k) }},
	{"synthetic.min", func(v *viper.Viper, k string, c *StepctlConfig) { c.Synthetic.Min = v.GetInt(k) }},
	{"synthetic.max", func(v *viper.Viper, k string, c *StepctlConfig) { c.Synthetic.Max = v.GetInt(k) }},
	{"synthetic.settleDelay", func(v *viper.Viper, k string, c *StepctlConfig) { c.Synthetic.SettleDelay = v.GetDuration(k) }},
	{"ui.autoRefreshInterval", func(v *viper.Viper, k string, c *StepctlConfig) { c.UI.AutoRefreshInterval = v.GetDuration(k) }},
	{"ui.refreshCooldown", func(v *viper.Viper, k string, c *StepctlConfig) { c.UI.RefreshCooldown = v.GetDuration(k) }},
	{"mcp.host", func(v *viper.Viper, k string, c *StepctlConfig) { c.MCP.Host = v.GetString(k) }},
	{"mcp.port", func(v *viper.Viper, k string, c *StepctlConfig) { c.MCP.Port = v.GetInt(k) }},
	{"telemetry.metricsAddr", func(v *viper.Viper, k string, c *StepctlConfig) { c.Telemetry.MetricsAddr = v.GetString(k) }},
	{"log.level", func(v *viper.Viper, k string, c *StepctlConfig) { c.Log.Level = v.GetString(k) }},
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// applyEnv overrides config with any STEPCTL_* variables that are set.
func applyEnv(config *StepctlConfig) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, b := range envBindings {
		if err := v.BindEnv(b.key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b.key, err)
		}
		if v.IsSet(b.key) {
			b.apply(v, b.key, config)
		}
	}
	return nil
}
