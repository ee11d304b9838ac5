package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"stepctl/internal/health"
	"stepctl/pkg/logging"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/stepctl"
	projectConfigDir = ".stepctl"
	configFileName   = "config.yaml"
	dataDir          = ".local/share/stepctl"
)

// LoadConfig loads the stepctl configuration by layering default, user,
// project and explicit settings, then environment overrides. explicitPath may
// be empty.
func LoadConfig(explicitPath string) (StepctlConfig, error) {
	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. User-specific configuration
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional
		logging.Warn("Config", "Could not determine user config path: %v", err)
	} else if err := overlayFile(&config, userConfigPath, false); err != nil {
		return StepctlConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
	}

	// 3. Project-specific configuration
	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		logging.Warn("Config", "Could not determine project config path: %v", err)
	} else if err := overlayFile(&config, projectConfigPath, false); err != nil {
		return StepctlConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
	}

	// 4. Explicit file must exist
	if explicitPath != "" {
		if err := overlayFile(&config, explicitPath, true); err != nil {
			return StepctlConfig{}, fmt.Errorf("error loading config from %s: %w", explicitPath, err)
		}
	}

	// 5. Environment
	if err := applyEnv(&config); err != nil {
		return StepctlConfig{}, fmt.Errorf("error applying environment overrides: %w", err)
	}

	config.Platform.SQLite.Path = expandHome(config.Platform.SQLite.Path)
	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// overlayFile decodes the YAML file at path over config. Keys absent from
// the file keep their current values.
func overlayFile(config *StepctlConfig, path string, required bool) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return nil
	}
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return err
	}
	logging.Debug("Config", "Loaded configuration from %s", path)
	return nil
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

func defaultDatabasePath() string {
	return filepath.Join("~", dataDir, "health.db")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := osUserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks that the configuration values are within acceptable ranges.
func (c StepctlConfig) Validate() error {
	if strings.TrimSpace(c.Metric) == "" {
		return fmt.Errorf("metric must not be empty")
	}
	if !health.Known(health.MetricType(c.Metric)) {
		logging.Warn("Config", "Metric %q is not in the built-in catalog", c.Metric)
	}

	switch c.Platform.Backend {
	case BackendSimulated:
		if _, err := ParseDecision(c.Platform.Simulated.Decision); err != nil {
			return fmt.Errorf("platform.simulated.decision: %w", err)
		}
		if c.Platform.Simulated.Latency < 0 {
			return fmt.Errorf("platform.simulated.latency must not be negative, got %s", c.Platform.Simulated.Latency)
		}
	case BackendSQLite:
		if strings.TrimSpace(c.Platform.SQLite.Path) == "" {
			return fmt.Errorf("platform.sqlite.path must not be empty")
		}
		if _, err := ParseDecision(c.Platform.SQLite.PromptDecision); err != nil {
			return fmt.Errorf("platform.sqlite.promptDecision: %w", err)
		}
	default:
		return fmt.Errorf("platform.backend must be one of: %s, %s; got %q", BackendSimulated, BackendSQLite, c.Platform.Backend)
	}

	if c.Synthetic.Min < 0 || c.Synthetic.Max < c.Synthetic.Min {
		return fmt.Errorf("synthetic.min/max must satisfy 0 <= min <= max, got %d/%d", c.Synthetic.Min, c.Synthetic.Max)
	}
	if c.Synthetic.SettleDelay < 0 {
		return fmt.Errorf("synthetic.settleDelay must not be negative, got %s", c.Synthetic.SettleDelay)
	}
	if c.UI.AutoRefreshInterval < 0 {
		return fmt.Errorf("ui.autoRefreshInterval must not be negative, got %s", c.UI.AutoRefreshInterval)
	}
	if c.UI.RefreshCooldown < 0 {
		return fmt.Errorf("ui.refreshCooldown must not be negative, got %s", c.UI.RefreshCooldown)
	}
	if c.MCP.Port < 1 || c.MCP.Port > 65535 {
		return fmt.Errorf("mcp.port must be between 1 and 65535, got %d", c.MCP.Port)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ParseDecision maps a configured prompt answer onto an authorization state.
func ParseDecision(s string) (health.AuthorizationState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "granted", "grant", "allow":
		return health.Granted, nil
	case "denied", "deny":
		return health.Denied, nil
	default:
		return health.Undetermined, fmt.Errorf("must be \"granted\" or \"denied\", got %q", s)
	}
}
