// Package config loads stepctl configuration.
//
// Configuration is layered, later layers overriding earlier ones:
//
//  1. built-in defaults (GetDefaultConfig)
//  2. the user file, ~/.config/stepctl/config.yaml
//  3. the project file, ./.stepctl/config.yaml
//  4. an explicit file passed with --config
//  5. STEPCTL_* environment variables
//
// Command line flags are applied last by the cmd package.
//
// # Example
//
//	metric: stepCount
//	platform:
//	  backend: sqlite
//	  sqlite:
//	    path: ~/.local/share/stepctl/health.db
//	    promptDecision: granted
//	synthetic:
//	  enabled: true
//	  settleDelay: 500ms
//	ui:
//	  autoRefreshInterval: 5m
//
// Environment variables use the key path upper-cased with dots replaced by
// underscores, e.g. STEPCTL_PLATFORM_BACKEND or STEPCTL_SYNTHETIC_ENABLED.
package config
