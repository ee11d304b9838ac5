package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(func() {
		configPath, logLevel, backend, metricName = "", "", "", ""
		synthetic, debug = false, false
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", rootCmd.Version)
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "stepctl", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "stepctl version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	require.NoError(t, testCmd.Execute())
	assert.Equal(t, "stepctl version 1.0.0\n", buf.String())
}

func TestSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, expected := range []string{"today", "auth", "inject", "serve", "version"} {
		assert.True(t, found[expected], "subcommand %s is registered", expected)
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("0.4.0")
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "stepctl version 0.4.0\n", out)
}

func TestAuthStatusCommand(t *testing.T) {
	out, err := execute(t, "auth", "status", "--backend", "simulated", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Metric:         stepCount")
	assert.Contains(t, out, "Authorization:  Undetermined")
}

func TestAuthRequestCommand(t *testing.T) {
	out, err := execute(t, "auth", "request", "--metric", "flightsClimbed", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "Authorization for flightsClimbed: Granted\n", out)
}

func TestInjectCommand_RequiresSynthetic(t *testing.T) {
	_, err := execute(t, "inject", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--synthetic")
}

func TestTodayCommand_UnknownBackend(t *testing.T) {
	_, err := execute(t, "today", "--no-tui", "--backend", "cloud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform.backend")
}

func TestNewAppConfig_SyntheticOnlyWhenSet(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "")
	t.Cleanup(func() { synthetic = false })

	cfg := newAppConfig(cmd, true)
	assert.Nil(t, cfg.Synthetic, "an unset flag leaves the configured value")

	require.NoError(t, cmd.Flags().Set("synthetic", "false"))
	cfg = newAppConfig(cmd, true)
	require.NotNil(t, cfg.Synthetic)
	assert.False(t, *cfg.Synthetic)
}
