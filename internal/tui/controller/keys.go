package controller

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"stepctl/internal/metric"
	"stepctl/internal/reporting"
	"stepctl/internal/tui/model"
	"stepctl/pkg/logging"
)

// clipboardWriteAll is replaced in tests.
var clipboardWriteAll = clipboard.WriteAll

// handleKeyMsg processes key presses for the current mode.
func handleKeyMsg(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	if key.Matches(keyMsg, m.Keys.Quit) {
		m.CurrentAppMode = model.ModeQuitting
		m.QuittingMessage = "Bye."
		return m, tea.Quit
	}

	switch m.CurrentAppMode {
	case model.ModeLogOverlay:
		return handleLogOverlayKey(m, keyMsg)
	case model.ModeHelpOverlay:
		if key.Matches(keyMsg, m.Keys.Esc) || key.Matches(keyMsg, m.Keys.Help) {
			m.CurrentAppMode = m.LastAppMode
			m.Help.ShowAll = false
		}
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.Keys.Refresh):
		return m, manualRefresh(m)

	case key.Matches(keyMsg, m.Keys.Inject):
		return m, injectSample(m)

	case key.Matches(keyMsg, m.Keys.Copy):
		return m, copyReading(m)

	case key.Matches(keyMsg, m.Keys.ToggleLog):
		m.LastAppMode = m.CurrentAppMode
		m.CurrentAppMode = model.ModeLogOverlay
		m.LogViewport.GotoBottom()
		return m, nil

	case key.Matches(keyMsg, m.Keys.Help):
		m.LastAppMode = m.CurrentAppMode
		m.CurrentAppMode = model.ModeHelpOverlay
		m.Help.ShowAll = true
		return m, nil
	}
	return m, nil
}

func handleLogOverlayKey(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMsg, m.Keys.ToggleLog), key.Matches(keyMsg, m.Keys.Esc):
		m.CurrentAppMode = model.ModeDashboard
		return m, nil
	case key.Matches(keyMsg, m.Keys.Copy):
		if err := clipboardWriteAll(strings.Join(m.ActivityLog, "\n")); err != nil {
			logging.Error(controllerSubsystem, err, "Failed to copy logs")
			return m, m.SetStatusMessage("Copy logs failed", model.StatusBarError, statusMessageDuration)
		}
		return m, m.SetStatusMessage("Logs copied to clipboard", model.StatusBarSuccess, statusMessageDuration)
	}
	var vpCmd tea.Cmd
	m.LogViewport, vpCmd = m.LogViewport.Update(keyMsg)
	return m, vpCmd
}

func manualRefresh(m *model.Model) tea.Cmd {
	if m.InFlight() {
		return m.SetStatusMessage("Refresh already in progress", model.StatusBarInfo, statusMessageDuration)
	}
	if m.RefreshLimiter != nil && !m.RefreshLimiter.Allow() {
		return m.SetStatusMessage("Slow down, refresh is on cooldown", model.StatusBarWarning, statusMessageDuration)
	}
	return startRefresh(m, "manual")
}

func injectSample(m *model.Model) tea.Cmd {
	if m.InFlight() {
		return m.SetStatusMessage("Wait for the current reading to finish", model.StatusBarInfo, statusMessageDuration)
	}
	gen, err := m.Engine.InjectSynthetic()
	m.Snapshot = m.Engine.Snapshot()
	switch {
	case errors.Is(err, metric.ErrSyntheticDisabled):
		return m.SetStatusMessage("Test data is disabled", model.StatusBarWarning, statusMessageDuration)
	case err != nil:
		logging.Error(controllerSubsystem, err, "Failed to inject test data")
		return m.SetStatusMessage("Inject failed: "+err.Error(), model.StatusBarError, statusMessageDuration)
	}
	logging.Info(controllerSubsystem, "Injecting test data, generation %d", gen)
	return m.SetStatusMessage("Adding test data...", model.StatusBarInfo, statusMessageDuration)
}

func copyReading(m *model.Model) tea.Cmd {
	last := m.Snapshot.Last
	if last == nil {
		return m.SetStatusMessage("Nothing to copy yet", model.StatusBarInfo, statusMessageDuration)
	}
	if err := clipboardWriteAll(reporting.Summary(*last)); err != nil {
		logging.Error(controllerSubsystem, err, "Failed to copy reading")
		return m.SetStatusMessage("Copy failed", model.StatusBarError, statusMessageDuration)
	}
	return m.SetStatusMessage("Reading copied to clipboard", model.StatusBarSuccess, statusMessageDuration)
}
