package model

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"stepctl/internal/dispatch"
	"stepctl/internal/metric"
	"stepctl/internal/reporting"
	"stepctl/pkg/logging"
)

// AppMode represents the current mode of the application
type AppMode int

const (
	ModeDashboard AppMode = iota
	ModeHelpOverlay
	ModeLogOverlay
	ModeQuitting
)

// String provides a human-readable representation of the AppMode.
func (m AppMode) String() string {
	switch m {
	case ModeDashboard:
		return "Dashboard"
	case ModeHelpOverlay:
		return "HelpOverlay"
	case ModeLogOverlay:
		return "LogOverlay"
	case ModeQuitting:
		return "Quitting"
	default:
		return "Unknown"
	}
}

// MessageType represents the type of status bar message
type MessageType int

const (
	StatusBarInfo MessageType = iota
	StatusBarSuccess
	StatusBarError
	StatusBarWarning
)

// MaxActivityLogLines caps the in-memory log pane.
const MaxActivityLogLines = 500

// Engine is what the program needs from metric.Engine.
type Engine interface {
	Snapshot() metric.Snapshot
	Refresh() uint64
	InjectSynthetic() (uint64, error)
	SyntheticEnabled() bool
}

// Config holds the UI settings.
type Config struct {
	// AutoRefreshInterval re-reads the metric periodically. Zero disables it.
	AutoRefreshInterval time.Duration
	// RefreshCooldown throttles manual refreshes.
	RefreshCooldown time.Duration
	DebugMode       bool
}

// KeyMap defines all the key bindings for the application
type KeyMap struct {
	Refresh   key.Binding
	Inject    key.Binding
	Copy      key.Binding
	ToggleLog key.Binding
	Help      key.Binding
	Esc       key.Binding
	Quit      key.Binding
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Inject, k.Copy, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Inject, k.Copy},
		{k.ToggleLog, k.Help, k.Esc, k.Quit},
	}
}

// Model is the TUI state.
type Model struct {
	// Terminal dimensions
	Width  int
	Height int

	CurrentAppMode  AppMode
	LastAppMode     AppMode
	DebugMode       bool
	QuittingMessage string

	// Engine and the queue its completions arrive on.
	Engine Engine
	Queue  *dispatch.Queue
	// Snapshot is re-read after every dispatched closure.
	Snapshot metric.Snapshot
	// LastUpdate is the most recent reading delivered by the reporter.
	LastUpdate *reporting.ReadingUpdate

	Config         Config
	RefreshLimiter *rate.Limiter

	// UI State & Output
	ActivityLog          []string
	ActivityLogDirty     bool
	LogViewport          viewport.Model
	LogViewportLastWidth int
	Spinner              spinner.Model
	Help                 help.Model
	Keys                 KeyMap

	StatusBarMessage     string
	StatusBarMessageType MessageType
	StatusBarClearCancel chan struct{}

	LogChannel <-chan logging.LogEntry
	TUIChannel chan tea.Msg
}

// InFlight reports whether the last snapshot shows a running cycle.
func (m *Model) InFlight() bool {
	return m.Snapshot.InFlight()
}

// SetStatusMessage shows message in the status bar and clears it after
// clearAfter. A newer message cancels the pending clear.
func (m *Model) SetStatusMessage(message string, msgType MessageType, clearAfter time.Duration) tea.Cmd {
	m.StatusBarMessage = message
	m.StatusBarMessageType = msgType

	if m.StatusBarClearCancel != nil {
		close(m.StatusBarClearCancel)
	}

	m.StatusBarClearCancel = make(chan struct{})
	captured := m.StatusBarClearCancel

	return tea.Tick(clearAfter, func(t time.Time) tea.Msg {
		select {
		case <-captured:
			return nil
		default:
			return ClearStatusBarMsg{}
		}
	})
}
