package controller

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"stepctl/internal/reporting"
	"stepctl/internal/tui/model"
	"stepctl/internal/tui/view"
	"stepctl/pkg/logging"
)

const controllerSubsystem = "TUIController"

const statusMessageDuration = 3 * time.Second

// Update routes a message to its handler and refreshes derived state.
func Update(msg tea.Msg, m *model.Model) (*model.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyMsg(m, msg)

	case tea.WindowSizeMsg:
		handleWindowSizeMsg(m, msg)

	case model.DispatchMsg:
		// Engine callbacks run here, on the program goroutine.
		if msg.Fn != nil {
			msg.Fn()
		}
		m.Snapshot = m.Engine.Snapshot()
		cmds = append(cmds, model.WaitForDispatchCmd(m.Queue))

	case reporting.ReadingMsg:
		cmds = append(cmds, handleReading(m, msg.Update), model.ChannelReaderCmd(m.TUIChannel))

	case model.RefreshRequestedMsg:
		cmds = append(cmds, startRefresh(m, msg.Source))

	case model.AutoRefreshTickMsg:
		if m.InFlight() {
			logging.Debug(controllerSubsystem, "Skipping auto refresh, generation %d still in flight", m.Snapshot.Generation)
		} else {
			cmds = append(cmds, startRefresh(m, "auto"))
		}
		cmds = append(cmds, model.AutoRefreshTickCmd(m.Config.AutoRefreshInterval))

	case model.NewLogEntryMsg:
		handleNewLogEntry(m, msg)
		cmds = append(cmds, model.ListenForLogEntriesCmd(m.LogChannel))

	case model.ClearStatusBarMsg:
		m.StatusBarMessage = ""
		if m.StatusBarClearCancel != nil {
			close(m.StatusBarClearCancel)
			m.StatusBarClearCancel = nil
		}

	case spinner.TickMsg:
		var spinCmd tea.Cmd
		m.Spinner, spinCmd = m.Spinner.Update(msg)
		cmds = append(cmds, spinCmd)
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if m.CurrentAppMode == model.ModeLogOverlay {
			var vpCmd tea.Cmd
			m.LogViewport, vpCmd = m.LogViewport.Update(msg)
			cmds = append(cmds, vpCmd)
		}
	}

	refreshLogViewport(m)
	return m, tea.Batch(cmds...)
}

// startRefresh begins a cycle unless one is already running.
func startRefresh(m *model.Model, source string) tea.Cmd {
	if m.InFlight() {
		logging.Debug(controllerSubsystem, "Ignoring %s refresh, generation %d in flight", source, m.Snapshot.Generation)
		return nil
	}
	gen := m.Engine.Refresh()
	m.Snapshot = m.Engine.Snapshot()
	if gen == 0 {
		return m.SetStatusMessage("Engine closed", model.StatusBarError, statusMessageDuration)
	}
	logging.Debug(controllerSubsystem, "Started %s refresh, generation %d", source, gen)
	return nil
}

func handleReading(m *model.Model, update reporting.ReadingUpdate) tea.Cmd {
	m.LastUpdate = &update
	m.Snapshot = m.Engine.Snapshot()
	r := update.Result
	logging.Debug(controllerSubsystem, "Reading %s for generation %d: %s", update.CorrelationID, r.Generation, r.Outcome())

	switch {
	case r.Failure != nil:
		return m.SetStatusMessage(r.Failure.Kind.String(), model.StatusBarError, statusMessageDuration)
	case r.Empty():
		return m.SetStatusMessage("No samples yet today", model.StatusBarWarning, statusMessageDuration)
	default:
		return m.SetStatusMessage("Updated: "+reporting.FormatValue(r), model.StatusBarSuccess, statusMessageDuration)
	}
}

func handleWindowSizeMsg(m *model.Model, msg tea.WindowSizeMsg) {
	m.Width = msg.Width
	m.Height = msg.Height
	m.Help.Width = msg.Width

	w, h := view.LogOverlaySize(msg.Width, msg.Height)
	m.LogViewport.Width = w
	m.LogViewport.Height = h
}

func handleNewLogEntry(m *model.Model, msg model.NewLogEntryMsg) {
	entry := msg.Entry
	if entry.Level < logging.LevelInfo && !m.DebugMode {
		return
	}
	model.AddRawLineToActivityLog(m, entry.String())
}

func refreshLogViewport(m *model.Model) {
	widthChanged := m.LogViewportLastWidth != m.LogViewport.Width
	if !m.ActivityLogDirty && !widthChanged {
		return
	}
	atBottom := m.LogViewport.AtBottom()
	m.LogViewport.SetContent(view.PrepareLogContent(m.ActivityLog, m.LogViewport.Width))
	if atBottom {
		m.LogViewport.GotoBottom()
	}
	m.LogViewportLastWidth = m.LogViewport.Width
	m.ActivityLogDirty = false
}
