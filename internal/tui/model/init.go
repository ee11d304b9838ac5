package model

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"stepctl/internal/dispatch"
	"stepctl/pkg/logging"
)

// tuiChannelSize bounds reporter messages waiting for the program.
const tuiChannelSize = 16

// DefaultKeyMap returns the key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Inject: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "add test data"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy reading"),
		),
		ToggleLog: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "activity log"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h", "help"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// InitializeModel builds the model for engine. Completions must be
// dispatched onto queue.
func InitializeModel(engine Engine, queue *dispatch.Queue, cfg Config, logChannel <-chan logging.LogEntry) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	keys := DefaultKeyMap()
	keys.Inject.SetEnabled(engine.SyntheticEnabled())

	return &Model{
		CurrentAppMode: ModeDashboard,
		DebugMode:      cfg.DebugMode,
		Engine:         engine,
		Queue:          queue,
		Snapshot:       engine.Snapshot(),
		Config:         cfg,
		LogViewport:    viewport.New(0, 0),
		Spinner:        s,
		Help:           help.New(),
		Keys:           keys,
		LogChannel:     logChannel,
		TUIChannel:     make(chan tea.Msg, tuiChannelSize),
	}
}

// Init starts the background commands and the first refresh.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.Spinner.Tick,
		WaitForDispatchCmd(m.Queue),
		ChannelReaderCmd(m.TUIChannel),
		RequestRefreshCmd("startup"),
	}
	if cmd := ListenForLogEntriesCmd(m.LogChannel); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := AutoRefreshTickCmd(m.Config.AutoRefreshInterval); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}
