package model

import (
	"time"

	"stepctl/pkg/logging"
)

// DispatchMsg carries one closure from the engine's queue into Update.
type DispatchMsg struct {
	Fn func()
}

// RefreshRequestedMsg asks the controller to start a refresh.
type RefreshRequestedMsg struct {
	Source string
}

// AutoRefreshTickMsg fires every ui.autoRefreshInterval.
type AutoRefreshTickMsg struct {
	At time.Time
}

// NewLogEntryMsg delivers a log entry to the activity log.
type NewLogEntryMsg struct {
	Entry logging.LogEntry
}

// ClearStatusBarMsg clears the status bar.
type ClearStatusBarMsg struct{}
