package model

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stepctl/internal/dispatch"
	"stepctl/pkg/logging"
)

// WaitForDispatchCmd waits for the next queued closure. It yields nil once
// the queue closes, which ends the drain.
func WaitForDispatchCmd(q *dispatch.Queue) tea.Cmd {
	if q == nil {
		return nil
	}
	return func() tea.Msg {
		fn, ok := q.Next(context.Background())
		if !ok {
			return nil
		}
		return DispatchMsg{Fn: fn}
	}
}

// ListenForLogEntriesCmd waits for the next log entry.
func ListenForLogEntriesCmd(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return NewLogEntryMsg{Entry: entry}
	}
}

// ChannelReaderCmd forwards the next message posted on ch, such as a
// reporting.ReadingMsg.
func ChannelReaderCmd(ch chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// AutoRefreshTickCmd schedules the next periodic refresh.
func AutoRefreshTickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return AutoRefreshTickMsg{At: t}
	})
}

// RequestRefreshCmd posts a RefreshRequestedMsg.
func RequestRefreshCmd(source string) tea.Cmd {
	return func() tea.Msg {
		return RefreshRequestedMsg{Source: source}
	}
}
