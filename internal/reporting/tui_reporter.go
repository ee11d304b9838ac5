package reporting

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stepctl/pkg/logging"
)

// TUIReporter is an implementation of Reporter that sends updates to a channel
// for the TUI to process.
type TUIReporter struct {
	updateChan chan<- tea.Msg
}

// NewTUIReporter creates a new TUIReporter that sends updates to the provided TUI message channel.
func NewTUIReporter(updateChan chan<- tea.Msg) *TUIReporter {
	if updateChan == nil {
		logging.Error("TUIReporter", nil, "NewTUIReporter called with nil updateChan. Using a dummy channel.")
		dummyChan := make(chan tea.Msg)
		go func() {
			for range dummyChan {
			}
		}()
		return &TUIReporter{updateChan: dummyChan}
	}
	return &TUIReporter{updateChan: updateChan}
}

// Report sends the update wrapped in a ReadingMsg. It never blocks.
func (t *TUIReporter) Report(update ReadingUpdate) {
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}

	select {
	case t.updateChan <- ReadingMsg{Update: update}:
	default:
		// Channel is full, drop the update
		logging.Warn("TUIReporter", "TUI channel full, dropping reading for generation %d (outcome=%s)",
			update.Result.Generation, update.Result.Outcome())
	}
}
