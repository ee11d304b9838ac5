package reporting

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"stepctl/pkg/logging"
)

// ConsoleReporter is an implementation of Reporter that prints readings to a
// writer and logs them via the pkg/logging package.
type ConsoleReporter struct {
	mu   sync.Mutex
	out  io.Writer
	last string
	// OnlyChanges suppresses lines that repeat the previous one.
	OnlyChanges bool
}

// NewConsoleReporter creates a ConsoleReporter writing to out. A nil out
// means stdout.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

// Report prints the update and logs it.
func (c *ConsoleReporter) Report(update ReadingUpdate) {
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}
	r := update.Result

	line := Summary(r)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.OnlyChanges && line == c.last {
		logging.Debug("ConsoleReporter", "Reading unchanged for generation %d, CorrelationID: %s", r.Generation, update.CorrelationID)
		return
	}
	c.last = line

	if r.Failure != nil {
		logging.Error("ConsoleReporter", r.Failure, "Generation %d failed, CorrelationID: %s", r.Generation, update.CorrelationID)
	} else {
		logging.Info("ConsoleReporter", "Generation %d: %s, CorrelationID: %s", r.Generation, line, update.CorrelationID)
	}

	title := "Error"
	if r.Failure == nil {
		title = titleFor(r)
	}
	if _, err := fmt.Fprintf(c.out, "%s  %s: %s\n", update.Timestamp.Format("15:04:05"), title, line); err != nil {
		logging.Error("ConsoleReporter", err, "Failed to write reading")
	}
}
