package controller

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"stepctl/internal/dispatch"
	"stepctl/internal/metric"
	"stepctl/internal/reporting"
	"stepctl/internal/tui/model"
	"stepctl/pkg/logging"
)

// Engine is a model.Engine that also exposes the observer slot.
type Engine interface {
	model.Engine
	OnSettled(fn func(metric.QueryResult))
}

// NewProgram creates the bubbletea program. The engine must have been built
// with queue as its dispatcher.
func NewProgram(engine Engine, queue *dispatch.Queue, cfg model.Config, logChannel <-chan logging.LogEntry) *tea.Program {
	m := NewModel(engine, queue, cfg, logChannel)
	return tea.NewProgram(NewAppModel(m), tea.WithAltScreen())
}

// NewModel builds the model and takes the engine's observer slot.
func NewModel(engine Engine, queue *dispatch.Queue, cfg model.Config, logChannel <-chan logging.LogEntry) *model.Model {
	m := model.InitializeModel(engine, queue, cfg, logChannel)
	m.RefreshLimiter = newRefreshLimiter(cfg.RefreshCooldown)
	engine.OnSettled(reporting.Observer(reporting.NewTUIReporter(m.TUIChannel)))
	return m
}

// newRefreshLimiter allows one manual refresh per cooldown.
func newRefreshLimiter(cooldown time.Duration) *rate.Limiter {
	if cooldown <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(cooldown), 1)
}
