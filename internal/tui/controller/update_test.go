package controller

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepctl/internal/capability"
	"stepctl/internal/dispatch"
	"stepctl/internal/health"
	"stepctl/internal/health/simulated"
	"stepctl/internal/metric"
	"stepctl/internal/reporting"
	"stepctl/internal/tui/model"
	"stepctl/pkg/logging"
)

type fakeEngine struct {
	snap      metric.Snapshot
	refreshes int
	injects   int
	synthetic bool
	injectErr error
	observer  func(metric.QueryResult)
}

func (f *fakeEngine) Snapshot() metric.Snapshot { return f.snap }
func (f *fakeEngine) Refresh() uint64 {
	f.refreshes++
	f.snap.Generation++
	f.snap.Phase = metric.AwaitingAuthorization
	return f.snap.Generation
}
func (f *fakeEngine) InjectSynthetic() (uint64, error) {
	if f.injectErr != nil {
		return 0, f.injectErr
	}
	f.injects++
	f.snap.Generation++
	f.snap.Phase = metric.AwaitingAuthorization
	return f.snap.Generation, nil
}
func (f *fakeEngine) SyntheticEnabled() bool                 { return f.synthetic }
func (f *fakeEngine) OnSettled(fn func(metric.QueryResult)) { f.observer = fn }

func (f *fakeEngine) settle(r metric.QueryResult) {
	r.Generation = f.snap.Generation
	f.snap.Phase = metric.Settled
	f.snap.Last = &r
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, engine *fakeEngine, cfg model.Config) *model.Model {
	t.Helper()
	engine.snap.Metric = health.StepCount
	return NewModel(engine, dispatch.NewQueue(), cfg, nil)
}

func TestNewModel_TakesObserverSlot(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestModel(t, engine, model.Config{})
	require.NotNil(t, engine.observer)

	engine.observer(metric.QueryResult{Generation: 1, Metric: health.StepCount, Value: 5})
	select {
	case msg := <-m.TUIChannel:
		rm, ok := msg.(reporting.ReadingMsg)
		require.True(t, ok)
		assert.Equal(t, 5.0, rm.Update.Result.Value)
	default:
		t.Fatal("observer did not post a ReadingMsg")
	}
}

func TestUpdate_StartupRefresh(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestModel(t, engine, model.Config{})

	m, _ = Update(model.RefreshRequestedMsg{Source: "startup"}, m)
	assert.Equal(t, 1, engine.refreshes)
	assert.True(t, m.InFlight())

	// A second request while in flight is ignored.
	m, _ = Update(model.RefreshRequestedMsg{Source: "startup"}, m)
	assert.Equal(t, 1, engine.refreshes)
}

func TestUpdate_ManualRefreshGating(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestModel(t, engine, model.Config{RefreshCooldown: time.Hour})

	m, _ = Update(keyMsg("r"), m)
	assert.Equal(t, 1, engine.refreshes)

	m, _ = Update(keyMsg("r"), m)
	assert.Equal(t, 1, engine.refreshes)
	assert.Equal(t, "Refresh already in progress", m.StatusBarMessage)

	engine.settle(metric.QueryResult{Value: 10})
	m, _ = Update(model.DispatchMsg{}, m)
	assert.False(t, m.InFlight())

	m, _ = Update(keyMsg("r"), m)
	assert.Equal(t, 1, engine.refreshes, "cooldown holds the second manual refresh")
	assert.Equal(t, model.StatusBarWarning, m.StatusBarMessageType)
}

func TestUpdate_DispatchRunsClosure(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestModel(t, engine, model.Config{})

	ran := false
	m, cmd := Update(model.DispatchMsg{Fn: func() {
		ran = true
		engine.settle(metric.QueryResult{Value: 42})
	}}, m)
	assert.True(t, ran)
	assert.NotNil(t, cmd, "the drain is re-armed")
	require.NotNil(t, m.Snapshot.Last)
	assert.Equal(t, 42.0, m.Snapshot.Last.Value)
}

func TestUpdate_ReadingSetsStatus(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestModel(t, engine, model.Config{})

	ok := reporting.NewUpdate(metric.QueryResult{Generation: 1, Metric: health.StepCount, Value: 4321})
	m, _ = Update(reporting.ReadingMsg{Update: ok}, m)
	assert.Equal(t, "Updated: 4,321 steps", m.StatusBarMessage)
	assert.Equal(t, model.StatusBarSuccess, m.StatusBarMessageType)
	require.NotNil(t, m.LastUpdate)
	assert.Equal(t, ok.CorrelationID, m.LastUpdate.CorrelationID)

	failed := reporting.NewUpdate(metric.QueryResult{Generation: 2, Metric: health.StepCount, Failure: health.PlatformUnavailable()})
	m, _ = Update(reporting.ReadingMsg{Update: failed}, m)
	assert.Equal(t, model.StatusBarError, m.StatusBarMessageType)
}

func TestUpdate_AutoRefreshTick(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestModel(t, engine, model.Config{AutoRefreshInterval: time.Minute})

	m, cmd := Update(model.AutoRefreshTickMsg{At: time.Now()}, m)
	assert.Equal(t, 1, engine.refreshes)
	assert.NotNil(t, cmd)

	m, _ = Update(model.AutoRefreshTickMsg{At: time.Now()}, m)
	assert.Equal(t, 1, engine.refreshes, "skipped while in flight")
}

func TestUpdate_Inject(t *testing.T) {
	engine := &fakeEngine{synthetic: true}
	m := newTestModel(t, engine, model.Config{})

	m, _ = Update(keyMsg("t"), m)
	assert.Equal(t, 1, engine.injects)
	assert.True(t, m.InFlight())

	engine.settle(metric.QueryResult{})
	m, _ = Update(model.DispatchMsg{}, m)
	engine.injectErr = errors.New("boom")
	m, _ = Update(keyMsg("t"), m)
	assert.Equal(t, model.StatusBarError, m.StatusBarMessageType)
}

func TestUpdate_InjectHiddenWithoutSynthetic(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestModel(t, engine, model.Config{})

	Update(keyMsg("t"), m)
	assert.Equal(t, 0, engine.injects)
}

func TestUpdate_CopyReading(t *testing.T) {
	var copied string
	original := clipboardWriteAll
	clipboardWriteAll = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { clipboardWriteAll = original })

	engine := &fakeEngine{}
	m := newTestModel(t, engine, model.Config{})

	m, _ = Update(keyMsg("y"), m)
	assert.Equal(t, "Nothing to copy yet", m.StatusBarMessage)

	engine.settle(metric.QueryResult{Metric: health.StepCount, Value: 1200})
	m, _ = Update(model.DispatchMsg{}, m)
	m, _ = Update(keyMsg("y"), m)
	assert.Equal(t, "1,200 steps", copied)
	assert.Equal(t, model.StatusBarSuccess, m.StatusBarMessageType)

	clipboardWriteAll = func(string) error { return errors.New("no clipboard") }
	m, _ = Update(keyMsg("y"), m)
	assert.Equal(t, "Copy failed", m.StatusBarMessage)
}

func TestUpdate_OverlaysAndQuit(t *testing.T) {
	m := newTestModel(t, &fakeEngine{}, model.Config{})

	m, _ = Update(keyMsg("L"), m)
	assert.Equal(t, model.ModeLogOverlay, m.CurrentAppMode)
	m, _ = Update(tea.KeyMsg{Type: tea.KeyEsc}, m)
	assert.Equal(t, model.ModeDashboard, m.CurrentAppMode)

	m, _ = Update(keyMsg("h"), m)
	assert.Equal(t, model.ModeHelpOverlay, m.CurrentAppMode)
	assert.True(t, m.Help.ShowAll)
	m, _ = Update(keyMsg("h"), m)
	assert.Equal(t, model.ModeDashboard, m.CurrentAppMode)

	m, cmd := Update(keyMsg("q"), m)
	assert.Equal(t, model.ModeQuitting, m.CurrentAppMode)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestUpdate_LogEntries(t *testing.T) {
	m := newTestModel(t, &fakeEngine{}, model.Config{})
	m, _ = Update(tea.WindowSizeMsg{Width: 100, Height: 30}, m)
	assert.Equal(t, 100, m.Width)
	assert.Greater(t, m.LogViewport.Width, 0)

	m, _ = Update(model.NewLogEntryMsg{Entry: logging.LogEntry{Level: logging.LevelDebug, Subsystem: "X", Message: "hidden"}}, m)
	assert.Empty(t, m.ActivityLog)

	m, _ = Update(model.NewLogEntryMsg{Entry: logging.LogEntry{Level: logging.LevelWarn, Subsystem: "X", Message: "shown"}}, m)
	require.Len(t, m.ActivityLog, 1)
	assert.Contains(t, m.ActivityLog[0], "shown")
	assert.False(t, m.ActivityLogDirty, "the viewport consumed the new line")
}

// Drives a real engine through the TUI queue end to end.
func TestProgramFlow_RealEngine(t *testing.T) {
	store := simulated.New(simulated.DefaultOptions())
	now := time.Date(2025, time.March, 14, 15, 0, 0, 0, time.Local)
	store.AddSample(health.StepCount, 321, health.StartOfDay(now), health.StartOfDay(now).Add(time.Second))

	queue := dispatch.NewQueue()
	defer queue.Close()
	gate := capability.NewGate(store, health.StepCount, queue)
	defer gate.Close()
	engine := metric.NewEngine(store, gate, queue, metric.WithClock(func() time.Time { return now }))
	defer engine.Close()

	m := NewModel(engine, queue, model.Config{}, nil)
	m, _ = Update(model.RefreshRequestedMsg{Source: "startup"}, m)
	require.True(t, m.InFlight())

	deadline := time.After(2 * time.Second)
	for m.InFlight() {
		select {
		case <-deadline:
			t.Fatal("engine never settled through the TUI queue")
		default:
		}
		msg := model.WaitForDispatchCmd(queue)()
		require.NotNil(t, msg)
		m, _ = Update(msg, m)
	}

	require.NotNil(t, m.Snapshot.Last)
	assert.Equal(t, 321.0, m.Snapshot.Last.Value)

	msg := model.ChannelReaderCmd(m.TUIChannel)()
	m, _ = Update(msg, m)
	assert.Equal(t, "Updated: 321 steps", m.StatusBarMessage)
}
