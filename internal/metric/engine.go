package metric

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"stepctl/internal/dispatch"
	"stepctl/internal/health"
	"stepctl/pkg/logging"
)

const subsystem = "MetricEngine"

// ErrClosed is returned by WaitSettled once the engine is closed.
var ErrClosed = errors.New("metric engine closed")

// Authorizer is the part of capability.Gate the engine relies on.
type Authorizer interface {
	Metric() health.MetricType
	Status() health.AuthorizationState
	Request(ctx context.Context, done func(err error))
}

// Recorder observes engine activity. telemetry.Recorder implements it.
type Recorder interface {
	RefreshStarted(superseded bool)
	Settled(outcome string, value float64)
	StaleCompletion(stage string)
	QueryObserved(d time.Duration)
	SyntheticWritten(err error)
}

type nopRecorder struct{}

func (nopRecorder) RefreshStarted(bool)         {}
func (nopRecorder) Settled(string, float64)     {}
func (nopRecorder) StaleCompletion(string)      {}
func (nopRecorder) QueryObserved(time.Duration) {}
func (nopRecorder) SyntheticWritten(error)      {}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for window computation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRecorder reports engine activity to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithSynthetic configures the synthetic sample path.
func WithSynthetic(cfg SyntheticConfig) Option {
	return func(e *Engine) {
		e.synthetic = cfg
	}
}

// WithRandSource seeds the synthetic sample generator.
func WithRandSource(src rand.Source) Option {
	return func(e *Engine) {
		e.rng = rand.New(src)
	}
}

// Engine drives refresh cycles for one metric.
type Engine struct {
	platform   health.Platform
	gate       Authorizer
	metric     health.MetricType
	dispatcher dispatch.Dispatcher
	now        func() time.Time
	recorder   Recorder
	synthetic  SyntheticConfig

	rngMu sync.Mutex
	rng   *rand.Rand

	ctx  context.Context
	stop context.CancelFunc

	mu          sync.Mutex
	generation  uint64
	phase       Phase
	last        *QueryResult
	cancelCycle context.CancelFunc
	pending     *time.Timer
	onSettled   func(QueryResult)
	settledCh   chan struct{}
	closed      bool
}

// NewEngine creates an engine for the gate's metric.
func NewEngine(platform health.Platform, gate Authorizer, dispatcher dispatch.Dispatcher, opts ...Option) *Engine {
	ctx, stop := context.WithCancel(context.Background())
	e := &Engine{
		platform:   platform,
		gate:       gate,
		metric:     gate.Metric(),
		dispatcher: dispatcher,
		now:        time.Now,
		recorder:   nopRecorder{},
		synthetic:  DefaultSyntheticConfig(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:        ctx,
		stop:       stop,
		settledCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Metric returns the metric this engine reads.
func (e *Engine) Metric() health.MetricType {
	return e.metric
}

// OnSettled installs the observer. It replaces any previous one and runs on
// the dispatcher, once per settled cycle.
func (e *Engine) OnSettled(fn func(QueryResult)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSettled = fn
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// InFlight reports whether a cycle is running.
func (e *Engine) InFlight() bool {
	return e.Phase().InFlight()
}

// LastResult returns the most recent settled result.
func (e *Engine) LastResult() (QueryResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return QueryResult{}, false
	}
	return *e.last, true
}

// Snapshot returns phase, generation and last result together.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{Metric: e.metric, Phase: e.phase, Generation: e.generation}
	if e.last != nil {
		last := *e.last
		s.Last = &last
	}
	return s
}

// Refresh starts a new cycle and returns its generation. A cycle already in
// flight is superseded and will not settle. Returns 0 once closed.
func (e *Engine) Refresh() uint64 {
	gen, ctx, ok := e.begin()
	if !ok {
		return 0
	}
	logging.Debug(subsystem, "Refresh %d started for %s", gen, e.metric)

	pt, ok := e.guard(gen)
	if !ok {
		return gen
	}

	if e.gate.Status() == health.Granted {
		e.query(ctx, gen, pt)
		return gen
	}

	e.gate.Request(ctx, func(err error) {
		if !e.current(gen) {
			e.recorder.StaleCompletion("authorization")
			return
		}
		if err != nil {
			e.settle(gen, failureResult(e.metric, asFailure(err)))
			return
		}
		e.query(ctx, gen, pt)
	})
	return gen
}

// begin bumps the generation, supersedes any running cycle and enters
// AwaitingAuthorization.
func (e *Engine) begin() (uint64, context.Context, bool) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return 0, nil, false
	}
	superseded := e.phase.InFlight()
	if e.cancelCycle != nil {
		e.cancelCycle()
	}
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.generation++
	gen := e.generation
	ctx, cancel := context.WithCancel(e.ctx)
	e.cancelCycle = cancel
	e.phase = AwaitingAuthorization
	e.mu.Unlock()

	if superseded {
		logging.Debug(subsystem, "Generation %d supersedes the cycle in flight", gen)
	}
	e.recorder.RefreshStarted(superseded)
	return gen, ctx, true
}

// guard runs the availability and type checks shared by every cycle.
func (e *Engine) guard(gen uint64) (health.PlatformType, bool) {
	if !e.platform.IsDataAvailable() {
		e.post(gen, failureResult(e.metric, health.PlatformUnavailable()), "guard")
		return health.PlatformType{}, false
	}
	pt, ok := e.platform.ResolveType(e.metric)
	if !ok {
		e.post(gen, failureResult(e.metric, health.TypeUnsupported(e.metric)), "guard")
		return health.PlatformType{}, false
	}
	return pt, true
}

func (e *Engine) query(ctx context.Context, gen uint64, pt health.PlatformType) {
	if !e.advance(gen, Querying) {
		e.recorder.StaleCompletion("authorization")
		return
	}
	window := health.Today(e.now())
	logging.Debug(subsystem, "Generation %d querying %s over %s", gen, e.metric, window)

	go func() {
		started := time.Now()
		q, err := e.platform.ExecuteAggregateQuery(ctx, pt, window, health.AggregateSum)
		e.recorder.QueryObserved(time.Since(started))

		var result QueryResult
		if err != nil {
			result = failureResult(e.metric, health.QueryFailed(e.metric, err))
		} else {
			result = successResult(e.metric, q)
		}
		e.post(gen, result, "query")
	}()
}

// post hands a result to the dispatcher for settling.
func (e *Engine) post(gen uint64, result QueryResult, stage string) {
	ok := e.dispatcher.Dispatch(func() {
		if !e.settle(gen, result) {
			e.recorder.StaleCompletion(stage)
		}
	})
	if !ok {
		logging.Debug(subsystem, "Dispatcher closed, dropping %s completion for generation %d", stage, gen)
	}
}

// settle publishes result if gen is still current. It must run on the
// dispatcher.
func (e *Engine) settle(gen uint64, result QueryResult) bool {
	e.mu.Lock()
	if e.closed || gen != e.generation || !e.phase.InFlight() {
		e.mu.Unlock()
		logging.Debug(subsystem, "Discarding stale completion for generation %d", gen)
		return false
	}
	result.Generation = gen
	result.SettledAt = e.now()
	e.phase = Settled
	e.last = &result
	if e.cancelCycle != nil {
		e.cancelCycle()
		e.cancelCycle = nil
	}
	observer := e.onSettled
	close(e.settledCh)
	e.settledCh = make(chan struct{})
	e.mu.Unlock()

	if result.Failure != nil {
		logging.Warn(subsystem, "Generation %d settled with %s: %s", gen, result.Failure.Kind, result.Failure.Detail)
	} else {
		logging.Info(subsystem, "Generation %d settled: %v %s", gen, result.Value, result.Unit)
	}
	e.recorder.Settled(result.Outcome(), result.Value)

	if observer != nil {
		observer(result)
	}
	return true
}

// advance moves gen to phase if it is still current.
func (e *Engine) advance(gen uint64, phase Phase) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.generation {
		return false
	}
	e.phase = phase
	return true
}

func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && gen == e.generation
}

// WaitSettled blocks until a result with generation >= gen has settled and
// returns it. It does not consume the observer slot.
func (e *Engine) WaitSettled(ctx context.Context, gen uint64) (QueryResult, error) {
	for {
		e.mu.Lock()
		if e.last != nil && e.last.Generation >= gen {
			r := *e.last
			e.mu.Unlock()
			return r, nil
		}
		if e.closed {
			e.mu.Unlock()
			return QueryResult{}, ErrClosed
		}
		ch := e.settledCh
		e.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return QueryResult{}, ctx.Err()
		case <-e.ctx.Done():
			return QueryResult{}, ErrClosed
		}
	}
}

// Close tears the engine down. In-flight completions and pending timers are
// discarded. The gate is owned by the caller and is not closed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.cancelCycle != nil {
		e.cancelCycle()
		e.cancelCycle = nil
	}
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.stop()
	logging.Debug(subsystem, "Engine for %s closed at generation %d", e.metric, e.generation)
}

func asFailure(err error) *health.Failure {
	if f, ok := health.AsFailure(err); ok {
		return f
	}
	return health.AuthorizationFailed(err)
}
