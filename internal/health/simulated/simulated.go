// Package simulated provides an in-memory health store.
//
// It behaves like a device health store from the caller's point of view:
// authorization decisions stick once made, queries aggregate over stored
// samples, and every blocking call can be slowed down or failed on demand.
package simulated

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"stepctl/internal/health"
)

// Options configures a simulated store.
type Options struct {
	// Available is reported by IsDataAvailable.
	Available bool
	// Supported lists the metrics ResolveType accepts. Empty means the whole catalog.
	Supported []health.MetricType
	// Decision is what the simulated prompt answers for undetermined types.
	Decision health.AuthorizationState
	// Latency delays every blocking call.
	Latency time.Duration
}

// DefaultOptions returns an available store that grants every prompt.
func DefaultOptions() Options {
	return Options{
		Available: true,
		Decision:  health.Granted,
	}
}

// Calls counts platform invocations.
type Calls struct {
	Available int
	Resolve   int
	Status    int
	Request   int
	Prompts   int
	Query     int
	Save      int
}

// Store is an in-memory health.Platform.
type Store struct {
	mu        sync.Mutex
	opts      Options
	supported map[health.MetricType]bool
	auth      map[health.MetricType]health.AuthorizationState
	samples   []health.Sample
	calls     Calls

	requestErr error
	queryErr   error
	saveErr    error
}

var _ health.Platform = (*Store)(nil)

// New creates a simulated store.
func New(opts Options) *Store {
	s := &Store{
		opts:      opts,
		supported: make(map[health.MetricType]bool),
		auth:      make(map[health.MetricType]health.AuthorizationState),
	}
	metrics := opts.Supported
	if len(metrics) == 0 {
		metrics = health.KnownMetrics()
	}
	for _, m := range metrics {
		s.supported[m] = true
	}
	return s
}

// IsDataAvailable implements health.Platform.
func (s *Store) IsDataAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Available++
	return s.opts.Available
}

// ResolveType implements health.Platform.
func (s *Store) ResolveType(m health.MetricType) (health.PlatformType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Resolve++
	if !s.supported[m] {
		return health.PlatformType{}, false
	}
	return health.PlatformType{Metric: m, Unit: health.Describe(m).Unit}, true
}

// AuthorizationStatus implements health.Platform.
func (s *Store) AuthorizationStatus(t health.PlatformType) health.AuthorizationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Status++
	return s.auth[t.Metric]
}

// RequestAuthorization implements health.Platform. Only undetermined types
// trigger the simulated prompt; decided types are left alone.
func (s *Store) RequestAuthorization(ctx context.Context, read, write []health.PlatformType) error {
	s.mu.Lock()
	s.calls.Request++
	s.mu.Unlock()

	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.requestErr != nil {
		return s.requestErr
	}
	prompted := false
	for _, t := range append(append([]health.PlatformType{}, read...), write...) {
		if s.auth[t.Metric] == health.Undetermined {
			s.auth[t.Metric] = s.opts.Decision
			prompted = true
		}
	}
	if prompted {
		s.calls.Prompts++
	}
	return nil
}

// ExecuteAggregateQuery implements health.Platform. Like a real store, a
// denied type reads as empty rather than failing.
func (s *Store) ExecuteAggregateQuery(ctx context.Context, t health.PlatformType, window health.TimeWindow, agg health.Aggregation) (*health.Quantity, error) {
	s.mu.Lock()
	s.calls.Query++
	s.mu.Unlock()

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if s.auth[t.Metric] == health.Denied {
		return nil, nil
	}
	return health.Sum(s.samples, t, window), nil
}

// SaveSample implements health.Platform.
func (s *Store) SaveSample(ctx context.Context, t health.PlatformType, q health.Quantity, window health.TimeWindow) error {
	s.mu.Lock()
	s.calls.Save++
	s.mu.Unlock()

	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	if s.auth[t.Metric] != health.Granted {
		return health.ErrNotAuthorized
	}
	if q.Unit == "" {
		q.Unit = t.Unit
	}
	s.samples = append(s.samples, health.Sample{
		ID:       uuid.NewString(),
		Type:     t,
		Quantity: q,
		Start:    window.Start,
		End:      window.End,
	})
	return nil
}

func (s *Store) wait(ctx context.Context) error {
	s.mu.Lock()
	latency := s.opts.Latency
	s.mu.Unlock()

	if latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddSample seeds a sample directly, bypassing authorization.
func (s *Store) AddSample(m health.MetricType, value float64, start, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, health.Sample{
		ID:       uuid.NewString(),
		Type:     health.PlatformType{Metric: m, Unit: health.Describe(m).Unit},
		Quantity: health.Quantity{Value: value, Unit: health.Describe(m).Unit},
		Start:    start,
		End:      end,
	})
}

// Samples returns a copy of the stored samples.
func (s *Store) Samples() []health.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]health.Sample(nil), s.samples...)
}

// SetAuthorization forces the verdict for m, as if the user changed it in settings.
func (s *Store) SetAuthorization(m health.MetricType, state health.AuthorizationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth[m] = state
}

// SetAvailable toggles IsDataAvailable.
func (s *Store) SetAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Available = available
}

// SetLatency changes the delay applied to blocking calls.
func (s *Store) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Latency = d
}

// FailRequests makes RequestAuthorization return err. nil clears it.
func (s *Store) FailRequests(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestErr = err
}

// FailQueries makes ExecuteAggregateQuery return err. nil clears it.
func (s *Store) FailQueries(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryErr = err
}

// FailSaves makes SaveSample return err. nil clears it.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Calls returns a snapshot of the call counters.
func (s *Store) Calls() Calls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
