// Package healthtest provides a hand-driven health.Platform for tests.
//
// Every blocking call parks until the test completes it, so tests decide
// exactly when and in which order store callbacks arrive.
package healthtest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stepctl/internal/health"
)

// CallTimeout bounds how long Next* helpers wait for a call to show up.
var CallTimeout = 2 * time.Second

// AuthCall is a parked RequestAuthorization call.
type AuthCall struct {
	Read, Write []health.PlatformType
	Ctx         context.Context

	p     *Platform
	reply chan error
}

// Complete records state for every requested type and returns err to the caller.
func (c *AuthCall) Complete(state health.AuthorizationState, err error) {
	if err == nil {
		for _, t := range append(append([]health.PlatformType{}, c.Read...), c.Write...) {
			c.p.SetStatus(t.Metric, state)
		}
	}
	c.reply <- err
}

// QueryCall is a parked ExecuteAggregateQuery call.
type QueryCall struct {
	Type   health.PlatformType
	Window health.TimeWindow
	Ctx    context.Context

	reply chan queryReply
}

type queryReply struct {
	q   *health.Quantity
	err error
}

// Complete answers the query. A nil q means no samples.
func (c *QueryCall) Complete(q *health.Quantity, err error) {
	c.reply <- queryReply{q: q, err: err}
}

// Sum answers the query with value in the type's unit.
func (c *QueryCall) Sum(value float64) {
	c.Complete(&health.Quantity{Value: value, Unit: c.Type.Unit}, nil)
}

// SaveCall is a parked SaveSample call.
type SaveCall struct {
	Type     health.PlatformType
	Quantity health.Quantity
	Window   health.TimeWindow
	Ctx      context.Context

	reply chan error
}

// Complete answers the save.
func (c *SaveCall) Complete(err error) {
	c.reply <- err
}

// Platform is a health.Platform driven by the test.
type Platform struct {
	mu          sync.Mutex
	unavailable bool
	unsupported map[health.MetricType]bool
	status      map[health.MetricType]health.AuthorizationState

	requests chan *AuthCall
	queries  chan *QueryCall
	saves    chan *SaveCall

	requestCount atomic.Int32
	queryCount   atomic.Int32
	saveCount    atomic.Int32
	statusCount  atomic.Int32
}

var _ health.Platform = (*Platform)(nil)

// New returns an available platform that supports every metric.
func New() *Platform {
	return &Platform{
		unsupported: make(map[health.MetricType]bool),
		status:      make(map[health.MetricType]health.AuthorizationState),
		requests:    make(chan *AuthCall, 64),
		queries:     make(chan *QueryCall, 64),
		saves:       make(chan *SaveCall, 64),
	}
}

// SetAvailable toggles IsDataAvailable.
func (p *Platform) SetAvailable(available bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unavailable = !available
}

// SetUnsupported makes ResolveType fail for m.
func (p *Platform) SetUnsupported(m health.MetricType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unsupported[m] = true
}

// SetStatus sets the verdict for m.
func (p *Platform) SetStatus(m health.MetricType, state health.AuthorizationState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status[m] = state
}

// IsDataAvailable implements health.Platform.
func (p *Platform) IsDataAvailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.unavailable
}

// ResolveType implements health.Platform.
func (p *Platform) ResolveType(m health.MetricType) (health.PlatformType, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsupported[m] {
		return health.PlatformType{}, false
	}
	return health.PlatformType{Metric: m, Unit: health.Describe(m).Unit}, true
}

// AuthorizationStatus implements health.Platform.
func (p *Platform) AuthorizationStatus(t health.PlatformType) health.AuthorizationState {
	p.statusCount.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status[t.Metric]
}

// RequestAuthorization implements health.Platform.
func (p *Platform) RequestAuthorization(ctx context.Context, read, write []health.PlatformType) error {
	p.requestCount.Add(1)
	call := &AuthCall{Read: read, Write: write, Ctx: ctx, p: p, reply: make(chan error, 1)}
	p.requests <- call
	select {
	case err := <-call.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExecuteAggregateQuery implements health.Platform.
func (p *Platform) ExecuteAggregateQuery(ctx context.Context, t health.PlatformType, window health.TimeWindow, _ health.Aggregation) (*health.Quantity, error) {
	p.queryCount.Add(1)
	call := &QueryCall{Type: t, Window: window, Ctx: ctx, reply: make(chan queryReply, 1)}
	p.queries <- call
	select {
	case r := <-call.reply:
		return r.q, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SaveSample implements health.Platform.
func (p *Platform) SaveSample(ctx context.Context, t health.PlatformType, q health.Quantity, window health.TimeWindow) error {
	p.saveCount.Add(1)
	call := &SaveCall{Type: t, Quantity: q, Window: window, Ctx: ctx, reply: make(chan error, 1)}
	p.saves <- call
	select {
	case err := <-call.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRequest waits for the next RequestAuthorization call.
func (p *Platform) NextRequest(t testing.TB) *AuthCall {
	t.Helper()
	select {
	case c := <-p.requests:
		return c
	case <-time.After(CallTimeout):
		t.Fatal("timed out waiting for RequestAuthorization")
		return nil
	}
}

// NextQuery waits for the next ExecuteAggregateQuery call.
func (p *Platform) NextQuery(t testing.TB) *QueryCall {
	t.Helper()
	select {
	case c := <-p.queries:
		return c
	case <-time.After(CallTimeout):
		t.Fatal("timed out waiting for ExecuteAggregateQuery")
		return nil
	}
}

// NextSave waits for the next SaveSample call.
func (p *Platform) NextSave(t testing.TB) *SaveCall {
	t.Helper()
	select {
	case c := <-p.saves:
		return c
	case <-time.After(CallTimeout):
		t.Fatal("timed out waiting for SaveSample")
		return nil
	}
}

// NoPendingRequest fails if a RequestAuthorization call is parked.
func (p *Platform) NoPendingRequest(t testing.TB) {
	t.Helper()
	select {
	case <-p.requests:
		t.Fatal("unexpected RequestAuthorization call")
	default:
	}
}

// RequestCount returns how many RequestAuthorization calls were made.
func (p *Platform) RequestCount() int { return int(p.requestCount.Load()) }

// QueryCount returns how many ExecuteAggregateQuery calls were made.
func (p *Platform) QueryCount() int { return int(p.queryCount.Load()) }

// SaveCount returns how many SaveSample calls were made.
func (p *Platform) SaveCount() int { return int(p.saveCount.Load()) }

// StatusCount returns how many AuthorizationStatus calls were made.
func (p *Platform) StatusCount() int { return int(p.statusCount.Load()) }
