package capability

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"stepctl/internal/dispatch"
	"stepctl/internal/health"
	"stepctl/pkg/logging"
)

const subsystem = "CapabilityGate"

// Recorder observes store requests issued by a Gate.
type Recorder interface {
	AuthorizationRequested(metric string)
}

// Option configures a Gate.
type Option func(*Gate)

// WithWriteAccess also asks for write access to the metric.
func WithWriteAccess() Option {
	return func(g *Gate) {
		g.write = true
	}
}

// WithRecorder reports store requests to r.
func WithRecorder(r Recorder) Option {
	return func(g *Gate) {
		g.recorder = r
	}
}

// Gate wraps the authorization side of a health.Platform for one metric.
type Gate struct {
	platform   health.Platform
	metric     health.MetricType
	dispatcher dispatch.Dispatcher
	write      bool
	recorder   Recorder

	group  singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// NewGate creates a gate for metric.
func NewGate(platform health.Platform, metric health.MetricType, dispatcher dispatch.Dispatcher, opts ...Option) *Gate {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Gate{
		platform:   platform,
		metric:     metric,
		dispatcher: dispatcher,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Metric returns the metric this gate guards.
func (g *Gate) Metric() health.MetricType {
	return g.metric
}

// WantsWrite reports whether requests include write access.
func (g *Gate) WantsWrite() bool {
	return g.write
}

// Status returns the store's current verdict. An unresolvable metric reads
// as Undetermined.
func (g *Gate) Status() health.AuthorizationState {
	pt, ok := g.platform.ResolveType(g.metric)
	if !ok {
		return health.Undetermined
	}
	return g.platform.AuthorizationStatus(pt)
}

// Request asks the store for access and calls done with nil or a
// *health.Failure once the request completes. done runs on the dispatcher.
// If ctx ends first, done receives an AuthorizationFailed wrapping ctx.Err();
// the shared store request keeps running for the other waiters.
func (g *Gate) Request(ctx context.Context, done func(err error)) {
	if g.closed.Load() {
		return
	}

	pt, ok := g.platform.ResolveType(g.metric)
	if !ok {
		logging.Warn(subsystem, "Cannot request authorization, %s is not a supported type", g.metric)
		g.deliver(done, health.TypeUnsupported(g.metric))
		return
	}

	read := []health.PlatformType{pt}
	var write []health.PlatformType
	if g.write {
		write = []health.PlatformType{pt}
	}

	ch := g.group.DoChan(string(g.metric), func() (interface{}, error) {
		return nil, g.requestFromStore(pt, read, write)
	})

	go func() {
		var err error
		select {
		case res := <-ch:
			err = res.Err
			if res.Shared {
				logging.Debug(subsystem, "Authorization request for %s was shared with another caller", g.metric)
			}
		case <-ctx.Done():
			err = ctx.Err()
		case <-g.ctx.Done():
			return
		}

		if err != nil {
			g.deliver(done, health.AuthorizationFailed(err))
			return
		}
		g.deliver(done, nil)
	}()
}

func (g *Gate) requestFromStore(pt health.PlatformType, read, write []health.PlatformType) error {
	logging.Info(subsystem, "Authorization status before request for %s: %s", g.metric, g.platform.AuthorizationStatus(pt))
	if g.recorder != nil {
		g.recorder.AuthorizationRequested(string(g.metric))
	}

	err := g.platform.RequestAuthorization(g.ctx, read, write)
	if err != nil {
		logging.Error(subsystem, err, "Authorization request for %s failed", g.metric)
		return err
	}

	logging.Info(subsystem, "Authorization status after request for %s: %s", g.metric, g.platform.AuthorizationStatus(pt))
	return nil
}

func (g *Gate) deliver(done func(error), err error) {
	if done == nil || g.closed.Load() {
		return
	}
	if !g.dispatcher.Dispatch(func() {
		if g.closed.Load() {
			return
		}
		done(err)
	}) {
		logging.Debug(subsystem, "Dispatcher closed, dropping authorization completion for %s", g.metric)
	}
}

// Close cancels outstanding store requests. Completions that arrive later
// are dropped.
func (g *Gate) Close() {
	if g.closed.Swap(true) {
		return
	}
	g.cancel()
}
