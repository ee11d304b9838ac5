package metric

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stepctl/internal/health"
	"stepctl/pkg/logging"
)

// ErrSyntheticDisabled is returned by InjectSynthetic unless synthetic data
// was enabled.
var ErrSyntheticDisabled = errors.New("synthetic data is disabled")

// SyntheticConfig controls the test-data path.
type SyntheticConfig struct {
	Enabled bool
	// Min and Max bound the sample magnitude, inclusive.
	Min int
	Max int
	// SettleDelay is how long to wait after a write before refreshing. The
	// store does not make writes visible to reads immediately.
	SettleDelay time.Duration
}

// DefaultSyntheticConfig returns the disabled default.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Enabled:     false,
		Min:         1000,
		Max:         10000,
		SettleDelay: 500 * time.Millisecond,
	}
}

// Validate checks the range.
func (c SyntheticConfig) Validate() error {
	if c.Min < 0 || c.Max < c.Min {
		return fmt.Errorf("invalid synthetic range [%d, %d]", c.Min, c.Max)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay must not be negative, got %s", c.SettleDelay)
	}
	return nil
}

// SyntheticEnabled reports whether InjectSynthetic is available.
func (e *Engine) SyntheticEnabled() bool {
	return e.synthetic.Enabled
}

// InjectSynthetic writes one random sample for today and, once the write is
// visible, refreshes. It starts a new generation like Refresh does. The
// generation returned only settles on failure; on success the follow-up
// refresh, with a later generation, settles instead.
func (e *Engine) InjectSynthetic() (uint64, error) {
	if !e.synthetic.Enabled {
		return 0, ErrSyntheticDisabled
	}
	gen, ctx, ok := e.begin()
	if !ok {
		return 0, ErrClosed
	}
	logging.Debug(subsystem, "Synthetic write %d started for %s", gen, e.metric)

	pt, ok := e.guard(gen)
	if !ok {
		return gen, nil
	}

	if e.gate.Status() == health.Granted {
		e.write(ctx, gen, pt)
		return gen, nil
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
		if e.gate.Status() != health.Granted {
			e.settle(gen, failureResult(e.metric, health.AuthorizationFailed(health.ErrWriteNotGranted)))
			return
		}
		e.write(ctx, gen, pt)
	})
	return gen, nil
}

func (e *Engine) write(ctx context.Context, gen uint64, pt health.PlatformType) {
	if !e.advance(gen, Querying) {
		e.recorder.StaleCompletion("authorization")
		return
	}
	value := float64(e.randomMagnitude())
	window := health.Today(e.now())

	go func() {
		err := e.platform.SaveSample(ctx, pt, health.Quantity{Value: value, Unit: pt.Unit}, window)
		e.recorder.SyntheticWritten(err)

		ok := e.dispatcher.Dispatch(func() {
			if !e.current(gen) {
				e.recorder.StaleCompletion("write")
				return
			}
			if err != nil {
				e.settle(gen, failureResult(e.metric, health.WriteFailed(err)))
				return
			}
			logging.Info(subsystem, "Saved synthetic %s sample of %v %s", e.metric, value, pt.Unit)
			e.scheduleRefresh(gen)
		})
		if !ok {
			logging.Debug(subsystem, "Dispatcher closed, dropping write completion for generation %d", gen)
		}
	}()
}

// scheduleRefresh refreshes after the settle delay unless gen was superseded
// in the meantime.
func (e *Engine) scheduleRefresh(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.generation {
		return
	}
	e.pending = time.AfterFunc(e.synthetic.SettleDelay, func() {
		e.dispatcher.Dispatch(func() {
			if !e.current(gen) {
				return
			}
			e.Refresh()
		})
	})
}

func (e *Engine) randomMagnitude() int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	lo, hi := e.synthetic.Min, e.synthetic.Max
	if hi <= lo {
		return lo
	}
	return lo + e.rng.Intn(hi-lo+1)
}
