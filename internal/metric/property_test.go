//go:build property
// +build property

package metric

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stepctl/internal/capability"
	"stepctl/internal/dispatch"
	"stepctl/internal/health"
	"stepctl/internal/health/healthtest"
)

// burst issues n back-to-back refreshes against a granted store, answers
// the queries in the given order and returns every settled result.
func burst(t *testing.T, n int, order []int) ([]QueryResult, uint64) {
	platform := healthtest.New()
	platform.SetStatus(health.StepCount, health.Granted)
	loop := dispatch.NewLoop()
	defer loop.Close()
	gate := capability.NewGate(platform, health.StepCount, loop)
	defer gate.Close()
	engine := NewEngine(platform, gate, loop)
	defer engine.Close()

	var settled []QueryResult
	engine.OnSettled(func(r QueryResult) { settled = append(settled, r) })

	var last uint64
	calls := make([]*healthtest.QueryCall, 0, n)
	for i := 0; i < n; i++ {
		last = engine.Refresh()
		calls = append(calls, platform.NextQuery(t))
	}

	// Answer each query with its own index so the winner is identifiable.
	answered := make(map[int]bool, n)
	for _, o := range order {
		i := o % n
		if answered[i] {
			continue
		}
		answered[i] = true
		calls[i].Sum(float64(i))
	}
	for i := 0; i < n; i++ {
		if !answered[i] {
			calls[i].Sum(float64(i))
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		loop.Sync()
		if engine.Phase() == Settled || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	// Give late stale completions a chance to land.
	time.Sleep(5 * time.Millisecond)
	loop.Sync()
	return settled, last
}

func TestRefreshBurstSettlesOnceWithLatestGeneration(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("back-to-back refreshes settle exactly once, for the last generation", prop.ForAll(
		func(n int, order []int) bool {
			settled, last := burst(t, n, order)
			if len(settled) != 1 {
				return false
			}
			r := settled[0]
			return r.Generation == last && r.Value == float64(n-1)
		},
		gen.IntRange(1, 6),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}

func TestStatusIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	states := []health.AuthorizationState{health.Undetermined, health.Denied, health.Granted}

	properties.Property("status never changes the verdict", prop.ForAll(
		func(s int, calls int) bool {
			platform := healthtest.New()
			want := states[s]
			platform.SetStatus(health.StepCount, want)
			gate := capability.NewGate(platform, health.StepCount, dispatch.Func(func(fn func()) bool {
				fn()
				return true
			}))
			defer gate.Close()

			for i := 0; i < calls; i++ {
				if gate.Status() != want {
					return false
				}
			}
			return platform.RequestCount() == 0
		},
		gen.IntRange(0, 2),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}
