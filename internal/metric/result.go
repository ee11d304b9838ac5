package metric

import (
	"time"

	"stepctl/internal/health"
)

// QueryResult is the settled outcome of one cycle: either a reading or a
// Failure, never both.
type QueryResult struct {
	Generation uint64
	Metric     health.MetricType
	Value      float64
	Unit       string
	// Advisory is set when no samples matched the window.
	Advisory  string
	Failure   *health.Failure
	SettledAt time.Time
}

// OK reports whether the cycle produced a reading.
func (r QueryResult) OK() bool {
	return r.Failure == nil
}

// Empty reports whether the reading came from an empty window.
func (r QueryResult) Empty() bool {
	return r.Failure == nil && r.Advisory != ""
}

// Outcome labels the result for metrics and logs.
func (r QueryResult) Outcome() string {
	switch {
	case r.Failure != nil:
		return r.Failure.Kind.String()
	case r.Advisory != "":
		return "empty"
	default:
		return "success"
	}
}

// Snapshot is a consistent view of the engine state.
type Snapshot struct {
	Metric     health.MetricType
	Phase      Phase
	Generation uint64
	Last       *QueryResult
}

// InFlight reports whether a cycle is running.
func (s Snapshot) InFlight() bool {
	return s.Phase.InFlight()
}

func successResult(m health.MetricType, q *health.Quantity) QueryResult {
	d := health.Describe(m)
	if q == nil {
		return QueryResult{Metric: m, Value: 0, Unit: d.Unit, Advisory: d.EmptyAdvisory}
	}
	unit := q.Unit
	if unit == "" {
		unit = d.Unit
	}
	return QueryResult{Metric: m, Value: q.Value, Unit: unit}
}

func failureResult(m health.MetricType, f *health.Failure) QueryResult {
	return QueryResult{Metric: m, Unit: health.Describe(m).Unit, Failure: f}
}
