package reporting

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"stepctl/internal/metric"
)

// ReadingUpdate is a settled reading, or a failure, on its way to a surface.
type ReadingUpdate struct {
	// Timestamp of when the update was reported.
	Timestamp time.Time
	// CorrelationID ties log lines about the same update together.
	CorrelationID string
	// Result is the settled outcome.
	Result metric.QueryResult
}

// String provides a simple string representation for debugging the update itself.
func (u ReadingUpdate) String() string {
	return fmt.Sprintf("Update(TS: %s, Gen: %d, Metric: %s, Outcome: %s, Value: %v)",
		u.Timestamp.Format(time.RFC3339), u.Result.Generation, u.Result.Metric, u.Result.Outcome(), u.Result.Value)
}

// Reporter receives settled readings.
type Reporter interface {
	Report(update ReadingUpdate)
}

// ReadingMsg carries an update into the bubbletea program.
type ReadingMsg struct {
	Update ReadingUpdate
}

// NewUpdate wraps a result with a timestamp and correlation ID.
func NewUpdate(r metric.QueryResult) ReadingUpdate {
	return ReadingUpdate{
		Timestamp:     time.Now(),
		CorrelationID: GenerateCorrelationID(),
		Result:        r,
	}
}

// GenerateCorrelationID returns a fresh correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// Observer adapts a Reporter to metric.Engine.OnSettled.
func Observer(r Reporter) func(metric.QueryResult) {
	return func(result metric.QueryResult) {
		r.Report(NewUpdate(result))
	}
}
