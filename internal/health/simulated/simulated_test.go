package simulated

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepctl/internal/health"
)

func stepType(t *testing.T, s *Store) health.PlatformType {
	t.Helper()
	pt, ok := s.ResolveType(health.StepCount)
	require.True(t, ok)
	return pt
}

func TestStore_ResolveType(t *testing.T) {
	s := New(Options{Available: true, Supported: []health.MetricType{health.StepCount}})

	pt, ok := s.ResolveType(health.StepCount)
	assert.True(t, ok)
	assert.Equal(t, "count", pt.Unit)

	_, ok = s.ResolveType(health.FlightsClimbed)
	assert.False(t, ok)
}

func TestStore_RequestAuthorizationSticks(t *testing.T) {
	s := New(Options{Available: true, Decision: health.Denied})
	pt := stepType(t, s)
	ctx := context.Background()

	assert.Equal(t, health.Undetermined, s.AuthorizationStatus(pt))
	require.NoError(t, s.RequestAuthorization(ctx, []health.PlatformType{pt}, nil))
	assert.Equal(t, health.Denied, s.AuthorizationStatus(pt))

	// A second request must not re-prompt once the user decided.
	require.NoError(t, s.RequestAuthorization(ctx, []health.PlatformType{pt}, nil))
	calls := s.Calls()
	assert.Equal(t, 2, calls.Request)
	assert.Equal(t, 1, calls.Prompts)
}

func TestStore_QueryAggregatesToday(t *testing.T) {
	s := New(DefaultOptions())
	pt := stepType(t, s)
	now := time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)
	window := health.Today(now)

	q, err := s.ExecuteAggregateQuery(context.Background(), pt, window, health.AggregateSum)
	require.NoError(t, err)
	assert.Nil(t, q, "no samples yet")

	s.AddSample(health.StepCount, 4000, window.Start.Add(time.Hour), window.Start.Add(2*time.Hour))
	s.AddSample(health.StepCount, 321, window.Start.Add(3*time.Hour), window.Start.Add(4*time.Hour))
	s.AddSample(health.StepCount, 9999, window.Start.Add(-3*time.Hour), window.Start.Add(-2*time.Hour))

	q, err = s.ExecuteAggregateQuery(context.Background(), pt, window, health.AggregateSum)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, 4321.0, q.Value)
}

func TestStore_DeniedReadsAsEmpty(t *testing.T) {
	s := New(DefaultOptions())
	pt := stepType(t, s)
	now := time.Now()
	s.AddSample(health.StepCount, 10, health.StartOfDay(now), now)
	s.SetAuthorization(health.StepCount, health.Denied)

	q, err := s.ExecuteAggregateQuery(context.Background(), pt, health.Today(now.Add(time.Second)), health.AggregateSum)
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestStore_SaveSampleRequiresGrant(t *testing.T) {
	s := New(DefaultOptions())
	pt := stepType(t, s)
	now := time.Now()
	window := health.Today(now)

	err := s.SaveSample(context.Background(), pt, health.Quantity{Value: 1200}, window)
	assert.ErrorIs(t, err, health.ErrNotAuthorized)

	s.SetAuthorization(health.StepCount, health.Granted)
	require.NoError(t, s.SaveSample(context.Background(), pt, health.Quantity{Value: 1200}, window))

	samples := s.Samples()
	require.Len(t, samples, 1)
	assert.NotEmpty(t, samples[0].ID)
	assert.Equal(t, "count", samples[0].Quantity.Unit)
}

func TestStore_FailureInjection(t *testing.T) {
	s := New(DefaultOptions())
	pt := stepType(t, s)
	boom := errors.New("boom")
	ctx := context.Background()

	s.FailRequests(boom)
	assert.ErrorIs(t, s.RequestAuthorization(ctx, []health.PlatformType{pt}, nil), boom)

	s.FailQueries(boom)
	_, err := s.ExecuteAggregateQuery(ctx, pt, health.Today(time.Now()), health.AggregateSum)
	assert.ErrorIs(t, err, boom)

	s.SetAuthorization(health.StepCount, health.Granted)
	s.FailSaves(boom)
	assert.ErrorIs(t, s.SaveSample(ctx, pt, health.Quantity{Value: 1}, health.Today(time.Now())), boom)
}

func TestStore_LatencyHonoursContext(t *testing.T) {
	s := New(DefaultOptions())
	s.SetLatency(time.Hour)
	pt := stepType(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.ExecuteAggregateQuery(ctx, pt, health.Today(time.Now()), health.AggregateSum)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
