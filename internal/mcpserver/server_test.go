package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepctl/internal/capability"
	"stepctl/internal/dispatch"
	"stepctl/internal/health"
	"stepctl/internal/health/simulated"
	"stepctl/internal/metric"
)

var fixedNow = time.Date(2025, time.March, 14, 15, 0, 0, 0, time.Local)

type fixture struct {
	store  *simulated.Store
	engine *metric.Engine
	server *Server
}

func newFixture(t *testing.T, opts ...metric.Option) *fixture {
	t.Helper()
	store := simulated.New(simulated.DefaultOptions())
	loop := dispatch.NewLoop()
	gate := capability.NewGate(store, health.StepCount, loop, capability.WithWriteAccess())
	opts = append([]metric.Option{metric.WithClock(func() time.Time { return fixedNow })}, opts...)
	engine := metric.NewEngine(store, gate, loop, opts...)
	t.Cleanup(func() {
		engine.Close()
		gate.Close()
		loop.Close()
	})
	return &fixture{
		store:  store,
		engine: engine,
		server: New(Config{Port: 0, WaitTimeout: 2 * time.Second}, engine),
	}
}

func call(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	if args != nil {
		req.Params.Arguments = args
	}
	return req
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return tc.Text
}

func TestNew_RegistersTools(t *testing.T) {
	f := newFixture(t)

	names := make(map[string]bool)
	for _, tool := range f.server.tools() {
		names[tool.Tool.Name] = true
	}
	for _, expected := range []string{ToolStatus, ToolRefresh, ToolInject} {
		assert.True(t, names[expected], "Expected tool %s not found", expected)
	}
	assert.Equal(t, "localhost:8090", f.server.Addr())
	assert.NotNil(t, f.server.MCP())
}

func TestHandleStatus_Idle(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.handleStatus(context.Background(), call(ToolStatus, nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var info StatusInfo
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &info))
	assert.Equal(t, "stepCount", info.Metric)
	assert.Equal(t, metric.Idle.String(), info.Phase)
	assert.False(t, info.InFlight)
	assert.Nil(t, info.Last)
}

func TestHandleRefresh_Reading(t *testing.T) {
	f := newFixture(t)
	start := health.StartOfDay(fixedNow).Add(9 * time.Hour)
	f.store.AddSample(health.StepCount, 4321, start, start.Add(time.Hour))

	result, err := f.server.handleRefresh(context.Background(), call(ToolRefresh, nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var info ReadingInfo
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &info))
	assert.Equal(t, uint64(1), info.Generation)
	assert.Equal(t, "success", info.Outcome)
	assert.Equal(t, 4321.0, info.Value)
	assert.Equal(t, "4,321 steps", info.Summary)

	status, err := f.server.handleStatus(context.Background(), call(ToolStatus, nil))
	require.NoError(t, err)
	var snap StatusInfo
	require.NoError(t, json.Unmarshal([]byte(text(t, status)), &snap))
	assert.Equal(t, metric.Settled.String(), snap.Phase)
	require.NotNil(t, snap.Last)
	assert.Equal(t, 4321.0, snap.Last.Value)
}

func TestHandleRefresh_FailureIsToolError(t *testing.T) {
	f := newFixture(t)
	f.store.SetAvailable(false)

	result, err := f.server.handleRefresh(context.Background(), call(ToolRefresh, nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	var info ReadingInfo
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &info))
	assert.Equal(t, health.KindPlatformUnavailable.String(), info.Outcome)
	assert.Equal(t, "Health data is not available on this device.", info.Error)
}

func TestHandleRefresh_InvalidTimeout(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.handleRefresh(context.Background(), call(ToolRefresh, map[string]interface{}{"timeout": "soon"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "invalid timeout")
	assert.Equal(t, uint64(0), f.engine.Snapshot().Generation, "no cycle is started")
}

func TestHandleRefresh_Timeout(t *testing.T) {
	f := newFixture(t)
	f.store.SetLatency(time.Second)

	result, err := f.server.handleRefresh(context.Background(), call(ToolRefresh, map[string]interface{}{"timeout": "20ms"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "No result for generation 1")
}

func TestHandleInject_Disabled(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.handleInject(context.Background(), call(ToolInject, nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "disabled")
	assert.Empty(t, f.store.Samples())
}

func TestHandleInject_WritesAndReads(t *testing.T) {
	cfg := metric.DefaultSyntheticConfig()
	cfg.Enabled = true
	cfg.SettleDelay = 10 * time.Millisecond
	f := newFixture(t, metric.WithSynthetic(cfg))

	result, err := f.server.handleInject(context.Background(), call(ToolInject, nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	samples := f.store.Samples()
	require.Len(t, samples, 1)

	var info ReadingInfo
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &info))
	assert.Equal(t, uint64(2), info.Generation, "the follow-up refresh answers")
	assert.Equal(t, samples[0].Quantity.Value, info.Value)
}

func TestStartStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Error(t, f.server.Stop(ctx), "stop before start")

	f.server.config.Port = 18090
	require.NoError(t, f.server.Start(ctx))
	assert.Error(t, f.server.Start(ctx), "second start")
	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, f.server.Stop(ctx))
}
