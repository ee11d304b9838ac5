package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"stepctl/internal/metric"
	"stepctl/internal/reporting"
)

// Tool names.
const (
	ToolStatus  = "metric_status"
	ToolRefresh = "metric_refresh"
	ToolInject  = "metric_inject_sample"
)

// ReadingInfo is the JSON form of a settled result.
type ReadingInfo struct {
	Generation uint64    `json:"generation"`
	Metric     string    `json:"metric"`
	Outcome    string    `json:"outcome"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Summary    string    `json:"summary"`
	Advisory   string    `json:"advisory,omitempty"`
	Error      string    `json:"error,omitempty"`
	SettledAt  time.Time `json:"settledAt"`
}

// StatusInfo is the JSON form of an engine snapshot.
type StatusInfo struct {
	Metric     string       `json:"metric"`
	Phase      string       `json:"phase"`
	Generation uint64       `json:"generation"`
	InFlight   bool         `json:"inFlight"`
	Synthetic  bool         `json:"syntheticEnabled"`
	Last       *ReadingInfo `json:"last,omitempty"`
}

func readingInfo(r metric.QueryResult) *ReadingInfo {
	info := &ReadingInfo{
		Generation: r.Generation,
		Metric:     r.Metric.String(),
		Outcome:    r.Outcome(),
		Value:      r.Value,
		Unit:       r.Unit,
		Summary:    reporting.Summary(r),
		Advisory:   r.Advisory,
		SettledAt:  r.SettledAt,
	}
	if r.Failure != nil {
		info.Error = r.Failure.Detail
	}
	return info
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolStatus,
				mcp.WithDescription("Show the current phase and the last settled reading"),
			),
			Handler: s.handleStatus,
		},
		{
			Tool: mcp.NewTool(ToolRefresh,
				mcp.WithDescription("Start a refresh cycle and wait for it to settle"),
				mcp.WithString("timeout",
					mcp.Description("How long to wait for the result, e.g. 5s"),
				),
			),
			Handler: s.handleRefresh,
		},
		{
			Tool: mcp.NewTool(ToolInject,
				mcp.WithDescription("Write a random test sample for today and wait for the follow-up reading"),
				mcp.WithString("timeout",
					mcp.Description("How long to wait for the result, e.g. 5s"),
				),
			),
			Handler: s.handleInject,
		},
	}
}

// handleStatus handles the metric_status MCP tool
func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.engine.Snapshot()
	info := StatusInfo{
		Metric:     snap.Metric.String(),
		Phase:      snap.Phase.String(),
		Generation: snap.Generation,
		InFlight:   snap.InFlight(),
		Synthetic:  s.engine.SyntheticEnabled(),
	}
	if snap.Last != nil {
		info.Last = readingInfo(*snap.Last)
	}

	jsonData, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// handleRefresh handles the metric_refresh MCP tool
func (s *Server) handleRefresh(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timeout, err := s.timeoutArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gen := s.engine.Refresh()
	if gen == 0 {
		return mcp.NewToolResultError("Refresh failed: engine closed"), nil
	}
	return s.await(ctx, gen, timeout)
}

// handleInject handles the metric_inject_sample MCP tool
func (s *Server) handleInject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timeout, err := s.timeoutArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gen, err := s.engine.InjectSynthetic()
	if errors.Is(err, metric.ErrSyntheticDisabled) {
		return mcp.NewToolResultError("Synthetic samples are disabled; enable synthetic.enabled in the config"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Inject failed: %v", err)), nil
	}
	// A failed write settles gen itself; a successful one settles the
	// follow-up refresh, which is newer.
	return s.await(ctx, gen, timeout)
}

func (s *Server) await(ctx context.Context, gen uint64, timeout time.Duration) (*mcp.CallToolResult, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r, err := s.engine.WaitSettled(waitCtx, gen)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("No result for generation %d: %v", gen, err)), nil
	}

	jsonData, err := json.MarshalIndent(readingInfo(r), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format reading: %v", err)), nil
	}
	result := mcp.NewToolResultText(string(jsonData))
	result.IsError = r.Failure != nil
	return result, nil
}

func (s *Server) timeoutArg(request mcp.CallToolRequest) (time.Duration, error) {
	raw, ok := request.GetArguments()["timeout"].(string)
	if !ok || raw == "" {
		return s.config.WaitTimeout, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid timeout '%s', must be a positive duration such as 5s", raw)
	}
	return d, nil
}
