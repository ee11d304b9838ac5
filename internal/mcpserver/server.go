package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"stepctl/internal/metric"
	"stepctl/pkg/logging"
)

const subsystem = "MCPServer"

// Engine is the part of metric.Engine the tools drive.
type Engine interface {
	Snapshot() metric.Snapshot
	Refresh() uint64
	InjectSynthetic() (uint64, error)
	SyntheticEnabled() bool
	WaitSettled(ctx context.Context, gen uint64) (metric.QueryResult, error)
}

// Config holds the listen address and advertised version.
type Config struct {
	Host    string
	Port    int
	Version string
	// WaitTimeout bounds how long refresh and inject wait for a result
	// when the caller does not pass one.
	WaitTimeout time.Duration
}

// Server exposes an engine as MCP tools over SSE.
type Server struct {
	config Config
	engine Engine

	mcp *server.MCPServer

	mu  sync.Mutex
	sse *server.SSEServer
}

// New creates a server with every tool registered. Nothing listens until
// Start is called.
func New(config Config, engine Engine) *Server {
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == 0 {
		config.Port = 8090
	}
	if config.Version == "" {
		config.Version = "dev"
	}
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = 10 * time.Second
	}

	s := &Server{
		config: config,
		engine: engine,
		mcp: server.NewMCPServer(
			"stepctl",
			config.Version,
			server.WithToolCapabilities(true),
		),
	}
	s.mcp.AddTools(s.tools()...)
	return s
}

// Addr returns the host:port the SSE transport binds to.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Start serves the SSE transport in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.sse != nil {
		s.mu.Unlock()
		return fmt.Errorf("mcp server already started")
	}
	baseURL := fmt.Sprintf("http://%s", s.Addr())
	sse := server.NewSSEServer(
		s.mcp,
		server.WithBaseURL(baseURL),
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/message"),
		server.WithKeepAlive(true),
		server.WithKeepAliveInterval(30*time.Second),
	)
	s.sse = sse
	s.mu.Unlock()

	addr := s.Addr()
	logging.Info(subsystem, "Starting MCP server on %s", addr)
	go func() {
		if err := sse.Start(addr); err != nil && err != http.ErrServerClosed {
			logging.Error(subsystem, err, "SSE server error")
		}
	}()
	return nil
}

// Stop shuts the SSE transport down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	sse := s.sse
	s.sse = nil
	s.mu.Unlock()
	if sse == nil {
		return fmt.Errorf("mcp server not started")
	}

	logging.Info(subsystem, "Stopping MCP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sse.Shutdown(shutdownCtx); err != nil {
		logging.Error(subsystem, err, "Error shutting down SSE server")
		return err
	}
	return nil
}
