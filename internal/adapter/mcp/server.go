// Package mcp exposes Mission Control to agents over the Model Context
// Protocol. Agents read the board, post messages, report heartbeats and
// drain their notifications through tools instead of the REST API.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/domain/message"
	"github.com/Strob0t/MissionControl/internal/domain/notification"
	"github.com/Strob0t/MissionControl/internal/domain/task"
	"github.com/Strob0t/MissionControl/internal/service"
)

// ServerConfig configures the MCP transport.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	APIKey  func() string // nil or empty disables bearer auth; read per request
}

// TaskReader reads the board and single tasks.
type TaskReader interface {
	ListByStatus(ctx context.Context) (task.Board, error)
	Get(ctx context.Context, id string) (*task.WithAssignee, error)
}

// MessagePoster posts messages on task threads.
type MessagePoster interface {
	Create(ctx context.Context, req message.CreateRequest) (*service.Created, error)
}

// AgentReporter covers the agent self-reporting operations.
type AgentReporter interface {
	List(ctx context.Context) ([]agent.View, error)
	Heartbeat(ctx context.Context, id string, req agent.HeartbeatRequest) (*agent.Agent, error)
	SetStatus(ctx context.Context, id string, req agent.StatusRequest) (*agent.Agent, error)
}

// NotificationInbox covers an agent's mention inbox.
type NotificationInbox interface {
	ListForAgent(ctx context.Context, agentID string, undeliveredOnly bool, limit int) ([]notification.WithContext, error)
	MarkAllDelivered(ctx context.Context, agentID string) (int64, error)
}

// ServerDeps holds the services backing the tools. A nil dependency makes
// its tools answer with an error result.
type ServerDeps struct {
	Tasks         TaskReader
	Messages      MessagePoster
	Agents        AgentReporter
	Notifications NotificationInbox
}

// Server is the MCP server. It speaks streamable HTTP on its own address.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	http      *http.Server
}

// NewServer creates the MCP server and registers all tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the authenticated streamable HTTP handler mounted at /mcp.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(s.mcpServer))
	return AuthMiddleware(s.cfg.APIKey, mux)
}

// Start listens on cfg.Addr and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("mcp listen %s: %w", s.cfg.Addr, err)
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server error", "error", err)
		}
	}()
	slog.Info("mcp server started", "addr", ln.Addr().String())
	return nil
}

// Stop gracefully shuts the transport down.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
