// Package mcp exposes plan reading, chat and plan extraction as Model
// Context Protocol tools over the streamable HTTP transport.
package mcp

import (
	"context"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/PlanForge/internal/domain/conversation"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// ProjectReader reads projects and their plans.
type ProjectReader interface {
	ListProjects(ctx context.Context) ([]plan.Project, error)
	GetProject(ctx context.Context, id int64) (*plan.Project, error)
}

// Assistant runs chat turns and plan extraction.
type Assistant interface {
	Chat(ctx context.Context, projectID int64, req conversation.ChatRequest) (*conversation.ChatResponse, error)
	ExtractPlan(ctx context.Context, projectID int64) (*plan.Project, error)
}

// ServerConfig holds the identity the server reports to clients.
type ServerConfig struct {
	Name    string
	Version string
}

// ServerDeps are the services behind the tools. A nil dependency makes
// its tools return an error result.
type ServerDeps struct {
	Projects  ProjectReader
	Assistant Assistant
}

// Server wraps the mcp-go server and its HTTP transport.
type Server struct {
	mcpServer *mcpserver.MCPServer
	transport *mcpserver.StreamableHTTPServer
	deps      ServerDeps
}

// NewServer creates an MCP server with all tools and resources registered.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{deps: deps}
	s.mcpServer = mcpserver.NewMCPServer(cfg.Name, cfg.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions("PlanForge turns planning conversations into epics, user stories and tasks. "+
			"Use send_chat_message to discuss a project, then extract_plan to rebuild its plan from all conversations."),
	)
	s.registerTools()
	s.registerResources()
	s.transport = mcpserver.NewStreamableHTTPServer(s.mcpServer)
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the streamable HTTP handler to mount on the router.
func (s *Server) Handler() http.Handler {
	return s.transport
}
