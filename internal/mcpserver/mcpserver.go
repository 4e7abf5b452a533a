// Package mcpserver exposes comment density analysis to MCP clients.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/cdensity/pkg/config"
)

// Server wraps the MCP server and registers the cdensity tools.
type Server struct {
	server *mcp.Server
	config *config.Config
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration every tool call starts from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithLogger sets the logger. Stdout carries the protocol, so it must write
// elsewhere.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP server with all tools and prompts registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}

	s.server = mcp.NewServer(
		&mcp.Implementation{
			Name:    "cdensity",
			Version: version,
		},
		nil,
	)
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds the analysis tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_comments",
		Description: describeAnalyzeComments(),
	}, s.handleAnalyzeComments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_categories",
		Description: describeListCategories(),
	}, handleListCategories)
}
