// ABOUTME: MCP server initialization and configuration
// ABOUTME: Sets up server with ordering tools and resources for AI agents

package mcp

import (
	"context"
	"fmt"

	"github.com/harper/sortable/internal/sortable"
	"github.com/harper/sortable/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps MCP server with the engine and repository of one table.
type Server struct {
	mcp    *mcp.Server
	engine *sortable.Engine
	repo   storage.Repository
}

// NewServer creates MCP server with all capabilities.
func NewServer(repo storage.Repository, engine *sortable.Engine) (*Server, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "sortable",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:    mcpServer,
		engine: engine,
		repo:   repo,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
