// Package mcp exposes the retrieval engine to AI agents over the Model
// Context Protocol. This is the surface the generation collaborator
// consumes when it runs as an agent tool.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/knowbase/kb/internal/retriever"
	"github.com/knowbase/kb/internal/store"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes knowledge base tools.
type Server struct {
	store     *store.Store
	retriever *retriever.Retriever
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(st *store.Store, rt *retriever.Retriever) *Server {
	s := &Server{
		store:     st,
		retriever: rt,
	}

	s.mcp = server.NewMCPServer(
		"kb",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchKnowledgeTool, s.handleSearchKnowledge)
	s.mcp.AddTool(getContextTool, s.handleGetContext)
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
