// Package mcp exposes the tool catalog and the command pipeline to external
// agents over the Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/homeagent/pkg/pipeline"
	"github.com/urmzd/homeagent/pkg/tools"
)

// Server wraps the MCP server around one pipeline and its tool set
type Server struct {
	mcpServer *server.MCPServer
	pipeline  *pipeline.Pipeline
	tools     *tools.Set
}

// NewServer creates an MCP server. Every catalog tool is registered under
// its own name, next to process_command and a few read-only helpers.
func NewServer(p *pipeline.Pipeline, version string) *Server {
	s := &Server{
		pipeline: p,
		tools:    p.Tools(),
	}

	s.mcpServer = server.NewMCPServer(
		"homeagent",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying server, for alternative transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
