// Package mcp implements the Model Context Protocol server for permahub.
//
// The MCP server exposes the registry the same way the CLI does, through
// MCP resources and tools, so MCP-compatible AI agents can browse and
// register entries.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/permahub/permahub/internal/registry"
)

// Server wraps the MCP server around the entry repository.
type Server struct {
	mcpServer *mcpserver.MCPServer
	repo      *registry.Repository
	logger    *slog.Logger
}

// New creates and configures a new MCP server with all resources and tools.
func New(repo *registry.Repository, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{repo: repo, logger: logger}

	s.mcpServer = mcpserver.NewMCPServer(
		"permahub",
		version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
	)

	s.registerResources()
	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the server over stdio until stdin closes.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcpServer)
}

func (s *Server) registerResources() {
	// permahub://{kind}s — the full collection per entry kind.
	for _, kind := range registry.Kinds {
		s.mcpServer.AddResource(
			mcplib.NewResource(
				fmt.Sprintf("permahub://%ss", kind),
				fmt.Sprintf("Registered %ss", kind),
				mcplib.WithResourceDescription(fmt.Sprintf("All %ss in the registry", kind)),
				mcplib.WithMIMEType("application/json"),
			),
			s.collectionHandler(kind),
		)
	}
}

func (s *Server) collectionHandler(kind registry.Kind) mcpserver.ResourceHandlerFunc {
	return func(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		entries := s.repo.List(ctx, kind)
		raw, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(raw),
			},
		}, nil
	}
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

func jsonResult(v any) *mcplib.CallToolResult {
	raw, _ := json.Marshal(v)
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(raw)},
		},
	}
}
