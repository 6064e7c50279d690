// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Forgelink identifier tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/forgelink/internal/identsvc"
)

// Server wraps the MCP server with Forgelink tools.
type Server struct {
	mcp *server.MCPServer
	svc *identsvc.Service
}

// New creates a new MCP server with all Forgelink tools registered.
func New(svc *identsvc.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Forgelink",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("get_design_ids",
		mcp.WithDescription("Return the cloud data identifiers for the active design file "+
			"and all of its components, resolving and caching them if necessary."),
	), s.getDesignIDs)

	s.mcp.AddTool(mcp.NewTool("get_component_ids",
		mcp.WithDescription("Return the cloud data identifiers for one component of the active design."),
		mcp.WithString("component_id", mcp.Required(), mcp.Description("The in-file component id (unique within its parent design file)")),
	), s.getComponentIDs)

	s.mcp.AddTool(mcp.NewTool("list_cached_files",
		mcp.WithDescription("List design file versions whose identifiers are already cached."),
	), s.listCachedFiles)

	s.mcp.AddTool(mcp.NewTool("search_components",
		mcp.WithDescription("Search cached components by name across all cached design files."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Substring of the component name")),
	), s.searchComponents)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getDesignIDs(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.svc.DesignIDs(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(info, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getComponentIDs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("component_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.ComponentIDs(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("component %s: %v", id, err)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listCachedFiles(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.ListFiles(ctx, 50, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{"files": items, "total": total}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.SearchComponents(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
