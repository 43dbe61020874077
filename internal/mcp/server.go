package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Gainz", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Gainz workout log. Read training sessions with their exercises and sets in the order they were performed, and the history of CSV imports. Weights are in the server's configured unit."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolGetActiveSession, Handler: h.getActiveSession},
		server.ServerTool{Tool: toolGetImportLogs, Handler: h.getImportLogs},
	)

	s.AddResources(
		server.ServerResource{Resource: resActiveSession, Handler: h.activeSession},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

var resActiveSession = mcp.NewResource(
	"gainz://active_session",
	"Active Session",
	mcp.WithResourceDescription("The session in progress with its exercises and sets, or null when none is active"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"gainz://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Per-session summaries (exercise count, set count, volume) for the last 14 days"),
	mcp.WithMIMEType("application/json"),
)
