// Package mcp exposes the sync pipeline to assistants over the Model
// Context Protocol.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vitalvault/vitalvault/internal/syncer"
)

// New creates an MCP server with all tools and resources registered.
func New(sy *syncer.Syncer, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("VitalVault", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("VitalVault health-data sync client. Inspect sync state, trigger or retry syncs, and read daily summaries and completeness scores from the last built payload."),
	)

	h := &handlers{sy: sy, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolSyncStatus, Handler: h.syncStatus},
		server.ServerTool{Tool: toolPerformSync, Handler: h.performSync},
		server.ServerTool{Tool: toolRetrySync, Handler: h.retrySync},
		server.ServerTool{Tool: toolGetDailySummary, Handler: h.getDailySummary},
		server.ServerTool{Tool: toolGetCompleteness, Handler: h.getCompleteness},
	)

	s.AddResources(
		server.ServerResource{Resource: resManifest, Handler: h.manifestResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	sy  *syncer.Syncer
	log *slog.Logger
}

var resManifest = mcp.NewResource(
	"vitalvault://manifest",
	"Last Manifest",
	mcp.WithResourceDescription("Transfer manifest of the most recently built payload: date range, metrics present, completeness tier, and source distribution"),
	mcp.WithMIMEType("application/json"),
)
