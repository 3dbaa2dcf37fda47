package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog workout session server. Inspect and drive the single active workout session: start a workout, add exercises, complete sets, end the workout, and browse the archived session history."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetActiveSession, Handler: h.getActiveSession},
		server.ServerTool{Tool: toolGetSessionHistory, Handler: h.getSessionHistory},
		server.ServerTool{Tool: toolStartWorkout, Handler: h.startWorkout},
		server.ServerTool{Tool: toolAddExercise, Handler: h.addExercise},
		server.ServerTool{Tool: toolCompleteSet, Handler: h.completeSet},
		server.ServerTool{Tool: toolEndWorkout, Handler: h.endWorkout},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resActiveSession, Handler: h.activeSession},
		server.ServerResource{Resource: resHistory, Handler: h.history},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resActiveSession = mcp.NewResource(
	"liftlog://active_session",
	"Active Session",
	mcp.WithResourceDescription("The in-progress workout session: exercises, sets, timer state, and provenance"),
	mcp.WithMIMEType("application/json"),
)

var resHistory = mcp.NewResource(
	"liftlog://history",
	"Session History",
	mcp.WithResourceDescription("Archived sessions (stale, discarded, or completed), most recent first"),
	mcp.WithMIMEType("application/json"),
)
