package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
)

// --- Tool definitions ---

var toolGetActiveSession = mcp.NewTool("get_active_session",
	mcp.WithDescription("Retrieve the in-progress workout session, including its exercises, sets, timer state, and current exercise index. Returns a message when no session is active."),
)

var toolGetSessionHistory = mcp.NewTool("get_session_history",
	mcp.WithDescription("List archived workout sessions (completed, discarded, or expired as stale), most recent first. The archive keeps at most 10 entries."),
)

var toolStartWorkout = mcp.NewTool("start_workout",
	mcp.WithDescription("Start a new workout session. Any session already in progress is archived as discarded first."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Workout name (e.g. 'Leg Day')")),
	mcp.WithString("source_type", mcp.Description("Where the workout came from. Defaults to 'custom'."), mcp.Enum("template", "program", "custom")),
)

var toolAddExercise = mcp.NewTool("add_exercise",
	mcp.WithDescription("Append an exercise to the active session. A default first set is seeded according to the effort type."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name (e.g. 'Back Squat')")),
	mcp.WithString("effort_type", mcp.Description("Measurement axis. Defaults to 'reps'."), mcp.Enum("reps", "time", "distance")),
	mcp.WithString("equipment", mcp.Description("Equipment used (e.g. 'barbell')")),
)

var toolCompleteSet = mcp.NewTool("complete_set",
	mcp.WithDescription("Mark a set as completed. Inside a superset this advances to the next member with zero rest; otherwise a rest timer starts."),
	mcp.WithNumber("exercise_index", mcp.Required(), mcp.Description("Zero-based index of the exercise")),
	mcp.WithNumber("set_index", mcp.Required(), mcp.Description("Zero-based index of the set")),
)

var toolEndWorkout = mcp.NewTool("end_workout",
	mcp.WithDescription("Abandon the active session without creating a workout log. The session is archived as discarded."),
)

// --- Tool handlers ---

func (h *handlers) getActiveSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := h.ds.ActiveSession(ctx)
	if err != nil {
		h.log.Error("mcp get_active_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if current == nil {
		return mcp.NewToolResultText("no active workout session"), nil
	}

	result, err := mcp.NewToolResultJSON(current)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionHistory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := h.ds.History(ctx)
	if err != nil {
		h.log.Error("mcp get_session_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(entries)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) startWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	opts := session.StartOptions{
		Name:       name,
		SourceType: models.SourceType(req.GetString("source_type", "custom")),
	}
	started, err := h.ds.StartWorkout(ctx, opts)
	if err != nil {
		h.log.Error("mcp start_workout", "error", err)
		return mcp.NewToolResultError("start failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(started)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) addExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	ex := models.Exercise{
		Name:       name,
		EffortType: models.EffortType(req.GetString("effort_type", "reps")),
		Equipment:  req.GetString("equipment", ""),
	}
	updated, err := h.ds.AddExercise(ctx, ex)
	if err != nil {
		h.log.Error("mcp add_exercise", "error", err)
		return mcp.NewToolResultError("add failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(updated)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) completeSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index := req.GetInt("exercise_index", -1)
	setIndex := req.GetInt("set_index", -1)
	if index < 0 || setIndex < 0 {
		return mcp.NewToolResultError("exercise_index and set_index parameters are required"), nil
	}

	updated, err := h.ds.CompleteSet(ctx, index, setIndex)
	if err != nil {
		h.log.Error("mcp complete_set", "error", err)
		return mcp.NewToolResultError("complete failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(updated)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) endWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.ds.EndWorkout(ctx); err != nil {
		h.log.Error("mcp end_workout", "error", err)
		return mcp.NewToolResultError("end failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText("workout ended and archived"), nil
}
