package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/journeys/internal/models"
)

// ProgressInput identifies one resource of a journey.
type ProgressInput struct {
	JourneyID  string `json:"journey_id" jsonschema:"Journey id"`
	ResourceID string `json:"resource_id" jsonschema:"Resource id within the journey"`
}

// AddTimeInput defines the input schema for the progress_add_time tool.
type AddTimeInput struct {
	JourneyID  string `json:"journey_id" jsonschema:"Journey id"`
	ResourceID string `json:"resource_id" jsonschema:"Resource id within the journey"`
	Minutes    int    `json:"minutes" jsonschema:"Minutes to add, 0 or more"`
}

// JourneyInput identifies a journey.
type JourneyInput struct {
	JourneyID string `json:"journey_id" jsonschema:"Journey id"`
}

type progressFunc func(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error)

func writeProgress(ctx context.Context, deps *Dependencies, op string, key models.ProgressKey, write progressFunc) *mcp.CallToolResult {
	if key.JourneyID == "" || key.ResourceID == "" {
		return ErrorResult("journey_id and resource_id are required", "Use get_journey to list resource ids")
	}
	rec, err := write(ctx, key)
	if err != nil {
		if res, ok := serviceError(err); ok {
			return res
		}
		deps.Logger.Error("progress write failed", "op", op, "journey_id", key.JourneyID, "resource_id", key.ResourceID, "error", err)
		return ErrorResult("Failed to record progress", "Database may be unavailable")
	}
	return JSONResult(rec)
}

func (in ProgressInput) key(userID string) models.ProgressKey {
	return models.ProgressKey{UserID: userID, JourneyID: in.JourneyID, ResourceID: in.ResourceID}
}

// NewProgressStartHandler creates the progress_start tool handler.
func NewProgressStartHandler(deps *Dependencies) mcp.ToolHandlerFor[ProgressInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ProgressInput) (*mcp.CallToolResult, any, error) {
		return writeProgress(ctx, deps, "start", input.key(deps.UserID), deps.Progress.MarkInProgress), nil, nil
	}
}

// NewProgressCompleteHandler creates the progress_complete tool handler.
func NewProgressCompleteHandler(deps *Dependencies) mcp.ToolHandlerFor[ProgressInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ProgressInput) (*mcp.CallToolResult, any, error) {
		return writeProgress(ctx, deps, "complete", input.key(deps.UserID), deps.Progress.MarkCompleted), nil, nil
	}
}

// NewProgressIncompleteHandler creates the progress_incomplete tool handler.
func NewProgressIncompleteHandler(deps *Dependencies) mcp.ToolHandlerFor[ProgressInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ProgressInput) (*mcp.CallToolResult, any, error) {
		return writeProgress(ctx, deps, "incomplete", input.key(deps.UserID), deps.Progress.MarkIncomplete), nil, nil
	}
}

// NewProgressAddTimeHandler creates the progress_add_time tool handler.
func NewProgressAddTimeHandler(deps *Dependencies) mcp.ToolHandlerFor[AddTimeInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AddTimeInput) (*mcp.CallToolResult, any, error) {
		if input.Minutes < 0 {
			return ErrorResult("Minutes cannot be negative", ""), nil, nil
		}
		key := models.ProgressKey{UserID: deps.UserID, JourneyID: input.JourneyID, ResourceID: input.ResourceID}
		write := func(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error) {
			return deps.Progress.AddTimeSpent(ctx, key, input.Minutes)
		}
		return writeProgress(ctx, deps, "add_time", key, write), nil, nil
	}
}

// NewProgressSummaryHandler creates the progress_summary tool handler.
func NewProgressSummaryHandler(deps *Dependencies) mcp.ToolHandlerFor[JourneyInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input JourneyInput) (*mcp.CallToolResult, any, error) {
		if input.JourneyID == "" {
			return ErrorResult("journey_id is required", ""), nil, nil
		}
		sum, err := deps.Progress.Summary(ctx, deps.UserID, input.JourneyID)
		if err != nil {
			if res, ok := serviceError(err); ok {
				return res, nil, nil
			}
			deps.Logger.Error("progress summary failed", "journey_id", input.JourneyID, "error", err)
			return ErrorResult("Failed to load progress", "Database may be unavailable"), nil, nil
		}
		return JSONResult(sum), nil, nil
	}
}

// NewLastPositionHandler creates the progress_last_position tool handler.
func NewLastPositionHandler(deps *Dependencies) mcp.ToolHandlerFor[JourneyInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input JourneyInput) (*mcp.CallToolResult, any, error) {
		if input.JourneyID == "" {
			return ErrorResult("journey_id is required", ""), nil, nil
		}
		pos, err := deps.Progress.LastPosition(ctx, deps.UserID, input.JourneyID)
		if err != nil {
			if res, ok := serviceError(err); ok {
				return res, nil, nil
			}
			deps.Logger.Error("last position failed", "journey_id", input.JourneyID, "error", err)
			return ErrorResult("Failed to load last position", "Database may be unavailable"), nil, nil
		}
		if pos == nil {
			return TextResult("Nothing opened yet. Start with the first resource of the journey."), nil, nil
		}
		return JSONResult(pos), nil, nil
	}
}
