package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetJourneyInput defines the input schema for the get_journey tool.
type GetJourneyInput struct {
	ID string `json:"id" jsonschema:"Journey id"`
}

// ListJourneysInput defines the input schema for the list_journeys tool.
type ListJourneysInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max results 1-100, default 20"`
}

// NewGetJourneyHandler creates the get_journey tool handler.
func NewGetJourneyHandler(deps *Dependencies) mcp.ToolHandlerFor[GetJourneyInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetJourneyInput) (*mcp.CallToolResult, any, error) {
		if input.ID == "" {
			return ErrorResult("Journey id cannot be empty", "Use list_journeys to find one"), nil, nil
		}

		detail, err := deps.Journeys.Detail(ctx, deps.UserID, input.ID)
		if err != nil {
			if res, ok := serviceError(err); ok {
				return res, nil, nil
			}
			deps.Logger.Error("get journey failed", "journey_id", input.ID, "error", err)
			return ErrorResult("Failed to load journey", "Database may be unavailable"), nil, nil
		}
		return JSONResult(detail), nil, nil
	}
}

// NewListJourneysHandler creates the list_journeys tool handler.
func NewListJourneysHandler(deps *Dependencies) mcp.ToolHandlerFor[ListJourneysInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListJourneysInput) (*mcp.CallToolResult, any, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = 20
		}
		if limit > 100 {
			return ErrorResult("Limit must be 1-100", "Reduce limit value"), nil, nil
		}

		list, err := deps.Journeys.List(ctx, deps.UserID, limit)
		if err != nil {
			deps.Logger.Error("list journeys failed", "error", err)
			return ErrorResult("Failed to list journeys", "Database may be unavailable"), nil, nil
		}
		if len(list) == 0 {
			return TextResult("No journeys yet. Start one with chat_start."), nil, nil
		}

		lines := make([]string, 0, len(list))
		for _, j := range list {
			lines = append(lines, fmt.Sprintf("%s [%s] %s (%s, %d resources)", j.ID, j.Status, j.Topic, j.Level, len(j.Resources)))
		}
		return TextResult(FormatResults(lines)), nil, nil
	}
}
