package tools

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/journeys/internal/service"
	"github.com/raphaelgruber/journeys/internal/sqlstore"
)

// ErrorResult creates a tool error result with optional recovery hint.
// If hint is non-empty, formats as "{msg}. {hint}".
// Returns IsError=true so the calling model can see the error and self-correct.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	text := msg
	if hint != "" {
		text = msg + ". " + hint
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// TextResult creates a success result with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// JSONResult renders v as indented JSON text.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult("Failed to encode result", "")
	}
	return TextResult(string(data))
}

// FormatResults joins items with newlines for list output.
func FormatResults(items []string) string {
	return strings.Join(items, "\n")
}

// serviceError turns a service error into a tool error with a hint the
// calling model can act on. Unexpected errors are logged by the caller.
func serviceError(err error) (*mcp.CallToolResult, bool) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return ErrorResult("Not found", "Check the id with list_journeys or get_journey"), true
	case errors.Is(err, service.ErrInvalidInput):
		return ErrorResult(err.Error(), "Fill in the required arguments"), true
	case errors.Is(err, service.ErrJourneyNotReady):
		return ErrorResult("Journey is still being built", "Poll get_journey until status is ready"), true
	case errors.Is(err, service.ErrQuotaExceeded):
		return ErrorResult("Journey quota exceeded", "Delete or finish existing journeys first"), true
	case errors.Is(err, sqlstore.ErrProgressConflict):
		return ErrorResult("Progress changed concurrently", "Retry the call"), true
	}
	return nil, false
}
