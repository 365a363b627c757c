package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxArgLogLen is the maximum length for logged arguments before truncation.
const maxArgLogLen = 200

// slowRequestThreshold is the duration above which requests are logged at
// WARN level. Chat tools wait on the reasoning endpoint, so it is generous.
const slowRequestThreshold = 5 * time.Second

// LoggingMiddleware returns middleware that logs all requests with timing.
// Tool calls are logged with the tool name, and tool results flagged as
// errors are logged at WARN.
func LoggingMiddleware(logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			duration := time.Since(start)

			attrs := []any{
				"method", method,
				"duration_ms", duration.Milliseconds(),
			}
			if tool := toolName(req); tool != "" {
				attrs = append(attrs, "tool", tool)
			}
			if params := formatParams(req); params != "" {
				attrs = append(attrs, "params", truncate(params, maxArgLogLen))
			}

			switch {
			case err != nil:
				attrs = append(attrs, "error", err.Error())
				logger.Error("request failed", attrs...)
			case isToolError(result):
				logger.Warn("tool returned error", attrs...)
			case duration > slowRequestThreshold:
				logger.Warn("slow request", attrs...)
			default:
				logger.Debug("request completed", attrs...)
			}

			return result, err
		}
	}
}

func toolName(req mcp.Request) string {
	if p, ok := req.GetParams().(*mcp.CallToolParamsRaw); ok && p != nil {
		return p.Name
	}
	return ""
}

func isToolError(result mcp.Result) bool {
	r, ok := result.(*mcp.CallToolResult)
	return ok && r != nil && r.IsError
}

func formatParams(req mcp.Request) string {
	params := req.GetParams()
	if params == nil {
		return ""
	}
	if p, ok := params.(*mcp.CallToolParamsRaw); ok && p != nil {
		return string(p.Arguments)
	}
	return fmt.Sprintf("%+v", params)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
