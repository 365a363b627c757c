package tools

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/journeys/internal/models"
)

// ChatStartInput defines the input schema for the chat_start tool.
type ChatStartInput struct {
	Message string `json:"message" jsonschema:"What the learner wants to learn, in their own words"`
}

// ChatRespondInput defines the input schema for the chat_respond tool.
type ChatRespondInput struct {
	Message        string        `json:"message" jsonschema:"The learner's next message"`
	ConversationID string        `json:"conversation_id,omitempty" jsonschema:"Conversation to continue; omitted resumes the active one"`
	History        []models.Turn `json:"history,omitempty" jsonschema:"Earlier turns, used only when starting a new conversation"`
}

// NewChatStartHandler creates the chat_start tool handler.
func NewChatStartHandler(deps *Dependencies) mcp.ToolHandlerFor[ChatStartInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ChatStartInput) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(input.Message) == "" {
			return ErrorResult("Message cannot be empty", "Describe what to learn"), nil, nil
		}

		reply, err := deps.Chat.Start(ctx, deps.UserID, input.Message)
		if err != nil {
			if res, ok := serviceError(err); ok {
				return res, nil, nil
			}
			deps.Logger.Error("chat start failed", "error", err)
			return ErrorResult("Chat failed", "Check the reasoning endpoint"), nil, nil
		}

		deps.Logger.Info("chat started", "conversation_id", reply.ConversationID, "ready", reply.Ready)
		return JSONResult(reply), nil, nil
	}
}

// NewChatRespondHandler creates the chat_respond tool handler.
func NewChatRespondHandler(deps *Dependencies) mcp.ToolHandlerFor[ChatRespondInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ChatRespondInput) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(input.Message) == "" {
			return ErrorResult("Message cannot be empty", "Pass the learner's reply"), nil, nil
		}

		reply, err := deps.Chat.Respond(ctx, deps.UserID, input.Message, input.History, input.ConversationID)
		if err != nil {
			if res, ok := serviceError(err); ok {
				return res, nil, nil
			}
			deps.Logger.Error("chat respond failed", "conversation_id", input.ConversationID, "error", err)
			return ErrorResult("Chat failed", "Check the reasoning endpoint"), nil, nil
		}

		if reply.JourneyID != "" {
			deps.Logger.Info("journey requested from chat", "conversation_id", reply.ConversationID, "journey_id", reply.JourneyID)
		}
		return JSONResult(reply), nil, nil
	}
}
