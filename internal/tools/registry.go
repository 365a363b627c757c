package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Test tool - responds with pong or echoes input",
	}, NewPingHandler(deps))

	// Elicitation
	mcp.AddTool(server, &mcp.Tool{
		Name:        "chat_start",
		Description: "Start a conversation about what the learner wants to learn. Returns a reply, suggested answers and, once enough is known, the id of the journey being built",
	}, NewChatStartHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "chat_respond",
		Description: "Continue a learning conversation with the learner's next message",
	}, NewChatRespondHandler(deps))

	// Journeys
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_journey",
		Description: "Get a journey with its status, sections and resources. Resources are empty until status is ready",
	}, NewGetJourneyHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_journeys",
		Description: "List the learner's journeys, newest first",
	}, NewListJourneysHandler(deps))

	// Progress
	mcp.AddTool(server, &mcp.Tool{
		Name:        "progress_start",
		Description: "Mark a resource of a ready journey as in progress",
	}, NewProgressStartHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "progress_complete",
		Description: "Mark a resource of a ready journey as completed",
	}, NewProgressCompleteHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "progress_incomplete",
		Description: "Reopen a completed resource",
	}, NewProgressIncompleteHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "progress_add_time",
		Description: "Add minutes of study time to a resource",
	}, NewProgressAddTimeHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "progress_summary",
		Description: "Completion percentage, counts and time spent for a journey",
	}, NewProgressSummaryHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "progress_last_position",
		Description: "The resource the learner opened most recently in a journey",
	}, NewLastPositionHandler(deps))
}
