package models

import "time"

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single message in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is the elicitation dialogue that precedes a journey.
// Once JourneyID is set the conversation is read-only history.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	JourneyID *string   `json:"journey_id,omitempty"`
	Turns     []Turn    `json:"messages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Closed reports whether a journey has been spawned from the conversation.
func (c *Conversation) Closed() bool {
	return c.JourneyID != nil
}

// UserTurns counts the turns written by the user.
func (c *Conversation) UserTurns() int {
	n := 0
	for _, t := range c.Turns {
		if t.Role == RoleUser {
			n++
		}
	}
	return n
}
