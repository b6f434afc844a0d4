package domain

import "time"

// ChatMessage is one persisted chat turn. FromUser is nil for legacy rows
// whose role was never recorded; such rows are skipped during reconstruction
// instead of being rejected.
type ChatMessage struct {
	ID        string
	ChatbotID string
	SessionID string
	FromUser  *bool
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role tags a reconstructed transcript entry.
type Role string

const (
	RoleHuman Role = "human"
	RoleBot   Role = "bot"
)

// ConversationMessage is a role-tagged transcript entry.
type ConversationMessage struct {
	Role    Role
	Content string
}

// QueryResponse is one paired (user query, bot response) exchange consumed by
// retrieval chains.
type QueryResponse struct {
	UserQuery   string
	BotResponse string
}

// SessionSummary lists a session together with its earliest message.
// FirstMessage is nil when the session's rows were deleted between the
// distinct-session listing and the lookup.
type SessionSummary struct {
	SessionID    string
	FirstMessage *ChatMessage
}
