package config

import "time"

const (
	// Pagination defaults
	SessionPageSize = 20
	AdminPageSize   = 10
	SummaryPageSize = 20

	// ConversationWindow is the number of most recent rows converted into an
	// LLM transcript.
	ConversationWindow = 100

	// Database pool
	DBMaxConns = 20
	DBMinConns = 5

	// HTTP server
	ShutdownTimeout = 10 * time.Second
)
