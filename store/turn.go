package store

// ConversationTurn is one completed orchestration run: the user message plus
// the final assistant message, persisted as a single row. Immutable after
// creation except the Helpful feedback flag.
type ConversationTurn struct {
	ID                int64
	UID               string // short public identifier returned to callers
	UserID            string
	ConversationID    string
	ConversationLabel string
	UserMessage       string
	AssistantMessage  string
	Helpful           bool
	CreatedTs         int64
}

// ConversationSummary is one entry of a user's conversation listing.
type ConversationSummary struct {
	ConversationID    string
	ConversationLabel string
	EarliestCreatedTs int64
}
