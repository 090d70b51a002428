package store

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotFound is returned by reads and bulk updates that match zero rows.
var ErrNotFound = errors.New("not found")

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error
	Migrate(ctx context.Context) error

	// Line items. CreateLineItemAssigningGroup resolves the group identifier
	// inside the same transaction as the insert (the read-then-write in the
	// assignment decision table is the one place two writers can corrupt
	// shared state).
	CreateLineItemAssigningGroup(ctx context.Context, create *LineItem) (*LineItem, error)
	// GetLatestLineItem returns the item with the highest group id, breaking
	// ties by creation time. Group assignment depends on this ordering.
	GetLatestLineItem(ctx context.Context) (*LineItem, error)
	GetOpenLineItem(ctx context.Context, customerID string, since int64) (*LineItem, error)
	GetLatestLineItemByAddress(ctx context.Context, address string, since int64) (*LineItem, error)
	ListLineItemsByGroup(ctx context.Context, groupID int64) ([]*LineItem, error)
	UpdateStatusByGroup(ctx context.Context, groupID int64, status LineItemStatus, updatedTs int64) error
	ListUnpaidBetween(ctx context.Context, from, to int64) ([]*LineItem, error)

	// Conversation turns.
	CreateTurn(ctx context.Context, create *ConversationTurn) (*ConversationTurn, error)
	ListRecentTurns(ctx context.Context, userID string, limit int) ([]*ConversationTurn, error)
	ListTurnsByConversation(ctx context.Context, conversationID string) ([]*ConversationTurn, error)
	ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error)
	SetTurnFeedback(ctx context.Context, turnUID string, helpful bool) error

	// Customers.
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)
	UpsertCustomer(ctx context.Context, upsert *UpsertCustomer) (*Customer, error)

	// Catalog reads.
	ListProducts(ctx context.Context, find *FindProduct) ([]*Product, error)
}
