package store

import (
	"context"

	"github.com/mesero-ai/mesero/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) CreateLineItemAssigningGroup(ctx context.Context, create *LineItem) (*LineItem, error) {
	return s.driver.CreateLineItemAssigningGroup(ctx, create)
}

func (s *Store) GetLatestLineItem(ctx context.Context) (*LineItem, error) {
	return s.driver.GetLatestLineItem(ctx)
}

func (s *Store) GetOpenLineItem(ctx context.Context, customerID string, since int64) (*LineItem, error) {
	return s.driver.GetOpenLineItem(ctx, customerID, since)
}

func (s *Store) GetLatestLineItemByAddress(ctx context.Context, address string, since int64) (*LineItem, error) {
	return s.driver.GetLatestLineItemByAddress(ctx, address, since)
}

func (s *Store) ListLineItemsByGroup(ctx context.Context, groupID int64) ([]*LineItem, error) {
	return s.driver.ListLineItemsByGroup(ctx, groupID)
}

func (s *Store) UpdateStatusByGroup(ctx context.Context, groupID int64, status LineItemStatus, updatedTs int64) error {
	return s.driver.UpdateStatusByGroup(ctx, groupID, status, updatedTs)
}

func (s *Store) ListUnpaidBetween(ctx context.Context, from, to int64) ([]*LineItem, error) {
	return s.driver.ListUnpaidBetween(ctx, from, to)
}

func (s *Store) CreateTurn(ctx context.Context, create *ConversationTurn) (*ConversationTurn, error) {
	return s.driver.CreateTurn(ctx, create)
}

func (s *Store) ListRecentTurns(ctx context.Context, userID string, limit int) ([]*ConversationTurn, error) {
	return s.driver.ListRecentTurns(ctx, userID, limit)
}

func (s *Store) ListTurnsByConversation(ctx context.Context, conversationID string) ([]*ConversationTurn, error) {
	return s.driver.ListTurnsByConversation(ctx, conversationID)
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error) {
	return s.driver.ListConversations(ctx, userID)
}

func (s *Store) SetTurnFeedback(ctx context.Context, turnUID string, helpful bool) error {
	return s.driver.SetTurnFeedback(ctx, turnUID, helpful)
}

func (s *Store) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	return s.driver.GetCustomer(ctx, customerID)
}

func (s *Store) UpsertCustomer(ctx context.Context, upsert *UpsertCustomer) (*Customer, error) {
	return s.driver.UpsertCustomer(ctx, upsert)
}

func (s *Store) ListProducts(ctx context.Context, find *FindProduct) ([]*Product, error) {
	return s.driver.ListProducts(ctx, find)
}
