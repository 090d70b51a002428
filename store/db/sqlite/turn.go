package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesero-ai/mesero/store"
)

const turnFields = "id, uid, user_id, conversation_id, conversation_label, user_message, assistant_message, helpful, created_ts"

func (d *DB) CreateTurn(ctx context.Context, create *store.ConversationTurn) (*store.ConversationTurn, error) {
	fields := []string{"uid", "user_id", "conversation_id", "conversation_label", "user_message", "assistant_message", "helpful", "created_ts"}
	args := []any{create.UID, create.UserID, create.ConversationID, create.ConversationLabel, create.UserMessage, create.AssistantMessage, create.Helpful, create.CreatedTs}

	stmt := `INSERT INTO turn (` + strings.Join(fields, ", ") + `) VALUES (` + qmarks(len(args)) + `)`
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create turn: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read turn id: %w", err)
	}
	create.ID = id

	return create, nil
}

func (d *DB) ListRecentTurns(ctx context.Context, userID string, limit int) ([]*store.ConversationTurn, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+turnFields+` FROM turn WHERE user_id = ? ORDER BY created_ts DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent turns: %w", err)
	}
	defer rows.Close()

	return collectTurns(rows)
}

func (d *DB) ListTurnsByConversation(ctx context.Context, conversationID string) ([]*store.ConversationTurn, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+turnFields+` FROM turn WHERE conversation_id = ? ORDER BY created_ts ASC, id ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns by conversation: %w", err)
	}
	defer rows.Close()

	return collectTurns(rows)
}

func (d *DB) ListConversations(ctx context.Context, userID string) ([]*store.ConversationSummary, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT conversation_id, MIN(conversation_label), MIN(created_ts) AS earliest_ts
		FROM turn WHERE user_id = ?
		GROUP BY conversation_id
		ORDER BY earliest_ts ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ConversationSummary, 0)
	for rows.Next() {
		summary := &store.ConversationSummary{}
		if err := rows.Scan(&summary.ConversationID, &summary.ConversationLabel, &summary.EarliestCreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan conversation summary: %w", err)
		}
		list = append(list, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return list, nil
}

func (d *DB) SetTurnFeedback(ctx context.Context, turnUID string, helpful bool) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE turn SET helpful = ? WHERE uid = ?`, helpful, turnUID)
	if err != nil {
		return fmt.Errorf("failed to set turn feedback: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func collectTurns(rows *sql.Rows) ([]*store.ConversationTurn, error) {
	list := make([]*store.ConversationTurn, 0)
	for rows.Next() {
		turn := &store.ConversationTurn{}
		if err := rows.Scan(
			&turn.ID, &turn.UID, &turn.UserID, &turn.ConversationID, &turn.ConversationLabel,
			&turn.UserMessage, &turn.AssistantMessage, &turn.Helpful, &turn.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		list = append(list, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}
	return list, nil
}
