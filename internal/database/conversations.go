package database

import (
	"context"
	"fmt"
	"time"

	"schedula/internal/models"

	"github.com/google/uuid"
)

func (db *DB) CreateConversation(ctx context.Context, conv *models.ChatConversation) error {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.Timestamp.IsZero() {
		conv.Timestamp = time.Now()
	}
	conv.Timestamp = conv.Timestamp.UTC()

	_, err := db.ExecContext(ctx,
		`INSERT INTO chat_conversations (id, message, response, timestamp) VALUES (?, ?, ?, ?)`,
		conv.ID, conv.Message, conv.Response, conv.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// ListConversations returns newest first, skipping `skip` rows.
func (db *DB) ListConversations(ctx context.Context, skip, take int) ([]*models.ChatConversation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, message, response, timestamp FROM chat_conversations
         ORDER BY timestamp DESC, rowid DESC LIMIT ? OFFSET ?`,
		take, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	convs := make([]*models.ChatConversation, 0)
	for rows.Next() {
		var c models.ChatConversation
		if err := rows.Scan(&c.ID, &c.Message, &c.Response, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, &c)
	}
	return convs, rows.Err()
}

func (db *DB) CountConversations(ctx context.Context) (int64, error) {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_conversations`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return total, nil
}

func (db *DB) DeleteConversation(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM chat_conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return expectAffected(result, ErrConversationNotFound)
}
