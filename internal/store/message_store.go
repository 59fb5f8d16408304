package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/animalexplorer/internal/domain"
)

type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Create(ctx context.Context, sessionID string, msg domain.ChatMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (session_id, role, content) VALUES (?, ?, ?)
	`, sessionID, string(msg.Role), msg.Content)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListBySessionID returns the transcript in the order it was written.
func (s *MessageStore) ListBySessionID(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM messages WHERE session_id = ? ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var (
			role string
			msg  domain.ChatMessage
		)
		if err := rows.Scan(&role, &msg.Content); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = domain.Role(role)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

func (s *MessageStore) DeleteBySessionID(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}
