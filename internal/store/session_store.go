package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vbonduro/animalexplorer/internal/domain"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Ensure creates the session row if it is missing and bumps updated_at.
func (s *SessionStore) Ensure(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id) VALUES (?)
		ON CONFLICT(id) DO UPDATE SET updated_at = datetime('now')
	`, id)
	if err != nil {
		return fmt.Errorf("failed to ensure session: %w", err)
	}
	return nil
}

func (s *SessionStore) SetContext(ctx context.Context, id string, rec domain.AnimalRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, context) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET context = excluded.context, updated_at = datetime('now')
	`, id, string(payload))
	if err != nil {
		return fmt.Errorf("failed to set session context: %w", err)
	}
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*domain.SessionRecord, error) {
	rec := &domain.SessionRecord{}
	var rawContext sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, context, created_at, updated_at FROM sessions WHERE id = ?
	`, id).Scan(&rec.ID, &rawContext, &rec.CreatedAt, &rec.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if rawContext.Valid && rawContext.String != "" {
		var animal domain.AnimalRecord
		if err := json.Unmarshal([]byte(rawContext.String), &animal); err != nil {
			return nil, fmt.Errorf("failed to decode session context: %w", err)
		}
		if animal.Facts == nil {
			animal.Facts = []string{}
		}
		rec.Context = &animal
	}

	return rec, nil
}
