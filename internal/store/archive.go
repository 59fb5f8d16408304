package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/animalexplorer/internal/domain"
	"github.com/vbonduro/animalexplorer/internal/session"
)

// Archive groups the per-table stores behind the operations the explorer
// service needs and rebuilds sessions for the session manager.
type Archive struct {
	Sessions   *SessionStore
	Detections *DetectionStore
	Messages   *MessageStore
}

func NewArchive(db *sql.DB) *Archive {
	return &Archive{
		Sessions:   NewSessionStore(db),
		Detections: NewDetectionStore(db),
		Messages:   NewMessageStore(db),
	}
}

// SaveDetection stores the detection and makes rec the session's context.
func (a *Archive) SaveDetection(ctx context.Context, sessionID string, entry domain.DetectionEntry, rec domain.AnimalRecord, model, photoKey string) error {
	if err := a.Sessions.SetContext(ctx, sessionID, rec); err != nil {
		return err
	}
	if _, err := a.Detections.Create(ctx, sessionID, entry, rec, model, photoKey); err != nil {
		return err
	}
	return nil
}

func (a *Archive) SaveMessage(ctx context.Context, sessionID string, msg domain.ChatMessage) error {
	if err := a.Sessions.Ensure(ctx, sessionID); err != nil {
		return err
	}
	return a.Messages.Create(ctx, sessionID, msg)
}

func (a *Archive) ClearChat(ctx context.Context, sessionID string) error {
	return a.Messages.DeleteBySessionID(ctx, sessionID)
}

// ClearHistory removes the session's detections and returns the photo keys
// that are no longer referenced.
func (a *Archive) ClearHistory(ctx context.Context, sessionID string) ([]string, error) {
	return a.Detections.DeleteBySessionID(ctx, sessionID)
}

func (a *Archive) Load(ctx context.Context, id string) (*session.Snapshot, error) {
	rec, err := a.Sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, session.ErrNotFound
	}

	detections, err := a.Detections.ListBySessionID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	messages, err := a.Messages.ListBySessionID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	snap := &session.Snapshot{
		Context:  rec.Context,
		Messages: messages,
		History:  make([]domain.DetectionEntry, 0, len(detections)),
	}
	for _, d := range detections {
		snap.History = append(snap.History, d.Entry)
	}
	return snap, nil
}
