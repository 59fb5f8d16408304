package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vbonduro/animalexplorer/internal/domain"
)

type DetectionStore struct {
	db *sql.DB
}

func NewDetectionStore(db *sql.DB) *DetectionStore {
	return &DetectionStore{db: db}
}

const detectionColumns = `id, session_id, detected_at, animal_name, scientific_name, animal_type,
	habitat, diet, conservation_status, physical_description, facts, model, photo_key, created_at`

func (s *DetectionStore) Create(ctx context.Context, sessionID string, entry domain.DetectionEntry, rec domain.AnimalRecord, model, photoKey string) (*domain.Detection, error) {
	facts, err := json.Marshal(nonNilFacts(rec.Facts))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal facts: %w", err)
	}

	var key interface{}
	if photoKey != "" {
		key = photoKey
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO detections (session_id, detected_at, animal_name, scientific_name, animal_type,
			habitat, diet, conservation_status, physical_description, facts, model, photo_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sessionID, entry.Timestamp, rec.Name, rec.ScientificName, rec.AnimalType,
		rec.Habitat, rec.Diet, rec.ConservationStatus, rec.PhysicalDescription, string(facts), model, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *DetectionStore) GetByID(ctx context.Context, id int64) (*domain.Detection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+detectionColumns+` FROM detections WHERE id = ?`, id)
	d, err := scanDetection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}
	return d, nil
}

// ListBySessionID returns a session's detections oldest first.
func (s *DetectionStore) ListBySessionID(ctx context.Context, sessionID string) ([]*domain.Detection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+detectionColumns+` FROM detections WHERE session_id = ? ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	var detections []*domain.Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating detections: %w", err)
	}

	return detections, nil
}

// DeleteBySessionID removes a session's detections and returns the photo
// keys they referenced so the caller can remove the files.
func (s *DetectionStore) DeleteBySessionID(ctx context.Context, sessionID string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT photo_key FROM detections WHERE session_id = ? AND photo_key IS NOT NULL ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photo keys: %w", err)
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan photo key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("failed to close rows: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM detections WHERE session_id = ?`, sessionID); err != nil {
		return nil, fmt.Errorf("failed to delete detections: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return keys, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDetection(sc scanner) (*domain.Detection, error) {
	d := &domain.Detection{}
	var (
		facts    string
		photoKey sql.NullString
	)
	err := sc.Scan(&d.ID, &d.SessionID, &d.Entry.Timestamp, &d.Record.Name, &d.Record.ScientificName,
		&d.Record.AnimalType, &d.Record.Habitat, &d.Record.Diet, &d.Record.ConservationStatus,
		&d.Record.PhysicalDescription, &facts, &d.Model, &photoKey, &d.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(facts), &d.Record.Facts); err != nil {
		return nil, fmt.Errorf("failed to decode facts: %w", err)
	}
	d.Record.Facts = nonNilFacts(d.Record.Facts)
	d.Entry.AnimalName = d.Record.Name
	d.Entry.AnimalType = d.Record.AnimalType
	d.PhotoKey = photoKey.String
	return d, nil
}

func nonNilFacts(facts []string) []string {
	if facts == nil {
		return []string{}
	}
	return facts
}
