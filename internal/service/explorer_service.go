package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vbonduro/animalexplorer/internal/domain"
	"github.com/vbonduro/animalexplorer/internal/extract"
	"github.com/vbonduro/animalexplorer/internal/gateway"
	"github.com/vbonduro/animalexplorer/internal/photostore"
	"github.com/vbonduro/animalexplorer/internal/session"
	"github.com/vbonduro/animalexplorer/internal/variant"
)

var ErrEmptyMessage = errors.New("message is empty")

// modelGateway is the subset of gateway.Gateway that ExplorerService requires.
type modelGateway interface {
	Configured() bool
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*gateway.Analysis, error)
	Chat(ctx context.Context, message string, animal *domain.AnimalRecord) (string, error)
}

// archiveRepository is the subset of store.Archive that ExplorerService requires.
type archiveRepository interface {
	SaveDetection(ctx context.Context, sessionID string, entry domain.DetectionEntry, rec domain.AnimalRecord, model, photoKey string) error
	SaveMessage(ctx context.Context, sessionID string, msg domain.ChatMessage) error
	ClearChat(ctx context.Context, sessionID string) error
	ClearHistory(ctx context.Context, sessionID string) ([]string, error)
}

// DetectionResult is what one successful identification produced.
type DetectionResult struct {
	Record   domain.AnimalRecord
	Entry    domain.DetectionEntry
	Model    string
	PhotoKey string
}

type ExplorerService struct {
	sessions *session.Manager
	gateway  modelGateway
	variant  variant.Variant
	archive  archiveRepository
	photoStg photostore.PhotoStore
	logger   *slog.Logger
}

type Option func(*ExplorerService)

// WithArchive persists detections and messages. Archive failures are logged
// and never fail the user's operation.
func WithArchive(a archiveRepository) Option {
	return func(s *ExplorerService) { s.archive = a }
}

// WithPhotoStore keeps a copy of every identified photo.
func WithPhotoStore(p photostore.PhotoStore) Option {
	return func(s *ExplorerService) { s.photoStg = p }
}

func NewExplorerService(
	sessions *session.Manager,
	gw modelGateway,
	v variant.Variant,
	logger *slog.Logger,
	opts ...Option,
) *ExplorerService {
	s := &ExplorerService{
		sessions: sessions,
		gateway:  gw,
		variant:  v,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ExplorerService) Variant() variant.Variant {
	return s.variant
}

func (s *ExplorerService) Configured() bool {
	return s.gateway.Configured()
}

// ActiveSessions is the number of sessions currently held in memory.
func (s *ExplorerService) ActiveSessions() int {
	return s.sessions.Len()
}

// PhotosEnabled reports whether uploaded photos are archived and servable.
func (s *ExplorerService) PhotosEnabled() bool {
	return s.photoStg != nil
}

// Session returns the session for id, starting a new one when id is empty
// or unknown. created reports whether the caller must hand out a new id.
func (s *ExplorerService) Session(ctx context.Context, id string) (*session.State, bool) {
	return s.sessions.GetOrCreate(ctx, id)
}

// Detect identifies the animal in image and records it in the session.
// On any gateway error the session is left untouched.
func (s *ExplorerService) Detect(ctx context.Context, st *session.State, image []byte, mimeType string) (*DetectionResult, error) {
	var result *DetectionResult
	err := st.Exclusive(func() error {
		s.logger.Info("detection started", "session_id", st.ID(), "mime_type", mimeType, "bytes", len(image))

		analysis, err := s.gateway.AnalyzeImage(ctx, image, mimeType)
		if err != nil {
			return fmt.Errorf("failed to analyze image: %w", err)
		}

		rec := extract.Extract(analysis.Text, domain.DefaultRecord(s.variant.UnknownName))
		entry := st.AppendDetection(rec)
		s.logger.Info("detection complete", "session_id", st.ID(), "model", analysis.Model, "animal", rec.Name, "facts", len(rec.Facts))

		result = &DetectionResult{Record: rec.Clone(), Entry: entry, Model: analysis.Model}
		result.PhotoKey = s.archiveDetection(ctx, st.ID(), entry, rec, analysis.Model, image, mimeType)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Ask appends the question and the model's reply to the transcript and
// returns the reply. The reply is the variant's placeholder when every
// model failed and its unconfigured notice when no credential is set.
func (s *ExplorerService) Ask(ctx context.Context, st *session.State, message string) (domain.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.ChatMessage{}, ErrEmptyMessage
	}

	var reply domain.ChatMessage
	err := st.Exclusive(func() error {
		question, err := st.AppendMessage(domain.RoleUser, message)
		if err != nil {
			return err
		}
		s.archiveMessage(ctx, st.ID(), question)

		var animal *domain.AnimalRecord
		if rec, ok := st.Context(); ok {
			animal = &rec
		}

		text, err := s.gateway.Chat(ctx, message, animal)
		if errors.Is(err, gateway.ErrUnconfigured) {
			text = s.variant.Unconfigured
		} else if err != nil {
			return fmt.Errorf("failed to chat: %w", err)
		}

		reply, err = st.AppendMessage(domain.RoleAssistant, text)
		if err != nil {
			return err
		}
		s.archiveMessage(ctx, st.ID(), reply)
		return nil
	})
	return reply, err
}

func (s *ExplorerService) ClearChat(ctx context.Context, st *session.State) {
	_ = st.Exclusive(func() error {
		st.ClearChat()
		if s.archive != nil {
			if err := s.archive.ClearChat(ctx, st.ID()); err != nil {
				s.logger.Error("failed to clear archived chat", "session_id", st.ID(), "error", err)
			}
		}
		s.logger.Info("chat cleared", "session_id", st.ID())
		return nil
	})
}

func (s *ExplorerService) ClearHistory(ctx context.Context, st *session.State) {
	_ = st.Exclusive(func() error {
		st.ClearHistory()
		if s.archive == nil {
			s.logger.Info("history cleared", "session_id", st.ID())
			return nil
		}

		keys, err := s.archive.ClearHistory(ctx, st.ID())
		if err != nil {
			s.logger.Error("failed to clear archived history", "session_id", st.ID(), "error", err)
		}
		s.deletePhotos(ctx, keys)
		s.logger.Info("history cleared", "session_id", st.ID(), "photos_removed", len(keys))
		return nil
	})
}

// Photo opens an archived photo belonging to st.
func (s *ExplorerService) Photo(ctx context.Context, st *session.State, key string) (io.ReadCloser, string, error) {
	if s.photoStg == nil || !strings.HasPrefix(key, st.ID()+"/") {
		return nil, "", photostore.ErrNotFound
	}
	return s.photoStg.Get(ctx, key)
}

func (s *ExplorerService) archiveDetection(ctx context.Context, sessionID string, entry domain.DetectionEntry, rec domain.AnimalRecord, model string, image []byte, mimeType string) string {
	if s.archive == nil {
		return ""
	}

	var photoKey string
	if s.photoStg != nil {
		key, err := s.photoStg.Save(ctx, sessionID, mimeType, bytes.NewReader(image))
		if err != nil {
			s.logger.Error("failed to save photo", "session_id", sessionID, "error", err)
		} else {
			photoKey = key
			s.logger.Debug("photo saved", "session_id", sessionID, "storage_key", key)
		}
	}

	if err := s.archive.SaveDetection(ctx, sessionID, entry, rec, model, photoKey); err != nil {
		s.logger.Error("failed to archive detection", "session_id", sessionID, "error", err)
		if photoKey != "" {
			s.deletePhotos(ctx, []string{photoKey})
		}
		return ""
	}
	return photoKey
}

func (s *ExplorerService) archiveMessage(ctx context.Context, sessionID string, msg domain.ChatMessage) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveMessage(ctx, sessionID, msg); err != nil {
		s.logger.Error("failed to archive message", "session_id", sessionID, "role", msg.Role, "error", err)
	}
}

func (s *ExplorerService) deletePhotos(ctx context.Context, keys []string) {
	if s.photoStg == nil {
		return
	}
	for _, key := range keys {
		if err := s.photoStg.Delete(ctx, key); err != nil && !errors.Is(err, photostore.ErrNotFound) {
			s.logger.Error("failed to delete photo file", "storage_key", key, "error", err)
		}
	}
}
