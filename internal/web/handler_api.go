package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vbonduro/animalexplorer/internal/domain"
	"github.com/vbonduro/animalexplorer/internal/service"
)

const maxChatBody = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

type detectResponse struct {
	Animal   domain.AnimalRecord   `json:"animal"`
	Entry    domain.DetectionEntry `json:"entry"`
	Model    string                `json:"model"`
	PhotoURL string                `json:"photo_url,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply    domain.ChatMessage   `json:"reply"`
	Messages []domain.ChatMessage `json:"messages"`
}

type messagesResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
}

type historyResponse struct {
	Count   int                     `json:"count"`
	Entries []domain.DetectionEntry `json:"entries"`
}

func (s *Server) handleAPIDetect(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)

	imageData, mimeType, err := s.readUpload(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()}, s.logger)
		return
	}

	result, err := s.service.Detect(r.Context(), st, imageData, mimeType)
	if err != nil {
		s.logger.Error("detection failed", "session_id", st.ID(), "error", err)
		status, msg := s.detectFailure(err)
		writeJSON(w, status, errorResponse{Error: msg}, s.logger)
		return
	}

	resp := detectResponse{Animal: result.Record, Entry: result.Entry, Model: result.Model}
	if result.PhotoKey != "" {
		resp.PhotoURL = "/photos/" + result.PhotoKey
	}
	writeJSON(w, http.StatusOK, resp, s.logger)
}

func (s *Server) handleAPIChat(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"}, s.logger)
		return
	}

	reply, err := s.service.Ask(r.Context(), st, req.Message)
	if errors.Is(err, service.ErrEmptyMessage) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"}, s.logger)
		return
	}
	if err != nil {
		s.logger.Error("chat failed", "session_id", st.ID(), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: s.service.Variant().ChatUnavailable}, s.logger)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, Messages: nonNil(st.Messages())}, s.logger)
}

func (s *Server) handleAPIMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messagesResponse{Messages: nonNil(sessionFrom(r).Messages())}, s.logger)
}

func (s *Server) handleAPIClearChat(w http.ResponseWriter, r *http.Request) {
	s.service.ClearChat(r.Context(), sessionFrom(r))
	w.WriteHeader(http.StatusNoContent)
}

// handleAPIHistory lists detections oldest first; ?order=newest reverses it.
func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)

	entries := st.History()
	if r.URL.Query().Get("order") == "newest" {
		entries = st.HistoryNewestFirst()
	}
	writeJSON(w, http.StatusOK, historyResponse{Count: len(entries), Entries: nonNil(entries)}, s.logger)
}

func (s *Server) handleAPIClearHistory(w http.ResponseWriter, r *http.Request) {
	s.service.ClearHistory(r.Context(), sessionFrom(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIContext(w http.ResponseWriter, r *http.Request) {
	rec, ok := sessionFrom(r).Context()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no animal identified yet"}, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, rec, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write json failed", "error", err)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
