package web

import (
	"errors"
	"net/http"

	"github.com/vbonduro/animalexplorer/internal/domain"
	"github.com/vbonduro/animalexplorer/internal/gateway"
	"github.com/vbonduro/animalexplorer/internal/service"
	"github.com/vbonduro/animalexplorer/internal/session"
	"github.com/vbonduro/animalexplorer/internal/variant"
)

type pageData struct {
	Variant    variant.Variant
	ActiveNav  string
	Found      int
	Configured bool
	Error      string

	Context        *domain.AnimalRecord
	Result         *service.DetectionResult
	Messages       []domain.ChatMessage
	QuickQuestions []string
	History        []domain.DetectionEntry
}

func (s *Server) newPage(st *session.State, nav string) pageData {
	p := pageData{
		Variant:    s.service.Variant(),
		ActiveNav:  nav,
		Found:      st.DetectionCount(),
		Configured: s.service.Configured(),
	}
	if rec, ok := st.Context(); ok {
		p.Context = &rec
	}
	return p
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	page := s.newPage(sessionFrom(r), "home")
	if err := s.renderPage(w, http.StatusOK, page, "base.html", "pages/home.html"); err != nil {
		s.logger.Error("render page failed", "page", "home", "error", err)
	}
}

func (s *Server) handleDetectPage(w http.ResponseWriter, r *http.Request) {
	page := s.newPage(sessionFrom(r), "detect")
	if err := s.renderPage(w, http.StatusOK, page, "base.html", "pages/detect.html"); err != nil {
		s.logger.Error("render page failed", "page", "detect", "error", err)
	}
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)

	status := http.StatusOK
	var (
		result *service.DetectionResult
		errMsg string
	)
	imageData, mimeType, err := s.readUpload(w, r)
	if err != nil {
		status, errMsg = http.StatusBadRequest, err.Error()
	} else {
		result, err = s.service.Detect(r.Context(), st, imageData, mimeType)
		if err != nil {
			status, errMsg = s.detectFailure(err)
			s.logger.Error("detection failed", "session_id", st.ID(), "error", err)
		}
	}

	page := s.newPage(st, "detect")
	page.Result = result
	page.Error = errMsg
	if err := s.renderPage(w, status, page, "base.html", "pages/detect.html"); err != nil {
		s.logger.Error("render page failed", "page", "detect", "error", err)
	}
}

// detectFailure maps a detection error to a status code and the message
// shown to the user.
func (s *Server) detectFailure(err error) (int, string) {
	v := s.service.Variant()
	switch {
	case errors.Is(err, gateway.ErrUnconfigured):
		return http.StatusServiceUnavailable, v.Unconfigured
	case errors.Is(err, gateway.ErrAllModelsExhausted):
		return http.StatusBadGateway, v.DetectFailed
	default:
		return http.StatusInternalServerError, v.DetectFailed
	}
}

func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	s.renderChat(w, sessionFrom(r), http.StatusOK, "")
}

func (s *Server) renderChat(w http.ResponseWriter, st *session.State, status int, errMsg string) {
	page := s.newPage(st, "chat")
	page.Messages = st.Messages()
	page.QuickQuestions = page.Variant.QuickQuestions
	page.Error = errMsg
	if err := s.renderPage(w, status, page, "base.html", "pages/chat.html"); err != nil {
		s.logger.Error("render page failed", "page", "chat", "error", err)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)

	_, err := s.service.Ask(r.Context(), st, r.FormValue("message"))
	if err != nil && !errors.Is(err, service.ErrEmptyMessage) {
		s.logger.Error("chat failed", "session_id", st.ID(), "error", err)
		s.renderChat(w, st, http.StatusInternalServerError, s.service.Variant().ChatUnavailable)
		return
	}
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

func (s *Server) handleClearChat(w http.ResponseWriter, r *http.Request) {
	s.service.ClearChat(r.Context(), sessionFrom(r))
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)
	page := s.newPage(st, "history")
	page.History = st.HistoryNewestFirst()
	if err := s.renderPage(w, http.StatusOK, page, "base.html", "pages/history.html"); err != nil {
		s.logger.Error("render page failed", "page", "history", "error", err)
	}
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.service.ClearHistory(r.Context(), sessionFrom(r))
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}
