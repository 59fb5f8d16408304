package web

import (
	"context"
	"net/http"

	"github.com/vbonduro/animalexplorer/internal/session"
)

const sessionCookieName = "animalexplorer_session"

type sessionKey struct{}

// withSession resolves the caller's session from its cookie, starting a new
// one (and setting the cookie) when the cookie is missing or stale.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(sessionCookieName); err == nil {
			id = c.Value
		}

		st, created := s.service.Session(r.Context(), id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    st.ID(),
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, st)))
	})
}

func sessionFrom(r *http.Request) *session.State {
	st, _ := r.Context().Value(sessionKey{}).(*session.State)
	return st
}
