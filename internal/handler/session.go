package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pavelanni/prquiz/internal/model"
	"github.com/pavelanni/prquiz/internal/session"
	"github.com/pavelanni/prquiz/internal/store"
)

const sessionCookieName = "prquiz_session"

// sessionMiddleware makes sure every request carries a live quiz session,
// creating one and setting the cookie when needed.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			sess, err := h.store.GetSession(cookie.Value)
			if err != nil {
				slog.Error("failed to get quiz session", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if sess != nil {
				ctx := model.ContextWithSessionToken(r.Context(), sess.Token)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		sess, err := h.store.CreateSession(h.config.MaxAttempts)
		if err != nil {
			slog.Error("failed to create quiz session", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sess.Token,
			Path:     "/",
			MaxAge:   int(store.SessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.config.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		ctx := model.ContextWithSessionToken(r.Context(), sess.Token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentSession loads the session bound to the request by sessionMiddleware.
func (h *Handler) currentSession(r *http.Request) (*session.Session, error) {
	token := model.SessionTokenFromContext(r.Context())
	if token == "" {
		return nil, fmt.Errorf("no session token in request context")
	}
	sess, err := h.store.GetSession(token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session expired during request")
	}
	return sess, nil
}
