package handler

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
)

const (
	csrfCookieName = "prquiz_csrf"
	csrfFormField  = "csrf_token"
)

type csrfCtxKey struct{}

func csrfTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// csrfMiddleware implements double-submit tokens. The cookie is issued once
// and reused, so several open tabs share one token; unsafe requests must
// echo it in the form.
func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			cookie, err := r.Cookie(csrfCookieName)
			if err != nil || cookie.Value == "" {
				slog.Warn("CSRF cookie missing")
				http.Error(w, "csrf token missing", http.StatusForbidden)
				return
			}
			formToken := r.FormValue(csrfFormField)
			if formToken == "" {
				slog.Warn("CSRF form token missing")
				http.Error(w, "csrf token missing", http.StatusForbidden)
				return
			}
			if subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) != 1 {
				slog.Warn("CSRF token mismatch")
				http.Error(w, "invalid csrf token", http.StatusForbidden)
				return
			}
		}

		var token string
		if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
			token = cookie.Value
		} else {
			token, err = generateCSRFToken()
			if err != nil {
				slog.Error("failed to generate CSRF token", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				Secure:   h.config.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), csrfCtxKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
