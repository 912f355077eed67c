package i18n

import "net/http"

// Middleware injects the localizer for lang into every request context.
// An empty lang selects DefaultLanguage.
func Middleware(lang string) func(http.Handler) http.Handler {
	if lang == "" {
		lang = DefaultLanguage
	}
	loc := NewLocalizer(lang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLocalizer(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
