// Package handler serves the quiz over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pavelanni/prquiz/internal/handler/views"
	appI18n "github.com/pavelanni/prquiz/internal/i18n"
	"github.com/pavelanni/prquiz/internal/quiz"
	"github.com/pavelanni/prquiz/internal/session"
	"github.com/pavelanni/prquiz/internal/store"
)

// Notifier receives terminal quiz results.
type Notifier interface {
	Passed(attempts int)
	Failed(attempts int)
}

// Config is the per-run handler configuration.
type Config struct {
	PullRequestNumber int
	PullRequestTitle  string
	PullRequestURL    string
	MaxAttempts       int
	SecureCookies     bool
	PublicDir         string
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	quiz   *quiz.Quiz
	notify Notifier
	config Config

	// mu makes load, grade and save of a session one step.
	mu sync.Mutex
}

// New creates a new Handler.
func New(s *store.Store, q *quiz.Quiz, n Notifier, cfg Config) *Handler {
	return &Handler{store: s, quiz: q, notify: n, config: cfg}
}

// Router builds the full middleware stack and routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(appI18n.DefaultLanguage))
	h.Routes(r)
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	public := http.FS(views.Assets)
	if dir := h.config.PublicDir; dir != "" {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			slog.Warn("public directory not found, using built-in assets", "dir", dir)
		} else {
			public = http.Dir(dir)
		}
	}
	r.Handle("/public/*", http.StripPrefix("/public/", http.FileServer(public)))

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware)
		r.Use(h.csrfMiddleware)
		r.Get("/", h.handleQuiz)
		r.Post("/submit", h.handleSubmit)
	})
}

func (h *Handler) handleQuiz(w http.ResponseWriter, r *http.Request) {
	sess, err := h.currentSession(r)
	if err != nil {
		slog.Error("failed to load session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := views.QuizData{
		Number:      h.config.PullRequestNumber,
		Title:       h.config.PullRequestTitle,
		URL:         h.config.PullRequestURL,
		Questions:   h.quiz.Questions,
		Answers:     sess.LastAnswers,
		Attempt:     sess.Attempts + 1,
		MaxAttempts: sess.MaxAttempts,
		Unlimited:   sess.MaxAttempts <= 0,
		CSRFToken:   csrfTokenFromContext(r.Context()),
	}
	h.render(w, r, http.StatusOK, views.QuizPage(data))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	answers := formAnswers(r)

	h.mu.Lock()
	sess, err := h.currentSession(r)
	if err != nil {
		h.mu.Unlock()
		slog.Error("failed to load session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	terminal := sess.State.Terminal()
	result := sess.Submit(answers, h.quiz)
	if !terminal {
		if err := h.store.SaveSession(sess); err != nil {
			h.mu.Unlock()
			slog.Error("failed to save session", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if _, err := h.store.AddSubmission(sess, result); err != nil {
			slog.Warn("failed to record submission", "error", err)
		}
	}
	h.mu.Unlock()

	slog.Info("quiz submission",
		"attempt", sess.Attempts,
		"result", result.String(),
		"already_terminal", terminal,
	)

	data := views.ResultData{
		URL:          h.config.PullRequestURL,
		Attempts:     sess.Attempts,
		AttemptsLeft: sess.Remaining(),
		Unlimited:    sess.MaxAttempts <= 0,
	}
	switch result {
	case session.ResultPass:
		h.render(w, r, http.StatusOK, views.PassPage(data))
		if !terminal {
			h.notify.Passed(sess.Attempts)
		}
	case session.ResultFail:
		h.render(w, r, http.StatusOK, views.FailPage(data))
		if !terminal {
			h.notify.Failed(sess.Attempts)
		}
	default:
		h.render(w, r, http.StatusOK, views.TryAgainPage(data))
	}
}

// formAnswers collects "<index>"=<label> pairs from the posted form.
func formAnswers(r *http.Request) map[string]string {
	answers := make(map[string]string)
	for key, values := range r.PostForm {
		if key == csrfFormField || len(values) == 0 {
			continue
		}
		answers[key] = values[0]
	}
	return answers
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
