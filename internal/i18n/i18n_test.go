package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "PageTitle")
	if got != "Pull Request Quiz" {
		t.Errorf("T(PageTitle) = %q, want 'Pull Request Quiz'", got)
	}

	got = T(ctx, "SubmitAnswers")
	if got != "Submit answers" {
		t.Errorf("T(SubmitAnswers) = %q, want 'Submit answers'", got)
	}
}

func TestInitBadLanguage(t *testing.T) {
	if err := Init("not a tag!"); err == nil {
		t.Error("expected error for invalid language tag")
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	tests := []struct {
		id    string
		count int
		want  string
	}{
		{"AttemptsLeft", 1, "You have 1 attempt left."},
		{"AttemptsLeft", 2, "You have 2 attempts left."},
		{"ReportPassed", 1, "Quiz passed in 1 attempt."},
		{"ReportFailed", 3, "Quiz failed after 3 attempts."},
		{"PassBody", 1, "You answered every question correctly on your first attempt."},
	}
	for _, tt := range tests {
		if got := Tp(ctx, tt.id, tt.count); got != tt.want {
			t.Errorf("Tp(%s, %d) = %q, want %q", tt.id, tt.count, got, tt.want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "AttemptOf", map[string]any{"Attempt": 2, "Max": 3})
	if got != "Attempt 2 of 3" {
		t.Errorf("Td(AttemptOf) = %q, want 'Attempt 2 of 3'", got)
	}

	got = Td(ctx, "QuizHeading", map[string]any{"Number": 42, "Title": "Fix <b>"})
	if got != "Quiz: #42 Fix <b>" {
		t.Errorf("Td(QuizHeading) = %q", got)
	}
}

func TestFallbackLocalizer(t *testing.T) {
	initLang(t, "en")
	if got := T(context.Background(), "TryAgain"); got != "Try again" {
		t.Errorf("T without localizer = %q, want 'Try again'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestMiddleware(t *testing.T) {
	initLang(t, "en")

	var got string
	h := Middleware("")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "FailHeading")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != "Quiz failed" {
		t.Errorf("T(FailHeading) via middleware = %q, want 'Quiz failed'", got)
	}
}

func TestPluralWithData(t *testing.T) {
	ctx := initLang(t, "en")

	got := Tpd(ctx, "AttemptsLeft", 2, map[string]any{"Unused": "x"})
	if got != "You have 2 attempts left." {
		t.Errorf("Tpd(AttemptsLeft, 2) = %q", got)
	}
}
