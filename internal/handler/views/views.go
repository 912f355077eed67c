// Package views renders the quiz pages.
package views

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	appI18n "github.com/pavelanni/prquiz/internal/i18n"
	"github.com/pavelanni/prquiz/internal/quiz"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

// Assets holds the stylesheet and other files served under /public/.
var Assets, _ = fs.Sub(assetFS, "assets")

// Raw HTML in model output is dropped: goldmark omits it unless
// html.WithUnsafe is set.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// base holds the parsed pages. Localization funcs are bound per render.
var base = template.Must(template.New("views").Funcs(template.FuncMap{
	"t":        func(string) string { return "" },
	"td":       func(string, ...any) string { return "" },
	"tp":       func(string, int) string { return "" },
	"markdown": markdown,
	"inline":   inlineMarkdown,
	"labels":   func() []quiz.Label { return quiz.Labels },
	"inc":      func(i int) int { return i + 1 },
	"checked":  checked,
}).ParseFS(templateFS, "templates/*.html"))

// QuizData feeds the quiz form.
type QuizData struct {
	Number      int
	Title       string
	URL         string
	Questions   []quiz.Question
	Answers     map[string]string
	Attempt     int
	MaxAttempts int
	Unlimited   bool
	CSRFToken   string
}

// ResultData feeds the pass, try-again and fail pages.
type ResultData struct {
	URL          string
	Attempts     int
	AttemptsLeft int
	Unlimited    bool
}

func QuizPage(d QuizData) templ.Component { return page("quiz", d) }

func PassPage(d ResultData) templ.Component { return page("pass", d) }

func TryAgainPage(d ResultData) templ.Component { return page("tryagain", d) }

func FailPage(d ResultData) templ.Component { return page("fail", d) }

func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, err := base.Clone()
		if err != nil {
			return err
		}
		t.Funcs(localized(ctx))
		return templ.FromGoHTML(t.Lookup(name), data).Render(ctx, w)
	})
}

func localized(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"t": func(id string) string { return appI18n.T(ctx, id) },
		"td": func(id string, kv ...any) string {
			data := make(map[string]any, len(kv)/2)
			for i := 0; i+1 < len(kv); i += 2 {
				if k, ok := kv[i].(string); ok {
					data[k] = kv[i+1]
				}
			}
			return appI18n.Td(ctx, id, data)
		},
		"tp": func(id string, n int) string { return appI18n.Tp(ctx, id, n) },
	}
}

func markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// inlineMarkdown renders a single paragraph without the wrapping <p>.
func inlineMarkdown(src string) template.HTML {
	out := strings.TrimSpace(string(markdown(src)))
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return template.HTML(out)
}

func checked(answers map[string]string, index int, label quiz.Label) bool {
	return answers[strconv.Itoa(index)] == string(label)
}
