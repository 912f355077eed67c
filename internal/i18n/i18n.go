// Package i18n holds the user-facing strings of the quiz and the job log.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLanguage is the only locale shipped.
const DefaultLanguage = "en"

type ctxKey struct{}

var bundle *i18n.Bundle

// Init builds the message bundle with lang as its fallback language and
// loads every embedded locale file into it.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := path.Join("locales", f.Name())
		data, err := localeFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := b.ParseMessageFileBytes(data, f.Name()); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		slog.Debug("loaded locale file", "file", name)
	}

	bundle = b
	return nil
}

func NewLocalizer(lang string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, lang)
}

func WithLocalizer(ctx context.Context, loc *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

// localize resolves cfg with the request's localizer, or the default
// language outside a request. Unknown IDs come back as the ID itself.
func localize(ctx context.Context, cfg *i18n.LocalizeConfig) string {
	loc, ok := ctx.Value(ctxKey{}).(*i18n.Localizer)
	if !ok {
		loc = NewLocalizer(DefaultLanguage)
	}
	s, err := loc.Localize(cfg)
	if err != nil {
		slog.Warn("missing translation", "id", cfg.MessageID, "error", err)
		return cfg.MessageID
	}
	return s
}

// T returns the message msgID.
func T(ctx context.Context, msgID string) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: msgID})
}

// Td fills the message template with data.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: msgID, TemplateData: data})
}

// Tp picks the plural form for count.
func Tp(ctx context.Context, msgID string, count int) string {
	return Tpd(ctx, msgID, count, nil)
}

// Tpd is Tp with extra template data; {{.Count}} is always set.
func Tpd(ctx context.Context, msgID string, count int, data map[string]any) string {
	td := map[string]any{"Count": count}
	for k, v := range data {
		td[k] = v
	}
	return localize(ctx, &i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: td,
	})
}
