package report

import (
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"codeberg.org/snonux/sheettrans/internal/locale"
)

//go:embed locales/active.*.toml
var localeFS embed.FS

// Languages lists the languages the summary can be rendered in
var Languages = []string{"en", "fr", "de"}

// Renderer formats a Summary for humans
type Renderer struct {
	localizer *i18n.Localizer
}

// NewRenderer creates a renderer for lang, falling back to English
func NewRenderer(lang string) (*Renderer, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, l := range Languages {
		file := fmt.Sprintf("locales/active.%s.toml", l)
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return &Renderer{localizer: i18n.NewLocalizer(bundle, lang, "en")}, nil
}

func (r *Renderer) t(id string, count int, data map[string]any) string {
	cfg := &i18n.LocalizeConfig{MessageID: id, TemplateData: data}
	if count >= 0 {
		cfg.PluralCount = count
		if data == nil {
			cfg.TemplateData = map[string]any{"Count": count}
		} else {
			data["Count"] = count
		}
	}
	msg, err := r.localizer.Localize(cfg)
	if err != nil {
		return id
	}
	return msg
}

// Render returns the multi-line summary text
func (r *Renderer) Render(s *Summary) string {
	var b strings.Builder

	b.WriteString(r.t("SummaryHeader", -1, map[string]any{"Input": s.Input}))
	b.WriteString("\n")

	for _, t := range s.Targets {
		b.WriteString(r.t("TargetLine", -1, map[string]any{
			"Language": locale.Name(t.Locale),
			"Locale":   t.Locale,
		}))
		if t.Output != "" {
			b.WriteString(" -> " + t.Output)
		}
		b.WriteString("\n")

		counts := []string{
			r.t("Translated", t.Translated, nil),
			r.t("Cached", t.Cached, nil),
			r.t("Fallback", t.Fallback, nil),
		}
		if t.Failed > 0 {
			counts = append(counts, r.t("Failed", t.Failed, nil))
		}
		if t.Unprotected > 0 {
			counts = append(counts, r.t("Unprotected", t.Unprotected, nil))
		}
		b.WriteString("  " + strings.Join(counts, ", ") + "\n")

		for _, f := range t.Failures {
			b.WriteString("  ")
			b.WriteString(r.t("FailureLine", -1, map[string]any{
				"Text":  f.Text,
				"Sites": strings.Join(f.Sites, ", "),
				"Error": f.Error,
			}))
			b.WriteString("\n")
		}
	}

	for _, w := range s.Warnings {
		b.WriteString(r.t("WarningLine", -1, map[string]any{"Warning": w}))
		b.WriteString("\n")
	}

	if d := s.Duration(); d > 0 {
		b.WriteString(r.t("Duration", -1, map[string]any{"Duration": d.Round(100 * time.Millisecond).String()}))
		b.WriteString("\n")
	}

	return b.String()
}
