package report

import (
	"strings"
	"testing"
)

func TestRenderEnglish(t *testing.T) {
	r, err := NewRenderer("en")
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	out := r.Render(sampleSummary())

	for _, want := range []string{
		"Summary for strings.xlsx",
		"French (fr) -> strings_fr.xlsx",
		"2 units translated",
		"1 from cache",
		"German (de)",
		"1 unit translated",
		"1 failure",
		"not translated: Hello {name} [Main!B2] token mismatch",
		"Warning: cache load failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Rendered summary lacks %q:\n%s", want, out)
		}
	}
}

func TestRenderLocalized(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"fr", "Résumé pour strings.xlsx"},
		{"de", "Zusammenfassung für strings.xlsx"},
		{"de-AT", "Zusammenfassung für strings.xlsx"},
		{"ja", "Summary for strings.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			r, err := NewRenderer(tt.lang)
			if err != nil {
				t.Fatalf("NewRenderer failed: %v", err)
			}
			if out := r.Render(sampleSummary()); !strings.Contains(out, tt.want) {
				t.Errorf("Expected %q in:\n%s", tt.want, out)
			}
		})
	}
}
