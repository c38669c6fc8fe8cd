package backend

import (
	"strings"
	"testing"
)

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		response string
		expected string
	}{
		{"plain", "Hello", "Bonjour", "Bonjour"},
		{"whitespace", "Hello", "  Bonjour \n", "Bonjour"},
		{"think block", "Hello", "<think>\nThe user wants French.\n</think>\nBonjour", "Bonjour"},
		{"unterminated think", "Hello", "<think>Bonjour", "Bonjour"},
		{"translation prefix", "Hello", "Translation: Bonjour", "Bonjour"},
		{"heres prefix", "Hello", "Here's the translation in French: Bonjour", "Bonjour"},
		{"preamble line", "Hello", "Let me translate this.\nBonjour", "Bonjour"},
		{"explanation", "Hello", "Bonjour\n\nThis is the usual greeting.", "Bonjour"},
		{"paragraphs kept", "One\n\nTwo", "Un\n\nDeux", "Un\n\nDeux"},
		{"quotes", "Hello", `"Bonjour"`, "Bonjour"},
		{"source quotes kept", `"Hello"`, `"Bonjour"`, `"Bonjour"`},
		{"tokens", "Hello {X0}", "Bonjour {X0}", "Bonjour {X0}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanResponse(tt.source, tt.response); got != tt.expected {
				t.Errorf("cleanResponse(%q) = %q, want %q", tt.response, got, tt.expected)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("Hello {X0}", "en", "pt-BR")
	for _, want := range []string{"English (en)", "Brazilian Portuguese (pt-BR)", "Text to translate: Hello {X0}"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt %q does not contain %q", prompt, want)
		}
	}
}
