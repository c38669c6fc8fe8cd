package backend

import (
	"context"
	"fmt"
	"strings"
)

// Provider names
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config selects and configures a backend
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// New creates the backend named by cfg.Provider
func New(ctx context.Context, cfg Config) (Translator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case ProviderGemini:
		g, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (valid: %s, %s)", cfg.Provider, ProviderOpenAI, ProviderGemini)
	}
}
