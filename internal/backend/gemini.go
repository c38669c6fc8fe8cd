package backend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini translates with the Google Gemini API
type Gemini struct {
	model  string
	client *genai.Client
}

// NewGemini creates a Gemini backend
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not found")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &Gemini{model: model, client: client}, nil
}

// Translate sends one generate content request
func (g *Gemini) Translate(ctx context.Context, text, sourceLocale, targetLocale string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(buildPrompt(text, sourceLocale, targetLocale)), config)
	if err != nil {
		return "", classifyGeminiError(fmt.Errorf("Gemini API error: %w", err))
	}

	translation := cleanResponse(text, resp.Text())
	if translation == "" {
		return "", Transient(fmt.Errorf("empty translation returned"), 0)
	}
	return translation, nil
}

func classifyGeminiError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err, retryDelay(apiErr.Details))
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return classifyStatus(apiErrPtr.Code, err, retryDelay(apiErrPtr.Details))
	}

	return Transient(err, 0)
}

// retryDelay extracts the delay from a google.rpc.RetryInfo error detail
func retryDelay(details []map[string]any) time.Duration {
	for _, detail := range details {
		kind, _ := detail["@type"].(string)
		delay, _ := detail["retryDelay"].(string)
		if !strings.Contains(kind, "RetryInfo") || delay == "" {
			continue
		}
		if secs, err := strconv.ParseFloat(strings.TrimSuffix(delay, "s"), 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return 0
}
