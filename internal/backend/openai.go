package backend

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAI translates with the chat completion API. BaseURL points it at any
// OpenAI compatible server such as Ollama or Groq.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  *openai.Client
}

// NewOpenAI creates an OpenAI backend
func NewOpenAI(cfg Config) *OpenAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAI{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   model,
		client:  openai.NewClientWithConfig(clientConfig),
	}
}

// Translate sends one chat completion request
func (o *OpenAI) Translate(ctx context.Context, text, sourceLocale, targetLocale string) (string, error) {
	// Local OpenAI compatible servers usually run without a key
	if o.apiKey == "" && o.baseURL == "" {
		return "", Permanent(fmt.Errorf("OpenAI API key not found"))
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(text, sourceLocale, targetLocale),
			},
		},
		Temperature: 0.2,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(fmt.Errorf("OpenAI API error: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", Transient(fmt.Errorf("no translation returned"), 0)
	}

	translation := cleanResponse(text, resp.Choices[0].Message.Content)
	if translation == "" {
		return "", Transient(fmt.Errorf("empty translation returned"), 0)
	}
	return translation, nil
}

func classifyOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err, parseRetryHint(apiErr.Message))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err, 0)
	}

	return Transient(err, 0)
}

var retryHint = regexp.MustCompile(`(?i)try again in (\d+(?:\.\d+)?)\s*(ms|s)\b`)

// parseRetryHint reads delays such as "Please try again in 1.5s" from a
// rate limit message.
func parseRetryHint(message string) time.Duration {
	m := retryHint.FindStringSubmatch(message)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if m[2] == "ms" {
		return time.Duration(value * float64(time.Millisecond))
	}
	return time.Duration(value * float64(time.Second))
}
