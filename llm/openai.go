package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when the config names no model
const DefaultOpenAIModel = openai.GPT3Dot5Turbo

// ErrNoResponse is returned when the completion has no usable content
var ErrNoResponse = errors.New("no response from OpenAI")

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint
type OpenAIProvider struct {
	api    *openai.Client
	config Config
}

// NewOpenAIProvider builds the client. A missing API key is only reported by ValidateConfig.
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	var timeout time.Duration
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}
	hc, err := httpClient(config.ProxyURL, timeout)
	if err != nil {
		return nil, err
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	apiConfig.HTTPClient = hc
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}

	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}
	if config.ProviderName == "" {
		config.ProviderName = "OpenAI Compatible"
	}

	return &OpenAIProvider{api: openai.NewClientWithConfig(apiConfig), config: config}, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// Chat sends the transcript and returns the first choice
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	// zero MaxTokens/Temperature are omitted, so server defaults apply
	resp, err := p.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   p.config.MaxTokens,
		Temperature: float32(p.config.Temperature),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoResponse
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrNoResponse
	}
	return content, nil
}

// Name returns the display name
func (p *OpenAIProvider) Name() string {
	return p.config.ProviderName
}

// Models lists configured models, falling back to a few well-known ones
func (p *OpenAIProvider) Models() []string {
	if len(p.config.Models) == 0 {
		return []string{openai.GPT3Dot5Turbo, openai.GPT4, openai.GPT4TurboPreview}
	}
	return p.config.Models
}

// ValidateConfig requires an API key
func (p *OpenAIProvider) ValidateConfig() error {
	if p.config.APIKey == "" {
		return errors.New("API key is required")
	}
	return nil
}
