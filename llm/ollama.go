package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OllamaProvider calls a local or remote Ollama daemon
type OllamaProvider struct {
	config Config
	client *resty.Client
}

// NewOllamaProvider fills in the local daemon defaults when BaseURL or timeout are unset
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Timeout == 0 {
		config.Timeout = 300 // local models can be slow to answer
	}
	if config.ProviderName == "" {
		config.ProviderName = "Ollama"
	}

	hc, err := httpClient(config.ProxyURL, 0)
	if err != nil {
		return nil, err
	}
	client := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(time.Duration(config.Timeout)*time.Second).
		SetHeader("Content-Type", "application/json")

	return &OllamaProvider{
		config: config,
		client: client,
	}, nil
}

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResponse struct {
	Model     string  `json:"model"`
	CreatedAt string  `json:"created_at"`
	Message   Message `json:"message"`
	Done      bool    `json:"done"`
}

// Chat posts to /api/chat with streaming off
func (p *OllamaProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	var chatResp ollamaChatResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(ollamaChatRequest{
			Model:    p.config.Model,
			Messages: withoutTimestamps(messages),
			Stream:   false,
		}).
		SetResult(&chatResp).
		Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode(), resp.String())
	}

	return chatResp.Message.Content, nil
}

// Name is the configured display name
func (p *OllamaProvider) Name() string {
	return p.config.ProviderName
}

// Models lists configured models or a few common pulls
func (p *OllamaProvider) Models() []string {
	if len(p.config.Models) > 0 {
		return p.config.Models
	}
	return []string{
		"llama2",
		"mistral",
		"codellama",
	}
}

// ValidateConfig only needs a base URL; Ollama has no API key
func (p *OllamaProvider) ValidateConfig() error {
	if p.config.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if p.config.Model == "" {
		return errors.New("model is required")
	}
	return nil
}
