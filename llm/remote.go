package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RemoteProvider talks to a light-chat gateway's /api/chat route instead of a model vendor
type RemoteProvider struct {
	config Config
	client *resty.Client
}

type remoteChatRequest struct {
	Messages []Message `json:"messages"`
}

type remoteChatResponse struct {
	Message string `json:"message"`
}

type remoteErrorResponse struct {
	Error string `json:"error"`
}

// NewRemoteProvider creates a gateway client; BaseURL is the gateway root
func NewRemoteProvider(config Config) (*RemoteProvider, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8080"
	}
	if config.ProviderName == "" {
		config.ProviderName = "Gateway"
	}

	hc, err := httpClient(config.ProxyURL, 0)
	if err != nil {
		return nil, err
	}
	client := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetHeader("Content-Type", "application/json")
	if config.Timeout > 0 {
		client.SetTimeout(time.Duration(config.Timeout) * time.Second)
	}

	return &RemoteProvider{config: config, client: client}, nil
}

// Chat posts the transcript and returns the gateway's reply
func (p *RemoteProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	var result remoteChatResponse
	var failure remoteErrorResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(remoteChatRequest{Messages: messages}).
		SetResult(&result).
		SetError(&failure).
		Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	if resp.IsError() {
		if failure.Error != "" {
			return "", fmt.Errorf("gateway error (status %d): %s", resp.StatusCode(), failure.Error)
		}
		return "", fmt.Errorf("gateway error (status %d)", resp.StatusCode())
	}
	return result.Message, nil
}

// Name returns the provider name
func (p *RemoteProvider) Name() string {
	return p.config.ProviderName
}

// Models reports the configured model list; the gateway picks the model itself
func (p *RemoteProvider) Models() []string {
	return p.config.Models
}

// ValidateConfig validates the configuration
func (p *RemoteProvider) ValidateConfig() error {
	if p.config.BaseURL == "" {
		return errors.New("gateway URL is required")
	}
	return nil
}
