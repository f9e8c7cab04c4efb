package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Message represents a chat message sent to a provider
type Message struct {
	Role    string `json:"role"` // "user", "assistant" or "system"
	Content string `json:"content"`
	// Timestamp is only forwarded to the gateway; vendor APIs never see it
	Timestamp string `json:"timestamp,omitempty"`
}

// withoutTimestamps strips Timestamp for vendor request bodies
func withoutTimestamps(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = Message{Role: m.Role, Content: m.Content}
	}
	return out
}

// Provider interface defines the common interface for all LLM providers
type Provider interface {
	// Chat sends the whole transcript and returns the complete reply (non-streaming)
	Chat(ctx context.Context, messages []Message) (string, error)

	// Name returns the provider name
	Name() string

	// Models returns the list of supported models
	Models() []string

	// ValidateConfig validates the provider configuration
	ValidateConfig() error
}

// Config represents provider configuration
type Config struct {
	ProviderName string // Display name for the provider
	APIKey       string
	BaseURL      string
	Model        string
	Models       []string // Available models list
	Timeout      int      // seconds
	MaxTokens    int
	Temperature  float64
	ProxyURL     string
}

// Provider kinds understood by NewProvider
const (
	KindOpenAI = "openai"
	KindOllama = "ollama"
	KindRemote = "remote"
)

// NewProvider builds a provider by kind. Unknown kinds are treated as OpenAI-compatible.
func NewProvider(kind string, config Config) (Provider, error) {
	switch strings.ToLower(kind) {
	case KindOllama:
		return NewOllamaProvider(config)
	case KindRemote:
		return NewRemoteProvider(config)
	default:
		return NewOpenAIProvider(config)
	}
}

// httpClient builds the transport shared by providers; proxyURL may be empty
func httpClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}
