package nutrition

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/option"
)

// GenerateRequest is one structured-output call to a text generation service.
type GenerateRequest struct {
	Model     string
	Prompt    string
	Schema    *Schema
	MaxTokens int
}

// Generator sends a prompt and returns the raw JSON text of the reply.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Provider identifies the AI service backend.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
)

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ProviderGemini, ProviderOpenAI, ProviderOllama, ProviderAnthropic:
		return p, nil
	}
	return "", fmt.Errorf("unknown AI provider: %q (expected gemini, openai, ollama or anthropic)", s)
}

// RequiresCredential reports whether the provider needs an API key.
// A local Ollama server does not.
func (p Provider) RequiresCredential() bool {
	return p != ProviderOllama
}

// DefaultModel returns the model used when none is configured.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderOllama:
		return "llama3.2"
	case ProviderAnthropic:
		return "claude-sonnet-4-20250514"
	default:
		return "gemini-2.5-flash"
	}
}

// DefaultBaseURL returns the API root used when none is configured.
// Anthropic has none here; the SDK knows its endpoint.
func (p Provider) DefaultBaseURL() string {
	switch p {
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	case ProviderOllama:
		return "http://localhost:11434/v1"
	case ProviderAnthropic:
		return ""
	default:
		return "https://generativelanguage.googleapis.com/v1beta/openai"
	}
}

// NewGenerator builds the backend for cfg.Provider.
func NewGenerator(cfg Config, httpClient *http.Client) Generator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = cfg.Provider.DefaultBaseURL()
	}

	if cfg.Provider == ProviderAnthropic {
		opts := []option.RequestOption{option.WithHTTPClient(httpClient)}
		if baseURL != "" {
			opts = append(opts, option.WithBaseURL(baseURL))
		}
		return NewAnthropicGenerator(cfg.APIKey, opts...)
	}
	return NewOpenAIGenerator(baseURL, cfg.APIKey, WithHTTPClient(httpClient))
}
