// Package nutrition queries a generative AI service for nutrition facts
// and recipe suggestions and validates the structured reply.
package nutrition

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/robertmeta/nutriinfo-cli/model"
	"go.uber.org/zap"
)

// Config selects and parameterizes the AI backend.
type Config struct {
	Provider       Provider
	Model          string
	APIKey         string
	BaseURL        string
	MaxTokens      int
	IncludeRecipes bool
}

// Client performs nutrition lookups. It is safe for concurrent use.
type Client struct {
	cfg        Config
	gen        Generator
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithGenerator replaces the backend chosen from the config.
func WithGenerator(g Generator) ClientOption {
	return func(c *Client) { c.gen = g }
}

// WithClientHTTP sets the HTTP client handed to the default backend.
func WithClientHTTP(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client. A nil logger discards output.
func New(cfg Config, logger *zap.Logger, opts ...ClientOption) *Client {
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	if cfg.Model == "" {
		cfg.Model = cfg.Provider.DefaultModel()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	if c.gen == nil {
		c.gen = NewGenerator(cfg, c.httpClient)
	}
	return c
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Lookup asks the service about one food. It makes at most one request.
// Failures are *Error values; use KindOf to classify them.
func (c *Client) Lookup(ctx context.Context, query string, lang model.Language) (*model.NutritionRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, generic(errEmptyQuery)
	}
	if c.cfg.Provider.RequiresCredential() && strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, &Error{Kind: model.ErrorMissingCredential}
	}

	log := c.logger.With(
		zap.String("query", query),
		zap.String("provider", string(c.cfg.Provider)),
		zap.String("model", c.cfg.Model),
	)

	start := time.Now()
	text, err := c.gen.Generate(ctx, GenerateRequest{
		Model:     c.cfg.Model,
		Prompt:    BuildPrompt(query, lang, c.cfg.IncludeRecipes),
		Schema:    NutritionSchema(c.cfg.IncludeRecipes),
		MaxTokens: c.cfg.MaxTokens,
	})
	if err != nil {
		log.Error("nutrition request failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return nil, generic(err)
	}

	if strings.TrimSpace(text) == "" {
		log.Warn("nutrition service returned an empty body")
		return nil, generic(errEmptyResponse)
	}

	rec, err := Parse(text, c.cfg.IncludeRecipes)
	if err != nil {
		if errors.Is(err, errEmptyResponse) {
			log.Warn("nutrition service returned an empty payload")
		} else {
			log.Error("nutrition payload rejected", zap.Error(err))
		}
		return nil, generic(err)
	}

	log.Debug("nutrition lookup done",
		zap.String("food", rec.FoodName),
		zap.Int("recipes", len(rec.Recipes)),
		zap.Duration("took", time.Since(start)))
	return rec, nil
}
