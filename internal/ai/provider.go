// Package ai turns a page map and a task prompt into raw action records
// using a hosted language model.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/v0xg/webagent/internal/pagemap"
	"go.uber.org/zap"
)

// Provider sends one system+user exchange to a model and returns its text
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config selects and tunes a provider
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	// RequestsPerMinute throttles Complete; zero means unlimited
	RequestsPerMinute int
	Burst             int
}

const (
	defaultMaxTokens   = 2000
	defaultTemperature = 0.8
)

// NewProvider creates a new AI provider based on the provider name
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case "claude", "anthropic":
		p, err = NewClaudeProvider(cfg)
	case "openai", "gpt":
		p, err = NewOpenAIProvider(cfg)
	case "gemini", "google", "":
		p, err = NewGeminiProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai, gemini)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithRateLimit(p, cfg.RequestsPerMinute, cfg.Burst), nil
}

// Generator asks a provider for the actions that perform a task on a page
type Generator struct {
	provider Provider
	logger   *zap.Logger
}

// NewGenerator wraps a provider
func NewGenerator(p Provider, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{provider: p, logger: logger.Named("ai")}
}

// GenerateActions returns the raw action records the model proposes for
// prompt on the page described by pageMap
func (g *Generator) GenerateActions(ctx context.Context, pageMap *pagemap.PageMap, prompt string, mc MessageContext) ([]map[string]any, error) {
	pageMapJSON, err := json.MarshalIndent(pageMap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal page map: %w", err)
	}

	user := buildUserPrompt(string(pageMapJSON), prompt, mc)
	g.logger.Debug("requesting actions",
		zap.String("provider", g.provider.Name()),
		zap.Int("elements", len(pageMap.Elements)),
	)

	text, err := g.provider.Complete(ctx, systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", g.provider.Name(), err)
	}
	if text == "" {
		return nil, fmt.Errorf("empty response from %s", g.provider.Name())
	}

	records, err := parseActionRecords(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s response as JSON: %w\nResponse: %s", g.provider.Name(), err, text)
	}
	g.logger.Debug("actions generated", zap.Int("count", len(records)))
	return records, nil
}

// apiKey returns explicit if set, else the first non-empty environment variable
func apiKey(explicit string, envs ...string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range envs {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
