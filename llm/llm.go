// Package llm puts the supported model providers behind one capability:
// turning a system prompt and a user prompt into text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"moodping/api/config"
	"moodping/api/metrics"
)

var (
	ErrUnknownProvider = errors.New("unknown LLM provider")
	ErrEmptyResponse   = errors.New("empty completion")
)

// Provider is one model vendor.
type Provider interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Completer is what the rest of the API depends on. ok is false on any
// failure; callers never learn why.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (text string, ok bool)
}

// Options are the generation settings every provider shares.
type Options struct {
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

// NewProvider builds the provider named in the config.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch name {
	case "openai":
		return NewOpenAIProvider(Options{
			Model:       cfg.OpenAIModel,
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}), nil
	case "claude":
		return NewClaudeProvider(Options{
			Model:       cfg.ClaudeModel,
			APIKey:      cfg.AnthropicAPIKey,
			BaseURL:     cfg.AnthropicBaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}), nil
	case "gemini":
		return NewGeminiProvider(ctx, Options{
			Model:       cfg.GeminiModel,
			APIKey:      cfg.GeminiAPIKey,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	default:
		return nil, fmt.Errorf("%w: '%s' (choose openai | gemini | claude)", ErrUnknownProvider, cfg.Provider)
	}
}

// New builds the configured provider wrapped in a Gateway.
func New(ctx context.Context, cfg config.LLMConfig) (*Gateway, error) {
	p, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("LLM provider: %s", p.Name())
	return NewGateway(p, cfg.Timeout), nil
}

// Gateway applies the per-call timeout and collapses every provider failure
// into an absent result. It never retries.
type Gateway struct {
	provider Provider
	timeout  time.Duration
}

func NewGateway(p Provider, timeout time.Duration) *Gateway {
	return &Gateway{provider: p, timeout: timeout}
}

func (g *Gateway) Provider() string {
	return g.provider.Name()
}

func (g *Gateway) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.provider.Generate(ctx, systemPrompt, userPrompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	elapsed := time.Since(start)

	entry := log.WithFields(log.Fields{
		"provider":   g.provider.Name(),
		"elapsed_ms": elapsed.Milliseconds(),
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.RecordLLMCall(g.provider.Name(), outcome, elapsed)
		entry.WithField("outcome", outcome).Errorf("LLM call failed: %v", err)
		return "", false
	}

	metrics.RecordLLMCall(g.provider.Name(), "success", elapsed)
	entry.Infof("LLM response length: %d chars", len(text))
	return text, true
}
