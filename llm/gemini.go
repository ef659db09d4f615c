package llm

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiProvider uses the Google GenAI SDK.
type GeminiProvider struct {
	client *genai.Client
	opts   Options
}

func NewGeminiProvider(ctx context.Context, opts Options) (*GeminiProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: GEMINI_API_KEY is required")
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	log.Printf("Gemini client ready: model=%s, max_tokens=%d", opts.Model, opts.MaxTokens)
	return &GeminiProvider{client: client, opts: opts}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	temperature := float32(p.opts.Temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		MaxOutputTokens:   int32(p.opts.MaxTokens),
		Temperature:       &temperature,
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.opts.Model, genai.Text(userPrompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate failed: %w", err)
	}

	if len(resp.Candidates) > 0 {
		if reason := resp.Candidates[0].FinishReason; reason != genai.FinishReasonStop {
			log.Warnf("Gemini finished abnormally: finish_reason=%s", reason)
		}
	}
	return resp.Text(), nil
}
