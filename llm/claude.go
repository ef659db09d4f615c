package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

// ClaudeProvider calls the Anthropic messages endpoint.
type ClaudeProvider struct {
	opts       Options
	httpClient *http.Client
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewClaudeProvider(opts Options) *ClaudeProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.anthropic.com/v1"
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 600
	}
	return &ClaudeProvider{opts: opts, httpClient: &http.Client{}}
}

func (p *ClaudeProvider) Name() string { return "claude" }

func (p *ClaudeProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if p.opts.APIKey == "" {
		return "", fmt.Errorf("claude: API key not configured")
	}

	body, err := json.Marshal(claudeRequest{
		Model:       p.opts.Model,
		MaxTokens:   p.opts.MaxTokens,
		System:      systemPrompt,
		Messages:    []claudeMessage{{Role: "user", Content: userPrompt}},
		Temperature: p.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("claude: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.opts.BaseURL, "/")+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("claude: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.opts.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("claude: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claude: API returned status %d: %s", resp.StatusCode, truncateBody(raw))
	}

	var parsed claudeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("claude: failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("claude: API error: %s", parsed.Error.Message)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("claude: no text content returned")
	}
	return sb.String(), nil
}
