package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodping/api/config"
)

type fakeProvider struct {
	text  string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, _, _ string) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func TestGatewayComplete(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		wantText string
		wantOK   bool
	}{
		{name: "success", provider: &fakeProvider{text: `{"analysis_text": "hi"}`}, wantText: `{"analysis_text": "hi"}`, wantOK: true},
		{name: "provider error", provider: &fakeProvider{err: errors.New("boom")}},
		{name: "blank completion", provider: &fakeProvider{text: "  \n"}},
		{name: "timeout", provider: &fakeProvider{text: "late", delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGateway(tt.provider, 50*time.Millisecond)
			text, ok := g.Complete(context.Background(), "sys", "user")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, 1, tt.provider.calls, "gateway must not retry")
		})
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(context.Background(), config.LLMConfig{Provider: "llama"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = New(context.Background(), config.LLMConfig{Provider: "", Timeout: time.Second})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewProviderSelectsVariant(t *testing.T) {
	p, err := NewProvider(context.Background(), config.LLMConfig{Provider: "OpenAI"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = NewProvider(context.Background(), config.LLMConfig{Provider: "claude"})
	require.NoError(t, err)
	assert.Equal(t, "claude", p.Name())

	_, err = NewProvider(context.Background(), config.LLMConfig{Provider: "gemini"})
	assert.Error(t, err, "gemini needs an API key at startup")
}

func TestGatewayReportsProviderName(t *testing.T) {
	g := NewGateway(&fakeProvider{}, time.Second)
	assert.Equal(t, "fake", g.Provider())
}
