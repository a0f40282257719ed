package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatClient struct {
	content string
	tokens  int
	err     error

	lastSystem string
	lastUser   string
}

func (f *fakeChatClient) CallWithMessages(ctx context.Context, systemPrompt, userPrompt string) (ChatResult, error) {
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	if f.err != nil {
		return ChatResult{}, f.err
	}
	return ChatResult{Content: f.content, TokensUsed: f.tokens}, nil
}

type fixedPrompt string

func (p fixedPrompt) System() string { return string(p) }

func TestChatAdapterAnalyze(t *testing.T) {
	t.Run("normalizes confidence to unit scale", func(t *testing.T) {
		client := &fakeChatClient{
			content: `{"sentiment": 68, "confidence": 82, "reasoning": "accumulation pattern"}`,
			tokens:  321,
		}
		adapter := NewChatAdapter("gpt-4", client, fixedPrompt("You are a trading analyst."), true)

		analysis, err := adapter.Analyze(context.Background(), "BTC", "report body")
		require.NoError(t, err)
		assert.Equal(t, "gpt-4", analysis.Provider)
		assert.Equal(t, 68.0, analysis.Sentiment)
		assert.InDelta(t, 0.82, analysis.Confidence, 1e-9)
		assert.Equal(t, "accumulation pattern", analysis.Reasoning)
		assert.Equal(t, 321, analysis.TokensUsed)
		assert.False(t, analysis.Placeholder)

		assert.Equal(t, "You are a trading analyst.", client.lastSystem)
		assert.Contains(t, client.lastUser, "Analyze BTC")
		assert.Contains(t, client.lastUser, "report body")
	})

	t.Run("unconfigured adapter returns marked placeholder without a call", func(t *testing.T) {
		client := &fakeChatClient{err: errors.New("must not be called")}
		adapter := NewChatAdapter("claude", client, fixedPrompt("system"), false)

		analysis, err := adapter.Analyze(context.Background(), "ETH", "report")
		require.NoError(t, err)
		assert.True(t, analysis.Placeholder)
		assert.Equal(t, 60.0, analysis.Sentiment)
		assert.InDelta(t, 0.75, analysis.Confidence, 1e-9)
		assert.Empty(t, client.lastUser)
	})

	t.Run("transport error is wrapped with the provider name", func(t *testing.T) {
		client := &fakeChatClient{err: errors.New("connection refused")}
		adapter := NewChatAdapter("deepseek", client, fixedPrompt("system"), true)

		_, err := adapter.Analyze(context.Background(), "BTC", "report")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "deepseek")
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("malformed reply is rejected", func(t *testing.T) {
		client := &fakeChatClient{content: "sorry, no structured output"}
		adapter := NewChatAdapter("gpt-4", client, fixedPrompt("system"), true)

		_, err := adapter.Analyze(context.Background(), "BTC", "report")
		assert.ErrorIs(t, err, ErrMalformedReply)
	})
}
