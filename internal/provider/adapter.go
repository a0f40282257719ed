package provider

import (
	"context"
	"fmt"
	"time"

	"quorum/internal/logger"
	"quorum/internal/types"
)

// SystemPromptSource supplies the analyst system prompt. Hot-reloadable
// implementations live in internal/prompt.
type SystemPromptSource interface {
	System() string
}

// ChatAdapter is the standard Adapter over an OpenAI-compatible chat
// endpoint. Credentials arrive via the constructor; the adapter never
// reads process environment itself.
type ChatAdapter struct {
	name       string
	client     ChatClient
	prompts    SystemPromptSource
	configured bool
}

func NewChatAdapter(name string, client ChatClient, prompts SystemPromptSource, configured bool) *ChatAdapter {
	return &ChatAdapter{name: name, client: client, prompts: prompts, configured: configured}
}

func (a *ChatAdapter) Name() string     { return a.name }
func (a *ChatAdapter) Configured() bool { return a.configured }

// Analyze sends the market report to the provider and validates the
// structured reply. The report string is embedded unmodified.
func (a *ChatAdapter) Analyze(ctx context.Context, symbol, report string) (types.AIAnalysis, error) {
	if !a.configured {
		return a.placeholder(symbol), nil
	}

	system := a.prompts.System()
	user := fmt.Sprintf("Analyze %s using the comprehensive market intelligence below:\n\n%s", symbol, report)
	logger.LogLLMRequest(a.name, system, user)

	start := time.Now()
	res, err := a.client.CallWithMessages(ctx, system, user)
	elapsed := time.Since(start)
	if err != nil {
		return types.AIAnalysis{}, fmt.Errorf("%s call failed: %w", a.name, err)
	}
	logger.LogLLMResponse(a.name, res.Content)

	reply, err := parseReply(res.Content)
	if err != nil {
		return types.AIAnalysis{}, fmt.Errorf("%s reply rejected: %w", a.name, err)
	}
	return types.AIAnalysis{
		Provider:       a.name,
		Sentiment:      reply.Sentiment,
		Confidence:     reply.Confidence / 100, // normalize to [0,1]
		Reasoning:      reply.Reasoning,
		TokensUsed:     res.TokensUsed,
		ResponseTimeMs: elapsed.Milliseconds(),
	}, nil
}

// placeholder keeps the system usable without credentials. The analysis is
// explicitly marked so callers can tell demo mode from a genuine opinion.
func (a *ChatAdapter) placeholder(symbol string) types.AIAnalysis {
	return types.AIAnalysis{
		Provider:    a.name,
		Sentiment:   60,
		Confidence:  0.75,
		Reasoning:   fmt.Sprintf("Demo analysis for %s: no credentials configured for %s, returning a neutral-to-constructive placeholder.", symbol, a.name),
		Placeholder: true,
	}
}
