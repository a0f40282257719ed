package provider

import (
	"strings"
	"time"

	"quorum/internal/config"
	"quorum/internal/logger"
)

// BuildAdaptersFromConfig constructs one adapter per enabled model, in
// declaration order. Models without an API key become unconfigured
// (demo-mode) adapters rather than being dropped.
func BuildAdaptersFromConfig(models []config.ModelConfig, prompts SystemPromptSource, timeout time.Duration) []Adapter {
	out := make([]Adapter, 0, len(models))
	for _, m := range models {
		if !m.Enabled {
			continue
		}
		key := strings.TrimSpace(m.APIKey)
		client := &OpenAIChatClient{
			BaseURL: m.APIURL,
			APIKey:  key,
			Model:   m.Model,
			Timeout: timeout,
		}
		if key == "" {
			logger.Warnf("model %s has no API key, running in demo mode", m.ID)
		}
		out = append(out, NewChatAdapter(m.ID, client, prompts, key != ""))
	}
	return out
}
