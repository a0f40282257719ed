package market

import (
	"fmt"
	"math/rand"
	"strings"
)

var (
	positiveTopics = []string{
		"Institutional adoption",
		"ETF inflows",
		"Network upgrade success",
		"Major partnerships",
		"Regulatory clarity",
	}
	negativeTopics = []string{
		"Regulatory concerns",
		"Market volatility",
		"Exchange issues",
		"Security breaches",
		"Macro headwinds",
	}
	neutralTopics = []string{
		"Price consolidation",
		"Technical analysis",
		"Market analysis",
		"Volume trends",
	}
)

// FetchNewsSentiment returns the news sentiment snapshot for a symbol.
// Simulated for now; the summary and topics stay consistent with the
// drawn score so providers see a coherent picture.
func FetchNewsSentiment(symbol string) NewsSentiment {
	base, _, _ := strings.Cut(symbol, "/")

	score := (rand.Float64() - 0.5) * 100
	summary, topics := contextualSummary(base, score)

	return NewsSentiment{
		Score:     score,
		Summary:   summary,
		KeyTopics: topics,
		Sources:   rand.Intn(50) + 20,
	}
}

func contextualSummary(asset string, score float64) (string, []string) {
	switch {
	case score > 20:
		topics := positiveTopics[:3]
		return fmt.Sprintf("Positive sentiment around %s. Key drivers: %s.", asset, strings.Join(topics[:2], ", ")), topics
	case score < -20:
		topics := negativeTopics[:3]
		return fmt.Sprintf("Cautious sentiment for %s. Concerns: %s.", asset, strings.Join(topics[:2], ", ")), topics
	default:
		topics := neutralTopics[:3]
		return fmt.Sprintf("Mixed sentiment for %s. Market awaiting catalysts.", asset), topics
	}
}
