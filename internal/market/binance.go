package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
)

const maxCandleLimit = 1000

// BinanceSource implements CandleSource over the Binance spot klines API.
// No credentials are needed for public market data.
type BinanceSource struct {
	client *binance.Client
	quote  string
}

func NewBinanceSource(quoteCurrency string, timeout time.Duration) *BinanceSource {
	client := binance.NewClient("", "")
	if timeout > 0 {
		client.HTTPClient.Timeout = timeout
	}
	quote := strings.ToUpper(strings.TrimSpace(quoteCurrency))
	if quote == "" {
		quote = "EUR"
	}
	return &BinanceSource{client: client, quote: quote}
}

func (s *BinanceSource) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	if limit <= 0 {
		limit = 250
	}
	if limit > maxCandleLimit {
		limit = maxCandleLimit
	}
	pair := s.exchangeSymbol(symbol)
	if pair == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	kls, err := s.client.NewKlinesService().Symbol(pair).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	return out, nil
}

// exchangeSymbol maps "BTC" or "BTC/EUR" to the slash-free pair Binance
// expects, e.g. BTCEUR.
func (s *BinanceSource) exchangeSymbol(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return ""
	}
	if base, _, found := strings.Cut(sym, "/"); found {
		sym = base
	}
	return sym + s.quote
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
