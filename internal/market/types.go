package market

// MACD summary values.
type MACD struct {
	Value     float64 `json:"value"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

type EMA struct {
	EMA50  float64 `json:"ema50"`
	EMA200 float64 `json:"ema200"`
}

type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

type TechnicalIndicators struct {
	RSI            float64        `json:"rsi"`
	MACD           MACD           `json:"macd"`
	EMA            EMA            `json:"ema"`
	BollingerBands BollingerBands `json:"bollinger_bands"`
	// Simulated is set when no candle source was available and the values
	// were synthesized around the current price.
	Simulated bool `json:"simulated,omitempty"`
}

type InterestRates struct {
	US float64 `json:"us"`
	EU float64 `json:"eu"`
	JP float64 `json:"jp"`
}

type Liquidity string

const (
	LiquidityExpanding   Liquidity = "EXPANDING"
	LiquidityContracting Liquidity = "CONTRACTING"
	LiquidityNeutral     Liquidity = "NEUTRAL"
)

type MacroData struct {
	InterestRates   InterestRates `json:"interest_rates"`
	DXY             float64       `json:"dxy"`
	VIX             float64       `json:"vix"`
	GlobalLiquidity Liquidity     `json:"global_liquidity"`
}

type NewsSentiment struct {
	// Score is -100..100, positive above 20, negative below -20.
	Score     float64  `json:"score"`
	Summary   string   `json:"summary"`
	KeyTopics []string `json:"key_topics"`
	Sources   int      `json:"sources"`
}

// Context is the structured market snapshot persisted with every analysis
// session. Degraded lists sub-sources that fell back to simulated values.
type Context struct {
	Technicals TechnicalIndicators `json:"technicals"`
	Macro      MacroData           `json:"macro"`
	News       NewsSentiment       `json:"news"`
	Degraded   []string            `json:"degraded,omitempty"`
}
