package market

import "math/rand"

// FetchMacro returns the macroeconomic snapshot. Values are simulated in
// realistic ranges; a production deployment would source them from FRED or
// a market data vendor.
func FetchMacro() MacroData {
	return MacroData{
		InterestRates: InterestRates{
			US: 5.25 + rand.Float64()*0.5,
			EU: 4.0 + rand.Float64()*0.5,
			JP: 0.1 + rand.Float64()*0.2,
		},
		DXY:             103 + rand.Float64()*3,
		VIX:             15 + rand.Float64()*10,
		GlobalLiquidity: drawLiquidity(),
	}
}

func drawLiquidity() Liquidity {
	r := rand.Float64()
	switch {
	case r < 0.3:
		return LiquidityContracting
	case r < 0.7:
		return LiquidityNeutral
	default:
		return LiquidityExpanding
	}
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

type MacroReading struct {
	CryptoFriendly bool
	Risk           RiskLevel
	Warnings       []string
}

// AnalyzeMacroImpact scores macro conditions for crypto market impact.
func AnalyzeMacroImpact(m MacroData) MacroReading {
	var warnings []string
	score := 0.0

	if m.InterestRates.US-m.InterestRates.JP > 5 {
		warnings = append(warnings, "High US-JP rate differential: carry trade unwinding risk")
		score += 30
	}
	if m.InterestRates.US > 5.5 {
		warnings = append(warnings, "High US rates: risk-off environment for crypto")
		score += 20
	}

	if m.DXY > 105 {
		warnings = append(warnings, "Strong USD: typically bearish for crypto")
		score += 20
	} else if m.DXY < 100 {
		warnings = append(warnings, "Weak USD: bullish for crypto")
		score -= 20
	}

	if m.VIX > 25 {
		warnings = append(warnings, "High VIX: market fear, risk assets under pressure")
		score += 30
	} else if m.VIX < 15 {
		warnings = append(warnings, "Low VIX: calm markets, supportive for risk assets")
		score -= 10
	}

	switch m.GlobalLiquidity {
	case LiquidityContracting:
		warnings = append(warnings, "Global liquidity contracting: headwind for crypto")
		score += 25
	case LiquidityExpanding:
		warnings = append(warnings, "Global liquidity expanding: tailwind for crypto")
		score -= 25
	}

	risk := RiskMedium
	if score < 20 {
		risk = RiskLow
	} else if score > 50 {
		risk = RiskHigh
	}
	return MacroReading{CryptoFriendly: score < 20, Risk: risk, Warnings: warnings}
}
