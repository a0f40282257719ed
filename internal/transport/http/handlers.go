package httpapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"quorum/internal/consensus"
	"quorum/internal/learning"
	"quorum/internal/logger"
	"quorum/internal/paper"
	"quorum/internal/sizing"
	"quorum/internal/store"
	"quorum/internal/types"

	"github.com/gin-gonic/gin"
)

// Analyzer runs one consensus analysis. Satisfied by the orchestrator.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string, md types.MarketData) (consensus.Result, error)
}

// PriceFetcher returns quotes for a symbol list. Satisfied by the
// CoinGecko price service.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, symbols []string) map[string]types.MarketData
}

// Handlers carries every dependency the API needs.
type Handlers struct {
	Analyzer    Analyzer
	Prices      PriceFetcher
	Book        *paper.Book
	Learning    *learning.Logger
	Store       *store.Store
	Gate        paper.RiskGate
	Symbols     []string
	UserID      string
	Development bool
}

// Register wires all routes onto the /api group.
func (h *Handlers) Register(g *gin.RouterGroup) {
	g.POST("/analyze", h.analyze)
	g.GET("/prices", h.prices)
	g.GET("/positions", h.positions)
	g.POST("/learning/execute", h.executeTrade)
	g.POST("/learning/outcome", h.recordOutcome)
	g.GET("/learning/stats", h.learningStats)
	g.GET("/learning/export", h.exportTrainingData)
}

type analyzeRequest struct {
	Symbol     string            `json:"symbol"`
	MarketData *types.MarketData `json:"marketData"`
}

type analyzeResponse struct {
	types.TradingSignal
	SessionID string `json:"sessionId"`
}

func (h *Handlers) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing symbol. Must be a non-empty string."})
		return
	}
	if req.MarketData == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing marketData. Must be an object."})
		return
	}
	price := req.MarketData.Price
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price in marketData. Must be a positive finite number."})
		return
	}

	result, err := h.Analyzer.Analyze(c.Request.Context(), symbol, *req.MarketData)
	if err != nil {
		if errors.Is(err, consensus.ErrInvalidPrice) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}

	// Session logging must not fail the request; a fallback id is fine.
	sessionID := h.Learning.LogAnalysis(c.Request.Context(), *req.MarketData, result, false, "")

	c.JSON(http.StatusOK, analyzeResponse{TradingSignal: result.Signal, SessionID: sessionID})
}

func (h *Handlers) prices(c *gin.Context) {
	symbols := h.Symbols
	if raw := strings.TrimSpace(c.Query("symbols")); raw != "" {
		symbols = nil
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
	}
	if len(symbols) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No symbols requested"})
		return
	}
	c.JSON(http.StatusOK, h.Prices.FetchPrices(c.Request.Context(), symbols))
}

func (h *Handlers) positions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"balance":   h.Book.Balance(),
		"equity":    h.Book.Equity(),
		"drawdown":  h.Book.Drawdown(),
		"positions": h.Book.OpenPositions(),
	})
}

type tradeDetails struct {
	Symbol         string  `json:"symbol"`
	Direction      string  `json:"direction"`
	EntryPrice     float64 `json:"entry_price"`
	StopLoss       float64 `json:"stop_loss"`
	TakeProfit     float64 `json:"take_profit"`
	AIConfidence   float64 `json:"ai_confidence"`
	SignalStrength string  `json:"signal_strength"`
}

type executeRequest struct {
	SessionID    string        `json:"sessionId"`
	Size         float64       `json:"size"`
	TradeDetails *tradeDetails `json:"tradeDetails"`
}

// executeTrade opens a paper position for a logged session. The position
// insert and the session update commit together; if the session turns out
// not to exist the freshly opened position is unwound.
func (h *Handlers) executeTrade(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.SessionID == "" || req.TradeDetails == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	td := req.TradeDetails
	direction := types.Direction(strings.ToUpper(strings.TrimSpace(td.Direction)))
	if direction != types.DirectionLong && direction != types.DirectionShort {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid direction. Must be LONG or SHORT."})
		return
	}
	if td.EntryPrice <= 0 || td.StopLoss <= 0 || td.TakeProfit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry_price, stop_loss and take_profit must be positive"})
		return
	}

	signal := types.TradingSignal{
		Symbol:     strings.ToUpper(strings.TrimSpace(td.Symbol)),
		Strength:   types.SignalStrength(td.SignalStrength),
		Direction:  direction,
		Confidence: td.AIConfidence,
		EntryPrice: td.EntryPrice,
		StopLoss:   td.StopLoss,
		TakeProfit: td.TakeProfit,
	}
	if signal.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing symbol in tradeDetails"})
		return
	}

	decision := h.Gate.Evaluate(signal, h.Book.Drawdown())
	if !decision.CanTrade {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Risk checks failed", "decision": decision})
		return
	}

	size := req.Size
	rec := sizing.Recommendation{Size: size, Method: "Caller Specified"}
	if size <= 0 {
		stats, err := h.Store.HistoricalStats(c.Request.Context(), h.UserID)
		if err != nil {
			h.internalError(c, err)
			return
		}
		rec, err = sizing.CalculateOptimalSize(h.Book.Balance(), signal.Confidence, stats)
		if err != nil {
			h.internalError(c, err)
			return
		}
		size = rec.Size
	}

	pos, err := h.Book.Open(signal, size, req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Learning.Execute(c.Request.Context(), req.SessionID, pos); err != nil {
		if _, closeErr := h.Book.Close(pos.ID, pos.EntryPrice); closeErr != nil {
			logger.Errorf("failed to unwind position %s after execute failure: %v", pos.ID, closeErr)
		}
		if errors.Is(err, store.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "position": pos, "sizing": rec})
}

type outcomeRequest struct {
	SessionID   string  `json:"sessionId"`
	Outcome     string  `json:"outcome"`
	Pnl         float64 `json:"pnl"`
	PnlPercent  float64 `json:"pnlPercent"`
	CloseReason string  `json:"closeReason"`
}

func (h *Handlers) recordOutcome(c *gin.Context) {
	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.SessionID == "" || req.Outcome == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	outcome := types.Outcome(strings.ToUpper(strings.TrimSpace(req.Outcome)))
	switch outcome {
	case types.OutcomeWin, types.OutcomeLoss, types.OutcomeBreakEven:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid outcome. Must be WIN, LOSS or BREAK_EVEN."})
		return
	}

	err := h.Learning.RecordOutcome(c.Request.Context(), req.SessionID, outcome, req.Pnl, req.PnlPercent, types.CloseReason(req.CloseReason))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) learningStats(c *gin.Context) {
	stats, err := h.Learning.Stats(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) exportTrainingData(c *gin.Context) {
	examples, err := h.Store.ExportTrainingData(c.Request.Context(), h.UserID)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(examples), "examples": examples})
}

// internalError hides detail outside development builds.
func (h *Handlers) internalError(c *gin.Context, err error) {
	logger.Errorf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	msg := "Internal Server Error"
	if h.Development {
		msg = err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
