package backtest

import (
	"time"

	"github.com/hika3390/jquants-backtest/internal/condition"
)

// ExitReason records why a position was closed
type ExitReason string

const (
	ExitSell       ExitReason = "sell"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
)

// Params configures one simulation run.
type Params struct {
	InitialCash float64 // starting cash, > 0
	MaxPosition float64 // max position size as percent of initial cash, (0, 100]

	Buy        condition.Group
	Sell       condition.Group
	TakeProfit condition.Group
	StopLoss   condition.Group
}

// Trade is an immutable record of a completed entry and exit.
type Trade struct {
	EntryDate     time.Time  `json:"entry_date"`
	ExitDate      time.Time  `json:"exit_date"`
	EntryPrice    float64    `json:"entry_price"`
	ExitPrice     float64    `json:"exit_price"`
	Quantity      int64      `json:"quantity"`
	ProfitLoss    float64    `json:"profit_loss"`
	ReturnPercent float64    `json:"return_percent"`
	ExitReason    ExitReason `json:"exit_reason"`
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.ProfitLoss > 0
}

// Result holds the complete backtest output. It is computed once at the
// end of a run and never mutated afterwards.
type Result struct {
	InitialCash float64     `json:"initial_cash"`
	FinalEquity float64     `json:"final_equity"`
	TotalReturn float64     `json:"total_return"` // percent
	WinRate     float64     `json:"win_rate"`     // percent; 0 when no trades closed
	MaxDrawdown float64     `json:"max_drawdown"` // percent
	SharpeRatio float64     `json:"sharpe_ratio"` // annualized; 0 when volatility is zero
	Trades      []Trade     `json:"trades"`
	Equity      []float64   `json:"equity"`
	Dates       []time.Time `json:"dates"`
}

// TotalTrades returns the number of closed trades.
func (r *Result) TotalTrades() int {
	return len(r.Trades)
}
