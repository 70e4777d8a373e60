// Package backtest is the simulation engine: a deterministic,
// single-pass replay of a daily quote series that evaluates
// user-configured condition groups, manages a single open position and
// derives performance statistics from the completed trade log.
package backtest

import (
	"math"
	"time"

	"github.com/hika3390/jquants-backtest/internal/condition"
	"github.com/hika3390/jquants-backtest/internal/core"
)

// Backtester holds the mutable state of one simulation run. Construct a
// fresh one per run; instances are not safe for concurrent use and are
// never shared.
type Backtester struct {
	quotes []core.Quote
	params Params
	eval   *condition.Evaluator

	cash     float64
	position *core.Position
	trades   []Trade
	equity   []float64
	dates    []time.Time
}

// New validates the configuration and creates a run. Structural
// problems (no data, bad cash or position bounds, empty groups, unknown
// indicators) are rejected here, before any simulation happens;
// Run itself cannot fail.
func New(quotes []core.Quote, params Params) (*Backtester, error) {
	if len(quotes) == 0 {
		return nil, core.ErrNoData
	}
	if params.InitialCash <= 0 {
		return nil, core.ErrInvalidCash
	}
	if params.MaxPosition <= 0 || params.MaxPosition > 100 {
		return nil, core.ErrInvalidPosition
	}

	groups := []struct {
		name string
		g    condition.Group
	}{
		{"buy", params.Buy},
		{"sell", params.Sell},
		{"take_profit", params.TakeProfit},
		{"stop_loss", params.StopLoss},
	}
	for _, g := range groups {
		if err := condition.ValidateGroup(g.name, g.g); err != nil {
			return nil, err
		}
	}

	return &Backtester{
		quotes: quotes,
		params: params,
		eval:   condition.NewEvaluator(quotes),
		cash:   params.InitialCash,
	}, nil
}

// Run replays the series day by day and returns the completed result.
// Identical inputs produce bit-identical results: there is no
// randomness and no wall-clock dependence inside the engine.
func (b *Backtester) Run() *Result {
	for i, quote := range b.quotes {
		b.step(i, quote)
		b.markEquity(quote)
	}

	// Force close at the last observation if still holding.
	if b.position != nil {
		b.closePosition(b.quotes[len(b.quotes)-1], ExitSell)
	}

	return b.results()
}

// step applies the per-day transition. Exits are checked in fixed
// priority order: stop-loss, then take-profit, then the generic sell
// group. The order decides which exit reason a trade records when
// several conditions are true on the same day.
func (b *Backtester) step(i int, quote core.Quote) {
	if b.position == nil {
		if b.eval.EvaluateGroup(b.params.Buy, i, nil) {
			b.openPosition(quote)
		}
		return
	}

	switch {
	case b.eval.EvaluateGroup(b.params.StopLoss, i, b.position):
		b.closePosition(quote, ExitStopLoss)
	case b.eval.EvaluateGroup(b.params.TakeProfit, i, b.position):
		b.closePosition(quote, ExitTakeProfit)
	case b.eval.EvaluateGroup(b.params.Sell, i, b.position):
		b.closePosition(quote, ExitSell)
	}
}

// openPosition buys at close, capped by the configured share of initial
// cash. Insufficient funds is silently a no-op, not an error.
func (b *Backtester) openPosition(quote core.Quote) {
	maxQuantity := int64(math.Floor(b.params.InitialCash * b.params.MaxPosition / 100 / quote.Close))
	quantity := int64(math.Floor(b.cash / quote.Close))
	if maxQuantity < quantity {
		quantity = maxQuantity
	}
	if quantity <= 0 {
		return
	}

	b.position = &core.Position{
		EntryPrice: quote.Close,
		Quantity:   quantity,
		EntryDate:  quote.Date,
	}
	b.cash -= float64(quantity) * quote.Close
}

func (b *Backtester) closePosition(quote core.Quote, reason ExitReason) {
	pos := b.position

	b.trades = append(b.trades, Trade{
		EntryDate:     pos.EntryDate,
		ExitDate:      quote.Date,
		EntryPrice:    pos.EntryPrice,
		ExitPrice:     quote.Close,
		Quantity:      pos.Quantity,
		ProfitLoss:    (quote.Close - pos.EntryPrice) * float64(pos.Quantity),
		ReturnPercent: (quote.Close - pos.EntryPrice) / pos.EntryPrice * 100,
		ExitReason:    reason,
	})

	b.cash += quote.Close * float64(pos.Quantity)
	b.position = nil
}

// markEquity appends one equity point: cash plus the mark-to-market
// value of any open position. Appended every day whether or not a
// transition occurred.
func (b *Backtester) markEquity(quote core.Quote) {
	equity := b.cash
	if b.position != nil {
		equity += float64(b.position.Quantity) * quote.Close
	}
	b.equity = append(b.equity, equity)
	b.dates = append(b.dates, quote.Date)
}

func (b *Backtester) results() *Result {
	r := &Result{
		InitialCash: b.params.InitialCash,
		FinalEquity: b.equity[len(b.equity)-1],
		Trades:      b.trades,
		Equity:      b.equity,
		Dates:       b.dates,
	}
	calculateStats(r)
	return r
}
