package backtest

import (
	"math"
)

// tradingDaysPerYear is the annualization factor for the Sharpe ratio.
const tradingDaysPerYear = 252

// calculateStats fills in the summary statistics from the completed
// trade log and equity curve.
//
// Two degenerate cases are reported as 0 rather than NaN so results
// stay JSON-encodable: win rate with zero trades (TotalTrades lets
// callers tell "no trades" apart from "0% wins"), and Sharpe with zero
// equity volatility.
func calculateStats(r *Result) {
	r.TotalReturn = (r.FinalEquity - r.InitialCash) / r.InitialCash * 100
	r.WinRate = calculateWinRate(r.Trades)
	r.MaxDrawdown = calculateMaxDrawdown(r.Equity)
	r.SharpeRatio = calculateSharpeRatio(r.Equity)
}

func calculateWinRate(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}

	var winning int
	for _, t := range trades {
		if t.IsWin() {
			winning++
		}
	}
	return float64(winning) / float64(len(trades)) * 100
}

// calculateMaxDrawdown finds the largest peak-to-trough decline of the
// equity curve, as a percent of the peak.
func calculateMaxDrawdown(equity []float64) float64 {
	var maxDD float64
	peak := math.Inf(-1)

	for _, e := range equity {
		if e > peak {
			peak = e
		}
		dd := (peak - e) / peak * 100
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// calculateSharpeRatio computes the annualized risk-adjusted return
// from daily equity returns, assuming a zero risk-free rate and using
// the population standard deviation.
func calculateSharpeRatio(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}

	// Day 0 contributes a zero return, like the curve it came from.
	returns := make([]float64, len(equity))
	for i := 1; i < len(equity); i++ {
		returns[i] = (equity[i] - equity[i-1]) / equity[i-1]
	}

	var sum float64
	for _, ret := range returns {
		sum += ret
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, ret := range returns {
		variance += (ret - mean) * (ret - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)))

	if stdDev == 0 {
		return 0
	}
	return mean * tradingDaysPerYear / (stdDev * math.Sqrt(tradingDaysPerYear))
}
