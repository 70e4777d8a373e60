// Package indicator holds the series computations behind the condition
// evaluator. All functions return a slice aligned with the input: entries
// before a full window exists are NaN (or 0 for RSI) and must be treated
// as "no opinion" by callers.
package indicator

import "math"

// MAType selects the moving average flavor
type MAType string

const (
	TypeSMA MAType = "SMA"
	TypeEMA MAType = "EMA"
)

// SMA calculates a simple moving average over period values.
func SMA(prices []float64, period int) []float64 {
	result := make([]float64, len(prices))
	if period <= 0 {
		for i := range result {
			result[i] = math.NaN()
		}
		return result
	}

	var sum float64
	for i := range prices {
		sum += prices[i]
		if i >= period {
			sum -= prices[i-period]
		}
		if i < period-1 {
			result[i] = math.NaN()
			continue
		}
		result[i] = sum / float64(period)
	}
	return result
}

// EMA calculates an exponential moving average, seeded with the SMA of
// the first period values.
func EMA(prices []float64, period int) []float64 {
	result := make([]float64, len(prices))
	if period <= 0 || len(prices) < period {
		for i := range result {
			result[i] = math.NaN()
		}
		return result
	}

	multiplier := 2.0 / float64(period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
		if i < period-1 {
			result[i] = math.NaN()
		}
	}
	ema := sum / float64(period)
	result[period-1] = ema

	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		result[i] = ema
	}
	return result
}

// MovingAverage dispatches on the MA type; unknown types fall back
// to SMA.
func MovingAverage(prices []float64, period int, t MAType) []float64 {
	if t == TypeEMA {
		return EMA(prices, period)
	}
	return SMA(prices, period)
}
