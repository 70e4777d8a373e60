package indicator

import "math"

// Bands holds Bollinger band series aligned with the input prices.
type Bands struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// Bollinger calculates bands at k population standard deviations around
// the simple moving average. Entries before a full window are NaN.
func Bollinger(prices []float64, period int, k float64) Bands {
	middle := SMA(prices, period)
	upper := make([]float64, len(prices))
	lower := make([]float64, len(prices))

	for i := range prices {
		if i < period-1 || period <= 0 {
			upper[i] = math.NaN()
			lower[i] = math.NaN()
			continue
		}

		var variance float64
		for j := i - period + 1; j <= i; j++ {
			diff := prices[j] - middle[i]
			variance += diff * diff
		}
		sigma := math.Sqrt(variance / float64(period))

		upper[i] = middle[i] + k*sigma
		lower[i] = middle[i] - k*sigma
	}

	return Bands{Middle: middle, Upper: upper, Lower: lower}
}
