package indicator

// RSI calculates the relative strength index over trailing period
// deltas. The first period entries are 0 placeholders, not valid RSI
// values. When every delta in the window is a gain, average loss is zero
// and RS overflows to +Inf, which yields RSI 100; a fully flat window
// divides 0 by 0 and produces NaN, which no threshold comparison will
// match.
func RSI(closes []float64, period int) []float64 {
	result := make([]float64, len(closes))
	if period <= 0 {
		return result
	}

	for i := period; i < len(closes); i++ {
		var gains, losses float64
		for j := i - period; j < i; j++ {
			change := closes[j+1] - closes[j]
			if change > 0 {
				gains += change
			} else {
				losses -= change
			}
		}

		averageGain := gains / float64(period)
		averageLoss := losses / float64(period)

		rs := averageGain / averageLoss
		result[i] = 100 - 100/(1+rs)
	}
	return result
}
