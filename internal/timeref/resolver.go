// Package timeref resolves relative time references against an ordered
// series of daily quotes.
package timeref

import (
	"github.com/hika3390/jquants-backtest/internal/core"
)

// Resolve converts a relative time reference plus the current simulation
// index into a concrete historical index into quotes.
//
// Days and weeks are pure index arithmetic (a week counts as 7 trading
// rows); months, quarters and years subtract calendar months from the
// current row's date and scan backward for the last row on or before the
// target date. The asymmetry matches the stored configurations this
// engine replays, so unifying it would silently change results.
//
// Resolve never returns an index outside [0, currentIndex]; anything
// unresolvable degrades to 0.
func Resolve(currentIndex int, ref core.TimeReference, period int, quotes []core.Quote) int {
	if currentIndex < 0 {
		return 0
	}
	if ref == core.RefCurrent || period <= 0 {
		return currentIndex
	}

	switch ref {
	case core.RefDays:
		return clamp(currentIndex - period)
	case core.RefWeeks:
		return clamp(currentIndex - period*7)
	case core.RefMonths:
		return byCalendar(currentIndex, period, quotes)
	case core.RefQuarters:
		return byCalendar(currentIndex, period*3, quotes)
	case core.RefYears:
		return byCalendar(currentIndex, period*12, quotes)
	default:
		return currentIndex
	}
}

// byCalendar subtracts months from the date at currentIndex and scans
// backward for the last index whose date is on or before the target.
func byCalendar(currentIndex, months int, quotes []core.Quote) int {
	if currentIndex >= len(quotes) {
		return 0
	}
	target := quotes[currentIndex].Date.AddDate(0, -months, 0)

	for i := currentIndex; i >= 0; i-- {
		if !quotes[i].Date.After(target) {
			return i
		}
	}
	return 0
}

func clamp(i int) int {
	if i < 0 {
		return 0
	}
	return i
}
