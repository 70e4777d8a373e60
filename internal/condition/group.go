package condition

import "github.com/hika3390/jquants-backtest/internal/core"

// EvaluateGroup combines the group's condition signals into a single
// decision: AND requires every condition favorable, OR any. Neutral
// signals count as not-favorable.
func (e *Evaluator) EvaluateGroup(g Group, idx int, pos *core.Position) bool {
	if len(g.Conditions) == 0 {
		return false
	}

	if g.Operator == OpOr {
		for _, c := range g.Conditions {
			if e.Evaluate(c, idx, pos) == SignalBuy {
				return true
			}
		}
		return false
	}

	for _, c := range g.Conditions {
		if e.Evaluate(c, idx, pos) != SignalBuy {
			return false
		}
	}
	return true
}
