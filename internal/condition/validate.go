package condition

import (
	"fmt"

	"github.com/hika3390/jquants-backtest/internal/core"
)

var technicalIndicators = map[string]struct{}{
	IndPrice:             {},
	IndPriceComparison:   {},
	IndProfitLossPercent: {},
	IndProfitLossAmount:  {},
	IndMA:                {},
	IndRSI:               {},
	IndBollinger:         {},
}

// Known reports whether the indicator identifier is in the supported
// set.
func Known(indicator string) bool {
	if _, ok := fieldSelectors[indicator]; ok {
		return true
	}
	if _, ok := categoricalSelectors[indicator]; ok {
		return true
	}
	_, ok := technicalIndicators[indicator]
	return ok
}

// ValidateGroup rejects structurally broken groups before a run starts:
// empty groups, unknown indicators and malformed operators. Everything
// it lets through is safe to evaluate on any series.
func ValidateGroup(name string, g Group) error {
	if len(g.Conditions) == 0 {
		return core.WrapError(core.ErrEmptyConditions, fmt.Errorf("group %q", name))
	}

	for i, c := range g.Conditions {
		if !Known(c.Indicator) {
			return core.WrapError(core.ErrUnknownIndicator,
				fmt.Errorf("group %q condition %d: %q", name, i, c.Indicator))
		}
		if err := validOperator(c); err != nil {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("group %q condition %d: %w", name, i, err))
		}
	}
	return nil
}

func validOperator(c Condition) error {
	op, present := c.Params[ParamOperator]
	if !present {
		return nil // defaults apply
	}
	s, ok := op.(string)
	if !ok {
		return fmt.Errorf("operator must be a string, got %T", op)
	}
	switch core.Operator(s) {
	case core.OpGT, core.OpLT, core.OpGTE, core.OpLTE, core.OpEQ, core.OpNEQ:
		return nil
	case core.OpDisabled:
		// Only meaningful for position exits, harmless elsewhere.
		return nil
	default:
		return fmt.Errorf("unknown operator %q", s)
	}
}
