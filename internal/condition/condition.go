// Package condition evaluates user-configured trading conditions
// against a quote series. A condition names one indicator from a fixed
// set; groups combine conditions under AND/OR into a buy, sell,
// take-profit or stop-loss decision.
package condition

import (
	"github.com/hika3390/jquants-backtest/internal/core"
)

// Indicator identifiers. The set is closed: anything else is rejected
// during validation, before the simulation loop starts.
const (
	IndPrice           = "price"
	IndPriceComparison = "price_comparison"

	IndVolume            = "volume"
	IndTurnoverValue     = "turnover_value"
	IndSharesOutstanding = "shares_outstanding"
	IndMarketCap         = "market_cap"

	IndPER           = "per"
	IndPBR           = "pbr"
	IndDividendYield = "dividend_yield"
	IndEPS           = "eps"
	IndBPS           = "bps"
	IndROE           = "roe"
	IndROA           = "roa"
	IndEquityRatio   = "equity_ratio"

	IndRevenue         = "revenue"
	IndOperatingIncome = "operating_income"
	IndOrdinaryIncome  = "ordinary_income"
	IndNetIncome       = "net_income"
	IndTotalAssets     = "total_assets"
	IndNetAssets       = "net_assets"
	IndCashFlow        = "cash_flow"

	IndMarket   = "market"
	IndIndustry = "industry"
	IndSector   = "sector"

	IndProfitLossPercent = "profit_loss_percent"
	IndProfitLossAmount  = "profit_loss_amount"

	IndMA        = "ma"
	IndRSI       = "rsi"
	IndBollinger = "bollinger"
)

// Parameter map keys. Which keys a condition carries depends on its
// indicator; missing keys read as documented defaults.
const (
	ParamOperator   = "operator"
	ParamValue      = "value"
	ParamTimeRef    = "time_reference"
	ParamRefPeriod  = "reference_period"
	ParamPriceType  = "price_type"
	ParamTimeRef2   = "time_reference2"
	ParamRefPeriod2 = "reference_period2"
	ParamPriceType2 = "price_type2"
	ParamMAType     = "ma_type"
	ParamCompareTo  = "compare_to" // "price" or "ma"
	ParamComparePd  = "compare_period"
	ParamOverbought = "overbought"
	ParamOversold   = "oversold"
	ParamMultiplier = "multiplier" // bollinger band width in sigmas
)

// Signal is the ternary outcome of evaluating one condition.
type Signal int

const (
	SignalSell    Signal = -1 // unfavorable
	SignalNeutral Signal = 0  // no opinion: do not act
	SignalBuy     Signal = 1  // favorable
)

// Condition is a single indicator check. Period is the indicator window
// (1 when irrelevant); Params is the open parameter map supplied by
// configuration. Conditions are never mutated by the engine.
type Condition struct {
	Indicator string         `json:"indicator" mapstructure:"indicator"`
	Period    int            `json:"period" mapstructure:"period"`
	Params    map[string]any `json:"params" mapstructure:"params"`
}

// LogicalOperator combines conditions within a group
type LogicalOperator string

const (
	OpAnd LogicalOperator = "AND"
	OpOr  LogicalOperator = "OR"
)

// Group is an ordered, non-empty list of conditions combined under a
// logical operator. One group each exists for buy, sell, take-profit
// and stop-loss.
type Group struct {
	Conditions []Condition     `json:"conditions" mapstructure:"conditions"`
	Operator   LogicalOperator `json:"operator" mapstructure:"operator"`
}

// floatParam reads a numeric parameter, tolerating the numeric types
// JSON and viper decode into.
func (c Condition) floatParam(key string, fallback float64) float64 {
	v, ok := c.Params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return fallback
	}
}

func (c Condition) intParam(key string, fallback int) int {
	return int(c.floatParam(key, float64(fallback)))
}

func (c Condition) stringParam(key, fallback string) string {
	if s, ok := c.Params[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func (c Condition) operator() core.Operator {
	return core.Operator(c.stringParam(ParamOperator, string(core.OpGT)))
}

func (c Condition) timeRef() (core.TimeReference, int) {
	return core.TimeReference(c.stringParam(ParamTimeRef, string(core.RefCurrent))),
		c.intParam(ParamRefPeriod, 0)
}

func (c Condition) timeRef2() (core.TimeReference, int) {
	return core.TimeReference(c.stringParam(ParamTimeRef2, string(core.RefCurrent))),
		c.intParam(ParamRefPeriod2, 0)
}

func (c Condition) priceType() core.PriceType {
	return core.PriceType(c.stringParam(ParamPriceType, string(core.PriceClose)))
}

func (c Condition) priceType2() core.PriceType {
	return core.PriceType(c.stringParam(ParamPriceType2, string(core.PriceClose)))
}
