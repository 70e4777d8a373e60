package condition

import (
	"fmt"
	"math"

	"github.com/hika3390/jquants-backtest/internal/core"
	"github.com/hika3390/jquants-backtest/internal/indicator"
	"github.com/hika3390/jquants-backtest/internal/timeref"
)

// fieldSelectors maps the plain resolve-then-compare indicators onto
// the quote field they read. Absent optional fields read as 0.
var fieldSelectors = map[string]func(core.Quote) float64{
	IndVolume:            func(q core.Quote) float64 { return q.Volume },
	IndTurnoverValue:     func(q core.Quote) float64 { return q.TurnoverValue },
	IndSharesOutstanding: func(q core.Quote) float64 { return q.SharesOutstanding },
	IndMarketCap:         func(q core.Quote) float64 { return q.MarketCapitalization },
	IndPER:               func(q core.Quote) float64 { return q.PER },
	IndPBR:               func(q core.Quote) float64 { return q.PBR },
	IndDividendYield:     func(q core.Quote) float64 { return q.DividendYield },
	IndEPS:               func(q core.Quote) float64 { return q.EPS },
	IndBPS:               func(q core.Quote) float64 { return q.BPS },
	IndROE:               func(q core.Quote) float64 { return q.ROE },
	IndROA:               func(q core.Quote) float64 { return q.ROA },
	IndEquityRatio:       func(q core.Quote) float64 { return q.EquityRatio },
	IndRevenue:           func(q core.Quote) float64 { return q.Revenue },
	IndOperatingIncome:   func(q core.Quote) float64 { return q.OperatingIncome },
	IndOrdinaryIncome:    func(q core.Quote) float64 { return q.OrdinaryIncome },
	IndNetIncome:         func(q core.Quote) float64 { return q.NetIncome },
	IndTotalAssets:       func(q core.Quote) float64 { return q.TotalAssets },
	IndNetAssets:         func(q core.Quote) float64 { return q.NetAssets },
	IndCashFlow:          func(q core.Quote) float64 { return q.CashFlow },
}

// categoricalSelectors maps company-attribute indicators onto the
// string field they compare.
var categoricalSelectors = map[string]func(core.Quote) string{
	IndMarket:   func(q core.Quote) string { return q.Market },
	IndIndustry: func(q core.Quote) string { return q.Industry },
	IndSector:   func(q core.Quote) string { return q.Sector },
}

// Evaluator evaluates conditions against one quote series. It owns no
// shared state; construct one per simulation run.
type Evaluator struct {
	quotes []core.Quote

	// Computed series are cached per condition shape so a full run
	// stays linear in the series length.
	seriesCache map[string][]float64
	bandsCache  map[string]indicator.Bands
}

// NewEvaluator creates an evaluator over the given series.
func NewEvaluator(quotes []core.Quote) *Evaluator {
	return &Evaluator{
		quotes:      quotes,
		seriesCache: make(map[string][]float64),
		bandsCache:  make(map[string]indicator.Bands),
	}
}

// Evaluate produces the ternary signal for one condition at the current
// index. pos is the open position, or nil. Evaluation never fails:
// unknown indicators and data-sparsity both degrade to a non-buy
// signal, and configuration problems are caught by Validate before any
// run starts.
func (e *Evaluator) Evaluate(c Condition, idx int, pos *core.Position) Signal {
	if idx < 0 || idx >= len(e.quotes) {
		return SignalNeutral
	}

	if sel, ok := fieldSelectors[c.Indicator]; ok {
		return e.evalField(c, idx, sel)
	}
	if sel, ok := categoricalSelectors[c.Indicator]; ok {
		return e.evalCategorical(c, idx, sel)
	}

	switch c.Indicator {
	case IndPrice:
		return e.evalPrice(c, idx)
	case IndPriceComparison:
		return e.evalPriceComparison(c, idx)
	case IndProfitLossPercent, IndProfitLossAmount:
		return e.evalProfitLoss(c, idx, pos)
	case IndRSI:
		return e.evalRSI(c, idx)
	case IndMA:
		return e.evalMA(c, idx)
	case IndBollinger:
		return e.evalBollinger(c, idx)
	default:
		return SignalNeutral
	}
}

func boolSignal(ok bool) Signal {
	if ok {
		return SignalBuy
	}
	return SignalSell
}

func (e *Evaluator) evalPrice(c Condition, idx int) Signal {
	ref, period := c.timeRef()
	i := timeref.Resolve(idx, ref, period, e.quotes)
	value := e.quotes[i].Price(c.priceType())
	target := c.floatParam(ParamValue, 0)
	return boolSignal(c.operator().Compare(value, target))
}

func (e *Evaluator) evalPriceComparison(c Condition, idx int) Signal {
	ref1, period1 := c.timeRef()
	ref2, period2 := c.timeRef2()
	i1 := timeref.Resolve(idx, ref1, period1, e.quotes)
	i2 := timeref.Resolve(idx, ref2, period2, e.quotes)
	v1 := e.quotes[i1].Price(c.priceType())
	v2 := e.quotes[i2].Price(c.priceType2())
	return boolSignal(c.operator().Compare(v1, v2))
}

func (e *Evaluator) evalField(c Condition, idx int, sel func(core.Quote) float64) Signal {
	ref, period := c.timeRef()
	i := timeref.Resolve(idx, ref, period, e.quotes)
	value := sel(e.quotes[i])
	target := c.floatParam(ParamValue, 0)
	return boolSignal(c.operator().Compare(value, target))
}

func (e *Evaluator) evalCategorical(c Condition, idx int, sel func(core.Quote) string) Signal {
	target := c.stringParam(ParamValue, "")
	value := sel(e.quotes[idx])

	switch c.operator() {
	case core.OpNEQ:
		return boolSignal(value != target)
	default:
		return boolSignal(value == target)
	}
}

func (e *Evaluator) evalProfitLoss(c Condition, idx int, pos *core.Position) Signal {
	// Cannot exit what does not exist; a disabled operator means the
	// exit leg is intentionally turned off.
	if pos == nil || c.operator() == core.OpDisabled {
		return SignalSell
	}

	close := e.quotes[idx].Close
	var value float64
	if c.Indicator == IndProfitLossAmount {
		value = pos.ProfitLossAmount(close)
	} else {
		value = pos.ProfitLossPercent(close)
	}
	target := c.floatParam(ParamValue, 0)
	return boolSignal(c.operator().Compare(value, target))
}

func (e *Evaluator) evalRSI(c Condition, idx int) Signal {
	period := c.Period
	if period <= 0 {
		period = 14
	}
	if idx < period {
		return SignalNeutral // not enough deltas yet
	}

	rsi := e.series(fmt.Sprintf("rsi:%d", period), func() []float64 {
		return indicator.RSI(e.closes(), period)
	})[idx]

	overbought := c.floatParam(ParamOverbought, 70)
	oversold := c.floatParam(ParamOversold, 30)

	switch {
	case rsi <= oversold:
		return SignalBuy
	case rsi >= overbought:
		return SignalSell
	default:
		return SignalNeutral
	}
}

func (e *Evaluator) evalMA(c Condition, idx int) Signal {
	period := c.Period
	if period <= 0 {
		period = 20
	}
	maType := indicator.MAType(c.stringParam(ParamMAType, string(indicator.TypeSMA)))
	pt := c.priceType()

	primary := e.series(fmt.Sprintf("ma:%s:%s:%d", maType, pt, period), func() []float64 {
		return indicator.MovingAverage(e.priceSeries(pt), period, maType)
	})[idx]

	var lhs float64
	if c.stringParam(ParamCompareTo, "price") == "ma" {
		comparePeriod := c.intParam(ParamComparePd, 5)
		if comparePeriod <= 0 {
			comparePeriod = 5
		}
		lhs = e.series(fmt.Sprintf("ma:%s:%s:%d", maType, pt, comparePeriod), func() []float64 {
			return indicator.MovingAverage(e.priceSeries(pt), comparePeriod, maType)
		})[idx]
	} else {
		lhs = e.quotes[idx].Price(pt)
	}

	if math.IsNaN(primary) || math.IsNaN(lhs) {
		return SignalNeutral
	}
	return boolSignal(c.operator().Compare(lhs, primary))
}

func (e *Evaluator) evalBollinger(c Condition, idx int) Signal {
	period := c.Period
	if period <= 0 {
		period = 20
	}
	k := c.floatParam(ParamMultiplier, 2)
	pt := c.priceType()

	key := fmt.Sprintf("boll:%s:%d:%g", pt, period, k)
	bands, ok := e.bandsCache[key]
	if !ok {
		bands = indicator.Bollinger(e.priceSeries(pt), period, k)
		e.bandsCache[key] = bands
	}

	upper, lower := bands.Upper[idx], bands.Lower[idx]
	if math.IsNaN(upper) || math.IsNaN(lower) {
		return SignalNeutral
	}

	price := e.quotes[idx].Price(pt)
	switch {
	case price > upper:
		return SignalSell // overextended
	case price < lower:
		return SignalBuy
	default:
		return SignalNeutral
	}
}

func (e *Evaluator) series(key string, compute func() []float64) []float64 {
	if s, ok := e.seriesCache[key]; ok {
		return s
	}
	s := compute()
	e.seriesCache[key] = s
	return s
}

func (e *Evaluator) closes() []float64 {
	return e.series("close", func() []float64 {
		return e.priceSeries(core.PriceClose)
	})
}

func (e *Evaluator) priceSeries(pt core.PriceType) []float64 {
	prices := make([]float64, len(e.quotes))
	for i, q := range e.quotes {
		prices[i] = q.Price(pt)
	}
	return prices
}
