package core

import "time"

// MarketSegment represents a TSE market segment
type MarketSegment string

const (
	MarketPrime    MarketSegment = "prime"
	MarketStandard MarketSegment = "standard"
	MarketGrowth   MarketSegment = "growth"
)

// PriceType selects which price field of a quote to read
type PriceType string

const (
	PriceOpen     PriceType = "open"
	PriceClose    PriceType = "close"
	PriceHigh     PriceType = "high"
	PriceLow      PriceType = "low"
	PriceAdjClose PriceType = "adjustmentClose"
	PriceVWAP     PriceType = "vwap"
)

// Operator is a comparison operator used in trading conditions.
// OpDisabled is a sentinel carried over from the stored configuration
// format: a condition with a disabled operator never fires.
type Operator string

const (
	OpGT       Operator = ">"
	OpLT       Operator = "<"
	OpGTE      Operator = ">="
	OpLTE      Operator = "<="
	OpEQ       Operator = "=="
	OpNEQ      Operator = "!="
	OpDisabled Operator = "disabled"
)

// Compare applies the operator to two values. A disabled or unknown
// operator compares to false.
func (op Operator) Compare(a, b float64) bool {
	switch op {
	case OpGT:
		return a > b
	case OpLT:
		return a < b
	case OpGTE:
		return a >= b
	case OpLTE:
		return a <= b
	case OpEQ:
		return a == b
	case OpNEQ:
		return a != b
	default:
		return false
	}
}

// TimeReference describes how far back a condition looks from the
// current simulation day.
type TimeReference string

const (
	RefCurrent  TimeReference = "current"
	RefDays     TimeReference = "days"
	RefWeeks    TimeReference = "weeks"
	RefMonths   TimeReference = "months"
	RefQuarters TimeReference = "quarters"
	RefYears    TimeReference = "years"
)

// Quote is one trading day's observation for a security. OHLCV fields
// are always present; everything else is optional and reads as its zero
// value when the upstream feed did not supply it.
type Quote struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`

	AdjustmentClose      float64 `json:"adjustment_close,omitempty"`
	VWAP                 float64 `json:"vwap,omitempty"`
	TurnoverValue        float64 `json:"turnover_value,omitempty"`
	SharesOutstanding    float64 `json:"shares_outstanding,omitempty"`
	MarketCapitalization float64 `json:"market_capitalization,omitempty"`

	// Fundamental ratios
	PER           float64 `json:"per,omitempty"`
	PBR           float64 `json:"pbr,omitempty"`
	DividendYield float64 `json:"dividend_yield,omitempty"`
	EPS           float64 `json:"eps,omitempty"`
	BPS           float64 `json:"bps,omitempty"`
	ROE           float64 `json:"roe,omitempty"`
	ROA           float64 `json:"roa,omitempty"`
	EquityRatio   float64 `json:"equity_ratio,omitempty"`

	// Financial statement figures
	Revenue         float64 `json:"revenue,omitempty"`
	OperatingIncome float64 `json:"operating_income,omitempty"`
	OrdinaryIncome  float64 `json:"ordinary_income,omitempty"`
	NetIncome       float64 `json:"net_income,omitempty"`
	TotalAssets     float64 `json:"total_assets,omitempty"`
	NetAssets       float64 `json:"net_assets,omitempty"`
	CashFlow        float64 `json:"cash_flow,omitempty"`

	// Company and market attributes
	Code     string `json:"code,omitempty"`
	Name     string `json:"name,omitempty"`
	Market   string `json:"market,omitempty"`
	Industry string `json:"industry,omitempty"`
	Sector   string `json:"sector,omitempty"`
}

// Price returns the requested price field. Adjusted close falls back to
// the raw close when the feed did not provide it; unknown types read as
// close.
func (q Quote) Price(pt PriceType) float64 {
	switch pt {
	case PriceOpen:
		return q.Open
	case PriceHigh:
		return q.High
	case PriceLow:
		return q.Low
	case PriceAdjClose:
		if q.AdjustmentClose != 0 {
			return q.AdjustmentClose
		}
		return q.Close
	case PriceVWAP:
		return q.VWAP
	default:
		return q.Close
	}
}

// IsValid checks if the quote has required fields
func (q Quote) IsValid() bool {
	return !q.Date.IsZero() && q.Close > 0
}

// Position is the single currently held lot, if any. At most one
// position is open per simulation run.
type Position struct {
	EntryPrice float64   `json:"entry_price"`
	Quantity   int64     `json:"quantity"`
	EntryDate  time.Time `json:"entry_date"`
}

// ProfitLossPercent returns the unrealized return against close, in
// percent.
func (p Position) ProfitLossPercent(close float64) float64 {
	return (close - p.EntryPrice) / p.EntryPrice * 100
}

// ProfitLossAmount returns the unrealized profit or loss against close.
func (p Position) ProfitLossAmount(close float64) float64 {
	return (close - p.EntryPrice) * float64(p.Quantity)
}
