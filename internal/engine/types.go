// Package engine turns a price and a dividend history into per-lot income
// metrics. Everything here is pure: no I/O and no state between calls.
package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DividendEvent is one paid distribution per share.
type DividendEvent struct {
	PaidAt time.Time       `json:"paid_at"`
	Amount decimal.Decimal `json:"amount_per_share"`
}

// SecurityQuote identifies one tradable instrument. A LastPrice that is not
// positive means the price is unknown.
type SecurityQuote struct {
	Symbol      string          `json:"symbol"`
	DisplayName string          `json:"display_name"`
	LastPrice   decimal.Decimal `json:"last_price"`
}

func (q SecurityQuote) HasPrice() bool {
	return q.LastPrice.IsPositive()
}

type Frequency string

const (
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiannual Frequency = "semiannual"
	FrequencyAnnual     Frequency = "annual"
	FrequencyNone       Frequency = "none"
)

// Label is the short tag shown in front of the payout history.
func (f Frequency) Label() string {
	switch f {
	case FrequencyMonthly:
		return "月"
	case FrequencyQuarterly:
		return "季"
	case FrequencySemiannual:
		return "半"
	case FrequencyAnnual:
		return "年"
	default:
		return ""
	}
}

// NoDividendText is rendered when the trailing window is empty.
const NoDividendText = "無配息"

// DividendMetrics is the result of one ComputeMetrics call.
type DividendMetrics struct {
	TrailingAnnualDividend decimal.Decimal `json:"trailing_annual_dividend"`
	Frequency              Frequency       `json:"frequency"`
	History                []string        `json:"history"`
	EventCount             int             `json:"event_count"`
	LotSize                int64           `json:"lot_size"`
	AnnualIncomePerLot     decimal.Decimal `json:"annual_income_per_lot"`
	MonthlyIncomePerLot    decimal.Decimal `json:"monthly_income_per_lot"`
	// Valid is false when the price was unknown; never read as 0%.
	YieldPercent decimal.NullDecimal `json:"yield_percent"`
	AsOf         time.Time           `json:"as_of"`
}

// HistoryString renders e.g. "月: 0.2/0.2/0.25" or NoDividendText.
func (m DividendMetrics) HistoryString() string {
	if m.EventCount == 0 {
		return NoDividendText
	}
	return m.Frequency.Label() + ": " + strings.Join(m.History, "/")
}

// PortfolioEntry is what a cash amount buys in whole lots.
type PortfolioEntry struct {
	LotsPurchased          int64           `json:"lots_purchased"`
	CostPerLot             decimal.Decimal `json:"cost_per_lot"`
	CostSpent              decimal.Decimal `json:"cost_spent"`
	CashRemainder          decimal.Decimal `json:"cash_remainder"`
	ProjectedMonthlyIncome decimal.Decimal `json:"projected_monthly_income"`
}

// Insufficient reports that the cash did not cover a single lot.
func (p PortfolioEntry) Insufficient() bool {
	return p.LotsPurchased == 0
}

func (p PortfolioEntry) FullyAllocated() bool {
	return p.LotsPurchased > 0 && p.CashRemainder.IsZero()
}
