package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TrailingWindow is the annualization period ending at the evaluation instant.
const TrailingWindow = 365 * 24 * time.Hour

var (
	monthsPerYear = decimal.NewFromInt(12)
	hundred       = decimal.NewFromInt(100)
)

// ComputeMetrics derives trailing dividend metrics for one security.
//
// Only events paid strictly after asOf-TrailingWindow count. lastPrice may be
// zero or negative, in which case YieldPercent is left invalid.
func ComputeMetrics(lastPrice decimal.Decimal, events []DividendEvent, lotSize int64, asOf time.Time) (DividendMetrics, error) {
	if lotSize <= 0 {
		return DividendMetrics{}, fmt.Errorf("%w: lot size must be positive, got %d", ErrInvalidInput, lotSize)
	}
	if asOf.IsZero() {
		return DividendMetrics{}, fmt.Errorf("%w: evaluation instant is not set", ErrInvalidInput)
	}

	window, err := TrailingEvents(events, asOf)
	if err != nil {
		return DividendMetrics{}, err
	}

	total := decimal.Zero
	history := make([]string, 0, len(window))
	for _, e := range window {
		total = total.Add(e.Amount)
		history = append(history, FormatAmount(e.Amount))
	}

	annual := total.Mul(decimal.NewFromInt(lotSize))
	m := DividendMetrics{
		TrailingAnnualDividend: total,
		Frequency:              ClassifyFrequency(len(window)),
		History:                history,
		EventCount:             len(window),
		LotSize:                lotSize,
		AnnualIncomePerLot:     annual,
		MonthlyIncomePerLot:    annual.Div(monthsPerYear),
		AsOf:                   asOf,
	}
	if lastPrice.IsPositive() {
		m.YieldPercent = decimal.NewNullDecimal(total.Div(lastPrice).Mul(hundred))
	}
	return m, nil
}

// TrailingEvents validates events and returns those inside the trailing
// window, preserving input order.
func TrailingEvents(events []DividendEvent, asOf time.Time) ([]DividendEvent, error) {
	cutoff := asOf.Add(-TrailingWindow)
	kept := make([]DividendEvent, 0, len(events))
	for i, e := range events {
		if e.PaidAt.IsZero() {
			return nil, fmt.Errorf("%w: event %d has no payment time", ErrInvalidInput, i)
		}
		if e.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: event %d has negative amount %s", ErrInvalidInput, i, e.Amount)
		}
		if e.PaidAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

// ClassifyFrequency maps a trailing event count to a payout frequency. It
// looks at the count only, never at the spacing between payments.
func ClassifyFrequency(n int) Frequency {
	switch {
	case n >= 10:
		return FrequencyMonthly
	case n >= 3:
		return FrequencyQuarterly
	case n == 2:
		return FrequencySemiannual
	case n == 1:
		return FrequencyAnnual
	default:
		return FrequencyNone
	}
}

// FormatAmount renders an amount with two decimals, then drops trailing
// zeros and a dangling point: 2.50 -> "2.5", 3.00 -> "3".
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}
