package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Row pairs a quote with its metrics for ranking and display.
type Row struct {
	Quote   SecurityQuote   `json:"quote"`
	Metrics DividendMetrics `json:"metrics"`
}

type SortKey string

const (
	SortByMonthlyIncome SortKey = "monthly"
	SortByYield         SortKey = "yield"
	SortByPrice         SortKey = "price"
)

// ParseSortKey accepts the short keys plus the metric field names.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monthly", "monthly_income", "monthly_income_per_lot":
		return SortByMonthlyIncome, nil
	case "yield", "yield_percent":
		return SortByYield, nil
	case "price", "last_price":
		return SortByPrice, nil
	default:
		return "", fmt.Errorf("%w: unknown sort key %q", ErrInvalidInput, s)
	}
}

// Rankable reports whether a row may appear in ranked output: it needs a
// known price and therefore a defined yield.
func (r Row) Rankable() bool {
	return r.Quote.HasPrice() && r.Metrics.YieldPercent.Valid
}

// Rank returns a new slice holding the rankable rows ordered by key, ties
// broken by symbol ascending. Income and yield sort descending, price
// ascending.
func Rank(rows []Row, key SortKey) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Rankable() {
			out = append(out, r)
		}
	}

	compare := func(a, b Row) int {
		switch key {
		case SortByYield:
			return b.Metrics.YieldPercent.Decimal.Cmp(a.Metrics.YieldPercent.Decimal)
		case SortByPrice:
			return a.Quote.LastPrice.Cmp(b.Quote.LastPrice)
		default:
			return b.Metrics.MonthlyIncomePerLot.Cmp(a.Metrics.MonthlyIncomePerLot)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := compare(out[i], out[j]); c != 0 {
			return c < 0
		}
		return out[i].Quote.Symbol < out[j].Quote.Symbol
	})
	return out
}

// Filter keeps rows whose display name or symbol contains term, ignoring
// case. A blank term keeps every row. Input order is preserved.
func Filter(rows []Row, term string) []Row {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if term == "" ||
			strings.Contains(strings.ToLower(r.Quote.DisplayName), term) ||
			strings.Contains(strings.ToLower(r.Quote.Symbol), term) {
			out = append(out, r)
		}
	}
	return out
}
