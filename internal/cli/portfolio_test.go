package cli

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dyike/DivGo/internal/engine"
)

func holding(t *testing.T, symbol, name, cash, price, monthly string) Holding {
	t.Helper()
	c := decimal.RequireFromString(cash)
	entry, err := engine.ProjectPurchase(c, decimal.RequireFromString(price), decimal.RequireFromString(monthly), 1000)
	if err != nil {
		t.Fatalf("ProjectPurchase: %v", err)
	}
	return Holding{Symbol: symbol, Name: name, Cash: c, Entry: entry}
}

func TestPortfolioTotals(t *testing.T) {
	p := NewPortfolio()
	p.Add(holding(t, "0056.TW", "元大高股息", "100000", "36.5", "250"))
	p.Add(holding(t, "00878.TW", "國泰永續高股息", "50000", "21.7", "150"))

	totals := p.Totals()
	if totals.Lots != 4 {
		t.Fatalf("lots = %d, want 4", totals.Lots)
	}
	if !totals.CostSpent.Equal(decimal.NewFromInt(73000 + 43400)) {
		t.Fatalf("cost spent = %s", totals.CostSpent)
	}
	if !totals.MonthlyIncome.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("monthly income = %s", totals.MonthlyIncome)
	}
	if !totals.Cash.Equal(totals.CostSpent.Add(totals.CashRemainder)) {
		t.Fatalf("cash %s != spent %s + remainder %s", totals.Cash, totals.CostSpent, totals.CashRemainder)
	}

	items := p.Items()
	if len(items) != 2 || items[0].Symbol != "0056.TW" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestPortfolioReplaceRemoveClear(t *testing.T) {
	p := NewPortfolio()
	p.Add(holding(t, "0056.TW", "元大高股息", "100000", "36.5", "250"))
	p.Add(holding(t, "0056.TW", "元大高股息", "40000", "36.5", "250"))
	if p.Len() != 1 || p.Totals().Lots != 1 {
		t.Fatalf("re-adding a symbol should replace it, got %d holdings %d lots", p.Len(), p.Totals().Lots)
	}

	if p.Remove("0050.TW") {
		t.Fatalf("removed a symbol that was never added")
	}
	if !p.Remove("0056.TW") || p.Len() != 0 {
		t.Fatalf("remove failed")
	}

	p.Add(holding(t, "0056.TW", "元大高股息", "100000", "36.5", "250"))
	p.Clear()
	if p.Len() != 0 || !p.Totals().MonthlyIncome.IsZero() {
		t.Fatalf("clear left %d holdings", p.Len())
	}
}

func TestPortfolioRender(t *testing.T) {
	p := NewPortfolio()
	if !strings.Contains(p.Render(), "組合是空的") {
		t.Fatalf("empty portfolio should say so")
	}

	p.Add(holding(t, "0056.TW", "元大高股息", "100000", "36.5", "250"))
	out := p.Render()
	for _, want := range []string{"元大高股息", "100,000", "合計 2 張", "500"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
}
