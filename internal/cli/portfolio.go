package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/dyike/DivGo/internal/display"
	"github.com/dyike/DivGo/internal/engine"
)

// Holding is one calculator result the user chose to keep for the session.
type Holding struct {
	Symbol string
	Name   string
	Cash   decimal.Decimal
	Entry  engine.PortfolioEntry
}

// PortfolioTotals sums the holdings of a session portfolio.
type PortfolioTotals struct {
	Lots          int64
	Cash          decimal.Decimal
	CostSpent     decimal.Decimal
	CashRemainder decimal.Decimal
	MonthlyIncome decimal.Decimal
}

// Portfolio is the working list built in interactive mode. It is never
// written to disk.
type Portfolio struct {
	holdings map[string]Holding
}

func NewPortfolio() *Portfolio {
	return &Portfolio{holdings: make(map[string]Holding)}
}

// Add stores h, replacing an earlier holding of the same symbol.
func (p *Portfolio) Add(h Holding) {
	p.holdings[h.Symbol] = h
}

func (p *Portfolio) Remove(symbol string) bool {
	if _, ok := p.holdings[symbol]; !ok {
		return false
	}
	delete(p.holdings, symbol)
	return true
}

func (p *Portfolio) Clear() {
	p.holdings = make(map[string]Holding)
}

func (p *Portfolio) Len() int {
	return len(p.holdings)
}

// Items returns the holdings ordered by symbol.
func (p *Portfolio) Items() []Holding {
	items := make([]Holding, 0, len(p.holdings))
	for _, h := range p.holdings {
		items = append(items, h)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Symbol < items[j].Symbol })
	return items
}

func (p *Portfolio) Totals() PortfolioTotals {
	t := PortfolioTotals{
		Cash:          decimal.Zero,
		CostSpent:     decimal.Zero,
		CashRemainder: decimal.Zero,
		MonthlyIncome: decimal.Zero,
	}
	for _, h := range p.holdings {
		t.Lots += h.Entry.LotsPurchased
		t.Cash = t.Cash.Add(h.Cash)
		t.CostSpent = t.CostSpent.Add(h.Entry.CostSpent)
		t.CashRemainder = t.CashRemainder.Add(h.Entry.CashRemainder)
		t.MonthlyIncome = t.MonthlyIncome.Add(h.Entry.ProjectedMonthlyIncome)
	}
	return t
}

// Render draws the holdings and a totals line.
func (p *Portfolio) Render() string {
	if p.Len() == 0 {
		return display.Muted("組合是空的，先用試算加入標的")
	}

	rows := make([][]string, 0, p.Len())
	for _, h := range p.Items() {
		rows = append(rows, []string{
			strings.TrimSuffix(h.Symbol, ".TW"),
			h.Name,
			display.Money(h.Cash),
			fmt.Sprintf("%d", h.Entry.LotsPurchased),
			display.Money(h.Entry.CostSpent),
			display.Money(h.Entry.ProjectedMonthlyIncome),
		})
	}
	totals := p.Totals()

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("代號", "名稱", "投入資金", "張數", "實際花費", "預估月領").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			if col >= 2 {
				return s.Align(lipgloss.Right)
			}
			return s
		})

	summary := fmt.Sprintf("合計 %d 張，花費 %s 元，剩餘 %s 元，預估每月可領 %s 元",
		totals.Lots,
		display.Money(totals.CostSpent),
		display.Money(totals.CashRemainder),
		display.Money(totals.MonthlyIncome),
	)
	return t.String() + "\n" + summary
}
