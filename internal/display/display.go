package display

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/dyike/DivGo/internal/dataflows"
	"github.com/dyike/DivGo/internal/engine"
)

// Ranked table headers, in column order.
var RankingHeaders = []string{
	"代號", "名稱", "配息明細", "現價", "近一年配息(每張)", "等值月配息(每張)", "年殖利率(%)",
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#10B981")).
			Padding(1, 2)

	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// numeric columns of the ranked table
var rightAligned = map[int]bool{3: true, 4: true, 5: true, 6: true}

// Money renders whole NT dollars with thousands separators, dropping cents
// toward zero.
func Money(d decimal.Decimal) string {
	return humanize.Comma(d.IntPart())
}

// Price renders a per-share price with two decimals.
func Price(d decimal.Decimal) string {
	if !d.IsPositive() {
		return "-"
	}
	whole := humanize.Comma(d.IntPart())
	frac := d.StringFixed(2)
	return whole + frac[strings.LastIndex(frac, "."):]
}

// Yield renders a percentage with two decimals, or "-" when undefined.
func Yield(y decimal.NullDecimal) string {
	if !y.Valid {
		return "-"
	}
	return y.Decimal.StringFixed(2)
}

// YieldBar draws the yield on a 0-15% scale.
func YieldBar(y decimal.NullDecimal, width int) string {
	if !y.Valid || width <= 0 {
		return ""
	}
	filled := y.Decimal.Div(decimal.NewFromInt(15)).Mul(decimal.NewFromInt(int64(width))).Round(0).IntPart()
	if filled < 0 {
		filled = 0
	}
	if filled > int64(width) {
		filled = int64(width)
	}
	return strings.Repeat("█", int(filled)) + strings.Repeat("░", width-int(filled))
}

// RankingRow converts a row into the cells of the ranked table.
func RankingRow(r engine.Row) []string {
	symbol := strings.TrimSuffix(r.Quote.Symbol, ".TW")
	return []string{
		symbol,
		r.Quote.DisplayName,
		r.Metrics.HistoryString(),
		Price(r.Quote.LastPrice),
		Money(r.Metrics.AnnualIncomePerLot),
		Money(r.Metrics.MonthlyIncomePerLot),
		Yield(r.Metrics.YieldPercent) + " " + YieldBar(r.Metrics.YieldPercent, 10),
	}
}

// RankingTable renders already ranked rows.
func RankingTable(rows []engine.Row) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, RankingRow(r))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(RankingHeaders...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case rightAligned[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

// CalcPanel renders the per-lot metrics and what cash buys.
func CalcPanel(r engine.Row, cash decimal.Decimal, entry engine.PortfolioEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.Quote.Symbol, r.Quote.DisplayName)
	fmt.Fprintf(&b, "%s\n\n", mutedStyle.Render(dataflows.QuoteURL(r.Quote.Symbol)))
	fmt.Fprintf(&b, "現價:           %s 元\n", Price(r.Quote.LastPrice))
	fmt.Fprintf(&b, "一張成本:       %s 元 (%d 股)\n", Money(entry.CostPerLot), r.Metrics.LotSize)
	fmt.Fprintf(&b, "配息明細:       %s\n", r.Metrics.HistoryString())
	fmt.Fprintf(&b, "近一年配息:     %s 元/張\n", Money(r.Metrics.AnnualIncomePerLot))
	fmt.Fprintf(&b, "等值月配息:     %s 元/張\n", Money(r.Metrics.MonthlyIncomePerLot))
	fmt.Fprintf(&b, "年殖利率:       %s%%\n\n", Yield(r.Metrics.YieldPercent))
	fmt.Fprintf(&b, "投入資金:       %s 元\n", Money(cash))
	fmt.Fprintf(&b, "可買張數:       %d 張\n", entry.LotsPurchased)
	fmt.Fprintf(&b, "實際花費:       %s 元\n", Money(entry.CostSpent))
	fmt.Fprintf(&b, "剩餘資金:       %s 元\n", Money(entry.CashRemainder))
	fmt.Fprintf(&b, "預估月領:       %s 元", Money(entry.ProjectedMonthlyIncome))
	if entry.Insufficient() {
		b.WriteString("\n\n" + warnStyle.Render("資金不足以買進一張"))
	}
	return panelStyle.Render(b.String())
}

// Title renders a section title.
func Title(s string) string {
	return titleStyle.Render(s)
}

// Muted renders secondary text.
func Muted(s string) string {
	return mutedStyle.Render(s)
}

// DisplayProgress draws a single-line progress bar, ending the line when done.
func DisplayProgress(w io.Writer, phase string, progress, total int) {
	if total <= 0 {
		return
	}
	barWidth := 40
	filledWidth := (progress * barWidth) / total

	bar := strings.Repeat("█", filledWidth) + strings.Repeat("░", barWidth-filledWidth)
	percentage := (progress * 100) / total

	fmt.Fprintf(w, "\r%s [%s] %d%% (%d/%d)", phase, bar, percentage, progress, total)

	if progress >= total {
		fmt.Fprintln(w, " ✅")
	}
}

// DisplayError shows formatted error messages
func DisplayError(w io.Writer, err error, context string) {
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("❌ Error in %s:", context)))
	fmt.Fprintf(w, "   %v\n", err)
}

// DisplayWarning shows formatted warning messages
func DisplayWarning(w io.Writer, message string) {
	fmt.Fprintln(w, warnStyle.Render("⚠️  "+message))
}

// DisplaySuccess shows formatted success messages
func DisplaySuccess(w io.Writer, message string) {
	fmt.Fprintln(w, successStyle.Render("✅ "+message))
}

// DisplayInfo shows formatted info messages
func DisplayInfo(w io.Writer, message string) {
	fmt.Fprintf(w, "ℹ️  %s\n", message)
}

// SaveJSON writes v as indented JSON, creating parent directories.
func SaveJSON(v interface{}, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
