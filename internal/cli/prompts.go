package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/shopspring/decimal"

	"github.com/dyike/DivGo/internal/directory"
	"github.com/dyike/DivGo/internal/engine"
)

// Interactive menu entries.
const (
	actionScan      = "📊 掃描排行"
	actionCalc      = "💰 配息試算"
	actionPortfolio = "📁 查看組合"
	actionRemove    = "🗑  移除組合標的"
	actionClear     = "🧹 清空組合"
	actionAdvice    = "🤖 AI 建議"
	actionExit      = "👋 離開"
)

var menuActions = []string{actionScan, actionCalc, actionPortfolio, actionRemove, actionClear, actionAdvice, actionExit}

// PromptForAction asks for the next menu entry.
func PromptForAction() (string, error) {
	var choice string
	prompt := &survey.Select{
		Message: "要做什麼?",
		Options: menuActions,
		Default: actionScan,
	}
	err := survey.AskOne(prompt, &choice)
	return choice, err
}

// instrumentOptions renders "0056.TW 元大高股息" entries ordered by symbol.
func instrumentOptions(listing directory.Listing) []string {
	symbols := listing.Symbols()
	options := make([]string, 0, len(symbols))
	for _, s := range symbols {
		options = append(options, s+" "+listing.Instruments[s])
	}
	return options
}

// optionSymbol takes the symbol back out of an instrument option.
func optionSymbol(option string) string {
	symbol, _, _ := strings.Cut(strings.TrimSpace(option), " ")
	return symbol
}

// PromptForInstrument lets the user pick an ETF; typing filters the list.
func PromptForInstrument(listing directory.Listing) (string, error) {
	options := instrumentOptions(listing)
	if len(options) == 0 {
		return "", fmt.Errorf("%w: no instruments to choose from", engine.ErrInvalidInput)
	}

	var selected string
	prompt := &survey.Select{
		Message:  "搜尋並選擇 ETF:",
		Options:  options,
		PageSize: 15,
		Help:     "輸入代號或名稱可篩選清單",
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return optionSymbol(selected), nil
}

// parseCash accepts amounts like "100000" or "1,000,000".
func parseCash(s string) (decimal.Decimal, error) {
	cash, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("請輸入數字金額")
	}
	if cash.IsNegative() {
		return decimal.Zero, fmt.Errorf("金額不可為負數")
	}
	return cash, nil
}

// PromptForCash asks for the amount to invest.
func PromptForCash(def string) (decimal.Decimal, error) {
	var raw string
	prompt := &survey.Input{
		Message: "預計投入金額 (台幣):",
		Default: def,
	}
	err := survey.AskOne(prompt, &raw, survey.WithValidator(func(val interface{}) error {
		_, err := parseCash(val.(string))
		return err
	}))
	if err != nil {
		return decimal.Zero, err
	}
	return parseCash(raw)
}

// PromptForSort asks how the ranking should be ordered.
func PromptForSort() (engine.SortKey, error) {
	options := []string{
		"monthly - 等值月配息 (每張)",
		"yield - 年殖利率",
		"price - 現價 (低到高)",
	}
	var selected string
	prompt := &survey.Select{
		Message: "排序方式:",
		Options: options,
		Default: options[0],
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	key, _, _ := strings.Cut(selected, " ")
	return engine.ParseSortKey(key)
}

// PromptForFilter asks for an optional search term.
func PromptForFilter() (string, error) {
	var term string
	prompt := &survey.Input{
		Message: "搜尋結果 (代號或名稱，留空顯示全部):",
	}
	err := survey.AskOne(prompt, &term)
	return strings.TrimSpace(term), err
}

// PromptForHolding picks one symbol already in the portfolio.
func PromptForHolding(p *Portfolio) (string, error) {
	items := p.Items()
	options := make([]string, 0, len(items))
	for _, h := range items {
		options = append(options, h.Symbol+" "+h.Name)
	}
	var selected string
	prompt := &survey.Select{
		Message: "移除哪一檔?",
		Options: options,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return optionSymbol(selected), nil
}

// PromptForConfirmation asks a yes/no question.
func PromptForConfirmation(message string, def bool) (bool, error) {
	var confirmed bool
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}
	err := survey.AskOne(prompt, &confirmed)
	return confirmed, err
}
