package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/shopspring/decimal"

	"github.com/dyike/DivGo/internal/advisory"
	"github.com/dyike/DivGo/internal/directory"
	"github.com/dyike/DivGo/internal/display"
	"github.com/dyike/DivGo/internal/engine"
	"github.com/dyike/DivGo/internal/scanner"
)

// InteractiveSession handles interactive CLI sessions. The last scan and the
// working portfolio live only as long as the session.
type InteractiveSession struct {
	app       *App
	portfolio *Portfolio
	listing   *directory.Listing
	result    *scanner.BatchResult
}

// NewInteractiveSession creates a new interactive session
func NewInteractiveSession(app *App) *InteractiveSession {
	return &InteractiveSession{
		app:       app,
		portfolio: NewPortfolio(),
	}
}

// Start begins the interactive session
func (s *InteractiveSession) Start(ctx context.Context) error {
	s.showWelcome()

	for {
		action, err := PromptForAction()
		if err != nil {
			return s.exitOn(err)
		}

		switch action {
		case actionScan:
			err = s.runScan(ctx)
		case actionCalc:
			err = s.runCalc(ctx)
		case actionPortfolio:
			fmt.Fprintln(s.app.out, s.portfolio.Render())
		case actionRemove:
			err = s.removeHolding()
		case actionClear:
			s.portfolio.Clear()
			display.DisplaySuccess(s.app.out, "組合已清空")
		case actionAdvice:
			err = s.runAdvice(ctx)
		case actionExit:
			fmt.Fprintln(s.app.out, "👋 Thank you for using DivGo!")
			return nil
		}

		if errors.Is(err, terminal.InterruptErr) {
			return s.exitOn(err)
		}
		if err != nil {
			display.DisplayError(s.app.out, err, strings.TrimSpace(action))
		}
		fmt.Fprintln(s.app.out)
	}
}

// exitOn treats Ctrl-C as a normal exit.
func (s *InteractiveSession) exitOn(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		fmt.Fprintln(s.app.out, "👋 Bye")
		return nil
	}
	return err
}

// showWelcome displays the welcome screen
func (s *InteractiveSession) showWelcome() {
	fmt.Fprintln(s.app.out, display.Title("🚀 DivGo "+version+" 高股息 ETF 月配息試算"))
	fmt.Fprintln(s.app.out, display.Muted("掃描近一年配息、試算整張買進後每月可領多少，組合只保留到離開為止。"))
	if s.app.offline {
		display.DisplayInfo(s.app.out, "離線模式: 使用內建 ETF 名單與快取資料")
	}
	fmt.Fprintln(s.app.out)
}

func (s *InteractiveSession) instruments(ctx context.Context) directory.Listing {
	if s.listing == nil {
		listing := s.app.Directory().List(ctx)
		if listing.Degraded {
			display.DisplayWarning(s.app.out, "使用內建熱門 ETF 名單: "+listing.Reason)
		}
		s.listing = &listing
	}
	return *s.listing
}

func (s *InteractiveSession) runScan(ctx context.Context) error {
	if s.result != nil {
		rescan, err := PromptForConfirmation("重新掃描? (否則沿用上次結果)", false)
		if err != nil {
			return err
		}
		if rescan {
			s.result = nil
		}
	}

	if s.result == nil {
		listing := s.instruments(ctx)
		sc := s.app.Scanner()
		sc.OnProgress = func(done, total int, symbol string) {
			display.DisplayProgress(s.app.out, "掃描中", done, total)
		}
		s.result = sc.Scan(ctx, listing.Instruments)
		if len(s.result.Skipped) > 0 {
			display.DisplayInfo(s.app.out, fmt.Sprintf("略過 %d 檔無法取得資料的標的", len(s.result.Skipped)))
		}
	}

	key, err := PromptForSort()
	if err != nil {
		return err
	}
	term, err := PromptForFilter()
	if err != nil {
		return err
	}

	rows := s.result.Ranked(key, term)
	fmt.Fprintln(s.app.out, display.RankingTable(rows))
	fmt.Fprintln(s.app.out, display.Muted(fmt.Sprintf("共 %d 檔", len(rows))))
	return nil
}

func (s *InteractiveSession) runCalc(ctx context.Context) error {
	symbol, err := PromptForInstrument(s.instruments(ctx))
	if err != nil {
		return err
	}
	cash, err := PromptForCash("100000")
	if err != nil {
		return err
	}

	row, entry, err := s.app.Calculate(ctx, symbol, cash)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.app.out, display.CalcPanel(row, cash, entry))

	if entry.Insufficient() {
		return nil
	}
	add, err := PromptForConfirmation("加入組合?", true)
	if err != nil || !add {
		return err
	}
	s.addHolding(row, cash, entry)
	fmt.Fprintln(s.app.out, s.portfolio.Render())
	return nil
}

func (s *InteractiveSession) addHolding(row engine.Row, cash decimal.Decimal, entry engine.PortfolioEntry) {
	s.portfolio.Add(Holding{
		Symbol: row.Quote.Symbol,
		Name:   row.Quote.DisplayName,
		Cash:   cash,
		Entry:  entry,
	})
}

func (s *InteractiveSession) removeHolding() error {
	if s.portfolio.Len() == 0 {
		fmt.Fprintln(s.app.out, s.portfolio.Render())
		return nil
	}
	symbol, err := PromptForHolding(s.portfolio)
	if err != nil {
		return err
	}
	s.portfolio.Remove(symbol)
	display.DisplaySuccess(s.app.out, "已移除 "+symbol)
	return nil
}

func (s *InteractiveSession) runAdvice(ctx context.Context) error {
	symbol, err := PromptForInstrument(s.instruments(ctx))
	if err != nil {
		return err
	}
	row, err := s.app.Evaluate(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.app.out, advisory.Digest(row.Quote, row.Metrics))
	fmt.Fprintln(s.app.out)
	fmt.Fprintln(s.app.out, s.app.Advisor(ctx).Advise(ctx, row.Quote, row.Metrics))
	return nil
}
