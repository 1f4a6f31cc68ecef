package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/dyike/DivGo/config"
	"github.com/dyike/DivGo/internal/advisory"
	"github.com/dyike/DivGo/internal/dataflows"
	"github.com/dyike/DivGo/internal/directory"
	"github.com/dyike/DivGo/internal/engine"
	"github.com/dyike/DivGo/internal/scanner"
)

// App holds what the commands share. Collaborators are built on first use so
// the offline flag is known by then and tests can preset fakes.
type App struct {
	cfg     *config.Config
	manager *config.Manager
	out     io.Writer
	errOut  io.Writer
	offline bool

	provider dataflows.Provider
	dir      directory.Directory
	advisor  *advisory.Advisor
	scanner  *scanner.Scanner
}

func NewApp(cfg *config.Config, manager *config.Manager) *App {
	return &App{
		cfg:     cfg,
		manager: manager,
		out:     os.Stdout,
		errOut:  os.Stderr,
	}
}

// dataConfig is the config handed to network clients; offline mode only reads
// the local cache.
func (a *App) dataConfig() *config.Config {
	c := *a.cfg
	if a.offline {
		c.OnlineTools = false
	}
	return &c
}

func (a *App) Provider() dataflows.Provider {
	if a.provider == nil {
		a.provider = dataflows.NewProvider(a.dataConfig())
	}
	return a.provider
}

func (a *App) Directory() directory.Directory {
	if a.dir == nil {
		a.dir = directory.New(a.dataConfig(), a.offline)
	}
	return a.dir
}

func (a *App) Scanner() *scanner.Scanner {
	if a.scanner == nil {
		a.scanner = scanner.New(a.Provider(), a.cfg)
	}
	return a.scanner
}

func (a *App) Advisor(ctx context.Context) *advisory.Advisor {
	if a.advisor == nil {
		a.advisor = advisory.New(ctx, a.cfg)
	}
	return a.advisor
}

// Evaluate computes one row, taking the display name from the directory.
func (a *App) Evaluate(ctx context.Context, symbol string) (engine.Row, error) {
	symbol = dataflows.NormalizeSymbol(symbol)
	name := a.Directory().List(ctx).Instruments[symbol]

	out := a.Scanner().Evaluate(ctx, symbol, name, timeNow())
	if out.Err != nil {
		return engine.Row{}, out.Err
	}
	return *out.Row, nil
}

// Calculate evaluates symbol and projects what cash buys.
func (a *App) Calculate(ctx context.Context, symbol string, cash decimal.Decimal) (engine.Row, engine.PortfolioEntry, error) {
	row, err := a.Evaluate(ctx, symbol)
	if err != nil {
		return engine.Row{}, engine.PortfolioEntry{}, err
	}
	entry, err := engine.ProjectPurchase(cash, row.Quote.LastPrice, row.Metrics.MonthlyIncomePerLot, row.Metrics.LotSize)
	if err != nil {
		return row, engine.PortfolioEntry{}, fmt.Errorf("calculate %s: %w", row.Quote.Symbol, err)
	}
	return row, entry, nil
}
