package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dyike/DivGo/config"
	"github.com/dyike/DivGo/internal/advisory"
	"github.com/dyike/DivGo/internal/display"
	"github.com/dyike/DivGo/internal/engine"
	"github.com/dyike/DivGo/internal/logger"
	"github.com/dyike/DivGo/internal/server"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg, mgr, err := config.Load()
	if err != nil {
		logger.Component("config").WithError(err).Warn("settings file unavailable, using environment only")
	}
	return newRootCmd(NewApp(cfg, mgr))
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "divgo",
		Short: "DivGo - Taiwan ETF dividend scanner",
		Long: `DivGo ranks Taiwan-listed ETFs by the dividends they paid over the trailing year,
projects the monthly income of whole-lot purchases and optionally asks a language model for a short commentary.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				app.cfg.Debug = true
			}
			logger.Init(app.cfg.LogLevel, app.cfg.Debug, app.errOut)

			if err := app.cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: start interactive mode
			return NewInteractiveSession(app).Start(cmd.Context())
		},
	}
	rootCmd.SetOut(app.out)
	rootCmd.SetErr(app.errOut)

	rootCmd.AddCommand(newScanCmd(app))
	rootCmd.AddCommand(newCalcCmd(app))
	rootCmd.AddCommand(newAdviseCmd(app))
	rootCmd.AddCommand(newDirectoryCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newVersionCmd(app))

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&app.offline, "offline", false, "Use the built-in ETF table and cached market data only")

	return rootCmd
}

func newScanCmd(app *App) *cobra.Command {
	var (
		sortKey  string
		filter   string
		limit    int
		jsonPath string
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the ETF directory and rank by dividend income",
		Long: `Fetch price and trailing-year dividends for every listed ETF and print them ranked.
Example: divgo scan --sort yield --filter 高股息 --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := engine.ParseSortKey(sortKey)
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("%w: limit must not be negative", engine.ErrInvalidInput)
			}
			return runScan(cmd.Context(), app, key, filter, limit, jsonPath)
		},
	}
	cmd.Flags().StringVar(&sortKey, "sort", "monthly", "Sort by monthly, yield or price")
	cmd.Flags().StringVar(&filter, "filter", "", "Keep rows whose symbol or name contains TEXT")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most N rows (0 shows all)")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Also write the ranked rows to this JSON file")
	return cmd
}

func runScan(ctx context.Context, app *App, key engine.SortKey, filter string, limit int, jsonPath string) error {
	listing := app.Directory().List(ctx)
	if listing.Degraded {
		display.DisplayWarning(app.out, "無法取得證交所清單，改用內建熱門 ETF 名單: "+listing.Reason)
	}

	sc := app.Scanner()
	sc.OnProgress = func(done, total int, symbol string) {
		display.DisplayProgress(app.errOut, "掃描中", done, total)
	}
	result := sc.Scan(ctx, listing.Instruments)

	rows := result.Ranked(key, filter)
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	fmt.Fprintln(app.out, display.Title(fmt.Sprintf("高股息 ETF 排行 (%s，共 %d 檔)", key, len(rows))))
	fmt.Fprintln(app.out, display.RankingTable(rows))

	if len(result.Skipped) > 0 {
		parts := make([]string, 0, len(result.Skipped))
		for _, s := range result.Skipped {
			parts = append(parts, fmt.Sprintf("%s(%s)", s.Symbol, s.Reason))
		}
		fmt.Fprintln(app.out, display.Muted(fmt.Sprintf("略過 %d 檔: %s", len(parts), strings.Join(parts, ", "))))
	}

	if jsonPath != "" {
		if err := display.SaveJSON(rows, jsonPath); err != nil {
			return err
		}
		display.DisplaySuccess(app.out, "結果已寫入 "+jsonPath)
	}
	return nil
}

func newCalcCmd(app *App) *cobra.Command {
	var cashStr string
	cmd := &cobra.Command{
		Use:   "calc SYMBOL",
		Short: "Show per-lot income and what a cash amount buys",
		Long: `Compute the cost of one lot, the trailing-year income per lot and how many whole lots a cash amount buys.
Example: divgo calc 0056 --cash 100000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cash, err := decimal.NewFromString(strings.ReplaceAll(cashStr, ",", ""))
			if err != nil {
				return fmt.Errorf("%w: cash must be a number, got %q", engine.ErrInvalidInput, cashStr)
			}
			row, entry, err := app.Calculate(cmd.Context(), args[0], cash)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.out, display.CalcPanel(row, cash, entry))
			return nil
		},
	}
	cmd.Flags().StringVar(&cashStr, "cash", "100000", "Cash to invest, in NT dollars")
	return cmd
}

func newAdviseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "advise SYMBOL",
		Short: "Ask the language model for a short commentary on one ETF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			row, err := app.Evaluate(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(app.out, display.Title(row.Quote.Symbol+" "+row.Quote.DisplayName))
			fmt.Fprintln(app.out, advisory.Digest(row.Quote, row.Metrics))
			fmt.Fprintln(app.out)
			fmt.Fprintln(app.out, app.Advisor(ctx).Advise(ctx, row.Quote, row.Metrics))
			return nil
		},
	}
}

func newDirectoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "directory",
		Short: "List the instruments a scan covers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listing := app.Directory().List(cmd.Context())

			fmt.Fprintf(app.out, "Source:    %s\n", listing.Source)
			fmt.Fprintf(app.out, "Entries:   %d\n", len(listing.Instruments))
			if !listing.FetchedAt.IsZero() {
				fmt.Fprintf(app.out, "Fetched:   %s\n", listing.FetchedAt.Format("2006-01-02 15:04"))
			}
			if listing.Degraded {
				display.DisplayWarning(app.out, "degraded: "+listing.Reason)
			}

			rows := make([][]string, 0, len(listing.Instruments))
			for _, symbol := range listing.Symbols() {
				rows = append(rows, []string{symbol, listing.Instruments[symbol]})
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("代號", "名稱").
				Rows(rows...)
			fmt.Fprintln(app.out, t.String())
			return nil
		},
	}
}

func newServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rankings and the calculator as a JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				app.cfg.ServerAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var opts []server.Option
			if app.manager != nil {
				opts = append(opts, server.WithManager(app.manager))
			}
			srv := server.New(app.cfg, app.Scanner(), app.Directory(), app.Advisor(ctx), opts...)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server_addr)")
	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(app.out, "DivGo %s\n", version)
			fmt.Fprintln(app.out, "Taiwan ETF dividend scanner")
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(app *App) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Inspect and change DivGo settings",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(app)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(app)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.manager == nil {
				return errors.New("settings file unavailable")
			}
			fmt.Fprintln(app.out, app.manager.Path())
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting in the settings file",
		Long: `Change one setting by its JSON name.
Example: divgo config set scan_concurrency 8`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.manager == nil {
				return errors.New("settings file unavailable")
			}
			if err := app.manager.Set(args[0], args[1]); err != nil {
				return err
			}
			display.DisplaySuccess(app.out, fmt.Sprintf("%s = %s", args[0], args[1]))
			return nil
		},
	})

	return configCmd
}

// showConfig displays the current configuration
func showConfig(app *App) {
	cfg := app.cfg
	out := app.out
	fmt.Fprintln(out, "📋 Current DivGo Configuration:")
	fmt.Fprintln(out, "═══════════════════════════════════════")
	fmt.Fprintf(out, "Project Directory:    %s\n", cfg.ProjectDir)
	fmt.Fprintf(out, "Data Directory:       %s\n", cfg.DataDir)
	fmt.Fprintf(out, "Cache Directory:      %s\n", cfg.DataCacheDir)
	if app.manager != nil {
		fmt.Fprintf(out, "Settings File:        %s\n", app.manager.Path())
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Lot Size:             %d\n", cfg.LotSize)
	fmt.Fprintf(out, "Directory URL:        %s\n", cfg.DirectoryURL)
	fmt.Fprintf(out, "Directory Section:    %s\n", cfg.DirectorySection)
	fmt.Fprintf(out, "Directory Min Rows:   %d\n", cfg.DirectoryMinEntries)
	fmt.Fprintf(out, "Scan Concurrency:     %d\n", cfg.ScanConcurrency)
	fmt.Fprintf(out, "Requests/Second:      %v\n", cfg.RequestsPerSecond)
	fmt.Fprintf(out, "HTTP Timeout:         %s\n", cfg.HTTPTimeout)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Online Tools:         %t\n", cfg.OnlineTools && !app.offline)
	fmt.Fprintf(out, "Cache Enabled:        %t\n", cfg.CacheEnabled)
	fmt.Fprintf(out, "Cache TTL:            %s\n", cfg.CacheTTL)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "LLM Provider:         %s\n", cfg.LLMProvider)
	fmt.Fprintf(out, "Model:                %s\n", cfg.QuickThinkLLM)
	fmt.Fprintf(out, "Backend URL:          %s\n", cfg.BackendURL)
	if cfg.APIKey() != "" {
		fmt.Fprintln(out, "API Key:              ✅ Configured")
	} else {
		fmt.Fprintln(out, "API Key:              ❌ Not configured (advisory disabled)")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Server Address:       %s\n", cfg.ServerAddr)
	fmt.Fprintf(out, "Scan Schedule:        %s\n", cfg.ScanSchedule)
	fmt.Fprintf(out, "Log Level:            %s\n", cfg.LogLevel)
	fmt.Fprintf(out, "Debug Mode:           %t\n", cfg.Debug)
}

// validateConfig validates the configuration and dependencies
func validateConfig(app *App) error {
	cfg := app.cfg
	out := app.out
	fmt.Fprintln(out, "🔍 Validating DivGo Configuration...")
	fmt.Fprintln(out, "═══════════════════════════════════════")

	fmt.Fprint(out, "📁 Checking directories... ")
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintln(out, "❌")
		return fmt.Errorf("directory validation failed: %w", err)
	}
	fmt.Fprintln(out, "✅")

	fmt.Fprint(out, "⚙️  Checking configuration values... ")
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(out, "❌")
		return err
	}
	fmt.Fprintln(out, "✅")

	var warnings []string
	if cfg.APIKey() == "" {
		warnings = append(warnings, fmt.Sprintf("no API key for %s, advisory text is disabled", cfg.LLMProvider))
	}
	if !cfg.OnlineTools {
		warnings = append(warnings, "online tools are off, scans read cached data only")
	}
	if !cfg.CacheEnabled {
		warnings = append(warnings, "cache is off, offline scans will skip every symbol")
	}
	sort.Strings(warnings)

	fmt.Fprintln(out)
	if len(warnings) == 0 {
		display.DisplaySuccess(out, "Configuration validation completed successfully!")
		return nil
	}
	for _, w := range warnings {
		display.DisplayWarning(out, w)
	}
	fmt.Fprintf(out, "Configuration validation completed with %d warnings.\n", len(warnings))
	return nil
}
