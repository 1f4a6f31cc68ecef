package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dyike/DivGo/config"
	"github.com/dyike/DivGo/internal/advisory"
	"github.com/dyike/DivGo/internal/directory"
	"github.com/dyike/DivGo/internal/engine"
)

type fakeProvider struct {
	prices map[string]string
	events map[string][]engine.DividendEvent
}

func (p fakeProvider) LastPrice(ctx context.Context, symbol string) (decimal.NullDecimal, error) {
	if v, ok := p.prices[symbol]; ok {
		return decimal.NewNullDecimal(decimal.RequireFromString(v)), nil
	}
	return decimal.NullDecimal{}, nil
}

func (p fakeProvider) DividendHistory(ctx context.Context, symbol string) ([]engine.DividendEvent, error) {
	return p.events[symbol], nil
}

func quarterly(amount string) []engine.DividendEvent {
	now := time.Now()
	var out []engine.DividendEvent
	for _, m := range []int{-10, -7, -4, -1} {
		out = append(out, engine.DividendEvent{PaidAt: now.AddDate(0, m, 0), Amount: decimal.RequireFromString(amount)})
	}
	return out
}

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfigWithRoot(root)

	mgr, err := config.NewManager(config.WithConfigDir(filepath.Join(root, "settings")), config.WithInitialConfig(cfg))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	var out bytes.Buffer
	app := NewApp(cfg, mgr)
	app.out = &out
	app.errOut = &bytes.Buffer{}
	app.provider = fakeProvider{
		prices: map[string]string{"0056.TW": "36.5", "00878.TW": "21.7"},
		events: map[string][]engine.DividendEvent{
			"0056.TW":  quarterly("0.75"),
			"00878.TW": quarterly("0.5"),
		},
	}
	app.dir = directory.StaticDirectory{}
	app.advisor = &advisory.Advisor{}
	return app, &out
}

func execute(t *testing.T, app *App, args ...string) error {
	t.Helper()
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestScanCommand(t *testing.T) {
	app, out := newTestApp(t)
	jsonPath := filepath.Join(t.TempDir(), "scan.json")

	if err := execute(t, app, "scan", "--sort", "yield", "--limit", "1", "--json", jsonPath); err != nil {
		t.Fatalf("scan: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "國泰永續高股息") {
		t.Fatalf("top row missing:\n%s", text)
	}
	if !strings.Contains(text, "略過") || !strings.Contains(text, "unknown_price") {
		t.Fatalf("skipped symbols not reported:\n%s", text)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var rows []engine.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(rows) != 1 || rows[0].Quote.Symbol != "00878.TW" {
		t.Fatalf("unexpected saved rows %+v", rows)
	}
}

func TestScanRejectsBadSort(t *testing.T) {
	app, _ := newTestApp(t)
	err := execute(t, app, "scan", "--sort", "volume")
	if !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCalcCommand(t *testing.T) {
	app, out := newTestApp(t)
	if err := execute(t, app, "calc", "0056", "--cash", "100,000"); err != nil {
		t.Fatalf("calc: %v", err)
	}
	text := out.String()
	for _, want := range []string{"元大高股息", "36,500", "2 張", "27,000"} {
		if !strings.Contains(text, want) {
			t.Fatalf("calc output missing %q:\n%s", want, text)
		}
	}

	out.Reset()
	if err := execute(t, app, "calc", "0056", "--cash", "1000"); err != nil {
		t.Fatalf("calc: %v", err)
	}
	if !strings.Contains(out.String(), "資金不足以買進一張") {
		t.Fatalf("expected insufficient warning:\n%s", out.String())
	}

	if err := execute(t, app, "calc", "0056", "--cash", "abc"); !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad cash, got %v", err)
	}
	if err := execute(t, app, "calc", "00713", "--cash", "1000"); !errors.Is(err, engine.ErrUnknownPrice) {
		t.Fatalf("expected ErrUnknownPrice, got %v", err)
	}
}

func TestAdviseCommandWithoutKey(t *testing.T) {
	app, out := newTestApp(t)
	if err := execute(t, app, "advise", "0056.TW"); err != nil {
		t.Fatalf("advise: %v", err)
	}
	if !strings.Contains(out.String(), advisory.DisabledText) {
		t.Fatalf("expected disabled text:\n%s", out.String())
	}
}

func TestDirectoryCommand(t *testing.T) {
	app, out := newTestApp(t)
	if err := execute(t, app, "directory"); err != nil {
		t.Fatalf("directory: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, directory.SourceStatic) || !strings.Contains(text, "00878.TW") {
		t.Fatalf("unexpected directory output:\n%s", text)
	}
}

func TestConfigCommands(t *testing.T) {
	app, out := newTestApp(t)

	if err := execute(t, app, "config", "path"); err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out.String()), "config.json") {
		t.Fatalf("unexpected path %q", out.String())
	}

	if err := execute(t, app, "config", "set", "scan_concurrency", "8"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if got := app.manager.Get().ScanConcurrency; got != 8 {
		t.Fatalf("scan_concurrency = %d, want 8", got)
	}
	if err := execute(t, app, "config", "set", "no_such_key", "1"); err == nil {
		t.Fatalf("expected an error for an unknown key")
	}

	out.Reset()
	if err := execute(t, app, "config", "validate"); err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out.String(), "advisory text is disabled") {
		t.Fatalf("missing API key warning:\n%s", out.String())
	}

	app.cfg.LotSize = 0
	if err := execute(t, app, "config", "validate"); err == nil {
		t.Fatalf("expected validation to fail for lot_size 0")
	}
}

func TestVersionCommand(t *testing.T) {
	app, out := newTestApp(t)
	if err := execute(t, app, "version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestPromptHelpers(t *testing.T) {
	listing := directory.Listing{Instruments: map[string]string{"0056.TW": "元大高股息", "0050.TW": "元大台灣50"}}
	options := instrumentOptions(listing)
	if len(options) != 2 || options[0] != "0050.TW 元大台灣50" {
		t.Fatalf("unexpected options %v", options)
	}
	if got := optionSymbol(options[1]); got != "0056.TW" {
		t.Fatalf("optionSymbol = %q", got)
	}

	if cash, err := parseCash(" 1,000,000 "); err != nil || !cash.Equal(decimal.NewFromInt(1000000)) {
		t.Fatalf("parseCash = %s, %v", cash, err)
	}
	if _, err := parseCash("-1"); err == nil {
		t.Fatalf("negative cash accepted")
	}
	if _, err := parseCash("abc"); err == nil {
		t.Fatalf("non-numeric cash accepted")
	}
}
