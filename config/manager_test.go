package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManagerCreatesAndUpdates(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	path := filepath.Join(dir, "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	cfg := mgr.Get()
	if cfg.LotSize != DefaultLotSize {
		t.Fatalf("expected default lot size %d, got %d", DefaultLotSize, cfg.LotSize)
	}
	cfg.ProjectDir = filepath.Join(dir, "project")
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.DataCacheDir = filepath.Join(dir, "cache")

	data, _ := json.Marshal(cfg)
	if err := mgr.UpdateFromJSON(string(data)); err != nil {
		t.Fatalf("UpdateFromJSON: %v", err)
	}

	updated := mgr.Get()
	if updated.ProjectDir != cfg.ProjectDir {
		t.Fatalf("expected project dir %s, got %s", cfg.ProjectDir, updated.ProjectDir)
	}
}

func TestManagerRejectsInvalidUpdate(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := mgr.Get()
	cfg.LotSize = 0
	if err := mgr.Update(cfg); err == nil {
		t.Fatalf("expected validation error for zero lot size")
	}
	if got := mgr.Get().LotSize; got != DefaultLotSize {
		t.Fatalf("lot size changed to %d after rejected update", got)
	}
}

func TestManagerSet(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if err := mgr.Set("lot_size", "500"); err != nil {
		t.Fatalf("Set lot_size: %v", err)
	}
	if err := mgr.Set("directory_section", "受益證券"); err != nil {
		t.Fatalf("Set directory_section: %v", err)
	}
	if err := mgr.Set("cache_enabled", "false"); err != nil {
		t.Fatalf("Set cache_enabled: %v", err)
	}
	if err := mgr.Set("http_timeout", "3s"); err != nil {
		t.Fatalf("Set http_timeout: %v", err)
	}

	cfg := mgr.Get()
	if cfg.LotSize != 500 {
		t.Fatalf("expected lot size 500, got %d", cfg.LotSize)
	}
	if cfg.DirectorySection != "受益證券" {
		t.Fatalf("unexpected section %q", cfg.DirectorySection)
	}
	if cfg.CacheEnabled {
		t.Fatalf("expected cache disabled")
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %v", cfg.HTTPTimeout)
	}

	if err := mgr.Set("no_such_key", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if err := mgr.Set("lot_size", "many"); err == nil {
		t.Fatalf("expected error for non-numeric lot size")
	}
	if err := mgr.Set("lot_size", "-1"); err == nil {
		t.Fatalf("expected validation error for negative lot size")
	}

	reloaded, err := NewManager(WithConfigPath(mgr.Path()))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reloaded.Get().LotSize != 500 {
		t.Fatalf("lot size not persisted, got %d", reloaded.Get().LotSize)
	}
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 1)
	if err := mgr.Watch(ctx, func(cfg Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cfg := mgr.Get()
	cfg.ScanConcurrency = 8

	if err := writeConfigFile(mgr.Path(), cfg); err != nil {
		t.Fatalf("writeConfigFile: %v", err)
	}

	select {
	case got := <-reloaded:
		if got.ScanConcurrency != 8 {
			t.Fatalf("expected concurrency 8 after reload, got %d", got.ScanConcurrency)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not fire on config change")
	}
}

func TestLoadKeepsKeysOutOfFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DEEPSEEK_API_KEY", "sk-secret")
	t.Setenv("SCAN_CONCURRENCY", "6")

	cfg, mgr, err := Load(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DeepSeekAPIKey != "sk-secret" || cfg.ScanConcurrency != 6 {
		t.Fatalf("environment not applied: %+v", cfg)
	}

	data, err := os.ReadFile(mgr.Path())
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var onDisk Config
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if onDisk.DeepSeekAPIKey != "" {
		t.Fatalf("API key persisted to %s", mgr.Path())
	}
}

func TestReloadKeepsCurrentOnInvalidFile(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	calls := 0
	mgr.onChange = func(Config) { calls++ }

	bad := mgr.Get()
	bad.LotSize = 0
	if err := writeConfigFile(mgr.Path(), bad); err != nil {
		t.Fatalf("writeConfigFile: %v", err)
	}
	mgr.reloadFromDisk()

	if got := mgr.Get().LotSize; got != DefaultLotSize {
		t.Fatalf("lot size = %d after invalid file, want %d", got, DefaultLotSize)
	}
	if calls != 0 {
		t.Fatalf("callback ran %d times for an invalid file", calls)
	}
}

func TestReloadNotifiesOnlyForLiveSettings(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	var got []Config
	mgr.onChange = func(cfg Config) { got = append(got, cfg) }

	cfg := mgr.Get()
	cfg.ServerAddr = ":9191"
	if err := writeConfigFile(mgr.Path(), cfg); err != nil {
		t.Fatalf("writeConfigFile: %v", err)
	}
	mgr.reloadFromDisk()
	if mgr.Get().ServerAddr != ":9191" {
		t.Fatalf("server_addr not reloaded")
	}
	if len(got) != 0 {
		t.Fatalf("callback ran for a restart-only setting")
	}

	cfg.LotSize = 500
	if err := writeConfigFile(mgr.Path(), cfg); err != nil {
		t.Fatalf("writeConfigFile: %v", err)
	}
	mgr.reloadFromDisk()
	if len(got) != 1 || got[0].LotSize != 500 {
		t.Fatalf("expected one callback with lot size 500, got %+v", got)
	}
}

func TestChangedKeys(t *testing.T) {
	a := *DefaultConfig()
	b := a
	b.ScanConcurrency = a.ScanConcurrency + 1
	b.ScanSchedule = "@every 1h"

	keys := ChangedKeys(a, b)
	if len(keys) != 2 || keys[0] != "scan_concurrency" || keys[1] != "scan_schedule" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if restart := restartKeys(keys); len(restart) != 1 || restart[0] != "scan_schedule" {
		t.Fatalf("unexpected restart keys %v", restart)
	}
	if len(ChangedKeys(a, a)) != 0 {
		t.Fatalf("identical configs reported changes")
	}
}
