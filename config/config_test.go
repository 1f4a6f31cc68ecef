package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DIVGO_LOT_SIZE", "100")
	t.Setenv("DIRECTORY_MIN_ENTRIES", "25")
	t.Setenv("SCAN_CONCURRENCY", "6")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.loadFromEnv()

	if cfg.LotSize != 100 {
		t.Fatalf("expected lot size 100, got %d", cfg.LotSize)
	}
	if cfg.DirectoryMinEntries != 25 {
		t.Fatalf("expected min entries 25, got %d", cfg.DirectoryMinEntries)
	}
	if cfg.ScanConcurrency != 6 {
		t.Fatalf("expected concurrency 6, got %d", cfg.ScanConcurrency)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.HTTPTimeout)
	}
	if cfg.CacheEnabled {
		t.Fatalf("expected cache disabled")
	}
	if cfg.APIKey() != "sk-test" {
		t.Fatalf("expected openai key to be selected, got %q", cfg.APIKey())
	}
}

func TestLoadFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("DIVGO_LOT_SIZE", "a lot")
	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.loadFromEnv()
	if cfg.LotSize != DefaultLotSize {
		t.Fatalf("expected default lot size to survive bad env, got %d", cfg.LotSize)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cases := map[string]func(c *Config){
		"zero lot size":    func(c *Config) { c.LotSize = 0 },
		"negative lot":     func(c *Config) { c.LotSize = -1000 },
		"zero min entries": func(c *Config) { c.DirectoryMinEntries = 0 },
		"no workers":       func(c *Config) { c.ScanConcurrency = 0 },
		"zero rate":        func(c *Config) { c.RequestsPerSecond = 0 },
	}
	for name, mutate := range cases {
		c := DefaultConfigWithRoot(t.TempDir())
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestDeepSeekKeySelection(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.DeepSeekAPIKey = "ds"
	cfg.OpenAIAPIKey = "oa"
	if cfg.APIKey() != "ds" {
		t.Fatalf("expected deepseek key for default provider, got %q", cfg.APIKey())
	}
}
