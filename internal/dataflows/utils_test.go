package dataflows

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"0056":     "0056.TW",
		" 00679b ": "00679B.TW",
		"00919.tw": "00919.TW",
		"006208":   "006208.TW",
		"AAPL":     "AAPL",
		"2330.TWO": "2330.TWO",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Fatalf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
	if got := QuoteURL("0056"); got != "https://tw.stock.yahoo.com/quote/0056.TW" {
		t.Fatalf("QuoteURL = %s", got)
	}
}

func TestCacheManager(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Hour, true)

	var out []string
	if cm.Get("src", "m", "k", &out) {
		t.Fatalf("unexpected hit on empty cache")
	}
	if err := cm.Set("src", "m", "k", []string{"a", "b"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !cm.Get("src", "m", "k", &out) || len(out) != 2 {
		t.Fatalf("expected hit, got %v", out)
	}

	disabled := NewCacheManager(t.TempDir(), time.Hour, false)
	_ = disabled.Set("src", "m", "k", []string{"a"})
	if disabled.Get("src", "m", "k", &out) {
		t.Fatalf("disabled cache returned a hit")
	}
}

func TestWithRetry(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}

	calls := 0
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("got err %v after %d calls", err, calls)
	}

	sentinel := errors.New("gone")
	calls = 0
	err = WithRetry(context.Background(), cfg, func() error {
		calls++
		return Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) || calls != 1 {
		t.Fatalf("permanent: got err %v after %d calls", err, calls)
	}

	calls = 0
	err = WithRetry(context.Background(), cfg, func() error {
		calls++
		return errors.New("always")
	})
	if err == nil || calls != 3 {
		t.Fatalf("exhausted: got err %v after %d calls", err, calls)
	}
}

func TestWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}
	err := WithRetry(ctx, cfg, func() error { return errors.New("transient") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
