// Package directory supplies the universe of instruments to scan.
package directory

import (
	"context"
	"fmt"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dyike/DivGo/config"
	"github.com/dyike/DivGo/internal/logger"
)

const (
	SourceTWSE   = "twse"
	SourceStatic = "static"

	listingKey = "listing"
)

// Listing maps symbol to display name. Degraded is set whenever the live
// source was replaced by the built-in table, with Reason saying why.
type Listing struct {
	Instruments map[string]string `json:"instruments"`
	Degraded    bool              `json:"degraded"`
	Reason      string            `json:"reason,omitempty"`
	Source      string            `json:"source"`
	FetchedAt   time.Time         `json:"fetched_at"`
}

// Symbols returns the listed symbols in ascending order.
func (l Listing) Symbols() []string {
	out := make([]string, 0, len(l.Instruments))
	for s := range l.Instruments {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Directory never fails: it degrades to the built-in table instead.
type Directory interface {
	List(ctx context.Context) Listing
}

// New returns the live exchange directory, or the built-in one when offline.
func New(cfg *config.Config, offline bool) Directory {
	if offline || !cfg.OnlineTools {
		return StaticDirectory{}
	}
	return NewTWSEDirectory(cfg)
}

// StaticDirectory serves the built-in table without touching the network.
type StaticDirectory struct{}

func (StaticDirectory) List(context.Context) Listing {
	return Listing{
		Instruments: Static(),
		Source:      SourceStatic,
		FetchedAt:   time.Now(),
	}
}

// TWSEDirectory reads the exchange's ISIN listing and falls back to the
// built-in table when the page is unreachable or returns too few entries.
type TWSEDirectory struct {
	fetcher    *isinFetcher
	minEntries int
	cache      *gocache.Cache
}

func NewTWSEDirectory(cfg *config.Config) *TWSEDirectory {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	minEntries := cfg.DirectoryMinEntries
	if minEntries <= 0 {
		minEntries = config.DefaultDirectoryMinEntries
	}
	return &TWSEDirectory{
		fetcher:    newISINFetcher(cfg),
		minEntries: minEntries,
		cache:      gocache.New(ttl, 2*ttl),
	}
}

func (d *TWSEDirectory) List(ctx context.Context) Listing {
	if cached, ok := d.cache.Get(listingKey); ok {
		return cached.(Listing)
	}

	log := logger.FromContext(ctx, "directory")

	instruments, err := d.fetcher.Fetch(ctx)
	var reason string
	switch {
	case err != nil:
		reason = fmt.Sprintf("exchange listing unavailable: %v", err)
	case len(instruments) < d.minEntries:
		reason = fmt.Sprintf("exchange listing returned %d entries, fewer than %d", len(instruments), d.minEntries)
	default:
		listing := Listing{
			Instruments: instruments,
			Source:      SourceTWSE,
			FetchedAt:   time.Now(),
		}
		d.cache.SetDefault(listingKey, listing)
		log.WithField("count", len(instruments)).Info("loaded exchange listing")
		return listing
	}

	log.WithField("reason", reason).Warn("using built-in instrument table")
	return Listing{
		Instruments: Static(),
		Degraded:    true,
		Reason:      reason,
		Source:      SourceStatic,
		FetchedAt:   time.Now(),
	}
}

// Invalidate drops the cached listing so the next List refetches.
func (d *TWSEDirectory) Invalidate() {
	d.cache.Delete(listingKey)
}
