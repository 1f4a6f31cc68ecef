// Package scanner evaluates many securities concurrently and collects the
// rows that could be computed alongside the ones that had to be skipped.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dyike/DivGo/config"
	"github.com/dyike/DivGo/internal/dataflows"
	"github.com/dyike/DivGo/internal/engine"
	"github.com/dyike/DivGo/internal/logger"
)

const defaultConcurrency = 4

const (
	ReasonUnknownPrice          = "unknown_price"
	ReasonDataSourceUnavailable = "data_source_unavailable"
	ReasonInvalidInput          = "invalid_input"
	ReasonCanceled              = "canceled"
)

// Outcome is the result of evaluating one security. Row is set on success.
// A security without a usable price carries both ErrUnknownPrice and a Row
// holding its dividend history with no yield.
type Outcome struct {
	Symbol string
	Name   string
	Row    *engine.Row
	Err    error
}

// Skip records a security that produced no row.
type Skip struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// BatchResult holds the rows of one scan ordered by symbol.
type BatchResult struct {
	ID       string       `json:"id"`
	Rows     []engine.Row `json:"rows"`
	Skipped  []Skip       `json:"skipped"`
	// Unpriced keeps the history of skipped securities that had no price.
	Unpriced []engine.Row `json:"unpriced"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
}

// Ranked filters by term and ranks by key. Rows without a price never appear.
func (r *BatchResult) Ranked(key engine.SortKey, term string) []engine.Row {
	if r == nil {
		return nil
	}
	return engine.Rank(engine.Filter(r.Rows, term), key)
}

// Reason classifies an evaluation error for reporting.
func Reason(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	case errors.Is(err, engine.ErrUnknownPrice):
		return ReasonUnknownPrice
	case errors.Is(err, engine.ErrInvalidInput):
		return ReasonInvalidInput
	default:
		return ReasonDataSourceUnavailable
	}
}

type Scanner struct {
	provider dataflows.Provider

	mu          sync.RWMutex
	lotSize     int64
	concurrency int
	now         func() time.Time

	// OnProgress, when set, is called once per finished security from the
	// collecting goroutine.
	OnProgress func(done, total int, symbol string)
}

func New(provider dataflows.Provider, cfg *config.Config) *Scanner {
	if provider == nil {
		panic("scanner: provider must not be nil")
	}
	s := &Scanner{
		provider: provider,
		now:      time.Now,
	}
	s.Configure(cfg.LotSize, cfg.ScanConcurrency)
	return s
}

// Configure changes lot size and pool width for subsequent scans.
// Non-positive values select the defaults.
func (s *Scanner) Configure(lotSize int64, concurrency int) {
	if lotSize <= 0 {
		lotSize = config.DefaultLotSize
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	s.mu.Lock()
	s.lotSize = lotSize
	s.concurrency = concurrency
	s.mu.Unlock()
}

func (s *Scanner) settings() (int64, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lotSize, s.concurrency
}

// Evaluate fetches one security and computes its metrics as of asOf.
func (s *Scanner) Evaluate(ctx context.Context, symbol, name string, asOf time.Time) Outcome {
	out := Outcome{Symbol: symbol, Name: name}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	price, err := s.provider.LastPrice(ctx, symbol)
	if err != nil {
		out.Err = err
		return out
	}
	var unknownPrice error
	if !price.Valid || !price.Decimal.IsPositive() {
		unknownPrice = fmt.Errorf("%w: %s", engine.ErrUnknownPrice, symbol)
		price = decimal.NewNullDecimal(decimal.Zero)
	}

	events, err := s.provider.DividendHistory(ctx, symbol)
	if err != nil {
		out.Err = err
		if unknownPrice != nil {
			out.Err = unknownPrice
		}
		return out
	}

	lotSize, _ := s.settings()
	metrics, err := engine.ComputeMetrics(price.Decimal, events, lotSize, asOf)
	if err != nil {
		out.Err = err
		return out
	}

	out.Row = &engine.Row{
		Quote: engine.SecurityQuote{
			Symbol:      symbol,
			DisplayName: name,
			LastPrice:   price.Decimal,
		},
		Metrics: metrics,
	}
	out.Err = unknownPrice
	return out
}

type job struct {
	symbol string
	name   string
}

// Scan evaluates every instrument with a bounded pool. One failing security
// never aborts the batch, and a canceled ctx only skips what has not run yet.
func (s *Scanner) Scan(ctx context.Context, instruments map[string]string) *BatchResult {
	id := logger.NewScanID()
	ctx = logger.WithScanID(ctx, id)
	log := logger.FromContext(ctx, "scanner")

	result := &BatchResult{
		ID:       id,
		Rows:     []engine.Row{},
		Skipped:  []Skip{},
		Unpriced: []engine.Row{},
		Started:  s.now(),
	}
	asOf := result.Started
	total := len(instruments)

	jobs := make(chan job, total)
	for symbol, name := range instruments {
		jobs <- job{symbol: symbol, name: name}
	}
	close(jobs)

	_, workers := s.settings()
	if workers > total {
		workers = total
	}
	log.WithFields(logrus.Fields{"total": total, "workers": workers}).Info("scan started")

	outcomes := make(chan Outcome, total)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				outcomes <- s.Evaluate(ctx, j.symbol, j.name, asOf)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	done := 0
	for o := range outcomes {
		done++
		entry := log.WithField("symbol", o.Symbol)
		if o.Err != nil {
			reason := Reason(o.Err)
			result.Skipped = append(result.Skipped, Skip{
				Symbol: o.Symbol,
				Name:   o.Name,
				Reason: reason,
				Detail: o.Err.Error(),
			})
			entry.WithField("reason", reason).Debugf("skipped: %v", o.Err)
			if o.Row != nil {
				result.Unpriced = append(result.Unpriced, *o.Row)
			}
		} else {
			result.Rows = append(result.Rows, *o.Row)
			entry.Debug("evaluated")
		}
		if s.OnProgress != nil {
			s.OnProgress(done, total, o.Symbol)
		}
	}

	sort.Slice(result.Rows, func(i, j int) bool {
		return result.Rows[i].Quote.Symbol < result.Rows[j].Quote.Symbol
	})
	sort.Slice(result.Skipped, func(i, j int) bool {
		return result.Skipped[i].Symbol < result.Skipped[j].Symbol
	})
	sort.Slice(result.Unpriced, func(i, j int) bool {
		return result.Unpriced[i].Quote.Symbol < result.Unpriced[j].Quote.Symbol
	})
	result.Finished = s.now()

	log.WithFields(logrus.Fields{
		"rows":     len(result.Rows),
		"skipped":  len(result.Skipped),
		"duration": result.Finished.Sub(result.Started).Round(time.Millisecond).String(),
	}).Info("scan finished")
	return result
}
