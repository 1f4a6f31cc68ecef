package dataflows

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/dyike/DivGo/internal/engine"
	"github.com/dyike/DivGo/internal/logger"
)

const (
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	dividendRange   = "2y"
	priceCacheTTL   = 15 * time.Minute
	defaultExchange = "Asia/Taipei"
)

var errOffline = errors.New("online tools are disabled")

// YahooFinanceClient is the market data provider: last price and dividend
// history per symbol.
type YahooFinanceClient struct {
	client     *resty.Client
	chartURL   string
	online     bool
	priceCache *CacheManager
	divCache   *CacheManager
	limiter    *rate.Limiter
	retry      *RetryConfig

	// quoteFn is the primary price source; the chart endpoint is the fallback.
	quoteFn func(symbol string) (*finance.Quote, error)
}

// NewYahooFinanceClient creates a new Yahoo Finance client
func NewYahooFinanceClient(config *Config) *YahooFinanceClient {
	cacheDir := filepath.Join(config.DataCacheDir, "yahoo_finance")

	client := resty.New()
	client.SetTimeout(config.HTTPTimeout)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "application/json, text/plain, */*")
	client.SetHeader("Accept-Language", "zh-TW,zh;q=0.9,en;q=0.8")

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &YahooFinanceClient{
		client:     client,
		chartURL:   strings.TrimRight(config.YahooChartURL, "/"),
		online:     config.OnlineTools,
		priceCache: NewCacheManager(cacheDir, priceCacheTTL, config.CacheEnabled),
		divCache:   NewCacheManager(cacheDir, config.CacheTTL, config.CacheEnabled),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		retry:      DefaultRetryConfig(),
		quoteFn:    quote.Get,
	}
}

// LastPrice returns the latest traded price. An invalid NullDecimal with a
// nil error means the provider answered but has no usable price.
func (yf *YahooFinanceClient) LastPrice(ctx context.Context, symbol string) (decimal.NullDecimal, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %w", engine.ErrInvalidInput, err)
	}
	symbol = NormalizeSymbol(symbol)
	log := logger.FromContext(ctx, "yahoo").WithField("symbol", symbol)

	var cached PriceSnapshot
	if yf.priceCache.Get("yahoo", "price", symbol, &cached) {
		return decimal.NewNullDecimal(cached.Price), nil
	}
	if !yf.online {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %s: %w", engine.ErrDataSourceUnavailable, symbol, errOffline)
	}

	price, source, quoteErr := yf.quotePrice(ctx, symbol)
	if quoteErr != nil {
		log.Debugf("quote lookup failed, falling back to chart: %v", quoteErr)
	}

	var chartErr error
	if !price.Valid {
		var meta ChartMeta
		meta, chartErr = yf.chartMeta(ctx, symbol)
		switch {
		case chartErr != nil:
			log.Debugf("chart lookup failed: %v", chartErr)
		case meta.RegularMarketPrice.IsPositive():
			price, source = decimal.NewNullDecimal(meta.RegularMarketPrice), "chart"
		case meta.PreviousClose.IsPositive():
			price, source = decimal.NewNullDecimal(meta.PreviousClose), "chart_previous_close"
		}
	}

	if !price.Valid {
		// An unknown price is only reported when the chart answered.
		if chartErr != nil {
			return decimal.NullDecimal{}, fmt.Errorf("%w: %s: %w", engine.ErrDataSourceUnavailable, symbol, chartErr)
		}
		return decimal.NullDecimal{}, nil
	}

	_ = yf.priceCache.Set("yahoo", "price", symbol, PriceSnapshot{
		Symbol:    symbol,
		Price:     price.Decimal,
		Source:    source,
		Timestamp: time.Now(),
	})
	return price, nil
}

func (yf *YahooFinanceClient) quotePrice(ctx context.Context, symbol string) (decimal.NullDecimal, string, error) {
	if yf.quoteFn == nil {
		return decimal.NullDecimal{}, "", errors.New("no quote source")
	}
	if err := yf.limiter.Wait(ctx); err != nil {
		return decimal.NullDecimal{}, "", err
	}
	q, err := yf.quoteFn(symbol)
	if err != nil {
		return decimal.NullDecimal{}, "", fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}
	if q == nil {
		return decimal.NullDecimal{}, "", fmt.Errorf("no quote for %s", symbol)
	}
	if q.RegularMarketPrice > 0 {
		return decimal.NewNullDecimal(decimal.NewFromFloat(q.RegularMarketPrice)), "quote", nil
	}
	if q.RegularMarketPreviousClose > 0 {
		return decimal.NewNullDecimal(decimal.NewFromFloat(q.RegularMarketPreviousClose)), "quote_previous_close", nil
	}
	return decimal.NullDecimal{}, "", nil
}

// DividendHistory returns the paid dividends of roughly the last two years,
// oldest first, timestamped in the exchange's time zone.
func (yf *YahooFinanceClient) DividendHistory(ctx context.Context, symbol string) ([]engine.DividendEvent, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrInvalidInput, err)
	}
	symbol = NormalizeSymbol(symbol)

	var cached []engine.DividendEvent
	if yf.divCache.Get("yahoo", "dividends", symbol, &cached) {
		return cached, nil
	}
	if !yf.online {
		return nil, fmt.Errorf("%w: %s: %w", engine.ErrDataSourceUnavailable, symbol, errOffline)
	}

	body, err := yf.fetchChart(ctx, symbol, map[string]string{
		"range":    dividendRange,
		"interval": "1d",
		"events":   "div",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", engine.ErrDataSourceUnavailable, symbol, err)
	}

	events, err := parseDividends(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", engine.ErrDataSourceUnavailable, symbol, err)
	}

	_ = yf.divCache.Set("yahoo", "dividends", symbol, events)
	return events, nil
}

func (yf *YahooFinanceClient) chartMeta(ctx context.Context, symbol string) (ChartMeta, error) {
	body, err := yf.fetchChart(ctx, symbol, map[string]string{
		"range":    "5d",
		"interval": "1d",
	})
	if err != nil {
		return ChartMeta{}, err
	}
	return parseChartMeta(body), nil
}

func (yf *YahooFinanceClient) fetchChart(ctx context.Context, symbol string, params map[string]string) ([]byte, error) {
	endpoint := yf.chartURL + "/" + url.PathEscape(symbol)

	var body []byte
	err := WithRetry(ctx, yf.retry, func() error {
		if err := yf.limiter.Wait(ctx); err != nil {
			return Permanent(err)
		}
		resp, err := yf.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(endpoint)
		if err != nil {
			return fmt.Errorf("failed to get chart for %s: %w", symbol, err)
		}

		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return Permanent(fmt.Errorf("symbol %s not found", symbol))
		case resp.StatusCode() != http.StatusOK:
			return fmt.Errorf("HTTP error %d when fetching chart for %s", resp.StatusCode(), symbol)
		}

		raw := resp.Body()
		if !gjson.ValidBytes(raw) {
			return fmt.Errorf("invalid chart JSON for %s", symbol)
		}
		if desc := gjson.GetBytes(raw, "chart.error.description"); desc.Exists() && desc.String() != "" {
			return Permanent(fmt.Errorf("yahoo chart error for %s: %s", symbol, desc.String()))
		}
		body = raw
		return nil
	})
	return body, err
}

func parseChartMeta(body []byte) ChartMeta {
	meta := gjson.GetBytes(body, "chart.result.0.meta")
	return ChartMeta{
		Symbol:             meta.Get("symbol").String(),
		Currency:           meta.Get("currency").String(),
		ExchangeTimezone:   meta.Get("exchangeTimezoneName").String(),
		RegularMarketPrice: decimalFromJSON(meta.Get("regularMarketPrice")),
		PreviousClose:      firstPositive(meta.Get("chartPreviousClose"), meta.Get("previousClose")),
	}
}

func parseDividends(body []byte) ([]engine.DividendEvent, error) {
	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return nil, errors.New("chart response has no result")
	}

	loc := exchangeLocation(result.Get("meta.exchangeTimezoneName").String())

	var (
		events   []engine.DividendEvent
		parseErr error
	)
	result.Get("events.dividends").ForEach(func(key, value gjson.Result) bool {
		ts := value.Get("date").Int()
		if ts == 0 {
			ts = key.Int()
		}
		amount, err := decimal.NewFromString(value.Get("amount").Raw)
		if err != nil {
			parseErr = fmt.Errorf("dividend at %d: %w", ts, err)
			return false
		}
		events = append(events, engine.DividendEvent{
			PaidAt: time.Unix(ts, 0).In(loc),
			Amount: amount,
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].PaidAt.Before(events[j].PaidAt)
	})
	return events, nil
}

func exchangeLocation(name string) *time.Location {
	if name == "" {
		name = defaultExchange
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone(defaultExchange, 8*60*60)
}

func decimalFromJSON(r gjson.Result) decimal.Decimal {
	if !r.Exists() || r.Type != gjson.Number {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(r.Raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func firstPositive(results ...gjson.Result) decimal.Decimal {
	for _, r := range results {
		if d := decimalFromJSON(r); d.IsPositive() {
			return d
		}
	}
	return decimal.Zero
}
