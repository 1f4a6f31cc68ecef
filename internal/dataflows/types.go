package dataflows

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dyike/DivGo/config"
)

// Config is an alias for the main application config
type Config = config.Config

// PriceSnapshot is the cached form of a last-price lookup.
type PriceSnapshot struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

// ChartMeta is the subset of the Yahoo chart meta block we read.
type ChartMeta struct {
	Symbol             string          `json:"symbol"`
	Currency           string          `json:"currency"`
	ExchangeTimezone   string          `json:"exchange_timezone"`
	RegularMarketPrice decimal.Decimal `json:"regular_market_price"`
	PreviousClose      decimal.Decimal `json:"previous_close"`
}
