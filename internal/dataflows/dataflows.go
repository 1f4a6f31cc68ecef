// Package dataflows fetches prices and dividend histories from market data
// sources.
package dataflows

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dyike/DivGo/internal/engine"
)

// Provider is the market data contract the scanner and calculator depend on.
//
// LastPrice returns an invalid NullDecimal with a nil error when the source
// answered but has no price. Errors wrap engine.ErrDataSourceUnavailable or
// engine.ErrInvalidInput.
type Provider interface {
	LastPrice(ctx context.Context, symbol string) (decimal.NullDecimal, error)
	DividendHistory(ctx context.Context, symbol string) ([]engine.DividendEvent, error)
}

var _ Provider = (*YahooFinanceClient)(nil)

// NewProvider returns the configured market data provider.
func NewProvider(config *Config) Provider {
	return NewYahooFinanceClient(config)
}
