package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dyike/DivGo/config"
	"github.com/dyike/DivGo/internal/dataflows"
	"github.com/dyike/DivGo/internal/logger"
)

// Prints the raw price and dividend history the scanner would see for one
// symbol, e.g. go run ./cmd/dataflow 0056
func main() {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	logger.Init(cfg.LogLevel, true, os.Stderr)

	symbol := "0056.TW"
	if len(os.Args) > 1 {
		symbol = os.Args[1]
	}
	symbol = dataflows.NormalizeSymbol(symbol)

	provider := dataflows.NewProvider(cfg)

	price, err := provider.LastPrice(ctx, symbol)
	if err != nil {
		panic(err)
	}
	events, err := provider.DividendHistory(ctx, symbol)
	if err != nil {
		panic(err)
	}

	payload, _ := json.MarshalIndent(map[string]interface{}{
		"symbol":    symbol,
		"price":     price,
		"dividends": events,
	}, "", "  ")
	fmt.Println(string(payload))
}
