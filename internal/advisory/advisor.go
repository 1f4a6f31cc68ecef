// Package advisory asks a chat model for a short plain-language comment on a
// security's dividend metrics. It never affects the numbers themselves.
package advisory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/DivGo/config"
	"github.com/dyike/DivGo/internal/engine"
	"github.com/dyike/DivGo/internal/logger"
)

const (
	DisabledText    = "advisory disabled: no API key configured"
	unavailablePref = "advisory unavailable: "

	maxTokens      = 800
	defaultTimeout = 60 * time.Second
)

const systemPrompt = `你是一位台灣 ETF 存股顧問。根據使用者提供的配息資料，用繁體中文寫三到五句精簡評論：
配息頻率與穩定度、殖利率高低、每張月配息是否適合小資族。不要給出買賣指令，不要編造資料中沒有的數字。`

// Generator is the slice of an eino chat model the advisor needs.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

type Advisor struct {
	model   Generator
	timeout time.Duration
}

// New builds an advisor from config. Without an API key the advisor stays
// disabled and Advise returns DisabledText.
func New(ctx context.Context, cfg *config.Config) *Advisor {
	log := logger.Component("advisory")

	key := cfg.APIKey()
	if key == "" {
		log.Debug("no API key, advisory disabled")
		return &Advisor{}
	}

	timeout := cfg.HTTPTimeout * 4
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var (
		cm  Generator
		err error
	)
	switch strings.ToLower(cfg.LLMProvider) {
	case "", "deepseek":
		cm, err = deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    key,
			Model:     cfg.QuickThinkLLM,
			MaxTokens: maxTokens,
			Timeout:   timeout,
		})
	default:
		tokens := maxTokens
		cm, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BackendURL,
			APIKey:    key,
			Model:     cfg.QuickThinkLLM,
			MaxTokens: &tokens,
			Timeout:   timeout,
		})
	}
	if err != nil {
		log.WithError(err).Warn("failed to create chat model, advisory disabled")
		return &Advisor{}
	}
	return &Advisor{model: cm, timeout: timeout}
}

// NewWithModel wraps an existing chat model.
func NewWithModel(m Generator) *Advisor {
	return &Advisor{model: m, timeout: defaultTimeout}
}

func (a *Advisor) Enabled() bool {
	return a != nil && a.model != nil
}

// Advise returns the model's comment on the digest of quote and metrics.
// Failures come back as advisory text rather than an error.
func (a *Advisor) Advise(ctx context.Context, quote engine.SecurityQuote, metrics engine.DividendMetrics) string {
	if !a.Enabled() {
		return DisabledText
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	msg, err := a.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(Digest(quote, metrics)),
	})
	if err != nil {
		logger.FromContext(ctx, "advisory").WithField("symbol", quote.Symbol).WithError(err).Warn("advisory call failed")
		return unavailablePref + err.Error()
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return unavailablePref + "empty response"
	}
	return strings.TrimSpace(msg.Content)
}

// Digest formats the metrics as the plain-text prompt sent to the model.
func Digest(quote engine.SecurityQuote, metrics engine.DividendMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "代號: %s\n", quote.Symbol)
	fmt.Fprintf(&b, "名稱: %s\n", quote.DisplayName)
	if quote.HasPrice() {
		fmt.Fprintf(&b, "現價: %s 元\n", quote.LastPrice.StringFixed(2))
	} else {
		b.WriteString("現價: 未知\n")
	}
	fmt.Fprintf(&b, "近一年配息明細(元/股): %s\n", metrics.HistoryString())
	fmt.Fprintf(&b, "近一年配息合計(元/股): %s\n", engine.FormatAmount(metrics.TrailingAnnualDividend))
	fmt.Fprintf(&b, "每張股數: %d\n", metrics.LotSize)
	fmt.Fprintf(&b, "近一年配息(每張): %s 元\n", metrics.AnnualIncomePerLot.Round(0).String())
	fmt.Fprintf(&b, "等值月配息(每張): %s 元\n", metrics.MonthlyIncomePerLot.Round(0).String())
	if metrics.YieldPercent.Valid {
		fmt.Fprintf(&b, "年殖利率: %s%%\n", metrics.YieldPercent.Decimal.StringFixed(2))
	} else {
		b.WriteString("年殖利率: 無法計算\n")
	}
	fmt.Fprintf(&b, "資料日期: %s\n", metrics.AsOf.Format("2006-01-02"))
	return b.String()
}
