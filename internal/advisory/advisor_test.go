package advisory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/shopspring/decimal"

	"github.com/dyike/DivGo/config"
	"github.com/dyike/DivGo/internal/engine"
)

type fakeModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (f *fakeModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func sample(t *testing.T) (engine.SecurityQuote, engine.DividendMetrics) {
	t.Helper()
	asOf := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	events := []engine.DividendEvent{
		{PaidAt: asOf.AddDate(0, -9, 0), Amount: decimal.RequireFromString("0.7")},
		{PaidAt: asOf.AddDate(0, -6, 0), Amount: decimal.RequireFromString("0.8")},
		{PaidAt: asOf.AddDate(0, -3, 0), Amount: decimal.RequireFromString("1.07")},
	}
	price := decimal.RequireFromString("36.5")
	m, err := engine.ComputeMetrics(price, events, 1000, asOf)
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	return engine.SecurityQuote{Symbol: "0056.TW", DisplayName: "元大高股息", LastPrice: price}, m
}

func TestDigest(t *testing.T) {
	q, m := sample(t)
	got := Digest(q, m)
	for _, want := range []string{
		"代號: 0056.TW",
		"現價: 36.50 元",
		"季: 0.7/0.8/1.07",
		"近一年配息(每張): 2570 元",
		"等值月配息(每張): 214 元",
		"年殖利率: 7.04%",
		"資料日期: 2024-07-01",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("digest missing %q:\n%s", want, got)
		}
	}

	q.LastPrice = decimal.Zero
	m.YieldPercent = decimal.NullDecimal{}
	got = Digest(q, m)
	if !strings.Contains(got, "現價: 未知") || !strings.Contains(got, "年殖利率: 無法計算") {
		t.Fatalf("unknown price not reported:\n%s", got)
	}
}

func TestAdviseWithoutKey(t *testing.T) {
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.DeepSeekAPIKey = ""
	cfg.OpenAIAPIKey = ""

	a := New(context.Background(), cfg)
	if a.Enabled() {
		t.Fatalf("advisor enabled without a key")
	}
	q, m := sample(t)
	if got := a.Advise(context.Background(), q, m); got != DisabledText {
		t.Fatalf("got %q", got)
	}

	var nilAdvisor *Advisor
	if got := nilAdvisor.Advise(context.Background(), q, m); got != DisabledText {
		t.Fatalf("nil advisor got %q", got)
	}
}

func TestAdviseUsesModel(t *testing.T) {
	fm := &fakeModel{reply: "  季配息穩定，殖利率約七趴。 \n"}
	a := NewWithModel(fm)
	q, m := sample(t)

	got := a.Advise(context.Background(), q, m)
	if got != "季配息穩定，殖利率約七趴。" {
		t.Fatalf("got %q", got)
	}
	if len(fm.input) != 2 || fm.input[0].Role != schema.System || fm.input[1].Role != schema.User {
		t.Fatalf("unexpected messages %+v", fm.input)
	}
	if fm.input[1].Content != Digest(q, m) {
		t.Fatalf("user message is not the digest")
	}
}

func TestAdviseFailureIsText(t *testing.T) {
	q, m := sample(t)

	got := NewWithModel(&fakeModel{err: errors.New("rate limited")}).Advise(context.Background(), q, m)
	if got != "advisory unavailable: rate limited" {
		t.Fatalf("got %q", got)
	}

	got = NewWithModel(&fakeModel{reply: "   "}).Advise(context.Background(), q, m)
	if !strings.HasPrefix(got, "advisory unavailable") {
		t.Fatalf("got %q", got)
	}
}
