package engine

import (
	"errors"
	"testing"
)

func TestProjectPurchase(t *testing.T) {
	cases := []struct {
		name      string
		cash      string
		price     string
		monthly   string
		lots      int64
		spent     string
		remainder string
		income    string
	}{
		{"exact allocation", "100000", "25", "150", 4, "100000", "0", "600"},
		{"one lot with change", "30000", "25", "150", 1, "25000", "5000", "150"},
		{"below one lot", "20000", "25", "150", 0, "0", "20000", "0"},
		{"no cash", "0", "25", "150", 0, "0", "0", "0"},
		{"fractional price", "100000", "33.35", "200", 2, "66700", "33300", "400"},
	}
	for _, tc := range cases {
		entry, err := ProjectPurchase(d(tc.cash), d(tc.price), d(tc.monthly), 1000)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !entry.CostPerLot.Equal(d(tc.price).Mul(d("1000"))) {
			t.Fatalf("%s: cost per lot %s", tc.name, entry.CostPerLot)
		}
		if entry.LotsPurchased != tc.lots {
			t.Fatalf("%s: lots = %d, want %d", tc.name, entry.LotsPurchased, tc.lots)
		}
		if !entry.CostSpent.Equal(d(tc.spent)) {
			t.Fatalf("%s: spent = %s, want %s", tc.name, entry.CostSpent, tc.spent)
		}
		if !entry.CashRemainder.Equal(d(tc.remainder)) {
			t.Fatalf("%s: remainder = %s, want %s", tc.name, entry.CashRemainder, tc.remainder)
		}
		if !entry.ProjectedMonthlyIncome.Equal(d(tc.income)) {
			t.Fatalf("%s: income = %s, want %s", tc.name, entry.ProjectedMonthlyIncome, tc.income)
		}
	}
}

func TestProjectPurchaseCostPerLot(t *testing.T) {
	entry, err := ProjectPurchase(d("100000"), d("25.0"), d("0"), 1000)
	if err != nil {
		t.Fatalf("ProjectPurchase: %v", err)
	}
	if !entry.CostPerLot.Equal(d("25000")) {
		t.Fatalf("expected cost per lot 25000, got %s", entry.CostPerLot)
	}
	if !entry.FullyAllocated() || entry.Insufficient() {
		t.Fatalf("expected full allocation, got %+v", entry)
	}
}

func TestProjectPurchaseInsufficientIsNotAnError(t *testing.T) {
	entry, err := ProjectPurchase(d("24999"), d("25"), d("150"), 1000)
	if err != nil {
		t.Fatalf("ProjectPurchase: %v", err)
	}
	if !entry.Insufficient() {
		t.Fatalf("expected insufficient funds, got %+v", entry)
	}
	if entry.FullyAllocated() {
		t.Fatalf("zero lots must not count as a full allocation")
	}
}

func TestProjectPurchaseNeverOverspends(t *testing.T) {
	// 1/3 per share makes the lot cost a repeating decimal.
	price := d("1").Div(d("3"))
	entry, err := ProjectPurchase(d("1000"), price, d("10"), 1000)
	if err != nil {
		t.Fatalf("ProjectPurchase: %v", err)
	}
	if entry.CashRemainder.IsNegative() {
		t.Fatalf("remainder went negative: %s", entry.CashRemainder)
	}
	if entry.LotsPurchased > 3 {
		t.Fatalf("bought %d lots for 1000", entry.LotsPurchased)
	}
}

func TestProjectPurchaseErrors(t *testing.T) {
	if _, err := ProjectPurchase(d("1000"), d("0"), d("1"), 1000); !errors.Is(err, ErrUnknownPrice) {
		t.Fatalf("zero price: expected ErrUnknownPrice, got %v", err)
	}
	if _, err := ProjectPurchase(d("1000"), d("-1"), d("1"), 1000); !errors.Is(err, ErrUnknownPrice) {
		t.Fatalf("negative price: expected ErrUnknownPrice, got %v", err)
	}
	if _, err := ProjectPurchase(d("-1"), d("10"), d("1"), 1000); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative cash: expected ErrInvalidInput, got %v", err)
	}
	if _, err := ProjectPurchase(d("1000"), d("10"), d("1"), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero lot size: expected ErrInvalidInput, got %v", err)
	}
	if _, err := ProjectPurchase(d("1000"), d("10"), d("-1"), 1000); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative income: expected ErrInvalidInput, got %v", err)
	}
}
