package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProjectPurchase translates a cash amount into whole lots and the monthly
// income those lots would have paid over the trailing window.
func ProjectPurchase(cash, pricePerShare, monthlyIncomePerLot decimal.Decimal, lotSize int64) (PortfolioEntry, error) {
	if !pricePerShare.IsPositive() {
		return PortfolioEntry{}, fmt.Errorf("%w: price per share %s", ErrUnknownPrice, pricePerShare)
	}
	if lotSize <= 0 {
		return PortfolioEntry{}, fmt.Errorf("%w: lot size must be positive, got %d", ErrInvalidInput, lotSize)
	}
	if cash.IsNegative() {
		return PortfolioEntry{}, fmt.Errorf("%w: cash amount %s is negative", ErrInvalidInput, cash)
	}
	if monthlyIncomePerLot.IsNegative() {
		return PortfolioEntry{}, fmt.Errorf("%w: monthly income per lot %s is negative", ErrInvalidInput, monthlyIncomePerLot)
	}

	costPerLot := pricePerShare.Mul(decimal.NewFromInt(lotSize))
	lots := cash.Div(costPerLot).Floor()
	spent := lots.Mul(costPerLot)
	// Div rounds at DivisionPrecision; never spend more than the cash.
	if spent.GreaterThan(cash) {
		lots = lots.Sub(decimal.NewFromInt(1))
		spent = lots.Mul(costPerLot)
	}

	return PortfolioEntry{
		LotsPurchased:          lots.IntPart(),
		CostPerLot:             costPerLot,
		CostSpent:              spent,
		CashRemainder:          cash.Sub(spent),
		ProjectedMonthlyIncome: lots.Mul(monthlyIncomePerLot),
	}, nil
}
