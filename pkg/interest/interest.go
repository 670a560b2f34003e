package interest

import (
	"fmt"

	"github.com/ajayraj/pawnledger/pkg/money"
	"github.com/shopspring/decimal"
)

// ErrInvalidLoanTerms indicates origination inputs the calculator cannot
// price: a non-positive principal, a negative rate, or a non-positive term.
var ErrInvalidLoanTerms = fmt.Errorf("invalid loan terms")

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// ForTerm computes the one-time simple interest charged at origination for
// the full loan term, pro-rated monthly from the annual rate:
//
//	interest = principal × (rate / 100) × termMonths / 12
//
// The result is rounded half-up to two places. This is the only place
// interest is ever computed for a loan; it is pure and side-effect free.
func ForTerm(principal money.Money, annualRatePercent decimal.Decimal, termMonths int) (money.Money, error) {
	if !principal.IsPositive() {
		return money.Zero, fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidLoanTerms, principal)
	}
	if annualRatePercent.IsNegative() {
		return money.Zero, fmt.Errorf("%w: rate must not be negative, got %s", ErrInvalidLoanTerms, annualRatePercent)
	}
	if termMonths <= 0 {
		return money.Zero, fmt.Errorf("%w: term must be positive, got %d months", ErrInvalidLoanTerms, termMonths)
	}

	factor := annualRatePercent.
		Mul(decimal.NewFromInt(int64(termMonths))).
		Div(hundred.Mul(monthsInYear))
	return principal.MulRatio(factor).Round2(), nil
}
