// Package interest holds the arithmetic for simple interest and TDS
// withholding. There is no separate compound-interest formula anywhere:
// compounding is entirely a matter of what principal the ledger feeds in and
// when it posts net interest to the balance.
package interest

import "github.com/shopspring/decimal"

var (
	hundred     = decimal.NewFromInt(100)
	daysInYear  = decimal.NewFromInt(365)
	denominator = hundred.Mul(daysInYear)
)

// Compute returns simple interest: principal * rate * days / (100 * 365),
// rounded to 2 decimal places. Any non-positive input yields zero; bad
// numbers never surface as errors.
func Compute(principal, annualRatePct decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 || !principal.IsPositive() || !annualRatePct.IsPositive() {
		return decimal.Zero
	}
	return principal.
		Mul(annualRatePct).
		Mul(decimal.NewFromInt(int64(days))).
		Div(denominator).
		Round(2)
}

// SplitTDS divides interest into the withheld TDS portion and the net amount
// credited to the lender. When TDS does not apply (or the percentage is not
// positive) the whole interest is net.
func SplitTDS(interestAmount decimal.Decimal, tdsApplicable bool, tdsPct decimal.Decimal) (tds, net decimal.Decimal) {
	if !tdsApplicable || !tdsPct.IsPositive() || !interestAmount.IsPositive() {
		return decimal.Zero, interestAmount
	}
	tds = interestAmount.Mul(tdsPct).Div(hundred).Round(2)
	return tds, interestAmount.Sub(tds)
}
