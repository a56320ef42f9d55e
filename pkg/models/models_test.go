package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoanStatusDerivation(t *testing.T) {
	end := day(2023, time.June, 30)
	now := day(2023, time.August, 1)
	ten := decimal.NewFromInt(10000)

	loan := &Loan{EndDate: &end}
	assert.Equal(t, LoanStatusPastDue, loan.Status(now, ten),
		"money out past the end date before an operator acts")
	assert.Equal(t, LoanStatusActive, loan.Status(now, decimal.Zero),
		"nothing outstanding, nothing past due")
	assert.Equal(t, LoanStatusActive, loan.Status(day(2023, time.May, 1), ten))

	loan.Overdue = true
	assert.Equal(t, LoanStatusOverdue, loan.Status(now, ten))

	loan.Closed = true
	assert.Equal(t, LoanStatusClosed, loan.Status(now, ten), "closed wins over everything")

	open := &Loan{}
	assert.Equal(t, LoanStatusActive, open.Status(now, ten), "no end date, never past due")
}

func TestAccrualFrequency(t *testing.T) {
	simple := &Loan{InterestType: InterestTypeSimple}
	assert.Equal(t, FrequencyQuarterly, simple.AccrualFrequency())

	monthly := &Loan{InterestType: InterestTypeCompound, CompoundFrequency: FrequencyMonthly}
	assert.Equal(t, FrequencyMonthly, monthly.AccrualFrequency())

	broken := &Loan{InterestType: InterestTypeCompound}
	assert.Equal(t, FrequencyQuarterly, broken.AccrualFrequency())
}

func TestCompoundingActive(t *testing.T) {
	simple := &Loan{InterestType: InterestTypeSimple}
	assert.False(t, simple.CompoundingActive(day(2023, time.June, 1)))

	compound := &Loan{InterestType: InterestTypeCompound}
	assert.True(t, compound.CompoundingActive(day(2023, time.June, 1)))

	first := day(2023, time.July, 15)
	gated := &Loan{InterestType: InterestTypeCompound, FirstCompoundingDate: &first}
	assert.False(t, gated.CompoundingActive(day(2023, time.July, 14)))
	assert.True(t, gated.CompoundingActive(first), "first compounding date is inclusive")
}

func TestTransactionSpanDays(t *testing.T) {
	from, to := day(2023, time.January, 15), day(2023, time.April, 14)
	txn := &Transaction{PeriodFrom: &from, PeriodTo: &to}
	assert.Equal(t, 90, txn.SpanDays())

	same := &Transaction{PeriodFrom: &from, PeriodTo: &from}
	assert.Equal(t, 1, same.SpanDays())

	assert.Equal(t, 0, (&Transaction{}).SpanDays())
}

func TestTransactionOrdering(t *testing.T) {
	a := &Transaction{Date: day(2023, time.January, 15), Seq: 1}
	b := &Transaction{Date: day(2023, time.January, 15), Seq: 2}
	c := &Transaction{Date: day(2023, time.February, 1), Seq: 1}

	assert.True(t, a.Before(b), "same date orders by seq")
	assert.True(t, b.Before(c))
	assert.False(t, c.Before(a))
}
