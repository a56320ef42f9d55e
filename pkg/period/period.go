// Package period derives accrual period boundaries for a loan. All functions
// are pure date arithmetic; dates are treated as calendar days (UTC midnight).
package period

import (
	"time"

	"github.com/iclbooks/iclledger/pkg/models"
)

// Day normalizes t to a calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped adds months to t, clamping the day to the last valid day
// of the target month. Unlike time.AddDate, Jan 31 + 1 month is Feb 28/29,
// not Mar 3.
func AddMonthsClamped(t time.Time, months int) time.Time {
	t = Day(t)
	y, m := t.Year(), int(t.Month())-1+months
	y += m / 12
	m = m % 12
	if m < 0 {
		m += 12
		y--
	}
	month := time.Month(m + 1)
	day := t.Day()
	if last := DaysIn(y, month); day > last {
		day = last
	}
	return time.Date(y, month, day, 0, 0, 0, 0, time.UTC)
}

// stepMonths is the window length for anchored frequencies.
func stepMonths(freq models.Frequency) int {
	if freq == models.FrequencyMonthly {
		return 1
	}
	return 3
}

// anchorIndex finds the window k such that date falls in
// [loanStart + k*step months, loanStart + (k+1)*step months - 1 day].
func anchorIndex(date, loanStart time.Time, step int) int {
	date, loanStart = Day(date), Day(loanStart)
	if date.Before(loanStart) {
		return 0
	}
	months := (date.Year()-loanStart.Year())*12 + int(date.Month()) - int(loanStart.Month())
	k := months / step
	for k > 0 && date.Before(AddMonthsClamped(loanStart, k*step)) {
		k--
	}
	for !date.Before(AddMonthsClamped(loanStart, (k+1)*step)) {
		k++
	}
	return k
}

// Start returns the first day of the accrual period containing date, anchored
// to the loan's start date. Yearly periods follow the Indian financial year:
// April 1 to March 31, with the first year starting at the loan start itself.
func Start(date, loanStart time.Time, freq models.Frequency) time.Time {
	date, loanStart = Day(date), Day(loanStart)
	if freq == models.FrequencyYearly {
		start := fyStart(date)
		if start.Before(loanStart) {
			start = loanStart
		}
		return start
	}
	step := stepMonths(freq)
	return AddMonthsClamped(loanStart, anchorIndex(date, loanStart, step)*step)
}

// End returns the last day of the accrual period containing date.
func End(date, loanStart time.Time, freq models.Frequency) time.Time {
	date, loanStart = Day(date), Day(loanStart)
	if freq == models.FrequencyYearly {
		return fyEnd(date)
	}
	step := stepMonths(freq)
	next := AddMonthsClamped(loanStart, (anchorIndex(date, loanStart, step)+1)*step)
	return next.AddDate(0, 0, -1)
}

// IsPeriodEnd reports whether date is the last day of its accrual period.
func IsPeriodEnd(date, loanStart time.Time, freq models.Frequency) bool {
	return Day(date).Equal(End(date, loanStart, freq))
}

// fyStart is April 1 of the financial year containing date.
func fyStart(date time.Time) time.Time {
	year := date.Year()
	if date.Month() < time.April {
		year--
	}
	return time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
}

// fyEnd is March 31 of the financial year containing date.
func fyEnd(date time.Time) time.Time {
	year := date.Year()
	if date.Month() >= time.April {
		year++
	}
	return time.Date(year, time.March, 31, 0, 0, 0, 0, time.UTC)
}
