package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InterestType selects how accrued interest relates to the running balance.
// Simple loans record interest without ever folding it into the balance;
// compound loans post accumulated net interest at period boundaries.
type InterestType string

const (
	InterestTypeSimple   InterestType = "simple"
	InterestTypeCompound InterestType = "compound"
)

// Frequency is the accrual cadence used for period boundaries and, for
// compound loans, for posting net interest into the balance.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// ValidFrequency reports whether f is one of the supported cadences.
func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// LoanStatus is the derived lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusActive  LoanStatus = "active"
	LoanStatusPastDue LoanStatus = "past_due"
	LoanStatusOverdue LoanStatus = "overdue"
	LoanStatusClosed  LoanStatus = "closed"
)

// Loan is the aggregate root of one inter-company loan account. All mutation
// of a loan's ledger goes through the ledger engine; callers treat the struct
// as read-only.
type Loan struct {
	ID             uuid.UUID       `json:"id"`
	ICLNo          string          `json:"icl_no"` // External account number
	Name           string          `json:"name"`
	Address        string          `json:"address,omitempty"`
	ContactDetails string          `json:"contact_details,omitempty"`
	AnnualRate     decimal.Decimal `json:"annual_rate"` // Percent; zero means "use the default rate"
	StartDate      time.Time       `json:"start_date"`
	EndDate        *time.Time      `json:"end_date,omitempty"`

	InterestType         InterestType `json:"interest_type"`
	CompoundFrequency    Frequency    `json:"compound_frequency,omitempty"` // Meaningful only when compound
	FirstCompoundingDate *time.Time   `json:"first_compounding_date,omitempty"`

	TDSApplicable bool            `json:"tds_applicable"`
	TDSPercentage decimal.Decimal `json:"tds_percentage"` // Percent; zero means "use the default rate"

	Closed          bool       `json:"closed"`
	ClosedDate      *time.Time `json:"closed_date,omitempty"`
	Overdue         bool       `json:"overdue"`
	OverdueDate     *time.Time `json:"overdue_date,omitempty"`
	Extended        bool       `json:"extended"`
	OriginalEndDate *time.Time `json:"original_end_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by"`
}

// AccrualFrequency is the cadence used for period derivation. Compound loans
// accrue at their compounding cadence; simple loans default to quarterly.
func (l *Loan) AccrualFrequency() Frequency {
	if l.InterestType == InterestTypeCompound && ValidFrequency(l.CompoundFrequency) {
		return l.CompoundFrequency
	}
	return FrequencyQuarterly
}

// CompoundingActive reports whether net interest may be posted to the balance
// for a transaction dated on; false for simple loans and before the first
// compounding date.
func (l *Loan) CompoundingActive(on time.Time) bool {
	if l.InterestType != InterestTypeCompound {
		return false
	}
	if l.FirstCompoundingDate != nil && on.Before(*l.FirstCompoundingDate) {
		return false
	}
	return true
}

// Status derives the lifecycle state as of now, given the current balance.
// A loan past its end date with money still out is past_due until an operator
// explicitly marks it overdue.
func (l *Loan) Status(now time.Time, balance decimal.Decimal) LoanStatus {
	switch {
	case l.Closed:
		return LoanStatusClosed
	case l.Overdue:
		return LoanStatusOverdue
	case l.EndDate != nil && now.After(*l.EndDate) && balance.GreaterThan(decimal.Zero):
		return LoanStatusPastDue
	}
	return LoanStatusActive
}

// TransactionKind classifies a ledger entry.
type TransactionKind string

const (
	KindDeposit   TransactionKind = "deposit"
	KindRepayment TransactionKind = "repayment"
	KindPassive   TransactionKind = "passive" // Engine-synthesized filler covering an accrual period
	KindClosure   TransactionKind = "closure" // Engine-synthesized terminal entry, balance forced to zero
)

// Transaction is one ledger entry of a loan. AmountPaid and AmountRepaid are
// persistent inputs; Days, InterestAmount, TDSAmount, NetAmount and Balance
// are derived and rewritten on every replay. PeriodFrom/PeriodTo survive
// replays: they encode either an operator override or the span the engine
// assigned when the entry was created.
type Transaction struct {
	ID     uuid.UUID `json:"id"`
	LoanID uuid.UUID `json:"loan_id"`
	Date   time.Time `json:"date"`
	Seq    int64     `json:"seq"` // Creation order; (Date, Seq) totally orders a loan's ledger

	AmountPaid   decimal.Decimal `json:"amount_paid"`
	AmountRepaid decimal.Decimal `json:"amount_repaid"`

	PeriodFrom *time.Time `json:"period_from,omitempty"`
	PeriodTo   *time.Time `json:"period_to,omitempty"`

	Days           int             `json:"no_of_days"`
	InterestRate   decimal.Decimal `json:"interest_rate"` // Snapshot at creation
	InterestAmount decimal.Decimal `json:"interest_amount"`
	TDSAmount      decimal.Decimal `json:"tds_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
	Balance        decimal.Decimal `json:"balance"` // Running balance after this entry

	Kind      TransactionKind `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
	CreatedBy string          `json:"created_by"`
}

// HasPeriod reports whether the entry carries an accrual span.
func (t *Transaction) HasPeriod() bool {
	return t.PeriodFrom != nil && t.PeriodTo != nil && !t.PeriodTo.Before(*t.PeriodFrom)
}

// SpanDays is period_to - period_from + 1, or zero without a period.
func (t *Transaction) SpanDays() int {
	if !t.HasPeriod() {
		return 0
	}
	return int(t.PeriodTo.Sub(*t.PeriodFrom).Hours()/24) + 1
}

// Before reports whether t precedes other in sequence-key order.
func (t *Transaction) Before(other *Transaction) bool {
	if !t.Date.Equal(other.Date) {
		return t.Date.Before(other.Date)
	}
	return t.Seq < other.Seq
}

// InterestRateRecord is an effective-dated default interest rate.
type InterestRateRecord struct {
	ID            int64           `json:"id"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	Description   string          `json:"description,omitempty"`
	Active        bool            `json:"active"`
}

// TDSRateRecord is an effective-dated default TDS withholding rate.
type TDSRateRecord struct {
	ID            int64           `json:"id"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	Description   string          `json:"description,omitempty"`
	Active        bool            `json:"active"`
}
