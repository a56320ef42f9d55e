// Package ledger is the accrual engine for inter-company loan bookkeeping.
// It appends deposits and repayments, synthesizes passive entries so accrual
// periods stay contiguous, splits open periods when a transaction lands
// mid-period, posts compounded net interest at period boundaries and replays
// a loan's full transaction history deterministically after an edit.
//
// The engine does no locking: callers must guarantee a single writer per loan.
// Different loans are independent.
package ledger

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iclbooks/iclledger/pkg/models"
	"github.com/iclbooks/iclledger/pkg/period"
	"github.com/iclbooks/iclledger/pkg/store"
)

// closeThreshold is the largest residual balance (either sign) that may be
// written off when a loan is closed.
var closeThreshold = decimal.NewFromInt(10)

// maxExtensionYears bounds a single loan extension.
const maxExtensionYears = 5

// Ledger handles the business logic for loans and their transaction ledgers.
type Ledger struct {
	storage store.Storage
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Ledger over the given Storage implementation.
func New(s store.Storage, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		storage: s,
		logger:  logger,
		now:     time.Now,
	}
}

// LoanParams are the operator-supplied fields of a new loan.
type LoanParams struct {
	ICLNo                string
	Name                 string
	Address              string
	ContactDetails       string
	AnnualRate           decimal.Decimal
	StartDate            time.Time
	EndDate              *time.Time
	InterestType         models.InterestType
	CompoundFrequency    models.Frequency
	FirstCompoundingDate *time.Time
	TDSApplicable        bool
	TDSPercentage        decimal.Decimal
}

// Intent is a caller-submitted deposit or repayment. Exactly one of
// AmountPaid / AmountRepaid must be positive. PeriodFrom/PeriodTo override
// the derived accrual span when both are set.
type Intent struct {
	Date         time.Time
	AmountPaid   decimal.Decimal
	AmountRepaid decimal.Decimal
	PeriodFrom   *time.Time
	PeriodTo     *time.Time
}

// Result is the outcome of a ledger mutation: the loan and the recomputed
// suffix of its transaction sequence, already persisted.
type Result struct {
	Loan    *models.Loan          `json:"loan"`
	Status  models.LoanStatus     `json:"status"`
	Ledger  []*models.Transaction `json:"ledger"`
	Balance decimal.Decimal       `json:"balance"`
}

// CreateLoan validates and stores a new loan master record.
func (l *Ledger) CreateLoan(p LoanParams, actor string) (*models.Loan, error) {
	if p.ICLNo == "" {
		return nil, models.Validationf("icl_no is required")
	}
	if p.Name == "" {
		return nil, models.Validationf("name is required")
	}
	if p.StartDate.IsZero() {
		return nil, models.Validationf("start_date is required")
	}
	if p.InterestType != models.InterestTypeSimple && p.InterestType != models.InterestTypeCompound {
		return nil, models.Validationf("interest_type must be simple or compound")
	}
	if p.InterestType == models.InterestTypeCompound && !models.ValidFrequency(p.CompoundFrequency) {
		return nil, models.Validationf("compound_frequency must be monthly, quarterly or yearly")
	}
	if p.AnnualRate.IsNegative() || p.TDSPercentage.IsNegative() {
		return nil, models.Validationf("rates must not be negative")
	}
	start := period.Day(p.StartDate)
	end := dayPtr(p.EndDate)
	if end != nil && end.Before(start) {
		return nil, models.Validationf("end_date %s precedes start_date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	now := l.now().UTC()
	loan := &models.Loan{
		ID:                   uuid.New(),
		ICLNo:                p.ICLNo,
		Name:                 p.Name,
		Address:              p.Address,
		ContactDetails:       p.ContactDetails,
		AnnualRate:           p.AnnualRate,
		StartDate:            start,
		EndDate:              end,
		InterestType:         p.InterestType,
		CompoundFrequency:    p.CompoundFrequency,
		FirstCompoundingDate: dayPtr(p.FirstCompoundingDate),
		TDSApplicable:        p.TDSApplicable,
		TDSPercentage:        p.TDSPercentage,
		CreatedAt:            now,
		UpdatedAt:            now,
		CreatedBy:            actor,
	}
	if err := l.storage.CreateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}
	l.logger.Info("loan created",
		"loan_id", loan.ID, "icl_no", loan.ICLNo,
		"interest_type", loan.InterestType, "actor", actor)
	return loan, nil
}

// AppendTransaction records a deposit or repayment on a loan. It derives the
// accrual period, truncates any open period the new date lands in, fills
// uncovered whole periods with passive entries, recomputes the affected
// suffix and persists everything atomically. A balance within the closing
// threshold on the loan's end date closes the loan.
func (l *Ledger) AppendTransaction(loanID uuid.UUID, intent Intent, actor string) (*Result, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Closed {
		return nil, models.Statef("loan %s is closed", loan.ICLNo)
	}
	if err := validateIntent(loan, intent); err != nil {
		return nil, err
	}

	existing, err := l.storage.GetTransactionsForLoan(loanID)
	if err != nil {
		return nil, err
	}
	r, err := l.resolveRates(loan)
	if err != nil {
		return nil, err
	}

	date := period.Day(intent.Date)
	freq := loan.AccrualFrequency()
	seq := nextSeq(existing)

	kind := models.KindDeposit
	if intent.AmountRepaid.IsPositive() {
		kind = models.KindRepayment
	}

	// Derived period: a fresh span from the transaction date to its accrual
	// boundary, unless the caller overrides it.
	var periodFrom, periodTo time.Time
	if intent.PeriodFrom != nil && intent.PeriodTo != nil {
		periodFrom, periodTo = period.Day(*intent.PeriodFrom), period.Day(*intent.PeriodTo)
	} else {
		periodFrom = date
		periodTo = period.End(date, loan.StartDate, freq)
	}

	replayFrom := date

	// Split: the entry whose accrual span contains the new date is truncated
	// to the day before it. The covering entry is found by span, not by entry
	// date: passive fillers are dated at their period end, so a backdated
	// insert can land inside a filler dated after it. A truncated filler moves
	// to its new period end; one left with no span is dropped outright.
	var dropIDs []uuid.UUID
	if covering := coveringEntry(existing, date); covering != nil {
		switch {
		case covering.PeriodFrom.Before(date):
			to := addDays(date, -1)
			covering.PeriodTo = &to
			if covering.Kind == models.KindPassive {
				covering.Date = to
			}
		case covering.Kind == models.KindPassive:
			dropIDs = append(dropIDs, covering.ID)
			existing = withoutID(existing, covering.ID)
		default:
			// Same-day overlap leaves no span to accrue over.
			covering.PeriodFrom, covering.PeriodTo = nil, nil
		}
		if covering.Date.Before(replayFrom) {
			replayFrom = covering.Date
		}
	}

	// Backdated insert: keep the new span clear of the next covered period.
	// When that period already begins at the new date there is nothing left
	// to accrue over, and the period is dropped.
	if next := nextPeriodStart(existing, date); next != nil && !next.After(periodTo) {
		periodTo = addDays(*next, -1)
	}

	// Fill uncovered periods between the existing coverage and the new span.
	cursor := loan.StartDate
	for _, t := range existing {
		if t.HasPeriod() && t.PeriodTo.Before(periodFrom) && addDays(*t.PeriodTo, 1).After(cursor) {
			cursor = addDays(*t.PeriodTo, 1)
		}
	}
	fillers := l.synthesizeFillers(loan, cursor, periodFrom, freq, r, &seq, actor)
	if len(fillers) > 0 && fillers[0].Date.Before(replayFrom) {
		replayFrom = fillers[0].Date
	}

	txn := &models.Transaction{
		ID:           uuid.New(),
		LoanID:       loan.ID,
		Date:         date,
		Seq:          seq,
		AmountPaid:   intent.AmountPaid,
		AmountRepaid: intent.AmountRepaid,
		InterestRate: r.annual,
		Kind:         kind,
		CreatedAt:    l.now().UTC(),
		CreatedBy:    actor,
	}
	if !periodTo.Before(periodFrom) {
		txn.PeriodFrom, txn.PeriodTo = &periodFrom, &periodTo
	}

	all := mergeLedger(existing, append(fillers, txn))
	prefix, suffix := splitByDate(all, replayFrom)
	st := deriveState(loan, prefix)
	replayAll(loan, &st, suffix, r)

	// Closure auto-trigger on the loan's end date.
	if loan.EndDate != nil && date.Equal(*loan.EndDate) &&
		st.balance.Abs().LessThanOrEqual(closeThreshold) {
		closure := l.synthesizeClosure(loan, date, nextSeq(all), actor)
		replayOne(loan, &st, closure, r)
		suffix = append(suffix, closure)
		loan.Closed = true
		loan.ClosedDate = &date
		l.logger.Info("loan auto-closed", "loan_id", loan.ID, "date", date)
	}

	loan.UpdatedAt = l.now().UTC()
	if err := l.storage.SaveLedger(loan, suffix, dropIDs); err != nil {
		return nil, &models.RecalculationError{Reason: "failed to persist ledger suffix", Cause: err}
	}

	l.logger.Info("transaction appended",
		"loan_id", loan.ID, "kind", kind, "date", date,
		"fillers", len(fillers), "replayed", len(suffix),
		"balance", st.balance, "actor", actor)

	return l.result(loan, suffix, st.balance), nil
}

// RecalculateFrom deterministically replays every transaction dated on or
// after fromDate, carrying the balance and unposted-interest state forward
// from the untouched prefix. The write-back is atomic; on failure the stored
// ledger is unchanged. Replaying twice with identical inputs yields identical
// output.
func (l *Ledger) RecalculateFrom(loanID uuid.UUID, fromDate time.Time, actor string) (*Result, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if fromDate.IsZero() {
		return nil, models.Validationf("from date is required")
	}

	all, err := l.storage.GetTransactionsForLoan(loanID)
	if err != nil {
		return nil, &models.RecalculationError{Reason: "failed to load ledger", Cause: err}
	}
	r, err := l.resolveRates(loan)
	if err != nil {
		return nil, err
	}

	prefix, suffix := splitByDate(all, period.Day(fromDate))
	st := deriveState(loan, prefix)
	replayAll(loan, &st, suffix, r)

	loan.UpdatedAt = l.now().UTC()
	if err := l.storage.SaveLedger(loan, suffix, nil); err != nil {
		return nil, &models.RecalculationError{Reason: "failed to persist replayed ledger", Cause: err}
	}

	l.logger.Info("ledger recalculated",
		"loan_id", loan.ID, "from", period.Day(fromDate),
		"replayed", len(suffix), "balance", st.balance, "actor", actor)

	return l.result(loan, suffix, st.balance), nil
}

// RemoveTransaction deletes one entry and replays the remainder of the
// ledger from its date, as if the entry had never been created. The deletion
// and the replayed suffix commit as one unit.
func (l *Ledger) RemoveTransaction(loanID, txnID uuid.UUID, actor string) (*Result, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Closed {
		return nil, models.Statef("loan %s is closed", loan.ICLNo)
	}
	target, err := l.storage.GetTransaction(txnID)
	if err != nil {
		return nil, err
	}
	if target.LoanID != loanID {
		return nil, models.Validationf("transaction %s does not belong to loan %s", txnID, loanID)
	}

	all, err := l.storage.GetTransactionsForLoan(loanID)
	if err != nil {
		return nil, &models.RecalculationError{Reason: "failed to load ledger", Cause: err}
	}
	r, err := l.resolveRates(loan)
	if err != nil {
		return nil, err
	}

	kept := withoutID(all, txnID)

	// Passive fillers dated past the last surviving deposit or repayment were
	// synthesized only to reach the deleted entry; they go with it. Fillers
	// between surviving entries still cover real gaps and stay.
	var lastReal *models.Transaction
	for _, txn := range kept {
		if txn.Kind != models.KindPassive {
			lastReal = txn
		}
	}
	dropIDs := []uuid.UUID{txnID}
	replayFrom := target.Date
	var pruned []*models.Transaction
	for _, txn := range kept {
		if txn.Kind == models.KindPassive && (lastReal == nil || txn.Date.After(lastReal.Date)) {
			dropIDs = append(dropIDs, txn.ID)
			if txn.Date.Before(replayFrom) {
				replayFrom = txn.Date
			}
			continue
		}
		pruned = append(pruned, txn)
	}

	prefix, suffix := splitByDate(pruned, replayFrom)
	st := deriveState(loan, prefix)
	replayAll(loan, &st, suffix, r)

	loan.UpdatedAt = l.now().UTC()
	if err := l.storage.SaveLedger(loan, suffix, dropIDs); err != nil {
		return nil, &models.RecalculationError{Reason: "failed to persist ledger after deletion", Cause: err}
	}

	l.logger.Info("transaction deleted",
		"loan_id", loanID, "txn_id", txnID, "date", target.Date,
		"dropped_fillers", len(dropIDs)-1,
		"replayed", len(suffix), "balance", st.balance, "actor", actor)

	return l.result(loan, suffix, st.balance), nil
}

// CloseLoan writes off a residual balance within the closing threshold by
// synthesizing a zero-balance closure entry and marking the loan closed.
func (l *Ledger) CloseLoan(loanID uuid.UUID, actor string) (*Result, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Closed {
		return nil, models.Statef("loan %s is already closed", loan.ICLNo)
	}

	all, err := l.storage.GetTransactionsForLoan(loanID)
	if err != nil {
		return nil, err
	}
	balance := currentBalance(all)
	if balance.Abs().GreaterThan(closeThreshold) {
		return nil, models.Statef("balance %s exceeds closing threshold %s",
			balance.StringFixed(2), closeThreshold.StringFixed(2))
	}

	date := period.Day(l.now().UTC())
	closure := l.synthesizeClosure(loan, date, nextSeq(all), actor)
	loan.Closed = true
	loan.ClosedDate = &date
	loan.UpdatedAt = l.now().UTC()

	if err := l.storage.SaveLedger(loan, []*models.Transaction{closure}, nil); err != nil {
		return nil, fmt.Errorf("failed to persist closure: %w", err)
	}
	l.logger.Info("loan closed",
		"loan_id", loan.ID, "written_off", balance, "actor", actor)

	return l.result(loan, []*models.Transaction{closure}, decimal.Zero), nil
}

// MarkOverdue flags a loan with money still out past its end date. An
// operator override skips the end-date check.
func (l *Ledger) MarkOverdue(loanID uuid.UUID, override bool, actor string) (*Result, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Closed {
		return nil, models.Statef("loan %s is closed", loan.ICLNo)
	}
	if loan.Overdue {
		return nil, models.Statef("loan %s is already overdue", loan.ICLNo)
	}

	all, err := l.storage.GetTransactionsForLoan(loanID)
	if err != nil {
		return nil, err
	}
	balance := currentBalance(all)
	if !balance.IsPositive() {
		return nil, models.Statef("loan %s has no outstanding balance", loan.ICLNo)
	}

	now := period.Day(l.now().UTC())
	if !override && loan.EndDate != nil && !now.After(*loan.EndDate) {
		return nil, models.Statef("loan %s end date %s has not passed",
			loan.ICLNo, loan.EndDate.Format("2006-01-02"))
	}

	loan.Overdue = true
	loan.OverdueDate = &now
	loan.UpdatedAt = l.now().UTC()
	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to mark loan overdue: %w", err)
	}
	l.logger.Info("loan marked overdue", "loan_id", loan.ID, "balance", balance, "actor", actor)
	return l.result(loan, nil, balance), nil
}

// ExtendLoan pushes the end date out, clearing any overdue flag. The new date
// must be in the future, strictly later than the current end date, and at
// most five years beyond it; a substantive reason is required. The original
// end date is remembered on the first extension.
func (l *Ledger) ExtendLoan(loanID uuid.UUID, newEndDate time.Time, reason, actor string) (*Result, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Closed {
		return nil, models.Statef("loan %s is closed", loan.ICLNo)
	}
	if len(reason) < 10 {
		return nil, models.Validationf("extension reason must be at least 10 characters")
	}

	newEnd := period.Day(newEndDate)
	today := period.Day(l.now().UTC())
	if !newEnd.After(today) {
		return nil, models.Validationf("new end date %s must be after today", newEnd.Format("2006-01-02"))
	}
	base := today
	if loan.EndDate != nil {
		base = *loan.EndDate
		if !newEnd.After(base) {
			return nil, models.Statef("new end date %s does not extend current end date %s",
				newEnd.Format("2006-01-02"), base.Format("2006-01-02"))
		}
	}
	if newEnd.After(base.AddDate(maxExtensionYears, 0, 0)) {
		return nil, models.Validationf("extension exceeds %d years", maxExtensionYears)
	}

	if !loan.Extended && loan.EndDate != nil {
		orig := *loan.EndDate
		loan.OriginalEndDate = &orig
	}
	loan.EndDate = &newEnd
	loan.Extended = true
	loan.Overdue = false
	loan.OverdueDate = nil
	loan.UpdatedAt = l.now().UTC()

	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to extend loan: %w", err)
	}
	l.logger.Info("loan extended",
		"loan_id", loan.ID, "new_end_date", newEnd, "reason", reason, "actor", actor)

	all, err := l.storage.GetTransactionsForLoan(loanID)
	if err != nil {
		return nil, err
	}
	return l.result(loan, nil, currentBalance(all)), nil
}

// GetLoan retrieves a loan by its ID.
func (l *Ledger) GetLoan(id uuid.UUID) (*models.Loan, error) {
	return l.storage.GetLoan(id)
}

// GetAllLoans retrieves all loans.
func (l *Ledger) GetAllLoans() ([]*models.Loan, error) {
	return l.storage.GetAllLoans()
}

// GetActiveLoans retrieves the loans not yet closed.
func (l *Ledger) GetActiveLoans() ([]*models.Loan, error) {
	return l.storage.GetAllActiveLoans()
}

// GetLedger retrieves a loan's full transaction sequence in ledger order.
func (l *Ledger) GetLedger(loanID uuid.UUID) ([]*models.Transaction, error) {
	return l.storage.GetTransactionsForLoan(loanID)
}

// GetLedgerFrom retrieves the entries dated on or after from, in ledger order.
func (l *Ledger) GetLedgerFrom(loanID uuid.UUID, from time.Time) ([]*models.Transaction, error) {
	return l.storage.GetTransactionsFrom(loanID, period.Day(from))
}

// Balance returns the running balance after the loan's last transaction.
func (l *Ledger) Balance(loanID uuid.UUID) (decimal.Decimal, error) {
	all, err := l.storage.GetTransactionsForLoan(loanID)
	if err != nil {
		return decimal.Zero, err
	}
	return currentBalance(all), nil
}

// --- internals ---

func validateIntent(loan *models.Loan, intent Intent) error {
	if intent.Date.IsZero() {
		return models.Validationf("transaction date is required")
	}
	date := period.Day(intent.Date)
	if date.Before(loan.StartDate) {
		return models.Validationf("transaction date %s precedes loan start %s",
			date.Format("2006-01-02"), loan.StartDate.Format("2006-01-02"))
	}
	if intent.AmountPaid.IsNegative() || intent.AmountRepaid.IsNegative() {
		return models.Validationf("amounts must not be negative")
	}
	paid, repaid := intent.AmountPaid.IsPositive(), intent.AmountRepaid.IsPositive()
	if paid == repaid {
		return models.Validationf("exactly one of amount_paid or amount_repaid must be positive")
	}
	if (intent.PeriodFrom == nil) != (intent.PeriodTo == nil) {
		return models.Validationf("period override requires both period_from and period_to")
	}
	if intent.PeriodFrom != nil && intent.PeriodTo.Before(*intent.PeriodFrom) {
		return models.Validationf("period_to precedes period_from")
	}
	return nil
}

// resolveRates applies the repository defaults where the loan omits its own
// figures.
func (l *Ledger) resolveRates(loan *models.Loan) (rates, error) {
	r := rates{annual: loan.AnnualRate, tds: loan.TDSPercentage}
	if !r.annual.IsPositive() {
		rate, err := l.storage.DefaultInterestRate()
		if err != nil {
			return rates{}, fmt.Errorf("failed to load default interest rate: %w", err)
		}
		r.annual = rate
	}
	if loan.TDSApplicable && !r.tds.IsPositive() {
		rate, err := l.storage.DefaultTDSRate()
		if err != nil {
			return rates{}, fmt.Errorf("failed to load default TDS rate: %w", err)
		}
		r.tds = rate
	}
	return r, nil
}

// synthesizeFillers covers [cursor, upTo) with passive entries: one per whole
// accrual period, plus a short tail entry if the new span starts mid-period.
// Work is bounded by the number of periods between the loan start and the
// transaction date.
func (l *Ledger) synthesizeFillers(
	loan *models.Loan, cursor, upTo time.Time,
	freq models.Frequency, r rates, seq *int64, actor string,
) []*models.Transaction {
	var fillers []*models.Transaction
	for cursor.Before(upTo) {
		end := period.End(cursor, loan.StartDate, freq)
		if !end.Before(upTo) {
			end = addDays(upTo, -1)
		}
		from, to := cursor, end
		filler := &models.Transaction{
			ID:           uuid.New(),
			LoanID:       loan.ID,
			Date:         to,
			Seq:          *seq,
			AmountPaid:   decimal.Zero,
			AmountRepaid: decimal.Zero,
			PeriodFrom:   &from,
			PeriodTo:     &to,
			InterestRate: r.annual,
			Kind:         models.KindPassive,
			CreatedAt:    l.now().UTC(),
			CreatedBy:    actor,
		}
		*seq++
		fillers = append(fillers, filler)
		cursor = addDays(end, 1)
	}
	return fillers
}

func (l *Ledger) synthesizeClosure(loan *models.Loan, date time.Time, seq int64, actor string) *models.Transaction {
	return &models.Transaction{
		ID:           uuid.New(),
		LoanID:       loan.ID,
		Date:         date,
		Seq:          seq,
		AmountPaid:   decimal.Zero,
		AmountRepaid: decimal.Zero,
		Balance:      decimal.Zero,
		Kind:         models.KindClosure,
		CreatedAt:    l.now().UTC(),
		CreatedBy:    actor,
	}
}

func (l *Ledger) result(loan *models.Loan, suffix []*models.Transaction, balance decimal.Decimal) *Result {
	return &Result{
		Loan:    loan,
		Status:  loan.Status(period.Day(l.now().UTC()), balance),
		Ledger:  suffix,
		Balance: balance,
	}
}

// coveringEntry finds the entry whose accrual span contains date. Under the
// no-overlap invariant there is at most one.
func coveringEntry(txns []*models.Transaction, date time.Time) *models.Transaction {
	for _, txn := range txns {
		if txn.HasPeriod() && !txn.PeriodFrom.After(date) && !txn.PeriodTo.Before(date) {
			return txn
		}
	}
	return nil
}

// nextPeriodStart is the earliest period start strictly after date.
func nextPeriodStart(txns []*models.Transaction, date time.Time) *time.Time {
	var next *time.Time
	for _, txn := range txns {
		if txn.HasPeriod() && txn.PeriodFrom.After(date) &&
			(next == nil || txn.PeriodFrom.Before(*next)) {
			next = txn.PeriodFrom
		}
	}
	return next
}

func withoutID(txns []*models.Transaction, id uuid.UUID) []*models.Transaction {
	out := make([]*models.Transaction, 0, len(txns))
	for _, txn := range txns {
		if txn.ID != id {
			out = append(out, txn)
		}
	}
	return out
}

// mergeLedger combines the stored ledger with newly synthesized entries,
// restoring (date, seq) order for backdated inserts.
func mergeLedger(existing, added []*models.Transaction) []*models.Transaction {
	all := make([]*models.Transaction, 0, len(existing)+len(added))
	all = append(all, existing...)
	all = append(all, added...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Before(all[j]) })
	return all
}

func currentBalance(txns []*models.Transaction) decimal.Decimal {
	if len(txns) == 0 {
		return decimal.Zero
	}
	return txns[len(txns)-1].Balance
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := period.Day(*t)
	return &d
}
