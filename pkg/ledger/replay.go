package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iclbooks/iclledger/pkg/interest"
	"github.com/iclbooks/iclledger/pkg/models"
	"github.com/iclbooks/iclledger/pkg/period"
)

// ledgerState is the working state carried across a loan's ledger in sequence
// order: the running balance and, for compound loans, net interest accrued in
// earlier periods but not yet posted to the balance.
type ledgerState struct {
	balance  decimal.Decimal
	unposted decimal.Decimal
}

func newLedgerState() ledgerState {
	return ledgerState{balance: decimal.Zero, unposted: decimal.Zero}
}

// rates are the resolved percentages used for one engine operation: the
// loan's own figures when set, otherwise the repository defaults.
type rates struct {
	annual decimal.Decimal
	tds    decimal.Decimal
}

// posted reports whether this entry's net interest (and everything
// accumulated before it) was folded into the balance: compound loan, on or
// after the first compounding date, period ending exactly on an accrual
// boundary.
func posted(loan *models.Loan, txn *models.Transaction) bool {
	if !loan.CompoundingActive(txn.Date) || !txn.HasPeriod() {
		return false
	}
	return period.IsPeriodEnd(*txn.PeriodTo, loan.StartDate, loan.AccrualFrequency())
}

// deriveState folds over already-computed transactions to recover the working
// state at their end, trusting the stored derived fields.
func deriveState(loan *models.Loan, txns []*models.Transaction) ledgerState {
	st := newLedgerState()
	for _, txn := range txns {
		if txn.Kind == models.KindClosure {
			st.balance = decimal.Zero
			st.unposted = decimal.Zero
			continue
		}
		st.balance = txn.Balance
		if loan.InterestType != models.InterestTypeCompound {
			continue
		}
		if posted(loan, txn) {
			st.unposted = decimal.Zero
		} else {
			st.unposted = st.unposted.Add(txn.NetAmount)
		}
	}
	return st
}

// replayOne recomputes one entry's derived fields and advances the state.
// Periods are kept as stored; only days, interest, TDS, net and balance are
// rewritten.
func replayOne(loan *models.Loan, st *ledgerState, txn *models.Transaction, r rates) {
	if txn.Kind == models.KindClosure {
		// Closure pins the ledger at zero; the residue is written off.
		txn.Days = 0
		txn.InterestAmount = decimal.Zero
		txn.TDSAmount = decimal.Zero
		txn.NetAmount = decimal.Zero
		st.balance = decimal.Zero
		st.unposted = decimal.Zero
		txn.Balance = decimal.Zero
		return
	}

	txn.Days = txn.SpanDays()
	if !txn.InterestRate.IsPositive() {
		txn.InterestRate = r.annual
	}

	basis := st.balance
	switch txn.Kind {
	case models.KindDeposit:
		basis = basis.Add(txn.AmountPaid)
	case models.KindRepayment:
		basis = basis.Sub(txn.AmountRepaid)
	}
	if loan.CompoundingActive(txn.Date) {
		basis = basis.Add(st.unposted)
	}

	txn.InterestAmount = interest.Compute(basis, txn.InterestRate, txn.Days)
	txn.TDSAmount, txn.NetAmount = interest.SplitTDS(txn.InterestAmount, loan.TDSApplicable, r.tds)

	st.balance = st.balance.Add(txn.AmountPaid).Sub(txn.AmountRepaid)

	if posted(loan, txn) {
		st.balance = st.balance.Add(st.unposted).Add(txn.NetAmount)
		st.unposted = decimal.Zero
	} else if loan.InterestType == models.InterestTypeCompound {
		st.unposted = st.unposted.Add(txn.NetAmount)
	}

	txn.Balance = st.balance
}

// replayAll folds replayOne over a suffix in sequence order.
func replayAll(loan *models.Loan, st *ledgerState, txns []*models.Transaction, r rates) {
	for _, txn := range txns {
		replayOne(loan, st, txn, r)
	}
}

// splitByDate partitions an ordered ledger into entries strictly before from
// and entries on or after it.
func splitByDate(txns []*models.Transaction, from time.Time) (prefix, suffix []*models.Transaction) {
	for i, txn := range txns {
		if !txn.Date.Before(from) {
			return txns[:i], txns[i:]
		}
	}
	return txns, nil
}

func nextSeq(txns []*models.Transaction) int64 {
	var max int64
	for _, txn := range txns {
		if txn.Seq > max {
			max = txn.Seq
		}
	}
	return max + 1
}

func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}
