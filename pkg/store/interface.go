package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iclbooks/iclledger/pkg/models"
)

var (
	ErrLoanNotFound        = errors.New("loan not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Storage defines the repository contract the ledger engine depends on.
// Transaction loads are always ordered by (date, seq). SaveLedger must commit
// the loan row and the whole transaction batch atomically - a half-replayed
// ledger must never become visible.
type Storage interface {
	CreateLoan(loan *models.Loan) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	UpdateLoan(loan *models.Loan) error
	DeleteLoan(id uuid.UUID) error
	GetAllLoans() ([]*models.Loan, error)
	GetAllActiveLoans() ([]*models.Loan, error)

	CreateTransaction(txn *models.Transaction) error
	GetTransaction(id uuid.UUID) (*models.Transaction, error)
	GetTransactionsForLoan(loanID uuid.UUID) ([]*models.Transaction, error)
	GetTransactionsFrom(loanID uuid.UUID, from time.Time) ([]*models.Transaction, error)
	SaveLedger(loan *models.Loan, txns []*models.Transaction, deleteIDs []uuid.UUID) error
	DeleteTransaction(id uuid.UUID) error

	DefaultInterestRate() (decimal.Decimal, error)
	DefaultTDSRate() (decimal.Decimal, error)

	Close() error
}
