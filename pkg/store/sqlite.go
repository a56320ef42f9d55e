package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iclbooks/iclledger/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
// Decimal fields are stored as TEXT so no precision is lost.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and initializes the schema,
// seeding default rates when the rate tables are empty.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		icl_no TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		contact_details TEXT NOT NULL DEFAULT '',
		annual_rate TEXT NOT NULL DEFAULT '0',
		start_date DATETIME NOT NULL,
		end_date DATETIME,
		interest_type TEXT NOT NULL DEFAULT 'simple',
		compound_frequency TEXT NOT NULL DEFAULT '',
		first_compounding_date DATETIME,
		tds_applicable INTEGER NOT NULL DEFAULT 0,
		tds_percentage TEXT NOT NULL DEFAULT '0',
		closed INTEGER NOT NULL DEFAULT 0,
		closed_date DATETIME,
		overdue INTEGER NOT NULL DEFAULT 0,
		overdue_date DATETIME,
		extended INTEGER NOT NULL DEFAULT 0,
		original_end_date DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		created_by TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		date DATETIME NOT NULL,
		seq INTEGER NOT NULL,
		amount_paid TEXT NOT NULL DEFAULT '0',
		amount_repaid TEXT NOT NULL DEFAULT '0',
		period_from DATETIME,
		period_to DATETIME,
		no_of_days INTEGER NOT NULL DEFAULT 0,
		interest_rate TEXT NOT NULL DEFAULT '0',
		interest_amount TEXT NOT NULL DEFAULT '0',
		tds_amount TEXT NOT NULL DEFAULT '0',
		net_amount TEXT NOT NULL DEFAULT '0',
		balance TEXT NOT NULL DEFAULT '0',
		kind TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		FOREIGN KEY(loan_id) REFERENCES loans(id),
		UNIQUE(loan_id, date, seq)
	);
	CREATE TABLE IF NOT EXISTS interest_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rate TEXT NOT NULL,
		effective_date DATETIME NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1
	);
	CREATE TABLE IF NOT EXISTS tds_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rate TEXT NOT NULL,
		effective_date DATETIME NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.seedRates()
}

// seedRates installs the standing default rates when none exist yet.
func (s *SQLiteStore) seedRates() error {
	seeds := []struct {
		table, rate, description string
	}{
		{"interest_rates", "12.00", "Default Interest Rate"},
		{"tds_rates", "10.00", "Default TDS Rate"},
	}
	for _, seed := range seeds {
		var n int
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", seed.table)).Scan(&n); err != nil {
			return fmt.Errorf("failed to count %s: %w", seed.table, err)
		}
		if n > 0 {
			continue
		}
		_, err := s.db.Exec(
			fmt.Sprintf("INSERT INTO %s (rate, effective_date, description, active) VALUES (?, ?, ?, 1)", seed.table),
			seed.rate, time.Now().UTC(), seed.description,
		)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", seed.table, err)
		}
	}
	return nil
}

const loanColumns = `id, icl_no, name, address, contact_details, annual_rate, start_date, end_date,
	interest_type, compound_frequency, first_compounding_date, tds_applicable, tds_percentage,
	closed, closed_date, overdue, overdue_date, extended, original_end_date,
	created_at, updated_at, created_by`

// CreateLoan inserts a new loan into the database.
func (s *SQLiteStore) CreateLoan(loan *models.Loan) error {
	_, err := s.db.Exec(
		`INSERT INTO loans (`+loanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.ICLNo, loan.Name, loan.Address, loan.ContactDetails,
		loan.AnnualRate, loan.StartDate, nullTime(loan.EndDate),
		string(loan.InterestType), string(loan.CompoundFrequency), nullTime(loan.FirstCompoundingDate),
		loan.TDSApplicable, loan.TDSPercentage,
		loan.Closed, nullTime(loan.ClosedDate), loan.Overdue, nullTime(loan.OverdueDate),
		loan.Extended, nullTime(loan.OriginalEndDate),
		loan.CreatedAt, loan.UpdatedAt, loan.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan by its ID.
func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	row := s.db.QueryRow(`SELECT `+loanColumns+` FROM loans WHERE id = ?`, id.String())
	loan, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// UpdateLoan updates an existing loan in the database.
func (s *SQLiteStore) UpdateLoan(loan *models.Loan) error {
	result, err := s.db.Exec(
		`UPDATE loans SET icl_no = ?, name = ?, address = ?, contact_details = ?, annual_rate = ?,
			start_date = ?, end_date = ?, interest_type = ?, compound_frequency = ?,
			first_compounding_date = ?, tds_applicable = ?, tds_percentage = ?,
			closed = ?, closed_date = ?, overdue = ?, overdue_date = ?, extended = ?,
			original_end_date = ?, updated_at = ?, created_by = ?
		WHERE id = ?`,
		loan.ICLNo, loan.Name, loan.Address, loan.ContactDetails, loan.AnnualRate,
		loan.StartDate, nullTime(loan.EndDate), string(loan.InterestType), string(loan.CompoundFrequency),
		nullTime(loan.FirstCompoundingDate), loan.TDSApplicable, loan.TDSPercentage,
		loan.Closed, nullTime(loan.ClosedDate), loan.Overdue, nullTime(loan.OverdueDate), loan.Extended,
		nullTime(loan.OriginalEndDate), loan.UpdatedAt, loan.CreatedBy,
		loan.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	return requireRows(result, ErrLoanNotFound)
}

// DeleteLoan removes a loan and its transactions within one transaction.
func (s *SQLiteStore) DeleteLoan(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM transactions WHERE loan_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete associated transactions: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM loans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	if err := requireRows(result, ErrLoanNotFound); err != nil {
		return err
	}
	return tx.Commit()
}

// GetAllLoans retrieves all loans.
func (s *SQLiteStore) GetAllLoans() ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT ` + loanColumns + ` FROM loans ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all loans: %w", err)
	}
	defer rows.Close()
	return scanLoans(rows)
}

// GetAllActiveLoans retrieves all loans not yet closed.
func (s *SQLiteStore) GetAllActiveLoans() ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT ` + loanColumns + ` FROM loans WHERE closed = 0 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active loans: %w", err)
	}
	defer rows.Close()
	return scanLoans(rows)
}

const txnColumns = `id, loan_id, date, seq, amount_paid, amount_repaid, period_from, period_to,
	no_of_days, interest_rate, interest_amount, tds_amount, net_amount, balance,
	kind, created_at, created_by`

// CreateTransaction inserts a new transaction into the database.
func (s *SQLiteStore) CreateTransaction(txn *models.Transaction) error {
	if err := execInsertTransaction(s.db, txn); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a single transaction by ID.
func (s *SQLiteStore) GetTransaction(id uuid.UUID) (*models.Transaction, error) {
	row := s.db.QueryRow(`SELECT `+txnColumns+` FROM transactions WHERE id = ?`, id.String())
	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactionsForLoan retrieves a loan's transactions in ledger order.
func (s *SQLiteStore) GetTransactionsForLoan(loanID uuid.UUID) ([]*models.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT `+txnColumns+` FROM transactions WHERE loan_id = ? ORDER BY date ASC, seq ASC`,
		loanID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for loan %s: %w", loanID, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// GetTransactionsFrom retrieves a loan's transactions dated on or after from,
// in ledger order.
func (s *SQLiteStore) GetTransactionsFrom(loanID uuid.UUID, from time.Time) ([]*models.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT `+txnColumns+` FROM transactions WHERE loan_id = ? AND date >= ? ORDER BY date ASC, seq ASC`,
		loanID.String(), from,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions from %s: %w", from.Format("2006-01-02"), err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// SaveLedger deletes the given transaction IDs, upserts a batch of
// transactions and updates the loan row in one database transaction. Either
// everything commits or nothing does.
func (s *SQLiteStore) SaveLedger(loan *models.Loan, txns []*models.Transaction, deleteIDs []uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range deleteIDs {
		if _, err := tx.Exec(`DELETE FROM transactions WHERE id = ?`, id.String()); err != nil {
			return fmt.Errorf("failed to delete transaction %s: %w", id, err)
		}
	}

	for _, txn := range txns {
		result, err := tx.Exec(
			`UPDATE transactions SET date = ?, seq = ?, amount_paid = ?, amount_repaid = ?,
				period_from = ?, period_to = ?, no_of_days = ?, interest_rate = ?,
				interest_amount = ?, tds_amount = ?, net_amount = ?, balance = ?, kind = ?
			WHERE id = ?`,
			txn.Date, txn.Seq, txn.AmountPaid, txn.AmountRepaid,
			nullTime(txn.PeriodFrom), nullTime(txn.PeriodTo), txn.Days, txn.InterestRate,
			txn.InterestAmount, txn.TDSAmount, txn.NetAmount, txn.Balance, string(txn.Kind),
			txn.ID.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if n == 0 {
			if err := execInsertTransaction(tx, txn); err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
			}
		}
	}

	_, err = tx.Exec(
		`UPDATE loans SET end_date = ?, closed = ?, closed_date = ?, overdue = ?, overdue_date = ?,
			extended = ?, original_end_date = ?, updated_at = ? WHERE id = ?`,
		nullTime(loan.EndDate), loan.Closed, nullTime(loan.ClosedDate), loan.Overdue,
		nullTime(loan.OverdueDate), loan.Extended, nullTime(loan.OriginalEndDate),
		loan.UpdatedAt, loan.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save loan %s: %w", loan.ID, err)
	}

	return tx.Commit()
}

// DeleteTransaction removes a single transaction.
func (s *SQLiteStore) DeleteTransaction(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM transactions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireRows(result, ErrTransactionNotFound)
}

// DefaultInterestRate returns the latest active standing interest rate.
func (s *SQLiteStore) DefaultInterestRate() (decimal.Decimal, error) {
	return s.latestRate("interest_rates")
}

// DefaultTDSRate returns the latest active standing TDS rate.
func (s *SQLiteStore) DefaultTDSRate() (decimal.Decimal, error) {
	return s.latestRate("tds_rates")
}

func (s *SQLiteStore) latestRate(table string) (decimal.Decimal, error) {
	var rate decimal.Decimal
	err := s.db.QueryRow(
		fmt.Sprintf("SELECT rate FROM %s WHERE active = 1 ORDER BY effective_date DESC, id DESC LIMIT 1", table),
	).Scan(&rate)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get rate from %s: %w", table, err)
	}
	return rate, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- helpers ---

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func execInsertTransaction(e execer, txn *models.Transaction) error {
	_, err := e.Exec(
		`INSERT INTO transactions (`+txnColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID.String(), txn.LoanID.String(), txn.Date, txn.Seq,
		txn.AmountPaid, txn.AmountRepaid, nullTime(txn.PeriodFrom), nullTime(txn.PeriodTo),
		txn.Days, txn.InterestRate, txn.InterestAmount, txn.TDSAmount, txn.NetAmount, txn.Balance,
		string(txn.Kind), txn.CreatedAt, txn.CreatedBy,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	var loan models.Loan
	var idStr, interestType, compoundFreq string
	var endDate, firstCompounding, closedDate, overdueDate, originalEnd sql.NullTime

	err := row.Scan(
		&idStr, &loan.ICLNo, &loan.Name, &loan.Address, &loan.ContactDetails,
		&loan.AnnualRate, &loan.StartDate, &endDate,
		&interestType, &compoundFreq, &firstCompounding,
		&loan.TDSApplicable, &loan.TDSPercentage,
		&loan.Closed, &closedDate, &loan.Overdue, &overdueDate,
		&loan.Extended, &originalEnd,
		&loan.CreatedAt, &loan.UpdatedAt, &loan.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	loan.ID = uuid.MustParse(idStr)
	loan.InterestType = models.InterestType(interestType)
	loan.CompoundFrequency = models.Frequency(compoundFreq)
	loan.EndDate = timePtr(endDate)
	loan.FirstCompoundingDate = timePtr(firstCompounding)
	loan.ClosedDate = timePtr(closedDate)
	loan.OverdueDate = timePtr(overdueDate)
	loan.OriginalEndDate = timePtr(originalEnd)
	return &loan, nil
}

func scanLoans(rows *sql.Rows) ([]*models.Loan, error) {
	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var txn models.Transaction
	var idStr, loanIDStr, kind string
	var periodFrom, periodTo sql.NullTime

	err := row.Scan(
		&idStr, &loanIDStr, &txn.Date, &txn.Seq,
		&txn.AmountPaid, &txn.AmountRepaid, &periodFrom, &periodTo,
		&txn.Days, &txn.InterestRate, &txn.InterestAmount, &txn.TDSAmount, &txn.NetAmount, &txn.Balance,
		&kind, &txn.CreatedAt, &txn.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	txn.ID = uuid.MustParse(idStr)
	txn.LoanID = uuid.MustParse(loanIDStr)
	txn.Kind = models.TransactionKind(kind)
	txn.PeriodFrom = timePtr(periodFrom)
	txn.PeriodTo = timePtr(periodTo)
	return &txn, nil
}

func scanTransactions(rows *sql.Rows) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return txns, nil
}

func requireRows(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
