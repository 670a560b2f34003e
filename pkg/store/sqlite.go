package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ajayraj/pawnledger/pkg/models"
	"github.com/google/uuid"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Manually enable foreign keys and WAL mode
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

// initSchema creates the database tables if they don't already exist.
// Monetary columns are TEXT so no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		owner_name TEXT NOT NULL,
		owner_contact_number TEXT NOT NULL,
		item_value TEXT NOT NULL,
		principal TEXT NOT NULL,
		interest_rate_percent TEXT NOT NULL,
		term_months INTEGER NOT NULL,
		interest_amount TEXT NOT NULL,
		pending_principal TEXT NOT NULL,
		pending_interest TEXT NOT NULL,
		status TEXT NOT NULL,
		origination_date DATETIME NOT NULL,
		expected_return_date DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		version INTEGER NOT NULL DEFAULT 1
	);
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		type TEXT NOT NULL,
		interest_amount TEXT NOT NULL,
		principal_amount TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const loanColumns = `id, customer_id, owner_name, owner_contact_number, item_value, principal, interest_rate_percent, term_months, interest_amount, pending_principal, pending_interest, status, origination_date, expected_return_date, created_at, updated_at, version`

// CreateLoan inserts a new loan. The stored version always starts at 1.
func (s *SQLiteStore) CreateLoan(loan *models.Loan) error {
	loan.Version = 1
	_, err := s.db.Exec(
		`INSERT INTO loans (`+loanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.CustomerID, loan.OwnerName, loan.OwnerContactNumber,
		loan.ItemValue, loan.Principal, loan.InterestRatePercent, loan.TermMonths,
		loan.InterestAmount, loan.PendingPrincipal, loan.PendingInterest,
		string(loan.Status), loan.OriginationDate, loan.ExpectedReturnDate,
		loan.CreatedAt, loan.UpdatedAt, loan.Version,
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
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// UpdateLoan writes the loan back, guarded by its version. A write against a
// stale version affects no rows and fails with ErrConflict; the caller's
// in-memory Version is bumped on success.
func (s *SQLiteStore) UpdateLoan(loan *models.Loan) error {
	result, err := s.db.Exec(
		`UPDATE loans SET customer_id = ?, owner_name = ?, owner_contact_number = ?, item_value = ?, principal = ?, interest_rate_percent = ?, term_months = ?, interest_amount = ?, pending_principal = ?, pending_interest = ?, status = ?, origination_date = ?, expected_return_date = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		loan.CustomerID, loan.OwnerName, loan.OwnerContactNumber,
		loan.ItemValue, loan.Principal, loan.InterestRatePercent, loan.TermMonths,
		loan.InterestAmount, loan.PendingPrincipal, loan.PendingInterest,
		string(loan.Status), loan.OriginationDate, loan.ExpectedReturnDate,
		loan.UpdatedAt, loan.ID.String(), loan.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the loan is gone or someone wrote it first.
		var exists int
		err := s.db.QueryRow(`SELECT COUNT(1) FROM loans WHERE id = ?`, loan.ID.String()).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check loan existence: %w", err)
		}
		if exists == 0 {
			return ErrLoanNotFound
		}
		return ErrConflict
	}
	loan.Version++
	return nil
}

// DeleteLoan removes a loan and its transactions within a transaction.
// Deletion is a repository-level operation; the ledger never calls it.
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

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrLoanNotFound
	}

	return tx.Commit()
}

// GetAllLoans retrieves all loans.
func (s *SQLiteStore) GetAllLoans() ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT ` + loanColumns + ` FROM loans`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all loans: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

// GetActiveLoans retrieves all loans with outstanding balances.
func (s *SQLiteStore) GetActiveLoans() ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT `+loanColumns+` FROM loans WHERE status = ?`, string(models.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to get active loans: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	var loan models.Loan
	var loanIDStr, status string
	err := row.Scan(
		&loanIDStr, &loan.CustomerID, &loan.OwnerName, &loan.OwnerContactNumber,
		&loan.ItemValue, &loan.Principal, &loan.InterestRatePercent, &loan.TermMonths,
		&loan.InterestAmount, &loan.PendingPrincipal, &loan.PendingInterest,
		&status, &loan.OriginationDate, &loan.ExpectedReturnDate,
		&loan.CreatedAt, &loan.UpdatedAt, &loan.Version,
	)
	if err != nil {
		return nil, err
	}
	loan.ID = uuid.MustParse(loanIDStr)
	loan.Status = models.LoanStatus(status)
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

// CreateTransaction inserts a new audit transaction.
func (s *SQLiteStore) CreateTransaction(transaction *models.Transaction) error {
	_, err := s.db.Exec(
		`INSERT INTO transactions (id, loan_id, type, interest_amount, principal_amount, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		transaction.ID.String(), transaction.LoanID.String(), string(transaction.Type),
		transaction.InterestAmount, transaction.PrincipalAmount, transaction.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionsForLoan retrieves all transactions for a given loan ID.
func (s *SQLiteStore) GetTransactionsForLoan(loanID uuid.UUID) ([]*models.Transaction, error) {
	rows, err := s.db.Query(`SELECT id, loan_id, type, interest_amount, principal_amount, timestamp FROM transactions WHERE loan_id = ? ORDER BY timestamp ASC`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var transaction models.Transaction
		var txIDStr, loanIDStr, txType string
		var timestamp time.Time
		if err := rows.Scan(&txIDStr, &loanIDStr, &txType, &transaction.InterestAmount, &transaction.PrincipalAmount, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transaction.ID = uuid.MustParse(txIDStr)
		transaction.LoanID = uuid.MustParse(loanIDStr)
		transaction.Type = models.TransactionType(txType)
		transaction.Timestamp = timestamp
		transactions = append(transactions, &transaction)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for loan transactions: %w", err)
	}
	return transactions, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
