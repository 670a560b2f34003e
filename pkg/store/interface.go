package store

import (
	"errors"

	"github.com/ajayraj/pawnledger/pkg/models"
	"github.com/google/uuid"
)

var (
	// ErrLoanNotFound is returned when no loan exists for the given ID.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrConflict is returned when a write lost a concurrent-modification
	// race; the caller must reload the loan and retry.
	ErrConflict = errors.New("loan was modified concurrently")
)

// Storage defines the repository contract for loans and their audit trail.
// UpdateLoan is version-checked: a write against a stale Version fails with
// ErrConflict and leaves the stored loan untouched.
type Storage interface {
	CreateLoan(loan *models.Loan) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	UpdateLoan(loan *models.Loan) error
	DeleteLoan(id uuid.UUID) error
	GetAllLoans() ([]*models.Loan, error)
	GetActiveLoans() ([]*models.Loan, error)

	CreateTransaction(transaction *models.Transaction) error
	GetTransactionsForLoan(loanID uuid.UUID) ([]*models.Transaction, error)

	Close() error
}
