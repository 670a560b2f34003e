package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ajayraj/pawnledger/pkg/models"
	"github.com/ajayraj/pawnledger/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test_store.db")
	s, err := NewSQLiteStore(dbFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testLoan(t *testing.T) *models.Loan {
	t.Helper()
	principal, _ := money.Parse("10000")
	itemValue, _ := money.Parse("15000")
	interestAmount, _ := money.Parse("600.00")
	now := time.Now()

	return &models.Loan{
		ID:                  uuid.New(),
		CustomerID:          "cust_test",
		OwnerName:           "Ravi Kumar",
		OwnerContactNumber:  "9876543210",
		ItemValue:           itemValue,
		Principal:           principal,
		InterestRatePercent: decimal.NewFromInt(12),
		TermMonths:          6,
		InterestAmount:      interestAmount,
		PendingPrincipal:    principal,
		PendingInterest:     interestAmount,
		Status:              models.StatusActive,
		OriginationDate:     now,
		ExpectedReturnDate:  now.AddDate(0, 6, 0),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func TestSQLiteStore_CreateAndGetLoan(t *testing.T) {
	s := newTestStore(t)
	loan := testLoan(t)

	if err := s.CreateLoan(loan); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	fetched, err := s.GetLoan(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get loan: %v", err)
	}

	if fetched.OwnerName != loan.OwnerName {
		t.Errorf("Expected OwnerName %s, got %s", loan.OwnerName, fetched.OwnerName)
	}
	if fetched.OwnerContactNumber != "9876543210" {
		t.Errorf("Expected contact 9876543210, got %s", fetched.OwnerContactNumber)
	}
	if !fetched.Principal.Equal(loan.Principal) {
		t.Errorf("Expected Principal %s, got %s", loan.Principal, fetched.Principal)
	}
	if !fetched.PendingInterest.Equal(loan.PendingInterest) {
		t.Errorf("Expected PendingInterest %s, got %s", loan.PendingInterest, fetched.PendingInterest)
	}
	if fetched.Status != models.StatusActive {
		t.Errorf("Expected status active, got %s", fetched.Status)
	}
	if fetched.Version != 1 {
		t.Errorf("Expected version 1 on a fresh loan, got %d", fetched.Version)
	}
}

func TestSQLiteStore_GetLoanNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetLoan(uuid.New()); !errors.Is(err, ErrLoanNotFound) {
		t.Errorf("Expected ErrLoanNotFound, got %v", err)
	}
}

func TestSQLiteStore_UpdateLoanBumpsVersion(t *testing.T) {
	s := newTestStore(t)
	loan := testLoan(t)
	if err := s.CreateLoan(loan); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	paid, _ := money.Parse("5000")
	loan.PendingPrincipal = loan.PendingPrincipal.Sub(paid)
	loan.UpdatedAt = time.Now()

	if err := s.UpdateLoan(loan); err != nil {
		t.Fatalf("Failed to update loan: %v", err)
	}
	if loan.Version != 2 {
		t.Errorf("Expected in-memory version bumped to 2, got %d", loan.Version)
	}

	fetched, err := s.GetLoan(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get loan: %v", err)
	}
	if fetched.PendingPrincipal.Display() != "5000.00" {
		t.Errorf("Expected pending principal 5000.00, got %s", fetched.PendingPrincipal.Display())
	}
	if fetched.Version != 2 {
		t.Errorf("Expected stored version 2, got %d", fetched.Version)
	}
}

func TestSQLiteStore_UpdateLoanStaleVersionConflicts(t *testing.T) {
	s := newTestStore(t)
	loan := testLoan(t)
	if err := s.CreateLoan(loan); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	// Two readers load the same version; the second write must lose.
	first, err := s.GetLoan(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get loan: %v", err)
	}
	second, err := s.GetLoan(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get loan: %v", err)
	}

	if err := s.UpdateLoan(first); err != nil {
		t.Fatalf("First update should succeed: %v", err)
	}
	if err := s.UpdateLoan(second); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for stale write, got %v", err)
	}
}

func TestSQLiteStore_UpdateMissingLoan(t *testing.T) {
	s := newTestStore(t)
	loan := testLoan(t)
	loan.Version = 1

	if err := s.UpdateLoan(loan); !errors.Is(err, ErrLoanNotFound) {
		t.Errorf("Expected ErrLoanNotFound, got %v", err)
	}
}

func TestSQLiteStore_DeleteLoan(t *testing.T) {
	s := newTestStore(t)
	loan := testLoan(t)
	if err := s.CreateLoan(loan); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	interestPart, _ := money.Parse("100")
	tx := &models.Transaction{
		ID:              uuid.New(),
		LoanID:          loan.ID,
		Type:            models.TransactionTypePayment,
		InterestAmount:  interestPart,
		PrincipalAmount: money.Zero,
		Timestamp:       time.Now(),
	}
	if err := s.CreateTransaction(tx); err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}

	if err := s.DeleteLoan(loan.ID); err != nil {
		t.Fatalf("Failed to delete loan: %v", err)
	}
	if _, err := s.GetLoan(loan.ID); !errors.Is(err, ErrLoanNotFound) {
		t.Errorf("Expected ErrLoanNotFound after delete, got %v", err)
	}
	txs, err := s.GetTransactionsForLoan(loan.ID)
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("Expected transactions removed with the loan, got %d", len(txs))
	}

	if err := s.DeleteLoan(loan.ID); !errors.Is(err, ErrLoanNotFound) {
		t.Errorf("Expected ErrLoanNotFound deleting twice, got %v", err)
	}
}

func TestSQLiteStore_GetActiveLoans(t *testing.T) {
	s := newTestStore(t)

	active := testLoan(t)
	if err := s.CreateLoan(active); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	closed := testLoan(t)
	closed.ID = uuid.New()
	closed.Status = models.StatusClosed
	closed.PendingPrincipal = money.Zero
	closed.PendingInterest = money.Zero
	if err := s.CreateLoan(closed); err != nil {
		t.Fatalf("Failed to create closed loan: %v", err)
	}

	loans, err := s.GetActiveLoans()
	if err != nil {
		t.Fatalf("Failed to get active loans: %v", err)
	}
	if len(loans) != 1 || loans[0].ID != active.ID {
		t.Errorf("Expected only the active loan, got %d", len(loans))
	}

	all, err := s.GetAllLoans()
	if err != nil {
		t.Fatalf("Failed to get all loans: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 loans total, got %d", len(all))
	}
}

func TestSQLiteStore_Transactions(t *testing.T) {
	s := newTestStore(t)
	loan := testLoan(t)
	if err := s.CreateLoan(loan); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	interestPart, _ := money.Parse("600")
	principalPart, _ := money.Parse("2000")
	base := time.Now()
	for i, txType := range []models.TransactionType{models.TransactionTypeDisbursement, models.TransactionTypePayment} {
		tx := &models.Transaction{
			ID:              uuid.New(),
			LoanID:          loan.ID,
			Type:            txType,
			InterestAmount:  interestPart,
			PrincipalAmount: principalPart,
			Timestamp:       base.Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateTransaction(tx); err != nil {
			t.Fatalf("Failed to create transaction: %v", err)
		}
	}

	txs, err := s.GetTransactionsForLoan(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Type != models.TransactionTypeDisbursement {
		t.Errorf("Expected disbursement first, got %s", txs[0].Type)
	}
	if !txs[1].PrincipalAmount.Equal(principalPart) {
		t.Errorf("Expected principal amount %s, got %s", principalPart, txs[1].PrincipalAmount)
	}
}
