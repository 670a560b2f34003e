package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ajayraj/pawnledger/pkg/events"
	"github.com/ajayraj/pawnledger/pkg/interest"
	"github.com/ajayraj/pawnledger/pkg/models"
	"github.com/ajayraj/pawnledger/pkg/money"
	"github.com/ajayraj/pawnledger/pkg/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// contactPattern mirrors the customer-contact rule applied at the UI
// boundary: exactly ten digits.
var contactPattern = regexp.MustCompile(`^[0-9]{10}$`)

// Ledger owns the loan balance state machine: origination, payment
// application, and closure. All mutations for a given loan are serialized
// through a per-loan lock, and the store's version check catches writers
// from other processes.
type Ledger struct {
	storage   store.Storage
	publisher events.Publisher
	logger    *logrus.Logger

	muMap map[uuid.UUID]*sync.Mutex // per-loan mutation locks
	mapMu sync.Mutex                // protects muMap itself
}

// NewLedger creates a Ledger over the given storage. A nil publisher
// disables eventing; a nil logger falls back to the logrus default.
func NewLedger(s store.Storage, pub events.Publisher, logger *logrus.Logger) *Ledger {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Ledger{
		storage:   s,
		publisher: pub,
		logger:    logger,
		muMap:     make(map[uuid.UUID]*sync.Mutex),
	}
}

func (l *Ledger) loanLock(id uuid.UUID) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[id]; !exists {
		l.muMap[id] = &sync.Mutex{}
	}
	return l.muMap[id]
}

// OriginateLoan validates the submitted terms, computes the one-time
// interest charge, and persists the loan as Active with both pending
// balances initialized. The owner fields are captured here as a snapshot and
// never re-read from the customer record.
func (l *Ledger) OriginateLoan(terms models.LoanTerms) (*models.Loan, error) {
	if strings.TrimSpace(terms.OwnerName) == "" {
		return nil, fmt.Errorf("%w: owner name is required", ErrInvalidLoanTerms)
	}
	if !contactPattern.MatchString(terms.OwnerContactNumber) {
		return nil, fmt.Errorf("%w: owner contact must be a 10-digit number", ErrInvalidLoanTerms)
	}
	if terms.ItemValue.IsNegative() {
		return nil, fmt.Errorf("%w: item value must not be negative", ErrInvalidLoanTerms)
	}

	// Principal, rate, and term are validated by the calculator.
	interestAmount, err := interest.ForTerm(terms.Principal, terms.InterestRatePercent, terms.TermMonths)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	originationDate := terms.OriginationDate
	if originationDate.IsZero() {
		originationDate = now
	}
	expectedReturn := terms.ExpectedReturnDate
	if expectedReturn.IsZero() {
		expectedReturn = originationDate.AddDate(0, terms.TermMonths, 0)
	}

	loan := &models.Loan{
		ID:                  uuid.New(),
		CustomerID:          terms.CustomerID,
		OwnerName:           strings.TrimSpace(terms.OwnerName),
		OwnerContactNumber:  terms.OwnerContactNumber,
		ItemValue:           terms.ItemValue,
		Principal:           terms.Principal,
		InterestRatePercent: terms.InterestRatePercent,
		TermMonths:          terms.TermMonths,
		InterestAmount:      interestAmount,
		PendingPrincipal:    terms.Principal,
		PendingInterest:     interestAmount,
		Status:              models.StatusActive,
		OriginationDate:     originationDate,
		ExpectedReturnDate:  expectedReturn,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := l.storage.CreateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}

	disbursement := &models.Transaction{
		ID:              uuid.New(),
		LoanID:          loan.ID,
		Type:            models.TransactionTypeDisbursement,
		InterestAmount:  money.Zero,
		PrincipalAmount: loan.Principal,
		Timestamp:       now,
	}
	if err := l.storage.CreateTransaction(disbursement); err != nil {
		return nil, fmt.Errorf("failed to store disbursement transaction: %w", err)
	}

	l.logger.WithFields(logrus.Fields{
		"loan_id":         loan.ID,
		"customer_id":     loan.CustomerID,
		"principal":       loan.Principal.Display(),
		"interest_amount": loan.InterestAmount.Display(),
		"term_months":     loan.TermMonths,
	}).Info("loan originated")

	l.publish(events.NewLoanEvent(events.TypeLoanOriginated, loan))

	return loan, nil
}

// RecordPayment applies a payment to an active loan. Each balance is
// decremented independently and clamped at zero; excess on one component is
// discarded, never carried to the other. When both balances reach zero the
// loan closes in the same write. Nothing is persisted if any precondition
// fails.
func (l *Ledger) RecordPayment(loanID uuid.UUID, payment models.Payment) (*models.LoanSnapshot, error) {
	if payment.InterestPaid.IsNegative() || payment.PrincipalPaid.IsNegative() {
		return nil, fmt.Errorf("%w: payment amounts must not be negative", ErrInvalidPayment)
	}
	if payment.InterestPaid.IsZero() && payment.PrincipalPaid.IsZero() {
		return nil, fmt.Errorf("%w: payment must not be empty", ErrInvalidPayment)
	}

	mu := l.loanLock(loanID)
	mu.Lock()
	defer mu.Unlock()

	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}

	switch loan.Status {
	case models.StatusActive:
		// proceed
	case models.StatusClosed:
		return nil, fmt.Errorf("%w: loan %s", ErrLoanClosed, loanID)
	default:
		return nil, fmt.Errorf("%w: loan %s is not active", ErrInvalidPayment, loanID)
	}

	appliedInterest := clamp(payment.InterestPaid, loan.PendingInterest)
	appliedPrincipal := clamp(payment.PrincipalPaid, loan.PendingPrincipal)

	loan.PendingInterest = loan.PendingInterest.Sub(appliedInterest)
	loan.PendingPrincipal = loan.PendingPrincipal.Sub(appliedPrincipal)
	loan.UpdatedAt = time.Now()

	closed := loan.PendingInterest.IsZero() && loan.PendingPrincipal.IsZero()
	if closed {
		loan.Status = models.StatusClosed
	}

	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		ID:              uuid.New(),
		LoanID:          loan.ID,
		Type:            models.TransactionTypePayment,
		InterestAmount:  payment.InterestPaid,
		PrincipalAmount: payment.PrincipalPaid,
		Timestamp:       loan.UpdatedAt,
	}
	if err := l.storage.CreateTransaction(transaction); err != nil {
		return nil, fmt.Errorf("failed to store payment transaction: %w", err)
	}

	l.logger.WithFields(logrus.Fields{
		"loan_id":           loan.ID,
		"interest_paid":     payment.InterestPaid.Display(),
		"principal_paid":    payment.PrincipalPaid.Display(),
		"applied_interest":  appliedInterest.Display(),
		"applied_principal": appliedPrincipal.Display(),
		"pending_total":     loan.PendingTotal().Display(),
		"status":            loan.Status,
	}).Info("payment recorded")

	paid := events.NewLoanEvent(events.TypePaymentRecorded, loan)
	paid.InterestPaid = payment.InterestPaid.Display()
	paid.PrincipalPaid = payment.PrincipalPaid.Display()
	l.publish(paid)
	if closed {
		l.publish(events.NewLoanEvent(events.TypeLoanClosed, loan))
	}

	snapshot := loan.Snapshot()
	return &snapshot, nil
}

// clamp caps a payment component at the outstanding balance.
func clamp(paid, pending money.Money) money.Money {
	if paid.Cmp(pending) > 0 {
		return pending
	}
	return paid
}

// GetSnapshot returns the loan's current balance view.
func (l *Ledger) GetSnapshot(loanID uuid.UUID) (*models.LoanSnapshot, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	snapshot := loan.Snapshot()
	return &snapshot, nil
}

// GetLoan retrieves a loan by its ID.
func (l *Ledger) GetLoan(id uuid.UUID) (*models.Loan, error) {
	return l.storage.GetLoan(id)
}

// GetAllLoans retrieves all loans.
func (l *Ledger) GetAllLoans() ([]*models.Loan, error) {
	return l.storage.GetAllLoans()
}

// GetTransactionsForLoan returns a loan's audit trail, oldest first.
func (l *Ledger) GetTransactionsForLoan(loanID uuid.UUID) ([]*models.Transaction, error) {
	return l.storage.GetTransactionsForLoan(loanID)
}

// ReviewOverdue flags active loans whose expected return date has passed.
// Informational only: it never mutates loan state.
func (l *Ledger) ReviewOverdue(asOf time.Time) ([]*models.Loan, error) {
	loans, err := l.storage.GetActiveLoans()
	if err != nil {
		return nil, fmt.Errorf("failed to get active loans for overdue review: %w", err)
	}

	var overdue []*models.Loan
	for _, loan := range loans {
		if loan.ExpectedReturnDate.Before(asOf) {
			overdue = append(overdue, loan)
			l.logger.WithFields(logrus.Fields{
				"loan_id":         loan.ID,
				"owner_name":      loan.OwnerName,
				"expected_return": loan.ExpectedReturnDate,
				"pending_total":   loan.PendingTotal().Display(),
			}).Warn("loan past expected return date")
		}
	}
	return overdue, nil
}

func (l *Ledger) publish(event events.LoanEvent) {
	if err := l.publisher.Publish(event); err != nil {
		// Events are best-effort; the ledger write already committed.
		l.logger.WithError(err).WithField("event_type", event.Type).Warn("failed to publish loan event")
	}
}
