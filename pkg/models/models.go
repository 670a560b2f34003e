package models

import (
	"time"

	"github.com/ajayraj/pawnledger/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the loan lifecycle state. Transitions run forward only:
// Pending -> Active -> Closed. A closed loan never reopens.
type LoanStatus string

const (
	StatusPending LoanStatus = "pending"
	StatusActive  LoanStatus = "active"
	StatusClosed  LoanStatus = "closed"
)

// Loan is one pledge-backed loan. Owner fields are a snapshot taken at
// origination; editing the customer later never changes them.
type Loan struct {
	ID                  uuid.UUID       `json:"id"`
	CustomerID          string          `json:"customer_id"` // Link to external customer system
	OwnerName           string          `json:"owner_name"`
	OwnerContactNumber  string          `json:"owner_contact_number"`
	ItemValue           money.Money     `json:"item_value"`
	Principal           money.Money     `json:"principal"`
	InterestRatePercent decimal.Decimal `json:"interest_rate_percent"` // Annual rate
	TermMonths          int             `json:"term_months"`
	InterestAmount      money.Money     `json:"interest_amount"` // Fixed at origination
	PendingPrincipal    money.Money     `json:"pending_principal"`
	PendingInterest     money.Money     `json:"pending_interest"`
	Status              LoanStatus      `json:"status"`
	OriginationDate     time.Time       `json:"origination_date"`
	ExpectedReturnDate  time.Time       `json:"expected_return_date"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Version             int64           `json:"version"` // Optimistic concurrency stamp
}

// PendingTotal is always derived from its parts, never stored, so the two
// balances and their total cannot drift apart.
func (l *Loan) PendingTotal() money.Money {
	return l.PendingPrincipal.Add(l.PendingInterest)
}

// Snapshot captures the balance view returned to callers.
func (l *Loan) Snapshot() LoanSnapshot {
	return LoanSnapshot{
		LoanID:           l.ID,
		PendingPrincipal: l.PendingPrincipal,
		PendingInterest:  l.PendingInterest,
		PendingTotal:     l.PendingTotal(),
		Status:           l.Status,
	}
}

// LoanTerms is the origination input supplied by the caller.
type LoanTerms struct {
	CustomerID          string          `json:"customer_id"`
	OwnerName           string          `json:"owner_name"`
	OwnerContactNumber  string          `json:"owner_contact_number"`
	ItemValue           money.Money     `json:"item_value"`
	Principal           money.Money     `json:"principal"`
	InterestRatePercent decimal.Decimal `json:"interest_rate_percent"`
	TermMonths          int             `json:"term_months"`
	OriginationDate     time.Time       `json:"origination_date"`
	ExpectedReturnDate  time.Time       `json:"expected_return_date"`
}

// Payment is the ephemeral input to a payment application: how much of the
// remittance goes to interest and how much to principal.
type Payment struct {
	InterestPaid  money.Money `json:"interest_paid"`
	PrincipalPaid money.Money `json:"principal_paid"`
}

// LoanSnapshot is the balance state reported back after reads and payments.
type LoanSnapshot struct {
	LoanID           uuid.UUID   `json:"loan_id"`
	PendingPrincipal money.Money `json:"pending_principal"`
	PendingInterest  money.Money `json:"pending_interest"`
	PendingTotal     money.Money `json:"pending_total"`
	Status           LoanStatus  `json:"status"`
}

type TransactionType string

const (
	TransactionTypeDisbursement TransactionType = "disbursement"
	TransactionTypePayment      TransactionType = "payment"
)

// Transaction is the audit record written for every balance mutation: the
// disbursement at origination and each payment as requested by the caller.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	LoanID          uuid.UUID       `json:"loan_id"`
	Type            TransactionType `json:"type"`
	InterestAmount  money.Money     `json:"interest_amount"`
	PrincipalAmount money.Money     `json:"principal_amount"`
	Timestamp       time.Time       `json:"timestamp"`
}
