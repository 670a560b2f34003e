package events

import (
	"time"

	"github.com/ajayraj/pawnledger/pkg/models"
	"github.com/google/uuid"
)

// Event types emitted by the ledger.
const (
	TypeLoanOriginated  = "loan.originated"
	TypePaymentRecorded = "loan.payment_recorded"
	TypeLoanClosed      = "loan.closed"
)

// LoanEvent is the lifecycle record published after a successful ledger
// mutation. Amounts are decimal strings so consumers never see binary floats.
type LoanEvent struct {
	Type             string    `json:"type"`
	LoanID           uuid.UUID `json:"loan_id"`
	CustomerID       string    `json:"customer_id"`
	InterestPaid     string    `json:"interest_paid,omitempty"`
	PrincipalPaid    string    `json:"principal_paid,omitempty"`
	PendingPrincipal string    `json:"pending_principal"`
	PendingInterest  string    `json:"pending_interest"`
	PendingTotal     string    `json:"pending_total"`
	Status           string    `json:"status"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// NewLoanEvent builds an event of the given type from the loan's current
// balance state.
func NewLoanEvent(eventType string, loan *models.Loan) LoanEvent {
	return LoanEvent{
		Type:             eventType,
		LoanID:           loan.ID,
		CustomerID:       loan.CustomerID,
		PendingPrincipal: loan.PendingPrincipal.Display(),
		PendingInterest:  loan.PendingInterest.Display(),
		PendingTotal:     loan.PendingTotal().Display(),
		Status:           string(loan.Status),
		OccurredAt:       time.Now(),
	}
}

// Publisher delivers loan lifecycle events to downstream consumers.
// Publishing happens after the mutation is durably persisted; a publish
// failure never rolls the ledger back.
type Publisher interface {
	Publish(event LoanEvent) error
	Close() error
}

// NopPublisher discards events; used when no broker is configured and in
// tests.
type NopPublisher struct{}

func (NopPublisher) Publish(LoanEvent) error { return nil }
func (NopPublisher) Close() error            { return nil }
