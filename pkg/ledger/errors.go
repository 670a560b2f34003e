package ledger

import (
	"errors"

	"github.com/ajayraj/pawnledger/pkg/interest"
	"github.com/ajayraj/pawnledger/pkg/money"
	"github.com/ajayraj/pawnledger/pkg/store"
)

// The ledger's failure taxonomy. Every precondition violation fails before
// any balance mutation; ErrConflict is the one retryable condition.
var (
	ErrInvalidAmount    = money.ErrInvalidAmount
	ErrInvalidLoanTerms = interest.ErrInvalidLoanTerms
	ErrInvalidPayment   = errors.New("invalid payment")
	ErrLoanClosed       = errors.New("loan is closed")
	ErrLoanNotFound     = store.ErrLoanNotFound
	ErrConflict         = store.ErrConflict
)
