/*
errors.go - Centralized error types for the ledger engine

ERROR CATEGORIES:
  1. Validation rejections - insufficient balance (business rule, no mutation)
  2. Persistence errors - store write failures, surfaced only in strict mode

Not-found on update/delete is deliberately NOT an error: those operations
are silent no-ops. Corrupt or missing data on load degrades to an empty
collection inside the store implementations and never reaches here.
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientBalance is returned when an outflow or debt clear would
	// exceed the main balance. The rejected operation mutates nothing.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrPersistFailed wraps a store write failure. Only surfaced to callers
	// when the engine runs with StrictPersistence; the default policy logs
	// the divergence and continues.
	ErrPersistFailed = errors.New("persist failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports a balance shortage on AddCashOutflow.
type InsufficientBalanceError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s, requested %s",
		e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// DebtClearError reports that outstanding debt exceeds the main balance,
// so ClearDebt rejected the request without mutating any record.
type DebtClearError struct {
	Balance   decimal.Decimal
	TotalDebt decimal.Decimal
}

func (e *DebtClearError) Error() string {
	return fmt.Sprintf("insufficient balance to clear debt: balance %s, total debt %s",
		e.Balance, e.TotalDebt)
}

func (e *DebtClearError) Unwrap() error { return ErrInsufficientBalance }

// IsRejection returns true if the error is a validation rejection rather
// than a fault. Rejections are expected outcomes the caller presents to
// the user; they never indicate corrupted state.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}
