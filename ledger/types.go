/*
Package ledger provides the core personal-ledger accounting engine.

PURPOSE:
  This package owns the record types (CashFlow, Debt, Transaction, User),
  the identifier allocator, and the Engine that enforces the bookkeeping
  invariants: no overdraft on outflow, no double-clearing of debt, and
  monotonically assigned identifiers.

KEY CONCEPTS IN THIS FILE (types.go):
  - CashFlow: One movement of cash into or out of the main balance
  - Debt: An obligation that, while uncleared, counts as available liquidity
  - Transaction: A free-form ledger line (pure CRUD, no balance effect)
  - NextID: Pure allocator returning max(ID)+1 within a collection

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every amount, never float64
  2. Surrogate ids: integers unique within one collection, never reused
  3. Derived state: balances are recomputed from records, never cached

SEE ALSO:
  - engine.go: Mutation operations and derived balances
  - store.go: Persistence interface
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORDS
// =============================================================================

// CashFlow represents one movement of cash into or out of the main balance.
// IsInflow partitions the collection into exactly two disjoint views.
type CashFlow struct {
	ID          int             `json:"id"`
	UserID      int             `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category"` // dual purpose: inflow source or outflow category
	Description string          `json:"description"`
	IsInflow    bool            `json:"is_inflow"`
}

// Debt represents an outstanding obligation. While uncleared it is treated
// as available liquidity added back to the main balance (money owed TO the
// user). PaidAmount is informational and not reconciled against Amount.
type Debt struct {
	ID          int             `json:"id"`
	UserID      int             `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	IsCleared   bool            `json:"is_cleared"`
}

// Transaction is a free-form ledger line. It is not folded into balance
// computation; the engine only offers CRUD on it.
type Transaction struct {
	ID          int             `json:"id"`
	UserID      int             `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
}

// User is a registered account. PasswordHash is a bcrypt hash; the ledger
// engine never reads it, only the auth package does.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (c CashFlow) RecordID() int    { return c.ID }
func (d Debt) RecordID() int        { return d.ID }
func (t Transaction) RecordID() int { return t.ID }
func (u User) RecordID() int        { return u.ID }

// =============================================================================
// IDENTIFIER ALLOCATOR
// =============================================================================

// Record is any persisted record carrying a surrogate integer id.
type Record interface {
	RecordID() int
}

// NextID returns the next identifier for a collection: max(ID)+1, or 1 for
// an empty collection. Ids are unique within one collection only and are
// never reused after deletion.
//
// Pure function. Callers must hold exclusive access to the collection so
// two concurrent adds cannot compute the same id.
func NextID[T Record](items []T) int {
	max := 0
	for _, it := range items {
		if id := it.RecordID(); id > max {
			max = id
		}
	}
	return max + 1
}
