/*
store.go - Persistence interface consumed by the engine

PURPOSE:
  Defines the boundary between the accounting logic and durable storage.
  The engine does not care whether records land in flat files, an embedded
  database, or memory; it only needs whole-collection load and save.

CONTRACT:
  Load*: returns an empty slice when the backing resource does not exist.
         A deserialization failure is logged by the implementation and
         degrades to an empty slice; it never propagates to the caller.
  Save*: writes the full collection, overwriting prior content. Not an
         append log. Errors are returned so the engine can apply its
         persistence policy (log-and-continue by default).

IMPLEMENTATIONS:
  - ledger/store/memory.go: In-memory, for tests and dev
  - store/jsonfile:         Indented JSON files, atomic rename on save
  - store/sqlite:           SQLite tables, full-overwrite save in one tx
*/
package ledger

import "context"

// Store persists the four record collections. One Save call replaces the
// whole stored collection of that kind.
type Store interface {
	LoadCashFlows(ctx context.Context) ([]CashFlow, error)
	SaveCashFlows(ctx context.Context, flows []CashFlow) error

	LoadDebts(ctx context.Context) ([]Debt, error)
	SaveDebts(ctx context.Context, debts []Debt) error

	LoadTransactions(ctx context.Context) ([]Transaction, error)
	SaveTransactions(ctx context.Context, txs []Transaction) error

	LoadUsers(ctx context.Context) ([]User, error)
	SaveUsers(ctx context.Context, users []User) error

	// Close releases any resources held by the store.
	Close() error
}
