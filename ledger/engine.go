/*
engine.go - The ledger accounting engine

PURPOSE:
  Owns the in-memory collections of CashFlow, Debt, and Transaction records,
  enforces the bookkeeping invariants, computes derived balances, and mirrors
  every mutation to the Store before returning.

INVARIANTS:
  1. Ids within one collection are unique, assigned max+1, never reused
  2. An outflow never exceeds the main balance at the time of the check
  3. Cleared debts stay excluded from total-debt until explicitly un-cleared
  4. In-memory and persisted state never diverge after a successful return
     (under StrictPersistence; the default policy logs divergence instead)

BALANCE MODEL:
  MainBalance = sum(inflows) - sum(outflows) + sum(uncleared debts)

  Uncleared debt is money owed TO the user and counts as available
  liquidity. That is deliberate policy, not a bug; do not "fix" it.

CONCURRENCY:
  A single mutex serializes every operation. The balance check, the id
  allocation, the in-memory mutation, and the persistence call form one
  critical section, so check-then-act never interleaves with another
  mutator. Single logical writer per storage location is assumed.
*/
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
)

// Config tunes engine behavior. The zero value is the default policy:
// persistence failures are logged and swallowed, matching the historical
// swallow-and-log behavior while keeping the gap visible in logs.
type Config struct {
	// StrictPersistence makes mutating operations return ErrPersistFailed
	// when the store write fails, instead of logging and continuing.
	// The in-memory mutation is kept either way.
	StrictPersistence bool

	// Logger receives persist-failure and no-op diagnostics.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// Engine is the ledger accounting engine. Create one per storage location
// with NewEngine; the collections are loaded once at construction.
type Engine struct {
	mu    sync.Mutex
	store Store
	cfg   Config
	log   *slog.Logger

	cashFlows    []CashFlow
	debts        []Debt
	transactions []Transaction
}

// NewEngine loads the persisted collections and returns a ready engine.
// Missing or corrupt collections come back empty from the store, so the
// only errors here are genuine store failures (e.g. an unreachable
// database), which are fatal for construction.
func NewEngine(ctx context.Context, store Store, cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	flows, err := store.LoadCashFlows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cashflows: %w", err)
	}
	debts, err := store.LoadDebts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load debts: %w", err)
	}
	txs, err := store.LoadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	return &Engine{
		store:        store,
		cfg:          cfg,
		log:          cfg.Logger,
		cashFlows:    flows,
		debts:        debts,
		transactions: txs,
	}, nil
}

// =============================================================================
// DERIVED BALANCES
// =============================================================================

// MainBalance recomputes the balance from the full record set:
// inflows - outflows + uncleared debts. Never cached.
func (e *Engine) MainBalance() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mainBalanceLocked()
}

// TotalDebt returns the sum of all uncleared debt amounts across users.
func (e *Engine) TotalDebt() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalDebtLocked()
}

func (e *Engine) mainBalanceLocked() decimal.Decimal {
	balance := decimal.Zero
	for _, cf := range e.cashFlows {
		if cf.IsInflow {
			balance = balance.Add(cf.Amount)
		} else {
			balance = balance.Sub(cf.Amount)
		}
	}
	return balance.Add(e.totalDebtLocked())
}

func (e *Engine) totalDebtLocked() decimal.Decimal {
	total := decimal.Zero
	for _, d := range e.debts {
		if !d.IsCleared {
			total = total.Add(d.Amount)
		}
	}
	return total
}

// =============================================================================
// READ VIEWS
// =============================================================================

// CashInflows returns a copy of all cash flows with IsInflow set.
func (e *Engine) CashInflows() []CashFlow { return e.cashFlowView(true) }

// CashOutflows returns a copy of all cash flows with IsInflow unset.
func (e *Engine) CashOutflows() []CashFlow { return e.cashFlowView(false) }

func (e *Engine) cashFlowView(inflow bool) []CashFlow {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]CashFlow, 0, len(e.cashFlows))
	for _, cf := range e.cashFlows {
		if cf.IsInflow == inflow {
			out = append(out, cf)
		}
	}
	return out
}

// Debts returns a copy of all debt records, cleared and uncleared.
func (e *Engine) Debts() []Debt {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Debt, len(e.debts))
	copy(out, e.debts)
	return out
}

// Transactions returns a copy of all transaction records.
func (e *Engine) Transactions() []Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Transaction, len(e.transactions))
	copy(out, e.transactions)
	return out
}

// =============================================================================
// CASH FLOW OPERATIONS
// =============================================================================

// AddCashInflow assigns an id, forces IsInflow, appends, and persists.
// No validation beyond id assignment. Returns the stored record.
func (e *Engine) AddCashInflow(ctx context.Context, cf CashFlow) (CashFlow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cf.ID = NextID(e.cashFlows)
	cf.IsInflow = true
	e.cashFlows = append(e.cashFlows, cf)
	return cf, e.persist(ctx, "save cashflows", e.store.SaveCashFlows(ctx, e.cashFlows))
}

// AddCashOutflow checks the main balance BEFORE adding. If the balance is
// less than the amount, it returns an *InsufficientBalanceError and mutates
// nothing. Otherwise it assigns an id, forces IsInflow=false, appends, and
// persists.
func (e *Engine) AddCashOutflow(ctx context.Context, cf CashFlow) (CashFlow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	balance := e.mainBalanceLocked()
	if balance.LessThan(cf.Amount) {
		return CashFlow{}, &InsufficientBalanceError{Available: balance, Requested: cf.Amount}
	}

	cf.ID = NextID(e.cashFlows)
	cf.IsInflow = false
	e.cashFlows = append(e.cashFlows, cf)
	return cf, e.persist(ctx, "save cashflows", e.store.SaveCashFlows(ctx, e.cashFlows))
}

// UpdateCashFlow overwrites the mutable fields of the record matching
// updated.ID. UserID is ownership and stays as stored. A missing id is a
// silent no-op.
func (e *Engine) UpdateCashFlow(ctx context.Context, updated CashFlow) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.cashFlows {
		if e.cashFlows[i].ID != updated.ID {
			continue
		}
		e.cashFlows[i].Amount = updated.Amount
		e.cashFlows[i].Date = updated.Date
		e.cashFlows[i].Category = updated.Category
		e.cashFlows[i].Description = updated.Description
		e.cashFlows[i].IsInflow = updated.IsInflow
		return e.persist(ctx, "save cashflows", e.store.SaveCashFlows(ctx, e.cashFlows))
	}
	return nil
}

// DeleteCashFlow removes the record with the given id. Missing id is a
// silent no-op.
func (e *Engine) DeleteCashFlow(ctx context.Context, id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.cashFlows {
		if e.cashFlows[i].ID == id {
			e.cashFlows = append(e.cashFlows[:i], e.cashFlows[i+1:]...)
			return e.persist(ctx, "save cashflows", e.store.SaveCashFlows(ctx, e.cashFlows))
		}
	}
	return nil
}

// =============================================================================
// DEBT OPERATIONS
// =============================================================================

// AddDebt assigns an id, appends, and persists. No validation.
func (e *Engine) AddDebt(ctx context.Context, d Debt) (Debt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d.ID = NextID(e.debts)
	e.debts = append(e.debts, d)
	return d, e.persist(ctx, "save debts", e.store.SaveDebts(ctx, e.debts))
}

// ClearDebt marks every uncleared debt of userID as cleared, provided the
// main balance covers the total outstanding debt. Both balance and total
// debt are computed across ALL users, not just userID; only the clearing is
// scoped to the user. That asymmetry matches the observed behavior and is
// kept on purpose.
//
// On a shortfall it returns a *DebtClearError and mutates nothing.
func (e *Engine) ClearDebt(ctx context.Context, userID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	balance := e.mainBalanceLocked()
	totalDebt := e.totalDebtLocked()
	if balance.LessThan(totalDebt) {
		return &DebtClearError{Balance: balance, TotalDebt: totalDebt}
	}

	for i := range e.debts {
		if e.debts[i].UserID == userID {
			e.debts[i].IsCleared = true
		}
	}
	return e.persist(ctx, "save debts", e.store.SaveDebts(ctx, e.debts))
}

// ClearDebtByID clears one debt by id. Idempotent: a missing id or an
// already-cleared debt is a logged no-op, leaving memory and store
// untouched.
func (e *Engine) ClearDebtByID(ctx context.Context, debtID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.debts {
		if e.debts[i].ID != debtID {
			continue
		}
		if e.debts[i].IsCleared {
			e.log.Info("debt already cleared", "debt_id", debtID)
			return nil
		}
		e.debts[i].IsCleared = true
		return e.persist(ctx, "save debts", e.store.SaveDebts(ctx, e.debts))
	}
	e.log.Info("debt not found", "debt_id", debtID)
	return nil
}

// UpdateDebt overwrites the mutable fields of the record matching
// updated.ID. Setting IsCleared=false here is the only way to un-clear a
// debt. Missing id is a silent no-op.
func (e *Engine) UpdateDebt(ctx context.Context, updated Debt) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.debts {
		if e.debts[i].ID != updated.ID {
			continue
		}
		e.debts[i].Amount = updated.Amount
		e.debts[i].PaidAmount = updated.PaidAmount
		e.debts[i].Date = updated.Date
		e.debts[i].Description = updated.Description
		e.debts[i].IsCleared = updated.IsCleared
		return e.persist(ctx, "save debts", e.store.SaveDebts(ctx, e.debts))
	}
	return nil
}

// DeleteDebt removes the record with the given id. Missing id is a silent
// no-op.
func (e *Engine) DeleteDebt(ctx context.Context, id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.debts {
		if e.debts[i].ID == id {
			e.debts = append(e.debts[:i], e.debts[i+1:]...)
			return e.persist(ctx, "save debts", e.store.SaveDebts(ctx, e.debts))
		}
	}
	return nil
}

// =============================================================================
// TRANSACTION OPERATIONS (pure CRUD, no balance effect)
// =============================================================================

// AddTransaction assigns an id, appends, and persists.
func (e *Engine) AddTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx.ID = NextID(e.transactions)
	e.transactions = append(e.transactions, tx)
	return tx, e.persist(ctx, "save transactions", e.store.SaveTransactions(ctx, e.transactions))
}

// UpdateTransaction overwrites the mutable fields of the record matching
// updated.ID. Missing id is a silent no-op.
func (e *Engine) UpdateTransaction(ctx context.Context, updated Transaction) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.transactions {
		if e.transactions[i].ID != updated.ID {
			continue
		}
		e.transactions[i].Amount = updated.Amount
		e.transactions[i].Debit = updated.Debit
		e.transactions[i].Credit = updated.Credit
		e.transactions[i].Date = updated.Date
		e.transactions[i].Description = updated.Description
		e.transactions[i].Type = updated.Type
		return e.persist(ctx, "save transactions", e.store.SaveTransactions(ctx, e.transactions))
	}
	return nil
}

// DeleteTransaction removes the record with the given id. Missing id is a
// silent no-op.
func (e *Engine) DeleteTransaction(ctx context.Context, id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.transactions {
		if e.transactions[i].ID == id {
			e.transactions = append(e.transactions[:i], e.transactions[i+1:]...)
			return e.persist(ctx, "save transactions", e.store.SaveTransactions(ctx, e.transactions))
		}
	}
	return nil
}

// =============================================================================
// PERSISTENCE POLICY
// =============================================================================

// persist applies the configured persistence-failure policy to a store
// write result. The in-memory mutation is never rolled back; under the
// default policy the divergence is logged and the operation still reports
// success, under StrictPersistence the caller gets ErrPersistFailed.
func (e *Engine) persist(_ context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	e.log.Error("store write failed; in-memory state diverges until next successful save",
		"op", op, "error", err)
	if e.cfg.StrictPersistence {
		return fmt.Errorf("%s: %w: %s", op, ErrPersistFailed, err)
	}
	return nil
}
