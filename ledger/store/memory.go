// Package store provides Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ledger.Store with RWMutex-guarded slices. Every load
// returns a copy, every save replaces the stored slice with a copy, so
// callers never alias internal state.
type Memory struct {
	mu           sync.RWMutex
	cashFlows    []ledger.CashFlow
	debts        []ledger.Debt
	transactions []ledger.Transaction
	users        []ledger.User
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) LoadCashFlows(_ context.Context) ([]ledger.CashFlow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ledger.CashFlow(nil), m.cashFlows...), nil
}

func (m *Memory) SaveCashFlows(_ context.Context, flows []ledger.CashFlow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cashFlows = append([]ledger.CashFlow(nil), flows...)
	return nil
}

func (m *Memory) LoadDebts(_ context.Context) ([]ledger.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ledger.Debt(nil), m.debts...), nil
}

func (m *Memory) SaveDebts(_ context.Context, debts []ledger.Debt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debts = append([]ledger.Debt(nil), debts...)
	return nil
}

func (m *Memory) LoadTransactions(_ context.Context) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ledger.Transaction(nil), m.transactions...), nil
}

func (m *Memory) SaveTransactions(_ context.Context, txs []ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append([]ledger.Transaction(nil), txs...)
	return nil
}

func (m *Memory) LoadUsers(_ context.Context) ([]ledger.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ledger.User(nil), m.users...), nil
}

func (m *Memory) SaveUsers(_ context.Context, users []ledger.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append([]ledger.User(nil), users...)
	return nil
}

func (m *Memory) Close() error { return nil }

// =============================================================================
// FAILING STORE - Wraps Memory, fails writes on demand (for testing)
// =============================================================================

// Flaky wraps a Memory store and fails every save while FailWrites is set.
// Used to exercise the engine's persistence-failure policy.
type Flaky struct {
	*Memory
	mu         sync.Mutex
	failWrites bool
	WriteErr   error
}

func NewFlaky(inner *Memory, writeErr error) *Flaky {
	return &Flaky{Memory: inner, WriteErr: writeErr}
}

// SetFailWrites toggles write failures.
func (f *Flaky) SetFailWrites(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = fail
}

func (f *Flaky) failing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failWrites
}

func (f *Flaky) SaveCashFlows(ctx context.Context, flows []ledger.CashFlow) error {
	if f.failing() {
		return f.WriteErr
	}
	return f.Memory.SaveCashFlows(ctx, flows)
}

func (f *Flaky) SaveDebts(ctx context.Context, debts []ledger.Debt) error {
	if f.failing() {
		return f.WriteErr
	}
	return f.Memory.SaveDebts(ctx, debts)
}

func (f *Flaky) SaveTransactions(ctx context.Context, txs []ledger.Transaction) error {
	if f.failing() {
		return f.WriteErr
	}
	return f.Memory.SaveTransactions(ctx, txs)
}

func (f *Flaky) SaveUsers(ctx context.Context, users []ledger.User) error {
	if f.failing() {
		return f.WriteErr
	}
	return f.Memory.SaveUsers(ctx, users)
}
