/*
Package sqlite provides a SQLite-backed implementation of ledger.Store.

PURPOSE:
  Same contract as the JSON file store, on an embedded database. Useful
  when the ledger outgrows flat files but should still live in one local
  file. Only minor SQL dialect changes separate this from PostgreSQL.

FULL-OVERWRITE SEMANTICS:
  The Store contract is whole-collection save, not an append log. Each
  Save runs one transaction that deletes the table's rows and re-inserts
  the collection, so the stored state always equals the last saved slice.

ENCODING:
  Amounts are stored as decimal strings (never REAL), dates as RFC 3339
  text. Both round-trip exactly.

DEGRADE POLICY:
  A row that fails to scan or parse is logged and the load degrades to an
  empty collection, matching the corrupt-file policy of the other stores.

WAL MODE:
  The database is opened with WAL for better crash recovery. Use
  ":memory:" as the path for tests.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
)

// Store implements ledger.Store using SQLite.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, log: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cashflows (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		is_inflow INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS debts (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		is_cleared INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		amount TEXT NOT NULL,
		debit TEXT NOT NULL,
		credit TEXT NOT NULL,
		date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tx_type TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cashflows_user ON cashflows(user_id);
	CREATE INDEX IF NOT EXISTS idx_debts_user ON debts(user_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CASH FLOWS
// =============================================================================

func (s *Store) LoadCashFlows(ctx context.Context) ([]ledger.CashFlow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, amount, date, category, description, is_inflow
		 FROM cashflows ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cashflows: %w", err)
	}
	defer rows.Close()

	flows := []ledger.CashFlow{}
	for rows.Next() {
		var (
			cf           ledger.CashFlow
			amount, date string
		)
		if err := rows.Scan(&cf.ID, &cf.UserID, &amount, &date, &cf.Category, &cf.Description, &cf.IsInflow); err != nil {
			s.log.Warn("corrupt cashflow row, starting empty", "error", err)
			return []ledger.CashFlow{}, nil
		}
		if cf.Amount, cf.Date, err = parseAmountDate(amount, date); err != nil {
			s.log.Warn("corrupt cashflow row, starting empty", "error", err)
			return []ledger.CashFlow{}, nil
		}
		flows = append(flows, cf)
	}
	return flows, rows.Err()
}

func (s *Store) SaveCashFlows(ctx context.Context, flows []ledger.CashFlow) error {
	return s.replaceAll(ctx, "cashflows",
		`INSERT INTO cashflows (id, user_id, amount, date, category, description, is_inflow)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(flows), func(i int) []any {
			cf := flows[i]
			return []any{cf.ID, cf.UserID, cf.Amount.String(), cf.Date.Format(time.RFC3339Nano),
				cf.Category, cf.Description, cf.IsInflow}
		})
}

// =============================================================================
// DEBTS
// =============================================================================

func (s *Store) LoadDebts(ctx context.Context) ([]ledger.Debt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, amount, paid_amount, date, description, is_cleared
		 FROM debts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query debts: %w", err)
	}
	defer rows.Close()

	debts := []ledger.Debt{}
	for rows.Next() {
		var (
			d                  ledger.Debt
			amount, paid, date string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &amount, &paid, &date, &d.Description, &d.IsCleared); err != nil {
			s.log.Warn("corrupt debt row, starting empty", "error", err)
			return []ledger.Debt{}, nil
		}
		if d.Amount, d.Date, err = parseAmountDate(amount, date); err != nil {
			s.log.Warn("corrupt debt row, starting empty", "error", err)
			return []ledger.Debt{}, nil
		}
		if d.PaidAmount, err = decimal.NewFromString(paid); err != nil {
			s.log.Warn("corrupt debt row, starting empty", "error", err)
			return []ledger.Debt{}, nil
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

func (s *Store) SaveDebts(ctx context.Context, debts []ledger.Debt) error {
	return s.replaceAll(ctx, "debts",
		`INSERT INTO debts (id, user_id, amount, paid_amount, date, description, is_cleared)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(debts), func(i int) []any {
			d := debts[i]
			return []any{d.ID, d.UserID, d.Amount.String(), d.PaidAmount.String(),
				d.Date.Format(time.RFC3339Nano), d.Description, d.IsCleared}
		})
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (s *Store) LoadTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, amount, debit, credit, date, description, tx_type
		 FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []ledger.Transaction{}
	for rows.Next() {
		var (
			tx                          ledger.Transaction
			amount, debit, credit, date string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &amount, &debit, &credit, &date, &tx.Description, &tx.Type); err != nil {
			s.log.Warn("corrupt transaction row, starting empty", "error", err)
			return []ledger.Transaction{}, nil
		}
		if tx.Amount, tx.Date, err = parseAmountDate(amount, date); err != nil {
			s.log.Warn("corrupt transaction row, starting empty", "error", err)
			return []ledger.Transaction{}, nil
		}
		if tx.Debit, err = decimal.NewFromString(debit); err != nil {
			s.log.Warn("corrupt transaction row, starting empty", "error", err)
			return []ledger.Transaction{}, nil
		}
		if tx.Credit, err = decimal.NewFromString(credit); err != nil {
			s.log.Warn("corrupt transaction row, starting empty", "error", err)
			return []ledger.Transaction{}, nil
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *Store) SaveTransactions(ctx context.Context, txs []ledger.Transaction) error {
	return s.replaceAll(ctx, "transactions",
		`INSERT INTO transactions (id, user_id, amount, debit, credit, date, description, tx_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(txs), func(i int) []any {
			tx := txs[i]
			return []any{tx.ID, tx.UserID, tx.Amount.String(), tx.Debit.String(), tx.Credit.String(),
				tx.Date.Format(time.RFC3339Nano), tx.Description, tx.Type}
		})
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) LoadUsers(ctx context.Context) ([]ledger.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []ledger.User{}
	for rows.Next() {
		var (
			u       ledger.User
			created string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created); err != nil {
			s.log.Warn("corrupt user row, starting empty", "error", err)
			return []ledger.User{}, nil
		}
		if u.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			s.log.Warn("corrupt user row, starting empty", "error", err)
			return []ledger.User{}, nil
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) SaveUsers(ctx context.Context, users []ledger.User) error {
	return s.replaceAll(ctx, "users",
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		len(users), func(i int) []any {
			u := users[i]
			return []any{u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt.Format(time.RFC3339Nano)}
		})
}

// =============================================================================
// HELPERS
// =============================================================================

// replaceAll implements whole-collection save: one transaction deletes the
// table's rows and re-inserts every record, so a failed save leaves the
// prior state intact.
func (s *Store) replaceAll(ctx context.Context, table, insert string, n int, args func(int) []any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func parseAmountDate(amount, date string) (decimal.Decimal, time.Time, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	t, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return d, t, nil
}
