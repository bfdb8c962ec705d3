/*
Package jsonfile provides a flat-file implementation of ledger.Store.

PURPOSE:
  Persists each record collection as an indented JSON array in its own file
  under a configurable storage root. The format is field-named and
  human-readable; decimal amounts serialize as quoted strings and dates as
  RFC 3339, so a save/load round trip is lossless.

LAYOUT:
  <dir>/cashflows.json
  <dir>/debts.json
  <dir>/transactions.json
  <dir>/users.json

DEGRADE POLICY:
  A missing file loads as an empty collection. A file that fails to read or
  parse is logged and also loads as empty; the parse error never reaches
  the caller. Saves overwrite the whole file.

ATOMICITY:
  Saves write to a temp file in the same directory and rename it into
  place, so an interrupted write never leaves a half-written collection.
*/
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/warp/ledger-engine/ledger"
)

const (
	cashFlowsFile    = "cashflows.json"
	debtsFile        = "debts.json"
	transactionsFile = "transactions.json"
	usersFile        = "users.json"
)

// Config holds the storage root. Passed in explicitly; there is no
// process-wide default location.
type Config struct {
	// Dir is the directory holding the four collection files. Created on
	// first save if it does not exist.
	Dir string

	// Logger receives corrupt-file diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Store implements ledger.Store on top of JSON files.
type Store struct {
	dir string
	log *slog.Logger
}

// New creates a file store rooted at cfg.Dir. The directory is not
// required to exist yet.
func New(cfg Config) *Store {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Store{dir: cfg.Dir, log: log}
}

func (s *Store) LoadCashFlows(_ context.Context) ([]ledger.CashFlow, error) {
	return loadFile[ledger.CashFlow](s.log, filepath.Join(s.dir, cashFlowsFile))
}

func (s *Store) SaveCashFlows(_ context.Context, flows []ledger.CashFlow) error {
	return saveFile(s.dir, cashFlowsFile, flows)
}

func (s *Store) LoadDebts(_ context.Context) ([]ledger.Debt, error) {
	return loadFile[ledger.Debt](s.log, filepath.Join(s.dir, debtsFile))
}

func (s *Store) SaveDebts(_ context.Context, debts []ledger.Debt) error {
	return saveFile(s.dir, debtsFile, debts)
}

func (s *Store) LoadTransactions(_ context.Context) ([]ledger.Transaction, error) {
	return loadFile[ledger.Transaction](s.log, filepath.Join(s.dir, transactionsFile))
}

func (s *Store) SaveTransactions(_ context.Context, txs []ledger.Transaction) error {
	return saveFile(s.dir, transactionsFile, txs)
}

func (s *Store) LoadUsers(_ context.Context) ([]ledger.User, error) {
	return loadFile[ledger.User](s.log, filepath.Join(s.dir, usersFile))
}

func (s *Store) SaveUsers(_ context.Context, users []ledger.User) error {
	return saveFile(s.dir, usersFile, users)
}

func (s *Store) Close() error { return nil }

// loadFile reads one collection file. Absence means an empty collection;
// unreadable or unparsable content is logged and degrades to empty.
func loadFile[T any](log *slog.Logger, path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		log.Warn("failed to read collection file, starting empty", "path", path, "error", err)
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warn("corrupt collection file, starting empty", "path", path, "error", err)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// saveFile writes the full collection, replacing prior content. The write
// goes through a temp file and an atomic rename.
func saveFile[T any](dir, name string, items []T) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
