/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Configure structured logging
  3. Open the selected storage backend
  4. Load the ledger engine and credential service
  5. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port           HTTP server port (default: 8080)
  -backend        Storage backend: json, sqlite, or memory (default: json)
  -data           Storage directory for the json backend (default: ./data)
  -db             Database path for the sqlite backend (default: ledger.db)
  -jwt-secret     Token signing secret (or JWT_SECRET env)
  -token-ttl      Session token lifetime (default: 24h)
  -strict-persist Fail mutating operations when the store write fails

EXAMPLES:
  # JSON files under ./data
  ./server -data=./data

  # SQLite backend
  ./server -backend=sqlite -db=./ledger.db

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM the server stops accepting connections, waits up to
  30s for in-flight requests, then closes the store.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/ledger-engine/api"
	"github.com/warp/ledger-engine/auth"
	"github.com/warp/ledger-engine/ledger"
	memstore "github.com/warp/ledger-engine/ledger/store"
	"github.com/warp/ledger-engine/logging"
	"github.com/warp/ledger-engine/store/jsonfile"
	"github.com/warp/ledger-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	backend := flag.String("backend", "json", "storage backend: json, sqlite, or memory")
	dataDir := flag.String("data", "./data", "storage directory for the json backend")
	dbPath := flag.String("db", "ledger.db", "database path for the sqlite backend")
	jwtSecret := flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "token signing secret")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "session token lifetime")
	strictPersist := flag.Bool("strict-persist", false, "fail operations when the store write fails")
	flag.Parse()

	logging.Setup()

	if *jwtSecret == "" {
		slog.Error("a token signing secret is required (-jwt-secret or JWT_SECRET)")
		os.Exit(1)
	}

	store, err := openStore(*backend, *dataDir, *dbPath)
	if err != nil {
		slog.Error("failed to open store", "backend", *backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	engine, err := ledger.NewEngine(ctx, store, ledger.Config{StrictPersistence: *strictPersist})
	if err != nil {
		slog.Error("failed to load ledger", "error", err)
		os.Exit(1)
	}

	authn, err := auth.NewPasswordAuthenticator(ctx, store)
	if err != nil {
		slog.Error("failed to load users", "error", err)
		os.Exit(1)
	}

	tokens := auth.NewJWTManager(*jwtSecret, *tokenTTL)
	handler := api.NewHandler(engine, authn, tokens)
	router := api.NewRouter(handler, tokens)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", server.Addr, "backend", *backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func openStore(backend, dataDir, dbPath string) (ledger.Store, error) {
	switch backend {
	case "json":
		return jsonfile.New(jsonfile.Config{Dir: dataDir}), nil
	case "sqlite":
		return sqlite.New(dbPath, nil)
	case "memory":
		return memstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (expected json, sqlite, or memory)", backend)
	}
}
