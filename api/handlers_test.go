/*
handlers_test.go - HTTP-level tests for the ledger API

Exercises the full router: auth flow, token enforcement, cash flow and
debt endpoints, and the status-code mapping for validation rejections.
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/api"
	"github.com/warp/ledger-engine/auth"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mem := store.NewMemory()
	ctx := context.Background()

	engine, err := ledger.NewEngine(ctx, mem, ledger.Config{})
	require.NoError(t, err)
	authn, err := auth.NewPasswordAuthenticator(ctx, mem)
	require.NoError(t, err)
	tokens := auth.NewJWTManager("test-secret", time.Hour)

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(engine, authn, tokens), tokens))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func registerAndLogin(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", api.RegisterRequest{
		Name: "Test User", Email: email, Password: "a long password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[api.AuthResponse](t, resp).Token
}

// =============================================================================
// AUTH FLOW
// =============================================================================

func TestAuth_RegisterLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", api.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "a long password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[api.AuthResponse](t, resp)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, 1, created.User.ID)

	// Duplicate email conflicts.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", api.RegisterRequest{
		Name: "Ada Again", Email: "ada@example.com", Password: "a long password",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Login with the right password works.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", api.LoginRequest{
		Email: "ada@example.com", Password: "a long password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decodeBody[api.AuthResponse](t, resp).Token)

	// Wrong password is a 401.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", api.LoginRequest{
		Email: "ada@example.com", Password: "not the password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestLedgerRoutes_RequireToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/balance")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/debts/", "not-a-token", api.DebtRequest{Amount: "1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// LEDGER FLOW
// =============================================================================

func TestCashFlows_BalanceAndOverdraft(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "ada@example.com")

	// Inflow 100.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cashflows/inflows", token, api.CashFlowRequest{
		Amount: "100", Date: "2025-03-10", Category: "salary",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[api.CashFlowDTO](t, resp)
	assert.Equal(t, 1, created.ID)
	assert.True(t, created.IsInflow)
	assert.Equal(t, 1, created.UserID, "user id comes from the token")

	// Overdraft is rejected with 422 and changes nothing.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/cashflows/outflows", token, api.CashFlowRequest{
		Amount: "150", Date: "2025-03-11", Category: "rent",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/balance", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	balance := decodeBody[api.BalanceDTO](t, resp)
	assert.Equal(t, "100", balance.MainBalance)

	// A covered outflow goes through.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/cashflows/outflows", token, api.CashFlowRequest{
		Amount: "40.50", Date: "2025-03-11", Category: "groceries",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/balance", token, nil)
	balance = decodeBody[api.BalanceDTO](t, resp)
	assert.Equal(t, "59.5", balance.MainBalance)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/cashflows/outflows", token, nil)
	outflows := decodeBody[[]api.CashFlowDTO](t, resp)
	require.Len(t, outflows, 1)
	assert.Equal(t, "groceries", outflows[0].Category)
}

func TestDebts_AddClearFlow(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "ada@example.com")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cashflows/inflows", token, api.CashFlowRequest{
		Amount: "100", Date: "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/debts/", token, api.DebtRequest{
		Amount: "20", Date: "2025-03-12", Description: "loan",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	debt := decodeBody[api.DebtDTO](t, resp)
	assert.Equal(t, 1, debt.ID)
	assert.False(t, debt.IsCleared)

	// Balance includes the uncleared debt.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/balance", token, nil)
	balance := decodeBody[api.BalanceDTO](t, resp)
	assert.Equal(t, "120", balance.MainBalance)
	assert.Equal(t, "20", balance.TotalDebt)

	// Clear all of the caller's debts.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/debts/clear", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/balance", token, nil)
	balance = decodeBody[api.BalanceDTO](t, resp)
	assert.Equal(t, "100", balance.MainBalance)
	assert.Equal(t, "0", balance.TotalDebt)

	// Clearing the same debt by id again is an idempotent 200.
	resp = doJSON(t, http.MethodPost, srv.URL+fmt.Sprintf("/api/debts/%d/clear", debt.ID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestTransactions_CRUD(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "ada@example.com")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/transactions/", token, api.TransactionRequest{
		Amount: "10", Debit: "10", Date: "2025-03-10", Description: "misc", Type: "manual",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[api.TransactionDTO](t, resp)

	resp = doJSON(t, http.MethodPut, srv.URL+fmt.Sprintf("/api/transactions/%d", created.ID), token, api.TransactionRequest{
		Amount: "12", Debit: "12", Date: "2025-03-10", Description: "corrected", Type: "manual",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/transactions/", token, nil)
	txs := decodeBody[[]api.TransactionDTO](t, resp)
	require.Len(t, txs, 1)
	assert.Equal(t, "corrected", txs[0].Description)
	assert.Equal(t, "12", txs[0].Amount)

	// Update of an unknown id is a no-op, not an error.
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/transactions/999", token, api.TransactionRequest{
		Amount: "1", Date: "2025-03-10",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, srv.URL+fmt.Sprintf("/api/transactions/%d", created.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/transactions/", token, nil)
	txs = decodeBody[[]api.TransactionDTO](t, resp)
	assert.Empty(t, txs)
}

func TestCreate_InvalidAmount_BadRequest(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "ada@example.com")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cashflows/inflows", token, api.CashFlowRequest{
		Amount: "not-a-number", Date: "2025-03-10",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/cashflows/inflows", token, api.CashFlowRequest{
		Amount: "-5", Date: "2025-03-10",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
