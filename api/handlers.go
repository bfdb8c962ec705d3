/*
handlers.go - HTTP API handlers for the personal ledger

PURPOSE:
  Exposes the ledger engine and the credential service over REST. Handles
  JSON (de)serialization, amount/date parsing, and status-code mapping;
  all accounting rules live in the ledger package.

ENDPOINTS:
  Auth:
    POST   /api/auth/register          Create account, returns token
    POST   /api/auth/login             Authenticate, returns token

  Balance:
    GET    /api/balance                Main balance + total debt

  Cash flows:
    GET    /api/cashflows/inflows      List inflows
    POST   /api/cashflows/inflows      Add inflow
    GET    /api/cashflows/outflows     List outflows
    POST   /api/cashflows/outflows     Add outflow (422 on overdraft)
    PUT    /api/cashflows/{id}         Update
    DELETE /api/cashflows/{id}         Delete

  Debts:
    GET    /api/debts                  List debts
    POST   /api/debts                  Add debt
    POST   /api/debts/clear            Clear caller's debts (422 on shortfall)
    POST   /api/debts/{id}/clear       Clear one debt (idempotent)
    PUT    /api/debts/{id}             Update
    DELETE /api/debts/{id}             Delete

  Transactions:
    GET/POST /api/transactions         List / add
    PUT/DELETE /api/transactions/{id}  Update / delete

ERROR HANDLING:
  - 400: Malformed body, bad amount or date
  - 401: Missing/invalid token
  - 409: Email already registered
  - 422: Validation rejection (insufficient balance)
  - 500: Persistence failure (strict mode), internal errors
  Not-found on update/delete is a 204 no-op, matching engine semantics.
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/auth"
	"github.com/warp/ledger-engine/ledger"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *ledger.Engine
	Auth   auth.Authenticator
	Tokens *auth.JWTManager
}

// NewHandler creates a handler wired to the given engine and credential
// service.
func NewHandler(engine *ledger.Engine, authn auth.Authenticator, tokens *auth.JWTManager) *Handler {
	return &Handler{Engine: engine, Auth: authn, Tokens: tokens}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Register creates a new account and returns a session token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Auth.Register(r.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		writeError(w, http.StatusConflict, "Email already registered", nil)
		return
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "Password too weak", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to register", err)
		return
	}

	h.writeAuthResponse(w, http.StatusCreated, user)
}

// Login authenticates an account and returns a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}

	h.writeAuthResponse(w, http.StatusOK, user)
}

func (h *Handler) writeAuthResponse(w http.ResponseWriter, status int, user ledger.User) {
	token, err := h.Tokens.Generate(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	writeJSON(w, status, AuthResponse{
		Token: token,
		User: UserDTO{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			CreatedAt: user.CreatedAt.Format(time.RFC3339),
		},
	})
}

// =============================================================================
// BALANCE HANDLER
// =============================================================================

// GetBalance returns the derived balances.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BalanceDTO{
		MainBalance: h.Engine.MainBalance().String(),
		TotalDebt:   h.Engine.TotalDebt().String(),
	})
}

// =============================================================================
// CASH FLOW HANDLERS
// =============================================================================

// ListInflows returns all inflow cash flows.
func (h *Handler) ListInflows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toCashFlowDTOs(h.Engine.CashInflows()))
}

// ListOutflows returns all outflow cash flows.
func (h *Handler) ListOutflows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toCashFlowDTOs(h.Engine.CashOutflows()))
}

// CreateInflow adds a cash inflow for the authenticated user.
func (h *Handler) CreateInflow(w http.ResponseWriter, r *http.Request) {
	cf, ok := h.decodeCashFlow(w, r)
	if !ok {
		return
	}

	created, err := h.Engine.AddCashInflow(r.Context(), cf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add inflow", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCashFlowDTO(created))
}

// CreateOutflow adds a cash outflow. Returns 422 when the amount exceeds
// the main balance; nothing is recorded in that case.
func (h *Handler) CreateOutflow(w http.ResponseWriter, r *http.Request) {
	cf, ok := h.decodeCashFlow(w, r)
	if !ok {
		return
	}

	created, err := h.Engine.AddCashOutflow(r.Context(), cf)
	if ledger.IsRejection(err) {
		writeError(w, http.StatusUnprocessableEntity, "Insufficient balance", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add outflow", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCashFlowDTO(created))
}

// UpdateCashFlow overwrites the cash flow with the given id. Unknown ids
// are a no-op.
func (h *Handler) UpdateCashFlow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	cf, ok := h.decodeCashFlow(w, r)
	if !ok {
		return
	}
	cf.ID = id

	if err := h.Engine.UpdateCashFlow(r.Context(), cf); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update cash flow", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCashFlow removes the cash flow with the given id. Unknown ids are
// a no-op.
func (h *Handler) DeleteCashFlow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Engine.DeleteCashFlow(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete cash flow", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeCashFlow(w http.ResponseWriter, r *http.Request) (ledger.CashFlow, bool) {
	var req CashFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return ledger.CashFlow{}, false
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return ledger.CashFlow{}, false
	}
	if amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "Amount must not be negative", nil)
		return ledger.CashFlow{}, false
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use RFC 3339 or YYYY-MM-DD)", err)
		return ledger.CashFlow{}, false
	}

	return ledger.CashFlow{
		UserID:      UserID(r.Context()),
		Amount:      amount,
		Date:        date,
		Category:    req.Category,
		Description: req.Description,
		IsInflow:    req.IsInflow,
	}, true
}

// =============================================================================
// DEBT HANDLERS
// =============================================================================

// ListDebts returns all debts, cleared and uncleared.
func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDebtDTOs(h.Engine.Debts()))
}

// CreateDebt adds a debt for the authenticated user.
func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	d, ok := h.decodeDebt(w, r)
	if !ok {
		return
	}

	created, err := h.Engine.AddDebt(r.Context(), d)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add debt", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDebtDTO(created))
}

// ClearDebts marks every uncleared debt of the caller as cleared, subject
// to the engine's balance check. Returns 422 on shortfall.
func (h *Handler) ClearDebts(w http.ResponseWriter, r *http.Request) {
	err := h.Engine.ClearDebt(r.Context(), UserID(r.Context()))
	if ledger.IsRejection(err) {
		writeError(w, http.StatusUnprocessableEntity, "Insufficient balance to clear debt", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear debts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "debt cleared"})
}

// ClearDebtByID clears one debt by id. Idempotent; unknown or already
// cleared ids return 200 without changing anything.
func (h *Handler) ClearDebtByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Engine.ClearDebtByID(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear debt", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "debt cleared"})
}

// UpdateDebt overwrites the debt with the given id. Unknown ids are a
// no-op.
func (h *Handler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, ok := h.decodeDebt(w, r)
	if !ok {
		return
	}
	d.ID = id

	if err := h.Engine.UpdateDebt(r.Context(), d); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update debt", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDebt removes the debt with the given id. Unknown ids are a no-op.
func (h *Handler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Engine.DeleteDebt(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete debt", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeDebt(w http.ResponseWriter, r *http.Request) (ledger.Debt, bool) {
	var req DebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return ledger.Debt{}, false
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return ledger.Debt{}, false
	}
	paid := decimal.Zero
	if req.PaidAmount != "" {
		if paid, err = decimal.NewFromString(req.PaidAmount); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_amount", err)
			return ledger.Debt{}, false
		}
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use RFC 3339 or YYYY-MM-DD)", err)
		return ledger.Debt{}, false
	}

	return ledger.Debt{
		UserID:      UserID(r.Context()),
		Amount:      amount,
		PaidAmount:  paid,
		Date:        date,
		Description: req.Description,
		IsCleared:   req.IsCleared,
	}, true
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns all free-form transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toTransactionDTOs(h.Engine.Transactions()))
}

// CreateTransaction adds a free-form transaction for the authenticated
// user.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.decodeTransaction(w, r)
	if !ok {
		return
	}

	created, err := h.Engine.AddTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(created))
}

// UpdateTransaction overwrites the transaction with the given id. Unknown
// ids are a no-op.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tx, ok := h.decodeTransaction(w, r)
	if !ok {
		return
	}
	tx.ID = id

	if err := h.Engine.UpdateTransaction(r.Context(), tx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTransaction removes the transaction with the given id. Unknown ids
// are a no-op.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Engine.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeTransaction(w http.ResponseWriter, r *http.Request) (ledger.Transaction, bool) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return ledger.Transaction{}, false
	}

	amount, err := parseOptionalDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return ledger.Transaction{}, false
	}
	debit, err := parseOptionalDecimal(req.Debit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid debit", err)
		return ledger.Transaction{}, false
	}
	credit, err := parseOptionalDecimal(req.Credit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credit", err)
		return ledger.Transaction{}, false
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use RFC 3339 or YYYY-MM-DD)", err)
		return ledger.Transaction{}, false
	}

	return ledger.Transaction{
		UserID:      UserID(r.Context()),
		Amount:      amount,
		Debit:       debit,
		Credit:      credit,
		Date:        date,
		Description: req.Description,
		Type:        req.Type,
	}, true
}

// =============================================================================
// CONVERSIONS & HELPERS
// =============================================================================

func toCashFlowDTO(cf ledger.CashFlow) CashFlowDTO {
	return CashFlowDTO{
		ID:          cf.ID,
		UserID:      cf.UserID,
		Amount:      cf.Amount.String(),
		Date:        cf.Date.Format(time.RFC3339),
		Category:    cf.Category,
		Description: cf.Description,
		IsInflow:    cf.IsInflow,
	}
}

func toCashFlowDTOs(flows []ledger.CashFlow) []CashFlowDTO {
	dtos := make([]CashFlowDTO, len(flows))
	for i, cf := range flows {
		dtos[i] = toCashFlowDTO(cf)
	}
	return dtos
}

func toDebtDTO(d ledger.Debt) DebtDTO {
	return DebtDTO{
		ID:          d.ID,
		UserID:      d.UserID,
		Amount:      d.Amount.String(),
		PaidAmount:  d.PaidAmount.String(),
		Date:        d.Date.Format(time.RFC3339),
		Description: d.Description,
		IsCleared:   d.IsCleared,
	}
}

func toDebtDTOs(debts []ledger.Debt) []DebtDTO {
	dtos := make([]DebtDTO, len(debts))
	for i, d := range debts {
		dtos[i] = toDebtDTO(d)
	}
	return dtos
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Amount:      tx.Amount.String(),
		Debit:       tx.Debit.String(),
		Credit:      tx.Credit.String(),
		Date:        tx.Date.Format(time.RFC3339),
		Description: tx.Description,
		Type:        tx.Type,
	}
}

func toTransactionDTOs(txs []ledger.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
