/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP contract. These decouple the ledger types
  from the wire format: amounts travel as decimal strings so no precision
  is lost in transit, dates as RFC 3339.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Amount/date parsing happens in handlers; DTOs are pure data carriers.
*/
package api

// ErrorResponse is the JSON shape of every error the API returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// AUTH
// =============================================================================

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserDTO represents an account in API responses. Never carries the hash.
type UserDTO struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// =============================================================================
// BALANCE
// =============================================================================

// BalanceDTO carries the derived balances, recomputed per request.
type BalanceDTO struct {
	MainBalance string `json:"main_balance"`
	TotalDebt   string `json:"total_debt"`
}

// =============================================================================
// CASH FLOWS
// =============================================================================

// CashFlowRequest creates or updates a cash flow. Direction is taken from
// the route (inflow/outflow) on create and from is_inflow on update.
type CashFlowRequest struct {
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	IsInflow    bool   `json:"is_inflow"`
}

// CashFlowDTO represents a cash flow in API responses.
type CashFlowDTO struct {
	ID          int    `json:"id"`
	UserID      int    `json:"user_id"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	IsInflow    bool   `json:"is_inflow"`
}

// =============================================================================
// DEBTS
// =============================================================================

// DebtRequest creates or updates a debt.
type DebtRequest struct {
	Amount      string `json:"amount"`
	PaidAmount  string `json:"paid_amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	IsCleared   bool   `json:"is_cleared"`
}

// DebtDTO represents a debt in API responses.
type DebtDTO struct {
	ID          int    `json:"id"`
	UserID      int    `json:"user_id"`
	Amount      string `json:"amount"`
	PaidAmount  string `json:"paid_amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	IsCleared   bool   `json:"is_cleared"`
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TransactionRequest creates or updates a free-form transaction.
type TransactionRequest struct {
	Amount      string `json:"amount"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// TransactionDTO represents a transaction in API responses.
type TransactionDTO struct {
	ID          int    `json:"id"`
	UserID      int    `json:"user_id"`
	Amount      string `json:"amount"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Type        string `json:"type"`
}
