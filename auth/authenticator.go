// Package auth provides the credential service: registration, password
// verification, and session tokens. The ledger engine never authenticates;
// it only ever receives a user id that this package has already vouched for.
package auth

import (
	"context"

	"github.com/warp/ledger-engine/ledger"
)

// Authenticator is the pluggable credential capability. Implementations
// can back it with passwords, OAuth, or anything else without the API
// layer changing.
type Authenticator interface {
	// Register creates a new account. Returns ErrEmailExists if the email
	// is already registered.
	Register(ctx context.Context, name, email, password string) (ledger.User, error)

	// Authenticate verifies credentials. Returns ErrInvalidCredentials on
	// any mismatch; it does not distinguish unknown email from wrong
	// password.
	Authenticate(ctx context.Context, email, password string) (ledger.User, error)

	// ValidatePassword checks whether a password meets the implementation's
	// minimum requirements.
	ValidatePassword(password string) error
}

// UserStore is the slice of ledger.Store the authenticator needs.
type UserStore interface {
	LoadUsers(ctx context.Context) ([]ledger.User, error)
	SaveUsers(ctx context.Context, users []ledger.User) error
}
