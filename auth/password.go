package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/warp/ledger-engine/ledger"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
)

// PasswordAuthenticator implements password-based authentication using
// bcrypt. Like the ledger engine, it holds the user collection in memory,
// loaded once at construction, and mirrors every mutation to the store.
type PasswordAuthenticator struct {
	mu    sync.Mutex
	store UserStore
	users []ledger.User
}

// NewPasswordAuthenticator loads the persisted users and returns a ready
// authenticator.
func NewPasswordAuthenticator(ctx context.Context, store UserStore) (*PasswordAuthenticator, error) {
	users, err := store.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return &PasswordAuthenticator{store: store, users: users}, nil
}

// ValidatePassword checks the minimum password requirement.
func (a *PasswordAuthenticator) ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new user account with a hashed password. Emails are
// compared case-insensitively.
func (a *PasswordAuthenticator) Register(ctx context.Context, name, email, password string) (ledger.User, error) {
	if err := a.ValidatePassword(password); err != nil {
		return ledger.User{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, u := range a.users {
		if strings.EqualFold(u.Email, email) {
			return ledger.User{}, ErrEmailExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return ledger.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := ledger.User{
		ID:           ledger.NextID(a.users),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	a.users = append(a.users, user)

	if err := a.store.SaveUsers(ctx, a.users); err != nil {
		return ledger.User{}, fmt.Errorf("save users: %w", err)
	}
	return user, nil
}

// Authenticate verifies the email and password, returning the user if
// valid.
func (a *PasswordAuthenticator) Authenticate(_ context.Context, email, password string) (ledger.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, u := range a.users {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return ledger.User{}, ErrInvalidCredentials
		}
		return u, nil
	}
	return ledger.User{}, ErrInvalidCredentials
}

// UserByID looks up a registered user. Used by the API layer to resolve
// token claims back to an account.
func (a *PasswordAuthenticator) UserByID(id int) (ledger.User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, u := range a.users {
		if u.ID == id {
			return u, true
		}
	}
	return ledger.User{}, false
}
