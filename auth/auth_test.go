package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/ledger-engine/auth"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/ledger/store"
)

func newTestAuthenticator(t *testing.T) (*auth.PasswordAuthenticator, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	a, err := auth.NewPasswordAuthenticator(context.Background(), mem)
	require.NoError(t, err)
	return a, mem
}

// =============================================================================
// REGISTRATION
// =============================================================================

func TestRegister_HashesPasswordAndPersists(t *testing.T) {
	a, mem := newTestAuthenticator(t)
	ctx := context.Background()

	user, err := a.Register(ctx, "Ada", "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse battery")))

	stored, err := mem.LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, user.Email, stored[0].Email)
}

func TestRegister_DuplicateEmail_Rejected(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	ctx := context.Background()

	_, err := a.Register(ctx, "Ada", "ada@example.com", "password-one")
	require.NoError(t, err)

	_, err = a.Register(ctx, "Imposter", "ADA@example.com", "password-two")
	assert.ErrorIs(t, err, auth.ErrEmailExists)
}

func TestRegister_WeakPassword_Rejected(t *testing.T) {
	a, mem := newTestAuthenticator(t)

	_, err := a.Register(context.Background(), "Ada", "ada@example.com", "short")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)

	stored, err := mem.LoadUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRegister_SequentialIDs(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	ctx := context.Background()

	u1, err := a.Register(ctx, "A", "a@example.com", "password-one")
	require.NoError(t, err)
	u2, err := a.Register(ctx, "B", "b@example.com", "password-two")
	require.NoError(t, err)

	assert.Equal(t, 1, u1.ID)
	assert.Equal(t, 2, u2.ID)
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

func TestAuthenticate_ValidCredentials(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	ctx := context.Background()

	registered, err := a.Register(ctx, "Ada", "ada@example.com", "correct horse battery")
	require.NoError(t, err)

	user, err := a.Authenticate(ctx, "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	ctx := context.Background()

	_, err := a.Register(ctx, "Ada", "ada@example.com", "correct horse battery")
	require.NoError(t, err)

	_, err = a.Authenticate(ctx, "ada@example.com", "wrong password!")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticate_UnknownEmail_SameError(t *testing.T) {
	// Unknown email and wrong password are indistinguishable to callers.
	a, _ := newTestAuthenticator(t)

	_, err := a.Authenticate(context.Background(), "nobody@example.com", "whatever-123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticator_SurvivesReload(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	a1, err := auth.NewPasswordAuthenticator(ctx, mem)
	require.NoError(t, err)
	_, err = a1.Register(ctx, "Ada", "ada@example.com", "correct horse battery")
	require.NoError(t, err)

	a2, err := auth.NewPasswordAuthenticator(ctx, mem)
	require.NoError(t, err)
	user, err := a2.Authenticate(ctx, "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
}

// =============================================================================
// TOKENS
// =============================================================================

func TestJWT_RoundTrip(t *testing.T) {
	m := auth.NewJWTManager("test-secret-key", time.Hour)
	user := ledger.User{ID: 7, Email: "ada@example.com"}

	token, err := m.Generate(user)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestJWT_ExpiredToken_Rejected(t *testing.T) {
	m := auth.NewJWTManager("test-secret-key", -time.Minute)
	token, err := m.Generate(ledger.User{ID: 7})
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWT_WrongSecret_Rejected(t *testing.T) {
	issuer := auth.NewJWTManager("secret-a", time.Hour)
	verifier := auth.NewJWTManager("secret-b", time.Hour)

	token, err := issuer.Generate(ledger.User{ID: 7})
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
