package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"dashboard-backend/internal/models"
)

var testUsers = map[string]string{
	"student1": "1234",
	"laxit":    "pass123",
	"1":        "1",
}

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	store, err := newCredentialStore(testUsers, bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(store, zap.NewNop())
}

func TestAuthService_Login_AcceptsEveryMatchingPair(t *testing.T) {
	svc := newTestAuthService(t)

	for username, password := range testUsers {
		err := svc.Login(context.Background(), models.LoginRequest{Username: username, Password: password})
		assert.NoError(t, err, username)
	}
}

func TestAuthService_Login_RejectsWithIdenticalError(t *testing.T) {
	svc := newTestAuthService(t)

	tests := []struct {
		name string
		req  models.LoginRequest
	}{
		{"wrong password", models.LoginRequest{Username: "laxit", Password: "wrong"}},
		{"unknown user", models.LoginRequest{Username: "nouser", Password: "x"}},
		{"password of another user", models.LoginRequest{Username: "laxit", Password: "1234"}},
		{"empty fields", models.LoginRequest{}},
		{"case differs", models.LoginRequest{Username: "Laxit", Password: "pass123"}},
		{"trailing space", models.LoginRequest{Username: "laxit", Password: "pass123 "}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Login(context.Background(), tc.req)
			require.Error(t, err)

			var unauthorized *UnauthorizedError
			require.ErrorAs(t, err, &unauthorized)
			assert.Equal(t, "Invalid username or password", unauthorized.Message)
		})
	}
}

func TestNewCredentialStore_DoesNotKeepPlaintext(t *testing.T) {
	store, err := newCredentialStore(map[string]string{"laxit": "pass123"}, bcrypt.MinCost)
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	assert.NotEqual(t, "pass123", string(store.hashes["laxit"]))
	assert.True(t, store.Authenticate("laxit", "pass123"))
}

func TestNewCredentialStore_RejectsEmptyUsername(t *testing.T) {
	_, err := newCredentialStore(map[string]string{"": "x"}, bcrypt.MinCost)
	assert.Error(t, err)
}

func TestNewCredentialStore_IgnoresLaterChangesToInput(t *testing.T) {
	users := map[string]string{"laxit": "pass123"}
	store, err := newCredentialStore(users, bcrypt.MinCost)
	require.NoError(t, err)

	users["mallory"] = "evil"
	users["laxit"] = "changed"

	assert.False(t, store.Authenticate("mallory", "evil"))
	assert.True(t, store.Authenticate("laxit", "pass123"))
}

func TestCredentialStore_LongPasswordsCompareInFull(t *testing.T) {
	stored := strings.Repeat("a", 72)
	long := strings.Repeat("b", 80)

	store, err := newCredentialStore(map[string]string{"laxit": stored, "student1": long}, bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, store.Authenticate("laxit", stored))
	assert.False(t, store.Authenticate("laxit", stored+"WRONG-SUFFIX"))
	assert.False(t, store.Authenticate("laxit", stored[:71]))

	assert.True(t, store.Authenticate("student1", long))
	assert.False(t, store.Authenticate("student1", long[:72]))
	assert.False(t, store.Authenticate("nouser", long))
}
