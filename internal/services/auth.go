package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"dashboard-backend/internal/logger"
	"dashboard-backend/internal/models"
)

const invalidCredentialsMessage = "Invalid username or password"

// CredentialStore is the read-only username table checked by AuthService.
// Passwords are held only as bcrypt hashes of their SHA-256 digest, so every
// byte of the password counts regardless of bcrypt's 72-byte input limit.
type CredentialStore struct {
	hashes    map[string][]byte
	dummyHash []byte
}

// NewCredentialStore hashes every password in users. The map is not retained.
func NewCredentialStore(users map[string]string) (*CredentialStore, error) {
	return newCredentialStore(users, bcrypt.DefaultCost)
}

func newCredentialStore(users map[string]string, cost int) (*CredentialStore, error) {
	hashes := make(map[string][]byte, len(users))
	for name, password := range users {
		if name == "" {
			return nil, fmt.Errorf("credential table contains an empty username")
		}
		hash, err := bcrypt.GenerateFromPassword(passwordDigest(password), cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %q: %w", name, err)
		}
		hashes[name] = hash
	}

	// Compared against on unknown usernames so both failure paths cost the same.
	dummy, err := bcrypt.GenerateFromPassword(passwordDigest("unknown-user-placeholder"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder password: %w", err)
	}

	return &CredentialStore{hashes: hashes, dummyHash: dummy}, nil
}

// Authenticate reports whether username exists and password matches it exactly.
func (s *CredentialStore) Authenticate(username, password string) bool {
	hash, ok := s.hashes[username]
	if !ok {
		bcrypt.CompareHashAndPassword(s.dummyHash, passwordDigest(password))
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, passwordDigest(password)) == nil
}

// passwordDigest is the hex SHA-256 of password: 64 bytes, always under bcrypt's limit.
func passwordDigest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

// Len returns the number of usernames in the table.
func (s *CredentialStore) Len() int {
	return len(s.hashes)
}

type AuthService struct {
	store *CredentialStore
	log   *zap.Logger
}

func NewAuthService(store *CredentialStore, log *zap.Logger) *AuthService {
	return &AuthService{store: store, log: log}
}

// Login succeeds only when the username/password pair is in the table. Every
// failure returns the same UnauthorizedError.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) error {
	if !s.store.Authenticate(req.Username, req.Password) {
		logger.FromContext(ctx, s.log).Info("login rejected", zap.String("username", req.Username))
		return &UnauthorizedError{Message: invalidCredentialsMessage}
	}

	logger.FromContext(ctx, s.log).Info("login accepted", zap.String("username", req.Username))
	return nil
}
