package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {Username: "admin", Password: "admin123", Active: true, CreatedAt: time.Now().UTC()},
		},
	}

	manager := NewAuthManager("test-secret", time.Hour, store)
	_, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NotEqual(t, "admin123", users[0].Password)
	assert.True(t, strings.HasPrefix(users[0].Password, "$2"))
	assert.Positive(t, store.updates)
}

func TestLoginRejectsInactiveAndUnknownUsers(t *testing.T) {
	hash := mustHashPassword(t, "secret-pass")
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"owner": {Username: "owner", Password: hash, Active: false},
		},
	}
	manager := NewAuthManager("test-secret", time.Hour, store)

	_, err := manager.Login(context.Background(), domain.LoginRequest{Username: "owner", Password: "secret-pass"})
	assert.EqualError(t, err, "account is inactive")

	_, err = manager.Login(context.Background(), domain.LoginRequest{Username: "ghost", Password: "secret-pass"})
	assert.EqualError(t, err, "invalid credentials")
}

func TestTokenRoundTrip(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {Username: "admin", Password: mustHashPassword(t, "pw-123456"), Active: true},
		},
	}
	manager := NewAuthManager("test-secret", time.Hour, store)

	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: " Admin ", Password: "pw-123456"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)

	actor, err := manager.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", actor.Username)

	other := NewAuthManager("another-secret", time.Hour, store)
	_, err = other.ParseToken(resp.AccessToken)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpiredToken(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, nil)
	expired, err := manager.sign("admin", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = manager.ParseToken(expired)
	assert.Error(t, err)
}

func TestParseTokenRejectsForeignIssuer(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, nil)
	claims := jwtlib.RegisteredClaims{
		Subject:   "admin",
		Issuer:    "someone-else",
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = manager.ParseToken(token)
	assert.Error(t, err)
}

func TestEnsureAdminOnlyOnEmptyStore(t *testing.T) {
	store := &userStoreStub{}
	manager := NewAuthManager("test-secret", time.Hour, store)

	created, err := manager.EnsureAdmin(context.Background(), "Owner", "first-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = manager.EnsureAdmin(context.Background(), "second", "other-pass")
	require.NoError(t, err)
	assert.False(t, created)

	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "owner", users[0].Username)
	assert.True(t, strings.HasPrefix(users[0].Password, "$2"))

	_, err = manager.Login(context.Background(), domain.LoginRequest{Username: "owner", Password: "first-pass"})
	assert.NoError(t, err)
}
