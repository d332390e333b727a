package services

import (
	"context"
	"testing"
	"time"

	"github.com/contactsbook/apiserver/config"
	"github.com/contactsbook/apiserver/internal/cache"
	"github.com/contactsbook/apiserver/internal/store"
	"github.com/contactsbook/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "auth-test-secret"

type stubUserRepo struct {
	users map[string]types.User
	hits  int
}

func (r *stubUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.hits++
	user, ok := r.users[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.users[user.Email] = user
	return user, nil
}

func (r *stubUserRepo) UpdateRefreshToken(ctx context.Context, id int, token *string) error {
	return nil
}

func (r *stubUserRepo) ConfirmEmail(ctx context.Context, email string) error { return nil }

func (r *stubUserRepo) UpdateAvatar(ctx context.Context, email, avatarURL string) (types.User, error) {
	return types.User{}, store.ErrNotFound
}

type stubCache struct {
	users map[string]types.User
}

func (c *stubCache) Get(ctx context.Context, email string) (types.User, error) {
	user, ok := c.users[email]
	if !ok {
		return types.User{}, cache.ErrCacheMiss
	}
	return user, nil
}

func (c *stubCache) Set(ctx context.Context, user types.User) error {
	c.users[user.Email] = user
	return nil
}

func newTestAuthService(t *testing.T, repo *stubUserRepo, sessions *stubCache) *AuthService {
	t.Helper()
	svc, err := NewAuthService(repo, sessions, config.JWTConfig{
		Secret:    testSecret,
		Algorithm: "HS256",
	})
	require.NoError(t, err)
	return svc
}

func TestNewAuthServiceRejectsBadConfig(t *testing.T) {
	_, err := NewAuthService(nil, nil, config.JWTConfig{Algorithm: "HS256"})
	assert.Error(t, err, "empty secret must be rejected")

	_, err = NewAuthService(nil, nil, config.JWTConfig{Secret: "s", Algorithm: "RS256"})
	assert.Error(t, err, "non-HMAC algorithm must be rejected")

	_, err = NewAuthService(nil, nil, config.JWTConfig{Secret: "s", Algorithm: "HS384"})
	assert.NoError(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	svc := newTestAuthService(t, nil, nil)

	hash, err := svc.HashPassword("hunter2!")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2!", hash)
	assert.True(t, svc.VerifyPassword("hunter2!", hash))
	assert.False(t, svc.VerifyPassword("hunter3!", hash))
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(t, nil, nil)

	token, err := svc.IssueRefreshToken("ada@example.com")
	require.NoError(t, err)

	email, err := svc.DecodeRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)
}

func TestDecodeRefreshTokenRejectsOtherScopes(t *testing.T) {
	svc := newTestAuthService(t, nil, nil)

	access, err := svc.IssueAccessToken("ada@example.com")
	require.NoError(t, err)
	_, err = svc.DecodeRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	confirmation, err := svc.IssueConfirmationToken("ada@example.com")
	require.NoError(t, err)
	_, err = svc.DecodeRefreshToken(confirmation)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConfirmationTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(t, nil, nil)

	token, err := svc.IssueConfirmationToken("ada@example.com")
	require.NoError(t, err)

	email, err := svc.DecodeConfirmationToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)

	_, err = svc.DecodeConfirmationToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestAuthenticateRejectsRefreshScope(t *testing.T) {
	repo := &stubUserRepo{users: map[string]types.User{
		"ada@example.com": {ID: 1, Email: "ada@example.com"},
	}}
	svc := newTestAuthService(t, repo, &stubCache{users: map[string]types.User{}})

	refresh, err := svc.IssueRefreshToken("ada@example.com")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	repo := &stubUserRepo{users: map[string]types.User{
		"ada@example.com": {ID: 1, Email: "ada@example.com"},
	}}
	svc := newTestAuthService(t, repo, &stubCache{users: map[string]types.User{}})

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Scope: ScopeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ada@example.com",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	svc := newTestAuthService(t, &stubUserRepo{users: map[string]types.User{}}, &stubCache{users: map[string]types.User{}})

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Scope: ScopeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ada@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := forged.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticatePopulatesCacheOnMiss(t *testing.T) {
	repo := &stubUserRepo{users: map[string]types.User{
		"ada@example.com": {ID: 1, Email: "ada@example.com", Confirmed: true},
	}}
	sessions := &stubCache{users: map[string]types.User{}}
	svc := newTestAuthService(t, repo, sessions)

	token, err := svc.IssueAccessToken("ada@example.com")
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, 1, repo.hits, "miss goes through the store")

	user, err = svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, 1, repo.hits, "hit stays in the cache")
}

func TestAuthenticateUnknownSubject(t *testing.T) {
	repo := &stubUserRepo{users: map[string]types.User{}}
	svc := newTestAuthService(t, repo, &stubCache{users: map[string]types.User{}})

	token, err := svc.IssueAccessToken("ghost@example.com")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
