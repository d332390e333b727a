package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	tokens := env.signup(t, "ada", "ada@example.com", "secret123")

	rec := env.do(t, http.MethodGet, "/api/users/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	user := decodeBody[UserResponse](t, rec)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestMeRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	tokens := env.signup(t, "ada", "ada@example.com", "secret123")

	rec := env.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A refresh token is not an access token.
	rec = env.do(t, http.MethodGet, "/api/users/me", tokens.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRateLimited(t *testing.T) {
	env := newTestEnv(t)
	tokens := env.signup(t, "ada", "ada@example.com", "secret123")

	rec := env.do(t, http.MethodGet, "/api/users/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/users/me", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestUpdateAvatarWithoutStorage(t *testing.T) {
	env := newTestEnv(t)
	tokens := env.signup(t, "ada", "ada@example.com", "secret123")

	rec := env.do(t, http.MethodPatch, "/api/users/avatar", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
