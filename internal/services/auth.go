package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/contactsbook/apiserver/config"
	"github.com/contactsbook/apiserver/internal/cache"
	"github.com/contactsbook/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Token scopes. Confirmation tokens carry no scope at all, which keeps
// them unusable against endpoints that check for one.
const (
	ScopeAccess  = "access_token"
	ScopeRefresh = "refresh_token"
)

const (
	defaultAccessTTL       = 15 * time.Minute
	defaultRefreshTTL      = 7 * 24 * time.Hour
	defaultConfirmationTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken is returned when a token fails signature or expiry
// validation, carries the wrong scope, or resolves to no known user.
var ErrInvalidToken = errors.New("invalid token")

// ErrMalformedToken is returned when an email-confirmation token cannot
// be decoded. Mapped to 422 at the boundary.
var ErrMalformedToken = errors.New("invalid token for email verification")

// Claims is the JWT payload: registered sub/iat/exp plus the scope tag
// distinguishing access, refresh, and confirmation tokens.
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// SessionCache is the read-through cache consulted by Authenticate
// before the credential store.
type SessionCache interface {
	Get(ctx context.Context, email string) (types.User, error)
	Set(ctx context.Context, user types.User) error
}

// AuthService owns all cryptographic identity operations: password
// hashing and the issue/decode lifecycle of scoped JWTs.
type AuthService struct {
	users    UserRepository
	sessions SessionCache

	secret          []byte
	method          jwt.SigningMethod
	accessTTL       time.Duration
	refreshTTL      time.Duration
	confirmationTTL time.Duration
}

// NewAuthService validates the signing configuration and constructs the
// service. Only HMAC algorithms are accepted; the repository and cache
// may be nil for callers that only mint tokens.
func NewAuthService(users UserRepository, sessions SessionCache, cfg config.JWTConfig) (*AuthService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	method := jwt.GetSigningMethod(cfg.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}

	svc := &AuthService{
		users:           users,
		sessions:        sessions,
		secret:          []byte(cfg.Secret),
		method:          method,
		accessTTL:       cfg.AccessTTL,
		refreshTTL:      cfg.RefreshTTL,
		confirmationTTL: cfg.ConfirmationTTL,
	}
	if svc.accessTTL <= 0 {
		svc.accessTTL = defaultAccessTTL
	}
	if svc.refreshTTL <= 0 {
		svc.refreshTTL = defaultRefreshTTL
	}
	if svc.confirmationTTL <= 0 {
		svc.confirmationTTL = defaultConfirmationTTL
	}
	return svc, nil
}

// HashPassword produces a one-way salted bcrypt hash of the plaintext.
func (s *AuthService) HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
func (s *AuthService) VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// IssueAccessToken mints a short-lived access token for the email.
func (s *AuthService) IssueAccessToken(email string) (string, error) {
	return s.issue(email, ScopeAccess, s.accessTTL)
}

// IssueRefreshToken mints a refresh token for the email.
func (s *AuthService) IssueRefreshToken(email string) (string, error) {
	return s.issue(email, ScopeRefresh, s.refreshTTL)
}

// IssueConfirmationToken mints the single-use email-confirmation token.
func (s *AuthService) IssueConfirmationToken(email string) (string, error) {
	return s.issue(email, "", s.confirmationTTL)
}

func (s *AuthService) issue(email, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// The jti keeps tokens minted within the same second
			// distinct, so rotation always produces a new credential.
			ID: uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

// DecodeRefreshToken validates a refresh token and returns its subject
// email. A valid token with the wrong scope is ErrInvalidToken too.
func (s *AuthService) DecodeRefreshToken(token string) (string, error) {
	claims, err := s.decode(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	if claims.Scope != ScopeRefresh {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// DecodeConfirmationToken extracts the subject email from an
// email-confirmation token.
func (s *AuthService) DecodeConfirmationToken(token string) (string, error) {
	claims, err := s.decode(token)
	if err != nil {
		return "", ErrMalformedToken
	}
	return claims.Subject, nil
}

// Authenticate resolves an access token to its user: decode, check
// scope, then look the subject up through the session cache fast path
// or the credential store slow path, populating the cache on miss.
func (s *AuthService) Authenticate(ctx context.Context, token string) (types.User, error) {
	claims, err := s.decode(token)
	if err != nil {
		return types.User{}, ErrInvalidToken
	}
	if claims.Scope != ScopeAccess || claims.Subject == "" {
		return types.User{}, ErrInvalidToken
	}

	email := claims.Subject
	user, err := s.sessions.Get(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		return types.User{}, err
	}

	user, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		return types.User{}, ErrInvalidToken
	}
	// A failed cache write only costs the next request a store lookup.
	_ = s.sessions.Set(ctx, user)
	return user, nil
}

func (s *AuthService) decode(token string) (Claims, error) {
	claims := Claims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}
