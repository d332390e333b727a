package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/contactsbook/apiserver/internal/mailer"
	"github.com/contactsbook/apiserver/internal/services"
	"github.com/contactsbook/apiserver/internal/store"
	"github.com/contactsbook/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const minPasswordLength = 6

// AuthHandler provides signup, login, refresh, and email-confirmation
// endpoints.
type AuthHandler struct {
	users    *services.UserService
	auth     *services.AuthService
	notifier mailer.Notifier
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, auth *services.AuthService, notifier mailer.Notifier) *AuthHandler {
	return &AuthHandler{
		users:    users,
		auth:     auth,
		notifier: notifier,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, users *services.UserService, auth *services.AuthService, notifier mailer.Notifier) {
	handler := NewAuthHandler(users, auth, notifier)

	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.Get("/refresh_token", handler.Refresh)
	r.Get("/confirmed_email/{token}", handler.ConfirmEmail)
	r.Post("/request_email", handler.RequestEmail)
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type UserResponse struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Avatar   *string `json:"avatar"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func userResponse(user types.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Avatar:   user.Avatar,
	}
}

// Signup creates a new unconfirmed account and schedules the
// confirmation email.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	if _, err := h.users.GetByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusConflict, "account already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	hashed, err := h.auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user, err := h.users.Create(r.Context(), types.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         types.RoleUser,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "account already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.notifier.SendConfirmation(r.Context(), mailer.Job{
		Email:    user.Email,
		Username: user.Username,
		Host:     requestBaseURL(r),
	})

	writeJSON(w, http.StatusCreated, userResponse(user))
}

// Login verifies credentials and issues an access/refresh token pair.
// The refresh token is persisted as the single currently valid one.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid email")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	// Unconfirmed accounts are rejected before the password check.
	if !user.Confirmed {
		writeError(w, http.StatusUnauthorized, "email not confirmed")
		return
	}
	if !h.auth.VerifyPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	h.issueTokenPair(w, r, user)
}

// Refresh rotates the token pair. The presented refresh token must
// match the stored one exactly; any mismatch clears the stored token so
// a replayed credential cannot be retried.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	email, err := h.auth.DecodeRefreshToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	if user.RefreshToken == nil || *user.RefreshToken != token {
		_ = h.users.UpdateRefreshToken(r.Context(), user.ID, nil)
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	h.issueTokenPair(w, r, user)
}

// ConfirmEmail consumes the emailed confirmation token and marks the
// account confirmed. Idempotent for already-confirmed accounts.
func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	email, err := h.auth.DecodeConfirmationToken(token)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid token for email verification")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusBadRequest, "verification error")
		return
	}
	if user.Confirmed {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "your email is already confirmed"})
		return
	}

	if err := h.users.ConfirmEmail(r.Context(), email); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to confirm email")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "email confirmed"})
}

type RequestEmailBody struct {
	Email string `json:"email"`
}

// RequestEmail re-sends the confirmation email for an unconfirmed
// account.
func (h *AuthHandler) RequestEmail(w http.ResponseWriter, r *http.Request) {
	var req RequestEmailBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "missing email")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user.Confirmed {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "your email is already confirmed"})
		return
	}

	h.notifier.SendConfirmation(r.Context(), mailer.Job{
		Email:    user.Email,
		Username: user.Username,
		Host:     requestBaseURL(r),
	})
	writeJSON(w, http.StatusOK, MessageResponse{Message: "check your email for confirmation"})
}

func (h *AuthHandler) issueTokenPair(w http.ResponseWriter, r *http.Request, user types.User) {
	accessToken, err := h.auth.IssueAccessToken(user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	refreshToken, err := h.auth.IssueRefreshToken(user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	if err := h.users.UpdateRefreshToken(r.Context(), user.ID, &refreshToken); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	})
}
