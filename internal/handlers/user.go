package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/contactsbook/apiserver/internal/services"
	"github.com/contactsbook/apiserver/internal/storage"
	"github.com/contactsbook/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
)

const (
	maxAvatarBytes = 10 << 20
	avatarPrefix   = "avatars"

	// meRequestLimit throttles the profile endpoint to one request per
	// IP per window.
	meRequestLimit  = 1
	meRequestWindow = 20 * time.Second
)

var allowedAvatarTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// UserHandler provides the current-user profile endpoints.
type UserHandler struct {
	users   *services.UserService
	avatars *storage.Storage
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(users *services.UserService, avatars *storage.Storage) *UserHandler {
	return &UserHandler{
		users:   users,
		avatars: avatars,
	}
}

// UserRouter registers user routes on the given router. All routes
// require authentication.
func UserRouter(r chi.Router, users *services.UserService, avatars *storage.Storage, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(users, avatars)

	r.With(authMiddleware, httprate.LimitByIP(meRequestLimit, meRequestWindow)).Get("/me", handler.Me)
	r.With(authMiddleware).Patch("/avatar", handler.UpdateAvatar)
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// UpdateAvatar accepts a multipart image upload, stores it in object
// storage, and persists the public URL on the user row.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.avatars == nil {
		writeError(w, http.StatusServiceUnavailable, "avatar storage is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := allowedAvatarTypes[ext]
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported image type")
		return
	}

	key := fmt.Sprintf("%s/%s%s", avatarPrefix, uuid.NewString(), ext)
	if err := h.avatars.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	updated, err := h.users.UpdateAvatar(r.Context(), user.Email, h.avatars.PublicURL(key))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update avatar")
		return
	}

	writeJSON(w, http.StatusOK, userResponse(updated))
}
