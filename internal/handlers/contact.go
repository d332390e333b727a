package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/contactsbook/apiserver/internal/services"
	"github.com/contactsbook/apiserver/internal/store"
	"github.com/contactsbook/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// ContactHandler provides per-user contact CRUD, search, and the
// upcoming-birthday query. Every operation is scoped to the
// authenticated owner; contacts of other users read as 404.
type ContactHandler struct {
	contacts *services.ContactService
}

// NewContactHandler constructs a handler with the provided service.
func NewContactHandler(contacts *services.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// ContactRouter registers single-contact routes on the given router.
func ContactRouter(r chi.Router, contacts *services.ContactService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewContactHandler(contacts)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateContact)
	r.Get("/{contactID}", handler.GetContact)
	r.Get("/search/{email}", handler.GetContactByEmail)
	r.Put("/{contactID}", handler.UpdateContact)
	r.Patch("/update_name/{contactID}/{value}", handler.patchField("first_name"))
	r.Patch("/update_last_name/{contactID}/{value}", handler.patchField("last_name"))
	r.Patch("/update_email/{contactID}/{value}", handler.patchField("email"))
	r.Patch("/update_phone/{contactID}/{value}", handler.patchField("phone"))
	r.Patch("/update_info/{contactID}/{value}", handler.patchField("info"))
	r.Delete("/{contactID}", handler.DeleteContact)
}

// ContactsRouter registers collection routes on the given router.
func ContactsRouter(r chi.Router, contacts *services.ContactService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewContactHandler(contacts)

	r.Use(authMiddleware)
	r.Get("/", handler.ListContacts)
	r.Get("/birthday_for_week", handler.UpcomingBirthdays)
	r.Get("/search/{query}", handler.SearchContacts)
}

// AllContactsRouter registers the role-gated unscoped listing.
func AllContactsRouter(r chi.Router, contacts *services.ContactService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewContactHandler(contacts)

	r.Use(authMiddleware)
	r.With(RequireRoles(types.RoleAdmin, types.RoleModerator)).Get("/", handler.ListAllContacts)
}

type ContactRequest struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	BirthDate types.Date `json:"birth_date"`
	Info      *string    `json:"info"`
}

func (req *ContactRequest) validate() error {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Phone == "" {
		return errors.New("missing required fields")
	}
	if req.BirthDate.IsZero() {
		return errors.New("birth_date is required")
	}
	return nil
}

func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.contacts.Create(r.Context(), types.Contact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		BirthDate: req.BirthDate,
		Info:      req.Info,
		OwnerID:   user.ID,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "contact email or phone already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create contact")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	contact, err := h.contacts.Get(r.Context(), user.ID, id)
	if err != nil {
		h.writeContactError(w, err, "failed to fetch contact")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) GetContactByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	email := chi.URLParam(r, "email")
	contact, err := h.contacts.GetByEmail(r.Context(), user.ID, email)
	if err != nil {
		h.writeContactError(w, err, "failed to fetch contact")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.contacts.Update(r.Context(), types.Contact{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		BirthDate: req.BirthDate,
		Info:      req.Info,
		OwnerID:   user.ID,
	})
	if err != nil {
		h.writeContactError(w, err, "failed to update contact")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// patchField builds a handler updating exactly one column with the
// scalar path value.
func (h *ContactHandler) patchField(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, id, ok := h.ownerAndID(w, r)
		if !ok {
			return
		}

		value := chi.URLParam(r, "value")
		if strings.TrimSpace(value) == "" {
			writeError(w, http.StatusBadRequest, "missing value")
			return
		}

		updated, err := h.contacts.UpdateField(r.Context(), user.ID, id, field, value)
		if err != nil {
			h.writeContactError(w, err, "failed to update contact")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	deleted, err := h.contacts.Delete(r.Context(), user.ID, id)
	if err != nil {
		h.writeContactError(w, err, "failed to delete contact")
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	skip, limit, err := parseSkipLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contacts, err := h.contacts.List(r.Context(), user.ID, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	contacts, err := h.contacts.UpcomingBirthdays(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) SearchContacts(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	query := chi.URLParam(r, "query")
	contacts, err := h.contacts.Search(r.Context(), user.ID, query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to search contacts")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) ListAllContacts(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := parseSkipLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contacts, err := h.contacts.ListAll(r.Context(), skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// ownerAndID resolves the authenticated user and the contactID path
// parameter, writing the error response itself on failure.
func (h *ContactHandler) ownerAndID(w http.ResponseWriter, r *http.Request) (types.User, int, bool) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.User{}, 0, false
	}

	id, err := strconv.Atoi(chi.URLParam(r, "contactID"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid contact id")
		return types.User{}, 0, false
	}
	return user, id, true
}

func (h *ContactHandler) writeContactError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "contact not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "contact email or phone already exists")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
