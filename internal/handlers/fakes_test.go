package handlers

import (
	"context"
	"strings"
	"sync"

	"github.com/contactsbook/apiserver/internal/cache"
	"github.com/contactsbook/apiserver/internal/mailer"
	"github.com/contactsbook/apiserver/internal/store"
	"github.com/contactsbook/apiserver/types"
)

// memUserRepo is an in-memory services.UserRepository.
type memUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: make(map[string]types.User)}
}

func (r *memUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return types.User{}, store.ErrConflict
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.Email] = user
	return user, nil
}

func (r *memUserRepo) UpdateRefreshToken(ctx context.Context, id int, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, user := range r.users {
		if user.ID == id {
			user.RefreshToken = token
			r.users[email] = user
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *memUserRepo) ConfirmEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return store.ErrNotFound
	}
	user.Confirmed = true
	r.users[email] = user
	return nil
}

func (r *memUserRepo) UpdateAvatar(ctx context.Context, email string, avatarURL string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.Avatar = &avatarURL
	r.users[email] = user
	return user, nil
}

// setConfirmed flips the confirmation flag directly, standing in for
// the emailed confirmation link.
func (r *memUserRepo) setConfirmed(email string, confirmed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := r.users[email]
	user.Confirmed = confirmed
	r.users[email] = user
}

func (r *memUserRepo) setRole(email string, role types.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := r.users[email]
	user.Role = role
	r.users[email] = user
}

func (r *memUserRepo) storedRefreshToken(email string) *string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[email].RefreshToken
}

// memContactRepo is an in-memory services.ContactRepository.
type memContactRepo struct {
	mu       sync.Mutex
	nextID   int
	contacts map[int]types.Contact
}

func newMemContactRepo() *memContactRepo {
	return &memContactRepo{nextID: 1, contacts: make(map[int]types.Contact)}
}

func (r *memContactRepo) GetByID(ctx context.Context, ownerID, id int) (types.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contact, ok := r.contacts[id]
	if !ok || contact.OwnerID != ownerID {
		return types.Contact{}, store.ErrNotFound
	}
	return contact, nil
}

func (r *memContactRepo) GetByEmail(ctx context.Context, ownerID int, email string) (types.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, contact := range r.contacts {
		if contact.OwnerID == ownerID && contact.Email == email {
			return contact, nil
		}
	}
	return types.Contact{}, store.ErrNotFound
}

func (r *memContactRepo) List(ctx context.Context, ownerID, offset, limit int) ([]types.Contact, error) {
	all, _ := r.ListByOwner(ctx, ownerID)
	if offset >= len(all) {
		return []types.Contact{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memContactRepo) ListByOwner(ctx context.Context, ownerID int) ([]types.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owned := make([]types.Contact, 0)
	for id := 1; id < r.nextID; id++ {
		if contact, ok := r.contacts[id]; ok && contact.OwnerID == ownerID {
			owned = append(owned, contact)
		}
	}
	return owned, nil
}

func (r *memContactRepo) Search(ctx context.Context, ownerID int, query string) ([]types.Contact, error) {
	all, _ := r.ListByOwner(ctx, ownerID)
	query = strings.ToLower(query)
	matched := make([]types.Contact, 0)
	for _, contact := range all {
		haystack := strings.ToLower(contact.FirstName + " " + contact.LastName + " " + contact.Email)
		if strings.Contains(haystack, query) {
			matched = append(matched, contact)
		}
	}
	return matched, nil
}

func (r *memContactRepo) ListAll(ctx context.Context, offset, limit int) ([]types.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]types.Contact, 0)
	for id := 1; id < r.nextID; id++ {
		if contact, ok := r.contacts[id]; ok {
			all = append(all, contact)
		}
	}
	if offset >= len(all) {
		return []types.Contact{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memContactRepo) Create(ctx context.Context, contact types.Contact) (types.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.contacts {
		if existing.Email == contact.Email || existing.Phone == contact.Phone {
			return types.Contact{}, store.ErrConflict
		}
	}
	contact.ID = r.nextID
	r.nextID++
	r.contacts[contact.ID] = contact
	return contact, nil
}

func (r *memContactRepo) Update(ctx context.Context, contact types.Contact) (types.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.contacts[contact.ID]
	if !ok || existing.OwnerID != contact.OwnerID {
		return types.Contact{}, store.ErrNotFound
	}
	r.contacts[contact.ID] = contact
	return contact, nil
}

func (r *memContactRepo) UpdateField(ctx context.Context, ownerID, id int, field, value string) (types.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contact, ok := r.contacts[id]
	if !ok || contact.OwnerID != ownerID {
		return types.Contact{}, store.ErrNotFound
	}
	switch field {
	case "first_name":
		contact.FirstName = value
	case "last_name":
		contact.LastName = value
	case "email":
		contact.Email = value
	case "phone":
		contact.Phone = value
	case "info":
		contact.Info = &value
	default:
		return types.Contact{}, store.ErrNotFound
	}
	r.contacts[id] = contact
	return contact, nil
}

func (r *memContactRepo) Delete(ctx context.Context, ownerID, id int) (types.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contact, ok := r.contacts[id]
	if !ok || contact.OwnerID != ownerID {
		return types.Contact{}, store.ErrNotFound
	}
	delete(r.contacts, id)
	return contact, nil
}

// memSessionCache is an in-memory services.SessionCache. TTL expiry is
// not modeled; entries live until overwritten.
type memSessionCache struct {
	mu    sync.Mutex
	users map[string]types.User
}

func newMemSessionCache() *memSessionCache {
	return &memSessionCache{users: make(map[string]types.User)}
}

func (c *memSessionCache) Get(ctx context.Context, email string) (types.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	user, ok := c.users[email]
	if !ok {
		return types.User{}, cache.ErrCacheMiss
	}
	return user, nil
}

func (c *memSessionCache) Set(ctx context.Context, user types.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[user.Email] = user
	return nil
}

// recordingNotifier records scheduled confirmation emails.
type recordingNotifier struct {
	mu   sync.Mutex
	jobs []mailer.Job
}

func (n *recordingNotifier) SendConfirmation(ctx context.Context, job mailer.Job) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobs = append(n.jobs, job)
}

func (n *recordingNotifier) sent() []mailer.Job {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]mailer.Job(nil), n.jobs...)
}
