package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/contactsbook/apiserver/types"
)

// ContactRepository handles persistence for contacts. Every read and
// mutation except ListAll is scoped to the owning user; a contact owned
// by someone else is indistinguishable from a missing one.
type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

const contactColumns = `id, first_name, last_name, email, phone, birth_date, info, owner_id`

// patchableColumns whitelists the columns reachable through UpdateField.
var patchableColumns = map[string]string{
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"phone":      "phone",
	"info":       "info",
}

func scanContact(row *sql.Row) (types.Contact, error) {
	var contact types.Contact
	err := row.Scan(
		&contact.ID,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.Phone,
		&contact.BirthDate,
		&contact.Info,
		&contact.OwnerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Contact{}, ErrNotFound
		}
		return types.Contact{}, translateError(err)
	}
	return contact, nil
}

func scanContacts(rows *sql.Rows) ([]types.Contact, error) {
	defer rows.Close()

	contacts := make([]types.Contact, 0)
	for rows.Next() {
		var contact types.Contact
		if err := rows.Scan(
			&contact.ID,
			&contact.FirstName,
			&contact.LastName,
			&contact.Email,
			&contact.Phone,
			&contact.BirthDate,
			&contact.Info,
			&contact.OwnerID,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *ContactRepository) GetByID(ctx context.Context, ownerID, id int) (types.Contact, error) {
	const query = `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE id = $1 AND owner_id = $2`
	return scanContact(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *ContactRepository) GetByEmail(ctx context.Context, ownerID int, email string) (types.Contact, error) {
	const query = `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE email = $1 AND owner_id = $2`
	return scanContact(r.db.QueryRowContext(ctx, query, email, ownerID))
}

func (r *ContactRepository) List(ctx context.Context, ownerID, offset, limit int) ([]types.Contact, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 100
	}

	const query = `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE owner_id = $1
		ORDER BY id
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, ownerID, offset, limit)
	if err != nil {
		return nil, err
	}
	return scanContacts(rows)
}

// ListByOwner returns every contact of the owner, unpaginated. Used by
// the upcoming-birthdays computation.
func (r *ContactRepository) ListByOwner(ctx context.Context, ownerID int) ([]types.Contact, error) {
	const query = `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE owner_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return scanContacts(rows)
}

// Search matches the query against first name, last name, and email,
// case-insensitively, scoped to the owner.
func (r *ContactRepository) Search(ctx context.Context, ownerID int, query string) ([]types.Contact, error) {
	const searchQuery = `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE owner_id = $1
		  AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, searchQuery, ownerID, "%"+query+"%")
	if err != nil {
		return nil, err
	}
	return scanContacts(rows)
}

// ListAll returns contacts across all owners. Reserved for the
// role-gated admin route.
func (r *ContactRepository) ListAll(ctx context.Context, offset, limit int) ([]types.Contact, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 100
	}

	const query = `
		SELECT ` + contactColumns + `
		FROM contacts
		ORDER BY id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	return scanContacts(rows)
}

func (r *ContactRepository) Create(ctx context.Context, contact types.Contact) (types.Contact, error) {
	const query = `
		INSERT INTO contacts (first_name, last_name, email, phone, birth_date, info, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.BirthDate,
		contact.Info,
		contact.OwnerID,
	).Scan(&contact.ID); err != nil {
		return types.Contact{}, translateError(err)
	}
	return contact, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact types.Contact) (types.Contact, error) {
	const query = `
		UPDATE contacts
		SET first_name = $1,
			last_name = $2,
			email = $3,
			phone = $4,
			birth_date = $5,
			info = $6
		WHERE id = $7 AND owner_id = $8
		RETURNING ` + contactColumns
	return scanContact(r.db.QueryRowContext(
		ctx,
		query,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.BirthDate,
		contact.Info,
		contact.ID,
		contact.OwnerID,
	))
}

// UpdateField assigns a single scalar value to one whitelisted column
// and returns the updated contact.
func (r *ContactRepository) UpdateField(ctx context.Context, ownerID, id int, field, value string) (types.Contact, error) {
	column, ok := patchableColumns[field]
	if !ok {
		return types.Contact{}, fmt.Errorf("contact field %q is not patchable", field)
	}

	query := `
		UPDATE contacts
		SET ` + column + ` = $1
		WHERE id = $2 AND owner_id = $3
		RETURNING ` + contactColumns
	return scanContact(r.db.QueryRowContext(ctx, query, value, id, ownerID))
}

func (r *ContactRepository) Delete(ctx context.Context, ownerID, id int) (types.Contact, error) {
	const query = `
		DELETE FROM contacts
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + contactColumns
	return scanContact(r.db.QueryRowContext(ctx, query, id, ownerID))
}
