package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/contactsbook/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, confirmed, role, refresh_token, avatar, created_at, updated_at`

func scanUser(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Confirmed,
		&user.Role,
		&user.RefreshToken,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = types.RoleUser
	}

	const query = `
		INSERT INTO users (username, email, password_hash, confirmed, role, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Confirmed,
		user.Role,
		user.Avatar,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, translateError(err)
	}
	return user, nil
}

// UpdateRefreshToken replaces the stored refresh token. Passing nil
// clears it, invalidating any outstanding refresh credential.
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id int, token *string) error {
	const query = `
		UPDATE users
		SET refresh_token = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, token, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConfirmEmail marks the account with the given email as confirmed.
func (r *UserRepository) ConfirmEmail(ctx context.Context, email string) error {
	const query = `
		UPDATE users
		SET confirmed = TRUE,
			updated_at = $1
		WHERE email = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), email)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar stores the avatar URL and returns the updated user.
func (r *UserRepository) UpdateAvatar(ctx context.Context, email string, avatarURL string) (types.User, error) {
	const query = `
		UPDATE users
		SET avatar = $1,
			updated_at = $2
		WHERE email = $3
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, avatarURL, time.Now(), email))
}
