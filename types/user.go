package types

import "time"

// Role is the authorization level of a user account.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// User represents an account in the system.
// It contains identity, confirmation state, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the display name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. It is globally unique and
	// doubles as the token subject and the session cache key.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses or cache snapshots.
	PasswordHash string `json:"-" db:"password_hash"`

	// Confirmed reports whether the user has followed the email
	// confirmation link. Login is rejected until it is set.
	Confirmed bool `json:"confirmed" db:"confirmed"`

	// Role indicates the user's authorization level within the system.
	Role Role `json:"role" db:"role"`

	// RefreshToken holds the single currently valid refresh token, or
	// nil when none is outstanding. Rotation replaces it; presenting a
	// stale token clears it.
	RefreshToken *string `json:"-" db:"refresh_token"`

	// Avatar is the URL of the user's avatar image, if any.
	Avatar *string `json:"avatar" db:"avatar"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
