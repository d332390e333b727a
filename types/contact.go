package types

// Contact represents a single entry in a user's contact book.
type Contact struct {
	ID        int    `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`

	// Email is unique across all contacts.
	Email string `json:"email" db:"email"`

	// Phone is the contact's phone number in E.164 form, unique across
	// all contacts.
	Phone string `json:"phone" db:"phone"`

	// BirthDate is the contact's date of birth, date precision only.
	BirthDate Date `json:"birth_date" db:"birth_date"`

	// Info is an optional free-text note.
	Info *string `json:"info" db:"info"`

	// OwnerID is the id of the user this contact belongs to. Every
	// query against contacts is scoped by it.
	OwnerID int `json:"owner_id" db:"owner_id"`
}
