package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents an account. Organization association only exists through Membership.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Image        *string   `json:"image,omitempty" db:"image"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance. The email is normalized to lower case.
func NewUser(name, email, passwordHash string) *User {
	now := time.Now()
	return &User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail trims and lower-cases an address for storage and comparison
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserSearchResult is the public projection returned by member search
type UserSearchResult struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Email string    `json:"email" db:"email"`
	Image *string   `json:"image,omitempty" db:"image"`
}
