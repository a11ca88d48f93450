package entity

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a game account, mapping to the "accounts" table.
// The auth core treats it as a key plus a carried-through display name;
// profile data lives in other services.
type Account struct {
	ID            uuid.UUID `db:"id"`
	Email         string    `db:"email"`
	PasswordHash  string    `db:"password_hash"`
	DisplayName   string    `db:"display_name"`
	EmailVerified bool      `db:"email_verified"`
	CreatedAt     time.Time `db:"created_at"`
}
