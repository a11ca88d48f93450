package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken represents a stored refresh token, mapping to the
// "refresh_tokens" table. Only the SHA-256 hash of the bearer secret is
// persisted; the plaintext never touches storage.
type RefreshToken struct {
	ID        uuid.UUID `db:"id"`
	AccountID uuid.UUID `db:"account_id"`
	TokenHash string    `db:"token_hash"`
	IssuedAt  time.Time `db:"issued_at"`
	ExpiresAt time.Time `db:"expires_at"`
	Revoked   bool      `db:"revoked"`
}

// Expired reports whether the token is past its expiry at the given time.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
