package entity

import (
	"time"

	"github.com/google/uuid"
)

// MFAType defines the kind of second factor bound to an account.
type MFAType string

const (
	// MFATypeTOTP is a time-based one-time password (RFC 6238).
	MFATypeTOTP MFAType = "TOTP"
)

// AccountMFA is the per-account MFA record (1:1), mapping to the
// "account_mfa" table. Secret holds either an encryption envelope
// ("enc:..." prefix) or a plaintext Base32 secret, depending on the
// crypto mode the service was deployed with.
type AccountMFA struct {
	AccountID uuid.UUID  `db:"account_id"`
	Type      MFAType    `db:"type"`
	Secret    string     `db:"secret"`
	Enabled   bool       `db:"enabled"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt *time.Time `db:"updated_at"`
}
