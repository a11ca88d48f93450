package entity

import (
	"time"

	"github.com/google/uuid"
)

// MFABackupCode is a single-use recovery code, mapping to the
// "mfa_backup_codes" table. Only the SHA-256 digest of the code is stored.
type MFABackupCode struct {
	ID        uuid.UUID `db:"id"`
	AccountID uuid.UUID `db:"account_id"`
	CodeHash  string    `db:"code_hash"`
	Used      bool      `db:"used"`
	CreatedAt time.Time `db:"created_at"`
}
