package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
)

// MFABackupCodeRepository defines the interface for backup code persistence.
type MFABackupCodeRepository interface {
	// CreateBatch persists a batch of backup codes in one transaction.
	CreateBatch(ctx context.Context, codes []*entity.MFABackupCode) error

	// ConsumeByAccountIDAndHash atomically marks the unused code with the
	// given (accountID, codeHash) as used. Returns errors.ErrNotFound when no
	// unused code matches, so redemption of a spent or unknown code fails.
	ConsumeByAccountIDAndHash(ctx context.Context, accountID uuid.UUID, codeHash string) error

	// DeleteByAccountID removes all backup codes for an account (used or not).
	// Returns the number of codes removed.
	DeleteByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)

	// CountUnusedByAccountID counts the codes still available for redemption.
	CountUnusedByAccountID(ctx context.Context, accountID uuid.UUID) (int, error)
}
