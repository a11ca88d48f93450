package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
)

// AccountMFARepository defines the interface for the per-account MFA record.
type AccountMFARepository interface {
	// Upsert creates or overwrites the MFA record for record.AccountID.
	// Setup relies on this to regenerate the secret and force enabled=false.
	Upsert(ctx context.Context, record *entity.AccountMFA) error

	// FindByAccountID retrieves the MFA record for an account.
	// Returns errors.ErrNotFound if the account has no MFA record.
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*entity.AccountMFA, error)

	// SetEnabled flips the enabled flag for an existing record.
	// Returns errors.ErrNotFound if the account has no MFA record.
	SetEnabled(ctx context.Context, accountID uuid.UUID, enabled bool) error
}
