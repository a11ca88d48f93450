package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
)

// RefreshTokenRepository defines the interface for refresh token persistence.
//
// Rotation safety depends on MarkRevoked being a conditional write: it must
// only succeed for a record that is still active, so that concurrent refresh
// calls presenting the same token observe exactly one winner.
type RefreshTokenRepository interface {
	// Create persists a new refresh token record.
	Create(ctx context.Context, token *entity.RefreshToken) error

	// FindActiveByTokenHash retrieves the non-revoked record with the given
	// token hash. Returns errors.ErrNotFound if none exists (including when a
	// matching record exists but is revoked).
	FindActiveByTokenHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error)

	// MarkRevoked flips revoked=false to true for the given record. Returns
	// errors.ErrNotFound if the record does not exist or was already revoked,
	// so callers can detect a lost rotation race.
	MarkRevoked(ctx context.Context, id uuid.UUID) error

	// DeleteExpired removes records past their expiry. Housekeeping only; the
	// core never depends on it. Returns the number of rows removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
