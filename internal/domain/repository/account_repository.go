package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
)

// AccountRepository defines the interface for account persistence.
type AccountRepository interface {
	// Create persists a new account. Returns domain errors.ErrEmailTaken on a
	// duplicate email.
	Create(ctx context.Context, account *entity.Account) error

	// FindByID retrieves an account by its ID.
	// Returns errors.ErrNotFound if no account exists.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)

	// FindByEmail retrieves an account by its email (case-insensitive).
	// Returns errors.ErrNotFound if no account exists.
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
}
