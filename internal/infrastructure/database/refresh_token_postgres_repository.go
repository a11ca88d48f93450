package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	"github.com/Conava/Fortalis-Auth/internal/domain/repository"
)

type pgxRefreshTokenRepository struct {
	db *pgxpool.Pool
}

// NewPgxRefreshTokenRepository creates a postgres-backed RefreshTokenRepository.
func NewPgxRefreshTokenRepository(db *pgxpool.Pool) repository.RefreshTokenRepository {
	return &pgxRefreshTokenRepository{db: db}
}

var _ repository.RefreshTokenRepository = (*pgxRefreshTokenRepository)(nil)

func (r *pgxRefreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, account_id, token_hash, issued_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query,
		token.ID, token.AccountID, token.TokenHash,
		token.IssuedAt, token.ExpiresAt, token.Revoked,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (r *pgxRefreshTokenRepository) FindActiveByTokenHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error) {
	query := `
		SELECT id, account_id, token_hash, issued_at, expires_at, revoked
		FROM refresh_tokens
		WHERE token_hash = $1 AND revoked = FALSE`
	token := &entity.RefreshToken{}
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&token.ID, &token.AccountID, &token.TokenHash,
		&token.IssuedAt, &token.ExpiresAt, &token.Revoked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	return token, nil
}

// MarkRevoked only touches still-active rows. The rows-affected check is
// what makes concurrent rotation of the same token single-winner.
func (r *pgxRefreshTokenRepository) MarkRevoked(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE id = $1 AND revoked = FALSE`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *pgxRefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
