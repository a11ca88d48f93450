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

type pgxAccountMFARepository struct {
	db *pgxpool.Pool
}

// NewPgxAccountMFARepository creates a postgres-backed AccountMFARepository.
func NewPgxAccountMFARepository(db *pgxpool.Pool) repository.AccountMFARepository {
	return &pgxAccountMFARepository{db: db}
}

var _ repository.AccountMFARepository = (*pgxAccountMFARepository)(nil)

func (r *pgxAccountMFARepository) Upsert(ctx context.Context, record *entity.AccountMFA) error {
	query := `
		INSERT INTO account_mfa (account_id, mfa_type, secret, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULL)
		ON CONFLICT (account_id) DO UPDATE
		SET mfa_type = EXCLUDED.mfa_type,
		    secret = EXCLUDED.secret,
		    enabled = EXCLUDED.enabled,
		    updated_at = NOW()`
	_, err := r.db.Exec(ctx, query,
		record.AccountID, record.Type, record.Secret, record.Enabled, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert MFA record: %w", err)
	}
	return nil
}

func (r *pgxAccountMFARepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*entity.AccountMFA, error) {
	query := `
		SELECT account_id, mfa_type, secret, enabled, created_at, updated_at
		FROM account_mfa
		WHERE account_id = $1`
	record := &entity.AccountMFA{}
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&record.AccountID, &record.Type, &record.Secret,
		&record.Enabled, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find MFA record: %w", err)
	}
	return record, nil
}

func (r *pgxAccountMFARepository) SetEnabled(ctx context.Context, accountID uuid.UUID, enabled bool) error {
	query := `
		UPDATE account_mfa
		SET enabled = $2, updated_at = NOW()
		WHERE account_id = $1`
	tag, err := r.db.Exec(ctx, query, accountID, enabled)
	if err != nil {
		return fmt.Errorf("failed to update MFA record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
