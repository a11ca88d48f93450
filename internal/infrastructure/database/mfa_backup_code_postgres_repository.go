package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	"github.com/Conava/Fortalis-Auth/internal/domain/repository"
)

type pgxMFABackupCodeRepository struct {
	db *pgxpool.Pool
}

// NewPgxMFABackupCodeRepository creates a postgres-backed MFABackupCodeRepository.
func NewPgxMFABackupCodeRepository(db *pgxpool.Pool) repository.MFABackupCodeRepository {
	return &pgxMFABackupCodeRepository{db: db}
}

var _ repository.MFABackupCodeRepository = (*pgxMFABackupCodeRepository)(nil)

func (r *pgxMFABackupCodeRepository) CreateBatch(ctx context.Context, codes []*entity.MFABackupCode) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows := make([][]interface{}, len(codes))
	for i, code := range codes {
		rows[i] = []interface{}{code.ID, code.AccountID, code.CodeHash, code.Used, code.CreatedAt}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"mfa_backup_codes"},
		[]string{"id", "account_id", "code_hash", "used", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to insert backup codes: %w", err)
	}
	return tx.Commit(ctx)
}

// ConsumeByAccountIDAndHash marks the matching unused code as used. The
// used = FALSE predicate plus the rows-affected check makes redemption of a
// given code succeed at most once, even under concurrent attempts.
func (r *pgxMFABackupCodeRepository) ConsumeByAccountIDAndHash(ctx context.Context, accountID uuid.UUID, codeHash string) error {
	query := `
		UPDATE mfa_backup_codes
		SET used = TRUE
		WHERE account_id = $1 AND code_hash = $2 AND used = FALSE`
	tag, err := r.db.Exec(ctx, query, accountID, codeHash)
	if err != nil {
		return fmt.Errorf("failed to consume backup code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *pgxMFABackupCodeRepository) DeleteByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM mfa_backup_codes WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete backup codes: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgxMFABackupCodeRepository) CountUnusedByAccountID(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM mfa_backup_codes WHERE account_id = $1 AND used = FALSE`,
		accountID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count backup codes: %w", err)
	}
	return count, nil
}
