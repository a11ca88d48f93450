package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	"github.com/Conava/Fortalis-Auth/internal/domain/repository"
)

type pgxAccountRepository struct {
	db *pgxpool.Pool
}

// NewPgxAccountRepository creates a postgres-backed AccountRepository.
func NewPgxAccountRepository(db *pgxpool.Pool) repository.AccountRepository {
	return &pgxAccountRepository{db: db}
}

var _ repository.AccountRepository = (*pgxAccountRepository)(nil)

func (r *pgxAccountRepository) Create(ctx context.Context, account *entity.Account) error {
	query := `
		INSERT INTO accounts (id, email, password_hash, display_name, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query,
		account.ID, account.Email, account.PasswordHash,
		account.DisplayName, account.EmailVerified, account.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrEmailTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *pgxAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	query := `
		SELECT id, email, password_hash, display_name, email_verified, created_at
		FROM accounts
		WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *pgxAccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	query := `
		SELECT id, email, password_hash, display_name, email_verified, created_at
		FROM accounts
		WHERE email = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, email))
}

func (r *pgxAccountRepository) scanOne(row pgx.Row) (*entity.Account, error) {
	account := &entity.Account{}
	err := row.Scan(
		&account.ID, &account.Email, &account.PasswordHash,
		&account.DisplayName, &account.EmailVerified, &account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}
