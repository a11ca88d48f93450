package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	"github.com/Conava/Fortalis-Auth/internal/domain/repository"
	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
	"github.com/Conava/Fortalis-Auth/internal/events"
)

// AccountService handles account registration and credential checks.
type AccountService struct {
	accountRepo     repository.AccountRepository
	passwordService domainService.PasswordService
	publisher       events.Publisher
	logger          *zap.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(
	accountRepo repository.AccountRepository,
	passwordService domainService.PasswordService,
	publisher events.Publisher,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accountRepo:     accountRepo,
		passwordService: passwordService,
		publisher:       publisher,
		logger:          logger,
	}
}

// Register creates a new account with a hashed password. Returns
// errors.ErrEmailTaken when the email is already registered.
func (s *AccountService) Register(ctx context.Context, email, password, displayName string) (*entity.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.accountRepo.FindByEmail(ctx, email); err == nil {
		return nil, domainErrors.ErrEmailTaken
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing account: %w", err)
	}

	hash, err := s.passwordService.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &entity.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account registered", zap.String("account_id", account.ID.String()))
	if err := s.publisher.Publish(ctx, events.New(events.TypeAccountRegistered, account.ID.String(), nil)); err != nil {
		s.logger.Warn("failed to publish account registered event", zap.Error(err))
	}

	return account, nil
}

// FindByEmailOrUsername resolves a login principal to an account. Currently
// principals are emails; username lookup can be added alongside.
func (s *AccountService) FindByEmailOrUsername(ctx context.Context, principal string) (*entity.Account, error) {
	return s.accountRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(principal)))
}

// FindByID retrieves an account by id.
func (s *AccountService) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return s.accountRepo.FindByID(ctx, id)
}

// CheckPassword verifies a plaintext password against the account's hash.
func (s *AccountService) CheckPassword(account *entity.Account, password string) bool {
	if account.PasswordHash == "" {
		return false
	}
	ok, err := s.passwordService.Matches(password, account.PasswordHash)
	if err != nil {
		s.logger.Warn("password verification failed",
			zap.String("account_id", account.ID.String()), zap.Error(err))
		return false
	}
	return ok
}
