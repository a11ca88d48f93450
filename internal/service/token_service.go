package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appConfig "github.com/Conava/Fortalis-Auth/internal/config"
	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	"github.com/Conava/Fortalis-Auth/internal/domain/models"
	"github.com/Conava/Fortalis-Auth/internal/domain/repository"
	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
	"github.com/Conava/Fortalis-Auth/internal/events"
	"github.com/Conava/Fortalis-Auth/internal/infrastructure/security"
)

const defaultRefreshTokenBytes = 32

// TokenService issues access/refresh token pairs and handles refresh
// rotation and revocation. Refresh tokens are opaque; only their SHA-256
// hash is persisted.
type TokenService struct {
	cfg         appConfig.JWTConfig
	signer      domainService.TokenSigner
	refreshRepo repository.RefreshTokenRepository
	mfaService  *MFAService
	publisher   events.Publisher
	logger      *zap.Logger
}

// NewTokenService creates a TokenService.
func NewTokenService(
	cfg appConfig.JWTConfig,
	signer domainService.TokenSigner,
	refreshRepo repository.RefreshTokenRepository,
	mfaService *MFAService,
	publisher events.Publisher,
	logger *zap.Logger,
) *TokenService {
	if cfg.RefreshTokenByteLength <= 0 {
		cfg.RefreshTokenByteLength = defaultRefreshTokenBytes
	}
	return &TokenService{
		cfg:         cfg,
		signer:      signer,
		refreshRepo: refreshRepo,
		mfaService:  mfaService,
		publisher:   publisher,
		logger:      logger,
	}
}

// IssueTokens signs a fresh access token and mints a new opaque refresh
// token for the account. The "mfa" claim reflects the account's MFA status
// at issuance time.
func (s *TokenService) IssueTokens(ctx context.Context, accountID uuid.UUID) (*models.TokenPair, error) {
	mfaEnabled, err := s.mfaService.IsEnabled(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, accountID, mfaEnabled)
}

func (s *TokenService) issue(ctx context.Context, accountID uuid.UUID, mfaEnabled bool) (*models.TokenPair, error) {
	accessToken, err := s.signer.SignAccessToken(accountID, mfaEnabled)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := security.GenerateOpaqueToken(s.cfg.RefreshTokenByteLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	record := &entity.RefreshToken{
		ID:        uuid.New(),
		AccountID: accountID,
		TokenHash: security.HashToken(refreshToken),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		Revoked:   false,
	}
	if err := s.refreshRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresInSeconds: int64(s.signer.AccessTokenTTL().Seconds()),
	}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. Revocation is a conditional write, so two concurrent calls
// with the same token see exactly one winner; the loser gets
// ErrInvalidRefreshToken.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	record, err := s.refreshRepo.FindActiveByTokenHash(ctx, security.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if record.Expired(time.Now().UTC()) {
		return nil, domainErrors.ErrExpiredRefreshToken
	}

	if err := s.refreshRepo.MarkRevoked(ctx, record.ID); err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			// Lost the rotation race to a concurrent refresh.
			return nil, domainErrors.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return s.IssueTokens(ctx, record.AccountID)
}

// Revoke invalidates a refresh token. Unknown, expired and already-revoked
// tokens are treated as success, so logout is idempotent.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	record, err := s.refreshRepo.FindActiveByTokenHash(ctx, security.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if err := s.refreshRepo.MarkRevoked(ctx, record.ID); err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	s.logger.Info("refresh token revoked", zap.String("account_id", record.AccountID.String()))
	if err := s.publisher.Publish(ctx, events.New(events.TypeTokenRevoked, record.AccountID.String(), nil)); err != nil {
		s.logger.Warn("failed to publish token revoked event", zap.Error(err))
	}
	return nil
}

// PurgeExpired removes refresh token records past their expiry.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.refreshRepo.DeleteExpired(ctx)
}
