package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
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
	"github.com/Conava/Fortalis-Auth/internal/utils/metrics"
)

// totpCodePattern matches a well-formed 6-digit TOTP code. Backup codes are
// always DDDD-DDDD (9 characters), so the two shapes never collide.
var totpCodePattern = regexp.MustCompile(`^\d{6}$`)

// MFAService orchestrates the TOTP lifecycle: setup, enable, disable and
// verification during login.
type MFAService struct {
	cfg        appConfig.MFAConfig
	mfaRepo    repository.AccountMFARepository
	backupRepo repository.MFABackupCodeRepository
	totp       domainService.TOTPService
	crypto     domainService.MFACryptoService
	publisher  events.Publisher
	logger     *zap.Logger
}

// NewMFAService creates an MFAService.
func NewMFAService(
	cfg appConfig.MFAConfig,
	mfaRepo repository.AccountMFARepository,
	backupRepo repository.MFABackupCodeRepository,
	totp domainService.TOTPService,
	crypto domainService.MFACryptoService,
	publisher events.Publisher,
	logger *zap.Logger,
) *MFAService {
	if cfg.BackupCodeCount <= 0 {
		cfg.BackupCodeCount = 10
	}
	return &MFAService{
		cfg:        cfg,
		mfaRepo:    mfaRepo,
		backupRepo: backupRepo,
		totp:       totp,
		crypto:     crypto,
		publisher:  publisher,
		logger:     logger,
	}
}

// SetupTOTP generates a fresh secret and backup code batch for the account,
// overwriting any prior enrollment and forcing enabled=false. The returned
// plaintext secret and codes are shown to the player exactly once.
func (s *MFAService) SetupTOTP(ctx context.Context, accountID uuid.UUID) (*models.MFASetupResult, error) {
	secret, err := s.totp.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	encrypted, err := s.crypto.Encrypt(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt TOTP secret: %w", err)
	}

	record := &entity.AccountMFA{
		AccountID: accountID,
		Type:      entity.MFATypeTOTP,
		Secret:    encrypted,
		Enabled:   false,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.mfaRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store MFA record: %w", err)
	}

	// A new setup invalidates every prior backup code, used or not.
	if _, err := s.backupRepo.DeleteByAccountID(ctx, accountID); err != nil {
		return nil, fmt.Errorf("failed to clear previous backup codes: %w", err)
	}
	plainCodes, rows, err := s.generateBackupCodes(accountID)
	if err != nil {
		return nil, err
	}
	if err := s.backupRepo.CreateBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("failed to store backup codes: %w", err)
	}

	s.logger.Info("TOTP setup completed", zap.String("account_id", accountID.String()))

	return &models.MFASetupResult{
		Secret:      secret,
		OtpauthURL:  s.totp.OtpauthURL(s.cfg.TOTPIssuerName, "acct:"+accountID.String(), secret),
		BackupCodes: plainCodes,
	}, nil
}

// EnableTOTP activates MFA after the player proves possession of the
// enrolled secret with a current code.
func (s *MFAService) EnableTOTP(ctx context.Context, accountID uuid.UUID, code string) error {
	record, err := s.findRecord(ctx, accountID)
	if err != nil {
		return err
	}
	if err := s.verifyTOTPCode(record, code); err != nil {
		return err
	}
	if err := s.mfaRepo.SetEnabled(ctx, accountID, true); err != nil {
		return fmt.Errorf("failed to enable MFA: %w", err)
	}

	s.logger.Info("MFA enabled", zap.String("account_id", accountID.String()))
	if err := s.publisher.Publish(ctx, events.New(events.TypeMFAEnabled, accountID.String(), nil)); err != nil {
		s.logger.Warn("failed to publish MFA enabled event", zap.Error(err))
	}
	return nil
}

// DisableTOTP turns MFA off after verifying a current code.
func (s *MFAService) DisableTOTP(ctx context.Context, accountID uuid.UUID, code string) error {
	record, err := s.findRecord(ctx, accountID)
	if err != nil {
		return err
	}
	if err := s.verifyTOTPCode(record, code); err != nil {
		return err
	}
	if err := s.mfaRepo.SetEnabled(ctx, accountID, false); err != nil {
		return fmt.Errorf("failed to disable MFA: %w", err)
	}

	s.logger.Info("MFA disabled", zap.String("account_id", accountID.String()))
	if err := s.publisher.Publish(ctx, events.New(events.TypeMFADisabled, accountID.String(), nil)); err != nil {
		s.logger.Warn("failed to publish MFA disabled event", zap.Error(err))
	}
	return nil
}

// IsEnabled reports whether the account currently has TOTP enabled.
func (s *MFAService) IsEnabled(ctx context.Context, accountID uuid.UUID) (bool, error) {
	record, err := s.mfaRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load MFA record: %w", err)
	}
	return record.Enabled && record.Type == entity.MFATypeTOTP, nil
}

// Verify checks a login-time code: a 6-digit input is tried as TOTP first,
// everything else (and only non-6-digit shapes) against the backup vault.
// A redeemed backup code is consumed and cannot be used again.
func (s *MFAService) Verify(ctx context.Context, accountID uuid.UUID, code string) (bool, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return false, nil
	}

	record, err := s.mfaRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load MFA record: %w", err)
	}
	if !record.Enabled {
		return false, nil
	}

	if record.Type == entity.MFATypeTOTP && totpCodePattern.MatchString(trimmed) {
		secret, err := s.crypto.Decrypt(record.Secret)
		if err != nil {
			return false, fmt.Errorf("failed to decrypt TOTP secret: %w", err)
		}
		ok := s.totp.Verify(secret, trimmed)
		metrics.MFAVerifications.WithLabelValues("totp", verificationResult(ok)).Inc()
		return ok, nil
	}

	hash := security.HashToken(trimmed)
	if err := s.backupRepo.ConsumeByAccountIDAndHash(ctx, accountID, hash); err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			metrics.MFAVerifications.WithLabelValues("backup_code", "failure").Inc()
			return false, nil
		}
		return false, fmt.Errorf("failed to redeem backup code: %w", err)
	}
	metrics.MFAVerifications.WithLabelValues("backup_code", "success").Inc()

	s.logger.Info("backup code consumed", zap.String("account_id", accountID.String()))
	if err := s.publisher.Publish(ctx, events.New(events.TypeBackupCodeUsed, accountID.String(), nil)); err != nil {
		s.logger.Warn("failed to publish backup code used event", zap.Error(err))
	}
	return true, nil
}

func verificationResult(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (s *MFAService) findRecord(ctx context.Context, accountID uuid.UUID) (*entity.AccountMFA, error) {
	record, err := s.mfaRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrMFANotSetUp
		}
		return nil, fmt.Errorf("failed to load MFA record: %w", err)
	}
	if record.Type != entity.MFATypeTOTP {
		return nil, domainErrors.ErrMFANotSetUp
	}
	return record, nil
}

func (s *MFAService) verifyTOTPCode(record *entity.AccountMFA, code string) error {
	secret, err := s.crypto.Decrypt(record.Secret)
	if err != nil {
		return fmt.Errorf("failed to decrypt TOTP secret: %w", err)
	}
	if !s.totp.Verify(secret, strings.TrimSpace(code)) {
		return domainErrors.ErrInvalidMFACode
	}
	return nil
}

// generateBackupCodes mints the plaintext batch and its hashed rows.
// Codes are two independent 0-9999 groups, zero-padded: DDDD-DDDD.
func (s *MFAService) generateBackupCodes(accountID uuid.UUID) ([]string, []*entity.MFABackupCode, error) {
	plain := make([]string, s.cfg.BackupCodeCount)
	rows := make([]*entity.MFABackupCode, s.cfg.BackupCodeCount)
	now := time.Now().UTC()

	for i := 0; i < s.cfg.BackupCodeCount; i++ {
		part1, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		part2, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		code := fmt.Sprintf("%04d-%04d", part1.Int64(), part2.Int64())

		plain[i] = code
		rows[i] = &entity.MFABackupCode{
			ID:        uuid.New(),
			AccountID: accountID,
			CodeHash:  security.HashToken(code),
			Used:      false,
			CreatedAt: now,
		}
	}
	return plain, rows, nil
}
