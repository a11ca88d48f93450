package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	appConfig "github.com/Conava/Fortalis-Auth/internal/config"
	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	"github.com/Conava/Fortalis-Auth/internal/domain/models"
	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
	"github.com/Conava/Fortalis-Auth/internal/events"
)

// LoginService drives the two-step login flow. Step one checks credentials
// and either returns tokens directly or mints a login ticket when the
// account has MFA enabled; step two redeems the ticket with an MFA factor.
type LoginService struct {
	rules      appConfig.RateLimitConfig
	accounts   *AccountService
	tokens     *TokenService
	mfa        *MFAService
	challenges *LoginChallengeStore
	limiter    domainService.RateLimiter
	publisher  events.Publisher
	logger     *zap.Logger
}

// NewLoginService creates a LoginService.
func NewLoginService(
	rules appConfig.RateLimitConfig,
	accounts *AccountService,
	tokens *TokenService,
	mfa *MFAService,
	challenges *LoginChallengeStore,
	limiter domainService.RateLimiter,
	publisher events.Publisher,
	logger *zap.Logger,
) *LoginService {
	return &LoginService{
		rules:      rules,
		accounts:   accounts,
		tokens:     tokens,
		mfa:        mfa,
		challenges: challenges,
		limiter:    limiter,
		publisher:  publisher,
		logger:     logger,
	}
}

// Login verifies the principal/password pair. Failed attempts consume both
// the per-IP and per-principal rate budgets; a success clears the principal
// bucket so a legitimate player is not locked out by their own typos.
func (s *LoginService) Login(ctx context.Context, principal, password, clientIP string) (*models.LoginResult, error) {
	account, principalKey, err := s.authenticate(ctx, principal, password, clientIP)
	if err != nil {
		return nil, err
	}

	mfaEnabled, err := s.mfa.IsEnabled(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if mfaEnabled {
		ticket := s.challenges.Create(account, []string{models.FactorTOTP, models.FactorBackupCode})
		s.logger.Info("login challenge issued", zap.String("account_id", account.ID.String()))
		return &models.LoginResult{
			Challenge: &models.Challenge{
				LoginTicket:    ticket,
				AllowedFactors: []string{models.FactorTOTP, models.FactorBackupCode},
			},
		}, nil
	}

	if err := s.limiter.Clear(ctx, principalKey); err != nil {
		s.logger.Warn("failed to clear rate limit bucket", zap.Error(err))
	}
	return s.finish(ctx, account.ID.String(), func() (*models.TokenPair, error) {
		return s.tokens.IssueTokens(ctx, account.ID)
	})
}

// LoginWithCode is the one-step variant: the MFA code travels inline with
// the credentials instead of through a challenge ticket. With MFA enabled
// and no code supplied it fails with ErrMFARequired, telling the client to
// retry with a code or fall back to the two-step flow.
func (s *LoginService) LoginWithCode(ctx context.Context, principal, password, mfaCode, clientIP string) (*models.LoginResult, error) {
	account, principalKey, err := s.authenticate(ctx, principal, password, clientIP)
	if err != nil {
		return nil, err
	}

	mfaEnabled, err := s.mfa.IsEnabled(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if mfaEnabled {
		if strings.TrimSpace(mfaCode) == "" {
			return nil, domainErrors.ErrMFARequired
		}
		verified, err := s.mfa.Verify(ctx, account.ID, mfaCode)
		if err != nil {
			return nil, err
		}
		if !verified {
			return nil, domainErrors.ErrInvalidMFACode
		}
	}

	if err := s.limiter.Clear(ctx, principalKey); err != nil {
		s.logger.Warn("failed to clear rate limit bucket", zap.Error(err))
	}
	return s.finish(ctx, account.ID.String(), func() (*models.TokenPair, error) {
		return s.tokens.IssueTokens(ctx, account.ID)
	})
}

// authenticate consumes the per-IP and per-principal rate budgets and checks
// the password. It returns the account and the principal bucket key so a
// successful login can clear it.
func (s *LoginService) authenticate(ctx context.Context, principal, password, clientIP string) (*entity.Account, string, error) {
	principal = strings.ToLower(strings.TrimSpace(principal))

	if err := s.limiter.CheckAndConsume(ctx, "ip:"+clientIP, s.rules.LoginIP.Limit, s.rules.LoginIP.Window); err != nil {
		return nil, "", err
	}
	principalKey := "login:" + principal
	if err := s.limiter.CheckAndConsume(ctx, principalKey, s.rules.LoginPrincipal.Limit, s.rules.LoginPrincipal.Window); err != nil {
		return nil, "", err
	}

	account, err := s.accounts.FindByEmailOrUsername(ctx, principal)
	if err != nil {
		// Unknown principals and wrong passwords are indistinguishable.
		return nil, "", domainErrors.ErrInvalidCredentials
	}
	if !s.accounts.CheckPassword(account, password) {
		s.logger.Info("login rejected", zap.String("account_id", account.ID.String()))
		return nil, "", domainErrors.ErrInvalidCredentials
	}
	return account, principalKey, nil
}

// CompleteLogin redeems a login ticket with an MFA factor. The challenge is
// only consumed after the code verifies, so a wrong code does not burn the
// ticket; the per-ticket rate budget bounds guessing instead.
func (s *LoginService) CompleteLogin(ctx context.Context, ticket, factor, code string) (*models.LoginResult, error) {
	ticketKey := "ticket:" + ticket
	if err := s.limiter.CheckAndConsume(ctx, ticketKey, s.rules.LoginTicket.Limit, s.rules.LoginTicket.Window); err != nil {
		return nil, err
	}

	challenge, ok := s.challenges.Peek(ticket)
	if !ok {
		return nil, domainErrors.ErrChallengeInvalid
	}
	if !challenge.FactorAllowed(factor) {
		return nil, domainErrors.ErrMFAFactorNotAllowed
	}

	verified, err := s.mfa.Verify(ctx, challenge.Account.ID, code)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, domainErrors.ErrInvalidMFACode
	}

	challenge, ok = s.challenges.Consume(ticket)
	if !ok {
		// A concurrent completion already redeemed it.
		return nil, domainErrors.ErrChallengeInvalid
	}

	if err := s.limiter.Clear(ctx, ticketKey); err != nil {
		s.logger.Warn("failed to clear rate limit bucket", zap.Error(err))
	}
	if err := s.limiter.Clear(ctx, "login:"+strings.ToLower(challenge.Account.Email)); err != nil {
		s.logger.Warn("failed to clear rate limit bucket", zap.Error(err))
	}
	return s.finish(ctx, challenge.Account.ID.String(), func() (*models.TokenPair, error) {
		return s.tokens.IssueTokens(ctx, challenge.Account.ID)
	})
}

func (s *LoginService) finish(ctx context.Context, accountID string, issue func() (*models.TokenPair, error)) (*models.LoginResult, error) {
	pair, err := issue()
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	s.logger.Info("login succeeded", zap.String("account_id", accountID))
	if err := s.publisher.Publish(ctx, events.New(events.TypeLoginSucceeded, accountID, nil)); err != nil {
		s.logger.Warn("failed to publish login event", zap.Error(err))
	}
	return &models.LoginResult{Tokens: pair}, nil
}
