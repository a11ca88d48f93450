package service_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appConfig "github.com/Conava/Fortalis-Auth/internal/config"
	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
	"github.com/Conava/Fortalis-Auth/internal/events"
	"github.com/Conava/Fortalis-Auth/internal/infrastructure/ratelimit"
	"github.com/Conava/Fortalis-Auth/internal/infrastructure/security"
	"github.com/Conava/Fortalis-Auth/internal/service"
)

// In-memory repository fakes with the same contracts as the postgres
// implementations, including the conditional-write semantics the rotation
// and backup code tests depend on.

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*entity.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*entity.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return domainErrors.ErrEmailTaken
		}
	}
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok {
		cp := *account
		return &cp, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if strings.EqualFold(account.Email, email) {
			cp := *account
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*entity.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[uuid.UUID]*entity.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *entity.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *fakeRefreshTokenRepo) FindActiveByTokenHash(_ context.Context, tokenHash string) (*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenHash == tokenHash && !token.Revoked {
			cp := *token
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (r *fakeRefreshTokenRepo) MarkRevoked(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[id]
	if !ok || token.Revoked {
		return domainErrors.ErrNotFound
	}
	token.Revoked = true
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var removed int64
	for id, token := range r.tokens {
		if token.Expired(now) {
			delete(r.tokens, id)
			removed++
		}
	}
	return removed, nil
}

type fakeAccountMFARepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entity.AccountMFA
}

func newFakeAccountMFARepo() *fakeAccountMFARepo {
	return &fakeAccountMFARepo{records: make(map[uuid.UUID]*entity.AccountMFA)}
}

func (r *fakeAccountMFARepo) Upsert(_ context.Context, record *entity.AccountMFA) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.records[record.AccountID] = &cp
	return nil
}

func (r *fakeAccountMFARepo) FindByAccountID(_ context.Context, accountID uuid.UUID) (*entity.AccountMFA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record, ok := r.records[accountID]; ok {
		cp := *record
		return &cp, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r *fakeAccountMFARepo) SetEnabled(_ context.Context, accountID uuid.UUID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[accountID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	record.Enabled = enabled
	return nil
}

type fakeBackupCodeRepo struct {
	mu    sync.Mutex
	codes map[uuid.UUID]*entity.MFABackupCode
}

func newFakeBackupCodeRepo() *fakeBackupCodeRepo {
	return &fakeBackupCodeRepo{codes: make(map[uuid.UUID]*entity.MFABackupCode)}
}

func (r *fakeBackupCodeRepo) CreateBatch(_ context.Context, codes []*entity.MFABackupCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, code := range codes {
		cp := *code
		r.codes[code.ID] = &cp
	}
	return nil
}

func (r *fakeBackupCodeRepo) ConsumeByAccountIDAndHash(_ context.Context, accountID uuid.UUID, codeHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, code := range r.codes {
		if code.AccountID == accountID && code.CodeHash == codeHash && !code.Used {
			code.Used = true
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

func (r *fakeBackupCodeRepo) DeleteByAccountID(_ context.Context, accountID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, code := range r.codes {
		if code.AccountID == accountID {
			delete(r.codes, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeBackupCodeRepo) CountUnusedByAccountID(_ context.Context, accountID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, code := range r.codes {
		if code.AccountID == accountID && !code.Used {
			count++
		}
	}
	return count, nil
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) typesSeen() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	seen := make([]events.Type, len(p.events))
	for i, e := range p.events {
		seen[i] = e.Type
	}
	return seen
}

// fixture wires the full service graph over the in-memory fakes, with real
// crypto, TOTP and signing implementations.
type fixture struct {
	accounts   *service.AccountService
	mfa        *service.MFAService
	tokens     *service.TokenService
	login      *service.LoginService
	challenges *service.LoginChallengeStore
	limiter    *ratelimit.MemoryRateLimiter
	signer     domainService.TokenSigner

	accountRepo *fakeAccountRepo
	refreshRepo *fakeRefreshTokenRepo
	mfaRepo     *fakeAccountMFARepo
	backupRepo  *fakeBackupCodeRepo
	published   *capturePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer, err := security.NewRSATokenServiceWithKey(key, appConfig.JWTConfig{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "fortalis-auth",
		Audience:        "fortalis-game",
		JWKSKeyID:       "test-key",
	})
	require.NoError(t, err)

	mfaCrypto, err := security.NewMFACryptoService("", "")
	require.NoError(t, err)

	// Light argon2 parameters keep repeated hashing cheap in tests.
	passwordService := security.NewArgon2idPasswordService(security.Argon2Params{
		Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})

	f := &fixture{
		accountRepo: newFakeAccountRepo(),
		refreshRepo: newFakeRefreshTokenRepo(),
		mfaRepo:     newFakeAccountMFARepo(),
		backupRepo:  newFakeBackupCodeRepo(),
		published:   &capturePublisher{},
		limiter:     ratelimit.NewMemoryRateLimiter(),
		signer:      signer,
	}
	log := zap.NewNop()

	f.accounts = service.NewAccountService(f.accountRepo, passwordService, f.published, log)
	f.mfa = service.NewMFAService(
		appConfig.MFAConfig{TOTPIssuerName: "Fortalis", BackupCodeCount: 10, ChallengeTTL: 5 * time.Minute},
		f.mfaRepo, f.backupRepo,
		security.NewTOTPService(), mfaCrypto,
		f.published, log,
	)
	f.tokens = service.NewTokenService(
		appConfig.JWTConfig{RefreshTokenTTL: 24 * time.Hour, RefreshTokenByteLength: 32},
		signer, f.refreshRepo, f.mfa, f.published, log,
	)
	f.challenges = service.NewLoginChallengeStore(5 * time.Minute)
	f.login = service.NewLoginService(
		appConfig.RateLimitConfig{
			LoginIP:        appConfig.RateLimitRule{Limit: 20, Window: time.Minute},
			LoginPrincipal: appConfig.RateLimitRule{Limit: 5, Window: 15 * time.Minute},
			LoginTicket:    appConfig.RateLimitRule{Limit: 5, Window: 5 * time.Minute},
		},
		f.accounts, f.tokens, f.mfa, f.challenges,
		f.limiter, f.published, log,
	)
	return f
}

// register creates an account through the real registration path.
func (f *fixture) register(t *testing.T, email, password string) *entity.Account {
	t.Helper()
	account, err := f.accounts.Register(context.Background(), email, password, "Player One")
	require.NoError(t, err)
	return account
}

// enrollTOTP runs setup and enable, returning the plaintext secret and
// backup codes.
func (f *fixture) enrollTOTP(t *testing.T, accountID uuid.UUID) (string, []string) {
	t.Helper()
	ctx := context.Background()

	setup, err := f.mfa.SetupTOTP(ctx, accountID)
	require.NoError(t, err)

	code, err := security.NewTOTPService().GenerateForTime(setup.Secret, time.Now().Unix())
	require.NoError(t, err)
	require.NoError(t, f.mfa.EnableTOTP(ctx, accountID, code))

	return setup.Secret, setup.BackupCodes
}

// currentCode returns the TOTP code for the secret right now.
func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := security.NewTOTPService().GenerateForTime(secret, time.Now().Unix())
	require.NoError(t, err)
	return code
}

// parseMFAClaim verifies an access token against the fixture's signer and
// returns its mfa claim.
func parseMFAClaim(t *testing.T, f *fixture, accessToken string) bool {
	t.Helper()
	_, mfa, err := f.signer.VerifyAccessToken(accessToken)
	require.NoError(t, err)
	return mfa
}

// refreshRecord builds a stored refresh token row with the given expiry.
func refreshRecord(accountID uuid.UUID, expiresAt time.Time) *entity.RefreshToken {
	return &entity.RefreshToken{
		ID:        uuid.New(),
		AccountID: accountID,
		TokenHash: security.HashToken(uuid.NewString()),
		IssuedAt:  time.Now().Add(-time.Hour),
		ExpiresAt: expiresAt,
	}
}
