package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	"github.com/Conava/Fortalis-Auth/internal/domain/models"
	"github.com/Conava/Fortalis-Auth/internal/events"
)

const clientIP = "198.51.100.7"

func TestLogin_WithoutMFA(t *testing.T) {
	f := newFixture(t)
	f.register(t, "player@example.com", "hunter2hunter2")

	result, err := f.login.Login(context.Background(), "player@example.com", "hunter2hunter2", clientIP)
	require.NoError(t, err)

	require.False(t, result.MFARequired())
	require.NotNil(t, result.Tokens)
	assert.False(t, parseMFAClaim(t, f, result.Tokens.AccessToken))
	assert.Contains(t, f.published.typesSeen(), events.TypeLoginSucceeded)
}

func TestLogin_PrincipalIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.register(t, "player@example.com", "hunter2hunter2")

	result, err := f.login.Login(context.Background(), "  Player@Example.COM ", "hunter2hunter2", clientIP)
	require.NoError(t, err)
	assert.NotNil(t, result.Tokens)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "player@example.com", "hunter2hunter2")

	_, err := f.login.Login(context.Background(), "player@example.com", "wrong", clientIP)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidCredentials)
}

func TestLogin_UnknownPrincipalLooksLikeWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "player@example.com", "hunter2hunter2")

	_, errUnknown := f.login.Login(context.Background(), "ghost@example.com", "whatever", clientIP)
	_, errWrong := f.login.Login(context.Background(), "player@example.com", "wrong", clientIP)

	assert.ErrorIs(t, errUnknown, domainErrors.ErrInvalidCredentials)
	assert.Equal(t, errWrong, errUnknown)
}

func TestLogin_MFAEnabledReturnsChallenge(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "player@example.com", "hunter2hunter2")
	f.enrollTOTP(t, account.ID)

	result, err := f.login.Login(context.Background(), "player@example.com", "hunter2hunter2", clientIP)
	require.NoError(t, err)

	require.True(t, result.MFARequired())
	assert.Nil(t, result.Tokens)
	assert.NotEmpty(t, result.Challenge.LoginTicket)
	assert.ElementsMatch(t,
		[]string{models.FactorTOTP, models.FactorBackupCode},
		result.Challenge.AllowedFactors)
}

func TestLoginWithCode_WithoutMFA(t *testing.T) {
	f := newFixture(t)
	f.register(t, "player@example.com", "hunter2hunter2")

	result, err := f.login.LoginWithCode(context.Background(), "player@example.com", "hunter2hunter2", "", clientIP)
	require.NoError(t, err)

	require.NotNil(t, result.Tokens)
	assert.False(t, parseMFAClaim(t, f, result.Tokens.AccessToken))
}

func TestLoginWithCode_MFAEnabledWithoutCode(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "player@example.com", "hunter2hunter2")
	f.enrollTOTP(t, account.ID)

	_, err := f.login.LoginWithCode(context.Background(), "player@example.com", "hunter2hunter2", "", clientIP)
	assert.ErrorIs(t, err, domainErrors.ErrMFARequired)
}

func TestLoginWithCode_WithInlineTOTP(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "player@example.com", "hunter2hunter2")
	secret, _ := f.enrollTOTP(t, account.ID)

	result, err := f.login.LoginWithCode(context.Background(), "player@example.com", "hunter2hunter2", currentCode(t, secret), clientIP)
	require.NoError(t, err)

	require.NotNil(t, result.Tokens)
	assert.True(t, parseMFAClaim(t, f, result.Tokens.AccessToken))
	assert.Contains(t, f.published.typesSeen(), events.TypeLoginSucceeded)
}

func TestLoginWithCode_WithInlineBackupCode(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "player@example.com", "hunter2hunter2")
	_, codes := f.enrollTOTP(t, account.ID)

	result, err := f.login.LoginWithCode(context.Background(), "player@example.com", "hunter2hunter2", codes[0], clientIP)
	require.NoError(t, err)
	require.NotNil(t, result.Tokens)

	// The code was consumed and cannot carry a second login.
	_, err = f.login.LoginWithCode(context.Background(), "player@example.com", "hunter2hunter2", codes[0], clientIP)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidMFACode)
}

func TestLoginWithCode_WrongCode(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "player@example.com", "hunter2hunter2")
	f.enrollTOTP(t, account.ID)

	_, err := f.login.LoginWithCode(context.Background(), "player@example.com", "hunter2hunter2", "0000-0000", clientIP)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidMFACode)
}

func TestCompleteLogin_WithTOTP(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "player@example.com", "hunter2hunter2")
	secret, _ := f.enrollTOTP(t, account.ID)
	ctx := context.Background()

	start, err := f.login.Login(ctx, "player@example.com", "hunter2hunter2", clientIP)
	require.NoError(t, err)
	require.True(t, start.MFARequired())

	done, err := f.login.CompleteLogin(ctx, start.Challenge.LoginTicket, models.FactorTOTP, currentCode(t, secret))
	require.NoError(t, err)

	require.NotNil(t, done.Tokens)
	assert.True(t, parseMFAClaim(t, f, done.Tokens.AccessToken))

	// The ticket was consumed.
	_, err = f.login.CompleteLogin(ctx, start.Challenge.LoginTicket, models.FactorTOTP, currentCode(t, secret))
	assert.ErrorIs(t, err, domainErrors.ErrChallengeInvalid)
}

func TestCompleteLogin_WithBackupCode(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "player@example.com", "hunter2hunter2")
	_, codes := f.enrollTOTP(t, account.ID)
	ctx := context.Background()

	start, err := f.login.Login(ctx, "player@example.com", "hunter2hunter2", clientIP)
	require.NoError(t, err)

	done, err := f.login.CompleteLogin(ctx, start.Challenge.LoginTicket, models.FactorBackupCode, codes[0])
	require.NoError(t, err)
	require.NotNil(t, done.Tokens)
	assert.Contains(t, f.published.typesSeen(), events.TypeBackupCodeUsed)
}

func TestCompleteLogin_WrongCodeKeepsTicketAlive(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "player@example.com", "hunter2hunter2")
	secret, _ := f.enrollTOTP(t, account.ID)
	ctx := context.Background()

	start, err := f.login.Login(ctx, "player@example.com", "hunter2hunter2", clientIP)
	require.NoError(t, err)

	_, err = f.login.CompleteLogin(ctx, start.Challenge.LoginTicket, models.FactorTOTP, "0000-0000")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidMFACode)

	// The failed attempt did not consume the challenge.
	done, err := f.login.CompleteLogin(ctx, start.Challenge.LoginTicket, models.FactorTOTP, currentCode(t, secret))
	require.NoError(t, err)
	assert.NotNil(t, done.Tokens)
}

func TestCompleteLogin_UnknownTicket(t *testing.T) {
	f := newFixture(t)

	_, err := f.login.CompleteLogin(context.Background(), "no-such-ticket", models.FactorTOTP, "123456")
	assert.ErrorIs(t, err, domainErrors.ErrChallengeInvalid)
}

func TestCompleteLogin_FactorNotAllowed(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "player@example.com", "hunter2hunter2")
	f.enrollTOTP(t, account.ID)
	ctx := context.Background()

	start, err := f.login.Login(ctx, "player@example.com", "hunter2hunter2", clientIP)
	require.NoError(t, err)

	_, err = f.login.CompleteLogin(ctx, start.Challenge.LoginTicket, "SMS", "123456")
	assert.ErrorIs(t, err, domainErrors.ErrMFAFactorNotAllowed)
}

func TestLogin_PrincipalRateLimit(t *testing.T) {
	f := newFixture(t)
	f.register(t, "player@example.com", "hunter2hunter2")
	ctx := context.Background()

	// The principal budget is 5 per window; the IP budget of 20 stays out
	// of the way.
	for i := 0; i < 5; i++ {
		_, err := f.login.Login(ctx, "player@example.com", "wrong", clientIP)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidCredentials)
	}

	_, err := f.login.Login(ctx, "player@example.com", "hunter2hunter2", clientIP)
	require.Error(t, err)
	assert.True(t, domainErrors.IsRateLimited(err))
}

func TestLogin_SuccessClearsPrincipalBudget(t *testing.T) {
	f := newFixture(t)
	f.register(t, "player@example.com", "hunter2hunter2")
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := f.login.Login(ctx, "player@example.com", "wrong", clientIP)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidCredentials)
	}

	// Last slot in the window succeeds and resets the budget.
	_, err := f.login.Login(ctx, "player@example.com", "hunter2hunter2", clientIP)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := f.login.Login(ctx, "player@example.com", "wrong", clientIP)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidCredentials)
	}
}

func TestCompleteLogin_TicketRateLimit(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "player@example.com", "hunter2hunter2")
	f.enrollTOTP(t, account.ID)
	ctx := context.Background()

	start, err := f.login.Login(ctx, "player@example.com", "hunter2hunter2", clientIP)
	require.NoError(t, err)

	// Five guesses per ticket, then the limiter steps in.
	for i := 0; i < 5; i++ {
		_, err := f.login.CompleteLogin(ctx, start.Challenge.LoginTicket, models.FactorTOTP, "0000-0000")
		assert.ErrorIs(t, err, domainErrors.ErrInvalidMFACode)
	}

	_, err = f.login.CompleteLogin(ctx, start.Challenge.LoginTicket, models.FactorTOTP, "0000-0000")
	require.Error(t, err)
	assert.True(t, domainErrors.IsRateLimited(err))
}
