package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the auth domain. Services return these (possibly
// wrapped); the HTTP layer maps them to status codes and stable API codes.
var (
	ErrInternal      = errors.New("internal error")
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")

	// Credentials and login flow.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")

	// MFA.
	ErrMFARequired         = errors.New("multi-factor authentication required")
	ErrMFANotSetUp         = errors.New("totp is not set up for this account")
	ErrMFANotEnabled       = errors.New("totp is not enabled for this account")
	ErrInvalidMFACode      = errors.New("invalid mfa code")
	ErrMFAFactorNotAllowed = errors.New("mfa factor not allowed for this login")
	ErrChallengeInvalid    = errors.New("login challenge invalid or expired")

	// Refresh tokens.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrExpiredRefreshToken = errors.New("refresh token expired")

	// MFA secret crypto.
	ErrInvalidEnvelope = errors.New("invalid encryption envelope")
	ErrDecryptFailed   = errors.New("decryption failed")
)

// ConfigurationError reports a fatal misconfiguration detected at
// construction time. A service must not start when one is returned.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Msg)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError creates a fatal configuration error.
func NewConfigurationError(msg string, err error) *ConfigurationError {
	return &ConfigurationError{Msg: msg, Err: err}
}

// RateLimitError is returned when an attempt budget is exhausted.
// RetryAfter tells the caller when the current window resets.
type RateLimitError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: too many attempts, retry after %s", e.RetryAfter)
}

// IsRateLimited reports whether err is (or wraps) a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsUnauthorized reports whether err belongs to the credential/token family
// that should surface as 401.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrMFARequired) ||
		errors.Is(err, ErrInvalidMFACode) ||
		errors.Is(err, ErrMFAFactorNotAllowed) ||
		errors.Is(err, ErrChallengeInvalid) ||
		errors.Is(err, ErrInvalidRefreshToken) ||
		errors.Is(err, ErrExpiredRefreshToken)
}

// IsBadRequest reports whether err should surface as 400.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrMFANotSetUp) ||
		errors.Is(err, ErrMFANotEnabled) ||
		errors.Is(err, ErrInvalidEnvelope)
}

// IsConflict reports whether err should surface as 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrEmailTaken)
}
