package models

// TokenPair is the result of a successful token issuance.
type TokenPair struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

// Challenge describes a pending MFA challenge returned instead of tokens.
type Challenge struct {
	LoginTicket    string   `json:"loginTicket"`
	AllowedFactors []string `json:"allowedFactors"`
}

// LoginResult is the outcome of a login attempt: either a token pair, or a
// challenge when a second factor is still required. Exactly one of the two
// is set.
type LoginResult struct {
	Tokens    *TokenPair
	Challenge *Challenge
}

// MFARequired reports whether the login still needs a second factor.
func (r *LoginResult) MFARequired() bool { return r.Challenge != nil }

// MFASetupResult carries the plaintext secret and backup codes produced by
// TOTP setup. This is the only moment plaintext leaves the vault; callers
// must not log or persist it.
type MFASetupResult struct {
	Secret      string   `json:"secret"`
	OtpauthURL  string   `json:"otpauthUrl"`
	BackupCodes []string `json:"backupCodes"`
}

// MFA factor names accepted by the login-complete step.
const (
	FactorTOTP       = "TOTP"
	FactorBackupCode = "BACKUP_CODE"
)
