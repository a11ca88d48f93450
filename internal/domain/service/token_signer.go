package service

import (
	"time"

	"github.com/google/uuid"
)

// TokenSigner issues signed access tokens and exposes the verification keys.
// Access tokens carry iss, sub (account id), aud, iat, exp and a boolean
// "mfa" claim stating whether the account had MFA enabled at issuance.
type TokenSigner interface {
	// SignAccessToken creates and signs an access token for the account.
	SignAccessToken(accountID uuid.UUID, mfaEnabled bool) (string, error)

	// VerifyAccessToken validates a token's signature and time claims and
	// returns the account it was issued to plus the mfa claim.
	VerifyAccessToken(tokenString string) (accountID uuid.UUID, mfaEnabled bool, err error)

	// AccessTokenTTL returns the configured access token lifetime.
	AccessTokenTTL() time.Duration

	// JWKS returns the public key set in JWK format for verifiers
	// (region game servers fetch this at /.well-known/jwks.json).
	JWKS() (map[string]interface{}, error)
}
