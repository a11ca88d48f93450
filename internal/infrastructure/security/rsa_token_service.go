package security

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	appConfig "github.com/Conava/Fortalis-Auth/internal/config"
	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
)

// AccessTokenClaims are the claims carried by access tokens. Region game
// servers verify sub and the mfa flag against the published JWKS.
type AccessTokenClaims struct {
	MFA bool `json:"mfa"`
	jwt.RegisteredClaims
}

// rsaTokenService implements TokenSigner with RS256.
type rsaTokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	keyID      string
	issuer     string
	audience   string
	accessTTL  time.Duration
}

// NewRSATokenService loads the signing key pair from the configured PEM
// files. Missing keys or TTLs are fatal configuration errors.
func NewRSATokenService(cfg appConfig.JWTConfig) (domainService.TokenSigner, error) {
	if cfg.RSAPrivateKeyPEMFile == "" || cfg.RSAPublicKeyPEMFile == "" {
		return nil, domainErrors.NewConfigurationError("RSA private and public key files must be configured", nil)
	}

	privateKeyBytes, err := os.ReadFile(cfg.RSAPrivateKeyPEMFile)
	if err != nil {
		return nil, domainErrors.NewConfigurationError("failed to read RSA private key PEM file", err)
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyBytes)
	if err != nil {
		return nil, domainErrors.NewConfigurationError("failed to parse RSA private key", err)
	}

	publicKeyBytes, err := os.ReadFile(cfg.RSAPublicKeyPEMFile)
	if err != nil {
		return nil, domainErrors.NewConfigurationError("failed to read RSA public key PEM file", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyBytes)
	if err != nil {
		return nil, domainErrors.NewConfigurationError("failed to parse RSA public key", err)
	}

	return newRSATokenService(privateKey, publicKey, cfg)
}

// NewRSATokenServiceWithKey builds a signer from an in-memory key pair.
// Used by tests and local tooling that generate throwaway keys.
func NewRSATokenServiceWithKey(key *rsa.PrivateKey, cfg appConfig.JWTConfig) (domainService.TokenSigner, error) {
	return newRSATokenService(key, &key.PublicKey, cfg)
}

func newRSATokenService(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, cfg appConfig.JWTConfig) (domainService.TokenSigner, error) {
	if cfg.AccessTokenTTL <= 0 {
		return nil, domainErrors.NewConfigurationError("access token TTL must be configured", nil)
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, domainErrors.NewConfigurationError("JWT issuer and audience must be configured", nil)
	}

	keyID := cfg.JWKSKeyID
	if keyID == "" {
		// Random kid so JWKS caches refresh when the key changes.
		kid, err := randomKeyID()
		if err != nil {
			return nil, domainErrors.NewConfigurationError("failed to generate JWKS key id", err)
		}
		keyID = kid
	}

	return &rsaTokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		keyID:      keyID,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTokenTTL,
	}, nil
}

// SignAccessToken creates an RS256 access token with the mfa claim.
func (s *rsaTokenService) SignAccessToken(accountID uuid.UUID, mfaEnabled bool) (string, error) {
	now := time.Now()
	claims := &AccessTokenClaims{
		MFA: mfaEnabled,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   accountID.String(),
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// VerifyAccessToken validates the signature, expiry, issuer and audience of
// an access token and returns its subject and mfa claim.
func (s *rsaTokenService) VerifyAccessToken(tokenString string) (uuid.UUID, bool, error) {
	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return s.publicKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("invalid access token: %w", err)
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("invalid access token subject: %w", err)
	}
	return accountID, claims.MFA, nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *rsaTokenService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// JWKS returns the public key as a single-entry JWK set.
func (s *rsaTokenService) JWKS() (map[string]interface{}, error) {
	jwk := map[string]interface{}{
		"kty": "RSA",
		"kid": s.keyID,
		"use": "sig",
		"alg": jwt.SigningMethodRS256.Alg(),
		"n":   base64.RawURLEncoding.EncodeToString(s.publicKey.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(s.publicKey.E)).Bytes()),
	}
	return map[string]interface{}{
		"keys": []map[string]interface{}{jwk},
	}, nil
}

func randomKeyID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var _ domainService.TokenSigner = (*rsaTokenService)(nil)
