package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
)

// envelopePrefix marks encrypted values: enc:<kid>:<nonce_b64url>:<ct_b64url>
const envelopePrefix = "enc:"

// aesGCMMFACryptoService implements MFACryptoService with AES-256-GCM.
// With no key configured it runs in passthrough mode, which must never be
// selected for a production deployment.
type aesGCMMFACryptoService struct {
	keyID       string
	gcm         cipher.AEAD
	passthrough bool
}

// NewMFACryptoService creates the crypto service. keyBase64 is the
// standard-base64 encoding of a 32-byte AES-256 key, or empty to select
// passthrough mode. A key of any other length is a fatal configuration
// error.
func NewMFACryptoService(keyBase64, keyID string) (domainService.MFACryptoService, error) {
	if strings.TrimSpace(keyBase64) == "" {
		if keyID == "" {
			keyID = "dev"
		}
		return &aesGCMMFACryptoService{keyID: keyID, passthrough: true}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, domainErrors.NewConfigurationError("mfa encryption key is not valid base64", err)
	}
	if len(raw) != 32 {
		return nil, domainErrors.NewConfigurationError(
			fmt.Sprintf("mfa encryption key must be 32 bytes (AES-256), got %d", len(raw)), nil)
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, domainErrors.NewConfigurationError("failed to initialize AES cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, domainErrors.NewConfigurationError("failed to initialize GCM mode", err)
	}

	if keyID == "" {
		keyID = "v1"
	}
	return &aesGCMMFACryptoService{keyID: keyID, gcm: gcm}, nil
}

// Encrypt seals plaintext under a fresh 96-bit nonce with a 128-bit tag.
func (s *aesGCMMFACryptoService) Encrypt(plaintext string) (string, error) {
	if s.passthrough {
		return plaintext, nil
	}

	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	ciphertext := s.gcm.Seal(nil, nonce, []byte(plaintext), nil)

	return envelopePrefix + s.keyID + ":" + b64u(nonce) + ":" + b64u(ciphertext), nil
}

// Decrypt opens an envelope. Non-prefixed values pass through unchanged so
// secrets stored before encryption was enabled keep working.
func (s *aesGCMMFACryptoService) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, envelopePrefix) {
		return stored, nil
	}
	if s.passthrough {
		// No key to open the envelope with; hand it back untouched.
		return stored, nil
	}

	parts := strings.SplitN(stored, ":", 4)
	if len(parts) != 4 {
		return "", domainErrors.ErrInvalidEnvelope
	}

	nonce, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: bad nonce encoding", domainErrors.ErrInvalidEnvelope)
	}
	ciphertext, err := base64.RawURLEncoding.DecodeString(parts[3])
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding", domainErrors.ErrInvalidEnvelope)
	}
	if len(nonce) != s.gcm.NonceSize() {
		return "", fmt.Errorf("%w: wrong nonce size", domainErrors.ErrInvalidEnvelope)
	}

	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", domainErrors.ErrDecryptFailed
	}
	return string(plaintext), nil
}

// IsEncrypted reports whether stored carries the envelope prefix. In
// passthrough mode nothing is ever encrypted, whatever the value looks like.
func (s *aesGCMMFACryptoService) IsEncrypted(stored string) bool {
	return !s.passthrough && strings.HasPrefix(stored, envelopePrefix)
}

func b64u(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

var _ domainService.MFACryptoService = (*aesGCMMFACryptoService)(nil)
