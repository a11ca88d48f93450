package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
)

// GenerateOpaqueToken creates a URL-safe random token with byteLength bytes
// of entropy, base64url-encoded without padding. Refresh tokens use 32 bytes
// (256 bits).
func GenerateOpaqueToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = 32
	}
	buf := make([]byte, byteLength)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes for token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the base64-encoded SHA-256 digest of a token. Stored
// tokens are looked up by this digest; the plaintext is never persisted.
func HashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// ConstantTimeEquals compares two digests without leaking the position of
// the first mismatch.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
