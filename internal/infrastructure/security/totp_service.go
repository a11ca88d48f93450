package security

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
)

// totpValidateOpts are the fixed RFC 6238 parameters this service uses:
// 30s period, 6 digits, HMAC-SHA1, one step of skew on either side.
var totpValidateOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// totpService implements domain service.TOTPService using pquerna/otp.
type totpService struct{}

// NewTOTPService creates a TOTPService with standard parameters.
func NewTOTPService() domainService.TOTPService {
	return &totpService{}
}

// GenerateSecret creates a 160-bit random secret, Base32-encoded without
// padding, matching what authenticator apps expect.
func (s *totpService) GenerateSecret() (string, error) {
	buf := make([]byte, 20)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// Verify checks code against secretBase32 at the current time with ±30s
// skew tolerance. Anything that is not exactly 6 characters is rejected
// before any cryptographic work.
func (s *totpService) Verify(secretBase32, code string) bool {
	if len(code) != 6 {
		return false
	}
	valid, err := totp.ValidateCustom(code, secretBase32, time.Now().UTC(), totpValidateOpts)
	if err != nil {
		// Malformed code or secret; treat as a plain mismatch.
		return false
	}
	return valid
}

// GenerateForTime returns the code for the 30s counter containing
// epochSeconds. Matches the RFC 6238 test vectors.
func (s *totpService) GenerateForTime(secretBase32 string, epochSeconds int64) (string, error) {
	code, err := totp.GenerateCodeCustom(secretBase32, time.Unix(epochSeconds, 0).UTC(), totpValidateOpts)
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP code: %w", err)
	}
	return code, nil
}

// OtpauthURL renders the standard enrollment URL for authenticator apps.
func (s *totpService) OtpauthURL(issuer, label, secretBase32 string) string {
	return "otpauth://totp/" + url.QueryEscape(issuer) + ":" + url.QueryEscape(label) +
		"?secret=" + secretBase32 + "&issuer=" + url.QueryEscape(issuer)
}

var _ domainService.TOTPService = (*totpService)(nil)
