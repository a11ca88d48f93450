package service

// TOTPService defines the interface for time-based one-time password
// operations (RFC 6238 over RFC 4226 HOTP).
type TOTPService interface {
	// GenerateSecret creates a fresh random 160-bit secret, Base32-encoded
	// without padding.
	GenerateSecret() (string, error)

	// Verify checks a 6-digit code against the secret at the current time,
	// tolerating one 30s step of clock skew in either direction. Codes that
	// are not exactly 6 characters are rejected without computing anything.
	Verify(secretBase32, code string) bool

	// GenerateForTime returns the 6-digit code for the counter containing
	// epochSeconds. Deterministic; used by enrollment tests and tooling.
	GenerateForTime(secretBase32 string, epochSeconds int64) (string, error)

	// OtpauthURL renders the enrollment URL
	// otpauth://totp/<issuer>:<label>?secret=<secret>&issuer=<issuer>
	// with issuer and label percent-encoded. Display-only, not a security
	// boundary.
	OtpauthURL(issuer, label, secretBase32 string) string
}
