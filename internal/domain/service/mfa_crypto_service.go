package service

// MFACryptoService wraps the TOTP secret at rest. In encrypted mode values
// are AES-256-GCM envelopes of the form enc:<kid>:<nonce_b64url>:<ct_b64url>;
// in passthrough mode (no key configured, local/dev only) both operations
// are identity functions.
type MFACryptoService interface {
	// Encrypt seals the plaintext into an envelope, or returns it unchanged
	// in passthrough mode.
	Encrypt(plaintext string) (string, error)

	// Decrypt opens an envelope. Values without the "enc:" prefix are
	// returned unchanged, which lets previously-unencrypted secrets migrate
	// without a backfill. Returns errors.ErrInvalidEnvelope on a malformed
	// envelope and errors.ErrDecryptFailed when authentication fails.
	Decrypt(stored string) (string, error)

	// IsEncrypted reports whether the stored value carries the envelope
	// prefix.
	IsEncrypted(stored string) bool
}
