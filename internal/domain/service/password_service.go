package service

// PasswordService defines the interface for password hashing and
// verification. The algorithm behind it is an implementation detail of the
// security layer.
type PasswordService interface {
	// Hash derives a self-describing digest from the plaintext.
	Hash(plaintext string) (string, error)

	// Matches verifies a plaintext against a stored digest using a
	// constant-time comparison.
	Matches(plaintext, encodedHash string) (bool, error)
}
