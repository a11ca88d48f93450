package entity

import "time"

// LoginChallenge is a pending password-verified login awaiting a second
// factor. It lives only in the challenge store for its TTL and is never
// persisted.
type LoginChallenge struct {
	Account        *Account
	AllowedFactors []string
	ExpiresAt      time.Time
}

// FactorAllowed reports whether the given factor may complete this challenge.
func (c *LoginChallenge) FactorAllowed(factor string) bool {
	for _, f := range c.AllowedFactors {
		if f == factor {
			return true
		}
	}
	return false
}
