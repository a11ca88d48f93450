package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts password logins by outcome:
	// success, invalid_credentials, mfa_required, rate_limited, error.
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of password login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// ChallengeCompletions counts MFA challenge redemptions by outcome.
	ChallengeCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_challenge_completions_total",
			Help: "Total number of login challenge completions by outcome.",
		},
		[]string{"outcome"},
	)

	// TokenRefreshes counts refresh rotations by outcome:
	// success, invalid, expired, error.
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_refreshes_total",
			Help: "Total number of refresh token rotations by outcome.",
		},
		[]string{"outcome"},
	)

	// MFAVerifications counts login-time MFA code checks by factor and result.
	MFAVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_mfa_verifications_total",
			Help: "Total number of MFA code verifications by factor and result.",
		},
		[]string{"factor", "result"},
	)

	// RateLimitHits counts requests rejected by the rate limiter, by bucket
	// kind (ip, login, ticket).
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter.",
		},
		[]string{"bucket"},
	)
)
