package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
)

// defaultChallengeTTL bounds how long a password-verified login may wait
// for its second factor.
const defaultChallengeTTL = 300 * time.Second

// LoginChallengeStore holds pending MFA challenges in process memory,
// keyed by a one-time opaque ticket. Entries expire lazily against the
// wall clock; Consume is atomic, so no two callers can redeem the same
// ticket. State does not survive a restart, which is acceptable for a
// single-instance deployment.
type LoginChallengeStore struct {
	ttl   time.Duration
	store sync.Map // ticket string -> *entity.LoginChallenge
	now   func() time.Time
}

// NewLoginChallengeStore creates a store with the given TTL, defaulting to
// five minutes.
func NewLoginChallengeStore(ttl time.Duration) *LoginChallengeStore {
	if ttl <= 0 {
		ttl = defaultChallengeTTL
	}
	return &LoginChallengeStore{ttl: ttl, now: time.Now}
}

// Create mints a ticket for the authenticated account and records which
// factors may complete the login. The factor list is copied; callers cannot
// mutate it afterwards.
func (s *LoginChallengeStore) Create(account *entity.Account, allowedFactors []string) string {
	ticket := uuid.NewString()
	factors := make([]string, len(allowedFactors))
	copy(factors, allowedFactors)

	s.store.Store(ticket, &entity.LoginChallenge{
		Account:        account,
		AllowedFactors: factors,
		ExpiresAt:      s.now().Add(s.ttl),
	})
	return ticket
}

// Peek returns the challenge if present and not expired. Expired entries
// are evicted on the way out.
func (s *LoginChallengeStore) Peek(ticket string) (*entity.LoginChallenge, bool) {
	v, ok := s.store.Load(ticket)
	if !ok {
		return nil, false
	}
	ch := v.(*entity.LoginChallenge)
	if s.now().After(ch.ExpiresAt) {
		s.store.Delete(ticket)
		return nil, false
	}
	return ch, true
}

// Consume removes and returns the challenge. LoadAndDelete guarantees at
// most one caller wins for a given ticket.
func (s *LoginChallengeStore) Consume(ticket string) (*entity.LoginChallenge, bool) {
	v, ok := s.store.LoadAndDelete(ticket)
	if !ok {
		return nil, false
	}
	ch := v.(*entity.LoginChallenge)
	if s.now().After(ch.ExpiresAt) {
		return nil, false
	}
	return ch, true
}

// ClearExpired sweeps expired entries and returns how many were removed.
// Optional maintenance; Peek and Consume already self-evict.
func (s *LoginChallengeStore) ClearExpired() int {
	now := s.now()
	removed := 0
	s.store.Range(func(key, value interface{}) bool {
		if now.After(value.(*entity.LoginChallenge).ExpiresAt) {
			if _, loaded := s.store.LoadAndDelete(key); loaded {
				removed++
			}
		}
		return true
	})
	return removed
}
