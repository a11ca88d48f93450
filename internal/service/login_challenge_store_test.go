package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conava/Fortalis-Auth/internal/domain/entity"
	"github.com/Conava/Fortalis-Auth/internal/domain/models"
)

func testAccount() *entity.Account {
	return &entity.Account{ID: uuid.New(), Email: "player@example.com"}
}

func TestChallengeStore_CreateAndPeek(t *testing.T) {
	store := NewLoginChallengeStore(5 * time.Minute)
	account := testAccount()

	ticket := store.Create(account, []string{models.FactorTOTP, models.FactorBackupCode})
	require.NotEmpty(t, ticket)

	ch, ok := store.Peek(ticket)
	require.True(t, ok)
	assert.Equal(t, account.ID, ch.Account.ID)
	assert.True(t, ch.FactorAllowed(models.FactorTOTP))
	assert.True(t, ch.FactorAllowed(models.FactorBackupCode))
	assert.False(t, ch.FactorAllowed("SMS"))

	// Peek does not consume.
	_, ok = store.Peek(ticket)
	assert.True(t, ok)
}

func TestChallengeStore_ConsumeIsSingleUse(t *testing.T) {
	store := NewLoginChallengeStore(5 * time.Minute)
	ticket := store.Create(testAccount(), []string{models.FactorTOTP})

	_, ok := store.Consume(ticket)
	require.True(t, ok)

	_, ok = store.Consume(ticket)
	assert.False(t, ok)
	_, ok = store.Peek(ticket)
	assert.False(t, ok)
}

func TestChallengeStore_ConsumeHasOneWinner(t *testing.T) {
	store := NewLoginChallengeStore(5 * time.Minute)
	ticket := store.Create(testAccount(), []string{models.FactorTOTP})

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := store.Consume(ticket); ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)
}

func TestChallengeStore_Expiry(t *testing.T) {
	store := NewLoginChallengeStore(5 * time.Minute)
	current := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return current }

	ticket := store.Create(testAccount(), []string{models.FactorTOTP})

	current = current.Add(5*time.Minute - time.Second)
	_, ok := store.Peek(ticket)
	assert.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok = store.Peek(ticket)
	assert.False(t, ok)
	_, ok = store.Consume(ticket)
	assert.False(t, ok)
}

func TestChallengeStore_UnknownTicket(t *testing.T) {
	store := NewLoginChallengeStore(5 * time.Minute)

	_, ok := store.Peek(uuid.NewString())
	assert.False(t, ok)
	_, ok = store.Consume(uuid.NewString())
	assert.False(t, ok)
}

func TestChallengeStore_ClearExpired(t *testing.T) {
	store := NewLoginChallengeStore(5 * time.Minute)
	current := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return current }

	store.Create(testAccount(), []string{models.FactorTOTP})
	store.Create(testAccount(), []string{models.FactorTOTP})

	current = current.Add(10 * time.Minute)
	fresh := store.Create(testAccount(), []string{models.FactorTOTP})

	assert.Equal(t, 2, store.ClearExpired())
	_, ok := store.Peek(fresh)
	assert.True(t, ok)
}

func TestChallengeStore_FactorListIsCopied(t *testing.T) {
	store := NewLoginChallengeStore(5 * time.Minute)
	factors := []string{models.FactorTOTP}

	ticket := store.Create(testAccount(), factors)
	factors[0] = "SMS"

	ch, ok := store.Peek(ticket)
	require.True(t, ok)
	assert.True(t, ch.FactorAllowed(models.FactorTOTP))
	assert.False(t, ch.FactorAllowed("SMS"))
}
