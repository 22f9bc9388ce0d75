package engine_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardclash/backend/internal/engine"
)

func TestDistribute(t *testing.T) {
	r := newRig(t)
	r.seedDeck(card(1, 1), card(2, 2), card(3, 3), card(4, 4), card(5, 5))
	lobbyID := r.newLobby(t, 1, 2)
	require.NoError(t, r.registry.Start(1, lobbyID))

	require.NoError(t, r.dealer.Distribute(lobbyID, 1))

	counts, err := r.store.HandCounts(lobbyID)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[1], "earlier seats absorb the remainder")
	assert.Equal(t, 2, counts[2])

	// round-robin by card id: host gets 1,3,5 and the second seat 2,4
	first, ok, err := r.store.PopTopCard(lobbyID, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint(1), first)
	second, ok, err := r.store.PopTopCard(lobbyID, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint(2), second)

	lobby, err := r.registry.Get(lobbyID)
	require.NoError(t, err)
	assert.True(t, lobby.Distributed)
}

func TestDistributeValidation(t *testing.T) {
	r := newRig(t)
	r.seedDeck(card(1, 1), card(2, 2))

	t.Run("before start", func(t *testing.T) {
		lobbyID := r.newLobby(t, 1, 2)
		requireKind(t, r.dealer.Distribute(lobbyID, 1), engine.KindNotStarted)
	})

	t.Run("non-host", func(t *testing.T) {
		lobbyID := r.newLobby(t, 3, 4)
		require.NoError(t, r.registry.Start(3, lobbyID))
		requireKind(t, r.dealer.Distribute(lobbyID, 4), engine.KindForbidden)
	})

	t.Run("twice", func(t *testing.T) {
		lobbyID := r.newLobby(t, 5, 6)
		require.NoError(t, r.registry.Start(5, lobbyID))
		require.NoError(t, r.dealer.Distribute(lobbyID, 5))
		requireKind(t, r.dealer.Distribute(lobbyID, 5), engine.KindAlreadyDistributed)
	})

	t.Run("unknown lobby", func(t *testing.T) {
		requireKind(t, r.dealer.Distribute(404, 1), engine.KindNotFound)
	})
}

func TestDistributeConcurrent(t *testing.T) {
	r := newRig(t)
	r.seedDeck(card(1, 1), card(2, 2), card(3, 3), card(4, 4))
	lobbyID := r.newLobby(t, 1, 2)
	require.NoError(t, r.registry.Start(1, lobbyID))

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.dealer.Distribute(lobbyID, 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			requireKind(t, err, engine.KindAlreadyDistributed)
		}
	}
	assert.Equal(t, 1, succeeded, "concurrent distributes must deal exactly once")

	counts, err := r.store.HandCounts(lobbyID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[1])
	assert.Equal(t, 2, counts[2])
}
