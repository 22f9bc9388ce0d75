package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardclash/backend/internal/engine"
	"cardclash/backend/internal/models"
)

func playCard(t *testing.T, r *rig, lobbyID uint, round int, userID, cardID uint, value int) {
	t.Helper()
	require.NoError(t, r.store.AppendPlayedCard(&models.PlayedCard{
		LobbyID: lobbyID,
		Round:   round,
		UserID:  userID,
		CardID:  cardID,
		Value:   value,
	}))
}

func TestDetermineWinner(t *testing.T) {
	r := newRig(t)
	playCard(t, r, 1, 1, 10, 100, 7)
	playCard(t, r, 1, 1, 20, 200, 3)

	verdict, err := r.resolver.DetermineWinner(1, 1, 2)
	require.NoError(t, err)
	assert.False(t, verdict.Draw)
	assert.Equal(t, uint(10), verdict.WinnerUserID)
	assert.Equal(t, uint(100), verdict.WinningCardID)
	assert.Equal(t, 7, verdict.Value)
	assert.Empty(t, verdict.Tied)
}

func TestDetermineWinnerDraw(t *testing.T) {
	r := newRig(t)
	playCard(t, r, 1, 1, 30, 300, 3)
	playCard(t, r, 1, 1, 10, 100, 7)
	playCard(t, r, 1, 1, 20, 200, 7)

	verdict, err := r.resolver.DetermineWinner(1, 1, 3)
	require.NoError(t, err)
	assert.True(t, verdict.Draw)
	assert.Equal(t, 7, verdict.Value)
	assert.Equal(t, []uint{10, 20}, verdict.Tied, "only the max holders tie, sorted")
	assert.Zero(t, verdict.WinnerUserID)
}

func TestDetermineWinnerIncomplete(t *testing.T) {
	r := newRig(t)
	playCard(t, r, 1, 1, 10, 100, 7)
	playCard(t, r, 1, 1, 20, 200, 3)

	_, err := r.resolver.DetermineWinner(1, 1, 3)
	requireKind(t, err, engine.KindIncomplete)
}

func TestDetermineWinnerIsScopedToRound(t *testing.T) {
	r := newRig(t)
	playCard(t, r, 1, 1, 10, 100, 9)
	playCard(t, r, 1, 2, 10, 101, 2)
	playCard(t, r, 1, 2, 20, 201, 5)

	verdict, err := r.resolver.DetermineWinner(1, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(20), verdict.WinnerUserID, "round one's high card must not leak into round two")
}
