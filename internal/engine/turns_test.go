package engine_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardclash/backend/internal/engine"
	"cardclash/backend/internal/models"
)

func TestPlayFirstCardValidation(t *testing.T) {
	r := newRig(t)
	r.seedDeck(card(1, 7), card(2, 3), card(3, 5), card(4, 2))

	t.Run("before distribution", func(t *testing.T) {
		lobbyID := r.newLobby(t, 1, 2)
		require.NoError(t, r.registry.Start(1, lobbyID))
		_, err := r.turns.PlayFirstCard(lobbyID, 1, attrPower)
		requireKind(t, err, engine.KindNotDistributed)
	})

	t.Run("non-host cannot open round one", func(t *testing.T) {
		lobbyID := r.startedLobby(t, 3, 4)
		_, err := r.turns.PlayFirstCard(lobbyID, 4, attrPower)
		requireKind(t, err, engine.KindForbidden)
	})

	t.Run("missing attribute", func(t *testing.T) {
		lobbyID := r.startedLobby(t, 5, 6)
		_, err := r.turns.PlayFirstCard(lobbyID, 5, 0)
		requireKind(t, err, engine.KindInvalidAttribute)
	})

	t.Run("foreign attribute", func(t *testing.T) {
		lobbyID := r.startedLobby(t, 7, 8)
		_, err := r.turns.PlayFirstCard(lobbyID, 7, 999)
		requireKind(t, err, engine.KindInvalidAttribute)
	})

	t.Run("before start", func(t *testing.T) {
		lobbyID := r.newLobby(t, 9, 10)
		_, err := r.turns.PlayFirstCard(lobbyID, 9, attrPower)
		requireKind(t, err, engine.KindNotStarted)
	})
}

func TestPlayFirstCardOpensRound(t *testing.T) {
	r := newRig(t)
	r.seedDeck(card(1, 7), card(2, 3), card(3, 5), card(4, 2))
	lobbyID := r.startedLobby(t, 1, 2)

	result, err := r.turns.PlayFirstCard(lobbyID, 1, attrSpeed)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Round)
	assert.Equal(t, uint(1), result.CardID)
	assert.Equal(t, 7, result.Value)
	assert.Equal(t, uint(2), result.NextTurnUserID)
	assert.Nil(t, result.Outcome)

	flow, err := r.store.GetFlow(lobbyID)
	require.NoError(t, err)
	require.NotNil(t, flow.ChosenAttributeID)
	assert.Equal(t, attrSpeed, *flow.ChosenAttributeID)

	t.Run("cannot open twice", func(t *testing.T) {
		_, err := r.turns.PlayFirstCard(lobbyID, 2, attrSpeed)
		requireKind(t, err, engine.KindConflict)
	})
}

func TestPlayTurnValidation(t *testing.T) {
	r := newRig(t)
	r.seedDeck(card(1, 7), card(2, 3), card(3, 5), card(4, 2))

	t.Run("attribute not chosen", func(t *testing.T) {
		lobbyID := r.startedLobby(t, 1, 2)
		_, err := r.turns.PlayTurn(lobbyID, 2)
		requireKind(t, err, engine.KindAttributeNotChosen)
	})

	t.Run("out of turn leaves the flow unchanged", func(t *testing.T) {
		lobbyID := r.startedLobby(t, 3, 4)
		_, err := r.turns.PlayFirstCard(lobbyID, 3, attrPower)
		require.NoError(t, err)

		before, err := r.store.GetFlow(lobbyID)
		require.NoError(t, err)

		_, err = r.turns.PlayTurn(lobbyID, 3)
		requireKind(t, err, engine.KindOutOfTurn)

		after, err := r.store.GetFlow(lobbyID)
		require.NoError(t, err)
		assert.Equal(t, before.CurrentTurnUserID, after.CurrentTurnUserID)
		assert.Equal(t, before.CurrentRound, after.CurrentRound)

		plays, err := r.store.PlayedCards(lobbyID, 1)
		require.NoError(t, err)
		assert.Len(t, plays, 1, "rejected play must not be recorded")
	})
}

func TestRoundCompletionWithThreePlayers(t *testing.T) {
	r := newRig(t)
	r.seedDeck(card(1, 7), card(2, 7), card(3, 3), card(4, 1), card(5, 1), card(6, 1))
	lobbyID := r.startedLobby(t, 1, 2, 3)

	first, err := r.turns.PlayFirstCard(lobbyID, 1, attrPower)
	require.NoError(t, err)
	assert.Nil(t, first.Outcome, "round open is not completion")

	second, err := r.turns.PlayTurn(lobbyID, 2)
	require.NoError(t, err)
	assert.Nil(t, second.Outcome, "two of three plays do not close the round")
	assert.Equal(t, uint(3), second.NextTurnUserID)

	third, err := r.turns.PlayTurn(lobbyID, 3)
	require.NoError(t, err)
	require.NotNil(t, third.Outcome, "the third play closes the round")
}

func TestWinnerOpensNextRound(t *testing.T) {
	r := newRig(t)
	// host reveals 3, the second seat reveals 7 and must take the next turn
	r.seedDeck(card(1, 3), card(2, 7), card(3, 1), card(4, 1))
	lobbyID := r.startedLobby(t, 1, 2)

	_, err := r.turns.PlayFirstCard(lobbyID, 1, attrPower)
	require.NoError(t, err)

	result, err := r.turns.PlayTurn(lobbyID, 2)
	require.NoError(t, err)
	require.NotNil(t, result.Outcome)
	assert.False(t, result.Outcome.Draw)
	assert.Equal(t, uint(2), result.Outcome.WinnerUserID)
	assert.Equal(t, uint(2), result.Outcome.WinningCardID)
	assert.Equal(t, 7, result.Outcome.Value)
	assert.False(t, result.Finished)

	flow, err := r.store.GetFlow(lobbyID)
	require.NoError(t, err)
	assert.Equal(t, 2, flow.CurrentRound)
	assert.Nil(t, flow.ChosenAttributeID, "attribute resets between rounds")
	assert.Equal(t, uint(2), flow.CurrentTurnUserID, "the winner opens the next round")

	t.Run("host cannot open round two", func(t *testing.T) {
		_, err := r.turns.PlayFirstCard(lobbyID, 1, attrPower)
		requireKind(t, err, engine.KindOutOfTurn)
	})

	t.Run("winner opens round two", func(t *testing.T) {
		_, err := r.turns.PlayFirstCard(lobbyID, 2, attrSpeed)
		require.NoError(t, err)
	})
}

func TestDrawContinuesSeatingOrder(t *testing.T) {
	r := newRig(t)
	// seats 1, 2, 3 reveal 7, 7, 3: a draw between seats 1 and 2
	r.seedDeck(card(1, 7), card(2, 7), card(3, 3), card(4, 1), card(5, 1), card(6, 1))
	lobbyID := r.startedLobby(t, 1, 2, 3)

	_, err := r.turns.PlayFirstCard(lobbyID, 1, attrPower)
	require.NoError(t, err)
	_, err = r.turns.PlayTurn(lobbyID, 2)
	require.NoError(t, err)

	result, err := r.turns.PlayTurn(lobbyID, 3)
	require.NoError(t, err)
	require.NotNil(t, result.Outcome)
	assert.True(t, result.Outcome.Draw)
	assert.Equal(t, []uint{1, 2}, result.Outcome.Tied)

	flow, err := r.store.GetFlow(lobbyID)
	require.NoError(t, err)
	assert.Equal(t, 2, flow.CurrentRound, "the round increments on a draw too")
	assert.Equal(t, uint(1), flow.CurrentTurnUserID, "seat after the closing player opens a drawn round")
}

func TestMatchFinishesWhenHandsRunOut(t *testing.T) {
	r := newRig(t)
	r.seedDeck(card(1, 7), card(2, 3))
	lobbyID := r.startedLobby(t, 1, 2)

	_, err := r.turns.PlayFirstCard(lobbyID, 1, attrPower)
	require.NoError(t, err)

	result, err := r.turns.PlayTurn(lobbyID, 2)
	require.NoError(t, err)
	require.NotNil(t, result.Outcome)
	assert.True(t, result.Finished)

	lobby, err := r.registry.Get(lobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.LobbyFinished, lobby.Status)
}

func TestTurnRace(t *testing.T) {
	r := newRig(t)
	r.seedDeck(card(1, 7), card(2, 3), card(3, 5), card(4, 2))
	lobbyID := r.startedLobby(t, 1, 2)

	_, err := r.turns.PlayFirstCard(lobbyID, 1, attrPower)
	require.NoError(t, err)

	// two racing attempts at the same turn: exactly one may land
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.turns.PlayTurn(lobbyID, 2)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.NotNil(t, engine.AsError(err))
		}
	}
	assert.Equal(t, 1, succeeded)

	plays, err := r.store.PlayedCards(lobbyID, 1)
	require.NoError(t, err)
	assert.Len(t, plays, 2, "one open plus exactly one accepted follow play")
}

func TestMatchStateView(t *testing.T) {
	r := newRig(t)
	r.seedDeck(card(1, 7), card(2, 3), card(3, 5), card(4, 2), card(5, 1), card(6, 1))
	lobbyID := r.startedLobby(t, 1, 2, 3)

	_, err := r.turns.PlayFirstCard(lobbyID, 1, attrPower)
	require.NoError(t, err)

	state, err := r.turns.State(lobbyID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Round)
	assert.Equal(t, uint(2), state.CurrentTurnUserID)
	require.NotNil(t, state.ChosenAttributeID)
	assert.Equal(t, attrPower, *state.ChosenAttributeID)
	assert.Len(t, state.Played, 1)
	assert.Equal(t, []uint{2, 3}, state.Remaining)
}
