package engine_test

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"cardclash/backend/internal/engine"
	"cardclash/backend/internal/store/memory"
)

const testDeckID = uint(1)

// The test deck's five attribute ids.
var (
	attrPower = uint(11)
	attrSpeed = uint(12)
	deckAttrs = []uint{11, 12, 13, 14, 15}
)

// rig wires the engine services against a fresh in-memory store.
type rig struct {
	store    *memory.Store
	registry *engine.Registry
	dealer   *engine.Dealer
	turns    *engine.TurnEngine
	resolver *engine.Resolver
}

func newRig(t *testing.T) *rig {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	s := memory.New()
	locks := engine.NewLocker()
	resolver := engine.NewResolver(s)
	return &rig{
		store:    s,
		registry: engine.NewRegistry(s, s, locks, resolver, log),
		dealer:   engine.NewDealer(s, s, locks, log),
		turns:    engine.NewTurnEngine(s, s, locks, resolver, log),
		resolver: resolver,
	}
}

// card builds a deck card whose five attribute values all equal v, so a test
// can pick any attribute and know what gets revealed.
func card(id uint, v int) engine.CardInfo {
	values := make(map[uint]int, len(deckAttrs))
	for _, attr := range deckAttrs {
		values[attr] = v
	}
	return engine.CardInfo{ID: id, Values: values}
}

// seedDeck registers the test deck with the given pool.
func (r *rig) seedDeck(cards ...engine.CardInfo) {
	r.store.AddDeck(engine.DeckInfo{
		ID:           testDeckID,
		Name:         "test deck",
		Available:    true,
		AttributeIDs: deckAttrs,
	}, cards)
}

// newLobby creates a lobby for host and joins the other players.
func (r *rig) newLobby(t *testing.T, hostID uint, others ...uint) uint {
	t.Helper()
	lobby, err := r.registry.Create(hostID, "battle room", testDeckID)
	require.NoError(t, err)
	for _, userID := range others {
		_, err := r.registry.Join(userID, lobby.ID)
		require.NoError(t, err)
	}
	return lobby.ID
}

// startedLobby creates, starts and distributes a lobby. Cards are dealt
// round-robin by card id over the seating order host, others...
func (r *rig) startedLobby(t *testing.T, hostID uint, others ...uint) uint {
	t.Helper()
	lobbyID := r.newLobby(t, hostID, others...)
	require.NoError(t, r.registry.Start(hostID, lobbyID))
	require.NoError(t, r.dealer.Distribute(lobbyID, hostID))
	return lobbyID
}

// requireKind asserts err is an engine error of the given kind.
func requireKind(t *testing.T, err error, kind engine.Kind) {
	t.Helper()
	require.Error(t, err)
	e := engine.AsError(err)
	require.NotNil(t, e, "expected a typed engine error, got %v", err)
	require.Equal(t, kind, e.Kind, "messages: %v", e.Messages)
}
