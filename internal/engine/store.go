package engine

import "cardclash/backend/internal/models"

// Store is the persistence port for all lobby-owned state. Implementations do
// not need their own concurrency control: the engine serializes every mutating
// call per lobby through its Locker. Lookups return nil (or ok=false) for
// absent records; only infrastructure faults surface as errors.
type Store interface {
	CreateLobby(lobby *models.Lobby) error
	GetLobby(id uint) (*models.Lobby, error)
	SaveLobby(lobby *models.Lobby) error
	// DeleteLobby removes the lobby with its memberships, hands, flow and
	// played cards.
	DeleteLobby(id uint) error

	// Members returns the lobby's members in seating (insertion) order.
	Members(lobbyID uint) ([]models.LobbyMember, error)
	// MemberLobby reports which lobby, if any, the user currently sits in.
	MemberLobby(userID uint) (uint, bool, error)
	AddMember(lobbyID, userID uint) error
	RemoveMember(lobbyID, userID uint) error

	// SaveHands persists the dealt hands, one ordered card list per user.
	SaveHands(lobbyID uint, hands map[uint][]uint) error
	// PopTopCard removes and returns the user's top card. ok is false when
	// the hand is empty or was never dealt.
	PopTopCard(lobbyID, userID uint) (cardID uint, ok bool, err error)
	// HandCounts returns remaining card counts keyed by user id.
	HandCounts(lobbyID uint) (map[uint]int, error)
	DeleteHand(lobbyID, userID uint) error

	GetFlow(lobbyID uint) (*models.GameFlow, error)
	SaveFlow(flow *models.GameFlow) error

	PlayedCards(lobbyID uint, round int) ([]models.PlayedCard, error)
	AppendPlayedCard(play *models.PlayedCard) error
	// DeletePlayedCard drops the user's play for the round, if any. Used when
	// a player leaves mid-round so their card cannot decide the verdict.
	DeletePlayedCard(lobbyID uint, round int, userID uint) error
}

// DeckInfo is the engine's read-only view of a deck.
type DeckInfo struct {
	ID           uint
	Name         string
	Available    bool
	AttributeIDs []uint
}

// CardInfo is one card of a deck's pool with its attribute values.
type CardInfo struct {
	ID     uint
	Values map[uint]int
}

// DeckCatalog is the read port onto the deck authoring side. The engine never
// mutates decks.
type DeckCatalog interface {
	// GetDeck returns nil when the deck does not exist.
	GetDeck(deckID uint) (*DeckInfo, error)
	// Cards returns the deck's pool ordered by card id.
	Cards(deckID uint) ([]CardInfo, error)
	// CardValue reads one card's value for one attribute.
	CardValue(cardID, attributeID uint) (int, bool, error)
}
