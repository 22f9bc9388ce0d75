// Package memory holds an in-memory implementation of the engine's Store and
// DeckCatalog ports. It backs the engine tests and the local dev mode; it is
// not meant to survive a restart.
package memory

import (
	"sort"
	"sync"

	"cardclash/backend/internal/engine"
	"cardclash/backend/internal/models"
)

type playedKey struct {
	lobbyID uint
	round   int
}

// Store keeps all engine state in maps. The engine already serializes writes
// per lobby; the store's own mutex only protects the map structure across
// lobbies.
type Store struct {
	mu sync.Mutex

	nextLobbyID  uint
	nextMemberID uint

	lobbies map[uint]*models.Lobby
	members map[uint][]models.LobbyMember // seating order
	hands   map[uint]map[uint][]uint      // lobby -> user -> ordered card ids
	flows   map[uint]*models.GameFlow
	played  map[playedKey][]models.PlayedCard

	decks  map[uint]*engine.DeckInfo
	cards  map[uint][]engine.CardInfo // deck -> pool, ordered by card id
	values map[uint]map[uint]int      // card -> attribute -> value
}

func New() *Store {
	return &Store{
		lobbies: make(map[uint]*models.Lobby),
		members: make(map[uint][]models.LobbyMember),
		hands:   make(map[uint]map[uint][]uint),
		flows:   make(map[uint]*models.GameFlow),
		played:  make(map[playedKey][]models.PlayedCard),
		decks:   make(map[uint]*engine.DeckInfo),
		cards:   make(map[uint][]engine.CardInfo),
		values:  make(map[uint]map[uint]int),
	}
}

// AddDeck registers a deck and its card pool in the catalog side.
func (s *Store) AddDeck(deck engine.DeckInfo, cards []engine.CardInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := deck
	s.decks[deck.ID] = &d
	pool := append([]engine.CardInfo(nil), cards...)
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	s.cards[deck.ID] = pool
	for _, c := range pool {
		vals := make(map[uint]int, len(c.Values))
		for k, v := range c.Values {
			vals[k] = v
		}
		s.values[c.ID] = vals
	}
}

func (s *Store) CreateLobby(lobby *models.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLobbyID++
	lobby.ID = s.nextLobbyID
	cp := *lobby
	s.lobbies[lobby.ID] = &cp
	return nil
}

func (s *Store) GetLobby(id uint) (*models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *Store) SaveLobby(lobby *models.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *lobby
	s.lobbies[lobby.ID] = &cp
	return nil
}

func (s *Store) DeleteLobby(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, id)
	delete(s.members, id)
	delete(s.hands, id)
	delete(s.flows, id)
	for k := range s.played {
		if k.lobbyID == id {
			delete(s.played, k)
		}
	}
	return nil
}

func (s *Store) Members(lobbyID uint) ([]models.LobbyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LobbyMember(nil), s.members[lobbyID]...), nil
}

func (s *Store) MemberLobby(userID uint) (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for lobbyID, members := range s.members {
		for _, m := range members {
			if m.UserID == userID {
				return lobbyID, true, nil
			}
		}
	}
	return 0, false, nil
}

func (s *Store) AddMember(lobbyID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMemberID++
	m := models.LobbyMember{LobbyID: lobbyID, UserID: userID}
	m.ID = s.nextMemberID
	s.members[lobbyID] = append(s.members[lobbyID], m)
	return nil
}

func (s *Store) RemoveMember(lobbyID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.members[lobbyID]
	for i, m := range members {
		if m.UserID == userID {
			s.members[lobbyID] = append(members[:i:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) SaveHands(lobbyID uint, hands map[uint][]uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make(map[uint][]uint, len(hands))
	for uid, cards := range hands {
		stored[uid] = append([]uint(nil), cards...)
	}
	s.hands[lobbyID] = stored
	return nil
}

func (s *Store) PopTopCard(lobbyID, userID uint) (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hands, ok := s.hands[lobbyID]
	if !ok || len(hands[userID]) == 0 {
		return 0, false, nil
	}
	card := hands[userID][0]
	hands[userID] = hands[userID][1:]
	return card, true, nil
}

func (s *Store) HandCounts(lobbyID uint) (map[uint]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[uint]int)
	for uid, cards := range s.hands[lobbyID] {
		counts[uid] = len(cards)
	}
	return counts, nil
}

func (s *Store) DeleteHand(lobbyID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hands, ok := s.hands[lobbyID]; ok {
		delete(hands, userID)
	}
	return nil
}

func (s *Store) GetFlow(lobbyID uint) (*models.GameFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[lobbyID]
	if !ok {
		return nil, nil
	}
	cp := *f
	if f.ChosenAttributeID != nil {
		attr := *f.ChosenAttributeID
		cp.ChosenAttributeID = &attr
	}
	return &cp, nil
}

func (s *Store) SaveFlow(flow *models.GameFlow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *flow
	if flow.ChosenAttributeID != nil {
		attr := *flow.ChosenAttributeID
		cp.ChosenAttributeID = &attr
	}
	s.flows[flow.LobbyID] = &cp
	return nil
}

func (s *Store) PlayedCards(lobbyID uint, round int) ([]models.PlayedCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PlayedCard(nil), s.played[playedKey{lobbyID, round}]...), nil
}

func (s *Store) AppendPlayedCard(play *models.PlayedCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := playedKey{play.LobbyID, play.Round}
	s.played[key] = append(s.played[key], *play)
	return nil
}

func (s *Store) DeletePlayedCard(lobbyID uint, round int, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := playedKey{lobbyID, round}
	plays := s.played[key]
	for i, p := range plays {
		if p.UserID == userID {
			s.played[key] = append(plays[:i:i], plays[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) GetDeck(deckID uint) (*engine.DeckInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.decks[deckID]
	if !ok {
		return nil, nil
	}
	cp := *d
	cp.AttributeIDs = append([]uint(nil), d.AttributeIDs...)
	return &cp, nil
}

func (s *Store) Cards(deckID uint) ([]engine.CardInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.CardInfo(nil), s.cards[deckID]...), nil
}

func (s *Store) CardValue(cardID, attributeID uint) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vals, ok := s.values[cardID]
	if !ok {
		return 0, false, nil
	}
	v, ok := vals[attributeID]
	return v, ok, nil
}
