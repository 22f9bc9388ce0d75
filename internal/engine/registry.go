package engine

import (
	"github.com/sirupsen/logrus"

	"cardclash/backend/internal/models"
)

// Registry owns the lobby lifecycle: creation, membership, host actions and
// the transition into play. All state flows through the Store; the Registry
// itself is stateless apart from its lock registry.
type Registry struct {
	store    Store
	decks    DeckCatalog
	locks    *Locker
	resolver *Resolver
	log      *logrus.Logger
}

func NewRegistry(store Store, decks DeckCatalog, locks *Locker, resolver *Resolver, log *logrus.Logger) *Registry {
	return &Registry{store: store, decks: decks, locks: locks, resolver: resolver, log: log}
}

// EditInput carries the host-editable lobby fields. Nil fields are left
// untouched.
type EditInput struct {
	Name      *string
	Available *bool
	DeckID    *uint
}

// Create opens a new lobby in Waiting with the host seated as its first
// member. The host's user key is held so a racing create/join cannot seat the
// same user twice.
func (r *Registry) Create(hostID uint, name string, deckID uint) (*models.Lobby, error) {
	unlock := r.locks.Lock(userKey(hostID))
	defer unlock()

	var v Violations

	if _, in, err := r.store.MemberLobby(hostID); err != nil {
		return nil, err
	} else if in {
		v.Add(KindConflict, "You are already in a lobby; leave it before creating another.")
	}

	if l := len(name); l < 3 || l > 50 {
		v.Add(KindInvalidInput, "Lobby name is required and must be between 3 and 50 characters.")
	}

	if deckID == 0 {
		v.Add(KindInvalidInput, "A deck must be selected.")
	} else {
		deck, err := r.decks.GetDeck(deckID)
		if err != nil {
			return nil, err
		}
		switch {
		case deck == nil:
			v.Add(KindNotFound, "Deck not found.")
		case !deck.Available:
			v.Add(KindUnavailable, "Deck is not available.")
		}
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	lobby := &models.Lobby{
		Name:      name,
		HostID:    hostID,
		DeckID:    deckID,
		Status:    models.LobbyWaiting,
		Available: true,
	}
	if err := r.store.CreateLobby(lobby); err != nil {
		return nil, err
	}
	if err := r.store.AddMember(lobby.ID, hostID); err != nil {
		return nil, err
	}

	r.log.WithFields(logrus.Fields{"lobby": lobby.ID, "host": hostID, "deck": deckID}).Info("lobby created")
	return lobby, nil
}

// Join seats the user in the lobby and returns the updated member list. The
// capacity check and the insert happen under the lobby's lock, so two joins
// racing at capacity cannot both pass.
func (r *Registry) Join(userID, lobbyID uint) ([]models.LobbyMember, error) {
	unlockUser := r.locks.Lock(userKey(userID))
	defer unlockUser()
	unlock := r.locks.Lock(lobbyKey(lobbyID))
	defer unlock()

	var v Violations

	if current, in, err := r.store.MemberLobby(userID); err != nil {
		return nil, err
	} else if in {
		if current == lobbyID {
			v.Add(KindConflict, "You are already in this lobby.")
		} else {
			v.Add(KindConflict, "You are already in a lobby; leave it before joining another.")
		}
	}

	lobby, err := r.store.GetLobby(lobbyID)
	if err != nil {
		return nil, err
	}
	if lobby == nil {
		v.Add(KindNotFound, "Lobby not found.")
		return nil, v.Err()
	}

	members, err := r.store.Members(lobbyID)
	if err != nil {
		return nil, err
	}
	if len(members) >= models.LobbyCapacity {
		v.Add(KindFull, "Lobby is full.")
	}
	if !lobby.Available {
		v.Add(KindClosed, "Lobby is closed.")
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := r.store.AddMember(lobbyID, userID); err != nil {
		return nil, err
	}

	r.log.WithFields(logrus.Fields{"lobby": lobbyID, "user": userID}).Info("player joined")
	return r.store.Members(lobbyID)
}

// Remove takes a player out of the lobby. Only the host may remove others; any
// member may remove themselves. A removal during play drops the player's open
// play, repairs the turn and, when the departure closed the round, resolves it.
// An emptied lobby is deleted, and a departing host hands the lobby to the
// earliest remaining seat.
func (r *Registry) Remove(requesterID, targetID, lobbyID uint) error {
	unlock := r.locks.Lock(lobbyKey(lobbyID))
	defer unlock()

	lobby, err := r.store.GetLobby(lobbyID)
	if err != nil {
		return err
	}

	var v Violations
	if lobby == nil {
		v.Add(KindNotFound, "Lobby not found.")
	}
	if requesterID != targetID && (lobby == nil || lobby.HostID != requesterID) {
		v.Add(KindForbidden, "You do not have permission to remove this player.")
	}
	if err := v.Err(); err != nil {
		return err
	}

	members, err := r.store.Members(lobbyID)
	if err != nil {
		return err
	}
	if !isMember(members, targetID) {
		return NewError(KindNotFound, "Player is not in this lobby.")
	}

	flow, err := r.store.GetFlow(lobbyID)
	if err != nil {
		return err
	}
	if flow != nil {
		// a departed player's card must not decide the round
		if err := r.store.DeletePlayedCard(lobbyID, flow.CurrentRound, targetID); err != nil {
			return err
		}
	}

	// The seat before the target anchors the seating-order walk once the
	// target's row is gone.
	anchorID := seatBefore(members, targetID)

	if err := r.store.DeleteHand(lobbyID, targetID); err != nil {
		return err
	}
	if err := r.store.RemoveMember(lobbyID, targetID); err != nil {
		return err
	}

	remaining, err := r.store.Members(lobbyID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		r.log.WithField("lobby", lobbyID).Info("last player left, deleting lobby")
		return r.store.DeleteLobby(lobbyID)
	}
	if lobby.HostID == targetID {
		lobby.HostID = remaining[0].UserID
		if err := r.store.SaveLobby(lobby); err != nil {
			return err
		}
		r.log.WithFields(logrus.Fields{"lobby": lobbyID, "host": lobby.HostID}).Info("host migrated")
	}

	if lobby.Status == models.LobbyPlaying && flow != nil {
		if err := r.settleAfterRemoval(lobby, flow, remaining, targetID, anchorID); err != nil {
			return err
		}
	}

	r.log.WithFields(logrus.Fields{"lobby": lobbyID, "user": targetID, "by": requesterID}).Info("player removed")
	return nil
}

// settleAfterRemoval repairs the round state once a player has left a running
// game. If the departure left nobody owing a play, the round is resolved on
// the spot; otherwise the turn, if the departed player held it, moves to the
// next seat that still owes a play. A game left with fewer than two
// card-holding players ends.
func (r *Registry) settleAfterRemoval(lobby *models.Lobby, flow *models.GameFlow, members []models.LobbyMember, removedID, anchorID uint) error {
	if !lobby.Distributed {
		// no hands yet, any seat can take the turn
		if flow.CurrentTurnUserID == removedID {
			if next, ok := nextSeat(members, anchorID, func(uint) bool { return true }); ok {
				flow.CurrentTurnUserID = next
				return r.store.SaveFlow(flow)
			}
		}
		return nil
	}

	counts, err := r.store.HandCounts(lobby.ID)
	if err != nil {
		return err
	}
	plays, err := r.store.PlayedCards(lobby.ID, flow.CurrentRound)
	if err != nil {
		return err
	}
	played := make(map[uint]bool, len(plays))
	for _, p := range plays {
		played[p.UserID] = true
	}

	pending := false
	for _, m := range members {
		if counts[m.UserID] > 0 && !played[m.UserID] {
			pending = true
			break
		}
	}

	if !pending && len(plays) > 0 {
		_, _, _, err := closeRound(r.store, r.resolver, r.log, lobby, flow, members, counts, anchorID)
		return err
	}

	if flow.CurrentTurnUserID == removedID {
		if next, ok := nextSeat(members, anchorID, func(uid uint) bool {
			return counts[uid] > 0 && !played[uid]
		}); ok {
			flow.CurrentTurnUserID = next
			if err := r.store.SaveFlow(flow); err != nil {
				return err
			}
		}
	}

	standing := 0
	for _, m := range members {
		if counts[m.UserID] > 0 {
			standing++
		}
	}
	if standing < 2 {
		lobby.Status = models.LobbyFinished
		if err := r.store.SaveLobby(lobby); err != nil {
			return err
		}
		r.log.WithFields(logrus.Fields{"lobby": lobby.ID, "standing": standing}).Info("match finished")
	}
	return nil
}

// Edit updates the lobby's settings. Host-only, and only while the lobby is
// still waiting for players.
func (r *Registry) Edit(hostID, lobbyID uint, input EditInput) (*models.Lobby, error) {
	unlock := r.locks.Lock(lobbyKey(lobbyID))
	defer unlock()

	lobby, err := r.store.GetLobby(lobbyID)
	if err != nil {
		return nil, err
	}
	if lobby == nil {
		return nil, NewError(KindNotFound, "Lobby not found.")
	}

	var v Violations

	if lobby.HostID != hostID {
		v.Add(KindForbidden, "You must be the lobby host to edit the lobby.")
	} else {
		if lobby.Status != models.LobbyWaiting {
			v.Add(KindLocked, "Lobby settings are locked while the game is in progress.")
		}
		if input.Name != nil {
			if l := len(*input.Name); l < 3 || l > 50 {
				v.Add(KindInvalidInput, "Lobby name must be between 3 and 50 characters.")
			}
		}
		if input.DeckID != nil && *input.DeckID != lobby.DeckID {
			deck, err := r.decks.GetDeck(*input.DeckID)
			if err != nil {
				return nil, err
			}
			switch {
			case deck == nil:
				v.Add(KindNotFound, "Deck not found.")
			case !deck.Available:
				v.Add(KindUnavailable, "Deck is not available.")
			}
		}
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	if input.Name != nil {
		lobby.Name = *input.Name
	}
	if input.Available != nil {
		lobby.Available = *input.Available
	}
	if input.DeckID != nil {
		lobby.DeckID = *input.DeckID
	}
	if err := r.store.SaveLobby(lobby); err != nil {
		return nil, err
	}
	return lobby, nil
}

// Delete removes the lobby and everything hanging off it. Host-only.
func (r *Registry) Delete(hostID, lobbyID uint) error {
	unlock := r.locks.Lock(lobbyKey(lobbyID))
	defer unlock()

	lobby, err := r.store.GetLobby(lobbyID)
	if err != nil {
		return err
	}

	var v Violations
	if lobby == nil {
		v.Add(KindNotFound, "Lobby not found.")
	}
	if lobby != nil && lobby.HostID != hostID {
		v.Add(KindForbidden, "You must be the lobby host to delete the lobby.")
	}
	if err := v.Err(); err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{"lobby": lobbyID, "host": hostID}).Info("lobby deleted")
	return r.store.DeleteLobby(lobbyID)
}

// Start moves the lobby into play. It closes joining and seeds the game flow
// at round 1 with the host to act, so "Playing implies a flow" holds from the
// first moment.
func (r *Registry) Start(hostID, lobbyID uint) error {
	unlock := r.locks.Lock(lobbyKey(lobbyID))
	defer unlock()

	lobby, err := r.store.GetLobby(lobbyID)
	if err != nil {
		return err
	}
	if lobby == nil {
		return NewError(KindNotFound, "Lobby not found.")
	}

	var v Violations
	if lobby.HostID != hostID {
		v.Add(KindForbidden, "You must be the lobby host to start the game.")
	} else {
		members, err := r.store.Members(lobbyID)
		if err != nil {
			return err
		}
		if len(members) < 2 {
			v.Add(KindInsufficientPlayers, "Lobby needs at least 2 players.")
		}
		if lobby.Status != models.LobbyWaiting {
			v.Add(KindAlreadyStarted, "Game already started.")
		}
	}
	if err := v.Err(); err != nil {
		return err
	}

	lobby.Status = models.LobbyPlaying
	lobby.Available = false
	if err := r.store.SaveLobby(lobby); err != nil {
		return err
	}

	flow := &models.GameFlow{
		LobbyID:           lobbyID,
		CurrentTurnUserID: hostID,
		CurrentRound:      1,
	}
	if err := r.store.SaveFlow(flow); err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{"lobby": lobbyID}).Info("game started")
	return nil
}

// Get loads one lobby, failing typed when it does not exist.
func (r *Registry) Get(lobbyID uint) (*models.Lobby, error) {
	lobby, err := r.store.GetLobby(lobbyID)
	if err != nil {
		return nil, err
	}
	if lobby == nil {
		return nil, NewError(KindNotFound, "Lobby not found.")
	}
	return lobby, nil
}

// MembersOf returns the lobby's members in seating order.
func (r *Registry) MembersOf(lobbyID uint) ([]models.LobbyMember, error) {
	return r.store.Members(lobbyID)
}

func isMember(members []models.LobbyMember, userID uint) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// nextSeat walks the seating order starting after the given user and returns
// the first member the eligibility func accepts. The walk wraps all the way
// around, so the starting seat itself is the last candidate.
func nextSeat(members []models.LobbyMember, after uint, eligible func(uint) bool) (uint, bool) {
	start := 0
	for i, m := range members {
		if m.UserID == after {
			start = i + 1
			break
		}
	}
	for i := 0; i < len(members); i++ {
		m := members[(start+i)%len(members)]
		if eligible(m.UserID) {
			return m.UserID, true
		}
	}
	return 0, false
}

// seatBefore returns the member seated immediately before userID, wrapping.
func seatBefore(members []models.LobbyMember, userID uint) uint {
	for i, m := range members {
		if m.UserID == userID {
			return members[(i-1+len(members))%len(members)].UserID
		}
	}
	return userID
}
