package engine

import (
	"github.com/sirupsen/logrus"

	"cardclash/backend/internal/models"
)

// Dealer splits a deck's card pool across the seated players exactly once per
// lobby. The distribution marker is checked and set inside the lobby's
// critical section, so concurrent duplicate requests yield a single deal.
type Dealer struct {
	store Store
	decks DeckCatalog
	locks *Locker
	log   *logrus.Logger
}

func NewDealer(store Store, decks DeckCatalog, locks *Locker, log *logrus.Logger) *Dealer {
	return &Dealer{store: store, decks: decks, locks: locks, log: log}
}

// Distribute deals the deck round-robin over the seating order, consuming the
// whole pool. Seats earlier in the order absorb any remainder. Host-only.
func (d *Dealer) Distribute(lobbyID, requesterID uint) error {
	unlock := d.locks.Lock(lobbyKey(lobbyID))
	defer unlock()

	lobby, err := d.store.GetLobby(lobbyID)
	if err != nil {
		return err
	}
	if lobby == nil {
		return NewError(KindNotFound, "Lobby not found.")
	}

	var v Violations
	if lobby.HostID != requesterID {
		v.Add(KindForbidden, "You must be the lobby host to distribute the cards.")
	} else {
		if lobby.Status != models.LobbyPlaying {
			v.Add(KindNotStarted, "Cards cannot be distributed before the game is started.")
		}
		if lobby.Distributed {
			v.Add(KindAlreadyDistributed, "Cards have already been distributed.")
		}
	}
	if err := v.Err(); err != nil {
		return err
	}

	members, err := d.store.Members(lobbyID)
	if err != nil {
		return err
	}
	cards, err := d.decks.Cards(lobby.DeckID)
	if err != nil {
		return err
	}

	hands := make(map[uint][]uint, len(members))
	for i, card := range cards {
		seat := members[i%len(members)]
		hands[seat.UserID] = append(hands[seat.UserID], card.ID)
	}
	if err := d.store.SaveHands(lobbyID, hands); err != nil {
		return err
	}

	lobby.Distributed = true
	if err := d.store.SaveLobby(lobby); err != nil {
		return err
	}

	d.log.WithFields(logrus.Fields{
		"lobby":   lobbyID,
		"deck":    lobby.DeckID,
		"players": len(members),
		"cards":   len(cards),
	}).Info("cards distributed")
	return nil
}
