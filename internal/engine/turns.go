package engine

import (
	"github.com/sirupsen/logrus"

	"cardclash/backend/internal/models"
)

// TurnEngine owns the in-round game flow of a playing lobby: who opens a
// round, who follows, and when the round closes and is resolved. Resolution
// runs synchronously inside the same critical section as the play that closed
// the round, so it happens at most once per round.
type TurnEngine struct {
	store    Store
	decks    DeckCatalog
	locks    *Locker
	resolver *Resolver
	log      *logrus.Logger
}

func NewTurnEngine(store Store, decks DeckCatalog, locks *Locker, resolver *Resolver, log *logrus.Logger) *TurnEngine {
	return &TurnEngine{store: store, decks: decks, locks: locks, resolver: resolver, log: log}
}

// PlayResult reports what one accepted play did to the match.
type PlayResult struct {
	Round          int      `json:"round"`
	CardID         uint     `json:"card_id"`
	Value          int      `json:"value"`
	NextTurnUserID uint     `json:"next_turn_user_id"`
	Outcome        *Verdict `json:"outcome,omitempty"` // set when this play closed the round
	Finished       bool     `json:"finished"`
}

// MatchState is a read-only view of a lobby's current round.
type MatchState struct {
	Round             int                 `json:"round"`
	CurrentTurnUserID uint                `json:"current_turn_user_id"`
	ChosenAttributeID *uint               `json:"chosen_attribute_id,omitempty"`
	Played            []models.PlayedCard `json:"played"`
	Remaining         []uint              `json:"remaining"`
	HandCounts        map[uint]int        `json:"hand_counts"`
}

// PlayFirstCard opens a round: the player on turn picks the attribute the
// round will be compared on and reveals their top card. In round 1 only the
// host may open; later rounds are opened by whoever won the turn.
func (t *TurnEngine) PlayFirstCard(lobbyID, userID, attributeID uint) (*PlayResult, error) {
	unlock := t.locks.Lock(lobbyKey(lobbyID))
	defer unlock()

	lobby, flow, err := t.playingLobby(lobbyID)
	if err != nil {
		return nil, err
	}

	var v Violations
	if !lobby.Distributed {
		v.Add(KindNotDistributed, "Cards have not been distributed yet.")
	}
	if flow.ChosenAttributeID != nil {
		v.Add(KindConflict, "The attribute for this round has already been chosen.")
	}
	if flow.CurrentRound == 1 && userID != lobby.HostID {
		v.Add(KindForbidden, "Only the host can open the first round.")
	}
	if userID != flow.CurrentTurnUserID {
		v.Add(KindOutOfTurn, "It is not your turn to play.")
	}
	if attributeID == 0 {
		v.Add(KindInvalidAttribute, "An attribute is required.")
	} else {
		deck, err := t.decks.GetDeck(lobby.DeckID)
		if err != nil {
			return nil, err
		}
		if deck == nil || !containsID(deck.AttributeIDs, attributeID) {
			v.Add(KindInvalidAttribute, "Attribute does not belong to the lobby's deck.")
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	flow.ChosenAttributeID = &attributeID
	result, err := t.playCard(lobby, flow, userID)
	if err != nil {
		return nil, err
	}

	t.log.WithFields(logrus.Fields{
		"lobby":     lobbyID,
		"user":      userID,
		"round":     result.Round,
		"attribute": attributeID,
	}).Info("round opened")
	return result, nil
}

// PlayTurn reveals the current player's top card against the round's chosen
// attribute. The play that completes the round triggers resolution.
func (t *TurnEngine) PlayTurn(lobbyID, userID uint) (*PlayResult, error) {
	unlock := t.locks.Lock(lobbyKey(lobbyID))
	defer unlock()

	lobby, flow, err := t.playingLobby(lobbyID)
	if err != nil {
		return nil, err
	}

	var v Violations
	if flow.ChosenAttributeID == nil {
		v.Add(KindAttributeNotChosen, "The attribute has not been chosen by the first player yet.")
	}
	if userID != flow.CurrentTurnUserID {
		v.Add(KindOutOfTurn, "It is not your turn to play.")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	result, err := t.playCard(lobby, flow, userID)
	if err != nil {
		return nil, err
	}

	t.log.WithFields(logrus.Fields{
		"lobby": lobbyID,
		"user":  userID,
		"round": result.Round,
		"value": result.Value,
	}).Info("card played")
	return result, nil
}

// RemainingPlayers lists the members who still have to play in the current
// round: seated, holding cards, and without a play recorded yet.
func (t *TurnEngine) RemainingPlayers(lobbyID uint) ([]uint, error) {
	_, flow, err := t.playingLobby(lobbyID)
	if err != nil {
		return nil, err
	}
	members, counts, played, err := t.roundContext(lobbyID, flow.CurrentRound)
	if err != nil {
		return nil, err
	}
	remaining := []uint{}
	for _, m := range members {
		if counts[m.UserID] > 0 && !played[m.UserID] {
			remaining = append(remaining, m.UserID)
		}
	}
	return remaining, nil
}

// State returns the current round's view for observers.
func (t *TurnEngine) State(lobbyID uint) (*MatchState, error) {
	_, flow, err := t.playingLobby(lobbyID)
	if err != nil {
		return nil, err
	}
	plays, err := t.store.PlayedCards(lobbyID, flow.CurrentRound)
	if err != nil {
		return nil, err
	}
	counts, err := t.store.HandCounts(lobbyID)
	if err != nil {
		return nil, err
	}
	remaining, err := t.RemainingPlayers(lobbyID)
	if err != nil {
		return nil, err
	}
	return &MatchState{
		Round:             flow.CurrentRound,
		CurrentTurnUserID: flow.CurrentTurnUserID,
		ChosenAttributeID: flow.ChosenAttributeID,
		Played:            plays,
		Remaining:         remaining,
		HandCounts:        counts,
	}, nil
}

// playingLobby loads the lobby and its flow, rejecting anything not in play.
func (t *TurnEngine) playingLobby(lobbyID uint) (*models.Lobby, *models.GameFlow, error) {
	lobby, err := t.store.GetLobby(lobbyID)
	if err != nil {
		return nil, nil, err
	}
	if lobby == nil {
		return nil, nil, NewError(KindNotFound, "Lobby not found.")
	}
	if lobby.Status != models.LobbyPlaying {
		return nil, nil, NewError(KindNotStarted, "Game has not been started.")
	}
	flow, err := t.store.GetFlow(lobbyID)
	if err != nil {
		return nil, nil, err
	}
	if flow == nil {
		return nil, nil, NewError(KindNotStarted, "Game has not been started.")
	}
	return lobby, flow, nil
}

func (t *TurnEngine) roundContext(lobbyID uint, round int) ([]models.LobbyMember, map[uint]int, map[uint]bool, error) {
	members, err := t.store.Members(lobbyID)
	if err != nil {
		return nil, nil, nil, err
	}
	counts, err := t.store.HandCounts(lobbyID)
	if err != nil {
		return nil, nil, nil, err
	}
	plays, err := t.store.PlayedCards(lobbyID, round)
	if err != nil {
		return nil, nil, nil, err
	}
	played := make(map[uint]bool, len(plays))
	for _, p := range plays {
		played[p.UserID] = true
	}
	return members, counts, played, nil
}

// playCard records the player's top card for the round's chosen attribute and
// advances the turn, resolving the round if this was the closing play.
func (t *TurnEngine) playCard(lobby *models.Lobby, flow *models.GameFlow, userID uint) (*PlayResult, error) {
	cardID, ok, err := t.store.PopTopCard(lobby.ID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewError(KindConflict, "You have no cards left to play.")
	}
	value, ok, err := t.decks.CardValue(cardID, *flow.ChosenAttributeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewError(KindInvalidAttribute, "Card has no value for the chosen attribute.")
	}

	play := &models.PlayedCard{
		LobbyID: lobby.ID,
		Round:   flow.CurrentRound,
		UserID:  userID,
		CardID:  cardID,
		Value:   value,
	}
	if err := t.store.AppendPlayedCard(play); err != nil {
		return nil, err
	}

	members, counts, played, err := t.roundContext(lobby.ID, flow.CurrentRound)
	if err != nil {
		return nil, err
	}

	result := &PlayResult{Round: flow.CurrentRound, CardID: cardID, Value: value}

	next, more := nextSeat(members, userID, func(uid uint) bool {
		return counts[uid] > 0 && !played[uid]
	})
	if more {
		flow.CurrentTurnUserID = next
		result.NextTurnUserID = next
		if err := t.store.SaveFlow(flow); err != nil {
			return nil, err
		}
		return result, nil
	}

	return t.resolveRound(lobby, flow, members, counts, userID, result)
}

// resolveRound runs when the closing play of a round has been recorded.
func (t *TurnEngine) resolveRound(lobby *models.Lobby, flow *models.GameFlow, members []models.LobbyMember, counts map[uint]int, closerID uint, result *PlayResult) (*PlayResult, error) {
	verdict, opener, finished, err := closeRound(t.store, t.resolver, t.log, lobby, flow, members, counts, closerID)
	if err != nil {
		return nil, err
	}
	result.Outcome = verdict
	if opener != 0 {
		result.NextTurnUserID = opener
	}
	result.Finished = finished
	return result, nil
}

// closeRound advances the flow past a completed round. The winner opens the
// next round; on a draw, or when the winner no longer sits in the lobby, the
// seat after closerID continues the order. When fewer than two members still
// hold cards the match is over. Shared by the closing play and by mid-round
// player removal, which can also be what completes a round.
func closeRound(store Store, resolver *Resolver, log *logrus.Logger, lobby *models.Lobby, flow *models.GameFlow, members []models.LobbyMember, counts map[uint]int, closerID uint) (*Verdict, uint, bool, error) {
	plays, err := store.PlayedCards(lobby.ID, flow.CurrentRound)
	if err != nil {
		return nil, 0, false, err
	}
	verdict, err := resolver.DetermineWinner(lobby.ID, flow.CurrentRound, len(plays))
	if err != nil {
		return nil, 0, false, err
	}

	hasCards := func(uid uint) bool { return counts[uid] > 0 }

	var opener uint
	var seated bool
	if !verdict.Draw && isMember(members, verdict.WinnerUserID) && hasCards(verdict.WinnerUserID) {
		opener, seated = verdict.WinnerUserID, true
	} else {
		opener, seated = nextSeat(members, closerID, hasCards)
	}

	flow.CurrentRound++
	flow.ChosenAttributeID = nil
	if seated {
		flow.CurrentTurnUserID = opener
	}
	if err := store.SaveFlow(flow); err != nil {
		return nil, 0, false, err
	}

	standing := 0
	for _, m := range members {
		if counts[m.UserID] > 0 {
			standing++
		}
	}
	finished := standing < 2
	if finished {
		lobby.Status = models.LobbyFinished
		if err := store.SaveLobby(lobby); err != nil {
			return nil, 0, false, err
		}
		log.WithFields(logrus.Fields{"lobby": lobby.ID, "standing": standing}).Info("match finished")
	}

	log.WithFields(logrus.Fields{
		"lobby":  lobby.ID,
		"round":  verdict.Round,
		"draw":   verdict.Draw,
		"winner": verdict.WinnerUserID,
	}).Info("round resolved")
	if !seated {
		opener = 0
	}
	return verdict, opener, finished, nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
