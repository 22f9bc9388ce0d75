package engine

import "sort"

// Verdict is the outcome of one resolved round.
type Verdict struct {
	Round int `json:"round"`

	// Winner fields, set when exactly one card held the maximum value.
	WinnerUserID  uint `json:"winner_user_id,omitempty"`
	WinningCardID uint `json:"winning_card_id,omitempty"`
	Value         int  `json:"value"`

	// Draw reporting: two or more cards tied for the maximum.
	Draw bool   `json:"draw"`
	Tied []uint `json:"tied,omitempty"`
}

// Resolver computes round winners from the recorded plays.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// DetermineWinner compares the revealed values of the round's plays using
// plain numeric ordering, higher wins. active is the number of players that
// were required to play; calling before the round closes fails with
// Incomplete.
func (r *Resolver) DetermineWinner(lobbyID uint, round, active int) (*Verdict, error) {
	plays, err := r.store.PlayedCards(lobbyID, round)
	if err != nil {
		return nil, err
	}
	if len(plays) < active {
		return nil, NewError(KindIncomplete, "Not every player has played this round yet.")
	}

	verdict := &Verdict{Round: round}
	for _, p := range plays {
		if len(verdict.Tied) == 0 || p.Value > verdict.Value {
			verdict.Value = p.Value
			verdict.WinnerUserID = p.UserID
			verdict.WinningCardID = p.CardID
			verdict.Tied = []uint{p.UserID}
			continue
		}
		if p.Value == verdict.Value {
			verdict.Tied = append(verdict.Tied, p.UserID)
		}
	}

	if len(verdict.Tied) > 1 {
		sort.Slice(verdict.Tied, func(i, j int) bool { return verdict.Tied[i] < verdict.Tied[j] })
		return &Verdict{Round: round, Draw: true, Value: verdict.Value, Tied: verdict.Tied}, nil
	}

	verdict.Tied = nil
	return verdict, nil
}
