package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cardclash/backend/internal/engine"
	"cardclash/backend/internal/hub"
)

// MatchHandler exposes the Card Dealer and the Turn/Round Engine over HTTP.
type MatchHandler struct {
	Dealer *engine.Dealer
	Turns  *engine.TurnEngine
	Hub    *hub.Hub
}

// region --- DTOs ---

type FirstPlayInput struct {
	AttributeID uint `json:"attribute_id" binding:"required"`
}

// endregion

// Distribute godoc
// @Summary      Distribute the deck's cards (Host only)
// @Description  Splits the deck across the seated players. Runs at most once per lobby.
// @Tags         match
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Success      200 {object} map[string]string "{"message": "Cards distributed successfully"}"
// @Failure      403 {object} ErrorResponse "Only the host can distribute"
// @Failure      409 {object} ErrorResponse "Not started or already distributed"
// @Router       /lobbies/{id}/distribute [post]
func (h *MatchHandler) Distribute(c *gin.Context) {
	userID := c.GetUint("userID")
	lobbyID, _ := strconv.Atoi(c.Param("id"))

	if err := h.Dealer.Distribute(uint(lobbyID), userID); err != nil {
		respondError(c, err)
		return
	}

	h.Hub.Broadcast(uint(lobbyID), hub.Event{Type: hub.EventCardsDistributed, Payload: gin.H{"lobby_id": lobbyID}})
	c.JSON(http.StatusOK, gin.H{"message": "Cards distributed successfully"})
}

// PlayFirstCard godoc
// @Summary      Open the round
// @Description  The player on turn picks the attribute and reveals their top card. In round 1 only the host may open.
// @Tags         match
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int            true "Lobby ID"
// @Param        input body FirstPlayInput true "Chosen attribute"
// @Success      200 {object} engine.PlayResult
// @Failure      400 {object} ErrorResponse "Missing or foreign attribute"
// @Failure      403 {object} ErrorResponse "Not the host in round 1"
// @Failure      409 {object} ErrorResponse "Out of turn or cards not distributed"
// @Router       /lobbies/{id}/play-first [post]
func (h *MatchHandler) PlayFirstCard(c *gin.Context) {
	userID := c.GetUint("userID")
	lobbyID, _ := strconv.Atoi(c.Param("id"))

	var input FirstPlayInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Errors: []string{err.Error()}})
		return
	}

	result, err := h.Turns.PlayFirstCard(uint(lobbyID), userID, input.AttributeID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastPlay(uint(lobbyID), userID, result)
	c.JSON(http.StatusOK, result)
}

// PlayTurn godoc
// @Summary      Play the turn
// @Description  Reveals the current player's top card against the chosen attribute. The closing play resolves the round.
// @Tags         match
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Success      200 {object} engine.PlayResult
// @Failure      409 {object} ErrorResponse "Out of turn or attribute not chosen"
// @Router       /lobbies/{id}/play [post]
func (h *MatchHandler) PlayTurn(c *gin.Context) {
	userID := c.GetUint("userID")
	lobbyID, _ := strconv.Atoi(c.Param("id"))

	result, err := h.Turns.PlayTurn(uint(lobbyID), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastPlay(uint(lobbyID), userID, result)
	c.JSON(http.StatusOK, result)
}

// State godoc
// @Summary      Get the current round's state
// @Description  Current round, turn holder, chosen attribute, plays so far and who still has to act.
// @Tags         match
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Success      200 {object} engine.MatchState
// @Failure      404 {object} ErrorResponse "Lobby not found"
// @Failure      409 {object} ErrorResponse "Game not started"
// @Router       /lobbies/{id}/match [get]
func (h *MatchHandler) State(c *gin.Context) {
	lobbyID, _ := strconv.Atoi(c.Param("id"))

	state, err := h.Turns.State(uint(lobbyID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *MatchHandler) broadcastPlay(lobbyID, userID uint, result *engine.PlayResult) {
	h.Hub.Broadcast(lobbyID, hub.Event{Type: hub.EventCardPlayed, Payload: gin.H{
		"user_id": userID,
		"round":   result.Round,
		"value":   result.Value,
	}})
	if result.Outcome != nil {
		h.Hub.Broadcast(lobbyID, hub.Event{Type: hub.EventRoundResolved, Payload: result.Outcome})
	}
}
