package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cardclash/backend/internal/database"
	"cardclash/backend/internal/engine"
	"cardclash/backend/internal/hub"
	"cardclash/backend/internal/models"
)

// LobbyHandler exposes the Lobby Registry over HTTP.
type LobbyHandler struct {
	Registry *engine.Registry
	Decks    engine.DeckCatalog
	Hub      *hub.Hub
}

// region --- DTOs ---

type CreateLobbyInput struct {
	Name   string `json:"name" binding:"required"`
	DeckID uint   `json:"deck_id" binding:"required"`
}

type UpdateLobbyInput struct {
	Name      *string `json:"name"`
	Available *bool   `json:"available"`
	DeckID    *uint   `json:"deck_id"`
}

type PlayerResponse struct {
	UserID   uint   `json:"user_id"`
	Nickname string `json:"nickname"`
}

type LobbyDetailResponse struct {
	ID         uint                `json:"id"`
	Name       string              `json:"name"`
	HostID     uint                `json:"host_id"`
	DeckID     uint                `json:"deck_id"`
	Status     models.LobbyStatus  `json:"status"`
	Available  bool                `json:"available"`
	Attributes []AttributeResponse `json:"attributes"`
	Players    []PlayerResponse    `json:"players"`
}

func newPlayerResponses(members []models.LobbyMember) []PlayerResponse {
	players := make([]PlayerResponse, 0, len(members))
	for _, m := range members {
		players = append(players, PlayerResponse{UserID: m.UserID, Nickname: m.User.Nickname})
	}
	return players
}

func (h *LobbyHandler) newLobbyDetail(lobby *models.Lobby, members []models.LobbyMember) LobbyDetailResponse {
	resp := LobbyDetailResponse{
		ID:        lobby.ID,
		Name:      lobby.Name,
		HostID:    lobby.HostID,
		DeckID:    lobby.DeckID,
		Status:    lobby.Status,
		Available: lobby.Available,
		Players:   newPlayerResponses(members),
	}

	var attrs []models.Attribute
	database.DB.Where("deck_id = ?", lobby.DeckID).Find(&attrs)
	for _, a := range attrs {
		resp.Attributes = append(resp.Attributes, AttributeResponse{ID: a.ID, Name: a.Name})
	}
	return resp
}

// endregion

// Create godoc
// @Summary      Create a new lobby
// @Description  Creates a new lobby, seating the creator as its host.
// @Tags         lobbies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateLobbyInput true "Lobby Info"
// @Success      201  {object}  LobbyDetailResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "User is already in a lobby"
// @Router       /lobbies [post]
func (h *LobbyHandler) Create(c *gin.Context) {
	userID := c.GetUint("userID")

	var input CreateLobbyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Errors: []string{err.Error()}})
		return
	}

	lobby, err := h.Registry.Create(userID, input.Name, input.DeckID)
	if err != nil {
		respondError(c, err)
		return
	}

	members, _ := h.Registry.MembersOf(lobby.ID)
	c.JSON(http.StatusCreated, h.newLobbyDetail(lobby, members))
}

// Search godoc
// @Summary      Search for lobbies
// @Description  Gets a paginated list of lobbies, optionally only joinable ones.
// @Tags         lobbies
// @Produce      json
// @Param        joinable query bool false "Only open, waiting lobbies"
// @Param        page     query int  false "Page number" default(1)
// @Param        limit    query int  false "Items per page" default(10)
// @Success      200 {object} PaginatedResponse[LobbyDetailResponse]
// @Router       /lobbies [get]
func (h *LobbyHandler) Search(c *gin.Context) {
	page, limit := pageParams(c)

	query := database.DB.Model(&models.Lobby{})
	if c.Query("joinable") == "true" {
		query = query.Where("status = ? AND available = ?", models.LobbyWaiting, true)
	}

	result, err := Paginate[models.Lobby](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Errors: []string{"Failed to list lobbies."}})
		return
	}

	response := make([]LobbyDetailResponse, 0, len(result.Data))
	for i := range result.Data {
		members, _ := h.Registry.MembersOf(result.Data[i].ID)
		response = append(response, h.newLobbyDetail(&result.Data[i], members))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(response, result.Meta.TotalItems, page, limit))
}

// GetByID godoc
// @Summary      Get a lobby by ID
// @Tags         lobbies
// @Produce      json
// @Param        id path int true "Lobby ID"
// @Success      200 {object} LobbyDetailResponse
// @Failure      404 {object} ErrorResponse "Lobby not found"
// @Router       /lobbies/{id} [get]
func (h *LobbyHandler) GetByID(c *gin.Context) {
	lobbyID, _ := strconv.Atoi(c.Param("id"))

	lobby, err := h.Registry.Get(uint(lobbyID))
	if err != nil {
		respondError(c, err)
		return
	}

	members, _ := h.Registry.MembersOf(lobby.ID)
	c.JSON(http.StatusOK, h.newLobbyDetail(lobby, members))
}

// Join godoc
// @Summary      Join a lobby
// @Description  Seats the user in the lobby and returns the updated player list.
// @Tags         lobbies
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Success      200 {array} PlayerResponse
// @Failure      404 {object} ErrorResponse "Lobby not found"
// @Failure      409 {object} ErrorResponse "Lobby full, closed, or user already seated"
// @Router       /lobbies/{id}/join [post]
func (h *LobbyHandler) Join(c *gin.Context) {
	userID := c.GetUint("userID")
	lobbyID, _ := strconv.Atoi(c.Param("id"))

	members, err := h.Registry.Join(userID, uint(lobbyID))
	if err != nil {
		respondError(c, err)
		return
	}

	h.Hub.Broadcast(uint(lobbyID), hub.Event{Type: hub.EventPlayerJoined, Payload: gin.H{"user_id": userID}})
	c.JSON(http.StatusOK, newPlayerResponses(members))
}

// RemoveMember godoc
// @Summary      Remove a player from a lobby
// @Description  The host may remove anyone; a player may remove themselves (leave).
// @Tags         lobbies
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int true "Lobby ID"
// @Param        userID  path int true "User ID of the player to remove"
// @Success      200 {object} map[string]string "{"message": "Player removed successfully"}"
// @Failure      403 {object} ErrorResponse "Not the host or the player themselves"
// @Failure      404 {object} ErrorResponse "Lobby or player not found"
// @Router       /lobbies/{id}/members/{userID} [delete]
func (h *LobbyHandler) RemoveMember(c *gin.Context) {
	requesterID := c.GetUint("userID")
	lobbyID, _ := strconv.Atoi(c.Param("id"))
	targetID, _ := strconv.Atoi(c.Param("userID"))

	if err := h.Registry.Remove(requesterID, uint(targetID), uint(lobbyID)); err != nil {
		respondError(c, err)
		return
	}

	h.Hub.Broadcast(uint(lobbyID), hub.Event{Type: hub.EventPlayerLeft, Payload: gin.H{"user_id": targetID}})
	c.JSON(http.StatusOK, gin.H{"message": "Player removed successfully"})
}

// Update godoc
// @Summary      Update a lobby (Host only)
// @Description  Updates name, availability or deck while the lobby is still waiting.
// @Tags         lobbies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int              true "Lobby ID"
// @Param        input body UpdateLobbyInput true "Lobby fields"
// @Success      200 {object} LobbyDetailResponse
// @Failure      403 {object} ErrorResponse "Only the host can update the lobby"
// @Failure      409 {object} ErrorResponse "Lobby settings locked during the game"
// @Router       /lobbies/{id} [put]
func (h *LobbyHandler) Update(c *gin.Context) {
	userID := c.GetUint("userID")
	lobbyID, _ := strconv.Atoi(c.Param("id"))

	var input UpdateLobbyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Errors: []string{err.Error()}})
		return
	}

	lobby, err := h.Registry.Edit(userID, uint(lobbyID), engine.EditInput{
		Name:      input.Name,
		Available: input.Available,
		DeckID:    input.DeckID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	members, _ := h.Registry.MembersOf(lobby.ID)
	c.JSON(http.StatusOK, h.newLobbyDetail(lobby, members))
}

// Delete godoc
// @Summary      Delete a lobby (Host only)
// @Tags         lobbies
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Success      200 {object} map[string]string "{"message": "Lobby deleted successfully"}"
// @Failure      403 {object} ErrorResponse "Only the host can delete the lobby"
// @Failure      404 {object} ErrorResponse "Lobby not found"
// @Router       /lobbies/{id} [delete]
func (h *LobbyHandler) Delete(c *gin.Context) {
	userID := c.GetUint("userID")
	lobbyID, _ := strconv.Atoi(c.Param("id"))

	if err := h.Registry.Delete(userID, uint(lobbyID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lobby deleted successfully"})
}

// Start godoc
// @Summary      Start the game (Host only)
// @Description  Moves the lobby into play and seeds the game flow at round 1.
// @Tags         lobbies
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Success      200 {object} map[string]string "{"message": "Game started successfully"}"
// @Failure      403 {object} ErrorResponse "Only the host can start the game"
// @Failure      409 {object} ErrorResponse "Already started or not enough players"
// @Router       /lobbies/{id}/start [post]
func (h *LobbyHandler) Start(c *gin.Context) {
	userID := c.GetUint("userID")
	lobbyID, _ := strconv.Atoi(c.Param("id"))

	if err := h.Registry.Start(userID, uint(lobbyID)); err != nil {
		respondError(c, err)
		return
	}

	h.Hub.Broadcast(uint(lobbyID), hub.Event{Type: hub.EventLobbyStarted, Payload: gin.H{"lobby_id": lobbyID}})
	c.JSON(http.StatusOK, gin.H{"message": "Game started successfully"})
}

// Events godoc
// @Summary      Subscribe to lobby events
// @Description  Server-sent event stream of lobby and match events.
// @Tags         lobbies
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Router       /lobbies/{id}/events [get]
func (h *LobbyHandler) Events(c *gin.Context) {
	lobbyID, _ := strconv.Atoi(c.Param("id"))

	client := make(hub.Client, 16)
	h.Hub.Subscribe(uint(lobbyID), client)
	defer h.Hub.Unsubscribe(uint(lobbyID), client)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
