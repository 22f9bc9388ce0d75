package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cardclash/backend/internal/database"
	"cardclash/backend/internal/models"
)

// region --- DTOs ---

type DeckInput struct {
	Name       string   `json:"name" binding:"required,min=3,max=50"`
	ImageURL   string   `json:"image_url" binding:"required,min=10"`
	Attributes []string `json:"attributes" binding:"required,len=5,dive,required"`
}

type DeckUpdateInput struct {
	Name      *string `json:"name" binding:"omitempty,min=3,max=50"`
	ImageURL  *string `json:"image_url" binding:"omitempty,min=10"`
	Available *bool   `json:"available"`
}

type AttributeResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type DeckResponse struct {
	ID         uint                `json:"id"`
	Name       string              `json:"name"`
	ImageURL   string              `json:"image_url"`
	Available  bool                `json:"available"`
	CardCount  int                 `json:"card_count"`
	Attributes []AttributeResponse `json:"attributes"`
}

func newDeckResponse(deck models.Deck) DeckResponse {
	attrs := make([]AttributeResponse, 0, len(deck.Attributes))
	for _, a := range deck.Attributes {
		attrs = append(attrs, AttributeResponse{ID: a.ID, Name: a.Name})
	}
	return DeckResponse{
		ID:         deck.ID,
		Name:       deck.Name,
		ImageURL:   deck.ImageURL,
		Available:  deck.Available,
		CardCount:  len(deck.Cards),
		Attributes: attrs,
	}
}

// endregion

// CreateDeck godoc
// @Summary      Create a new deck (Admin only)
// @Description  Creates a deck with its five named attributes. Decks start unavailable until they hold 30 cards.
// @Tags         admin-decks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body DeckInput true "Deck Info"
// @Success      201  {object}  DeckResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /admin/decks [post]
func CreateDeck(c *gin.Context) {
	var input DeckInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Errors: []string{err.Error()}})
		return
	}

	deck := models.Deck{Name: input.Name, ImageURL: input.ImageURL}
	for _, name := range input.Attributes {
		deck.Attributes = append(deck.Attributes, models.Attribute{Name: name})
	}

	if err := database.DB.Create(&deck).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Errors: []string{"Failed to create deck."}})
		return
	}

	c.JSON(http.StatusCreated, newDeckResponse(deck))
}

// GetDecks godoc
// @Summary      List decks
// @Description  Gets a paginated list of decks with their attributes.
// @Tags         decks
// @Produce      json
// @Param        page  query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Success      200 {object} PaginatedResponse[DeckResponse]
// @Router       /decks [get]
func GetDecks(c *gin.Context) {
	page, limit := pageParams(c)

	result, err := Paginate[models.Deck](database.DB.Preload("Attributes").Preload("Cards"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Errors: []string{"Failed to list decks."}})
		return
	}

	response := make([]DeckResponse, 0, len(result.Data))
	for _, deck := range result.Data {
		response = append(response, newDeckResponse(deck))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(response, result.Meta.TotalItems, page, limit))
}

// GetDeckByID godoc
// @Summary      Get a deck
// @Description  Gets one deck with its attributes and card count.
// @Tags         decks
// @Produce      json
// @Param        id path int true "Deck ID"
// @Success      200 {object} DeckResponse
// @Failure      404 {object} ErrorResponse "Deck not found"
// @Router       /decks/{id} [get]
func GetDeckByID(c *gin.Context) {
	deckID, _ := strconv.Atoi(c.Param("id"))

	var deck models.Deck
	if err := database.DB.Preload("Attributes").Preload("Cards").First(&deck, deckID).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Errors: []string{"Deck not found."}})
		return
	}

	c.JSON(http.StatusOK, newDeckResponse(deck))
}

// UpdateDeck godoc
// @Summary      Update a deck (Admin only)
// @Description  Updates deck name, image or availability. A deck can only be made available once it holds 30 cards.
// @Tags         admin-decks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int             true "Deck ID"
// @Param        input body DeckUpdateInput true "Deck fields"
// @Success      200 {object} DeckResponse
// @Failure      404 {object} ErrorResponse "Deck not found"
// @Failure      409 {object} ErrorResponse "Deck does not hold 30 cards yet"
// @Router       /admin/decks/{id} [put]
func UpdateDeck(c *gin.Context) {
	deckID, _ := strconv.Atoi(c.Param("id"))

	var deck models.Deck
	if err := database.DB.Preload("Attributes").Preload("Cards").First(&deck, deckID).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Errors: []string{"Deck not found."}})
		return
	}

	var input DeckUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Errors: []string{err.Error()}})
		return
	}

	if input.Available != nil && *input.Available && len(deck.Cards) < models.DeckSize {
		c.JSON(http.StatusConflict, ErrorResponse{Errors: []string{"Deck must hold 30 cards before it can be made available."}})
		return
	}

	if input.Name != nil {
		deck.Name = *input.Name
	}
	if input.ImageURL != nil {
		deck.ImageURL = *input.ImageURL
	}
	if input.Available != nil {
		deck.Available = *input.Available
	}

	if err := database.DB.Save(&deck).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Errors: []string{"Failed to update deck."}})
		return
	}

	c.JSON(http.StatusOK, newDeckResponse(deck))
}

// DeleteDeck godoc
// @Summary      Delete a deck (Admin only)
// @Description  Deletes a deck with its attributes and cards.
// @Tags         admin-decks
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Deck ID"
// @Success      200 {object} map[string]string "{"message": "Deck deleted successfully"}"
// @Failure      404 {object} ErrorResponse "Deck not found"
// @Router       /admin/decks/{id} [delete]
func DeleteDeck(c *gin.Context) {
	deckID, _ := strconv.Atoi(c.Param("id"))

	var deck models.Deck
	if err := database.DB.First(&deck, deckID).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Errors: []string{"Deck not found."}})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("card_id IN (?)", tx.Model(&models.Card{}).Select("id").Where("deck_id = ?", deck.ID)).Delete(&models.CardAttribute{}).Error; err != nil {
			return err
		}
		if err := tx.Where("deck_id = ?", deck.ID).Delete(&models.Card{}).Error; err != nil {
			return err
		}
		if err := tx.Where("deck_id = ?", deck.ID).Delete(&models.Attribute{}).Error; err != nil {
			return err
		}
		return tx.Delete(&deck).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Errors: []string{"Failed to delete deck."}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deck deleted successfully"})
}
