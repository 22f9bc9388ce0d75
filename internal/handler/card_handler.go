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

type CardValueInput struct {
	AttributeID uint `json:"attribute_id" binding:"required"`
	Value       int  `json:"value"`
}

type CardInput struct {
	Name     string           `json:"name" binding:"required,min=3,max=50"`
	ImageURL string           `json:"image_url" binding:"required,min=10"`
	Values   []CardValueInput `json:"values" binding:"required,len=5,dive"`
}

type CardUpdateInput struct {
	Name     *string          `json:"name" binding:"omitempty,min=3,max=50"`
	ImageURL *string          `json:"image_url" binding:"omitempty,min=10"`
	Values   []CardValueInput `json:"values" binding:"omitempty,dive"`
}

type CardValueResponse struct {
	AttributeID uint `json:"attribute_id"`
	Value       int  `json:"value"`
}

type CardResponse struct {
	ID       uint                `json:"id"`
	DeckID   uint                `json:"deck_id"`
	Name     string              `json:"name"`
	ImageURL string              `json:"image_url"`
	Values   []CardValueResponse `json:"values"`
}

func newCardResponse(card models.Card) CardResponse {
	values := make([]CardValueResponse, 0, len(card.Values))
	for _, v := range card.Values {
		values = append(values, CardValueResponse{AttributeID: v.AttributeID, Value: v.Value})
	}
	return CardResponse{
		ID:       card.ID,
		DeckID:   card.DeckID,
		Name:     card.Name,
		ImageURL: card.ImageURL,
		Values:   values,
	}
}

// endregion

// deckAttributeSet loads the deck's attribute ids for value validation.
func deckAttributeSet(deckID uint) (map[uint]bool, error) {
	var attrs []models.Attribute
	if err := database.DB.Where("deck_id = ?", deckID).Find(&attrs).Error; err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(attrs))
	for _, a := range attrs {
		set[a.ID] = true
	}
	return set, nil
}

// CreateCard godoc
// @Summary      Create a card in a deck (Admin only)
// @Description  Creates a card carrying a value for each of the deck's five attributes. A deck holds at most 30 cards.
// @Tags         admin-cards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path int       true "Deck ID"
// @Param        input  body CardInput true "Card Info"
// @Success      201  {object}  CardResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Deck not found"
// @Failure      409  {object}  ErrorResponse "Deck is full"
// @Router       /admin/decks/{id}/cards [post]
func CreateCard(c *gin.Context) {
	deckID, _ := strconv.Atoi(c.Param("id"))

	var deck models.Deck
	if err := database.DB.Preload("Cards").First(&deck, deckID).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Errors: []string{"Deck not found."}})
		return
	}

	var input CardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Errors: []string{err.Error()}})
		return
	}

	if len(deck.Cards) >= models.DeckSize {
		c.JSON(http.StatusConflict, ErrorResponse{Errors: []string{"Deck already holds the maximum of 30 cards."}})
		return
	}

	attrSet, err := deckAttributeSet(deck.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Errors: []string{"Failed to load deck attributes."}})
		return
	}
	for _, v := range input.Values {
		if !attrSet[v.AttributeID] {
			c.JSON(http.StatusBadRequest, ErrorResponse{Errors: []string{"One of the given attributes does not belong to the deck."}})
			return
		}
	}

	card := models.Card{DeckID: deck.ID, Name: input.Name, ImageURL: input.ImageURL}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&card).Error; err != nil {
			return err
		}
		for _, v := range input.Values {
			value := models.CardAttribute{CardID: card.ID, AttributeID: v.AttributeID, Value: v.Value}
			if err := tx.Create(&value).Error; err != nil {
				return err
			}
			card.Values = append(card.Values, value)
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Errors: []string{"Failed to create card."}})
		return
	}

	c.JSON(http.StatusCreated, newCardResponse(card))
}

// GetCards godoc
// @Summary      List a deck's cards
// @Tags         decks
// @Produce      json
// @Param        id     path int true "Deck ID"
// @Success      200 {array} CardResponse
// @Failure      404 {object} ErrorResponse "Deck not found"
// @Router       /decks/{id}/cards [get]
func GetCards(c *gin.Context) {
	deckID, _ := strconv.Atoi(c.Param("id"))

	var deck models.Deck
	if err := database.DB.First(&deck, deckID).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Errors: []string{"Deck not found."}})
		return
	}

	var cards []models.Card
	database.DB.Where("deck_id = ?", deck.ID).Preload("Values").Order("id ASC").Find(&cards)

	response := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		response = append(response, newCardResponse(card))
	}
	c.JSON(http.StatusOK, response)
}

// GetCardByID godoc
// @Summary      Get one card of a deck
// @Tags         decks
// @Produce      json
// @Param        id     path int true "Deck ID"
// @Param        cardID path int true "Card ID"
// @Success      200 {object} CardResponse
// @Failure      404 {object} ErrorResponse "Card not found"
// @Router       /decks/{id}/cards/{cardID} [get]
func GetCardByID(c *gin.Context) {
	deckID, _ := strconv.Atoi(c.Param("id"))
	cardID, _ := strconv.Atoi(c.Param("cardID"))

	var card models.Card
	if err := database.DB.Where("deck_id = ?", deckID).Preload("Values").First(&card, cardID).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Errors: []string{"Card not found."}})
		return
	}

	c.JSON(http.StatusOK, newCardResponse(card))
}

// UpdateCard godoc
// @Summary      Update a card (Admin only)
// @Description  Updates card name, image or attribute values.
// @Tags         admin-cards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path int             true "Deck ID"
// @Param        cardID path int             true "Card ID"
// @Param        input  body CardUpdateInput true "Card fields"
// @Success      200 {object} CardResponse
// @Failure      404 {object} ErrorResponse "Card not found"
// @Router       /admin/decks/{id}/cards/{cardID} [put]
func UpdateCard(c *gin.Context) {
	deckID, _ := strconv.Atoi(c.Param("id"))
	cardID, _ := strconv.Atoi(c.Param("cardID"))

	var card models.Card
	if err := database.DB.Where("deck_id = ?", deckID).First(&card, cardID).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Errors: []string{"Card not found."}})
		return
	}

	var input CardUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Errors: []string{err.Error()}})
		return
	}

	if input.Name != nil {
		card.Name = *input.Name
	}
	if input.ImageURL != nil {
		card.ImageURL = *input.ImageURL
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&card).Error; err != nil {
			return err
		}
		for _, v := range input.Values {
			err := tx.Model(&models.CardAttribute{}).
				Where("card_id = ? AND attribute_id = ?", card.ID, v.AttributeID).
				Update("value", v.Value).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Errors: []string{"Failed to update card."}})
		return
	}

	database.DB.Preload("Values").First(&card, card.ID)
	c.JSON(http.StatusOK, newCardResponse(card))
}

// DeleteCard godoc
// @Summary      Delete a card (Admin only)
// @Tags         admin-cards
// @Produce      json
// @Security     BearerAuth
// @Param        id     path int true "Deck ID"
// @Param        cardID path int true "Card ID"
// @Success      200 {object} map[string]string "{"message": "Card deleted successfully"}"
// @Failure      404 {object} ErrorResponse "Card not found"
// @Router       /admin/decks/{id}/cards/{cardID} [delete]
func DeleteCard(c *gin.Context) {
	deckID, _ := strconv.Atoi(c.Param("id"))
	cardID, _ := strconv.Atoi(c.Param("cardID"))

	var card models.Card
	if err := database.DB.Where("deck_id = ?", deckID).First(&card, cardID).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Errors: []string{"Card not found."}})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("card_id = ?", card.ID).Delete(&models.CardAttribute{}).Error; err != nil {
			return err
		}
		return tx.Delete(&card).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Errors: []string{"Failed to delete card."}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Card deleted successfully"})
}
