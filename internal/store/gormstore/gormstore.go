// Package gormstore implements the engine's Store and DeckCatalog ports on
// top of the application's gorm connection.
package gormstore

import (
	"errors"

	"gorm.io/gorm"

	"cardclash/backend/internal/engine"
	"cardclash/backend/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateLobby(lobby *models.Lobby) error {
	return s.db.Create(lobby).Error
}

func (s *Store) GetLobby(id uint) (*models.Lobby, error) {
	var lobby models.Lobby
	if err := s.db.First(&lobby, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lobby, nil
}

func (s *Store) SaveLobby(lobby *models.Lobby) error {
	return s.db.Save(lobby).Error
}

func (s *Store) DeleteLobby(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		// Memberships go unscoped so the user_id unique index frees the seats.
		if err := tx.Unscoped().Where("lobby_id = ?", id).Delete(&models.LobbyMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lobby_id = ?", id).Delete(&models.HandCard{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lobby_id = ?", id).Delete(&models.GameFlow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lobby_id = ?", id).Delete(&models.PlayedCard{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Lobby{}, id).Error
	})
}

func (s *Store) Members(lobbyID uint) ([]models.LobbyMember, error) {
	var members []models.LobbyMember
	err := s.db.Where("lobby_id = ?", lobbyID).Order("id ASC").Preload("User").Find(&members).Error
	return members, err
}

func (s *Store) MemberLobby(userID uint) (uint, bool, error) {
	var member models.LobbyMember
	if err := s.db.Where("user_id = ?", userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return member.LobbyID, true, nil
}

func (s *Store) AddMember(lobbyID, userID uint) error {
	return s.db.Create(&models.LobbyMember{LobbyID: lobbyID, UserID: userID}).Error
}

func (s *Store) RemoveMember(lobbyID, userID uint) error {
	// Hard delete: a soft-deleted row would keep holding the user_id unique
	// index and block the user from ever joining another lobby.
	return s.db.Unscoped().Where("lobby_id = ? AND user_id = ?", lobbyID, userID).Delete(&models.LobbyMember{}).Error
}

func (s *Store) SaveHands(lobbyID uint, hands map[uint][]uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for userID, cards := range hands {
			for pos, cardID := range cards {
				hc := models.HandCard{LobbyID: lobbyID, UserID: userID, Position: pos, CardID: cardID}
				if err := tx.Create(&hc).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Store) PopTopCard(lobbyID, userID uint) (uint, bool, error) {
	var hand models.HandCard
	err := s.db.Where("lobby_id = ? AND user_id = ?", lobbyID, userID).
		Order("position ASC").First(&hand).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if err := s.db.Delete(&hand).Error; err != nil {
		return 0, false, err
	}
	return hand.CardID, true, nil
}

func (s *Store) HandCounts(lobbyID uint) (map[uint]int, error) {
	var rows []struct {
		UserID uint
		Total  int
	}
	err := s.db.Model(&models.HandCard{}).
		Select("user_id, COUNT(*) AS total").
		Where("lobby_id = ?", lobbyID).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int, len(rows))
	for _, row := range rows {
		counts[row.UserID] = row.Total
	}
	return counts, nil
}

func (s *Store) DeleteHand(lobbyID, userID uint) error {
	return s.db.Where("lobby_id = ? AND user_id = ?", lobbyID, userID).Delete(&models.HandCard{}).Error
}

func (s *Store) GetFlow(lobbyID uint) (*models.GameFlow, error) {
	var flow models.GameFlow
	if err := s.db.Where("lobby_id = ?", lobbyID).First(&flow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &flow, nil
}

func (s *Store) SaveFlow(flow *models.GameFlow) error {
	if flow.ID == 0 {
		existing, err := s.GetFlow(flow.LobbyID)
		if err != nil {
			return err
		}
		if existing != nil {
			flow.ID = existing.ID
			flow.CreatedAt = existing.CreatedAt
		}
	}
	// Save updates every column, so clearing ChosenAttributeID writes NULL.
	return s.db.Save(flow).Error
}

func (s *Store) PlayedCards(lobbyID uint, round int) ([]models.PlayedCard, error) {
	var plays []models.PlayedCard
	err := s.db.Where("lobby_id = ? AND round = ?", lobbyID, round).Order("id ASC").Find(&plays).Error
	return plays, err
}

func (s *Store) AppendPlayedCard(play *models.PlayedCard) error {
	return s.db.Create(play).Error
}

func (s *Store) DeletePlayedCard(lobbyID uint, round int, userID uint) error {
	return s.db.Where("lobby_id = ? AND round = ? AND user_id = ?", lobbyID, round, userID).
		Delete(&models.PlayedCard{}).Error
}

// --- DeckCatalog ---

func (s *Store) GetDeck(deckID uint) (*engine.DeckInfo, error) {
	var deck models.Deck
	if err := s.db.Preload("Attributes").First(&deck, deckID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	info := &engine.DeckInfo{ID: deck.ID, Name: deck.Name, Available: deck.Available}
	for _, attr := range deck.Attributes {
		info.AttributeIDs = append(info.AttributeIDs, attr.ID)
	}
	return info, nil
}

func (s *Store) Cards(deckID uint) ([]engine.CardInfo, error) {
	var cards []models.Card
	if err := s.db.Where("deck_id = ?", deckID).Order("id ASC").Preload("Values").Find(&cards).Error; err != nil {
		return nil, err
	}
	infos := make([]engine.CardInfo, 0, len(cards))
	for _, card := range cards {
		info := engine.CardInfo{ID: card.ID, Values: make(map[uint]int, len(card.Values))}
		for _, v := range card.Values {
			info.Values[v.AttributeID] = v.Value
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *Store) CardValue(cardID, attributeID uint) (int, bool, error) {
	var value models.CardAttribute
	err := s.db.Where("card_id = ? AND attribute_id = ?", cardID, attributeID).First(&value).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return value.Value, true, nil
}
