package models

import "gorm.io/gorm"

// HandCard is one card of a player's dealt hand, ordered by Position.
type HandCard struct {
	gorm.Model
	LobbyID  uint `gorm:"not null;index:idx_hand_lobby_user"`
	UserID   uint `gorm:"not null;index:idx_hand_lobby_user"`
	Position int  `gorm:"not null"`
	CardID   uint `gorm:"not null"`
}

// GameFlow tracks whose turn it is and which round a playing lobby is in.
type GameFlow struct {
	gorm.Model
	LobbyID           uint  `gorm:"not null;uniqueIndex"`
	CurrentTurnUserID uint  `gorm:"not null"`
	CurrentRound      int   `gorm:"not null;default:1"`
	ChosenAttributeID *uint // nil until the round opener picks one
}

// PlayedCard records one player's card reveal within a round.
type PlayedCard struct {
	gorm.Model
	LobbyID uint `gorm:"not null;index:idx_played_lobby_round"`
	Round   int  `gorm:"not null;index:idx_played_lobby_round"`
	UserID  uint `gorm:"not null"`
	CardID  uint `gorm:"not null"`
	Value   int  `gorm:"not null"`
}
