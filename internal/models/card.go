package models

import "gorm.io/gorm"

// Card is a single playable card inside a deck.
type Card struct {
	gorm.Model
	DeckID   uint   `gorm:"not null;index"`
	Name     string `gorm:"size:255;not null"`
	ImageURL string `gorm:"size:512"`

	Values []CardAttribute `gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE"`
}

// CardAttribute holds a card's numeric value for one deck attribute.
type CardAttribute struct {
	CardID      uint `gorm:"primaryKey;autoIncrement:false"`
	AttributeID uint `gorm:"primaryKey;autoIncrement:false"`
	Value       int  `gorm:"not null"`
}
