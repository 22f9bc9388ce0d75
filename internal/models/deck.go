package models

import "gorm.io/gorm"

// DeckAttributeCount is the number of comparison attributes every deck carries.
const DeckAttributeCount = 5

// DeckSize is the number of cards a deck must hold before it can be enabled.
const DeckSize = 30

// Deck is a themed card pool that lobbies play with.
type Deck struct {
	gorm.Model
	Name      string `gorm:"size:255;not null"`
	ImageURL  string `gorm:"size:512"`
	Available bool   `gorm:"not null;default:false"`

	Attributes []Attribute `gorm:"foreignKey:DeckID;constraint:OnDelete:CASCADE"`
	Cards      []Card      `gorm:"foreignKey:DeckID;constraint:OnDelete:CASCADE"`
}

// Attribute is one of a deck's five named comparison axes.
type Attribute struct {
	gorm.Model
	DeckID uint   `gorm:"not null;index"`
	Name   string `gorm:"size:100;not null"`
}
