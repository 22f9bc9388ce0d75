package models

import "gorm.io/gorm"

// LobbyStatus is the lifecycle phase of a lobby.
type LobbyStatus string

const (
	LobbyWaiting  LobbyStatus = "waiting"
	LobbyPlaying  LobbyStatus = "playing"
	LobbyFinished LobbyStatus = "finished"
)

// LobbyCapacity is the maximum number of members a lobby can seat.
const LobbyCapacity = 30

// Lobby is a pending or in-progress match instance.
type Lobby struct {
	gorm.Model
	Name        string      `gorm:"size:50;not null"`
	HostID      uint        `gorm:"not null;index"`
	DeckID      uint        `gorm:"not null"`
	Status      LobbyStatus `gorm:"size:20;not null;default:'waiting'"`
	Available   bool        `gorm:"not null;default:true"`
	Distributed bool        `gorm:"not null;default:false"`

	Host    User          `gorm:"foreignKey:HostID"`
	Deck    Deck          `gorm:"foreignKey:DeckID"`
	Members []LobbyMember `gorm:"foreignKey:LobbyID;constraint:OnDelete:CASCADE"`
}

// LobbyMember seats a user in a lobby. The auto-increment ID doubles as the
// seat order: members act in the order they joined.
type LobbyMember struct {
	gorm.Model
	LobbyID uint `gorm:"not null;index"`
	UserID  uint `gorm:"not null;uniqueIndex"` // a user sits in at most one lobby

	User User `gorm:"foreignKey:UserID"`
}
