package gormstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cardclash/backend/internal/models"
)

// testStore opens a throwaway sqlite database carrying the full schema.
func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection, or the in-memory database vanishes between queries
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Deck{}, &models.Attribute{}, &models.Card{},
		&models.CardAttribute{}, &models.Lobby{}, &models.LobbyMember{},
		&models.HandCard{}, &models.GameFlow{}, &models.PlayedCard{},
	))
	return New(db)
}

func seedLobby(t *testing.T, s *Store, hostID uint) uint {
	t.Helper()
	lobby := &models.Lobby{
		Name:      "battle room",
		HostID:    hostID,
		DeckID:    1,
		Status:    models.LobbyWaiting,
		Available: true,
	}
	require.NoError(t, s.CreateLobby(lobby))
	return lobby.ID
}

func TestRemoveMemberFreesSeat(t *testing.T) {
	s := testStore(t)
	first := seedLobby(t, s, 1)
	second := seedLobby(t, s, 2)

	require.NoError(t, s.AddMember(first, 5))
	require.NoError(t, s.RemoveMember(first, 5))
	require.NoError(t, s.AddMember(second, 5), "a vacated seat must not block the next join")

	lobbyID, in, err := s.MemberLobby(5)
	require.NoError(t, err)
	assert.True(t, in)
	assert.Equal(t, second, lobbyID)
}

func TestRemoveMemberAllowsRejoin(t *testing.T) {
	s := testStore(t)
	lobbyID := seedLobby(t, s, 1)

	require.NoError(t, s.AddMember(lobbyID, 5))
	require.NoError(t, s.RemoveMember(lobbyID, 5))
	require.NoError(t, s.AddMember(lobbyID, 5))

	members, err := s.Members(lobbyID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, uint(5), members[0].UserID)
}

func TestDeleteLobbyFreesSeats(t *testing.T) {
	s := testStore(t)
	first := seedLobby(t, s, 1)
	require.NoError(t, s.AddMember(first, 7))
	require.NoError(t, s.DeleteLobby(first))

	second := seedLobby(t, s, 2)
	require.NoError(t, s.AddMember(second, 7))

	members, err := s.Members(second)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, uint(7), members[0].UserID)
}
