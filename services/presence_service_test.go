package services

import (
	"testing"
	"time"

	"github.com/driftchat/chat_backend/database"
	"github.com/driftchat/chat_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouchPresence(t *testing.T) {
	setupTestDB(t)
	p1 := createTestProfile(t, "p1")

	require.NoError(t, TouchPresence(p1.ID, true))

	var profile models.UserProfile
	require.NoError(t, database.DB.First(&profile, "id = ?", p1.ID).Error)
	assert.True(t, profile.IsActive)
	assert.True(t, profile.IsTyping)
	require.NotNil(t, profile.LastSeenAt)
	assert.WithinDuration(t, time.Now(), *profile.LastSeenAt, 5*time.Second)
}

func TestSweepStalePresence(t *testing.T) {
	setupTestDB(t)
	stale := createTestProfile(t, "stale")
	fresh := createTestProfile(t, "fresh")

	longAgo := time.Now().Add(-time.Hour)
	require.NoError(t, database.DB.Model(&models.UserProfile{}).Where("id = ?", stale.ID).
		Updates(map[string]interface{}{"is_active": true, "is_typing": true, "last_seen_at": longAgo}).Error)
	require.NoError(t, TouchPresence(fresh.ID, false))

	cleared, err := SweepStalePresence(10 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	var staleProfile, freshProfile models.UserProfile
	require.NoError(t, database.DB.First(&staleProfile, "id = ?", stale.ID).Error)
	require.NoError(t, database.DB.First(&freshProfile, "id = ?", fresh.ID).Error)
	assert.False(t, staleProfile.IsActive)
	assert.False(t, staleProfile.IsTyping)
	assert.True(t, freshProfile.IsActive)
}
