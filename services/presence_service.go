package services

import (
	"time"

	"github.com/driftchat/chat_backend/database"
	"github.com/driftchat/chat_backend/models"
	"github.com/google/uuid"
)

// TouchPresence records activity for a profile: marks it active,
// updates the typing flag and stamps last-seen.
func TouchPresence(profileID uuid.UUID, typing bool) error {
	now := time.Now()
	return database.DB.Model(&models.UserProfile{}).
		Where("id = ?", profileID).
		Updates(map[string]interface{}{
			"is_active":    true,
			"is_typing":    typing,
			"last_seen_at": now,
		}).Error
}

// SweepStalePresence clears activity flags on profiles that have not
// been seen within maxIdle. Returns how many rows were touched.
func SweepStalePresence(maxIdle time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxIdle)
	result := database.DB.Model(&models.UserProfile{}).
		Where("(is_active = ? OR is_typing = ?) AND (last_seen_at IS NULL OR last_seen_at < ?)", true, true, cutoff).
		Updates(map[string]interface{}{
			"is_active": false,
			"is_typing": false,
		})
	return result.RowsAffected, result.Error
}
