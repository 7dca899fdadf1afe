package handlers

import (
	"errors"
	"time"

	"github.com/driftchat/chat_backend/database"
	"github.com/driftchat/chat_backend/models"
	"github.com/driftchat/chat_backend/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UpdateStatusRequest struct {
	MarkRead   bool       `json:"mark_read"`
	Pinned     *bool      `json:"pinned"`
	MutedUntil *time.Time `json:"muted_until"`
}

// UpdateConversationStatus upserts the caller's read/pin/mute row for
// one conversation.
func UpdateConversationStatus(c *fiber.Ctx) error {
	userID, ok := authedUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
	}

	profile, err := services.GetProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	var status models.UserConversationStatus
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var conversation models.Conversation
		if err := tx.First(&conversation, "id = ?", conversationID).Error; err != nil {
			return err
		}

		var memberships int64
		if err := tx.Table("conversation_participants").
			Where("conversation_id = ? AND user_profile_id = ?", conversationID, profile.ID).
			Count(&memberships).Error; err != nil {
			return err
		}
		if memberships == 0 {
			return services.ErrNotParticipant
		}

		err := tx.Where("profile_id = ? AND conversation_id = ?", profile.ID, conversationID).
			First(&status).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = models.UserConversationStatus{
				ProfileID:      profile.ID,
				ConversationID: conversationID,
			}
			if err := tx.Create(&status).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if req.MarkRead {
			now := time.Now()
			status.LastReadAt = &now
		}
		if req.Pinned != nil {
			status.Pinned = *req.Pinned
		}
		if req.MutedUntil != nil {
			status.MutedUntil = req.MutedUntil
		}

		return tx.Save(&status).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
		}
		if errors.Is(err, services.ErrNotParticipant) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a participant of this conversation"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update conversation status"})
	}

	return c.JSON(status)
}

// GetConversationStatus returns the caller's status row for one
// conversation. No row yet means default state, not an error.
func GetConversationStatus(c *fiber.Ctx) error {
	userID, ok := authedUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
	}

	profile, err := services.GetProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}

	var status models.UserConversationStatus
	err = database.DB.Where("profile_id = ? AND conversation_id = ?", profile.ID, conversationID).
		First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(models.UserConversationStatus{
			ProfileID:      profile.ID,
			ConversationID: conversationID,
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch conversation status"})
	}

	return c.JSON(status)
}
