package services

import (
	"errors"
	"time"

	"github.com/driftchat/chat_backend/database"
	"github.com/driftchat/chat_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultConversationName is the well-known key for a user's primary
// thread. Screens that open without an explicit conversation id resolve
// against it.
const DefaultConversationName = "Main"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmptyContent    = errors.New("message content is empty")
	ErrNotParticipant  = errors.New("profile is not a participant of this conversation")
)

// SendCommand describes one send. SenderID is whoever is speaking (the
// caller's profile or the injected assistant profile); InitiatorID is
// the human profile that owns the thread and becomes the first
// participant when the conversation has to be bootstrapped.
type SendCommand struct {
	MessageID        uuid.UUID // zero means "mint one"
	SenderID         uuid.UUID
	InitiatorID      uuid.UUID
	ConversationID   uuid.UUID // zero means "resolve by name"
	ConversationName string
	Content          string
}

// SendMessage appends a message, bootstrapping the conversation first
// when none exists for the command's key. Everything runs in a single
// transaction: either the conversation (with its participant), the
// message, and the last-message bump all commit together, or nothing
// does. A message is never visible without consistent conversation
// metadata.
func SendMessage(cmd SendCommand) (*models.Message, error) {
	if cmd.Content == "" {
		return nil, ErrEmptyContent
	}
	if cmd.ConversationName == "" {
		cmd.ConversationName = DefaultConversationName
	}

	var message models.Message
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		conversation, err := findOrCreateConversation(tx, cmd)
		if err != nil {
			return err
		}

		now := time.Now()
		message = models.Message{
			ID:             cmd.MessageID,
			ConversationID: conversation.ID,
			SenderID:       cmd.SenderID,
			Content:        cmd.Content,
			CreatedAt:      now,
		}
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		return tx.Model(conversation).Updates(map[string]interface{}{
			"last_message":    cmd.Content,
			"last_message_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &message, nil
}

func findOrCreateConversation(tx *gorm.DB, cmd SendCommand) (*models.Conversation, error) {
	var conversation models.Conversation

	if cmd.ConversationID != uuid.Nil {
		err := tx.First(&conversation, "id = ?", cmd.ConversationID).Error
		if err == nil {
			var memberships int64
			countErr := tx.Table("conversation_participants").
				Where("conversation_id = ? AND user_profile_id = ?", conversation.ID, cmd.InitiatorID).
				Count(&memberships).Error
			if countErr != nil {
				return nil, countErr
			}
			if memberships == 0 {
				return nil, ErrNotParticipant
			}
			return &conversation, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		initiator, err := lockInitiator(tx, cmd.InitiatorID)
		if err != nil {
			return nil, err
		}
		// The route-supplied id becomes the primary key, so the first
		// send creates exactly this conversation.
		return createConversation(tx, cmd.ConversationID, cmd.ConversationName, initiator)
	}

	// Lock the initiator's profile row before looking the name up.
	// Concurrent name-keyed sends for the same profile queue on this
	// row, so only the first one can miss the lookup and create the
	// conversation; the rest see it once they acquire the lock.
	initiator, err := lockInitiator(tx, cmd.InitiatorID)
	if err != nil {
		return nil, err
	}

	err = tx.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id AND cp.user_profile_id = ?", cmd.InitiatorID).
		Where("conversations.name = ?", cmd.ConversationName).
		First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return createConversation(tx, uuid.Nil, cmd.ConversationName, initiator)
}

func lockInitiator(tx *gorm.DB, initiatorID uuid.UUID) (*models.UserProfile, error) {
	query := tx
	// sqlite has no row-level FOR UPDATE; its single writer already
	// serializes transactions.
	if tx.Dialector.Name() == "postgres" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var initiator models.UserProfile
	if err := query.First(&initiator, "id = ?", initiatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &initiator, nil
}

func createConversation(tx *gorm.DB, id uuid.UUID, name string, initiator *models.UserProfile) (*models.Conversation, error) {
	conversation := models.Conversation{
		ID:       id,
		Name:     name,
		Archived: false,
	}
	if err := tx.Create(&conversation).Error; err != nil {
		return nil, err
	}

	// A conversation must never exist without its initiating
	// participant, so the link lands in the same transaction.
	if err := tx.Model(&conversation).Association("Participants").Append(initiator); err != nil {
		return nil, err
	}

	return &conversation, nil
}

// EnsureConversationByName is the idempotent find-or-create used when a
// screen opens a name-keyed thread before anything has been sent.
// Invoking it repeatedly for the same profile yields the same single
// conversation.
func EnsureConversationByName(profileID uuid.UUID, name string) (*models.Conversation, error) {
	if name == "" {
		name = DefaultConversationName
	}

	var conversation *models.Conversation
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		found, err := findOrCreateConversation(tx, SendCommand{
			InitiatorID:      profileID,
			ConversationName: name,
		})
		if err != nil {
			return err
		}
		conversation = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

// ListConversations returns the user's conversations with participants
// preloaded, optionally filtered by name or id. A user with no profile
// or no conversations gets an empty slice, not an error.
func ListConversations(userID uuid.UUID, nameFilter string, idFilter uuid.UUID) ([]models.Conversation, error) {
	var profile models.UserProfile
	if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.Conversation{}, nil
		}
		return nil, err
	}

	query := database.DB.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id AND cp.user_profile_id = ?", profile.ID).
		Preload("Participants").
		Order("conversations.last_message_at DESC NULLS LAST")
	if nameFilter != "" {
		query = query.Where("conversations.name = ?", nameFilter)
	}
	if idFilter != uuid.Nil {
		query = query.Where("conversations.id = ?", idFilter)
	}

	conversations := []models.Conversation{}
	if err := query.Find(&conversations).Error; err != nil {
		return nil, err
	}
	return conversations, nil
}

// GetConversationMessages loads a conversation's messages with senders,
// oldest first. A zero id short-circuits without touching the database,
// and an unknown id resolves to an empty slice.
func GetConversationMessages(conversationID uuid.UUID) ([]models.Message, error) {
	if conversationID == uuid.Nil {
		return []models.Message{}, nil
	}

	messages := []models.Message{}
	err := database.DB.
		Preload("Sender").
		Where("conversation_id = ? AND deleted = ?", conversationID, false).
		Order("created_at asc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// IsParticipant reports whether the profile is linked to the
// conversation.
func IsParticipant(conversationID, profileID uuid.UUID) (bool, error) {
	var memberships int64
	err := database.DB.Table("conversation_participants").
		Where("conversation_id = ? AND user_profile_id = ?", conversationID, profileID).
		Count(&memberships).Error
	if err != nil {
		return false, err
	}
	return memberships > 0, nil
}

// CanViewConversation gates reads on membership. A conversation that
// does not exist is viewable: downstream queries resolve it to empty
// collections, which must not turn into an access error.
func CanViewConversation(conversationID, profileID uuid.UUID) (bool, error) {
	if conversationID == uuid.Nil {
		return true, nil
	}

	var conversation models.Conversation
	err := database.DB.Select("id").First(&conversation, "id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	return IsParticipant(conversationID, profileID)
}

// GetProfileByUserID resolves the authenticated account's profile.
func GetProfileByUserID(userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}
