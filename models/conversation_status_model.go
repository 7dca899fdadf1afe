package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserConversationStatus holds one row of read/pin/mute state per
// (profile, conversation) pair.
type UserConversationStatus struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ProfileID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_profile_conversation" json:"profile_id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_profile_conversation" json:"conversation_id"`

	LastReadAt *time.Time `json:"last_read_at"`
	Pinned     bool       `gorm:"default:false" json:"pinned"`
	MutedUntil *time.Time `json:"muted_until"`

	Profile      UserProfile  `gorm:"foreignKey:ProfileID" json:"-"`
	Conversation Conversation `gorm:"foreignKey:ConversationID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *UserConversationStatus) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
