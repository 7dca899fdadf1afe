package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message content is append-only: edits flip the Edited flag and
// deletes flip Deleted, the original row is never rewritten away.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Deleted        bool      `gorm:"default:false" json:"deleted"`
	Edited         bool      `gorm:"default:false" json:"edited"`

	Sender       *UserProfile `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Conversation Conversation `gorm:"foreignKey:ConversationID" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
