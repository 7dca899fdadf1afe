package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserProfile struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	DisplayName string    `gorm:"size:100;not null;unique" json:"display_name"`

	AvatarURL  *string           `gorm:"size:255" json:"avatar_url"`
	IsActive   bool              `gorm:"default:false" json:"is_active"`
	IsTyping   bool              `gorm:"default:false" json:"is_typing"`
	LastSeenAt *time.Time        `json:"last_seen_at"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`

	User          UserAccount     `gorm:"foreignKey:UserID" json:"-"`
	Conversations []*Conversation `gorm:"many2many:conversation_participants;" json:"conversations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
