package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FileAsset struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Path string    `gorm:"size:255;not null;uniqueIndex" json:"path"`
	URL  string    `gorm:"size:500;not null" json:"url"`

	CreatedAt time.Time `json:"created_at"`
}

func (f *FileAsset) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
