package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GalleryImage is one saved image in a user's gallery. Records are written
// once and never updated.
type GalleryImage struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string    `json:"userId" gorm:"not null;index:idx_user_images_owner_created,priority:1"`
	Prompt         string    `json:"prompt" gorm:"not null"`
	ModelID        string    `json:"modelId" gorm:"not null"`
	ImageURL       string    `json:"imageUrl" gorm:"not null"`
	OriginalFalURL string    `json:"originalFalUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt" gorm:"not null;index:idx_user_images_owner_created,priority:2"`
}

func (GalleryImage) TableName() string {
	return "user_images"
}

func (g *GalleryImage) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
