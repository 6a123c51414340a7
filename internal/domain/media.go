package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeneratedImage records an image produced for a room's interpretation.
type GeneratedImage struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	UserID          string    `gorm:"size:36;not null;index" json:"userId"`
	ChatRoomID      string    `gorm:"size:36;not null;index" json:"chatRoomId"`
	ImageURL        string    `gorm:"size:2048;not null" json:"imageUrl"`
	ImagePath       string    `gorm:"size:1024" json:"imagePath,omitempty"`
	ImagePrompt     string    `gorm:"type:text" json:"imagePrompt"`
	GenerationModel string    `gorm:"size:50" json:"generationModel"`
	BotGender       BotGender `gorm:"size:10" json:"botGender"`
	BotStyle        BotStyle  `gorm:"size:10" json:"botStyle"`
	IsPremium       bool      `gorm:"not null;default:false" json:"isPremium"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (g *GeneratedImage) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

type VideoStyle struct {
	Gender   BotGender `json:"gender"`
	Approach BotStyle  `json:"approach"`
}

type Video struct {
	ID           string                         `gorm:"primaryKey;size:36" json:"id"`
	UserID       string                         `gorm:"size:36;not null;index" json:"userId"`
	ChatRoomID   string                         `gorm:"size:36;not null;index" json:"chatRoomId"`
	Title        string                         `gorm:"size:255" json:"title"`
	Description  string                         `gorm:"type:text" json:"description"`
	VideoURL     string                         `gorm:"size:2048;not null" json:"videoUrl"`
	Provider     string                         `gorm:"size:50" json:"provider"`
	Style        datatypes.JSONType[VideoStyle] `json:"style"`
	DreamContent string                         `gorm:"type:text" json:"dreamContent"`
	CreatedAt    time.Time                      `json:"createdAt"`
	UpdatedAt    time.Time                      `json:"updatedAt"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
