// File: internal/domain/chat.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DateLayout is the calendar-day format stored in ChatRoom.Date.
const DateLayout = "2006-01-02"

// ChatRoom is a user's conversation for one calendar day.
type ChatRoom struct {
	ID            string      `gorm:"primaryKey;size:36" json:"id"`
	UserID        string      `gorm:"size:36;not null;uniqueIndex:idx_chat_rooms_user_date" json:"userId"`
	Title         string      `gorm:"size:255" json:"title"`
	Date          string      `gorm:"size:10;not null;uniqueIndex:idx_chat_rooms_user_date" json:"date"`
	BotSettingsID uint        `gorm:"not null" json:"-"`
	BotSettings   BotSettings `gorm:"foreignKey:BotSettingsID" json:"botSettings"`
	IsActive      bool        `gorm:"not null;default:true" json:"isActive"`
	Messages      []Message   `gorm:"foreignKey:ChatRoomID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func (c *ChatRoom) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// DefaultRoomTitle is the title a room gets when the caller supplies none.
func DefaultRoomTitle(date string) string {
	return date + " 꿈 해몽"
}
