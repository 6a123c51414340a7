// File: internal/domain/message.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageType string

const (
	MessageTypeUser MessageType = "user"
	MessageTypeBot  MessageType = "bot"
)

// Message represents a single message within a chat room.
type Message struct {
	ID             string      `gorm:"primaryKey;size:36" json:"id"`
	ChatRoomID     string      `gorm:"size:36;not null;index:idx_messages_room_created,priority:1" json:"chatRoomId"`
	Type           MessageType `gorm:"size:10;not null" json:"type"`
	Content        string      `gorm:"type:text;not null" json:"content"`
	ImageURL       string      `gorm:"size:2048" json:"imageUrl,omitempty"`
	Interpretation bool        `gorm:"not null;default:false" json:"interpretation"`
	CreatedAt      time.Time   `gorm:"index:idx_messages_room_created,priority:2" json:"createdAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
