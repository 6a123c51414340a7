package dtos

import (
	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/services/chat"
)

type BotSettingsRequest struct {
	Gender string `json:"gender" validate:"required,oneof=male female"`
	Style  string `json:"style" validate:"required,oneof=eastern western"`
}

func (r BotSettingsRequest) Input() chat.BotSettingsInput {
	return chat.BotSettingsInput{Gender: domain.BotGender(r.Gender), Style: domain.BotStyle(r.Style)}
}

type CreateChatRoomRequest struct {
	Title       string              `json:"title,omitempty" validate:"max=100"`
	BotSettings *BotSettingsRequest `json:"botSettings,omitempty"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

type ChatRoomsResponse struct {
	ChatRooms []domain.ChatRoom `json:"chatRooms"`
}

type ChatRoomResponse struct {
	ChatRoom *domain.ChatRoom `json:"chatRoom"`
}

type UpdateTitleRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}
