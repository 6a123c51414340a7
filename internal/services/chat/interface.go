package chat

import (
	"context"

	"github.com/iyunix/go-dreamer/internal/domain"
)

// RoomProvider handles the per-day chat rooms
type RoomProvider interface {
	GetTodaysChatRoom(ctx context.Context, userID string) (*domain.ChatRoom, error)
	GetOwnedRoom(ctx context.Context, userID, roomID string) (*domain.ChatRoom, error)
	GetUserChatRooms(ctx context.Context, userID string, limit int) ([]domain.ChatRoom, error)
	UpdateBotSettings(ctx context.Context, userID, roomID string, in BotSettingsInput) (*domain.ChatRoom, error)
	UpdateChatRoomTitle(ctx context.Context, userID, roomID, title string) (*domain.ChatRoom, error)
	DeleteChatRoom(ctx context.Context, userID, roomID string) error
}

// ConversationProvider handles messages and generated media
type ConversationProvider interface {
	OpenTodaysRoom(ctx context.Context, userID string) (*RoomMessages, error)
	CreateChatRoom(ctx context.Context, userID, title string, settings *BotSettingsInput) (*domain.ChatRoom, error)
	SendMessage(ctx context.Context, userID, roomID, content string) (*SendResult, error)
	GetChatRoomMessages(ctx context.Context, userID, roomID string, limit, offset int, ascending bool) (*RoomMessages, error)
	GenerateImageForMessage(ctx context.Context, userID string) (*ImageResult, error)
	GenerateDreamVideo(ctx context.Context, userID string) (*VideoResult, error)
}

var (
	_ RoomProvider         = (*RoomService)(nil)
	_ ConversationProvider = (*MessageService)(nil)
)
