package chat

import (
	"context"

	"github.com/iyunix/go-dreamer/internal/domain"
)

// ChatRoomRepository handles chat room persistence.
type ChatRoomRepository interface {
	Create(ctx context.Context, room *domain.ChatRoom) (*domain.ChatRoom, error)
	FindByID(ctx context.Context, id string) (*domain.ChatRoom, error)
	FindByUserAndDate(ctx context.Context, userID, date string) (*domain.ChatRoom, error)
	FindByUserAndDateAnyState(ctx context.Context, userID, date string) (*domain.ChatRoom, error)
	FindByUserID(ctx context.Context, userID string, limit int) ([]domain.ChatRoom, error)
	UpdateTitle(ctx context.Context, id, title string) error
	UpdateBotSettings(ctx context.Context, id string, settingsID uint) error
	SetActive(ctx context.Context, id string, active bool) error
	Deactivate(ctx context.Context, id string) error
	CountByUserID(ctx context.Context, userID string) (int64, error)
}

// BotSettingsRepository reads the seeded gender/style combinations.
type BotSettingsRepository interface {
	FindSettings(ctx context.Context, gender domain.BotGender, style domain.BotStyle) (*domain.BotSettings, error)
}
